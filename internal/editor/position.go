/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"strings"
	"unicode/utf8"
)

// RowCol converts a byte offset into a 0-based row and a rune column.
func RowCol(doc string, off int) (row, col int) {
	off = Clamp(doc, off)
	row = strings.Count(doc[:off], "\n")
	col = utf8.RuneCountInString(doc[lineStart(doc, off):off])
	return row, col
}

// OffsetAt converts a 0-based row and rune column into a byte offset.
// Rows past the end map to the end of the document; columns past the end of
// a row map to the end of that row.
func OffsetAt(doc string, row, col int) int {
	if row < 0 || col < 0 {
		return 0
	}
	start := 0
	for r := 0; r < row; r++ {
		i := strings.IndexByte(doc[start:], '\n')
		if i < 0 {
			return len(doc)
		}
		start += i + 1
	}
	end := lineEnd(doc, start)
	off := start
	for n := 0; n < col && off < end; n++ {
		_, size := utf8.DecodeRuneInString(doc[off:end])
		off += size
	}
	return off
}
