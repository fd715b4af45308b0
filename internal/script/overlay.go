/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package script

import (
	"iter"
	"strings"
)

// Lines yields every line of doc classified independently. Lines are split
// on '\n' only; a trailing newline yields a final empty line, so the
// sequence always has one element per row an editor would show. The
// sequence is lazy and can be ranged over any number of times.
func Lines(doc string) iter.Seq[Line] { return LinesMode(doc, ModeScreenplay) }

// LinesMode is Lines under a document mode.
func LinesMode(doc string, mode Mode) iter.Seq[Line] {
	return func(yield func(Line) bool) {
		off, n := 0, 1
		for {
			end := strings.IndexByte(doc[off:], '\n')
			raw := doc[off:]
			if end >= 0 {
				raw = doc[off : off+end]
			}
			k, text := ClassifyMode(mode, raw)
			if !yield(Line{Number: n, Offset: off, Raw: raw, Kind: k, Text: text}) {
				return
			}
			if end < 0 {
				return
			}
			off += end + 1
			n++
		}
	}
}

// Collect materializes Lines(doc).
func Collect(doc string, mode Mode) []Line {
	var out []Line
	for l := range LinesMode(doc, mode) {
		out = append(out, l)
	}
	return out
}
