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

import "testing"

func TestRowColAndOffsetAt(t *testing.T) {
	doc := "ab\ncé d\n\nxyz"
	cases := []struct{ off, row, col int }{
		{0, 0, 0},
		{2, 0, 2},
		{3, 1, 0},
		{6, 1, 2}, // after é (two bytes)
		{8, 1, 4},
		{9, 2, 0},
		{13, 3, 3},
	}
	for _, c := range cases {
		r, col := RowCol(doc, c.off)
		if r != c.row || col != c.col {
			t.Errorf("RowCol(%d) = (%d,%d) want (%d,%d)", c.off, r, col, c.row, c.col)
		}
		if got := OffsetAt(doc, c.row, c.col); got != c.off {
			t.Errorf("OffsetAt(%d,%d) = %d want %d", c.row, c.col, got, c.off)
		}
	}
	if got := OffsetAt(doc, 0, 99); got != 2 {
		t.Errorf("column past row end: %d", got)
	}
	if got := OffsetAt(doc, 99, 0); got != len(doc) {
		t.Errorf("row past end: %d", got)
	}
	if got := OffsetAt(doc, -1, 0); got != 0 {
		t.Errorf("negative row: %d", got)
	}
}

func TestClamp(t *testing.T) {
	doc := "aé"
	for in, want := range map[int]int{-1: 0, 0: 0, 1: 1, 2: 1, 3: 3, 9: 3} {
		if got := Clamp(doc, in); got != want {
			t.Errorf("Clamp(%d) = %d want %d", in, got, want)
		}
	}
}
