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

import "testing"

func TestLinesTrailingNewlineAndOffsets(t *testing.T) {
	doc := "@JOHN\n$Hi\n"
	got := Collect(doc, ModeScreenplay)
	if len(got) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(got))
	}
	want := []Line{
		{Number: 1, Offset: 0, Raw: "@JOHN", Kind: KindCharacter, Text: "JOHN"},
		{Number: 2, Offset: 6, Raw: "$Hi", Kind: KindDialogue, Text: "Hi"},
		{Number: 3, Offset: 10, Raw: "", Kind: KindAction, Text: ""},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %+v want %+v", i, got[i], want[i])
		}
	}
	if got[2].Display() != "\u00a0" {
		t.Errorf("empty line should display as nbsp, got %q", got[2].Display())
	}
	if got[0].Display() != "JOHN" {
		t.Errorf("display = %q", got[0].Display())
	}
}

func TestLinesEmptyDocument(t *testing.T) {
	got := Collect("", ModeScreenplay)
	if len(got) != 1 || got[0].Raw != "" || got[0].Kind != KindAction {
		t.Fatalf("empty doc: %+v", got)
	}
}

func TestLinesRestartableAndStoppable(t *testing.T) {
	seq := Lines("A\nb\nC")
	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	if a, b := count(), count(); a != 3 || b != 3 {
		t.Fatalf("sequence not restartable: %d then %d", a, b)
	}
	n := 0
	for l := range seq {
		n++
		if l.Number == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("early break yielded %d lines", n)
	}
}

func TestLinesCarriageReturnStaysInRaw(t *testing.T) {
	got := Collect("$hi\r\nnext", ModeScreenplay)
	if got[0].Raw != "$hi\r" || got[0].Kind != KindDialogue || got[0].Text != "hi\r" {
		t.Fatalf("unexpected first line %+v", got[0])
	}
}

func TestLinesMatchClassifyPerLine(t *testing.T) {
	doc := "INT. HOUSE - DAY\n\nShe waits.\n@JOHN\n(softly)\n$Hello.\n>CUT TO:\n===\n[[todo]]"
	for l := range Lines(doc) {
		k, text := Classify(l.Raw)
		if l.Kind != k || l.Text != text {
			t.Errorf("line %d mismatch: %+v vs (%v,%q)", l.Number, l, k, text)
		}
		if doc[l.Offset:l.Offset+len(l.Raw)] != l.Raw {
			t.Errorf("offset %d does not point at %q", l.Offset, l.Raw)
		}
	}
}
