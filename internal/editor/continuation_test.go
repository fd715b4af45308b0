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
	"testing"
	"testing/quick"

	"screenwriter/internal/script"
)

func TestSubmitLineScenarios(t *testing.T) {
	cases := []struct {
		name    string
		doc     string
		cursor  int
		wantDoc string
		wantCur int
	}{
		{"character continues into dialogue", "@DETECTIVE", 10, "@DETECTIVE\n$", 12},
		{"dialogue stays in dialogue", "$Hello there", 12, "$Hello there\n$", 14},
		{"transition leaves a blank line", ">CUT TO:", 8, ">CUT TO:\n\n", 10},
		{"scene heading leaves a blank line", "INT. HOUSE - DAY", 16, "INT. HOUSE - DAY\n\n", 18},
		{"action is a bare newline", "She runs.", 9, "She runs.\n", 10},
		{"start of document is action", "@JOHN", 0, "\n@JOHN", 1},
		{"prefix before cursor decides", "@JOHN rest", 5, "@JOHN\n$ rest", 7},
		{"sigil alone is enough", "@", 1, "@\n$", 3},
		{"only the cursor line counts", "INT. X\n@BOB", 11, "INT. X\n@BOB\n$", 13},
		{"blank line is action", "@BOB\n", 5, "@BOB\n\n", 6},
		{"cursor past end is clamped", "@A", 100, "@A\n$", 4},
		{"negative cursor is clamped", "@A", -3, "\n@A", 1},
		{"mid-rune cursor moves back", "$é", 2, "$\n$é", 3},
		{"empty document", "", 0, "\n", 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			doc, cur := SubmitLine(c.doc, c.cursor)
			if doc != c.wantDoc || cur != c.wantCur {
				t.Fatalf("SubmitLine(%q, %d) = (%q, %d), want (%q, %d)", c.doc, c.cursor, doc, cur, c.wantDoc, c.wantCur)
			}
		})
	}
}

func TestSubmitLineNoContinuationKinds(t *testing.T) {
	for _, raw := range []string{"(beat)", "#ANGLE on door", "~Strings", "%Montage", "&Flashback", "[[NOTE: x]]", "===PAGE BREAK===", "walks away"} {
		doc, cur := SubmitLine(raw, len(raw))
		if doc != raw+"\n" || cur != len(raw)+1 {
			t.Errorf("%q: got (%q, %d)", raw, doc, cur)
		}
	}
}

func TestSubmitLineNovelModeIsLiteral(t *testing.T) {
	for _, raw := range []string{"@JOHN", ">CUT TO:", "CHAPTER 1"} {
		doc, cur := SubmitLineMode(script.ModeNovel, raw, len(raw))
		if doc != raw+"\n" || cur != len(raw)+1 {
			t.Errorf("%q: got (%q, %d)", raw, doc, cur)
		}
	}
}

func TestSubmitLineSplicesAtCursor(t *testing.T) {
	allowed := map[string]bool{"\n": true, "\n$": true, "\n\n": true}
	f := func(doc string, cursor int) bool {
		c := Clamp(doc, cursor)
		out, nc := SubmitLine(doc, cursor)
		if !strings.HasPrefix(out, doc[:c]) || !strings.HasSuffix(out, doc[c:]) {
			return false
		}
		ins := out[c : len(out)-len(doc[c:])]
		return allowed[ins] && nc == c+len(ins)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestContinuationTable(t *testing.T) {
	want := map[script.Kind]string{
		script.KindCharacter:    "\n$",
		script.KindDialogue:     "\n$",
		script.KindTransition:   "\n\n",
		script.KindSceneHeading: "\n\n",
	}
	for _, k := range script.Kinds() {
		exp, ok := want[k]
		if !ok {
			exp = "\n"
		}
		if got := Continuation(k); got != exp {
			t.Errorf("Continuation(%v) = %q want %q", k, got, exp)
		}
	}
}

func TestLinePrefix(t *testing.T) {
	doc := "INT. A\n@BOB says"
	if got := LinePrefix(doc, 11); got != "@BOB" {
		t.Fatalf("LinePrefix = %q", got)
	}
	if got := LinePrefix(doc, 7); got != "" {
		t.Fatalf("LinePrefix at line start = %q", got)
	}
}
