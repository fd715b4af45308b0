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
	"context"
	"errors"
	"strings"
	"testing"

	"screenwriter/internal/script"
)

type memStore struct {
	d       Draft
	saved   []Draft
	loadErr error
}

func (m *memStore) Load(context.Context) (Draft, error) { return m.d, m.loadErr }
func (m *memStore) Save(_ context.Context, d Draft) error {
	m.saved = append(m.saved, d)
	m.d = d
	return nil
}

func TestNewSessionSeedsFromSynopsis(t *testing.T) {
	s := NewSession(Draft{Synopsis: "A cop hunts a ghost."}, nil)
	if s.Document() != "EXT. LOCATION - DAY\n\nA cop hunts a ghost." {
		t.Fatalf("seed = %q", s.Document())
	}
	if s.Cursor() != len(s.Document()) || s.Title() != DefaultTitle || s.Mode() != script.ModeScreenplay || s.Dirty() {
		t.Fatalf("unexpected session state: %+v", s.Draft())
	}

	n := NewSession(Draft{Mode: script.ModeNovel, Synopsis: "x"}, nil)
	if n.Document() != "CHAPTER 1\n\nx" {
		t.Fatalf("novel seed = %q", n.Document())
	}
	if e := NewSession(Draft{}, nil); e.Document() != "" {
		t.Fatalf("empty synopsis seeded %q", e.Document())
	}
	if k := NewSession(Draft{Synopsis: "x", Document: "kept"}, nil); k.Document() != "kept" {
		t.Fatalf("existing document overwritten: %q", k.Document())
	}
}

func TestSessionTypingFlow(t *testing.T) {
	s := NewSession(Draft{}, nil)
	var changes int
	s.OnChange(func(string) { changes++ })

	s.InsertText("@DETECTIVE")
	s.SubmitLine()
	if s.Document() != "@DETECTIVE\n$" || s.Cursor() != 12 {
		t.Fatalf("after submit: %q @%d", s.Document(), s.Cursor())
	}
	s.InsertText("Where were you?")
	s.SubmitLine()
	s.DeleteBackward() // drop the auto-inserted $
	s.InsertText(">CUT TO:")
	s.SubmitLine()
	want := "@DETECTIVE\n$Where were you?\n>CUT TO:\n\n"
	if s.Document() != want || s.Cursor() != len(want) {
		t.Fatalf("doc = %q @%d", s.Document(), s.Cursor())
	}
	if changes != 7 || !s.Dirty() {
		t.Fatalf("changes=%d dirty=%v", changes, s.Dirty())
	}
	if cl := s.CurrentLine(); cl.Number != 5 || cl.Raw != "" || cl.Kind != script.KindAction {
		t.Fatalf("current line = %+v", cl)
	}
	s.InsertNewline()
	if !strings.HasSuffix(s.Document(), "\n\n\n") {
		t.Fatalf("literal newline not inserted: %q", s.Document())
	}
}

func TestSessionInsertFormatAtCursor(t *testing.T) {
	s := NewSession(Draft{Document: "INT. A\nB"}, nil)
	s.SetCursor(6)
	s.InsertFormat(FormatCharacter)
	if s.Document() != "INT. A\n\n@\nB" || s.Cursor() != 9 {
		t.Fatalf("doc = %q @%d", s.Document(), s.Cursor())
	}
	if s.CurrentLine().Kind != script.KindCharacter {
		t.Fatalf("cursor not on the character line")
	}
	if len(Formats()) != 13 || Formats()[12] != FormatPageBreak {
		t.Fatalf("toolbar order changed")
	}
}

func TestSessionCursorMovementAndDeletes(t *testing.T) {
	s := NewSession(Draft{Document: "héllo\nab\nlonger line"}, nil)
	s.SetCursor(0)
	s.MoveRight()
	s.MoveRight()
	if s.Cursor() != 3 {
		t.Fatalf("MoveRight over é: %d", s.Cursor())
	}
	s.MoveDown()
	if r, c := s.RowCol(); r != 1 || c != 2 {
		t.Fatalf("MoveDown clamps column: (%d,%d)", r, c)
	}
	s.MoveDown()
	if r, c := s.RowCol(); r != 2 || c != 2 {
		t.Fatalf("MoveDown: (%d,%d)", r, c)
	}
	s.MoveDown()
	if s.Cursor() != len(s.Document()) {
		t.Fatalf("MoveDown on last row should go to end")
	}
	s.MoveLineStart()
	s.MoveUp()
	s.MoveUp()
	s.MoveLineEnd()
	if s.Cursor() != 6 {
		t.Fatalf("line end of row 0 = %d", s.Cursor())
	}
	s.MoveLeft()
	s.MoveLeft()
	s.MoveLeft()
	s.DeleteBackward()
	if s.Document()[:5] != "hllo\n" || s.Cursor() != 1 {
		t.Fatalf("DeleteBackward of é: %q @%d", s.Document(), s.Cursor())
	}
	s.DeleteForward()
	if !strings.HasPrefix(s.Document(), "hlo\n") || s.Cursor() != 1 {
		t.Fatalf("DeleteForward: %q @%d", s.Document(), s.Cursor())
	}
	s.SetCursor(0)
	s.DeleteBackward()
	s.MoveLeft()
	s.MoveUp()
	if s.Cursor() != 0 {
		t.Fatalf("cursor escaped document start")
	}
}

func TestSessionLoadSave(t *testing.T) {
	st := &memStore{d: Draft{Title: "Noir", Synopsis: "Rain.", Mode: script.ModeScreenplay}}
	s := NewSession(Draft{}, st)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Title() != "Noir" || s.Document() != "EXT. LOCATION - DAY\n\nRain." {
		t.Fatalf("loaded session: %+v", s.Draft())
	}
	s.InsertText("\n@MAX")
	s.SetTitle("Noir II")
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Dirty() || len(st.saved) != 1 || st.saved[0].Title != "Noir II" || !strings.HasSuffix(st.saved[0].Document, "@MAX") {
		t.Fatalf("saved draft: %+v", st.saved)
	}

	st.loadErr = errors.New("disk gone")
	before := s.Document()
	if err := s.Load(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
	if s.Document() != before {
		t.Fatalf("failed load changed the document")
	}

	bare := NewSession(Draft{}, nil)
	if err := bare.Save(context.Background()); !errors.Is(err, ErrNoStore) {
		t.Fatalf("Save without store: %v", err)
	}
}

func TestSessionLinesUseMode(t *testing.T) {
	s := NewSession(Draft{Mode: script.ModeNovel, Document: "@JOHN\nINT. X"}, nil)
	for l := range s.Lines() {
		if l.Kind != script.KindAction {
			t.Fatalf("novel line %d classified %v", l.Number, l.Kind)
		}
	}
}
