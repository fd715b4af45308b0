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
	"iter"
	"unicode/utf8"

	"screenwriter/internal/script"
)

// DefaultTitle names a project the user has not titled yet.
const DefaultTitle = "Untitled Project"

// Draft is the persisted part of a session.
type Draft struct {
	Title    string
	Synopsis string
	Mode     script.Mode
	Document string
}

// Store loads and saves drafts for a session.
type Store interface {
	Load(ctx context.Context) (Draft, error)
	Save(ctx context.Context, d Draft) error
}

// ErrNoStore is returned by Load and Save on a session without a store.
var ErrNoStore = errors.New("editor: session has no store")

// Seed returns the opening document for an empty draft: a placeholder scene
// heading (or chapter title in novel mode) followed by the synopsis. An empty
// synopsis seeds nothing.
func Seed(mode script.Mode, synopsis string) string {
	if synopsis == "" {
		return ""
	}
	if mode == script.ModeNovel {
		return "CHAPTER 1\n\n" + synopsis
	}
	return "EXT. LOCATION - DAY\n\n" + synopsis
}

// Session owns one document and its cursor. Every mutation updates both in
// the same call. A Session is driven from a single UI goroutine and is not
// safe for concurrent use.
type Session struct {
	draft    Draft
	cursor   int
	dirty    bool
	store    Store
	onChange func(doc string)
}

// NewSession creates a session for d. An empty document is seeded from the
// synopsis and the cursor starts at the end of the document.
func NewSession(d Draft, store Store) *Session {
	s := &Session{store: store}
	s.reset(d)
	return s
}

func (s *Session) reset(d Draft) {
	if d.Title == "" {
		d.Title = DefaultTitle
	}
	if d.Mode == "" {
		d.Mode = script.ModeScreenplay
	}
	if d.Document == "" {
		d.Document = Seed(d.Mode, d.Synopsis)
	}
	s.draft = d
	s.cursor = len(d.Document)
	s.dirty = false
}

// OnChange registers fn to be called with the new document after every
// mutation. Only one observer is kept.
func (s *Session) OnChange(fn func(doc string)) { s.onChange = fn }

// Title returns the draft title.
func (s *Session) Title() string { return s.draft.Title }

// Synopsis returns the draft synopsis.
func (s *Session) Synopsis() string { return s.draft.Synopsis }

// Mode returns the writing mode lines are classified in.
func (s *Session) Mode() script.Mode { return s.draft.Mode }

// Document returns the current text.
func (s *Session) Document() string { return s.draft.Document }

// Cursor returns the cursor as a byte offset into Document.
func (s *Session) Cursor() int { return s.cursor }

// Dirty reports whether the draft changed since the last load or save.
func (s *Session) Dirty() bool { return s.dirty }

// Draft returns the draft as it would be saved.
func (s *Session) Draft() Draft { return s.draft }

// SetTitle renames the draft and marks it dirty.
func (s *Session) SetTitle(t string) {
	s.draft.Title = t
	s.dirty = true
}

// SetSynopsis replaces the synopsis and marks the draft dirty.
func (s *Session) SetSynopsis(v string) {
	s.draft.Synopsis = v
	s.dirty = true
}

// RowCol returns the cursor's row and rune column.
func (s *Session) RowCol() (int, int) { return RowCol(s.draft.Document, s.cursor) }

// Lines returns the overlay sequence for the current document.
func (s *Session) Lines() iter.Seq[script.Line] {
	return script.LinesMode(s.draft.Document, s.draft.Mode)
}

// CurrentLine returns the classified line the cursor is on.
func (s *Session) CurrentLine() script.Line {
	doc := s.draft.Document
	start := lineStart(doc, s.cursor)
	raw := doc[start:lineEnd(doc, s.cursor)]
	row, _ := s.RowCol()
	k, text := script.ClassifyMode(s.draft.Mode, raw)
	return script.Line{Number: row + 1, Offset: start, Raw: raw, Kind: k, Text: text}
}

func (s *Session) apply(doc string, cursor int) {
	s.draft.Document = doc
	s.cursor = Clamp(doc, cursor)
	s.dirty = true
	if s.onChange != nil {
		s.onChange(doc)
	}
}

// SetDocument replaces the document and places the cursor.
func (s *Session) SetDocument(doc string, cursor int) { s.apply(doc, cursor) }

// SetCursor moves the cursor, clamped into the document.
func (s *Session) SetCursor(off int) { s.cursor = Clamp(s.draft.Document, off) }

// SubmitLine commits the current line with auto-continuation.
func (s *Session) SubmitLine() {
	s.apply(SubmitLineMode(s.draft.Mode, s.draft.Document, s.cursor))
}

// InsertNewline inserts a literal newline with no continuation.
func (s *Session) InsertNewline() { s.InsertText("\n") }

// InsertText inserts text at the cursor and moves the cursor past it.
func (s *Session) InsertText(text string) {
	if text == "" {
		return
	}
	doc, c := s.draft.Document, s.cursor
	s.apply(doc[:c]+text+doc[c:], c+len(text))
}

// InsertFormat inserts a toolbar format at the cursor.
func (s *Session) InsertFormat(f Format) { s.InsertText(f.Value) }

// DeleteBackward removes the rune before the cursor.
func (s *Session) DeleteBackward() {
	doc, c := s.draft.Document, s.cursor
	if c == 0 {
		return
	}
	_, size := utf8.DecodeLastRuneInString(doc[:c])
	s.apply(doc[:c-size]+doc[c:], c-size)
}

// DeleteForward removes the rune after the cursor.
func (s *Session) DeleteForward() {
	doc, c := s.draft.Document, s.cursor
	if c >= len(doc) {
		return
	}
	_, size := utf8.DecodeRuneInString(doc[c:])
	s.apply(doc[:c]+doc[c+size:], c)
}

// MoveLeft moves the cursor back one rune.
func (s *Session) MoveLeft() {
	if s.cursor == 0 {
		return
	}
	_, size := utf8.DecodeLastRuneInString(s.draft.Document[:s.cursor])
	s.cursor -= size
}

// MoveRight moves the cursor forward one rune.
func (s *Session) MoveRight() {
	if s.cursor >= len(s.draft.Document) {
		return
	}
	_, size := utf8.DecodeRuneInString(s.draft.Document[s.cursor:])
	s.cursor += size
}

// MoveUp moves to the same column on the previous line, or to the start
// of the document from the first line.
func (s *Session) MoveUp() {
	row, col := s.RowCol()
	if row == 0 {
		s.cursor = 0
		return
	}
	s.cursor = OffsetAt(s.draft.Document, row-1, col)
}

// MoveDown moves to the same column on the next line, or to the end of the
// document from the last line.
func (s *Session) MoveDown() {
	row, col := s.RowCol()
	doc := s.draft.Document
	if lineEnd(doc, s.cursor) == len(doc) {
		s.cursor = len(doc)
		return
	}
	s.cursor = OffsetAt(doc, row+1, col)
}

// MoveLineStart moves the cursor to the start of its line.
func (s *Session) MoveLineStart() { s.cursor = lineStart(s.draft.Document, s.cursor) }

// MoveLineEnd moves the cursor to the end of its line.
func (s *Session) MoveLineEnd() { s.cursor = lineEnd(s.draft.Document, s.cursor) }

// Load replaces the session state with the stored draft.
func (s *Session) Load(ctx context.Context) error {
	if s.store == nil {
		return ErrNoStore
	}
	d, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.reset(d)
	return nil
}

// Save hands the draft to the store and clears the dirty flag on success.
func (s *Session) Save(ctx context.Context) error {
	if s.store == nil {
		return ErrNoStore
	}
	if err := s.store.Save(ctx, s.draft); err != nil {
		return err
	}
	s.dirty = false
	return nil
}
