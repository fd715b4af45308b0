//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"screenwriter/internal/editor"
	"screenwriter/internal/script"
)

// screenplayEntry is a multi-line entry that hands Enter to the formatting
// session instead of inserting a newline. Alt+Enter inserts a literal newline.
type screenplayEntry struct {
	widget.Entry

	sess     *editor.Session
	syncing  bool
	onUpdate func()
}

func newScreenplayEntry(sess *editor.Session) *screenplayEntry {
	e := &screenplayEntry{sess: sess}
	e.MultiLine = true
	e.Wrapping = fyne.TextWrapWord
	e.TextStyle = fyne.TextStyle{Monospace: true}
	e.ExtendBaseWidget(e)
	e.OnChanged = func(string) {
		if e.syncing {
			return
		}
		e.pull()
		if e.onUpdate != nil {
			e.onUpdate()
		}
	}
	e.push()
	return e
}

// SetSession rebinds the entry to another session and shows its document.
func (e *screenplayEntry) SetSession(sess *editor.Session) {
	e.sess = sess
	e.push()
}

func (e *screenplayEntry) TypedKey(k *fyne.KeyEvent) {
	if k.Name == fyne.KeyReturn || k.Name == fyne.KeyEnter {
		e.apply(e.sess.SubmitLine)
		return
	}
	e.Entry.TypedKey(k)
}

func (e *screenplayEntry) TypedShortcut(s fyne.Shortcut) {
	if cs, ok := s.(*desktop.CustomShortcut); ok && (cs.KeyName == fyne.KeyReturn || cs.KeyName == fyne.KeyEnter) {
		e.apply(e.sess.InsertNewline)
		return
	}
	e.Entry.TypedShortcut(s)
}

// InsertFormat inserts a toolbar format at the cursor.
func (e *screenplayEntry) InsertFormat(f editor.Format) {
	e.apply(func() { e.sess.InsertFormat(f) })
}

// apply runs op against the session using the entry's current text and
// cursor, then shows the result.
func (e *screenplayEntry) apply(op func()) {
	e.pull()
	op()
	e.push()
	if e.onUpdate != nil {
		e.onUpdate()
	}
}

// pull copies the entry's text and cursor into the session.
func (e *screenplayEntry) pull() {
	if e.Text == e.sess.Document() {
		e.sess.SetCursor(editor.OffsetAt(e.Text, e.CursorRow, e.CursorColumn))
		return
	}
	e.sess.SetDocument(e.Text, editor.OffsetAt(e.Text, e.CursorRow, e.CursorColumn))
}

// push shows the session's document and cursor.
func (e *screenplayEntry) push() {
	e.syncing = true
	defer func() { e.syncing = false }()
	if e.Text != e.sess.Document() {
		e.SetText(e.sess.Document())
	}
	e.CursorRow, e.CursorColumn = e.sess.RowCol()
	e.Refresh()
}

// previewSegments renders the formatting overlay as rich text: one
// paragraph per line, styled by kind. A page break is a separator followed
// by its label.
func previewSegments(doc string, mode script.Mode) []widget.RichTextSegment {
	var segs []widget.RichTextSegment
	for ln := range script.LinesMode(doc, mode) {
		if ln.Kind == script.KindPageBreak {
			segs = append(segs, &widget.SeparatorSegment{})
		}
		segs = append(segs, &widget.TextSegment{Text: ln.Display(), Style: previewStyle(ln.Kind)})
	}
	return segs
}

func previewStyle(k script.Kind) widget.RichTextStyle {
	st := widget.RichTextStyle{
		Alignment: fyne.TextAlignLeading,
		ColorName: theme.ColorNameForeground,
		SizeName:  theme.SizeNameText,
		TextStyle: fyne.TextStyle{Monospace: true},
	}
	switch k {
	case script.KindSceneHeading:
		st.TextStyle.Bold = true
	case script.KindCharacter:
		st.Alignment = fyne.TextAlignCenter
		st.TextStyle.Bold = true
	case script.KindDialogue:
		st.Alignment = fyne.TextAlignCenter
	case script.KindParenthetical:
		st.Alignment = fyne.TextAlignCenter
		st.TextStyle.Italic = true
	case script.KindTransition:
		st.Alignment = fyne.TextAlignTrailing
		st.TextStyle.Bold = true
	case script.KindShot:
		st.TextStyle.Bold = true
		st.ColorName = theme.ColorNamePrimary
	case script.KindMusicCue:
		st.Alignment = fyne.TextAlignCenter
		st.TextStyle.Italic = true
	case script.KindMontage:
		st.Alignment = fyne.TextAlignCenter
		st.TextStyle.Bold = true
	case script.KindFlashback:
		st.TextStyle.Bold = true
		st.TextStyle.Italic = true
	case script.KindNote:
		st.TextStyle.Italic = true
		st.ColorName = theme.ColorNameDisabled
	case script.KindPageBreak:
		st.Alignment = fyne.TextAlignCenter
		st.ColorName = theme.ColorNameDisabled
	}
	return st
}
