/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package tui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"screenwriter/internal/editor"
	"screenwriter/internal/script"
)

var (
	headingStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	actionStyle     = lipgloss.NewStyle()
	characterStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dialogueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	parenStyle      = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("147"))
	transitionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	shotStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("110"))
	musicStyle      = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("141"))
	montageStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("178"))
	flashbackStyle  = lipgloss.NewStyle().Bold(true).Italic(true).Foreground(lipgloss.Color("180"))
	noteStyle       = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244"))
	pageBreakStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	rawLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
	cursorStyle  = lipgloss.NewStyle().Reverse(true)
	gutterStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

// Indents in terminal cells, scaled down from the printed page.
const (
	gutterWidth      = 2
	characterIndent  = 20
	dialogueIndent   = 10
	dialogueWidth    = 36
	parenIndent      = 15
	minContentWidth  = 20
	pageBreakPattern = "─"
)

// Render draws the formatting overlay for doc without a cursor.
func Render(doc string, mode script.Mode, width int) string {
	out, _ := renderDocument(doc, mode, -1, width)
	return out
}

// renderDocument draws the live formatting overlay for doc. The line under
// the cursor is shown raw, sigils included, with the cursor drawn into it;
// every other line is drawn by kind. A negative cursor draws no cursor line.
// It returns the rendered text and the output row the cursor is on.
func renderDocument(doc string, mode script.Mode, cursor, width int) (string, int) {
	if width < minContentWidth+gutterWidth {
		width = minContentWidth + gutterWidth
	}
	width -= gutterWidth
	row := -1
	if cursor >= 0 {
		cursor = editor.Clamp(doc, cursor)
		row, _ = editor.RowCol(doc, cursor)
	}

	var b strings.Builder
	rows, cursorRow := 0, 0
	for ln := range script.LinesMode(doc, mode) {
		var block string
		if ln.Number == row+1 {
			cursorRow = rows
			block = gutterStyle.Render("▌ ") + rawWithCursor(ln.Raw, cursor-ln.Offset)
		} else {
			block = indentBlock(renderLine(ln, width), strings.Repeat(" ", gutterWidth))
		}
		if rows > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(block)
		rows += strings.Count(block, "\n") + 1
	}
	return b.String(), cursorRow
}

func rawWithCursor(raw string, col int) string {
	if col < 0 {
		col = 0
	}
	if col > len(raw) {
		col = len(raw)
	}
	before, after := raw[:col], raw[col:]
	under := " "
	if after != "" {
		_, size := utf8.DecodeRuneInString(after)
		under, after = after[:size], after[size:]
	}
	return rawLineStyle.Render(before) + cursorStyle.Render(under) + rawLineStyle.Render(after)
}

// renderLine lays out one classified line within width cells.
func renderLine(ln script.Line, width int) string {
	text := ln.Display()
	switch ln.Kind {
	case script.KindSceneHeading:
		return headingStyle.Render(wordwrap.String(strings.ToUpper(text), width))
	case script.KindCharacter:
		return indentBlock(characterStyle.Render(text), strings.Repeat(" ", min(characterIndent, width/3)))
	case script.KindDialogue:
		w := min(dialogueWidth, width-dialogueIndent)
		return indentBlock(dialogueStyle.Render(wordwrap.String(text, w)), strings.Repeat(" ", dialogueIndent))
	case script.KindParenthetical:
		return indentBlock(parenStyle.Render(text), strings.Repeat(" ", parenIndent))
	case script.KindTransition:
		return transitionStyle.Width(width).Align(lipgloss.Right).Render(strings.ToUpper(text))
	case script.KindShot:
		return indentBlock(shotStyle.Render(wordwrap.String(text, width-4)), "    ")
	case script.KindMusicCue:
		return musicStyle.Width(width).Align(lipgloss.Center).Render("♪ " + text)
	case script.KindMontage:
		return montageStyle.Width(width).Align(lipgloss.Center).Render(strings.ToUpper(text))
	case script.KindFlashback:
		return flashbackStyle.Render(wordwrap.String(text, width))
	case script.KindNote:
		return noteStyle.Render(wordwrap.String(text, width))
	case script.KindPageBreak:
		rule := pageBreakStyle.Render(strings.Repeat(pageBreakPattern, width))
		return rule + "\n" + pageBreakStyle.Width(width).Align(lipgloss.Center).Render(text)
	default:
		return actionStyle.Render(wordwrap.String(text, width))
	}
}

func indentBlock(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}
