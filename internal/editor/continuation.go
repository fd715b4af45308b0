/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package editor holds the screenplay editing engine: the auto-continuation
// rules applied when a line is committed, and Session, the explicit
// per-document state that UIs drive.
package editor

import (
	"strings"
	"unicode/utf8"

	"screenwriter/internal/script"
)

// Continuation returns the text inserted at the cursor when a line of kind k
// is committed. It always starts with the newline for the Enter itself.
//
//	character, dialogue      "\n$"   continue into dialogue
//	transition, sceneHeading "\n\n"  one blank separating line
//	everything else          "\n"
func Continuation(k script.Kind) string {
	switch k {
	case script.KindCharacter, script.KindDialogue:
		return "\n" + script.Sigil(script.KindDialogue)
	case script.KindTransition, script.KindSceneHeading:
		return "\n\n"
	default:
		return "\n"
	}
}

// SubmitLine commits the line containing cursor in a screenplay document.
// The text between the start of that line and the cursor is classified and
// the matching continuation is spliced in at the cursor. The returned cursor
// sits immediately after the inserted text. Offsets are byte offsets; an
// out-of-range or mid-rune cursor is clamped first, so every input has a result.
func SubmitLine(doc string, cursor int) (string, int) {
	return SubmitLineMode(script.ModeScreenplay, doc, cursor)
}

// SubmitLineMode is SubmitLine for a document mode. Novel documents never
// auto-continue.
func SubmitLineMode(mode script.Mode, doc string, cursor int) (string, int) {
	cursor = Clamp(doc, cursor)
	insert := "\n"
	if mode != script.ModeNovel {
		k, _ := script.Classify(LinePrefix(doc, cursor))
		insert = Continuation(k)
	}
	return doc[:cursor] + insert + doc[cursor:], cursor + len(insert)
}

// LinePrefix returns the part of the cursor's line before the cursor.
func LinePrefix(doc string, cursor int) string {
	cursor = Clamp(doc, cursor)
	return doc[lineStart(doc, cursor):cursor]
}

// Clamp limits off to [0, len(doc)] and moves it back to a rune boundary.
func Clamp(doc string, off int) int {
	if off <= 0 {
		return 0
	}
	if off >= len(doc) {
		return len(doc)
	}
	for off > 0 && !utf8.RuneStart(doc[off]) {
		off--
	}
	return off
}

func lineStart(doc string, off int) int {
	return strings.LastIndexByte(doc[:off], '\n') + 1
}

func lineEnd(doc string, off int) int {
	if i := strings.IndexByte(doc[off:], '\n'); i >= 0 {
		return off + i
	}
	return len(doc)
}
