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
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// sigils maps a leading character to its kind. The sigil is stripped from
// the visible text.
var sigils = map[byte]Kind{
	'@': KindCharacter,
	'$': KindDialogue,
	'>': KindTransition,
	'#': KindShot,
	'~': KindMusicCue,
	'%': KindMontage,
	'&': KindFlashback,
}

// Sigil returns the markup prefix that tags a line with kind k, or "" when
// the kind has no single-character sigil.
func Sigil(k Kind) string {
	for b, kk := range sigils {
		if kk == k {
			return string(b)
		}
	}
	return ""
}

// Classify determines the kind and visible text of one raw line. It is total:
// every input yields exactly one kind. Rules apply in order, first match wins:
//
//	[[...]]        note, delimiters kept
//	===...         page break, every '=' removed
//	@ $ > # ~ % &  sigil kinds, sigil removed
//	(...)          parenthetical (after trimming)
//	ALL CAPS       scene heading; needs at least one letter
//	anything else  action
//
// Classify works on partial lines, so the text before a cursor classifies
// the same way the full line would once its sigil is typed.
func Classify(raw string) (Kind, string) {
	if strings.HasPrefix(raw, "[[") && strings.HasSuffix(raw, "]]") {
		return KindNote, raw
	}
	if strings.HasPrefix(raw, "===") {
		return KindPageBreak, strings.ReplaceAll(raw, "=", "")
	}
	if raw != "" {
		if k, ok := sigils[raw[0]]; ok {
			return k, raw[1:]
		}
	}
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")") {
		return KindParenthetical, raw
	}
	if isHeading(trimmed) {
		return KindSceneHeading, raw
	}
	return KindAction, raw
}

// isHeading reports whether trimmed is non-empty, has a letter and does not
// change under Unicode upper-casing. Lines of digits and punctuation are
// uppercase-invariant but never headings.
func isHeading(trimmed string) bool {
	if trimmed == "" || strings.IndexFunc(trimmed, unicode.IsLetter) < 0 {
		return false
	}
	// Caser values carry state; one per call keeps Classify safe for concurrent use.
	return cases.Upper(language.Und).String(trimmed) == trimmed
}

// ClassifyMode classifies raw under the given mode. Novel text is always action.
func ClassifyMode(mode Mode, raw string) (Kind, string) {
	if mode == ModeNovel {
		return KindAction, raw
	}
	return Classify(raw)
}

// ClassifyLine returns raw as a Line with number 1.
func ClassifyLine(raw string) Line {
	k, text := Classify(raw)
	return Line{Number: 1, Raw: raw, Kind: k, Text: text}
}

// Speakers extracts the speaker names from a character line's visible text.
// Voice extensions such as "(V.O.)" are dropped; a dual-dialogue cue
// "ALICE          @BOB" yields both names.
func Speakers(visible string) []string {
	var out []string
	for _, part := range strings.Split(visible, "@") {
		if i := strings.IndexByte(part, '('); i >= 0 {
			part = part[:i]
		}
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}
