/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package script implements the screenplay markup: a per-line classifier
// that maps prefix sigils and delimiters to element kinds, the lazy overlay
// sequence consumed by renderers, and an outline parser built on top.
package script

import "strings"

// Kind is the semantic element kind of a single line.
type Kind int

const (
	KindAction Kind = iota
	KindSceneHeading
	KindCharacter
	KindDialogue
	KindParenthetical
	KindTransition
	KindShot
	KindMusicCue
	KindMontage
	KindFlashback
	KindNote
	KindPageBreak
)

var kindNames = [...]string{
	KindAction:        "action",
	KindSceneHeading:  "sceneHeading",
	KindCharacter:     "character",
	KindDialogue:      "dialogue",
	KindParenthetical: "parenthetical",
	KindTransition:    "transition",
	KindShot:          "shot",
	KindMusicCue:      "musicCue",
	KindMontage:       "montage",
	KindFlashback:     "flashback",
	KindNote:          "note",
	KindPageBreak:     "pageBreak",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Kinds returns every element kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

// ParseKind resolves a kind name case-insensitively. Both the camelCase name
// ("sceneHeading") and a dashed form ("scene-heading") are accepted.
func ParseKind(s string) (Kind, bool) {
	n := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
	for i, name := range kindNames {
		if strings.ToLower(name) == n {
			return Kind(i), true
		}
	}
	return KindAction, false
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a kind name; unknown names decode to action.
func (k *Kind) UnmarshalText(b []byte) error {
	*k, _ = ParseKind(string(b))
	return nil
}

// Mode selects how a document is interpreted. Novel text carries no
// screenplay markup; every line is action.
type Mode string

const (
	ModeScreenplay Mode = "screenplay"
	ModeNovel      Mode = "novel"
)

// ParseMode maps a user-supplied mode name; anything unrecognized is screenplay.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeNovel)) {
		return ModeNovel
	}
	return ModeScreenplay
}

// Line is one classified line of a document.
type Line struct {
	Number int    // 1-based
	Offset int    // byte offset of the line start in the document
	Raw    string // full line including any sigil
	Kind   Kind
	Text   string // visible text
}

// nbsp keeps empty lines at full height in overlays.
const nbsp = "\u00a0"

// Display returns the text an overlay should draw for the line: the visible
// text, or a single non-breaking space when there is none.
func (l Line) Display() string {
	if l.Text == "" {
		return nbsp
	}
	return l.Text
}

// Cue is a dialogue block: a character line and the parenthetical and
// dialogue lines that follow it.
type Cue struct {
	LineNo         int
	Speakers       []string // two entries for dual dialogue
	Parentheticals []string
	Dialogue       []string
}

// Scene groups the lines from one scene heading up to the next. Lines that
// precede the first heading belong to a scene with an empty Heading.
type Scene struct {
	Heading    string
	LineNo     int
	Lines      []Line
	Cues       []Cue
	Characters []string // in order of first appearance
}

// Script is the parsed form of a document.
type Script struct {
	Mode   Mode
	Lines  []Line
	Scenes []Scene
	Counts map[Kind]int
}

// Characters returns every distinct speaker in order of first appearance.
func (s Script) Characters() []string {
	var out []string
	seen := map[string]bool{}
	for _, sc := range s.Scenes {
		for _, c := range sc.Characters {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// Headings returns the scene headings, skipping the untitled preamble.
func (s Script) Headings() []Scene {
	var out []Scene
	for _, sc := range s.Scenes {
		if sc.Heading != "" {
			out = append(out, sc)
		}
	}
	return out
}
