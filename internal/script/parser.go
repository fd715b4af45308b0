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

import "strings"

// Parse classifies every line of doc and groups the result into scenes.
// Character lines open a Cue; parenthetical and dialogue lines that follow
// attach to it until any other kind interrupts the block. Parse never fails.
func Parse(doc string, mode Mode) Script {
	s := Script{Mode: mode, Counts: map[Kind]int{}}
	cur := Scene{}
	var cue *Cue
	seen := map[string]bool{}

	flush := func() {
		if cur.Heading != "" || len(cur.Lines) > 0 {
			s.Scenes = append(s.Scenes, cur)
		}
	}

	for l := range LinesMode(doc, mode) {
		s.Lines = append(s.Lines, l)
		if strings.TrimSpace(l.Raw) == "" {
			// blank rows end a dialogue block but are not counted
			cue = nil
			continue
		}
		s.Counts[l.Kind]++

		switch l.Kind {
		case KindSceneHeading:
			flush()
			cur = Scene{Heading: strings.TrimSpace(l.Text), LineNo: l.Number}
			seen = map[string]bool{}
			cue = nil
			continue
		case KindCharacter:
			speakers := Speakers(l.Text)
			cur.Cues = append(cur.Cues, Cue{LineNo: l.Number, Speakers: speakers})
			cue = &cur.Cues[len(cur.Cues)-1]
			for _, sp := range speakers {
				if !seen[sp] {
					seen[sp] = true
					cur.Characters = append(cur.Characters, sp)
				}
			}
		case KindParenthetical:
			if cue != nil {
				cue.Parentheticals = append(cue.Parentheticals, strings.TrimSpace(l.Text))
			}
		case KindDialogue:
			if cue != nil {
				cue.Dialogue = append(cue.Dialogue, strings.TrimSpace(l.Text))
			}
		default:
			cue = nil
		}
		cur.Lines = append(cur.Lines, l)
	}
	flush()
	return s
}

// SpeakerOf returns the first speaker named by a character line, or "".
func SpeakerOf(l Line) string {
	if l.Kind != KindCharacter {
		return ""
	}
	if sp := Speakers(l.Text); len(sp) > 0 {
		return sp[0]
	}
	return ""
}
