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

// Format is one toolbar insertion.
type Format struct {
	Label string
	Value string
}

// Toolbar formats in display order. Inserting one places the cursor right
// after the inserted text.
var (
	FormatSceneHeading  = Format{"Scene Heading", "\n\nINT. "}
	FormatAction        = Format{"Action", "\n\n"}
	FormatCharacter     = Format{"Character", "\n\n@"}
	FormatDialogue      = Format{"Dialogue", "$"}
	FormatParenthetical = Format{"Parenthetical", "()"}
	FormatTransition    = Format{"Transition", "\n\n>"}
	FormatShot          = Format{"Shot", "\n\n#"}
	FormatDualDialogue  = Format{"Dual Dialogue", "\n\n@          @\n"}
	FormatMusicCue      = Format{"Music Cue", "\n\n~"}
	FormatMontage       = Format{"Montage/Intercut", "\n\n%MONTAGE - "}
	FormatFlashback     = Format{"Flashback", "\n\n&FLASHBACK - "}
	FormatNote          = Format{"Note", "\n\n[[NOTE: "}
	FormatPageBreak     = Format{"Page Break", "\n\n===PAGE BREAK===\n\n"}
)

// Formats returns the toolbar in display order.
func Formats() []Format {
	return []Format{
		FormatSceneHeading, FormatAction, FormatCharacter, FormatDialogue,
		FormatParenthetical, FormatTransition, FormatShot, FormatDualDialogue,
		FormatMusicCue, FormatMontage, FormatFlashback, FormatNote, FormatPageBreak,
	}
}
