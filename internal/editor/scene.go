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

	"screenwriter/internal/script"
)

// SceneAt returns the text of the scene containing cursor: from the nearest
// scene heading at or above the cursor line up to the next heading. Text
// before the first heading counts as its own scene.
func SceneAt(doc string, cursor int) string {
	cursor = Clamp(doc, cursor)
	start, end := 0, len(doc)
	for l := range script.Lines(doc) {
		if l.Kind != script.KindSceneHeading {
			continue
		}
		if l.Offset <= lineStart(doc, cursor) {
			start = l.Offset
			continue
		}
		end = l.Offset
		break
	}
	return strings.TrimSpace(doc[start:end])
}

// CurrentScene is SceneAt for the session's cursor.
func (s *Session) CurrentScene() string { return SceneAt(s.draft.Document, s.cursor) }
