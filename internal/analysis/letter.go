/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package analysis

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const loglineRunes = 100

// QueryLetter renders an agent query letter for a project.
func QueryLetter(title, synopsis string) string {
	return fmt.Sprintf(`Dear Agent,

I am seeking representation for my new project, %s.

LOGLINE: %s...

%s

This project is a high-concept thriller with a unique twist.
I believe it would be a great fit for your roster.

Sincerely,
[Writer Name]
`, cases.Upper(language.Und).String(title), truncateRunes(synopsis, loglineRunes), synopsis)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Logline returns the first sentence of a synopsis, or the whole synopsis
// when it has no sentence break.
func Logline(synopsis string) string {
	for i, r := range synopsis {
		if r == '.' || r == '!' || r == '?' {
			return synopsis[:i+1]
		}
	}
	return synopsis
}
