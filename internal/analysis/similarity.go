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
	"math"
	"strings"
	"unicode"
)

// Tokens lowercases text and splits it into words of letters and digits.
// Apostrophes inside words are dropped so "talkin'" and "talkin" agree.
func Tokens(text string) []string {
	text = strings.ReplaceAll(strings.ToLower(text), "'", "")
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Similarity is the cosine similarity of the term-frequency vectors of a and
// b, in [0, 1]. Either side empty yields 0.
func Similarity(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	va, vb := termFreq(ta), termFreq(tb)
	var dot, na, nb float64
	for w, x := range va {
		na += x * x
		dot += x * vb[w]
	}
	for _, y := range vb {
		nb += y * y
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Min(1, math.Max(0, s))
}

func termFreq(toks []string) map[string]float64 {
	m := make(map[string]float64, len(toks))
	for _, t := range toks {
		m[t]++
	}
	return m
}

// BlockThreshold is the originality score above which a synopsis is blocked.
const BlockThreshold = 0.7

// CheckOriginality returns the highest similarity between synopsis and any
// candidate overview, and the overview that produced it.
func CheckOriginality(synopsis string, overviews []string) (float64, string) {
	var best float64
	var match string
	for _, o := range overviews {
		if o == "" {
			continue
		}
		if s := Similarity(synopsis, o); s > best {
			best, match = s, o
		}
	}
	return best, match
}

// IsBlocked reports whether an originality score blocks the synopsis.
func IsBlocked(score float64) bool { return score > BlockThreshold }
