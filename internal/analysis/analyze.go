/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package analysis implements the text heuristics behind the development
// backend: script statistics for the completion certificate, a bag-of-words
// similarity used for originality and scene matching, and the query letter
// template.
package analysis

import (
	"hash/fnv"
	"math"
	"regexp"
	"slices"
	"strings"

	"screenwriter/internal/script"
)

// WordsPerPage is the industry rule of thumb for screenplay pages.
const WordsPerPage = 250

// Stats summarizes a script.
type Stats struct {
	PageCount        int      `json:"page_count"`
	LocationCount    int      `json:"location_count"`
	CharacterCount   int      `json:"character_count"`
	Languages        []string `json:"languages"`
	PotentialMarkets []string `json:"potential_markets"`
	LocationsPreview []string `json:"locations_preview"`
}

var (
	reLocation  = regexp.MustCompile(`(?im)^\s*(?:INT\./EXT\.|INT\.|EXT\.)\s+(.+?)(?:\s-\s|$)`)
	reCharacter = regexp.MustCompile(`^[A-Z][A-Z0-9\s()]+$`)
	reParen     = regexp.MustCompile(`\s*\(.*?\)`)
)

var excludedHeaders = map[string]bool{
	"CUT TO:": true, "FADE IN:": true, "FADE OUT:": true, "THE END": true,
	"TRANSITION:": true, "BLACK.": true, "CONTINUED:": true,
}

var marketMap = []struct{ key, country string }{
	{"PARIS", "France"},
	{"LONDON", "United Kingdom"},
	{"TOKYO", "Japan"},
	{"NEW YORK", "USA"},
	{"LOS ANGELES", "USA"},
	{"BERLIN", "Germany"},
	{"MUMBAI", "India"},
	{"SEOUL", "South Korea"},
	{"ROME", "Italy"},
	{"RIO", "Brazil"},
}

var surpriseMarkets = []string{"Japan", "South Korea", "Brazil", "Australia", "Canada", "France"}

// Analyze computes certificate statistics for a whole script.
func Analyze(text string) Stats {
	words := len(strings.Fields(text))
	pages := int(math.RoundToEven(float64(words) / WordsPerPage))
	if pages < 1 {
		pages = 1
	}

	locations := Locations(text)
	characters := Characters(text)

	languages := []string{"English"}
	if strings.Contains(text, "Spanish") {
		languages = append(languages, "Spanish")
	}
	if strings.Contains(text, "French") {
		languages = append(languages, "French")
	}

	preview := locations
	if len(preview) > 5 {
		preview = preview[:5]
	}
	return Stats{
		PageCount:        pages,
		LocationCount:    len(locations),
		CharacterCount:   len(characters),
		Languages:        languages,
		PotentialMarkets: Markets(text, locations),
		LocationsPreview: append([]string{}, preview...),
	}
}

// Locations returns the distinct INT./EXT. heading locations in order of
// first appearance.
func Locations(text string) []string {
	var out []string
	for _, m := range reLocation.FindAllStringSubmatch(text, -1) {
		loc := strings.TrimSpace(m[1])
		if loc != "" && !slices.Contains(out, loc) {
			out = append(out, loc)
		}
	}
	return out
}

// Characters returns the distinct character names in order of first
// appearance. Names come from sigil cues and from short bare ALL-CAPS lines
// that are neither headings nor transitions; voice extensions are dropped.
func Characters(text string) []string {
	var out []string
	add := func(name string) {
		name = strings.TrimSpace(reParen.ReplaceAllString(name, ""))
		if name != "" && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	for l := range script.Lines(text) {
		if l.Kind == script.KindCharacter {
			for _, sp := range script.Speakers(l.Text) {
				add(sp)
			}
			continue
		}
		c := strings.TrimSpace(l.Raw)
		if c == "" || len(c) >= 40 || excludedHeaders[c] || strings.Contains(c, "INT.") || strings.Contains(c, "EXT.") {
			continue
		}
		if reCharacter.MatchString(c) {
			add(c)
		}
	}
	return out
}

// Markets maps locations to countries on top of the default markets. When
// that yields fewer than three, one surprise market chosen from a hash of the
// text is added, so the same script always gets the same answer.
func Markets(text string, locations []string) []string {
	set := []string{"USA", "Global Streaming"}
	for _, loc := range locations {
		up := strings.ToUpper(loc)
		for _, m := range marketMap {
			if strings.Contains(up, m.key) && !slices.Contains(set, m.country) {
				set = append(set, m.country)
			}
		}
	}
	if len(set) < 3 {
		h := fnv.New32a()
		_, _ = h.Write([]byte(text))
		set = append(set, surpriseMarkets[h.Sum32()%uint32(len(surpriseMarkets))])
	}
	head, rest := set[:2], set[2:]
	slices.Sort(rest)
	return append(head, rest...)
}
