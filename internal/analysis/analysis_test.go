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
	"slices"
	"strings"
	"testing"
)

const sampleScript = `INT. KITCHEN - NIGHT

@DETECTIVE (V.O.)
$Where were you?

ALICE
She answers in Spanish.

ALICE (CONT)
CUT TO:

EXT. PARIS STREET - DAY
int. kitchen - night
THE END`

func TestAnalyzeSample(t *testing.T) {
	st := Analyze(sampleScript)
	if st.PageCount != 1 {
		t.Errorf("pages = %d", st.PageCount)
	}
	if got := strings.Join(st.LocationsPreview, "|"); got != "KITCHEN|PARIS STREET|kitchen" {
		t.Errorf("locations = %q", got)
	}
	if st.LocationCount != 3 {
		t.Errorf("location count = %d", st.LocationCount)
	}
	if got := Characters(sampleScript); strings.Join(got, ",") != "DETECTIVE,ALICE" {
		t.Errorf("characters = %v", got)
	}
	if st.CharacterCount != 2 {
		t.Errorf("character count = %d", st.CharacterCount)
	}
	if strings.Join(st.Languages, ",") != "English,Spanish" {
		t.Errorf("languages = %v", st.Languages)
	}
	if strings.Join(st.PotentialMarkets, ",") != "USA,Global Streaming,France" {
		t.Errorf("markets = %v", st.PotentialMarkets)
	}
}

func TestAnalyzePageRounding(t *testing.T) {
	cases := map[int]int{0: 1, 100: 1, 600: 2, 625: 2, 875: 4, 1000: 4}
	for words, want := range cases {
		if got := Analyze(strings.Repeat("word ", words)).PageCount; got != want {
			t.Errorf("%d words: pages = %d want %d", words, got, want)
		}
	}
}

func TestSurpriseMarketIsDeterministic(t *testing.T) {
	a := Analyze("Nothing but action here.")
	b := Analyze("Nothing but action here.")
	if len(a.PotentialMarkets) != 3 || !slices.Equal(a.PotentialMarkets, b.PotentialMarkets) {
		t.Fatalf("markets not stable: %v vs %v", a.PotentialMarkets, b.PotentialMarkets)
	}
	if !slices.Contains(surpriseMarkets, a.PotentialMarkets[2]) {
		t.Fatalf("unexpected surprise market %q", a.PotentialMarkets[2])
	}
}

func TestLocationsPreviewCapsAtFive(t *testing.T) {
	var b strings.Builder
	for _, loc := range []string{"A", "B", "C", "D", "E", "F", "A"} {
		b.WriteString("INT. " + loc + " - DAY\n")
	}
	st := Analyze(b.String())
	if st.LocationCount != 6 || len(st.LocationsPreview) != 5 {
		t.Fatalf("count=%d preview=%v", st.LocationCount, st.LocationsPreview)
	}
}

func TestSimilarity(t *testing.T) {
	if s := Similarity("You talkin' to me?", "you TALKIN to me"); math.Abs(s-1) > 1e-9 {
		t.Errorf("identical bags: %v", s)
	}
	if s := Similarity("alpha beta", "gamma delta"); s != 0 {
		t.Errorf("disjoint: %v", s)
	}
	if s := Similarity("", "anything"); s != 0 {
		t.Errorf("empty: %v", s)
	}
	a, b := "the cat sat on the mat", "the dog sat on a log"
	if s1, s2 := Similarity(a, b), Similarity(b, a); s1 != s2 || s1 <= 0 || s1 >= 1 {
		t.Errorf("partial overlap: %v %v", s1, s2)
	}
}

func TestFindMatchingScene(t *testing.T) {
	scenes := DefaultScenes()
	m := FindMatchingScene("You talkin' to me? You talkin' to me? Then who the hell else are you talkin' to?", scenes, MatchThreshold)
	if m == nil || m.Film != "Taxi Driver" || m.Score < 60 || m.Score > 100 {
		t.Fatalf("match = %+v", m)
	}
	if FindMatchingScene("You talkin' to me?", scenes, MatchThreshold) != nil {
		t.Fatalf("short text matched")
	}
	if FindMatchingScene("A quiet afternoon in the orchard with apples.", scenes, MatchThreshold) != nil {
		t.Fatalf("unrelated text matched")
	}
	if FindMatchingScene("City of stars, are you shining just for me?", nil, MatchThreshold) != nil {
		t.Fatalf("empty catalog matched")
	}
}

func TestMatchPercentRoundsHalfToEven(t *testing.T) {
	for _, tc := range []struct {
		in   float64
		want int
	}{
		{0.625, 62},
		{0.875, 88},
		{0.6, 60},
		{1, 100},
	} {
		if got := matchPercent(tc.in); got != tc.want {
			t.Errorf("matchPercent(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestCheckOriginality(t *testing.T) {
	var overviews []string
	for _, f := range DefaultFilms() {
		overviews = append(overviews, f.Overview)
	}
	fc := DefaultFilms()[4].Overview
	score, match := CheckOriginality(fc, overviews)
	if !IsBlocked(score) || match != fc {
		t.Fatalf("copy not blocked: %v %q", score, match)
	}
	score, _ = CheckOriginality("A retired beekeeper teaches chess to a robot on Mars.", overviews)
	if IsBlocked(score) {
		t.Fatalf("original synopsis blocked: %v", score)
	}
	if IsBlocked(BlockThreshold) {
		t.Fatalf("threshold itself must not block")
	}
	if s, m := CheckOriginality("x", []string{"", ""}); s != 0 || m != "" {
		t.Fatalf("empty overviews: %v %q", s, m)
	}
}

func TestQueryLetter(t *testing.T) {
	syn := strings.Repeat("á", 120)
	l := QueryLetter("Night Shift", syn)
	if !strings.Contains(l, "my new project, NIGHT SHIFT.") {
		t.Errorf("title not upper-cased: %s", l)
	}
	if !strings.Contains(l, "LOGLINE: "+strings.Repeat("á", 100)+"...") {
		t.Errorf("logline not truncated by runes")
	}
	if !strings.HasPrefix(l, "Dear Agent,") || !strings.Contains(l, "[Writer Name]") {
		t.Errorf("template mismatch")
	}
	if Logline("One. Two.") != "One." || Logline("no break") != "no break" {
		t.Errorf("logline extraction")
	}
}
