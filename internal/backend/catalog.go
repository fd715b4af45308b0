/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"slices"

	"screenwriter/internal/analysis"
)

// Catalog is the reference data the development backend scores against.
type Catalog interface {
	// SearchFilms returns candidate films for an originality check.
	SearchFilms(ctx context.Context, query string, limit int) ([]analysis.Film, error)
	// Scenes returns every famous scene available for matching.
	Scenes(ctx context.Context) ([]analysis.Scene, error)
}

// MemoryCatalog serves a fixed in-process catalog.
type MemoryCatalog struct {
	films  []analysis.Film
	scenes []analysis.Scene
}

// NewMemoryCatalog returns the built-in catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{films: analysis.DefaultFilms(), scenes: analysis.DefaultScenes()}
}

// SearchFilms returns films sharing a word of three or more letters with the
// query, ranked by the number of shared words. Without any hit every film is
// a candidate.
func (m *MemoryCatalog) SearchFilms(_ context.Context, query string, limit int) ([]analysis.Film, error) {
	q := map[string]bool{}
	for _, t := range analysis.Tokens(query) {
		if len(t) >= 3 {
			q[t] = true
		}
	}
	type hit struct {
		f analysis.Film
		n int
	}
	var hits []hit
	for _, f := range m.films {
		n := 0
		seen := map[string]bool{}
		for _, t := range analysis.Tokens(f.Title + " " + f.Overview) {
			if q[t] && !seen[t] {
				seen[t] = true
				n++
			}
		}
		if n > 0 {
			hits = append(hits, hit{f, n})
		}
	}
	var out []analysis.Film
	if len(hits) == 0 {
		out = slices.Clone(m.films)
	} else {
		slices.SortStableFunc(hits, func(a, b hit) int { return b.n - a.n })
		for _, h := range hits {
			out = append(out, h.f)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryCatalog) Scenes(context.Context) ([]analysis.Scene, error) {
	return slices.Clone(m.scenes), nil
}
