/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"screenwriter/internal/script"
)

func TestProjectJSONRoundTrip(t *testing.T) {
	p := NewProject("RoundTrip", "A story.", script.ModeNovel)
	p.Completed = &Completion{At: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), PageCount: 3}

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Project
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != p.ID || got.Title != p.Title || got.Mode != script.ModeNovel {
		t.Fatalf("mismatch: got %+v want %+v", got, p)
	}
	if got.Completed == nil || got.Completed.PageCount != 3 {
		t.Fatalf("completion lost: %+v", got.Completed)
	}
}

func TestNormalize(t *testing.T) {
	var p Project
	p.Normalize()
	if _, err := uuid.Parse(p.ID); err != nil {
		t.Fatalf("expected uuid id, got %q", p.ID)
	}
	if p.Title != "Untitled Project" || p.Mode != script.ModeScreenplay {
		t.Fatalf("unexpected defaults %+v", p)
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.Before(p.CreatedAt) {
		t.Fatalf("bad timestamps %+v", p)
	}

	p = Project{ID: "keep", Title: "  ", Mode: "weird"}
	p.Normalize()
	if p.ID != "keep" || p.Mode != script.ModeScreenplay {
		t.Fatalf("unexpected %+v", p)
	}
}
