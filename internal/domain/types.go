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
	"strings"
	"time"

	"github.com/google/uuid"

	"screenwriter/internal/script"
)

// This file defines the project manifest persisted as screenplay.json next to
// the draft text. The draft itself lives in script/script.txt so it stays
// plain, diffable text.

// Project is the manifest of a screenplay project.
type Project struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Synopsis  string      `json:"synopsis,omitempty"`
	Mode      script.Mode `json:"mode"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Completed *Completion `json:"completed,omitempty"`
}

// Completion records the last "complete project" run.
type Completion struct {
	At        time.Time `json:"at"`
	PageCount int       `json:"page_count"`
}

// NewProject returns a manifest with a fresh ID and timestamps.
func NewProject(title, synopsis string, mode script.Mode) Project {
	now := time.Now().UTC()
	p := Project{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		Synopsis:  synopsis,
		Mode:      mode,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.Normalize()
	return p
}

// Normalize fills defaults for fields a hand-edited manifest may omit.
func (p *Project) Normalize() {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if strings.TrimSpace(p.Title) == "" {
		p.Title = "Untitled Project"
	}
	if p.Mode != script.ModeNovel {
		p.Mode = script.ModeScreenplay
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.UpdatedAt.Before(p.CreatedAt) {
		p.UpdatedAt = p.CreatedAt
	}
}
