/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"screenwriter/internal/editor"
)

// DefaultSnapshotKeep bounds the draft history kept in the index.
const DefaultSnapshotKeep = 50

// ProjectStore persists an editor session into a project directory. Saving
// writes the draft and manifest, then refreshes the search index and records
// a history snapshot; index failures are logged since the index can always be
// rebuilt from the draft.
type ProjectStore struct {
	mu   sync.Mutex
	ph   *ProjectHandle
	keep int
	log  *slog.Logger
}

var _ editor.Store = (*ProjectStore)(nil)

// NewProjectStore wraps an open project.
func NewProjectStore(ph *ProjectHandle) *ProjectStore {
	return &ProjectStore{ph: ph, keep: DefaultSnapshotKeep, log: indexLogger(ph.Root)}
}

// Handle returns the underlying project handle.
func (s *ProjectStore) Handle() *ProjectHandle { return s.ph }

// Load reads the manifest fields and the draft.
func (s *ProjectStore) Load(_ context.Context) (editor.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ph == nil {
		return editor.Draft{}, errors.New("nil ProjectHandle")
	}
	doc, err := ReadScript(s.ph)
	if err != nil {
		return editor.Draft{}, err
	}
	p := s.ph.Project
	return editor.Draft{Title: p.Title, Synopsis: p.Synopsis, Mode: p.Mode, Document: doc}, nil
}

// Save writes d to disk.
func (s *ProjectStore) Save(ctx context.Context, d editor.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ph == nil {
		return errors.New("nil ProjectHandle")
	}
	prev, err := ReadScript(s.ph)
	if err != nil {
		return err
	}
	if err := WriteScript(s.ph, d.Document); err != nil {
		return err
	}
	s.ph.Project.Title = d.Title
	s.ph.Project.Synopsis = d.Synopsis
	s.ph.Project.Mode = d.Mode
	if err := Save(s.ph); err != nil {
		return err
	}

	if err := UpdateIndex(ctx, s.ph); err != nil {
		s.log.Warn("index update failed", slog.Any("err", err))
		return nil
	}
	if prev == d.Document {
		return nil
	}
	if err := SaveScriptSnapshot(ctx, s.ph, d.Document, time.Now()); err != nil {
		s.log.Warn("snapshot failed", slog.Any("err", err))
		return nil
	}
	if n, err := PruneOldScriptSnapshots(ctx, s.ph, s.keep); err != nil {
		s.log.Warn("snapshot prune failed", slog.Any("err", err))
	} else if n > 0 {
		s.log.Debug("snapshots pruned", slog.Int64("count", n))
	}
	return nil
}
