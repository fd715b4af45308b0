/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package workspace ties one open project to an editing session: it holds
// the project lock, the file-backed store and the backend client, and runs
// the project-level flows (create with originality check, save, complete).
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"screenwriter/internal/backend"
	"screenwriter/internal/domain"
	"screenwriter/internal/editor"
	applog "screenwriter/internal/log"
	"screenwriter/internal/script"
	"screenwriter/internal/storage"
	"screenwriter/internal/telemetry"
)

var (
	// ErrNoProject is returned by operations that need an open project.
	ErrNoProject = errors.New("no project open")
	// ErrNoBackend is returned by operations that need the backend.
	ErrNoBackend = errors.New("no backend configured")
)

// NotOriginalError rejects a new project whose synopsis is too close to an
// existing film.
type NotOriginalError struct {
	Score     float64
	MatchText string
}

func (e *NotOriginalError) Error() string {
	return fmt.Sprintf("synopsis is %.0f%% similar to an existing film", e.Score*100)
}

// Workspace is not safe for concurrent use; UIs drive it from one goroutine.
type Workspace struct {
	client *backend.Client
	log    *slog.Logger

	ph    *storage.ProjectHandle
	lock  *storage.ProjectLock
	store *storage.ProjectStore
	sess  *editor.Session
}

// New returns an empty workspace. client may be nil; backend features then
// report ErrNoBackend.
func New(client *backend.Client) *Workspace {
	return &Workspace{client: client, log: applog.WithComponent("workspace")}
}

// Client returns the backend client, or nil.
func (w *Workspace) Client() *backend.Client { return w.client }

// Project returns the open project handle, or nil.
func (w *Workspace) Project() *storage.ProjectHandle { return w.ph }

// Session returns the editing session of the open project, or nil.
func (w *Workspace) Session() *editor.Session { return w.sess }

// CheckOriginality asks the backend whether synopsis is original. Without a
// backend the check is skipped and reports nil.
func (w *Workspace) CheckOriginality(ctx context.Context, title, synopsis string) (*backend.Originality, error) {
	if w.client == nil || strings.TrimSpace(synopsis) == "" {
		return nil, nil
	}
	return w.client.CheckOriginality(ctx, backend.SynopsisRequest{Title: title, Synopsis: synopsis})
}

// Create scaffolds a new project at root and opens it. A blocked
// originality check aborts with *NotOriginalError; a failing backend only
// logs a warning.
func (w *Workspace) Create(ctx context.Context, root, title, synopsis string, mode script.Mode) error {
	orig, err := w.CheckOriginality(ctx, title, synopsis)
	switch {
	case err != nil:
		w.log.Warn("originality check failed", slog.Any("err", err))
	case orig != nil && orig.IsBlocked:
		return &NotOriginalError{Score: orig.Score, MatchText: orig.MatchText}
	}
	ph, err := storage.InitProject(root, domain.NewProject(title, synopsis, mode))
	if err != nil {
		return err
	}
	if err := w.attach(ctx, ph); err != nil {
		return err
	}
	// Persist the seeded draft so the project is complete on disk.
	return w.sess.Save(ctx)
}

// Open opens the project at root, closing any open project first.
func (w *Workspace) Open(ctx context.Context, root string) error {
	ph, err := storage.Open(root)
	if err != nil {
		return err
	}
	return w.attach(ctx, ph)
}

// attach closes the current project and opens ph in its place.
func (w *Workspace) attach(ctx context.Context, ph *storage.ProjectHandle) error {
	if err := w.Close(); err != nil {
		w.log.Warn("close previous project", slog.Any("err", err))
	}
	lock, err := storage.Lock(ph.Root)
	if err != nil {
		return err
	}
	store := storage.NewProjectStore(ph)
	sess := editor.NewSession(editor.Draft{}, store)
	if err := sess.Load(ctx); err != nil {
		_ = lock.Unlock()
		return err
	}
	w.ph, w.lock, w.store, w.sess = ph, lock, store, sess
	w.log.Info("project opened", slog.String("root", ph.Root), slog.String("id", ph.Project.ID))
	return nil
}

// Save persists the session through the project store.
func (w *Workspace) Save(ctx context.Context) error {
	if w.sess == nil {
		return ErrNoProject
	}
	return w.sess.Save(ctx)
}

// Complete saves the draft, analyzes it on the backend and records the
// completion in the manifest. The returned certificate feeds the
// certificate export.
func (w *Workspace) Complete(ctx context.Context) (*backend.Certificate, error) {
	if w.sess == nil {
		return nil, ErrNoProject
	}
	if w.client == nil {
		return nil, ErrNoBackend
	}
	if err := w.Save(ctx); err != nil {
		return nil, err
	}
	cert, err := backend.Complete(ctx, w.client, w.sess.Title(), w.sess.Synopsis(), w.sess.Document())
	if err != nil {
		return nil, err
	}
	w.ph.Project.Completed = &domain.Completion{At: cert.CompletedAt.UTC().Truncate(time.Second), PageCount: max(cert.Stats.PageCount, 1)}
	if err := storage.Save(w.ph); err != nil {
		return nil, err
	}
	telemetry.Default().ProjectCompleted(cert.Stats.PageCount)
	return cert, nil
}

// Close releases the open project, if any. Unsaved edits are discarded.
func (w *Workspace) Close() error {
	if w.ph == nil {
		return nil
	}
	err := w.lock.Unlock()
	w.ph, w.lock, w.store, w.sess = nil, nil, nil, nil
	return err
}
