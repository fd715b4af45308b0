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
	"testing"
	"time"

	"screenwriter/internal/editor"
	"screenwriter/internal/script"
)

func TestLock_SingleWriter(t *testing.T) {
	root := t.TempDir()
	l1, err := Lock(root)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := Lock(root); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if err := l1.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	l2, err := Lock(root)
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	_ = l2.Unlock()
	var nilLock *ProjectLock
	if err := nilLock.Unlock(); err != nil {
		t.Fatalf("nil unlock: %v", err)
	}
}

func TestProjectStore_SaveLoad(t *testing.T) {
	ph := newTestProject(t, "Store")
	st := NewProjectStore(ph)
	ctx := context.Background()

	d, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.Title != "Store" || d.Synopsis != "A synopsis." || d.Document != "" || d.Mode != script.ModeScreenplay {
		t.Fatalf("unexpected draft %+v", d)
	}

	d = editor.Draft{Title: "Renamed", Synopsis: "New.", Mode: script.ModeNovel, Document: sampleDraft}
	if err := st.Save(ctx, d); err != nil {
		t.Fatalf("save: %v", err)
	}
	reopened, err := Open(ph.Root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if reopened.Project.Title != "Renamed" || reopened.Project.Mode != script.ModeNovel {
		t.Fatalf("manifest not updated: %+v", reopened.Project)
	}
	got, err := NewProjectStore(reopened).Load(ctx)
	if err != nil || got != d {
		t.Fatalf("round trip: %+v err=%v", got, err)
	}

	res, err := Search(ctx, ph.Root, SearchQuery{Text: "storm"})
	if err != nil || len(res) != 1 {
		t.Fatalf("index not refreshed on save: %+v err=%v", res, err)
	}
	snaps, err := ListScriptSnapshots(ctx, ph, 10)
	if err != nil || len(snaps) != 1 || snaps[0].Text != sampleDraft {
		t.Fatalf("snapshot not recorded: %+v err=%v", snaps, err)
	}

	// unchanged text adds no snapshot
	if err := st.Save(ctx, d); err != nil {
		t.Fatalf("save again: %v", err)
	}
	if snaps, _ := ListScriptSnapshots(ctx, ph, 10); len(snaps) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snaps))
	}
}

func TestSessionWithProjectStore(t *testing.T) {
	ph := newTestProject(t, "Session")
	st := NewProjectStore(ph)
	ctx := context.Background()

	s := editor.NewSession(editor.Draft{}, st)
	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Document() != "EXT. LOCATION - DAY\n\nA synopsis." {
		t.Fatalf("expected seeded draft, got %q", s.Document())
	}
	s.InsertText("\n@BOB")
	s.SubmitLine()
	s.InsertText("Hello.")
	if err := s.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	txt, _ := ReadScript(ph)
	if txt != "EXT. LOCATION - DAY\n\nA synopsis.\n@BOB\n$Hello." {
		t.Fatalf("unexpected draft on disk %q", txt)
	}
}

func TestScriptSnapshots(t *testing.T) {
	ph := newTestProject(t, "Snaps")
	ctx := context.Background()

	latest, err := GetLatestScriptSnapshot(ctx, ph)
	if err != nil || latest.Text != "" || !latest.TS.IsZero() {
		t.Fatalf("expected no snapshot, got %+v err=%v", latest, err)
	}
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := SaveScriptSnapshot(ctx, ph, string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("save snapshot %d: %v", i, err)
		}
	}
	latest, err = GetLatestScriptSnapshot(ctx, ph)
	if err != nil || latest.Text != "e" || !latest.TS.Equal(base.Add(4*time.Minute)) {
		t.Fatalf("latest: %+v err=%v", latest, err)
	}
	n, err := PruneOldScriptSnapshots(ctx, ph, 2)
	if err != nil || n != 3 {
		t.Fatalf("prune: n=%d err=%v", n, err)
	}
	list, err := ListScriptSnapshots(ctx, ph, 0)
	if err != nil || len(list) != 2 || list[0].Text != "e" || list[1].Text != "d" {
		t.Fatalf("list after prune: %+v err=%v", list, err)
	}
	if n, _ := PruneOldScriptSnapshots(ctx, ph, 0); n != 0 {
		t.Fatalf("keepLast 0 must be a no-op")
	}
	if err := SaveScriptSnapshot(ctx, nil, "x", base); err == nil {
		t.Fatalf("expected nil handle error")
	}
}
