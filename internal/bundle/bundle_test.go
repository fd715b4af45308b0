/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package bundle

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"screenwriter/internal/domain"
	"screenwriter/internal/script"
	"screenwriter/internal/storage"
)

func newProject(t *testing.T, draft string) string {
	t.Helper()
	root := t.TempDir()
	ph, err := storage.InitProject(root, domain.NewProject("Harbor", "A pilot returns home.", script.ModeScreenplay))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := storage.WriteScript(ph, draft); err != nil {
		t.Fatalf("write draft: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, storage.ExportsDirName, "harbor.pdf"), []byte("%PDF"), 0o644); err != nil {
		t.Fatalf("write export: %v", err)
	}
	return root
}

func zipNames(t *testing.T, p string) []string {
	t.Helper()
	r, err := zip.OpenReader(p)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer r.Close()
	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func TestCreateAndInstall(t *testing.T) {
	root := newProject(t, "INT. HANGAR - NIGHT\n@MARA\n$Home.")
	zipPath := filepath.Join(t.TempDir(), "harbor.zip")
	n, err := Create(root, zipPath)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if n != 3 {
		t.Fatalf("files = %d, entries %v", n, zipNames(t, zipPath))
	}
	for _, name := range zipNames(t, zipPath) {
		if strings.HasPrefix(name, storage.BackupsDirName+"/") || strings.HasSuffix(name, ".db") {
			t.Errorf("local state %q leaked into bundle", name)
		}
	}

	dest := filepath.Join(t.TempDir(), "copy")
	installed, err := Install(dest, zipPath)
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if installed != 3 {
		t.Fatalf("installed = %d", installed)
	}
	ph, err := storage.Open(dest)
	if err != nil {
		t.Fatalf("open copy: %v", err)
	}
	if ph.Project.Title != "Harbor" {
		t.Fatalf("title = %q", ph.Project.Title)
	}
	text, err := storage.ReadScript(ph)
	if err != nil || text != "INT. HANGAR - NIGHT\n@MARA\n$Home." {
		t.Fatalf("draft = %q, %v", text, err)
	}
}

func TestCreateRequiresProject(t *testing.T) {
	if _, err := Create("", "x.zip"); err == nil {
		t.Fatalf("expected error on empty root")
	}
	if _, err := Create(t.TempDir(), filepath.Join(t.TempDir(), "x.zip")); err == nil {
		t.Fatalf("expected error for a directory without a project")
	}
}

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "bundle.zip")
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return p
}

func TestInstallSkipsEscapingAndForeignEntries(t *testing.T) {
	root := newProject(t, "draft")
	manifest, err := os.ReadFile(filepath.Join(root, storage.ManifestFileName))
	if err != nil {
		t.Fatal(err)
	}
	zipPath := writeZip(t, map[string]string{
		"../evil.txt":            "nope",
		"script/../../evil.txt":  "nope",
		"backups/old.json":       "{}",
		"notes.txt":              "not project data",
		storage.ManifestFileName: string(manifest),
		"script/script.txt":      "FADE IN:",
	})
	parent := t.TempDir()
	dest := filepath.Join(parent, "proj")
	installed, err := Install(dest, zipPath)
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if installed != 2 {
		t.Fatalf("installed = %d", installed)
	}
	for _, p := range []string{
		filepath.Join(parent, "evil.txt"),
		filepath.Join(dest, "notes.txt"),
		filepath.Join(dest, storage.BackupsDirName, "old.json"),
	} {
		if _, err := os.Stat(p); err == nil {
			t.Errorf("%s should not exist", p)
		}
	}
}

func TestInstallKeepsExistingFiles(t *testing.T) {
	root := newProject(t, "original draft")
	zipPath := filepath.Join(t.TempDir(), "b.zip")
	if _, err := Create(root, zipPath); err != nil {
		t.Fatalf("create: %v", err)
	}
	ph, err := storage.Open(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.WriteScript(ph, "edited draft"); err != nil {
		t.Fatal(err)
	}
	installed, err := Install(root, zipPath)
	if err != nil {
		t.Fatalf("install over project: %v", err)
	}
	if installed != 0 {
		t.Fatalf("installed = %d, want 0", installed)
	}
	if text, _ := storage.ReadScript(ph); text != "edited draft" {
		t.Fatalf("existing draft overwritten: %q", text)
	}
}

func TestInstallRejectsNonProject(t *testing.T) {
	zipPath := writeZip(t, map[string]string{"script/script.txt": "orphan"})
	if _, err := Install(t.TempDir(), zipPath); err == nil {
		t.Fatalf("bundle without a manifest should fail")
	}
	if _, err := Install(t.TempDir(), filepath.Join(t.TempDir(), "missing.zip")); err == nil {
		t.Fatalf("missing zip should fail")
	}
}
