/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package bundle packs a project into a single .zip for sharing and
// installs such a bundle into a project directory.
package bundle

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	applog "screenwriter/internal/log"
	"screenwriter/internal/storage"
)

// InfoFileName is the human-readable summary at the root of every bundle.
const InfoFileName = "bundle.txt"

// included reports whether a slash-separated project path belongs in a
// bundle. Backups and the search index are local state and stay behind.
func included(rel string) bool {
	if rel == storage.ManifestFileName {
		return true
	}
	for _, dir := range []string{storage.ScriptDirName, storage.ExportsDirName} {
		if strings.HasPrefix(rel, dir+"/") {
			return true
		}
	}
	return false
}

// Create writes the project's manifest, draft and exports to destZip and
// returns the number of project files it added.
func Create(projectRoot, destZip string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("bundle"), "create").With(slog.String("project", projectRoot))
	if strings.TrimSpace(projectRoot) == "" {
		return 0, errors.New("projectRoot is required")
	}
	if strings.TrimSpace(destZip) == "" {
		return 0, errors.New("destZip is required")
	}
	ph, err := storage.Open(projectRoot)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(destZip), 0o755); err != nil {
		return 0, fmt.Errorf("ensure zip dir: %w", err)
	}
	_ = os.Remove(destZip)
	zf, err := os.Create(destZip)
	if err != nil {
		return 0, fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)

	info := fmt.Sprintf("Screenplay Bundle\nTitle: %s\nMode: %s\nCreated: %s\n",
		ph.Project.Title, ph.Project.Mode, time.Now().Format(time.RFC3339))
	w, err := zw.Create(InfoFileName)
	if err != nil {
		return 0, fmt.Errorf("add info: %w", err)
	}
	if _, err := io.WriteString(w, info); err != nil {
		return 0, fmt.Errorf("write info: %w", err)
	}

	added := 0
	err = filepath.WalkDir(projectRoot, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(projectRoot, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if !included(name) || p == destZip {
			return nil
		}
		fw, err := zw.Create(name)
		if err != nil {
			return err
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		if _, err := io.Copy(fw, f); err != nil {
			return err
		}
		added++
		return nil
	})
	if err != nil {
		l.Error("zip build failed", slog.Any("err", err))
		return 0, fmt.Errorf("build zip: %w", err)
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("finish zip: %w", err)
	}
	l.Info("bundle created", slog.Int("files", added), slog.String("zip", destZip))
	return added, nil
}

// Install extracts a bundle into projectRoot and returns the number of
// files written. Existing files are never overwritten. Entries outside the
// project layout, including any that would escape projectRoot, are skipped.
// The result must open as a valid project.
func Install(projectRoot, zipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("bundle"), "install").With(slog.String("project", projectRoot))
	if strings.TrimSpace(projectRoot) == "" {
		return 0, errors.New("projectRoot is required")
	}
	if strings.TrimSpace(zipPath) == "" {
		return 0, errors.New("zipPath is required")
	}
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, fmt.Errorf("open bundle: %w", err)
	}
	defer func() { _ = r.Close() }()

	if err := os.MkdirAll(projectRoot, 0o755); err != nil {
		return 0, fmt.Errorf("ensure project dir: %w", err)
	}

	installed := 0
	for _, f := range r.File {
		name := path.Clean(strings.ReplaceAll(f.Name, "\\", "/"))
		if f.FileInfo().IsDir() || name == InfoFileName {
			continue
		}
		if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") || !included(name) {
			l.Warn("skip entry", slog.String("name", f.Name))
			continue
		}
		target := filepath.Join(projectRoot, filepath.FromSlash(name))
		if _, err := os.Stat(target); err == nil {
			l.Warn("skip existing file", slog.String("path", target))
			continue
		}
		if err := extract(f, target); err != nil {
			return installed, err
		}
		installed++
	}
	if _, err := storage.Open(projectRoot); err != nil {
		return installed, fmt.Errorf("installed bundle is not a project: %w", err)
	}
	l.Info("bundle installed", slog.Int("files", installed))
	return installed, nil
}

func extract(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
