/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "screenwriter/internal/log"
	"screenwriter/internal/storage"
	"screenwriter/internal/telemetry"
	"screenwriter/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Recover captures a panic, logs it with a stacktrace, writes an error report
// and a crash-safe copy of the project, then exits with status 2.
//
// Usage: defer crash.Recover(ph)
func Recover(ph *storage.ProjectHandle) {
	if r := recover(); r != nil {
		handle(ph, nil, r)
	}
}

// RecoverDraft is Recover for an open editor: unsaved is called to fetch the
// in-memory draft, which is written next to the report.
//
// Usage: defer crash.RecoverDraft(ph, session.Document)
func RecoverDraft(ph *storage.ProjectHandle, unsaved func() string) {
	if r := recover(); r != nil {
		handle(ph, unsaved, r)
	}
}

func handle(ph *storage.ProjectHandle, unsaved func() string, r any) {
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, _ := writeReport(ph, r, stack)
	if ph != nil {
		if path, err := storage.AutosaveCrashSnapshot(ph); err != nil {
			l.Error("autosave crash snapshot failed", slog.Any("err", err))
		} else {
			l.Info("autosave crash snapshot written", slog.String("path", path))
		}
		if unsaved != nil {
			if path, err := writeUnsaved(ph, unsaved()); err != nil {
				l.Error("unsaved draft rescue failed", slog.Any("err", err))
			} else {
				l.Info("unsaved draft rescued", slog.String("path", path))
			}
		}
	}

	_, _ = fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

func reportDir(ph *storage.ProjectHandle) string {
	if ph != nil && ph.Root != "" {
		dir := filepath.Join(ph.Root, storage.BackupsDirName)
		if err := os.MkdirAll(dir, 0o755); err == nil {
			return dir
		}
	}
	return os.TempDir()
}

func writeUnsaved(ph *storage.ProjectHandle, draft string) (string, error) {
	path := filepath.Join(reportDir(ph), fmt.Sprintf("unsaved-%s.txt", time.Now().Format("20060102-150405")))
	return path, os.WriteFile(path, []byte(draft), 0o644)
}

func writeReport(ph *storage.ProjectHandle, panicVal any, stack []byte) (string, error) {
	path := filepath.Join(reportDir(ph), fmt.Sprintf("crash-%s.log", time.Now().Format("20060102-150405")))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Screenwriter Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if ph != nil {
		_, _ = fmt.Fprintf(&buf, "ProjectRoot: %s\n", ph.Root)
		_, _ = fmt.Fprintf(&buf, "ProjectID: %s\n", ph.Project.ID)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	// the report holds paths and a stack, never script text
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}
