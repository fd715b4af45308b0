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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is the single-writer lock inside the index directory.
const LockFileName = "lock"

// ErrLocked is returned when another process holds the project lock.
var ErrLocked = errors.New("project is locked by another session")

// ProjectLock guards a project against concurrent editing sessions.
type ProjectLock struct {
	fl *flock.Flock
}

// Lock takes the project's exclusive lock without blocking.
func Lock(root string) (*ProjectLock, error) {
	dir := filepath.Join(root, IndexDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s dir: %w", IndexDirName, err)
	}
	fl := flock.New(filepath.Join(dir, LockFileName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock project: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &ProjectLock{fl: fl}, nil
}

// Unlock releases the lock. Calling it twice is harmless.
func (l *ProjectLock) Unlock() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
