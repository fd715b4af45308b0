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
	"log/slog"
	"sync"
	"time"

	applog "screenwriter/internal/log"
)

// SceneChecker is the scene-match call a SceneMatcher issues. *Client
// implements it.
type SceneChecker interface {
	CheckSceneMatch(ctx context.Context, req SceneRequest) (*SceneMatchResult, error)
}

// DefaultMatchDebounce is the input idle time before a scene-match check.
const DefaultMatchDebounce = time.Second

// SceneMatcher debounces scene-match checks for a document that is being
// edited. Each Update restarts the idle timer; when it fires, the latest text
// is checked in the background. A result is delivered only if matching is
// still enabled and no newer check has been scheduled since, so the panel
// always shows the answer for the freshest text. Failures are logged and
// dropped.
type SceneMatcher struct {
	checker  SceneChecker
	delay    time.Duration
	timeout  time.Duration
	onResult func(*SceneMatch)
	log      *slog.Logger

	// deliver serialises onResult calls with SetEnabled and Close. It is
	// always taken before mu.
	deliver sync.Mutex

	mu      sync.Mutex
	enabled bool
	closed  bool
	gen     uint64
	timer   *time.Timer
	cancel  context.CancelFunc
}

// NewSceneMatcher creates an enabled matcher. onResult receives the match,
// or nil when the latest text matched nothing or matching was switched off.
// It is called from a background goroutine, one call at a time, and must not
// call back into the matcher.
func NewSceneMatcher(checker SceneChecker, delay time.Duration, onResult func(*SceneMatch)) *SceneMatcher {
	if delay <= 0 {
		delay = DefaultMatchDebounce
	}
	return &SceneMatcher{
		checker:  checker,
		delay:    delay,
		timeout:  15 * time.Second,
		onResult: onResult,
		log:      applog.WithComponent("scene_match"),
		enabled:  true,
	}
}

// Enabled reports whether matching is on.
func (m *SceneMatcher) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// SetEnabled switches matching on or off. Switching off cancels pending and
// in-flight checks and clears the panel.
func (m *SceneMatcher) SetEnabled(on bool) {
	m.deliver.Lock()
	defer m.deliver.Unlock()
	m.mu.Lock()
	if m.enabled == on || m.closed {
		m.mu.Unlock()
		return
	}
	m.enabled = on
	var clear bool
	if !on {
		m.stopLocked()
		clear = true
	}
	m.mu.Unlock()
	if clear && m.onResult != nil {
		m.onResult(nil)
	}
}

// Update schedules a check of text after the debounce delay, superseding any
// pending or in-flight check.
func (m *SceneMatcher) Update(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled || m.closed {
		return
	}
	m.stopLocked()
	gen := m.gen
	m.timer = time.AfterFunc(m.delay, func() { m.fire(gen, text) })
}

// Close stops the matcher; no further results are delivered.
func (m *SceneMatcher) Close() {
	m.deliver.Lock()
	defer m.deliver.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.stopLocked()
}

// stopLocked invalidates everything scheduled so far.
func (m *SceneMatcher) stopLocked() {
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *SceneMatcher) current(gen uint64) bool {
	return m.enabled && !m.closed && gen == m.gen
}

func (m *SceneMatcher) fire(gen uint64, text string) {
	m.mu.Lock()
	if !m.current(gen) {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	m.cancel = cancel
	m.mu.Unlock()
	defer cancel()

	res, err := m.checker.CheckSceneMatch(ctx, SceneRequest{SceneText: text})

	m.deliver.Lock()
	defer m.deliver.Unlock()
	m.mu.Lock()
	ok := m.current(gen)
	m.mu.Unlock()
	if !ok {
		m.log.Debug("stale scene match dropped", slog.Uint64("gen", gen))
		return
	}
	if err != nil {
		m.log.Warn("scene match failed", slog.Any("err", err))
		return
	}
	var match *SceneMatch
	if res != nil {
		match = res.Match
	}
	if m.onResult != nil {
		m.onResult(match)
	}
}
