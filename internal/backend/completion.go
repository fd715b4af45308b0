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
	"errors"
	"strings"
	"time"
)

// DefaultCertificateSynopsis stands in for a project without a synopsis.
const DefaultCertificateSynopsis = "A compelling story."

// ErrEmptyScript is returned when completing a project with no text.
var ErrEmptyScript = errors.New("backend: script is empty")

// Certificate is the data printed on a completion certificate.
type Certificate struct {
	Title       string
	Synopsis    string
	CompletedAt time.Time
	Stats       ScriptAnalysis
}

// Complete analyzes the finished script and assembles certificate data.
// The draft itself is never modified.
func Complete(ctx context.Context, c *Client, title, synopsis, doc string) (*Certificate, error) {
	if strings.TrimSpace(doc) == "" {
		return nil, ErrEmptyScript
	}
	stats, err := c.AnalyzeScript(ctx, SceneRequest{SceneText: doc})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(synopsis) == "" {
		synopsis = DefaultCertificateSynopsis
	}
	return &Certificate{Title: title, Synopsis: synopsis, CompletedAt: time.Now(), Stats: *stats}, nil
}
