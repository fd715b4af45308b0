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
	"os"
	"testing"
)

func TestManifestConformsToSchema(t *testing.T) {
	ph := newTestProject(t, "Schema Test")
	data, err := os.ReadFile(ph.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if err := ValidateManifest(data); err != nil {
		t.Fatalf("manifest does not conform to schema: %v", err)
	}
}

func TestValidateManifestRejects(t *testing.T) {
	cases := map[string]string{
		"missing id":   `{"title":"T","mode":"screenplay","created_at":"2025-01-01T00:00:00Z","updated_at":"2025-01-01T00:00:00Z"}`,
		"bad mode":     `{"id":"x","title":"T","mode":"comic","created_at":"2025-01-01T00:00:00Z","updated_at":"2025-01-01T00:00:00Z"}`,
		"empty title":  `{"id":"x","title":"","mode":"novel","created_at":"2025-01-01T00:00:00Z","updated_at":"2025-01-01T00:00:00Z"}`,
		"zero pages":   `{"id":"x","title":"T","mode":"novel","created_at":"2025-01-01T00:00:00Z","updated_at":"2025-01-01T00:00:00Z","completed":{"at":"2025-01-01T00:00:00Z","page_count":0}}`,
		"not an object": `[]`,
	}
	for name, doc := range cases {
		if err := ValidateManifest([]byte(doc)); !errors.Is(err, ErrInvalidManifest) {
			t.Fatalf("%s: expected ErrInvalidManifest, got %v", name, err)
		}
	}
}
