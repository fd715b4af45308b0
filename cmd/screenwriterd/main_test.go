/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"path/filepath"
	"testing"

	"screenwriter/internal/config"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SWR_SERVER_ADDR", "")
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != config.Defaults().Server.Addr {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := serve(ctx, config.ServerConfig{Addr: "127.0.0.1:0"}); err != nil {
		t.Fatalf("serve: %v", err)
	}
}

func TestServeRejectsBadDatabaseURL(t *testing.T) {
	err := serve(context.Background(), config.ServerConfig{Addr: "127.0.0.1:0", DatabaseURL: "postgres://%zz"})
	if err == nil {
		t.Fatalf("expected catalog error")
	}
}
