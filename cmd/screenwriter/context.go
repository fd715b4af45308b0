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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"screenwriter/internal/backend"
	"screenwriter/internal/config"
	applog "screenwriter/internal/log"
	"screenwriter/internal/script"
	"screenwriter/internal/storage"
	"screenwriter/internal/telemetry"
)

var errNoBackend = errors.New("no backend configured: set backend.base_url in the config file or SWR_BACKEND_URL")

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     config.AppConfig
	token      string
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{configFlag: configFlag, jsonFlag: jsonFlag}
}

func (c *commandContext) ensureConfig() (config.AppConfig, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if path == "" {
			c.config, c.token, c.configErr = config.Load()
		} else {
			c.config, c.token, c.configErr = config.LoadFrom(path)
		}
		if c.configErr != nil {
			return
		}
		applog.Init(logOptions(c.config.Logging, false))
		if c.config.General.TelemetryOptIn {
			tcfg := telemetry.FromEnv()
			tcfg.OptIn = true
			telemetry.SetDefault(tcfg)
		}
	})
	return c.config, c.configErr
}

// logOptions layers the config file's logging section over the
// environment. quiet drops console output but keeps the log file.
func logOptions(lc config.LoggingConfig, quiet bool) applog.Options {
	opts := applog.FromEnv()
	if v := strings.TrimSpace(lc.Level); v != "" {
		opts.Level = v
	}
	if v := strings.TrimSpace(lc.Format); v != "" {
		opts.Format = v
	}
	if v := strings.TrimSpace(lc.File); v != "" {
		opts.File = v
	}
	opts.AddSource = opts.AddSource || lc.Source
	opts.Quiet = quiet
	return opts
}

func (c *commandContext) configValue() config.AppConfig {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) json() bool { return c.jsonFlag != nil && *c.jsonFlag }

// client returns a backend client, or nil when no backend is configured.
func (c *commandContext) client() *backend.Client {
	cfg := c.configValue()
	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		return nil
	}
	return backend.NewClientFromConfig(cfg.Backend, c.token)
}

func (c *commandContext) requireClient() (*backend.Client, error) {
	if cl := c.client(); cl != nil {
		return cl, nil
	}
	return nil, errNoBackend
}

func (c *commandContext) defaultMode() script.Mode {
	return script.ParseMode(c.configValue().General.DefaultMode)
}

// saveToken persists the current configuration with a new backend token.
// The token itself goes to the keychain.
func saveToken(c *commandContext, token string) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	path := ""
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	if path == "" {
		if path, err = config.ConfigPath(); err != nil {
			return err
		}
	}
	if err := config.SaveTo(path, cfg, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	c.token = token
	return nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// scriptSource is a document read from a project, a file or stdin.
type scriptSource struct {
	Text    string
	Mode    script.Mode
	Title   string
	Project *storage.ProjectHandle
}

// readScriptArg reads the document named by arg: a project directory, a
// text file, or "-" for stdin.
func (c *commandContext) readScriptArg(cmd *cobra.Command, arg string) (scriptSource, error) {
	if arg == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return scriptSource{}, fmt.Errorf("read stdin: %w", err)
		}
		return scriptSource{Text: string(b), Mode: c.defaultMode()}, nil
	}
	st, err := os.Stat(arg)
	if err != nil {
		return scriptSource{}, err
	}
	if st.IsDir() {
		ph, err := storage.Open(arg)
		if err != nil {
			return scriptSource{}, err
		}
		text, err := storage.ReadScript(ph)
		if err != nil {
			return scriptSource{}, err
		}
		return scriptSource{Text: text, Mode: ph.Project.Mode, Title: ph.Project.Title, Project: ph}, nil
	}
	b, err := os.ReadFile(arg)
	if err != nil {
		return scriptSource{}, err
	}
	title := strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
	return scriptSource{Text: string(b), Mode: c.defaultMode(), Title: title}, nil
}

func scriptArg(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
