/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type BackendConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	DefaultMode    string `yaml:"default_mode"` // "screenplay" | "novel"
}

type EditorConfig struct {
	SceneMatch      bool `yaml:"scene_match"`
	MatchDebounceMs int  `yaml:"match_debounce_ms"`
}

// ServerConfig configures the bundled development backend (screenwriterd).
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	DatabaseURL   string `yaml:"database_url"`
	StoryboardURL string `yaml:"storyboard_url"`
	VideoURL      string `yaml:"video_url"`
	// AuthSecret enables bearer-token auth on /api routes when set.
	AuthSecret    string `yaml:"auth_secret"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Backend       BackendConfig `yaml:"backend"`
	Editor        EditorConfig  `yaml:"editor"`
	Server        ServerConfig  `yaml:"server"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, DefaultMode: "screenplay"},
		Backend:       BackendConfig{BaseURL: "http://localhost:8000", TimeoutMs: 15000, TLSInsecure: false},
		Editor:        EditorConfig{SceneMatch: true, MatchDebounceMs: 1000},
		Server: ServerConfig{
			Addr:          ":8000",
			StoryboardURL: "https://placehold.co/1024x576?text=Storyboard",
			VideoURL:      "https://samplelib.com/lib/preview/mp4/sample-5s.mp4",
		},
		Logging: LoggingConfig{Level: "info", Format: "", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvBackendURL       = "SWR_BACKEND_URL"
	EnvBackendTimeoutMs = "SWR_BACKEND_TIMEOUT_MS"
	EnvBackendTLSInsec  = "SWR_TLS_INSECURE"
	EnvTelemetryOptIn   = "SWR_TELEMETRY_OPT_IN"
	EnvDefaultMode      = "SWR_DEFAULT_MODE"
	EnvSceneMatch       = "SWR_SCENE_MATCH"
	EnvMatchDebounceMs  = "SWR_MATCH_DEBOUNCE_MS"
	EnvServerAddr       = "SWR_SERVER_ADDR"
	EnvDatabaseURL      = "SWR_DATABASE_URL"
	EnvStoryboardURL    = "SWR_STORYBOARD_URL"
	EnvVideoURL         = "SWR_VIDEO_URL"
	EnvAuthSecret       = "SWR_AUTH_SECRET"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "SWR_LOG_LEVEL"
	EnvLogFormat = "SWR_LOG_FORMAT"
	EnvLogSource = "SWR_LOG_SOURCE"
	EnvLogFile   = "SWR_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "Screenwriter"
	keyringToken   = "backend_token"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// SetTokenStore swaps the keyring backend and returns the previous one.
func SetTokenStore(ts TokenStore) TokenStore {
	prev := tokenStore
	tokenStore = ts
	return prev
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Screenwriter")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Screenwriter")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "screenwriter")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "screenwriter")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// It also loads the backend token from keyring (not kept inside the struct; returned separately).
func Load() (AppConfig, string, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), "", err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file path. A missing file is not an error;
// a file that exists but cannot be parsed is.
func LoadFrom(path string) (AppConfig, string, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Decode over the defaults so keys absent from the file keep their default values.
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, "", fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg, token)
}

// SaveTo is Save with an explicit file path.
func SaveTo(path string, cfg AppConfig, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

// ClearToken removes the backend token from the keyring.
func ClearToken() error { return tokenStore.Delete(keyringService, keyringToken) }

// mergeInto copies file values over dst. Strings and numbers only override
// when set; booleans are copied as-is.
func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if m := strings.ToLower(strings.TrimSpace(src.General.DefaultMode)); m != "" {
		dst.General.DefaultMode = m
	}
	if src.Backend.BaseURL != "" {
		dst.Backend.BaseURL = src.Backend.BaseURL
	}
	if src.Backend.TimeoutMs != 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
	}
	dst.Backend.TLSInsecure = src.Backend.TLSInsecure
	dst.Editor.SceneMatch = src.Editor.SceneMatch
	if src.Editor.MatchDebounceMs > 0 {
		dst.Editor.MatchDebounceMs = src.Editor.MatchDebounceMs
	}
	if v := strings.TrimSpace(src.Server.Addr); v != "" {
		dst.Server.Addr = v
	}
	if v := strings.TrimSpace(src.Server.DatabaseURL); v != "" {
		dst.Server.DatabaseURL = v
	}
	if v := strings.TrimSpace(src.Server.StoryboardURL); v != "" {
		dst.Server.StoryboardURL = v
	}
	if v := strings.TrimSpace(src.Server.VideoURL); v != "" {
		dst.Server.VideoURL = v
	}
	if v := strings.TrimSpace(src.Server.AuthSecret); v != "" {
		dst.Server.AuthSecret = v
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTLSInsec)); v != "" {
		cfg.Backend.TLSInsecure = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvDefaultMode)); v != "" {
		cfg.General.DefaultMode = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvSceneMatch)); v != "" {
		cfg.Editor.SceneMatch = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvMatchDebounceMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Editor.MatchDebounceMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDatabaseURL)); v != "" {
		cfg.Server.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStoryboardURL)); v != "" {
		cfg.Server.StoryboardURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvVideoURL)); v != "" {
		cfg.Server.VideoURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAuthSecret)); v != "" {
		cfg.Server.AuthSecret = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"backend.base_url":         EnvBackendURL,
	"backend.timeout_ms":       EnvBackendTimeoutMs,
	"backend.tls_insecure":     EnvBackendTLSInsec,
	"general.telemetry_opt_in": EnvTelemetryOptIn,
	"general.default_mode":     EnvDefaultMode,
	"editor.scene_match":       EnvSceneMatch,
	"editor.match_debounce_ms": EnvMatchDebounceMs,
	"server.addr":              EnvServerAddr,
	"server.database_url":      EnvDatabaseURL,
	"server.storyboard_url":    EnvStoryboardURL,
	"server.video_url":         EnvVideoURL,
	"server.auth_secret":       EnvAuthSecret,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// Timeout returns the backend timeout, falling back to the default when unset.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutMs <= 0 {
		return time.Duration(Defaults().Backend.TimeoutMs) * time.Millisecond
	}
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

// MatchDebounce returns the scene-match debounce interval.
func (e EditorConfig) MatchDebounce() time.Duration {
	if e.MatchDebounceMs <= 0 {
		return time.Second
	}
	return time.Duration(e.MatchDebounceMs) * time.Millisecond
}
