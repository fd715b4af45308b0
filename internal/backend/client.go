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
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"screenwriter/internal/config"
)

// Client talks to the writing-assistant backend. Every call is a JSON POST;
// failures never touch editor state, callers decide what to show.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	b := strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientFromConfig builds a client from the backend config section.
func NewClientFromConfig(cfg config.BackendConfig, token string) *Client {
	c := NewClient(cfg.BaseURL, token)
	c.client.Timeout = cfg.Timeout()
	if cfg.TLSInsecure {
		c.client.Transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}} //nolint:gosec // opt-in for self-signed dev servers
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client (tests, custom transports).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, uuid.NewString())
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Method: method, Endpoint: path, Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(dest); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, method, path, err)
	}
	return nil
}

// errorMessage extracts {"error": "..."} or the raw text of an error body.
func errorMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4<<10))
	var env struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(b, &env) == nil {
		if env.Error != "" {
			return env.Error
		}
		if env.Detail != "" {
			return env.Detail
		}
	}
	return strings.TrimSpace(string(b))
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, dest)
}

// CheckOriginality scores a synopsis against known films.
func (c *Client) CheckOriginality(ctx context.Context, req SynopsisRequest) (*Originality, error) {
	var out Originality
	if err := c.post(ctx, PathCheckOriginality, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyzeScript computes certificate statistics for a whole script.
func (c *Client) AnalyzeScript(ctx context.Context, req SceneRequest) (*ScriptAnalysis, error) {
	var out ScriptAnalysis
	if err := c.post(ctx, PathAnalyzeScript, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckSceneMatch looks for a famous scene similar to the text.
func (c *Client) CheckSceneMatch(ctx context.Context, req SceneRequest) (*SceneMatchResult, error) {
	var out SceneMatchResult
	if err := c.post(ctx, PathCheckSceneMatch, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateQuery renders an agent query letter.
func (c *Client) GenerateQuery(ctx context.Context, req SynopsisRequest) (*QueryLetter, error) {
	var out QueryLetter
	if err := c.post(ctx, PathGenerateQuery, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateStoryboard requests a storyboard image for a scene.
func (c *Client) GenerateStoryboard(ctx context.Context, req SceneRequest) (*Storyboard, error) {
	var out Storyboard
	if err := c.post(ctx, PathGenerateStoryboard, req, &out); err != nil {
		return nil, err
	}
	if out.ImageURL == "" {
		return nil, fmt.Errorf("%w: %s: empty image_url", ErrMalformedResponse, PathGenerateStoryboard)
	}
	return &out, nil
}

// GenerateVideo requests a video clip for a scene.
func (c *Client) GenerateVideo(ctx context.Context, req SceneRequest) (*Video, error) {
	var out Video
	if err := c.post(ctx, PathGenerateVideo, req, &out); err != nil {
		return nil, err
	}
	if out.VideoURL == "" {
		return nil, fmt.Errorf("%w: %s: empty video_url", ErrMalformedResponse, PathGenerateVideo)
	}
	return &out, nil
}

// Token is an issued bearer token.
type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueToken asks a backend with auth enabled for a bearer token.
func (c *Client) IssueToken(ctx context.Context, subject string, ttl time.Duration) (*Token, error) {
	body := map[string]any{"subject": subject, "ttl_seconds": int64(ttl / time.Second)}
	var out Token
	if err := c.post(ctx, PathAuthToken, body, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("%w: %s: empty token", ErrMalformedResponse, PathAuthToken)
	}
	return &out, nil
}

// Health reports whether the backend root answers with status ok.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/", nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("%w: status %q", ErrMalformedResponse, out.Status)
	}
	return nil
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusUnauthorized
}
