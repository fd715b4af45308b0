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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"screenwriter/internal/analysis"
	"screenwriter/internal/config"
	applog "screenwriter/internal/log"
	"screenwriter/internal/version"
)

// HeaderRequestID correlates client and server log lines.
const HeaderRequestID = "X-Request-ID"

const maxBody = 4 << 20

// ServerOptions configures the development backend.
type ServerOptions struct {
	Addr          string
	StoryboardURL string
	VideoURL      string
	AuthSecret    string
	Catalog       Catalog
	Logger        *slog.Logger
}

// Server is a self-contained implementation of the backend endpoints so the
// editor can be exercised without the hosted service.
type Server struct {
	opts    ServerOptions
	catalog Catalog
	log     *slog.Logger
	handler http.Handler
}

// NewServer builds the route table. A nil Catalog uses the built-in one.
func NewServer(opts ServerOptions) *Server {
	if opts.Catalog == nil {
		opts.Catalog = NewMemoryCatalog()
	}
	if opts.Logger == nil {
		opts.Logger = applog.WithComponent("server")
	}
	d := config.Defaults().Server
	if opts.Addr == "" {
		opts.Addr = d.Addr
	}
	if opts.StoryboardURL == "" {
		opts.StoryboardURL = d.StoryboardURL
	}
	if opts.VideoURL == "" {
		opts.VideoURL = d.VideoURL
	}
	s := &Server{opts: opts, catalog: opts.Catalog, log: opts.Logger}

	api := http.NewServeMux()
	api.HandleFunc("POST "+PathCheckOriginality, s.handleCheckOriginality)
	api.HandleFunc("POST "+PathAnalyzeScript, s.handleAnalyzeScript)
	api.HandleFunc("POST "+PathCheckSceneMatch, s.handleCheckSceneMatch)
	api.HandleFunc("POST "+PathGenerateQuery, s.handleGenerateQuery)
	api.HandleFunc("POST "+PathGenerateStoryboard, s.handleGenerateStoryboard)
	api.HandleFunc("POST "+PathGenerateVideo, s.handleGenerateVideo)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "message": "Screenwriter backend running"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(version.String()))
	})
	mux.HandleFunc("POST "+PathAuthToken, s.handleAuthToken)
	mux.Handle("/api/", requireAuth(opts.AuthSecret, api))

	s.handler = s.withRequestLog(withCORS(mux))
	return s
}

// NewServerFromConfig wires a server from the server config section. When a
// database URL is set the catalog is served from Postgres; the returned
// closer releases it.
func NewServerFromConfig(ctx context.Context, cfg config.ServerConfig) (*Server, func() error, error) {
	opts := ServerOptions{
		Addr:          cfg.Addr,
		StoryboardURL: cfg.StoryboardURL,
		VideoURL:      cfg.VideoURL,
		AuthSecret:    cfg.AuthSecret,
	}
	closer := func() error { return nil }
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		pg, err := OpenPGCatalog(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		opts.Catalog = pg
		closer = pg.Close
	}
	return NewServer(opts), closer, nil
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("listening", slog.String("addr", ln.Addr().String()))
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.catalog.(interface{ Ping(context.Context) error }); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleCheckOriginality(w http.ResponseWriter, r *http.Request) {
	var req SynopsisRequest
	if !decode(w, r, &req) {
		return
	}
	films, err := s.catalog.SearchFilms(r.Context(), req.Title+" "+req.Synopsis, 20)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	overviews := make([]string, 0, len(films))
	for _, f := range films {
		overviews = append(overviews, f.Overview)
	}
	score, match := analysis.CheckOriginality(req.Synopsis, overviews)
	writeJSON(w, http.StatusOK, Originality{
		Score:           score,
		IsBlocked:       analysis.IsBlocked(score),
		MatchText:       match,
		CandidatesFound: len(films),
	})
}

func (s *Server) handleAnalyzeScript(w http.ResponseWriter, r *http.Request) {
	var req SceneRequest
	if !decode(w, r, &req) {
		return
	}
	st := analysis.Analyze(req.SceneText)
	writeJSON(w, http.StatusOK, ScriptAnalysis{
		PageCount:        st.PageCount,
		LocationCount:    st.LocationCount,
		CharacterCount:   st.CharacterCount,
		Languages:        st.Languages,
		PotentialMarkets: st.PotentialMarkets,
		LocationsPreview: st.LocationsPreview,
	})
}

func (s *Server) handleCheckSceneMatch(w http.ResponseWriter, r *http.Request) {
	var req SceneRequest
	if !decode(w, r, &req) {
		return
	}
	scenes, err := s.catalog.Scenes(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	var out SceneMatchResult
	if m := analysis.FindMatchingScene(req.SceneText, scenes, analysis.MatchThreshold); m != nil {
		out.Match = NewSceneMatch(*m)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGenerateQuery(w http.ResponseWriter, r *http.Request) {
	var req SynopsisRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, QueryLetter{Letter: analysis.QueryLetter(req.Title, req.Synopsis)})
}

func (s *Server) handleGenerateStoryboard(w http.ResponseWriter, r *http.Request) {
	var req SceneRequest
	if !decode(w, r, &req) {
		return
	}
	prompt := req.SceneText
	if rs := []rune(prompt); len(rs) > 50 {
		prompt = string(rs[:50])
	}
	writeJSON(w, http.StatusOK, Storyboard{
		ImageURL:   s.opts.StoryboardURL,
		PromptUsed: "Sketch style storyboard for: " + prompt + "...",
	})
}

func (s *Server) handleGenerateVideo(w http.ResponseWriter, r *http.Request) {
	var req SceneRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, Video{VideoURL: s.opts.VideoURL, Style: "black and white stickman"})
}

func (s *Server) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	if s.opts.AuthSecret == "" {
		writeError(w, http.StatusNotFound, errors.New("auth disabled"))
		return
	}
	var req struct {
		Subject    string `json:"subject"`
		TTLSeconds int64  `json:"ttl_seconds"`
	}
	b, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	_ = json.Unmarshal(b, &req)
	if req.Subject == "" {
		req.Subject = "dev"
	}
	if req.TTLSeconds <= 0 || req.TTLSeconds > 24*3600 {
		req.TTLSeconds = 3600
	}
	exp := time.Now().Add(time.Duration(req.TTLSeconds) * time.Second)
	tok, err := signToken(s.opts.AuthSecret, req.Subject, exp)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      tok,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("request failed", slog.String("path", r.URL.Path), slog.String("request_id", w.Header().Get(HeaderRequestID)), slog.Any("err", err))
	writeError(w, http.StatusInternalServerError, errors.New("internal error"))
}

// decode reads a JSON body into dst, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return false
	}
	return true
}

// withCORS allows any origin, as the browser front-end is served separately
// during development.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+HeaderRequestID)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withRequestLog assigns a request ID (keeping the client's when present)
// and logs one line per request.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			slog.String("request_id", id),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("dur", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
