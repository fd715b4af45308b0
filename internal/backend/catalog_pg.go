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
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"screenwriter/internal/analysis"
	applog "screenwriter/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PGCatalog serves the reference catalog from Postgres.
type PGCatalog struct {
	db *sql.DB
}

// OpenPGCatalog connects to dsn, applies the embedded migrations and returns
// the catalog. Close releases the connection pool.
func OpenPGCatalog(ctx context.Context, dsn string) (*PGCatalog, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(pctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &PGCatalog{db: db}, nil
}

func (c *PGCatalog) Close() error { return c.db.Close() }

// Ping reports whether the database answers.
func (c *PGCatalog) Ping(ctx context.Context) error { return c.db.PingContext(ctx) }

const filmColumns = "f.title, f.year, f.director, f.runtime, f.language, f.overview"

// SearchFilms ranks films by full-text match of any query word against title
// and overview. Without any hit every film is a candidate, in catalog order.
func (c *PGCatalog) SearchFilms(ctx context.Context, query string, limit int) ([]analysis.Film, error) {
	if limit <= 0 {
		limit = 100
	}
	var terms []string
	seen := map[string]bool{}
	for _, t := range analysis.Tokens(query) {
		if len(t) >= 3 && !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	if len(terms) > 0 {
		// Tokens are letters and digits only, so joining them is a valid tsquery.
		var b strings.Builder
		var args []any
		place := func(v any) string {
			args = append(args, v)
			return "$" + strconv.Itoa(len(args))
		}
		tsq := "to_tsquery('simple', " + place(strings.Join(terms, " | ")) + ")"
		b.WriteString("SELECT " + filmColumns + " FROM films f WHERE f.search_vector @@ " + tsq)
		b.WriteString(" ORDER BY ts_rank(f.search_vector, " + tsq + ") DESC, f.id")
		b.WriteString(" LIMIT " + place(limit))
		films, err := c.queryFilms(ctx, b.String(), args...)
		if err != nil || len(films) > 0 {
			return films, err
		}
	}
	return c.queryFilms(ctx, "SELECT "+filmColumns+" FROM films f ORDER BY f.id LIMIT $1", limit)
}

func (c *PGCatalog) queryFilms(ctx context.Context, q string, args ...any) ([]analysis.Film, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search films: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []analysis.Film
	for rows.Next() {
		var f analysis.Film
		if err := rows.Scan(&f.Title, &f.Year, &f.Director, &f.Runtime, &f.Language, &f.Overview); err != nil {
			return nil, fmt.Errorf("scan film: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (c *PGCatalog) Scenes(ctx context.Context) ([]analysis.Scene, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT f.title, f.year, f.director, f.runtime, f.language, s.scene_timestamp, s.text
		FROM film_scenes s JOIN films f ON f.id = s.film_id ORDER BY s.id`)
	if err != nil {
		return nil, fmt.Errorf("select scenes: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []analysis.Scene
	for rows.Next() {
		var s analysis.Scene
		if err := rows.Scan(&s.Film, &s.Year, &s.Director, &s.Runtime, &s.Language, &s.Timestamp, &s.Text); err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// applyMigrations applies embedded SQL migrations in filename order and
// records each applied version in schema_migrations.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	logger := applog.WithComponent("migrate")
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name := e.Name(); strings.HasSuffix(strings.ToLower(name), ".sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	// dialect=PostgreSQL
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		logger.Info("applying migration", slog.String("file", fname))
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES($1, $2)`, version, fname); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", fname, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	parts := strings.SplitN(base, "_", 2)
	if len(parts) < 2 {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}
