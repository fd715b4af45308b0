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
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"screenwriter/internal/analysis"
	"screenwriter/internal/backend"
	"screenwriter/internal/config"
	"screenwriter/internal/storage"
)

type memTokens map[string]string

func (m memTokens) Get(service, key string) (string, error) { return m[service+"/"+key], nil }
func (m memTokens) Set(service, key, value string) error {
	m[service+"/"+key] = value
	return nil
}
func (m memTokens) Delete(service, key string) error {
	delete(m, service+"/"+key)
	return nil
}

func TestMain(m *testing.M) {
	config.SetTokenStore(memTokens{})
	os.Exit(m.Run())
}

type cli struct {
	t      *testing.T
	config string
}

// newCLI points the commands at a config file in a temp dir. A non-empty
// backendURL is written into it.
func newCLI(t *testing.T, backendURL string) *cli {
	t.Helper()
	t.Setenv("SWR_BACKEND_URL", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if backendURL != "" {
		cfg := config.Defaults()
		cfg.Backend.BaseURL = backendURL
		if err := config.SaveTo(path, cfg, ""); err != nil {
			t.Fatalf("save config: %v", err)
		}
	}
	return &cli{t: t, config: path}
}

func newBackendCLI(t *testing.T) *cli {
	t.Helper()
	srv := httptest.NewServer(backend.NewServer(backend.ServerOptions{}).Handler())
	t.Cleanup(srv.Close)
	return newCLI(t, srv.URL)
}

func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", c.config}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run("", args...)
	if err != nil {
		c.t.Fatalf("%v: %v", args, err)
	}
	return out
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	return v
}

func TestInitAndOpen(t *testing.T) {
	c := newCLI(t, "")
	root := filepath.Join(t.TempDir(), "harbor")
	out := c.mustRun("init", root, "--title", "Harbor Lights", "--synopsis", "A lighthouse keeper finds a map.")
	if !strings.Contains(out, `Created "Harbor Lights" (screenplay)`) {
		t.Fatalf("init output: %q", out)
	}

	sum := decode[projectSummary](t, c.mustRun("--json", "open", root))
	if sum.Title != "Harbor Lights" || sum.Scenes != 1 || sum.Pages != 1 || sum.Completed {
		t.Fatalf("summary = %+v", sum)
	}

	table := c.mustRun("open", root)
	for _, want := range []string{"Harbor Lights", "Scenes", "screenplay"} {
		if !strings.Contains(table, want) {
			t.Errorf("open table missing %q:\n%s", want, table)
		}
	}
}

func TestInitNovelMode(t *testing.T) {
	c := newCLI(t, "")
	root := t.TempDir()
	c.mustRun("init", root, "--mode", "novel", "--synopsis", "It rained.")
	text, err := os.ReadFile(filepath.Join(root, storage.ScriptDirName, storage.ScriptFileName))
	if err != nil {
		t.Fatalf("read draft: %v", err)
	}
	if string(text) != "CHAPTER 1\n\nIt rained." {
		t.Fatalf("novel seed = %q", text)
	}
}

func TestClassifyFromStdin(t *testing.T) {
	c := newCLI(t, "")
	out, err := c.run("INT. DINER - NIGHT\n@BOB\n$Coffee.\n(quietly)\n", "--json", "classify", "-")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	lines := decode[[]classifiedLine](t, out)
	want := []string{"sceneHeading", "character", "dialogue", "parenthetical", "action"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %+v", lines)
	}
	for i, l := range lines {
		if l.Kind.String() != want[i] {
			t.Errorf("line %d kind = %s want %s", i+1, l.Kind, want[i])
		}
	}
	if lines[1].Text != "BOB" || lines[4].Text != "\u00a0" {
		t.Errorf("display text: %q %q", lines[1].Text, lines[4].Text)
	}
}

func TestSubmitAppliesContinuation(t *testing.T) {
	c := newCLI(t, "")
	cases := []struct {
		in, mode, doc string
	}{
		{"@BOB", "", "@BOB\n$"},
		{"EXT. BEACH - DAY", "", "EXT. BEACH - DAY\n\n"},
		{"She runs.", "", "She runs.\n"},
		{"@BOB", "novel", "@BOB\n"},
	}
	for _, tc := range cases {
		args := []string{"--json", "submit", "-"}
		if tc.mode != "" {
			args = append(args, "--mode", tc.mode)
		}
		out, err := c.run(tc.in, args...)
		if err != nil {
			t.Fatalf("submit %q: %v", tc.in, err)
		}
		res := decode[submitResult](t, out)
		if res.Document != tc.doc || res.Cursor != len(tc.doc) {
			t.Errorf("submit %q (%s) = %+v", tc.in, tc.mode, res)
		}
	}
}

func TestOutlineAndRender(t *testing.T) {
	c := newCLI(t, "")
	file := filepath.Join(t.TempDir(), "draft.txt")
	doc := "INT. DINER - NIGHT\n@BOB\n$Coffee.\nEXT. ROAD - DAY\n@ANN\n$Go.\n"
	if err := os.WriteFile(file, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	scenes := decode[[]outlineScene](t, c.mustRun("--json", "outline", file))
	if len(scenes) != 2 || scenes[1].Heading != "EXT. ROAD - DAY" || strings.Join(scenes[0].Characters, ",") != "BOB" {
		t.Fatalf("outline = %+v", scenes)
	}
	rendered := c.mustRun("render", file, "--width", "60")
	if strings.Contains(rendered, "@BOB") || !strings.Contains(rendered, "BOB") {
		t.Fatalf("render should hide sigils:\n%s", rendered)
	}
}

func TestLocalChecks(t *testing.T) {
	c := newCLI(t, "")
	res := decode[backend.Originality](t, c.mustRun("--json", "check", "--local", analysis.DefaultFilms()[0].Overview))
	if !res.IsBlocked || res.Score < 0.99 {
		t.Fatalf("copied overview not blocked: %+v", res)
	}
	res = decode[backend.Originality](t, c.mustRun("--json", "check", "--local", "A retired beekeeper teaches chess to a robot on Mars."))
	if res.IsBlocked {
		t.Fatalf("original synopsis blocked: %+v", res)
	}

	letter := c.mustRun("letter", "--local", "--title", "Night Shift", "--synopsis", "A nurse hides a secret.")
	if !strings.Contains(letter, "NIGHT SHIFT") || !strings.HasPrefix(letter, "Dear Agent,") {
		t.Fatalf("letter = %q", letter)
	}
}

func TestBackendCommandsNeedBackend(t *testing.T) {
	c := newCLI(t, "")
	for _, args := range [][]string{
		{"check", "anything"},
		{"analyze", "-"},
		{"health"},
	} {
		if _, err := c.run("", args...); err == nil || !strings.Contains(err.Error(), "no backend configured") {
			t.Errorf("%v: err = %v", args, err)
		}
	}
}

func TestBackendCommands(t *testing.T) {
	c := newBackendCLI(t)
	if out := c.mustRun("health"); strings.TrimSpace(out) != "ok" {
		t.Fatalf("health = %q", out)
	}

	root := t.TempDir()
	if _, err := c.run("", "init", root, "--synopsis", analysis.DefaultFilms()[0].Overview); err == nil {
		t.Fatalf("unoriginal synopsis should be rejected")
	}
	c.mustRun("init", root, "--title", "Shoreline", "--synopsis", "A ferry captain hides a stowaway.")

	stats := decode[backend.ScriptAnalysis](t, c.mustRun("--json", "analyze", root))
	if stats.PageCount != 1 || stats.LocationCount != 1 {
		t.Fatalf("analysis = %+v", stats)
	}

	scene := analysis.DefaultScenes()[0].Text
	match := decode[backend.SceneMatchResult](t, mustRunStdin(t, c, scene, "--json", "match", "-"))
	if match.Match == nil || match.Match.Film != analysis.DefaultScenes()[0].Film {
		t.Fatalf("match = %+v", match.Match)
	}

	cert := filepath.Join(t.TempDir(), "cert.pdf")
	out := c.mustRun("complete", root, "--certificate", cert)
	if !strings.Contains(out, `Completed "Shoreline"`) {
		t.Fatalf("complete output: %q", out)
	}
	if st, err := os.Stat(cert); err != nil || st.Size() == 0 {
		t.Fatalf("certificate not written: %v", err)
	}
	sum := decode[projectSummary](t, c.mustRun("--json", "open", root))
	if !sum.Completed {
		t.Fatalf("project not marked complete")
	}

	paths := decode[[]string](t, c.mustRun("--json", "export", "batch", root, "--format", "pdf,certificate"))
	if len(paths) != 2 {
		t.Fatalf("batch paths = %v", paths)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing export %s: %v", p, err)
		}
	}
}

func mustRunStdin(t *testing.T, c *cli, stdin string, args ...string) string {
	t.Helper()
	out, err := c.run(stdin, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func TestSearchAndSnapshots(t *testing.T) {
	c := newCLI(t, "")
	root := t.TempDir()
	c.mustRun("init", root, "--synopsis", "A ferry captain hides a stowaway.")
	draft := "INT. DECK - NIGHT\n@CAPTAIN\n$Who goes there?\n@STOWAWAY\n$Nobody.\n"
	if err := os.WriteFile(filepath.Join(root, storage.ScriptDirName, storage.ScriptFileName), []byte(draft), 0o644); err != nil {
		t.Fatal(err)
	}

	results := decode[[]storage.SearchResult](t, c.mustRun("--json", "search", root, "nobody"))
	if len(results) != 1 || results[0].Speaker != "STOWAWAY" || results[0].LineNo != 5 {
		t.Fatalf("search = %+v", results)
	}
	results = decode[[]storage.SearchResult](t, c.mustRun("--json", "search", root, "--kind", "character"))
	if len(results) != 2 {
		t.Fatalf("kind filter = %+v", results)
	}
	if _, err := c.run("", "search", root, "--kind", "villain"); err == nil {
		t.Fatalf("unknown kind should fail")
	}

	if out := c.mustRun("snapshots", "latest", root); !strings.HasPrefix(out, "EXT. LOCATION - DAY") {
		t.Fatalf("latest snapshot = %q", out)
	}
	if out := c.mustRun("snapshots", "prune", root, "--keep", "1"); !strings.Contains(out, "Removed 0") {
		t.Fatalf("prune = %q", out)
	}
}

func TestBundleRoundTrip(t *testing.T) {
	c := newCLI(t, "")
	root := t.TempDir()
	c.mustRun("init", root, "--title", "Harbor", "--synopsis", "A pilot returns home.")
	zipPath := filepath.Join(t.TempDir(), "harbor.zip")
	if out := c.mustRun("bundle", "create", root, zipPath); !strings.Contains(out, "Packed 2 file(s)") {
		t.Fatalf("create = %q", out)
	}
	dest := filepath.Join(t.TempDir(), "copy")
	c.mustRun("bundle", "install", zipPath, dest)
	sum := decode[projectSummary](t, c.mustRun("--json", "open", dest))
	if sum.Title != "Harbor" || sum.Scenes != 1 {
		t.Fatalf("installed summary = %+v", sum)
	}
}

func TestExportPDFAndCard(t *testing.T) {
	c := newCLI(t, "")
	root := t.TempDir()
	c.mustRun("init", root, "--title", "Harbor", "--synopsis", "A pilot returns home. Nobody waits.")
	dir := t.TempDir()
	pdf := filepath.Join(dir, "out.pdf")
	png := filepath.Join(dir, "card.png")
	c.mustRun("export", "pdf", root, pdf, "--title-page")
	c.mustRun("export", "card", root, png)
	for _, p := range []string{pdf, png} {
		if st, err := os.Stat(p); err != nil || st.Size() == 0 {
			t.Errorf("%s not written: %v", p, err)
		}
	}
	if _, err := c.run("", "export", "certificate", root, filepath.Join(dir, "c.pdf")); err == nil {
		t.Fatalf("certificate of an unfinished project should fail")
	}
}

func TestVersionAndTable(t *testing.T) {
	c := newCLI(t, "")
	if out := c.mustRun("version"); !strings.HasPrefix(out, "screenwriter ") {
		t.Fatalf("version = %q", out)
	}
	got := renderTable([]string{"Name", "Count"}, [][]string{{"BOB", "3"}, {"ANN"}}, []columnAlignment{alignLeft, alignRight})
	for _, want := range []string{"Name", "Count", "BOB", "ANN", "╭"} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Errorf("empty headers should render nothing")
	}
}
