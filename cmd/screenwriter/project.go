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
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screenwriter/internal/analysis"
	"screenwriter/internal/backend"
	"screenwriter/internal/bundle"
	"screenwriter/internal/script"
	"screenwriter/internal/storage"
	"screenwriter/internal/workspace"
)

func newProjectCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newInitCommand(ctx),
		newOpenCommand(ctx),
		newSaveCommand(),
		newCompleteCommand(ctx),
		newSearchCommand(ctx),
		newSnapshotsCommand(ctx),
		newBundleCommand(ctx),
	}
}

func newInitCommand(ctx *commandContext) *cobra.Command {
	var title, synopsis, mode string
	cmd := &cobra.Command{
		Use:   "init <dir>",
		Short: "Create a new project seeded from a synopsis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			m := ctx.defaultMode()
			if strings.TrimSpace(mode) != "" {
				m = script.ParseMode(mode)
			}
			ws := workspace.New(ctx.client())
			defer ws.Close()
			if err := ws.Create(cmd.Context(), root, title, synopsis, m); err != nil {
				var blocked *workspace.NotOriginalError
				if errors.As(err, &blocked) {
					return fmt.Errorf("%w\nclosest match: %s", err, blocked.MatchText)
				}
				return err
			}
			p := ws.Project().Project
			if ctx.json() {
				return writeJSON(cmd, p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %q (%s) at %s\n", p.Title, p.Mode, root)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Project title")
	cmd.Flags().StringVar(&synopsis, "synopsis", "", "Synopsis used to seed the draft and checked for originality")
	cmd.Flags().StringVar(&mode, "mode", "", "Writing mode: screenplay or novel")
	return cmd
}

type projectSummary struct {
	Title      string         `json:"title"`
	Mode       script.Mode    `json:"mode"`
	Root       string         `json:"root"`
	Lines      int            `json:"lines"`
	Scenes     int            `json:"scenes"`
	Characters []string       `json:"characters"`
	Pages      int            `json:"pages"`
	Speakers   map[string]int `json:"speakers,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Completed  bool           `json:"completed"`
}

func newOpenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "open <dir>",
		Short: "Open a project and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := workspace.New(nil)
			defer ws.Close()
			if err := ws.Open(cmd.Context(), args[0]); err != nil {
				return err
			}
			ph := ws.Project()
			sess := ws.Session()
			parsed := script.Parse(sess.Document(), sess.Mode())
			sum := projectSummary{
				Title:      ph.Project.Title,
				Mode:       ph.Project.Mode,
				Root:       ph.Root,
				Lines:      len(parsed.Lines),
				Scenes:     len(parsed.Headings()),
				Characters: parsed.Characters(),
				Pages:      analysis.Analyze(sess.Document()).PageCount,
				UpdatedAt:  ph.Project.UpdatedAt,
				Completed:  ph.Project.Completed != nil,
			}
			if err := storage.BuildIndexIfEmpty(cmd.Context(), ph); err == nil {
				sum.Speakers, _ = storage.SpeakerLineCounts(cmd.Context(), ph.Root)
			}
			if ctx.json() {
				return writeJSON(cmd, sum)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderPairs([][2]string{
				{"Title", sum.Title},
				{"Mode", string(sum.Mode)},
				{"Root", sum.Root},
				{"Lines", strconv.Itoa(sum.Lines)},
				{"Scenes", strconv.Itoa(sum.Scenes)},
				{"Pages", strconv.Itoa(sum.Pages)},
				{"Characters", strings.Join(sum.Characters, ", ")},
				{"Updated", sum.UpdatedAt.Local().Format(time.DateTime)},
				{"Completed", yesNo(sum.Completed)},
			}))
			if len(sum.Speakers) > 0 {
				fmt.Fprintln(out, renderSpeakers(sum.Speakers))
			}
			return nil
		},
	}
}

func newSaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save <dir>",
		Short: "Save a project, backing up the previous manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := workspace.New(nil)
			defer ws.Close()
			if err := ws.Open(cmd.Context(), args[0]); err != nil {
				return err
			}
			if err := ws.Save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved project and backed up the previous manifest.")
			return nil
		},
	}
}

func renderSpeakers(counts map[string]int) string {
	rows := make([][]string, 0, len(counts))
	for _, name := range sortedKeys(counts) {
		rows = append(rows, []string{name, strconv.Itoa(counts[name])})
	}
	return renderTable([]string{"Speaker", "Lines"}, rows, []columnAlignment{alignLeft, alignRight})
}

func newCompleteCommand(ctx *commandContext) *cobra.Command {
	var certPath string
	cmd := &cobra.Command{
		Use:   "complete <dir>",
		Short: "Mark a project complete and issue a certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.requireClient()
			if err != nil {
				return err
			}
			ws := workspace.New(client)
			defer ws.Close()
			if err := ws.Open(cmd.Context(), args[0]); err != nil {
				return err
			}
			cert, err := ws.Complete(cmd.Context())
			if err != nil {
				return err
			}
			if certPath != "" {
				if err := exportCertificate(certPath, *cert); err != nil {
					return err
				}
			}
			if ctx.json() {
				return writeJSON(cmd, cert)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderAnalysis(cert.Stats))
			fmt.Fprintf(out, "Completed %q on %s\n", cert.Title, cert.CompletedAt.Local().Format("January 2, 2006"))
			if certPath != "" {
				fmt.Fprintln(out, "Certificate written to", certPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&certPath, "certificate", "", "Write a completion certificate PDF to this path")
	return cmd
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var kinds []string
	var speaker, scene string
	var limit int
	cmd := &cobra.Command{
		Use:   "search <dir> [text]",
		Short: "Search the draft's lines",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := storage.Open(args[0])
			if err != nil {
				return err
			}
			q := storage.SearchQuery{Speaker: speaker, Scene: scene, Limit: limit}
			if len(args) == 2 {
				q.Text = args[1]
			}
			for _, name := range kinds {
				k, ok := script.ParseKind(name)
				if !ok {
					return fmt.Errorf("unknown kind %q", name)
				}
				q.Kinds = append(q.Kinds, k)
			}
			results, err := searchProject(cmd.Context(), ph, q)
			if err != nil {
				return err
			}
			if ctx.json() {
				return writeJSON(cmd, results)
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matches")
				return nil
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{strconv.Itoa(r.LineNo), r.Kind.String(), r.Speaker, r.Scene, r.Text})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Line", "Kind", "Speaker", "Scene", "Text"},
				rows,
				[]columnAlignment{alignRight},
			))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "Restrict to line kinds (repeatable)")
	cmd.Flags().StringVar(&speaker, "speaker", "", "Restrict to lines spoken by this character")
	cmd.Flags().StringVar(&scene, "scene", "", "Restrict to scenes whose heading contains this text")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of results")
	return cmd
}

// searchProject brings the index up to date with the draft on disk first.
func searchProject(ctx context.Context, ph *storage.ProjectHandle, q storage.SearchQuery) ([]storage.SearchResult, error) {
	if _, err := storage.DetectAndRebuildIndex(ctx, ph); err != nil {
		return nil, err
	}
	if err := storage.UpdateIndex(ctx, ph); err != nil {
		return nil, err
	}
	return storage.Search(ctx, ph.Root, q)
}

func newSnapshotsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect the draft history",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list <dir>",
		Short: "List saved snapshots, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := storage.Open(args[0])
			if err != nil {
				return err
			}
			snaps, err := storage.ListScriptSnapshots(cmd.Context(), ph, limit)
			if err != nil {
				return err
			}
			if ctx.json() {
				return writeJSON(cmd, snaps)
			}
			rows := make([][]string, 0, len(snaps))
			for _, s := range snaps {
				rows = append(rows, []string{
					s.TS.Local().Format(time.DateTime),
					strconv.Itoa(strings.Count(s.Text, "\n") + 1),
					strconv.Itoa(len(analysis.Tokens(s.Text))),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Saved", "Lines", "Words"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "Maximum number of snapshots")

	latest := &cobra.Command{
		Use:   "latest <dir>",
		Short: "Print the text of the most recent snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := storage.Open(args[0])
			if err != nil {
				return err
			}
			snap, err := storage.GetLatestScriptSnapshot(cmd.Context(), ph)
			if err != nil {
				return err
			}
			if ctx.json() {
				return writeJSON(cmd, snap)
			}
			fmt.Fprint(cmd.OutOrStdout(), snap.Text)
			return nil
		},
	}

	var keep int
	prune := &cobra.Command{
		Use:   "prune <dir>",
		Short: "Delete all but the newest snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := storage.Open(args[0])
			if err != nil {
				return err
			}
			n, err := storage.PruneOldScriptSnapshots(cmd.Context(), ph, keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d snapshot(s)\n", n)
			return nil
		},
	}
	prune.Flags().IntVar(&keep, "keep", 10, "Number of snapshots to keep")

	cmd.AddCommand(list, latest, prune)
	return cmd
}

func renderAnalysis(s backend.ScriptAnalysis) string {
	return renderPairs([][2]string{
		{"Pages", strconv.Itoa(s.PageCount)},
		{"Locations", strconv.Itoa(s.LocationCount)},
		{"Characters", strconv.Itoa(s.CharacterCount)},
		{"Languages", strings.Join(s.Languages, ", ")},
		{"Markets", strings.Join(s.PotentialMarkets, ", ")},
		{"Where", strings.Join(s.LocationsPreview, ", ")},
	})
}

func newBundleCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Share projects as a single zip file",
	}
	create := &cobra.Command{
		Use:   "create <dir> <out.zip>",
		Short: "Pack a project's manifest, draft and exports",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := bundle.Create(args[0], args[1])
			if err != nil {
				return err
			}
			if ctx.json() {
				return writeJSON(cmd, map[string]any{"path": args[1], "files": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Packed %d file(s) into %s\n", n, args[1])
			return nil
		},
	}
	install := &cobra.Command{
		Use:   "install <bundle.zip> <dir>",
		Short: "Unpack a bundle into a project directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := bundle.Install(args[1], args[0])
			if err != nil {
				return err
			}
			if ctx.json() {
				return writeJSON(cmd, map[string]any{"root": args[1], "files": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed %d file(s) into %s\n", n, args[1])
			return nil
		},
	}
	cmd.AddCommand(create, install)
	return cmd
}
