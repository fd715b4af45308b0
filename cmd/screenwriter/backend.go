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
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screenwriter/internal/analysis"
	"screenwriter/internal/backend"
	"screenwriter/internal/config"
	"screenwriter/internal/editor"
	"screenwriter/internal/telemetry"
)

func newBackendCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newCheckCommand(ctx),
		newAnalyzeCommand(ctx),
		newMatchCommand(ctx),
		newLetterCommand(ctx),
		newStoryboardCommand(ctx),
		newVideoCommand(ctx),
		newHealthCommand(ctx),
		newTokenCommand(ctx),
		newLogoutCommand(),
	}
}

func toWire(s analysis.Stats) backend.ScriptAnalysis {
	return backend.ScriptAnalysis(s)
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var title string
	var local bool
	cmd := &cobra.Command{
		Use:   "check <synopsis>",
		Short: "Check a synopsis for originality",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			synopsis := args[0]
			var res *backend.Originality
			if local {
				var overviews []string
				for _, f := range analysis.DefaultFilms() {
					overviews = append(overviews, f.Overview)
				}
				score, match := analysis.CheckOriginality(synopsis, overviews)
				res = &backend.Originality{
					Score:           math.Round(score*100) / 100,
					IsBlocked:       analysis.IsBlocked(score),
					MatchText:       match,
					CandidatesFound: len(overviews),
				}
			} else {
				client, err := ctx.requireClient()
				if err != nil {
					return err
				}
				res, err = client.CheckOriginality(cmd.Context(), backend.SynopsisRequest{Title: title, Synopsis: synopsis})
				if err != nil {
					return err
				}
			}
			if ctx.json() {
				return writeJSON(cmd, res)
			}
			verdict := "original"
			if res.IsBlocked {
				verdict = "too similar to an existing film"
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPairs([][2]string{
				{"Score", fmt.Sprintf("%.2f", res.Score)},
				{"Verdict", verdict},
				{"Candidates", fmt.Sprint(res.CandidatesFound)},
				{"Closest", res.MatchText},
			}))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Project title")
	cmd.Flags().BoolVar(&local, "local", false, "Score against the built-in film list instead of the backend")
	return cmd
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "analyze [dir|file|-]",
		Short: "Analyze a script with the backend",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := ctx.readScriptArg(cmd, scriptArg(args))
			if err != nil {
				return err
			}
			var res backend.ScriptAnalysis
			if local {
				res = toWire(analysis.Analyze(src.Text))
			} else {
				client, err := ctx.requireClient()
				if err != nil {
					return err
				}
				out, err := client.AnalyzeScript(cmd.Context(), backend.SceneRequest{SceneText: src.Text})
				if err != nil {
					return err
				}
				res = *out
			}
			if ctx.json() {
				return writeJSON(cmd, res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderAnalysis(res))
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Analyze locally instead of calling the backend")
	return cmd
}

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "match [dir|file|-]",
		Short: "Find a famous scene similar to the draft",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := ctx.readScriptArg(cmd, scriptArg(args))
			if err != nil {
				return err
			}
			var match *backend.SceneMatch
			if local {
				if m := analysis.FindMatchingScene(src.Text, analysis.DefaultScenes(), analysis.MatchThreshold); m != nil {
					match = backend.NewSceneMatch(*m)
				}
			} else {
				client, err := ctx.requireClient()
				if err != nil {
					return err
				}
				res, err := client.CheckSceneMatch(cmd.Context(), backend.SceneRequest{SceneText: src.Text})
				if err != nil {
					return err
				}
				match = res.Match
			}
			if match != nil {
				telemetry.Default().SceneMatch(match.MatchScore)
			}
			if ctx.json() {
				return writeJSON(cmd, backend.SceneMatchResult{Match: match})
			}
			if match == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching scene")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPairs([][2]string{
				{"Match", fmt.Sprintf("%d%%", match.MatchScore)},
				{"Film", fmt.Sprintf("%s (%d)", match.Film, match.Year)},
				{"Director", match.Director},
				{"Runtime", match.Runtime},
				{"At", match.SceneTimestamp},
				{"Language", match.Language},
				{"Scene", match.Text},
			}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Match against the built-in scene list instead of the backend")
	return cmd
}

func newLetterCommand(ctx *commandContext) *cobra.Command {
	var title, synopsis string
	var local bool
	cmd := &cobra.Command{
		Use:   "letter [dir]",
		Short: "Generate an agent query letter",
		Long:  "Generates a query letter from --title and --synopsis, or from the project in dir.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				src, err := ctx.readScriptArg(cmd, args[0])
				if err != nil {
					return err
				}
				if src.Project == nil {
					return fmt.Errorf("%s is not a project directory", args[0])
				}
				if title == "" {
					title = src.Project.Project.Title
				}
				if synopsis == "" {
					synopsis = src.Project.Project.Synopsis
				}
			}
			if strings.TrimSpace(title) == "" {
				title = editor.DefaultTitle
			}
			var letter string
			if local {
				letter = analysis.QueryLetter(title, synopsis)
			} else {
				client, err := ctx.requireClient()
				if err != nil {
					return err
				}
				res, err := client.GenerateQuery(cmd.Context(), backend.SynopsisRequest{Title: title, Synopsis: synopsis})
				if err != nil {
					return err
				}
				letter = res.Letter
			}
			if ctx.json() {
				return writeJSON(cmd, backend.QueryLetter{Letter: letter})
			}
			fmt.Fprint(cmd.OutOrStdout(), letter)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Project title")
	cmd.Flags().StringVar(&synopsis, "synopsis", "", "Synopsis")
	cmd.Flags().BoolVar(&local, "local", false, "Render the letter locally instead of calling the backend")
	return cmd
}

// sceneText returns the scene around the given 1-based line, or the whole
// document when line is zero.
func sceneText(doc string, line int) string {
	if line <= 0 {
		return doc
	}
	return editor.SceneAt(doc, editor.OffsetAt(doc, line-1, 0))
}

func newStoryboardCommand(ctx *commandContext) *cobra.Command {
	var line int
	cmd := &cobra.Command{
		Use:   "storyboard [dir|file|-]",
		Short: "Generate a storyboard frame for a scene",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.requireClient()
			if err != nil {
				return err
			}
			src, err := ctx.readScriptArg(cmd, scriptArg(args))
			if err != nil {
				return err
			}
			res, err := client.GenerateStoryboard(cmd.Context(), backend.SceneRequest{SceneText: sceneText(src.Text, line)})
			if err != nil {
				return err
			}
			if ctx.json() {
				return writeJSON(cmd, res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.ImageURL)
			if res.PromptUsed != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "prompt:", res.PromptUsed)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&line, "line", 0, "Line inside the scene to use (default: whole draft)")
	return cmd
}

func newVideoCommand(ctx *commandContext) *cobra.Command {
	var line int
	cmd := &cobra.Command{
		Use:   "video [dir|file|-]",
		Short: "Generate a video preview for a scene",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.requireClient()
			if err != nil {
				return err
			}
			src, err := ctx.readScriptArg(cmd, scriptArg(args))
			if err != nil {
				return err
			}
			res, err := client.GenerateVideo(cmd.Context(), backend.SceneRequest{SceneText: sceneText(src.Text, line)})
			if err != nil {
				return err
			}
			if ctx.json() {
				return writeJSON(cmd, res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.VideoURL)
			if res.Style != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "style:", res.Style)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&line, "line", 0, "Line inside the scene to use (default: whole draft)")
	return cmd
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.requireClient()
			if err != nil {
				return err
			}
			if err := client.Health(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var subject string
	var ttl time.Duration
	var store bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Request a backend token and store it in the OS keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.requireClient()
			if err != nil {
				return err
			}
			tok, err := client.IssueToken(cmd.Context(), subject, ttl)
			if err != nil {
				return err
			}
			if store {
				if err := saveToken(ctx, tok.Token); err != nil {
					return err
				}
			}
			if ctx.json() {
				return writeJSON(cmd, tok)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token valid until %s\n", tok.ExpiresAt.Local().Format(time.DateTime))
			if !store {
				fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "writer", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	cmd.Flags().BoolVar(&store, "store", true, "Save the token to the keychain")
	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "logout",
		Short:       "Remove the stored backend token",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ClearToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token removed")
			return nil
		},
	}
}
