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
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"screenwriter/internal/analysis"
	"screenwriter/internal/editor"
	"screenwriter/internal/script"
	"screenwriter/internal/tui"
)

func newScriptCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newClassifyCommand(ctx),
		newRenderCommand(ctx),
		newOutlineCommand(ctx),
		newSubmitCommand(ctx),
		newStatsCommand(ctx),
	}
}

type classifiedLine struct {
	Number int         `json:"line"`
	Kind   script.Kind `json:"kind"`
	Text   string      `json:"text"`
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [dir|file|-]",
		Short: "Print each line with its kind and visible text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := ctx.readScriptArg(cmd, scriptArg(args))
			if err != nil {
				return err
			}
			var lines []classifiedLine
			for l := range script.LinesMode(src.Text, src.Mode) {
				lines = append(lines, classifiedLine{Number: l.Number, Kind: l.Kind, Text: l.Display()})
			}
			if ctx.json() {
				return writeJSON(cmd, lines)
			}
			rows := make([][]string, 0, len(lines))
			for _, l := range lines {
				rows = append(rows, []string{strconv.Itoa(l.Number), l.Kind.String(), l.Text})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Line", "Kind", "Text"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	}
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "render [dir|file|-]",
		Short: "Render a draft with screenplay styling",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := ctx.readScriptArg(cmd, scriptArg(args))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.Render(src.Text, src.Mode, width))
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 80, "Output width in columns")
	return cmd
}

type outlineScene struct {
	Number     int      `json:"number"`
	Heading    string   `json:"heading"`
	Line       int      `json:"line"`
	Characters []string `json:"characters"`
	Cues       int      `json:"cues"`
}

func newOutlineCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "outline [dir|file|-]",
		Short: "List scenes with their characters",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := ctx.readScriptArg(cmd, scriptArg(args))
			if err != nil {
				return err
			}
			parsed := script.Parse(src.Text, src.Mode)
			var scenes []outlineScene
			for i, sc := range parsed.Headings() {
				scenes = append(scenes, outlineScene{
					Number:     i + 1,
					Heading:    sc.Heading,
					Line:       sc.LineNo,
					Characters: sc.Characters,
					Cues:       len(sc.Cues),
				})
			}
			if ctx.json() {
				return writeJSON(cmd, scenes)
			}
			if len(scenes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No scene headings")
				return nil
			}
			rows := make([][]string, 0, len(scenes))
			for _, sc := range scenes {
				rows = append(rows, []string{
					strconv.Itoa(sc.Number),
					sc.Heading,
					strconv.Itoa(sc.Line),
					strings.Join(sc.Characters, ", "),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Heading", "Line", "Characters"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight},
			))
			return nil
		},
	}
}

type submitResult struct {
	Document string `json:"document"`
	Cursor   int    `json:"cursor"`
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var cursor int
	var mode string
	cmd := &cobra.Command{
		Use:   "submit [file|-]",
		Short: "Apply Enter at the cursor and print the resulting document",
		Long: "Applies the Enter key to the document at the given byte offset " +
			"(default: end of document) and prints the new document. The new " +
			"cursor offset goes to stderr, or into the JSON output with --json.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := ctx.readScriptArg(cmd, scriptArg(args))
			if err != nil {
				return err
			}
			m := src.Mode
			if strings.TrimSpace(mode) != "" {
				m = script.ParseMode(mode)
			}
			at := cursor
			if at < 0 {
				at = len(src.Text)
			}
			doc, next := editor.SubmitLineMode(m, src.Text, at)
			if ctx.json() {
				return writeJSON(cmd, submitResult{Document: doc, Cursor: next})
			}
			fmt.Fprint(cmd.OutOrStdout(), doc)
			fmt.Fprintln(cmd.ErrOrStderr(), "cursor:", next)
			return nil
		},
	}
	cmd.Flags().IntVar(&cursor, "cursor", -1, "Byte offset of the cursor")
	cmd.Flags().StringVar(&mode, "mode", "", "Override the writing mode")
	return cmd
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [dir|file|-]",
		Short: "Compute script statistics locally",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := ctx.readScriptArg(cmd, scriptArg(args))
			if err != nil {
				return err
			}
			stats := analysis.Analyze(src.Text)
			if ctx.json() {
				return writeJSON(cmd, stats)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderAnalysis(toWire(stats)))
			return nil
		},
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
