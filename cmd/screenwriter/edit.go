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

	"github.com/spf13/cobra"

	"screenwriter/internal/crash"
	applog "screenwriter/internal/log"
	"screenwriter/internal/tui"
	"screenwriter/internal/ui"
	"screenwriter/internal/version"
	"screenwriter/internal/workspace"
)

func newEditCommand(ctx *commandContext) *cobra.Command {
	var noMatch bool
	cmd := &cobra.Command{
		Use:   "edit <dir>",
		Short: "Edit a project in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			client := ctx.client()
			ws := workspace.New(client)
			defer ws.Close()
			if err := ws.Open(cmd.Context(), args[0]); err != nil {
				return err
			}
			defer crash.RecoverDraft(ws.Project(), ws.Session().Document)
			applog.Init(logOptions(cfg.Logging, true))

			tcfg := tui.Config{
				Session:    ws.Session(),
				SceneMatch: cfg.Editor.SceneMatch && !noMatch,
				Debounce:   cfg.Editor.MatchDebounce(),
			}
			if client != nil {
				tcfg.Checker = client
			}
			return tui.Run(cmd.Context(), tcfg)
		},
	}
	cmd.Flags().BoolVar(&noMatch, "no-match", false, "Start with scene matching switched off")
	return cmd
}

func newUICommand() *cobra.Command {
	return &cobra.Command{
		Use:         "ui [dir]",
		Short:       "Launch the desktop editor",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return ui.Run(dir)
		},
	}
}

func newVersionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if ctx.json() {
				return writeJSON(cmd, map[string]string{"version": version.String()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "screenwriter", version.String())
			return nil
		},
	}
}
