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
	"strings"

	"github.com/spf13/cobra"

	"screenwriter/internal/analysis"
	"screenwriter/internal/backend"
	"screenwriter/internal/export"
	"screenwriter/internal/storage"
	"screenwriter/internal/telemetry"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export drafts to PDF and image formats",
	}

	var titlePage bool
	var author string
	pdf := &cobra.Command{
		Use:   "pdf <source> <out.pdf>",
		Short: "Typeset a draft as a screenplay PDF",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := ctx.readScriptArg(cmd, args[0])
			if err != nil {
				return err
			}
			opt := export.PDFOptions{TitlePage: titlePage, Author: author, Mode: src.Mode}
			if err := export.ScreenplayPDF(args[1], src.Title, src.Text, opt); err != nil {
				return err
			}
			telemetry.Default().Export(export.FormatPDF)
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", args[1])
			return nil
		},
	}
	pdf.Flags().BoolVar(&titlePage, "title-page", false, "Prepend a title page")
	pdf.Flags().StringVar(&author, "author", "", "Author shown on the title page")

	card := &cobra.Command{
		Use:   "card <dir> <out.png>",
		Short: "Render a pitch card image from the project's title and synopsis",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := storage.Open(args[0])
			if err != nil {
				return err
			}
			if err := export.PitchCardPNG(args[1], ph.Project.Title, ph.Project.Synopsis); err != nil {
				return err
			}
			telemetry.Default().Export(export.FormatCard)
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", args[1])
			return nil
		},
	}

	cert := &cobra.Command{
		Use:   "certificate <dir> <out.pdf>",
		Short: "Render the completion certificate of a finished project",
		Long:  "Re-analyzes a completed project locally and renders its certificate. Use 'complete' to finish a project.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := storage.Open(args[0])
			if err != nil {
				return err
			}
			c, err := localCertificate(ph)
			if err != nil {
				return err
			}
			if err := exportCertificate(args[1], c); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", args[1])
			return nil
		},
	}

	var preset, outDir string
	var formats []string
	batch := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Export a project in several formats at once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := storage.Open(args[0])
			if err != nil {
				return err
			}
			opt := export.BatchOptions{
				Preset:  export.PresetName(strings.TrimSpace(preset)),
				Formats: formats,
				OutDir:  outDir,
				Author:  author,
			}
			if ph.Project.Completed != nil {
				if c, err := localCertificate(ph); err == nil {
					opt.Certificate = &c
				}
			}
			paths, err := export.BatchExport(ph, opt)
			if err != nil {
				return err
			}
			if ctx.json() {
				return writeJSON(cmd, paths)
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), "Wrote", p)
			}
			return nil
		},
	}
	batch.Flags().StringVar(&preset, "preset", string(export.PresetDraft), "Export preset: draft or pitch")
	batch.Flags().StringSliceVar(&formats, "format", nil, "Formats to export, overriding the preset")
	batch.Flags().StringVar(&outDir, "out", "", "Output directory (default: <project>/exports)")
	batch.Flags().StringVar(&author, "author", "", "Author shown on title pages")

	cmd.AddCommand(pdf, card, cert, batch)
	return cmd
}

// localCertificate rebuilds the certificate of a completed project from
// the draft on disk.
func localCertificate(ph *storage.ProjectHandle) (backend.Certificate, error) {
	p := ph.Project
	if p.Completed == nil {
		return backend.Certificate{}, fmt.Errorf("project %q is not complete; run 'screenwriter complete' first", p.Title)
	}
	text, err := storage.ReadScript(ph)
	if err != nil {
		return backend.Certificate{}, err
	}
	return backend.Certificate{
		Title:       p.Title,
		Synopsis:    p.Synopsis,
		CompletedAt: p.Completed.At,
		Stats:       toWire(analysis.Analyze(text)),
	}, nil
}

func exportCertificate(path string, c backend.Certificate) error {
	if err := export.CertificatePDF(path, c); err != nil {
		return err
	}
	telemetry.Default().Export(export.FormatCertificate)
	return nil
}
