/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"screenwriter/internal/backend"
	"screenwriter/internal/storage"
	"screenwriter/internal/telemetry"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetDraft PresetName = "draft"
	PresetPitch PresetName = "pitch"
)

// Export formats.
const (
	FormatPDF         = "pdf"
	FormatCard        = "card"
	FormatCertificate = "certificate"
)

// BatchOptions controls a batch export of one project.
//
// Path semantics: when OutDir is empty or relative it is resolved under
// <project>/exports/. Files are named after the project title.
type BatchOptions struct {
	Preset      PresetName
	Formats     []string // pdf, card, certificate; empty means preset defaults
	OutDir      string
	Author      string
	Certificate *backend.Certificate // required for the certificate format
}

// BatchExport renders every requested format and returns the written paths.
func BatchExport(ph *storage.ProjectHandle, opt BatchOptions) ([]string, error) {
	if ph == nil {
		return nil, fmt.Errorf("project handle is nil")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}

	baseOut := opt.OutDir
	if !filepath.IsAbs(baseOut) {
		baseOut = filepath.Join(ph.Root, storage.ExportsDirName, baseOut)
	}
	doc, err := storage.ReadScript(ph)
	if err != nil {
		return nil, err
	}
	p := ph.Project
	stem := fileStem(p.Title)

	var out []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		var path string
		switch f {
		case FormatPDF:
			path = filepath.Join(baseOut, stem+".pdf")
			po := PDFOptions{TitlePage: opt.Preset == PresetPitch, Author: opt.Author, Mode: p.Mode}
			err = ScreenplayPDF(path, p.Title, doc, po)
		case FormatCard:
			path = filepath.Join(baseOut, stem+"-card.png")
			err = PitchCardPNG(path, p.Title, p.Synopsis)
		case FormatCertificate:
			if opt.Certificate == nil {
				return out, fmt.Errorf("certificate export needs a completed project")
			}
			path = filepath.Join(baseOut, stem+"-certificate.pdf")
			err = CertificatePDF(path, *opt.Certificate)
		default:
			return out, fmt.Errorf("unknown format: %s", f)
		}
		if err != nil {
			return out, fmt.Errorf("%s: %w", f, err)
		}
		telemetry.Default().Export(f)
		out = append(out, path)
	}
	return out, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetPitch:
		return []string{FormatPDF, FormatCard}
	default:
		return []string{FormatPDF}
	}
}

var reUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// fileStem turns a title into a lowercase dash-separated file name.
func fileStem(title string) string {
	s := strings.Trim(reUnsafe.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if s == "" {
		return "screenplay"
	}
	return s
}
