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
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"
	"screenwriter/internal/backend"
	"screenwriter/internal/script"
)

const sampleScript = `EXT. BEACH - DAY

Waves roll in.

@MARLOWE
(quietly)
$Nobody swims here anymore.

>CUT TO:
===PAGE BREAK===
INT. LIGHTHOUSE - NIGHT
#CLOSE ON THE LAMP
~Foghorn theme
[[NOTE: lighting check]]`

// readPDF returns the page count and extracted plain text of a PDF file.
func readPDF(t *testing.T, path string) (int, string) {
	t.Helper()
	f, r, err := pdf.Open(path)
	if err != nil {
		t.Fatalf("open pdf: %v", err)
	}
	defer f.Close()
	content, err := r.GetPlainText()
	if err != nil {
		t.Fatalf("extract text: %v", err)
	}
	var b strings.Builder
	if _, err := io.Copy(&b, content); err != nil {
		t.Fatalf("read text: %v", err)
	}
	return r.NumPage(), b.String()
}

func TestScreenplayPDF_LayoutAndPageBreak(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "script.pdf")
	if err := ScreenplayPDF(out, "Shoreline", sampleScript, PDFOptions{}); err != nil {
		t.Fatalf("export: %v", err)
	}
	pages, text := readPDF(t, out)
	if pages != 2 {
		t.Fatalf("pages = %d, want 2", pages)
	}
	for _, want := range []string{"BEACH", "MARLOWE", "LIGHTHOUSE", "Foghorn"} {
		if !strings.Contains(text, want) {
			t.Errorf("pdf text missing %q", want)
		}
	}
	if strings.Contains(text, "PAGE BREAK") {
		t.Errorf("page break marker should not be printed")
	}
}

func TestScreenplayPDF_TitlePage(t *testing.T) {
	out := filepath.Join(t.TempDir(), "script.pdf")
	opt := PDFOptions{TitlePage: true, Author: "Jo Writer"}
	if err := ScreenplayPDF(out, "Shoreline", sampleScript, opt); err != nil {
		t.Fatalf("export: %v", err)
	}
	pages, text := readPDF(t, out)
	if pages != 3 {
		t.Fatalf("pages = %d, want 3", pages)
	}
	if !strings.Contains(text, "SHORELINE") {
		t.Errorf("title page missing upper-cased title")
	}
}

func TestScreenplayPDF_NovelModePrintsSigilsVerbatim(t *testing.T) {
	out := filepath.Join(t.TempDir(), "novel.pdf")
	doc := "CHAPTER 1\n\n@Sigils are prose here."
	if err := ScreenplayPDF(out, "", doc, PDFOptions{Mode: script.ModeNovel}); err != nil {
		t.Fatalf("export: %v", err)
	}
	_, text := readPDF(t, out)
	if !strings.Contains(text, "@Sigils") {
		t.Errorf("novel text should keep the sigil, got %q", text)
	}
}

func TestScreenplayPDF_EmptyPath(t *testing.T) {
	if err := ScreenplayPDF("  ", "x", "y", PDFOptions{}); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestCertificatePDF(t *testing.T) {
	out := filepath.Join(t.TempDir(), "cert.pdf")
	cert := backend.Certificate{
		Title:       "Shoreline",
		CompletedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Stats: backend.ScriptAnalysis{
			PageCount:        1,
			LocationCount:    2,
			CharacterCount:   1,
			Languages:        []string{"English"},
			PotentialMarkets: []string{"USA", "Global Streaming"},
		},
	}
	if err := CertificatePDF(out, cert); err != nil {
		t.Fatalf("certificate: %v", err)
	}
	pages, text := readPDF(t, out)
	if pages != 1 {
		t.Fatalf("pages = %d, want 1", pages)
	}
	for _, want := range []string{"Certificate", "Shoreline", "compelling", "2025"} {
		if !strings.Contains(text, want) {
			t.Errorf("certificate text missing %q", want)
		}
	}
}
