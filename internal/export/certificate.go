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
	"image/color"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"screenwriter/internal/backend"
)

var (
	certBorder = color.RGBA{R: 120, G: 90, B: 30, A: 255}
	certInk    = color.RGBA{R: 20, G: 20, B: 20, A: 255}
)

// CertificatePDF writes a single landscape page certifying that a project
// was completed, with the statistics from script analysis.
func CertificatePDF(path string, cert backend.Certificate) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("output path is empty")
	}
	title := strings.TrimSpace(cert.Title)
	if title == "" {
		title = "Untitled Project"
	}
	synopsis := strings.TrimSpace(cert.Synopsis)
	if synopsis == "" {
		synopsis = backend.DefaultCertificateSynopsis
	}
	at := cert.CompletedAt
	if at.IsZero() {
		at = time.Now()
	}

	w, h := pageH, pageW
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		OrientationStr: "L",
		Size:           gofpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	pdf.SetTitle("Certificate of Completion: "+title, true)
	pdf.SetCreator("Screenwriter", false)
	pdf.SetMargins(72, 72, 72)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	setDrawColor(pdf, certBorder)
	pdf.SetLineWidth(4)
	pdf.Rect(24, 24, w-48, h-48, "D")
	pdf.SetLineWidth(1)
	pdf.Rect(34, 34, w-68, h-68, "D")

	setTextColor(pdf, certInk)
	inner := w - 144
	pdf.SetFont("Times", "B", 36)
	pdf.SetXY(72, 90)
	pdf.CellFormat(inner, 40, "Certificate of Completion", "", 1, "C", false, 0, "")

	pdf.SetFont("Times", "I", 16)
	pdf.SetX(72)
	pdf.CellFormat(inner, 24, "This certifies that the screenplay", "", 1, "C", false, 0, "")

	pdf.SetFont("Times", "B", 28)
	pdf.SetX(72)
	pdf.CellFormat(inner, 40, tr(title), "", 1, "C", false, 0, "")

	pdf.SetFont("Times", "", 13)
	pdf.SetX(72)
	pdf.MultiCell(inner, 16, tr(synopsis), "", "C", false)
	pdf.Ln(12)

	s := cert.Stats
	pdf.SetFont("Helvetica", "", 12)
	for _, row := range [][2]string{
		{"Pages", fmt.Sprintf("%d", s.PageCount)},
		{"Locations", fmt.Sprintf("%d", s.LocationCount)},
		{"Characters", fmt.Sprintf("%d", s.CharacterCount)},
		{"Languages", orDash(strings.Join(s.Languages, ", "))},
		{"Potential markets", orDash(strings.Join(s.PotentialMarkets, ", "))},
	} {
		pdf.SetX(72 + inner/4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(inner/4, 18, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(inner/2, 18, tr(row[1]), "", 1, "L", false, 0, "")
	}

	pdf.SetFont("Times", "I", 12)
	pdf.SetXY(72, h-96)
	pdf.CellFormat(inner, 18, "Completed on "+at.Format("January 2, 2006"), "", 1, "C", false, 0, "")
	return writePDF(pdf, path)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func setDrawColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setTextColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}
