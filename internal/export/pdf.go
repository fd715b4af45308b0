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
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"screenwriter/internal/script"
)

// Page geometry in points for a US-Letter screenplay page.
const (
	pageW        = 612.0
	pageH        = 792.0
	marginLeft   = 108.0 // 1.5in binding margin
	marginRight  = 72.0
	marginTop    = 72.0
	marginBottom = 72.0
	fontSize     = 12.0
	lineH        = 12.0
)

// Horizontal positions of the screenplay elements.
const (
	bodyW        = pageW - marginLeft - marginRight
	dialogueX    = 180.0
	dialogueW    = 252.0
	parenX       = 223.0
	parenW       = 144.0
	characterX   = 266.0
	shotX        = 144.0
	dualLeftX    = 150.0
	dualRightX   = 360.0
	dualColumnW  = 200.0
	noteGreyTone = 110
)

// PDFOptions controls screenplay export.
type PDFOptions struct {
	TitlePage bool
	Author    string
	Mode      script.Mode // empty means screenplay
}

// ScreenplayPDF renders doc as a multi-page screenplay PDF at path. Each
// classified line is laid out by kind; a page break line starts a new page.
func ScreenplayPDF(path, title, doc string, opt PDFOptions) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("output path is empty")
	}
	mode := opt.Mode
	if mode == "" {
		mode = script.ModeScreenplay
	}
	if strings.TrimSpace(title) == "" {
		title = "Untitled Project"
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	pdf.SetTitle(title, true)
	if opt.Author != "" {
		pdf.SetAuthor(opt.Author, true)
	}
	pdf.SetCreator("Screenwriter", false)
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if opt.TitlePage {
		titlePage(pdf, tr, title, opt.Author)
	}
	pdf.AddPage()
	pdf.SetFont("Courier", "", fontSize)

	parsed := script.Parse(doc, mode)
	for _, ln := range parsed.Lines {
		if ln.Kind == script.KindPageBreak {
			pdf.AddPage()
			continue
		}
		writeLine(pdf, tr, ln)
	}
	return writePDF(pdf, path)
}

func titlePage(pdf *gofpdf.Fpdf, tr func(string) string, title, author string) {
	pdf.AddPage()
	pdf.SetFont("Courier", "B", fontSize)
	pdf.SetY(pageH / 3)
	pdf.MultiCell(bodyW, lineH, tr(strings.ToUpper(title)), "", "C", false)
	if author != "" {
		pdf.SetFont("Courier", "", fontSize)
		pdf.Ln(lineH * 2)
		pdf.MultiCell(bodyW, lineH, "written by", "", "C", false)
		pdf.Ln(lineH)
		pdf.MultiCell(bodyW, lineH, tr(author), "", "C", false)
	}
}

func writeLine(pdf *gofpdf.Fpdf, tr func(string) string, ln script.Line) {
	text := tr(ln.Text)
	if strings.TrimSpace(ln.Text) == "" {
		pdf.Ln(lineH)
		return
	}
	style, x, w, align := "", marginLeft, bodyW, "L"
	pdf.SetTextColor(0, 0, 0)
	switch ln.Kind {
	case script.KindSceneHeading:
		style = "B"
		text = strings.ToUpper(text)
	case script.KindCharacter:
		if names := script.Speakers(ln.Text); len(names) == 2 {
			dualCue(pdf, tr, names)
			return
		}
		x, w = characterX, pageW-marginRight-characterX
	case script.KindDialogue:
		x, w = dialogueX, dialogueW
	case script.KindParenthetical:
		x, w = parenX, parenW
	case script.KindTransition:
		align = "R"
		text = strings.ToUpper(text)
	case script.KindShot:
		style = "B"
		x, w = shotX, pageW-marginRight-shotX
	case script.KindMusicCue:
		style, align = "I", "C"
	case script.KindMontage:
		style, align = "B", "C"
		text = strings.ToUpper(text)
	case script.KindFlashback:
		style = "BI"
	case script.KindNote:
		style = "I"
		pdf.SetTextColor(noteGreyTone, noteGreyTone, noteGreyTone)
	}
	pdf.SetFont("Courier", style, fontSize)
	pdf.SetX(x)
	pdf.MultiCell(w, lineH, text, "", align, false)
	pdf.SetTextColor(0, 0, 0)
}

// dualCue prints two speaker names side by side.
func dualCue(pdf *gofpdf.Fpdf, tr func(string) string, names []string) {
	pdf.SetFont("Courier", "", fontSize)
	y := pdf.GetY()
	pdf.SetXY(dualLeftX, y)
	pdf.CellFormat(dualColumnW, lineH, tr(names[0]), "", 0, "C", false, 0, "")
	pdf.SetXY(dualRightX, y)
	pdf.CellFormat(dualColumnW, lineH, tr(names[1]), "", 1, "C", false, 0, "")
}

func writePDF(pdf *gofpdf.Fpdf, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
