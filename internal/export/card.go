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
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"screenwriter/internal/analysis"
)

// Pitch card dimensions in pixels (social preview ratio).
const (
	CardWidth  = 1200
	CardHeight = 630
	cardPad    = 72
)

var (
	cardBackground = color.RGBA{R: 18, G: 18, B: 24, A: 255}
	cardAccent     = color.RGBA{R: 214, G: 168, B: 64, A: 255}
	cardText       = color.RGBA{R: 240, G: 240, B: 240, A: 255}
)

// PitchCardPNG renders a title card for pitch decks: the title in bold and
// the logline (first sentence of the synopsis) wrapped below it.
func PitchCardPNG(path, title, synopsis string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("output path is empty")
	}
	if strings.TrimSpace(title) == "" {
		title = "Untitled Project"
	}
	titleFace, err := newFace(gobold.TTF, 64)
	if err != nil {
		return err
	}
	defer titleFace.Close()
	bodyFace, err := newFace(goitalic.TTF, 30)
	if err != nil {
		return err
	}
	defer bodyFace.Close()

	img := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: cardBackground}, image.Point{}, draw.Src)
	fillRect(img, image.Rect(cardPad, cardPad, cardPad+96, cardPad+8), cardAccent)

	maxW := CardWidth - 2*cardPad
	y := cardPad + 8 + 96
	for _, ln := range wrapText(titleFace, strings.TrimSpace(title), maxW) {
		drawString(img, titleFace, ln, cardPad, y, cardText)
		y += 76
	}
	y += 24
	logline := strings.TrimSpace(analysis.Logline(strings.TrimSpace(synopsis)))
	for _, ln := range wrapText(bodyFace, logline, maxW) {
		if y > CardHeight-cardPad {
			break
		}
		drawString(img, bodyFace, ln, cardPad, y, cardAccent)
		y += 42
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}

func newFace(ttf []byte, size float64) (font.Face, error) {
	fnt, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	return face, nil
}

// wrapText breaks s into lines no wider than maxW pixels. A single word
// wider than maxW gets a line of its own.
func wrapText(face font.Face, s string, maxW int) []string {
	words := strings.Fields(s)
	var lines []string
	cur := ""
	for _, w := range words {
		next := w
		if cur != "" {
			next = cur + " " + w
		}
		if cur != "" && font.MeasureString(face, next).Ceil() > maxW {
			lines = append(lines, cur)
			cur = w
			continue
		}
		cur = next
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

func drawString(img draw.Image, face font.Face, s string, x, y int, c color.Color) {
	d := font.Drawer{Dst: img, Src: image.NewUniform(c), Face: face, Dot: fixed.P(x, y)}
	d.DrawString(s)
}

func fillRect(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}
