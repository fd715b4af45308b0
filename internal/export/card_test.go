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
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

func TestPitchCardPNG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "card.png")
	if err := PitchCardPNG(out, "Shoreline", "A keeper guards a dying light. Then the storm comes."); err != nil {
		t.Fatalf("card: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != CardWidth || b.Dy() != CardHeight {
		t.Fatalf("size = %v", b)
	}
	r, g, b, _ := img.At(1, 1).RGBA()
	if uint8(r>>8) != cardBackground.R || uint8(g>>8) != cardBackground.G || uint8(b>>8) != cardBackground.B {
		t.Errorf("corner pixel is not background")
	}
	r, g, b, _ = img.At(cardPad+10, cardPad+4).RGBA()
	if uint8(r>>8) != cardAccent.R || uint8(g>>8) != cardAccent.G || uint8(b>>8) != cardAccent.B {
		t.Errorf("accent bar missing")
	}
}

func TestWrapText(t *testing.T) {
	face, err := newFace(goregular.TTF, 20)
	if err != nil {
		t.Fatalf("face: %v", err)
	}
	defer face.Close()
	s := strings.Repeat("lighthouse keeper ", 20)
	lines := wrapText(face, s, 300)
	if len(lines) < 2 {
		t.Fatalf("expected several lines, got %d", len(lines))
	}
	for _, ln := range lines {
		if w := font.MeasureString(face, ln).Ceil(); w > 300 {
			t.Errorf("line %q is %dpx wide", ln, w)
		}
	}
	if got := strings.Join(lines, " "); got != strings.TrimSpace(s) {
		t.Errorf("wrapping lost words")
	}
	if got := wrapText(face, "", 300); len(got) != 0 {
		t.Errorf("empty input gave %v", got)
	}
}
