/*
MIT License

Copyright (c) 2025 Yuval Adar <adary@adary.org>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package card draws shareable PNG preview cards for themes.
package card

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/adaryorg/ghostyle/internal/colors"
	"github.com/adaryorg/ghostyle/internal/ghostty"
)

// The card is laid out on a canvas about this wide and scaled up so the
// 7x13 bitmap font stays legible at large sizes.
const baseWidth = 400

const (
	margin    = 12
	swatchGap = 4
	lineStep  = 16
)

var ErrInvalidSize = errors.New("card dimensions must be positive")

func rgba(hex string) color.RGBA {
	c := colors.HexToRGB(hex)
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// segment is a run of text in one palette color.
type segment struct {
	text string
	slot int // palette index, -1 for foreground
}

var promptLine = []segment{
	{"user", 2}, {"@", -1}, {"ghost", 4}, {" ", -1}, {"~", 5}, {" > ", -1}, {"ls --color", -1},
}

var listingLine = []segment{
	{"docs/", 4}, {"  ", -1}, {"build.sh", 2}, {"  ", -1}, {"notes.md", -1}, {"  ", -1}, {"old.log", 8},
}

// RenderImage draws the card for cfg at w x h pixels.
func RenderImage(title string, cfg ghostty.ParsedConfig, w, h int) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}

	scale := w / baseWidth
	if scale < 1 {
		scale = 1
	}
	bw, bh := w/scale, h/scale
	base := image.NewRGBA(image.Rect(0, 0, bw, bh))

	bg := rgba(cfg.Background)
	fg := rgba(cfg.Foreground)
	draw.Draw(base, base.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	d := &font.Drawer{Dst: base, Face: basicfont.Face7x13}
	maxChars := (bw - 2*margin) / basicfont.Face7x13.Advance

	y := margin + basicfont.Face7x13.Ascent
	drawText(d, margin, y, fit(title, maxChars), fg)
	y += lineStep
	drawText(d, margin, y, fit(cfg.Background+" / "+cfg.Foreground, maxChars), rgba(cfg.Palette[8]))
	y += lineStep + lineStep/2

	for _, line := range [][]segment{promptLine, listingLine} {
		if y > bh/2+margin {
			break
		}
		x := margin
		for _, seg := range line {
			c := fg
			if seg.slot >= 0 {
				c = rgba(cfg.Palette[seg.slot])
			}
			x = drawText(d, x, y, seg.text, c)
		}
		y += lineStep
	}

	drawSwatches(base, cfg.Palette, bw, bh)

	if scale == 1 && bw == w && bh == h {
		return base, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), base, base.Bounds(), draw.Src, nil)
	return dst, nil
}

// Render draws the card and encodes it as PNG.
func Render(title string, cfg ghostty.ParsedConfig, w, h int) ([]byte, error) {
	img, err := RenderImage(title, cfg, w, h)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode card: %w", err)
	}
	return buf.Bytes(), nil
}

// drawText draws s with its baseline at (x, y) and returns the x position
// after it.
func drawText(d *font.Drawer, x, y int, s string, c color.Color) int {
	d.Src = image.NewUniform(c)
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
	return d.Dot.X.Round()
}

func fit(s string, maxChars int) string {
	r := []rune(s)
	if maxChars <= 0 {
		return ""
	}
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(r[:maxChars])
	}
	return string(r[:maxChars-3]) + "..."
}

// drawSwatches fills the bottom of the card with two rows of eight palette
// colors: normal on top, bright below.
func drawSwatches(img *image.RGBA, palette [16]string, bw, bh int) {
	sw := (bw - 2*margin - 7*swatchGap) / 8
	sh := bh / 5
	if sw < 1 || sh < 1 {
		return
	}
	top := bh - margin - 2*sh - swatchGap
	for i, hex := range palette {
		row, col := i/8, i%8
		x0 := margin + col*(sw+swatchGap)
		y0 := top + row*(sh+swatchGap)
		r := image.Rect(x0, y0, x0+sw, y0+sh)
		draw.Draw(img, r, &image.Uniform{C: rgba(hex)}, image.Point{}, draw.Src)
	}
}

// Fit scales encoded image data down to fit within maxW x maxH, keeping the
// aspect ratio. Images that already fit are returned unchanged.
func Fit(data []byte, maxW, maxH int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxW && height <= maxH {
		return data, nil
	}

	scale := float64(maxW) / float64(width)
	if s := float64(maxH) / float64(height); s < scale {
		scale = s
	}
	newW := max(1, int(float64(width)*scale))
	newH := max(1, int(float64(height)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return data, err
	}
	return buf.Bytes(), nil
}
