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

// Package colors holds the hex color helpers shared by the config parser,
// the auto-tagger and the preview renderers.
package colors

import (
	"math"
	"strconv"
	"strings"
)

// RGB is an 8-bit per channel color.
type RGB struct {
	R, G, B uint8
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func allHex(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}

// IsValidHex reports whether color is exactly #RRGGBB (either case).
func IsValidHex(color string) bool {
	return len(color) == 7 && color[0] == '#' && allHex(color[1:])
}

// NormalizeHex accepts "#rgb", "rgb", "#rrggbb" or "rrggbb" in any case and
// returns the lowercase "#rrggbb" form. Anything else (alpha channels, named
// colors, rgb() syntax) is rejected.
func NormalizeHex(color string) (string, bool) {
	c := strings.TrimSpace(color)
	c = strings.TrimPrefix(c, "#")
	if !allHex(c) {
		return "", false
	}
	switch len(c) {
	case 6:
		return "#" + strings.ToLower(c), true
	case 3:
		expanded := []byte{'#', c[0], c[0], c[1], c[1], c[2], c[2]}
		return strings.ToLower(string(expanded)), true
	default:
		return "", false
	}
}

// HexToRGB decodes a normalized #rrggbb color. Malformed channels decode as 0.
func HexToRGB(hex string) RGB {
	channel := func(lo int) uint8 {
		if len(hex) < lo+2 {
			return 0
		}
		v, err := strconv.ParseUint(hex[lo:lo+2], 16, 8)
		if err != nil {
			return 0
		}
		return uint8(v)
	}
	return RGB{R: channel(1), G: channel(3), B: channel(5)}
}

// Hex renders the color as lowercase #rrggbb.
func (c RGB) Hex() string {
	const digits = "0123456789abcdef"
	return string([]byte{'#',
		digits[c.R>>4], digits[c.R&0x0f],
		digits[c.G>>4], digits[c.G&0x0f],
		digits[c.B>>4], digits[c.B&0x0f],
	})
}

func linearize(c float64) float64 {
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// RelativeLuminance is the WCAG 2.x relative luminance of a #rrggbb color.
func RelativeLuminance(hex string) float64 {
	rgb := HexToRGB(hex)
	r := linearize(float64(rgb.R) / 255)
	g := linearize(float64(rgb.G) / 255)
	b := linearize(float64(rgb.B) / 255)
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// IsDarkColor reports whether the color's relative luminance is below 0.5.
func IsDarkColor(hex string) bool {
	return RelativeLuminance(hex) < 0.5
}

// ContrastRatio returns the WCAG contrast ratio between two colors, in [1, 21].
func ContrastRatio(a, b string) float64 {
	l1 := RelativeLuminance(a)
	l2 := RelativeLuminance(b)
	lighter := math.Max(l1, l2)
	darker := math.Min(l1, l2)
	return (lighter + 0.05) / (darker + 0.05)
}

// Saturation is the HSL saturation of a #rrggbb color, in [0, 1].
func Saturation(hex string) float64 {
	rgb := HexToRGB(hex)
	max := float64(maxByte(rgb.R, rgb.G, rgb.B)) / 255
	min := float64(minByte(rgb.R, rgb.G, rgb.B)) / 255
	if max == 0 || max == min {
		return 0
	}
	l := (max + min) / 2
	d := max - min
	if l > 0.5 {
		return d / (2 - max - min)
	}
	return d / (max + min)
}

// AverageSaturation averages Saturation over a palette. An empty palette is 0.
func AverageSaturation(palette []string) float64 {
	if len(palette) == 0 {
		return 0
	}
	total := 0.0
	for _, c := range palette {
		total += Saturation(c)
	}
	return total / float64(len(palette))
}

func maxByte(vs ...uint8) uint8 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minByte(vs ...uint8) uint8 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
