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

package ui

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/adaryorg/ghostyle/internal/card"
)

const kittyChunkSize = 4096

// Approximate cell size in pixels, used to size the card before sending it.
const (
	cellPixelWidth  = 10
	cellPixelHeight = 20
)

// renderKittyImage returns the escape sequence that draws a PNG scaled into
// cols x rows terminal cells.
func renderKittyImage(imageData []byte, cols, rows int) string {
	if len(imageData) == 0 || cols <= 0 || rows <= 0 {
		return ""
	}

	encoded := base64.StdEncoding.EncodeToString(imageData)

	// a=T transmit and display, f=100 PNG, c/r target size in cells
	control := fmt.Sprintf("a=T,f=100,c=%d,r=%d", cols, rows)
	if len(encoded) <= kittyChunkSize {
		return fmt.Sprintf("\x1b_G%s;%s\x1b\\", control, encoded)
	}

	var result strings.Builder
	for i := 0; i < len(encoded); i += kittyChunkSize {
		end := min(i+kittyChunkSize, len(encoded))
		more := 1
		if end == len(encoded) {
			more = 0
		}
		if i == 0 {
			fmt.Fprintf(&result, "\x1b_G%s,m=%d;%s\x1b\\", control, more, encoded[i:end])
		} else {
			fmt.Fprintf(&result, "\x1b_Gm=%d;%s\x1b\\", more, encoded[i:end])
		}
	}
	return result.String()
}

// cardImage shrinks a rendered card to what fits in the given cell area and
// encodes it for the kitty protocol.
func cardImage(png []byte, cols, rows int) (string, error) {
	fitted, err := card.Fit(png, cols*cellPixelWidth, rows*cellPixelHeight)
	if err != nil {
		return "", err
	}
	return renderKittyImage(fitted, cols, rows), nil
}
