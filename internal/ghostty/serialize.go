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

package ghostty

import (
	"fmt"
	"strconv"
	"strings"
)

// Serialize renders cfg as canonical config text in a fixed key order. Unset
// optional fields are omitted; background, foreground and all 16 palette
// entries are always written. The result has no trailing newline.
func Serialize(cfg ParsedConfig) string {
	var lines []string
	add := func(key, value string) {
		if value != "" {
			lines = append(lines, key+" = "+value)
		}
	}
	addNum := func(key string, v *float64) {
		if v != nil {
			lines = append(lines, key+" = "+FormatNumber(*v))
		}
	}

	add("theme", cfg.Theme)
	lines = append(lines, "background = "+cfg.Background, "foreground = "+cfg.Foreground)
	add("cursor-color", cfg.CursorColor)
	add("cursor-text", cfg.CursorText)
	add("selection-background", cfg.SelectionBg)
	add("selection-foreground", cfg.SelectionFg)
	for i, c := range cfg.Palette {
		lines = append(lines, fmt.Sprintf("palette = %d=%s", i, c))
	}
	if cfg.FontFamily != "" {
		lines = append(lines, fmt.Sprintf(`font-family = "%s"`, cfg.FontFamily))
	}
	addNum("font-size", cfg.FontSize)
	add("cursor-style", cfg.CursorStyle)
	addNum("background-opacity", cfg.BgOpacity)
	addNum("unfocused-split-opacity", cfg.UnfocusedSplitOpacity)
	add("unfocused-split-fill", cfg.UnfocusedSplitFill)
	add("split-divider-color", cfg.SplitDividerColor)

	return strings.Join(lines, "\n")
}

// FormatNumber writes v in its shortest decimal form without an exponent.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
