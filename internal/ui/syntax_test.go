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
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func TestHighlighter_Highlight(t *testing.T) {
	tests := []struct {
		name  string
		basic bool
		style string
	}{
		{"256 colors", false, ""},
		{"basic colors", true, ""},
		{"named style", false, "dracula"},
		{"unknown style", false, "no-such-style"},
	}

	content := "# theme\nbackground = #101018\nforeground = #e0e0e0"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHighlighter(tt.basic, tt.style)
			lines, err := h.Highlight(content)
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(lines), 3)

			plain := stripANSI(strings.Join(lines, "\n"))
			assert.Contains(t, plain, "background = #101018")
			assert.Contains(t, plain, "# theme")
		})
	}
}

func TestHighlighter_Empty(t *testing.T) {
	lines, err := NewHighlighter(false, "").Highlight("")
	require.NoError(t, err)
	assert.Equal(t, []string{""}, lines)
}
