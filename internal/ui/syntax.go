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
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Ghostty configs are "key = value" lines with # comments, which the INI
// lexer tokenizes well enough.
const configLexer = "ini"

// Highlighter colors config text for the terminal using Chroma
type Highlighter struct {
	lexer     chroma.Lexer
	style     *chroma.Style
	formatter chroma.Formatter
}

// NewHighlighter picks the formatter for the terminal's color depth. An
// unknown style name falls back to monokai (or bw on basic terminals).
func NewHighlighter(useBasicColors bool, styleName string) *Highlighter {
	var style *chroma.Style
	if styleName != "" {
		if s, ok := styles.Registry[strings.ToLower(styleName)]; ok {
			style = s
		}
	}
	if style == nil {
		if useBasicColors {
			style = styles.Get("bw")
		} else {
			style = styles.Get("monokai")
		}
	}

	formatterName := "terminal256"
	if useBasicColors {
		formatterName = "terminal"
	}
	formatter := formatters.Get(formatterName)
	if formatter == nil {
		formatter = formatters.Fallback
	}

	lexer := lexers.Get(configLexer)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	return &Highlighter{
		lexer:     chroma.Coalesce(lexer),
		style:     style,
		formatter: formatter,
	}
}

// Highlight returns content split into colored lines. On any failure the
// plain lines are returned together with the error.
func (h *Highlighter) Highlight(content string) ([]string, error) {
	plain := strings.Split(content, "\n")
	if content == "" {
		return plain, nil
	}

	iterator, err := h.lexer.Tokenise(nil, content)
	if err != nil {
		return plain, err
	}

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return plain, err
	}
	return strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n"), nil
}
