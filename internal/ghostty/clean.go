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
	"strings"
	"unicode"
	"unicode/utf8"
)

// Clean rewrites config text into a form Ghostty loads as written: comment
// lines are dropped, inline comments and surrounding quotes are removed from
// values, runs of blank lines collapse to one, and the result ends with a
// single newline. Clean(Clean(x)) == Clean(x).
func Clean(raw string) string {
	var out []string
	prevBlank := false

	raw = strings.TrimPrefix(raw, byteOrderMark)
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		if trimmed == "" {
			if !prevBlank {
				out = append(out, "")
			}
			prevBlank = true
			continue
		}
		prevBlank = false

		eq := strings.IndexByte(trimmed, '=')
		if eq < 0 {
			out = append(out, trimmed)
			continue
		}

		key := strings.TrimSpace(trimmed[:eq])
		value := cleanValue(strings.TrimSpace(trimmed[eq+1:]))
		out = append(out, key+" = "+value)
	}

	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n") + "\n"
}

// cleanValue strips quotes and inline comments until neither changes the
// value, so a cleaned line cleans to itself.
func cleanValue(value string) string {
	for {
		next := strings.TrimSpace(StripInlineComment(unquote(value)))
		if next == value {
			return value
		}
		value = next
	}
}

// StripInlineComment removes a trailing " # comment" from a value. A " #"
// followed by exactly 3 or 6 hex digits and then whitespace or the end of the
// value is taken to be a color and skipped.
//
//	"#0a0a0a  # dark bg" -> "#0a0a0a"
//	"0.4  # opacity"     -> "0.4"
//	"0=#000000"          -> "0=#000000"
func StripInlineComment(value string) string {
	from := 0
	for from < len(value) {
		idx := strings.Index(value[from:], " #")
		if idx < 0 {
			break
		}
		idx += from
		if n := hexTokenLen(value[idx+2:]); n > 0 {
			from = idx + 2 + n
			continue
		}
		return strings.TrimRightFunc(value[:idx], unicode.IsSpace)
	}
	return value
}

// hexTokenLen returns 6 or 3 when s starts with that many hex digits followed
// by whitespace or the end of s, and 0 otherwise.
func hexTokenLen(s string) int {
	run := 0
	for run < len(s) && run < 7 && isHex(s[run]) {
		run++
	}
	for _, n := range []int{6, 3} {
		if run < n {
			continue
		}
		if n == len(s) {
			return n
		}
		r, _ := utf8.DecodeRuneInString(s[n:])
		if unicode.IsSpace(r) {
			return n
		}
	}
	return 0
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
