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

// Package ghostty reads, validates, cleans and re-emits Ghostty terminal
// configuration text.
//
// Parse never fails: every problem in the input is reported as a
// line-numbered Diagnostic and the returned ParsedConfig is always complete,
// with unset colors filled from defaults.
package ghostty

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/adaryorg/ghostyle/internal/colors"
)

// Diagnostic is a single parse error or warning. Line is 1-based; 0 refers to
// the whole document.
type Diagnostic struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Line == 0 {
		return d.Message
	}
	return fmt.Sprintf("line %d: %s", d.Line, d.Message)
}

// ParsedConfig is the visual subset of a Ghostty config. Empty strings and nil
// pointers mean the key was not set.
type ParsedConfig struct {
	Background            string     `json:"background"`
	Foreground            string     `json:"foreground"`
	CursorColor           string     `json:"cursorColor,omitempty"`
	CursorText            string     `json:"cursorText,omitempty"`
	SelectionBg           string     `json:"selectionBg,omitempty"`
	SelectionFg           string     `json:"selectionFg,omitempty"`
	Palette               [16]string `json:"palette"`
	FontFamily            string     `json:"fontFamily,omitempty"`
	FontSize              *float64   `json:"fontSize,omitempty"`
	CursorStyle           string     `json:"cursorStyle,omitempty"`
	BgOpacity             *float64   `json:"bgOpacity,omitempty"`
	UnfocusedSplitOpacity *float64   `json:"unfocusedSplitOpacity,omitempty"`
	UnfocusedSplitFill    string     `json:"unfocusedSplitFill,omitempty"`
	SplitDividerColor     string     `json:"splitDividerColor,omitempty"`
	IsDark                bool       `json:"isDark"`
	Theme                 string     `json:"theme,omitempty"`
}

// Result is everything Parse learned about one document.
type Result struct {
	Config   ParsedConfig `json:"config"`
	Errors   []Diagnostic `json:"errors"`
	Warnings []Diagnostic `json:"warnings"`
}

// HasErrors reports whether any line could not be interpreted.
func (r Result) HasErrors() bool {
	return len(r.Errors) > 0
}

var (
	keyPattern     = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
	palettePattern = regexp.MustCompile(`^(\d+)\s*=\s*(.+)$`)
)

type outcomeKind int

const (
	accepted outcomeKind = iota
	rejected
	ignored
)

// outcome is what a key validator decided about one value. An accepted
// outcome with a nil apply is valid but not part of the preview.
type outcome struct {
	kind    outcomeKind
	message string
	apply   func(*draft)
}

func accept(apply func(*draft)) outcome { return outcome{kind: accepted, apply: apply} }

func reject(format string, args ...any) outcome {
	return outcome{kind: rejected, message: fmt.Sprintf(format, args...)}
}

// draft collects values before defaults are applied.
type draft struct {
	cfg     ParsedConfig
	palette [16]string
}

func (d *draft) hasColors() bool {
	if d.cfg.Background != "" || d.cfg.Foreground != "" || d.cfg.Theme != "" {
		return true
	}
	for _, c := range d.palette {
		if c != "" {
			return true
		}
	}
	return false
}

// byteOrderMark is written at the start of files by some Windows editors.
const byteOrderMark = "\ufeff"

// Parse validates raw config text and extracts its visual settings.
func Parse(raw string) Result {
	raw = strings.TrimPrefix(raw, byteOrderMark)
	res := Result{Errors: []Diagnostic{}, Warnings: []Diagnostic{}}
	var d draft
	seen := make(map[string]int)
	hasAnyKey := false

	warn := func(line int, format string, args ...any) {
		res.Warnings = append(res.Warnings, Diagnostic{Line: line, Message: fmt.Sprintf(format, args...)})
	}

	for i, rawLine := range strings.Split(raw, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			warn(lineNo, `Invalid syntax — expected "key = value" format`)
			continue
		}

		key := strings.TrimSpace(line[:eq])
		value := strings.TrimSpace(line[eq+1:])
		hasAnyKey = true

		if key != "" && !keyPattern.MatchString(key) {
			warn(lineNo, `Key "%s" has invalid characters — Ghostty keys use lowercase and hyphens only`, key)
		}

		if value == "" {
			if _, ok := emptyValueKeys[key]; !ok {
				res.Errors = append(res.Errors, Diagnostic{
					Line:    lineNo,
					Message: fmt.Sprintf(`Empty value for "%s" — a value is required`, key),
				})
				continue
			}
		}

		value = unquote(value)

		if stripped := StripInlineComment(value); stripped != value {
			warn(lineNo, `Inline comment detected — Ghostty treats everything after "=" as the value. Comments will be stripped on save.`)
			value = stripped
		}

		if !IsKnownKey(key) {
			if s, ok := Suggestion(key); ok {
				warn(lineNo, `Unknown key "%s" — did you mean %s?`, key, s)
			} else {
				warn(lineNo, `Unknown key "%s" — Ghostty will ignore this`, key)
			}
			continue
		}

		if !IsMultiValue(key) {
			if first, ok := seen[key]; ok {
				warn(lineNo, `Duplicate key "%s" (first seen on line %d) — last value wins`, key, first)
			}
			seen[key] = lineNo
		}

		out := validate(key, value)
		switch out.kind {
		case rejected:
			res.Errors = append(res.Errors, Diagnostic{Line: lineNo, Message: out.message})
		case accepted:
			if out.apply != nil {
				out.apply(&d)
			}
		}
	}

	if hasAnyKey && !d.hasColors() {
		warn(0, "No colors defined — config should have at least background, foreground, or palette colors")
	}

	res.Config = d.finish()
	return res
}

func (d *draft) finish() ParsedConfig {
	cfg := d.cfg
	if cfg.Background == "" {
		cfg.Background = DefaultBackground
	}
	if cfg.Foreground == "" {
		cfg.Foreground = DefaultForeground
	}
	for i, c := range d.palette {
		if c == "" {
			c = DefaultPalette[i]
		}
		cfg.Palette[i] = c
	}
	cfg.IsDark = colors.IsDarkColor(cfg.Background)
	return cfg
}

// unquote removes one layer of matching surrounding quotes.
func unquote(value string) string {
	if value == "" {
		return value
	}
	q := value[0]
	if q != '"' && q != '\'' {
		return value
	}
	if value[len(value)-1] != q {
		return value
	}
	if len(value) < 2 {
		return ""
	}
	return value[1 : len(value)-1]
}

// colorTargets are the color keys that are stored; the rest of the color keys
// are only validated.
var colorTargets = map[string]func(*ParsedConfig) *string{
	"background":           func(c *ParsedConfig) *string { return &c.Background },
	"foreground":           func(c *ParsedConfig) *string { return &c.Foreground },
	"cursor-color":         func(c *ParsedConfig) *string { return &c.CursorColor },
	"cursor-text":          func(c *ParsedConfig) *string { return &c.CursorText },
	"selection-background": func(c *ParsedConfig) *string { return &c.SelectionBg },
	"selection-foreground": func(c *ParsedConfig) *string { return &c.SelectionFg },
	"unfocused-split-fill": func(c *ParsedConfig) *string { return &c.UnfocusedSplitFill },
	"split-divider-color":  func(c *ParsedConfig) *string { return &c.SplitDividerColor },
}

var numberTargets = map[string]func(*ParsedConfig) **float64{
	"font-size":               func(c *ParsedConfig) **float64 { return &c.FontSize },
	"background-opacity":      func(c *ParsedConfig) **float64 { return &c.BgOpacity },
	"unfocused-split-opacity": func(c *ParsedConfig) **float64 { return &c.UnfocusedSplitOpacity },
}

// validate dispatches a known key to the check for its value kind.
func validate(key, value string) outcome {
	sk, ok := Lookup(key)
	if !ok {
		return outcome{kind: ignored}
	}
	switch sk.Kind {
	case KindPalette:
		return validatePalette(value)
	case KindColor:
		return validateColor(key, value)
	case KindNumber:
		return validateNumber(sk, value)
	case KindInteger:
		return validateInteger(sk, value)
	case KindEnum:
		return validateEnum(sk, value)
	case KindBool:
		if value != "true" && value != "false" {
			return reject(`Invalid value for "%s": "%s" — expected true or false`, key, value)
		}
		return accept(nil)
	}

	switch key {
	case "font-family":
		return accept(func(d *draft) { d.cfg.FontFamily = value })
	case "theme":
		return accept(func(d *draft) { d.cfg.Theme = value })
	}
	return accept(nil)
}

func validateColor(key, value string) outcome {
	selection := key == "selection-background" || key == "selection-foreground"
	if selection {
		if _, special := selectionSpecialValues[value]; special {
			return accept(nil)
		}
	}
	hex, ok := colors.NormalizeHex(value)
	if !ok {
		if selection {
			return reject(`Invalid color for "%s": %s — expected #RRGGBB, #RGB, cell-foreground, or cell-background`, key, value)
		}
		return reject(`Invalid color for "%s": %s — expected #RRGGBB or #RGB`, key, value)
	}
	target, stored := colorTargets[key]
	if !stored {
		return accept(nil)
	}
	return accept(func(d *draft) { *target(&d.cfg) = hex })
}

// decimalNumber is the only number syntax accepted. strconv.ParseFloat on
// its own would also take hex floats, Inf and digit separators.
var decimalNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

func parseDecimal(value string) (float64, bool) {
	if !decimalNumber.MatchString(value) {
		return 0, false
	}
	n, err := strconv.ParseFloat(value, 64)
	return n, err == nil && !math.IsNaN(n) && !math.IsInf(n, 0)
}

func validateNumber(sk SchemaKey, value string) outcome {
	n, ok := parseDecimal(value)
	valid := ok && n >= sk.Range.Min && n <= sk.Range.Max

	target, stored := numberTargets[sk.Name]
	if !valid {
		if stored {
			return reject(`Invalid %s: %s — expected number in range %s`, sk.Name, value, sk.Range.Label)
		}
		return reject(`Invalid value for "%s": %s — expected number in range %s`, sk.Name, value, sk.Range.Label)
	}
	if !stored {
		return accept(nil)
	}
	return accept(func(d *draft) { *target(&d.cfg) = &n })
}

func validateInteger(sk SchemaKey, value string) outcome {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		return reject(`Invalid %s: %s — expected a non-negative integer`, sk.Name, value)
	}
	if float64(n) > sk.Range.Max {
		return reject(`Invalid %s: %s — expected integer in range %s`, sk.Name, value, sk.Range.Label)
	}
	return accept(nil)
}

func validateEnum(sk SchemaKey, value string) outcome {
	for _, v := range sk.Enum {
		if v != value {
			continue
		}
		if sk.Name == "cursor-style" {
			style := value
			if style == "block_hollow" {
				style = "block"
			}
			return accept(func(d *draft) { d.cfg.CursorStyle = style })
		}
		return accept(nil)
	}
	if sk.Name == "cursor-style" {
		return reject(`Invalid cursor-style: "%s" — expected one of: %s`, value, strings.Join(sk.Enum, ", "))
	}
	return reject(`Invalid value for "%s": "%s" — expected one of: %s`, sk.Name, value, strings.Join(sk.Enum, ", "))
}

func validatePalette(value string) outcome {
	m := palettePattern.FindStringSubmatch(value)
	if m == nil {
		return reject(`Invalid palette format: "%s" — expected "N=#RRGGBB" (e.g., "0=#000000")`, value)
	}
	index, err := strconv.Atoi(m[1])
	if err != nil || index > 255 {
		shown := m[1]
		if err == nil {
			shown = strconv.Itoa(index)
		}
		return reject(`Palette index %s out of range — expected 0–255`, shown)
	}
	hex, ok := colors.NormalizeHex(m[2])
	if !ok {
		return reject(`Invalid color in palette %d: %s — expected #RRGGBB or #RGB`, index, m[2])
	}
	if index > 15 {
		return accept(nil)
	}
	return accept(func(d *draft) { d.palette[index] = hex })
}
