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
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexPattern = regexp.MustCompile(`^#[0-9a-f]{6}$`)

func TestParse_EmptyInput(t *testing.T) {
	res := Parse("")
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, DefaultBackground, res.Config.Background)
	assert.Equal(t, DefaultForeground, res.Config.Foreground)
	assert.Equal(t, DefaultPalette, res.Config.Palette)
	assert.True(t, res.Config.IsDark)
}

func TestParse_BasicTheme(t *testing.T) {
	raw := `# Dracula
background = #282a36
foreground = F8F8F2
cursor-color = #f8f8f2
cursor-text = #282A36
selection-background = #44475a
selection-foreground = cell-foreground
palette = 0=#21222c
palette = 1 = #ff5555
palette = 15=#fff
font-family = "JetBrains Mono"
font-size = 13.5
cursor-style = block_hollow
background-opacity = 0.95
unfocused-split-opacity = 0.7
unfocused-split-fill = #000
split-divider-color = #6272a4
theme = dracula
`
	res := Parse(raw)
	require.Empty(t, res.Errors)
	require.Empty(t, res.Warnings)

	cfg := res.Config
	assert.Equal(t, "#282a36", cfg.Background)
	assert.Equal(t, "#f8f8f2", cfg.Foreground)
	assert.Equal(t, "#f8f8f2", cfg.CursorColor)
	assert.Equal(t, "#282a36", cfg.CursorText)
	assert.Equal(t, "#44475a", cfg.SelectionBg)
	assert.Equal(t, "", cfg.SelectionFg)
	assert.Equal(t, "#21222c", cfg.Palette[0])
	assert.Equal(t, "#ff5555", cfg.Palette[1])
	assert.Equal(t, "#ffffff", cfg.Palette[15])
	assert.Equal(t, DefaultPalette[2], cfg.Palette[2])
	assert.Equal(t, "JetBrains Mono", cfg.FontFamily)
	require.NotNil(t, cfg.FontSize)
	assert.Equal(t, 13.5, *cfg.FontSize)
	assert.Equal(t, "block", cfg.CursorStyle)
	require.NotNil(t, cfg.BgOpacity)
	assert.Equal(t, 0.95, *cfg.BgOpacity)
	require.NotNil(t, cfg.UnfocusedSplitOpacity)
	assert.Equal(t, 0.7, *cfg.UnfocusedSplitOpacity)
	assert.Equal(t, "#000000", cfg.UnfocusedSplitFill)
	assert.Equal(t, "#6272a4", cfg.SplitDividerColor)
	assert.Equal(t, "dracula", cfg.Theme)
	assert.True(t, cfg.IsDark)
}

func TestParse_PaletteAlwaysComplete(t *testing.T) {
	inputs := []string{
		"",
		"palette = 3=#abc",
		"palette = 300=#000000",
		"palette = 2=nope",
		"\x00\x01\x02 garbage = = =",
		strings.Repeat("x", 10000),
		"background = #fff\npalette = 16=#123456\npalette = 255=#123456",
	}
	for _, in := range inputs {
		res := Parse(in)
		assert.Len(t, res.Config.Palette, 16)
		for i, c := range res.Config.Palette {
			assert.Regexp(t, hexPattern, c, "input %q slot %d", in, i)
		}
	}
}

func TestParse_Deterministic(t *testing.T) {
	raw := "background = #111\nfoo = bar\nbackground = #222\nfont-size = 999\n"
	assert.Equal(t, Parse(raw), Parse(raw))
}

func TestParse_DuplicateKey(t *testing.T) {
	res := Parse("background = #111111\nbackground = #222222\n")
	assert.Equal(t, "#222222", res.Config.Background)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, 2, res.Warnings[0].Line)
	assert.Contains(t, res.Warnings[0].Message, "first seen on line 1")
}

func TestParse_MultiValueKeysDoNotWarn(t *testing.T) {
	raw := "background = #000\npalette = 0=#111111\npalette = 0=#222222\nkeybind = ctrl+a=copy\nkeybind = ctrl+b=paste\n"
	res := Parse(raw)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "#222222", res.Config.Palette[0])
}

func TestParse_UnknownKeys(t *testing.T) {
	res := Parse("split-border-color = #ff0000\n")
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0].Message, "split-divider-color")
	assert.Equal(t, "", res.Config.SplitDividerColor)

	res = Parse("background = #000\nmystery-key = 1\n")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, `Unknown key "mystery-key" — Ghostty will ignore this`, res.Warnings[0].Message)
}

func TestParse_RangeValidation(t *testing.T) {
	res := Parse("font-size = 999\n")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].Line)
	assert.Equal(t, "Invalid font-size: 999 — expected number in range 6–72", res.Errors[0].Message)
	assert.Nil(t, res.Config.FontSize)
}

func TestParse_ValueErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"bad color", "background = red", `Invalid color for "background": red — expected #RRGGBB or #RGB`},
		{"bad selection", "selection-background = blue", `Invalid color for "selection-background": blue — expected #RRGGBB, #RGB, cell-foreground, or cell-background`},
		{"unstored color", "window-padding-color = #12", `Invalid color for "window-padding-color": #12 — expected #RRGGBB or #RGB`},
		{"opacity", "background-opacity = 1.5", "Invalid background-opacity: 1.5 — expected number in range 0–1"},
		{"split opacity", "unfocused-split-opacity = 0.1", "Invalid unfocused-split-opacity: 0.1 — expected number in range 0.15–1"},
		{"generic range", "minimum-contrast = 30", `Invalid value for "minimum-contrast": 30 — expected number in range 1–21`},
		{"nan", "cursor-opacity = NaN", `Invalid value for "cursor-opacity": NaN — expected number in range 0–1`},
		{"scrollback", "scrollback-limit = -5", "Invalid scrollback-limit: -5 — expected a non-negative integer"},
		{"scrollback float", "scrollback-limit = 1.5", "Invalid scrollback-limit: 1.5 — expected a non-negative integer"},
		{"scrollback max", "scrollback-limit = 99999999999", "Invalid scrollback-limit: 99999999999 — expected integer in range 0–10000000"},
		{"hex float", "background-opacity = 0x1p-1", "Invalid background-opacity: 0x1p-1 — expected number in range 0–1"},
		{"unit suffix", "font-size = 12px", "Invalid font-size: 12px — expected number in range 6–72"},
		{"infinity", "minimum-contrast = Inf", `Invalid value for "minimum-contrast": Inf — expected number in range 1–21`},
		{"digit separator", "minimum-contrast = 1_0", `Invalid value for "minimum-contrast": 1_0 — expected number in range 1–21`},
		{"cursor style", "cursor-style = beam", `Invalid cursor-style: "beam" — expected one of: block, bar, underline, block_hollow`},
		{"enum", "window-theme = purple", `Invalid value for "window-theme": "purple" — expected one of: auto, system, dark, light, ghostty`},
		{"enum beats boolean", "window-decoration = maybe", `Invalid value for "window-decoration": "maybe" — expected one of: none, auto, client, server, true, false`},
		{"boolean", "window-vsync = yes", `Invalid value for "window-vsync": "yes" — expected true or false`},
		{"palette format", "palette = #000000", `Invalid palette format: "#000000" — expected "N=#RRGGBB" (e.g., "0=#000000")`},
		{"palette index", "palette = 256=#000000", "Palette index 256 out of range — expected 0–255"},
		{"palette color", "palette = 4=#zzzzzz", "Invalid color in palette 4: #zzzzzz — expected #RRGGBB or #RGB"},
		{"empty value", "background =", `Empty value for "background" — a value is required`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.line)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, tt.want, res.Errors[0].Message)
			assert.Equal(t, 1, res.Errors[0].Line)
		})
	}
}

func TestParse_AcceptedOpaqueAndEnumValues(t *testing.T) {
	raw := strings.Join([]string{
		"background = #000",
		"scrollback-limit = 10000000",
		"font-size = +13.",
		"cursor-opacity = .5",
		"minimum-contrast = 1e1",
		"window-decoration = false",
		"macos-option-as-alt = left",
		"copy-on-select = clipboard",
		"keybind =",
		"command =",
		"shell-integration-features = no-cursor,sudo",
		"palette = 200=#abcdef",
	}, "\n")
	res := Parse(raw)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestParse_InvalidKeyCharactersStillProcessed(t *testing.T) {
	res := Parse("Background = #000000\n")
	require.Len(t, res.Warnings, 3)
	assert.Contains(t, res.Warnings[0].Message, "has invalid characters")
	assert.Contains(t, res.Warnings[1].Message, `Unknown key "Background"`)
	assert.Equal(t, 0, res.Warnings[2].Line)
}

func TestParse_SyntaxWarning(t *testing.T) {
	res := Parse("background = #000\njust some words\n")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, 2, res.Warnings[0].Line)
	assert.Equal(t, `Invalid syntax — expected "key = value" format`, res.Warnings[0].Message)
}

func TestParse_InlineComment(t *testing.T) {
	res := Parse("background = #0a0a0a  # dark bg\nforeground = '#eeeeee'\n")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].Message, "Inline comment detected")
	assert.Empty(t, res.Errors)
	assert.Equal(t, "#0a0a0a", res.Config.Background)
	assert.Equal(t, "#eeeeee", res.Config.Foreground)
}

func TestParse_ByteOrderMark(t *testing.T) {
	res := Parse("\ufeffbackground = #000000\nforeground = #ffffff\n")
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "#000000", res.Config.Background)
	assert.Equal(t, "#ffffff", res.Config.Foreground)

	// Only a leading mark is dropped.
	res = Parse("background = #000000\n\ufeffforeground = #ffffff\n")
	assert.NotEmpty(t, res.Warnings)
}

func TestParse_NoColorsWarning(t *testing.T) {
	res := Parse("font-size = 12\n")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, 0, res.Warnings[0].Line)
	assert.Contains(t, res.Warnings[0].Message, "No colors defined")

	res = Parse("theme = nord\n")
	assert.Empty(t, res.Warnings)

	// A line with "=" counts even when it is rejected.
	res = Parse("bogus\nbg-color =\n")
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, 0, res.Warnings[1].Line)
}

func TestParse_Darkness(t *testing.T) {
	assert.True(t, Parse("background = #000000\nforeground = #ffffff\n").Config.IsDark)
	assert.False(t, Parse("background = #ffffff\nforeground = #000000\n").Config.IsDark)
}

func TestParse_DiagnosticsInLineOrder(t *testing.T) {
	raw := "foo = 1\nbackground = #000\nbar = 2\nbackground = #111\n"
	res := Parse(raw)
	lines := make([]int, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		lines = append(lines, w.Line)
	}
	assert.Equal(t, []int{1, 3, 4}, lines)
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "abc", unquote(`"abc"`))
	assert.Equal(t, "abc", unquote(`'abc'`))
	assert.Equal(t, `"abc'`, unquote(`"abc'`))
	assert.Equal(t, "", unquote(`"`))
	assert.Equal(t, `"x"`, unquote(`""x""`))
}

func TestLookup(t *testing.T) {
	sk, ok := Lookup("font-size")
	require.True(t, ok)
	assert.Equal(t, KindNumber, sk.Kind)
	assert.Equal(t, "6–72", sk.Range.Label)

	sk, ok = Lookup("scrollback-limit")
	require.True(t, ok)
	assert.Equal(t, KindInteger, sk.Kind)

	sk, _ = Lookup("cursor-style-blink")
	assert.Equal(t, KindEnum, sk.Kind)

	sk, _ = Lookup("window-vsync")
	assert.Equal(t, KindBool, sk.Kind)

	sk, _ = Lookup("palette")
	assert.Equal(t, KindPalette, sk.Kind)
	assert.True(t, sk.Repeatable)

	_, ok = Lookup("not-a-key")
	assert.False(t, ok)

	assert.Contains(t, KnownKeys(), "command-palette-entry")
}
