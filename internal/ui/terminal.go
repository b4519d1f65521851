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
	"os"
	"strconv"
	"strings"
)

// Capabilities is what the current terminal can display.
type Capabilities struct {
	BasicColors bool // no 256-color support
	Kitty       bool // kitty graphics protocol
	Unicode     bool
}

// DetectCapabilities inspects the environment of the running terminal
func DetectCapabilities() Capabilities {
	return detectCapabilities(os.Getenv)
}

func detectCapabilities(getenv func(string) string) Capabilities {
	return Capabilities{
		BasicColors: !detectAdvancedColors(getenv),
		Kitty:       detectKittySupport(getenv),
		Unicode:     detectUnicodeSupport(getenv),
	}
}

// detectAdvancedColors reports 256-color or truecolor support.
func detectAdvancedColors(getenv func(string) string) bool {
	// COLORTERM overrides everything
	colorTerm := getenv("COLORTERM")
	if colorTerm == "truecolor" || colorTerm == "24bit" {
		return true
	}

	for _, indicator := range []string{
		"ITERM_SESSION_ID",
		"KITTY_WINDOW_ID",
		"ALACRITTY_SOCKET",
		"WEZTERM_PANE",
		"GHOSTTY_RESOURCES_DIR",
	} {
		if getenv(indicator) != "" {
			return true
		}
	}

	if colors := getenv("COLORS"); colors != "" {
		if numColors, err := strconv.Atoi(colors); err == nil && numColors >= 256 {
			return true
		}
	}

	term := strings.ToLower(getenv("TERM"))
	if strings.Contains(term, "256") || strings.Contains(term, "color") {
		return true
	}

	basicTerminals := []string{
		"xterm", "screen", "tmux", "linux", "cons25",
		"vt100", "vt220", "ansi", "dumb",
	}
	for _, basicTerm := range basicTerminals {
		if strings.HasPrefix(term, basicTerm) {
			return false
		}
	}

	// Unknown terminals are assumed to be modern
	return true
}

func detectKittySupport(getenv func(string) string) bool {
	switch getenv("TERM_PROGRAM") {
	case "kitty", "ghostty", "WezTerm", "Konsole":
		return true
	}

	for _, v := range []string{
		"KITTY_WINDOW_ID",
		"GHOSTTY_RESOURCES_DIR",
		"WEZTERM_EXECUTABLE",
		"WEZTERM_PANE",
		"KONSOLE_VERSION",
	} {
		if getenv(v) != "" {
			return true
		}
	}

	term := getenv("TERM")
	return strings.Contains(term, "kitty") || strings.Contains(term, "ghostty") ||
		strings.Contains(term, "wezterm")
}

func detectUnicodeSupport(getenv func(string) string) bool {
	for _, v := range []string{getenv("LC_ALL"), getenv("LC_CTYPE"), getenv("LANG")} {
		upper := strings.ToUpper(v)
		if strings.Contains(upper, "UTF-8") || strings.Contains(upper, "UTF8") {
			return true
		}
	}

	term := getenv("TERM")
	if term == "" || strings.Contains(term, "dumb") || term == "linux" {
		return false
	}
	return true
}

// riskIndicator is the plain-text marker shown next to risky configs.
func riskIndicator(level string) string {
	switch level {
	case "high":
		return "[!]"
	case "medium":
		return "[?]"
	default:
		return ""
	}
}
