package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/adaryorg/ghostyle/internal/ghostty"
)

const (
	mockMinWidth = 40
	mockMaxWidth = 76
)

var mockLogo = []string{
	`   __ _  `,
	`  / _' | `,
	` | (_| | `,
	`  \__, | `,
	`  |___/  `,
}

// span is a piece of mock terminal text. Empty colors inherit the theme's
// foreground and background.
type span struct {
	text string
	fg   string
	bg   string
	bold bool
}

// terminalMock paints a fake shell session using the theme's own colors: a
// prompt, a neofetch-style summary, the 16 palette swatches, an ls listing
// and a short git log, with the cursor and a selection drawn in.
type terminalMock struct {
	cfg   ghostty.ParsedConfig
	title string
	width int
}

func newTerminalMock(title string, cfg ghostty.ParsedConfig, width int) terminalMock {
	width = max(mockMinWidth, min(width, mockMaxWidth))
	return terminalMock{cfg: cfg, title: title, width: width}
}

func (t terminalMock) pal(i int) string {
	if c := t.cfg.Palette[i]; c != "" {
		return c
	}
	return t.cfg.Foreground
}

func (t terminalMock) base() lipgloss.Style {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(t.cfg.Background)).
		Foreground(lipgloss.Color(t.cfg.Foreground))
}

// line renders spans on the theme background, truncated and padded to the
// mock width.
func (t terminalMock) line(spans ...span) string {
	var b strings.Builder
	used := 0
	for _, s := range spans {
		text := s.text
		if room := t.width - used; runewidth.StringWidth(text) > room {
			text = runewidth.Truncate(text, room, "")
		}
		if text == "" {
			continue
		}
		style := t.base()
		if s.fg != "" {
			style = style.Foreground(lipgloss.Color(s.fg))
		}
		if s.bg != "" {
			style = style.Background(lipgloss.Color(s.bg))
		}
		if s.bold {
			style = style.Bold(true)
		}
		b.WriteString(style.Render(text))
		used += runewidth.StringWidth(text)
	}
	if used < t.width {
		b.WriteString(t.base().Render(strings.Repeat(" ", t.width-used)))
	}
	return b.String()
}

func (t terminalMock) promptSpans(command string) []span {
	return []span{
		{text: " user@ghost", fg: t.pal(2), bold: true},
		{text: " "},
		{text: "~", fg: t.pal(4), bold: true},
		{text: " $ "},
		{text: command},
	}
}

func (t terminalMock) prompt(command string) string {
	return t.line(t.promptSpans(command)...)
}

func (t terminalMock) fontLabel() string {
	font := t.cfg.FontFamily
	if font == "" {
		font = "default"
	}
	if t.cfg.FontSize != nil {
		font += " " + ghostty.FormatNumber(*t.cfg.FontSize) + "pt"
	}
	return font
}

func (t terminalMock) infoLines() [][]span {
	cursor := t.cfg.CursorStyle
	if cursor == "" {
		cursor = "block"
	}
	shade := "light"
	if t.cfg.IsDark {
		shade = "dark"
	}
	return [][]span{
		{{text: "user", fg: t.pal(6), bold: true}, {text: "@"}, {text: "ghost", fg: t.pal(6), bold: true}},
		{{text: "---------"}},
		{{text: "Theme: ", fg: t.pal(6), bold: true}, {text: t.title}},
		{{text: "Font: ", fg: t.pal(6), bold: true}, {text: t.fontLabel()}},
		{{text: "Cursor: ", fg: t.pal(6), bold: true}, {text: cursor + ", " + shade}},
	}
}

func (t terminalMock) swatches(from int) string {
	spans := []span{{text: " " + strings.Repeat(" ", runewidth.StringWidth(mockLogo[0]))}}
	for i := from; i < from+8; i++ {
		spans = append(spans, span{text: "   ", bg: t.pal(i)})
	}
	return t.line(spans...)
}

func (t terminalMock) selectionLine() string {
	selBg, selFg := t.cfg.SelectionBg, t.cfg.SelectionFg
	if selBg == "" {
		selBg = t.cfg.Foreground
	}
	if selFg == "" {
		selFg = t.cfg.Background
	}
	return t.line(span{text: " "}, span{text: "selected text looks like this", fg: selFg, bg: selBg})
}

func (t terminalMock) cursorLine() string {
	cursorBg := t.cfg.CursorColor
	if cursorBg == "" {
		cursorBg = t.cfg.Foreground
	}
	cursorFg := t.cfg.CursorText
	if cursorFg == "" {
		cursorFg = t.cfg.Background
	}
	spans := t.promptSpans("")
	return t.line(append(spans, span{text: " ", fg: cursorFg, bg: cursorBg})...)
}

// Render returns the mock as newline separated lines.
func (t terminalMock) Render() string {
	var lines []string

	lines = append(lines, t.line(
		span{text: " ● ", fg: t.pal(1)},
		span{text: "● ", fg: t.pal(3)},
		span{text: "● ", fg: t.pal(2)},
		span{text: " " + t.title, bold: true},
	))
	lines = append(lines, t.prompt("neofetch"))

	info := t.infoLines()
	for i, art := range mockLogo {
		spans := []span{{text: " "}, {text: art, fg: t.pal(5), bold: true}}
		if i < len(info) {
			spans = append(spans, info[i]...)
		}
		lines = append(lines, t.line(spans...))
	}
	lines = append(lines, t.swatches(0), t.swatches(8))
	lines = append(lines, t.line())

	lines = append(lines, t.prompt("ls"))
	lines = append(lines, t.line(
		span{text: " "},
		span{text: "src/", fg: t.pal(4), bold: true},
		span{text: "  "},
		span{text: "build.sh", fg: t.pal(2), bold: true},
		span{text: "  README.md  "},
		span{text: "link", fg: t.pal(6)},
		span{text: " -> "},
		span{text: "broken", fg: t.pal(1)},
	))

	lines = append(lines, t.prompt("git log --oneline -3"))
	for i, msg := range []string{"tune palette contrast", "add bright colors", "initial theme"} {
		spans := []span{{text: " "}, {text: fmt.Sprintf("%07x", 0xa1b2c3d-i*0x1111), fg: t.pal(3)}}
		if i == 0 {
			spans = append(spans, span{text: " ("}, span{text: "HEAD -> main", fg: t.pal(6), bold: true}, span{text: ")"})
		}
		spans = append(spans, span{text: " " + msg})
		lines = append(lines, t.line(spans...))
	}

	lines = append(lines, t.selectionLine())
	lines = append(lines, t.cursorLine())
	return strings.Join(lines, "\n")
}
