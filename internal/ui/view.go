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
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"github.com/adaryorg/ghostyle/internal/ghostty"
)

func (m Model) View() string {
	switch m.currentMode {
	case modeHelp:
		return m.renderHelp()
	case modeCard:
		return m.renderCard()
	case modeDetail:
		if m.detail != nil {
			return m.renderDetail()
		}
	case modeConfirmDelete:
		if m.previousMode == modeDetail && m.detail != nil {
			return m.renderDetail()
		}
	}
	return m.renderMainWindow()
}

func (m Model) renderMainWindow() string {
	dialogWidth, dialogHeight, contentWidth, contentHeight := m.calculateDialogDimensions()

	headerText := fmt.Sprintf("Ghostyle Gallery - %d of %d configs", len(m.filteredItems), len(m.items))
	switch m.darkFilter {
	case filterDark:
		headerText += " [DARK ONLY]"
	case filterLight:
		headerText += " [LIGHT ONLY]"
	}
	switch {
	case m.currentMode == modeSearch:
		headerText += "  " + m.search.View()
	case m.search.Value() != "":
		headerText += "  Filter: " + m.search.Value() + " (esc to clear)"
	}

	body := m.buildList(contentWidth, contentHeight)
	frame := m.buildFrameContent(headerText, body, m.footerText(), contentWidth, contentHeight)
	return m.createFramedDialog(dialogWidth, dialogHeight, frame)
}

func (m Model) footerText() string {
	if m.currentMode == modeConfirmDelete && m.deleteCandidate != nil {
		return fmt.Sprintf("Delete %q? Press 'd' or 'y' to confirm, any other key to cancel", m.deleteCandidate.Title)
	}
	if m.status != "" {
		return m.status
	}
	switch m.currentMode {
	case modeSearch:
		return "type to filter titles | enter: apply | esc: clear"
	case modeDetail:
		return "esc: back | c: copy | i: copy card | p: card | v: vote | e: remix | d: delete | ?: help"
	case modeCard:
		return "esc/p: back to details | i: copy card | ?: help"
	default:
		return "enter: details | /: filter | t: dark/light | c: copy | v: vote | d: delete | ?: help"
	}
}

// detailLines builds the scrollable detail body: metadata, the painted
// terminal mock, parser diagnostics and the highlighted config text.
func (m Model) detailLines(contentWidth int) []string {
	rec := m.detail.Record
	result := m.detail.Result

	var lines []string

	info := fmt.Sprintf("▲ %d votes · %d views · %d downloads", rec.VoteCount, rec.ViewCount, rec.DownloadCount)
	if rec.RiskLevel != "" && rec.RiskLevel != "none" {
		info += " · " + m.theme.RiskStyle(rec.RiskLevel).Render("risk: "+rec.RiskLevel)
	}
	lines = append(lines, info)
	if len(rec.Tags) > 0 {
		lines = append(lines, m.styles.Tag.Render("#"+strings.Join(rec.Tags, " #")))
	}
	if rec.SourceURL != "" {
		lines = append(lines, m.styles.Status.Render("Source: "+rec.SourceURL))
	}
	if rec.Description != "" {
		lines = append(lines, "")
		lines = append(lines, strings.Split(wordwrap.String(rec.Description, contentWidth), "\n")...)
	}

	lines = append(lines, "")
	lines = append(lines, strings.Split(newTerminalMock(rec.Title, result.Config, contentWidth).Render(), "\n")...)

	lines = append(lines, "")
	lines = append(lines, m.diagnosticLines(result)...)

	lines = append(lines, "", m.styles.Header.Render("Config"))
	highlighted, err := m.highlighter.Highlight(rec.RawConfig)
	if err != nil {
		lines = append(lines, m.styles.Warning.Render("highlighting failed: "+err.Error()))
	}
	gutter := len(fmt.Sprint(len(highlighted)))
	for i, line := range highlighted {
		lines = append(lines, m.styles.Status.Render(fmt.Sprintf("%*d ", gutter, i+1))+line)
	}
	return lines
}

func (m Model) diagnosticLines(result ghostty.Result) []string {
	if len(result.Errors) == 0 && len(result.Warnings) == 0 {
		return []string{m.styles.Status.Render("No problems found")}
	}
	var lines []string
	lines = append(lines, m.styles.Header.Render(
		fmt.Sprintf("Diagnostics: %d errors, %d warnings", len(result.Errors), len(result.Warnings))))
	for _, d := range result.Errors {
		lines = append(lines, m.styles.Warning.Render("✗ "+d.String()))
	}
	for _, d := range result.Warnings {
		lines = append(lines, "! "+d.String())
	}
	return lines
}

func (m Model) renderDetail() string {
	dialogWidth, dialogHeight, contentWidth, contentHeight := m.calculateDialogDimensions()

	rec := m.detail.Record
	headerText := rec.Title
	if rec.AuthorName != "" {
		headerText += " by " + rec.AuthorName
	}
	if rec.IsFeatured {
		headerText = "★ " + headerText
	}

	lines := m.detailLines(contentWidth)
	maxScroll := max(0, len(lines)-contentHeight)
	start := min(m.detailScroll, maxScroll)
	end := min(start+contentHeight, len(lines))
	if maxScroll > 0 {
		headerText += fmt.Sprintf("  (%d-%d/%d)", start+1, end, len(lines))
	}

	frame := m.buildFrameContent(headerText, lines[start:end], m.footerText(), contentWidth, contentHeight)
	return m.createFramedDialog(dialogWidth, dialogHeight, frame)
}

// renderCard draws the preview card with the kitty graphics protocol. The
// image is written outside the frame since escape payloads have no width.
func (m Model) renderCard() string {
	_, _, contentWidth, contentHeight := m.calculateDialogDimensions()

	var b strings.Builder
	title := "Preview card"
	if m.detail != nil {
		title += ": " + m.detail.Record.Title
	}
	b.WriteString(m.styles.Header.Render(fitLine(title, contentWidth)))
	b.WriteString("\n\n")

	switch {
	case !m.caps.Kitty:
		b.WriteString("This terminal does not support the kitty graphics protocol.\n")
		b.WriteString("Press 'i' to copy the card image instead.\n")
	case len(m.cardPNG) == 0:
		b.WriteString("Rendering card...\n")
	default:
		// 1200x630 cards are roughly 2:1 in cells.
		cols := min(contentWidth, contentHeight*4)
		rows := max(1, cols/4)
		img, err := cardImage(m.cardPNG, cols, rows)
		if err != nil {
			b.WriteString(m.styles.Warning.Render("Failed to display card: " + err.Error()))
			b.WriteString("\n")
		} else {
			b.WriteString(img)
			b.WriteString(strings.Repeat("\n", rows))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Status.Render(fitLine(m.footerText(), contentWidth)))
	return b.String()
}

func (m Model) generateHelpContent() []string {
	var lines []string
	for i, section := range m.keys.helpSections() {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, m.styles.Header.Render(section.title))
		for _, b := range section.bindings {
			h := b.Help()
			lines = append(lines, "  "+runewidth.FillRight(h.Key, 12)+h.Desc)
		}
	}

	lines = append(lines, "", m.styles.Header.Render("Markers"))
	lines = append(lines,
		"  "+runewidth.FillRight(riskIndicator("high"), 12)+"high risk: runs remote scripts or carries secrets",
		"  "+runewidth.FillRight(riskIndicator("medium"), 12)+"medium risk: custom commands or includes",
		"  "+runewidth.FillRight("★", 12)+"featured theme",
	)
	return lines
}

func (m Model) renderHelp() string {
	if m.width > 0 && (m.width < 10 || m.height < 8) {
		return "Terminal too small for help dialog"
	}

	dialogWidth, dialogHeight, contentWidth, contentHeight := m.calculateDialogDimensions()
	helpLines := m.generateHelpContent()

	maxScrollOffset := max(0, len(helpLines)-contentHeight)
	start := min(m.helpScrollOffset, maxScrollOffset)
	end := min(start+contentHeight, len(helpLines))

	footerText := "?: close"
	if maxScrollOffset > 0 {
		footerText += fmt.Sprintf(" - %d-%d/%d", start+1, end, len(helpLines))
	}

	frame := m.buildFrameContent("Ghostyle Help", helpLines[start:end], footerText, contentWidth, contentHeight)
	return m.createFramedDialog(dialogWidth, dialogHeight, frame)
}
