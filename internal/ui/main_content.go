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

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/adaryorg/ghostyle/internal/storage"
)

const minTitleWidth = 12

// buildList renders the visible window of the filtered list.
func (m Model) buildList(contentWidth, contentHeight int) []string {
	if len(m.filteredItems) == 0 {
		switch {
		case len(m.items) == 0:
			return []string{"No configs yet. Import one with 'ghostyle import' or run 'ghostyle seed'."}
		default:
			return []string{"No configs match the current filter."}
		}
	}

	start := m.calculatePageStart(contentHeight)
	end := min(start+contentHeight, len(m.filteredItems))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		item := m.filteredItems[i]
		lines = append(lines, m.renderRow(item, i, contentWidth))
	}
	return lines
}

// calculatePageStart keeps the cursor inside the window.
func (m Model) calculatePageStart(contentHeight int) int {
	start := m.visibleStart
	if m.cursor < start {
		start = m.cursor
	}
	if m.cursor >= start+contentHeight {
		start = m.cursor - contentHeight + 1
	}
	return max(0, start)
}

func (m Model) renderRow(item storage.ConfigMeta, index, width int) string {
	indicator := riskIndicator(item.RiskLevel)
	row := formatRow(item, width)

	switch {
	case index == m.cursor:
		return m.styles.Selected.Render(row)
	case indicator != "":
		// Color only the marker; the rest keeps the row background.
		rest := strings.TrimPrefix(row, indicator)
		return m.theme.RiskStyle(item.RiskLevel).Render(indicator) + m.rowStyle(index).Render(rest)
	default:
		return m.rowStyle(index).Render(row)
	}
}

func (m Model) rowStyle(index int) lipgloss.Style {
	if index%2 == 1 {
		return m.styles.Alternate
	}
	return m.styles.Normal
}

// formatRow lays out one list entry as plain text exactly width cells wide:
// risk marker, featured star, title, then shade, votes and tags on the right.
func formatRow(item storage.ConfigMeta, width int) string {
	marker := runewidth.FillRight(riskIndicator(item.RiskLevel), 3)
	star := " "
	if item.IsFeatured {
		star = "★"
	}
	prefix := marker + " " + star + " "

	shade := "light"
	if item.IsDark {
		shade = "dark"
	}
	meta := fmt.Sprintf("%-5s ▲%-4d", shade, item.VoteCount)
	if len(item.Tags) > 0 {
		meta += " " + strings.Join(item.Tags, ",")
	}

	titleWidth := width - runewidth.StringWidth(prefix) - runewidth.StringWidth(meta) - 2
	if titleWidth < minTitleWidth {
		titleWidth = width - runewidth.StringWidth(prefix)
		meta = ""
	} else if tw := runewidth.StringWidth(item.Title); tw < titleWidth {
		// Give spare title room to long tag lists.
		titleWidth = max(tw, minTitleWidth)
	}

	title := runewidth.Truncate(item.Title, titleWidth, "…")
	row := prefix + runewidth.FillRight(title, titleWidth)
	if meta != "" {
		row += "  " + meta
	}
	row = runewidth.Truncate(row, width, "…")
	return runewidth.FillRight(row, width)
}
