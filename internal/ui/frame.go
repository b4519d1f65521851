package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// calculateDialogDimensions sizes the main frame to the terminal: the dialog
// box, and the text area inside its border, padding, header and footer.
func (m Model) calculateDialogDimensions() (dialogWidth, dialogHeight, contentWidth, contentHeight int) {
	width, height := m.width, m.height
	if width == 0 || height == 0 {
		width, height = 100, 30
	}
	dialogWidth = max(24, width-2)
	dialogHeight = max(8, height-2)
	contentWidth = dialogWidth - 2  // horizontal padding
	contentHeight = dialogHeight - 4 // header, two separators, footer
	return dialogWidth, dialogHeight, contentWidth, contentHeight
}

func (m Model) listHeight() int {
	_, _, _, contentHeight := m.calculateDialogDimensions()
	return max(1, contentHeight)
}

func (m Model) createFramedDialog(width, height int, content string) string {
	dialogStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.FrameBorder).
		Background(m.styles.FrameBackground).
		Padding(0, 1).
		Width(width).
		Height(height)

	dialog := dialogStyle.Render(content)

	if m.width == 0 || m.height == 0 {
		return dialog
	}
	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		dialog,
	)
}

// buildFrameContent stacks header, body and footer. The body is padded or
// cut to exactly bodyHeight lines so the footer stays at the bottom.
func (m Model) buildFrameContent(headerText string, body []string, footerText string, contentWidth, bodyHeight int) string {
	var content strings.Builder

	content.WriteString(m.styles.Header.Render(fitLine(headerText, contentWidth)))
	content.WriteString("\n")
	content.WriteString(strings.Repeat("─", contentWidth))
	content.WriteString("\n")

	for i := 0; i < bodyHeight; i++ {
		if i < len(body) {
			content.WriteString(fitLine(body[i], contentWidth))
		}
		content.WriteString("\n")
	}

	content.WriteString(strings.Repeat("─", contentWidth))
	content.WriteString("\n")

	footerStyle := m.styles.Status
	if m.statusErr {
		footerStyle = m.styles.Warning
	}
	content.WriteString(footerStyle.Render(fitLine(footerText, contentWidth)))

	return content.String()
}

// fitLine cuts a possibly styled line to width cells.
func fitLine(line string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(line) <= width {
		return line
	}
	return truncate.StringWithTail(line, uint(width), "…")
}
