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
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/adaryorg/ghostyle/internal/colors"
	"github.com/adaryorg/ghostyle/internal/config"
)

// ThemeService turns the [theme] section of the config into lipgloss styles
type ThemeService struct {
	config *config.ThemeConfig
}

func NewThemeService(themeConfig *config.ThemeConfig) *ThemeService {
	return &ThemeService{
		config: themeConfig,
	}
}

// Styles are the browser chrome styles.
type Styles struct {
	Header          lipgloss.Style
	Status          lipgloss.Style
	Search          lipgloss.Style
	Warning         lipgloss.Style
	Selected        lipgloss.Style
	Normal          lipgloss.Style
	Alternate       lipgloss.Style
	Tag             lipgloss.Style
	FrameBorder     lipgloss.Color
	FrameBackground lipgloss.Color
}

// GetStyles returns the chrome styles for the configured theme
func (ts *ThemeService) GetStyles() Styles {
	return Styles{
		Header:          colorConfigToStyle(ts.config.Header),
		Status:          colorConfigToStyle(ts.config.Status),
		Search:          colorConfigToStyle(ts.config.Search),
		Warning:         colorConfigToStyle(ts.config.Warning),
		Selected:        colorConfigToStyle(ts.config.Selected),
		Normal:          colorConfigToStyle(ts.config.NormalBackground),
		Alternate:       colorConfigToStyle(ts.config.AlternateBackground),
		Tag:             colorConfigToForegroundOnly(ts.config.Tag),
		FrameBorder:     parseColor(ts.config.Frame.Border.Foreground),
		FrameBackground: parseColor(ts.config.Frame.Background.Background),
	}
}

// RiskStyle colors a risk indicator: warning color for high, yellow for medium.
func (ts *ThemeService) RiskStyle(level string) lipgloss.Style {
	switch level {
	case "high":
		return colorConfigToForegroundOnly(ts.config.Warning)
	case "medium":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	default:
		return lipgloss.NewStyle()
	}
}

// namedColors are the color names accepted in the [theme] section.
var namedColors = map[string]string{
	"black":   "#000000",
	"red":     "#ff0000",
	"green":   "#008000",
	"yellow":  "#ffff00",
	"blue":    "#0000ff",
	"magenta": "#ff00ff",
	"cyan":    "#00ffff",
	"white":   "#ffffff",
	"gray":    "#808080",
	"grey":    "#808080",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"pink":    "#ffc0cb",
}

// parseColor accepts hex (#rgb or #rrggbb), a few color names and ANSI
// codes. Anything else is handed to lipgloss unchanged.
func parseColor(s string) lipgloss.Color {
	if hex, ok := colors.NormalizeHex(s); ok && strings.HasPrefix(s, "#") {
		return lipgloss.Color(hex)
	}
	if hex, ok := namedColors[strings.ToLower(s)]; ok {
		return lipgloss.Color(hex)
	}
	return lipgloss.Color(s)
}

func colorConfigToStyle(cc config.ColorConfig) lipgloss.Style {
	style := colorConfigToForegroundOnly(cc)
	if cc.Background != "" {
		style = style.Background(parseColor(cc.Background))
	}
	return style
}

// colorConfigToForegroundOnly is used for inline spans that sit on a row
// background owned by the parent style.
func colorConfigToForegroundOnly(cc config.ColorConfig) lipgloss.Style {
	style := lipgloss.NewStyle()
	if cc.Foreground != "" {
		style = style.Foreground(parseColor(cc.Foreground))
	}
	if cc.Bold {
		style = style.Bold(true)
	}
	return style
}
