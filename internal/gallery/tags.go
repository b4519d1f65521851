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

package gallery

import (
	"regexp"
	"strings"

	"github.com/adaryorg/ghostyle/internal/colors"
	"github.com/adaryorg/ghostyle/internal/ghostty"
	"github.com/adaryorg/ghostyle/internal/storage"
)

// ConfigsPerPage is the default listing page size.
const ConfigsPerPage = 24

const maxTags = 5

// AvailableTags are the tags uploads and seeded themes may carry.
var AvailableTags = storage.AvailableTags

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug lowercases title and joins its alphanumeric runs with '-'.
func GenerateSlug(title string) string {
	slug := slugSeparators.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 80 {
		slug = strings.TrimRight(slug[:80], "-")
	}
	if slug == "" {
		return "config"
	}
	return slug
}

var keywordTags = []struct {
	tag      string
	keywords []string
}{
	{"minimal", []string{"minimal", "mono"}},
	{"retro", []string{"retro", "c64", "cga"}},
	{"neon", []string{"neon", "synth", "cyber", "laser", "matrix"}},
	{"pastel", []string{"pastel", "catppuccin", "fairy", "rose pine", "sakura", "lavandula"}},
	{"warm", []string{"warm", "gruvbox", "monokai", "coffee", "earth"}},
	{"cool", []string{"cool", "nord", "iceberg", "frost", "glacier"}},
}

// AutoTag derives up to five tags from a theme's title and colors.
func AutoTag(title string, cfg ghostty.ParsedConfig) []string {
	var tags []string
	if cfg.IsDark {
		tags = append(tags, "dark")
	} else {
		tags = append(tags, "light")
	}

	lower := strings.ToLower(title)
	for _, kt := range keywordTags {
		for _, kw := range kt.keywords {
			if strings.Contains(lower, kw) {
				tags = append(tags, kt.tag)
				break
			}
		}
	}

	sat := colors.AverageSaturation(cfg.Palette[:])
	if sat > 0.6 {
		tags = append(tags, "colorful")
	}
	if sat < 0.15 {
		tags = append(tags, "minimal")
	}

	if colors.ContrastRatio(cfg.Background, cfg.Foreground) > 10 {
		tags = append(tags, "high-contrast")
	}

	return limitTags(dedupe(tags))
}

// FilterTags keeps known tags, at most five, and puts dark or light first
// when missing.
func FilterTags(requested []string, isDark bool) []string {
	tags := []string{}
	for _, t := range requested {
		if storage.IsValidTag(t) {
			tags = append(tags, t)
		}
	}
	tags = limitTags(dedupe(tags))

	mode := "light"
	if isDark {
		mode = "dark"
	}
	for _, t := range tags {
		if t == mode {
			return tags
		}
	}
	return append([]string{mode}, tags...)
}

func dedupe(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := tags[:0]
	for _, t := range tags {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func limitTags(tags []string) []string {
	if len(tags) > maxTags {
		return tags[:maxTags]
	}
	return tags
}
