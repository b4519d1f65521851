package ghostty

import "fmt"

// ValueKind classifies how a known key's value is validated.
type ValueKind int

const (
	KindOpaque ValueKind = iota
	KindColor
	KindNumber
	KindInteger
	KindEnum
	KindBool
	KindPalette
)

func (k ValueKind) String() string {
	switch k {
	case KindColor:
		return "color"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindEnum:
		return "enum"
	case KindBool:
		return "boolean"
	case KindPalette:
		return "palette"
	default:
		return "opaque"
	}
}

// NumericRange is an inclusive bound for numeric keys. Label is how the range
// is shown in diagnostics.
type NumericRange struct {
	Min, Max float64
	Label    string
}

// SchemaKey describes one known configuration key.
type SchemaKey struct {
	Name       string
	Kind       ValueKind
	Range      NumericRange
	Enum       []string
	Repeatable bool
}

// Sourced from https://ghostty.org/docs/config/reference.
var knownKeys = map[string]struct{}{}

func init() {
	for _, k := range knownKeyList {
		knownKeys[k] = struct{}{}
	}
}

var knownKeyList = []string{
	// Font
	"font-family", "font-family-bold", "font-family-italic", "font-family-bold-italic",
	"font-size", "font-style", "font-style-bold", "font-style-italic", "font-style-bold-italic",
	"font-synthetic-style", "font-feature", "font-variation", "font-variation-bold",
	"font-variation-italic", "font-variation-bold-italic", "font-codepoint-map",
	"font-thicken", "font-thicken-strength", "font-shaping-break", "freetype-load-flags",
	// Cursor
	"cursor-color", "cursor-text", "cursor-style", "cursor-style-blink", "cursor-opacity",
	"cursor-click-to-move",
	// Colors
	"background", "foreground", "background-opacity", "background-opacity-cells",
	"background-blur", "background-image", "background-image-opacity",
	"background-image-position", "background-image-fit", "background-image-repeat",
	"selection-background", "selection-foreground", "selection-clear-on-typing",
	"selection-clear-on-copy", "palette", "minimum-contrast", "alpha-blending",
	"theme",
	// Split panes
	"split-divider-color", "unfocused-split-opacity", "unfocused-split-fill", "focus-follows-mouse",
	// Window
	"window-padding-x", "window-padding-y", "window-padding-balance", "window-padding-color",
	"window-decoration", "window-theme", "window-colorspace", "window-title-font-family",
	"window-titlebar-background", "window-titlebar-foreground", "window-height", "window-width",
	"window-position-x", "window-position-y", "window-step-resize", "window-inherit-font-size",
	"window-inherit-working-directory", "window-vsync", "window-save-state",
	"window-show-tab-bar", "window-new-tab-position", "window-subtitle",
	// macOS
	"macos-titlebar-style", "macos-option-as-alt", "macos-window-shadow", "macos-icon",
	"macos-icon-frame", "macos-icon-ghost-color", "macos-icon-screen-color",
	// Resize overlay
	"resize-overlay", "resize-overlay-position", "resize-overlay-duration",
	// Cell adjustments
	"adjust-cell-width", "adjust-cell-height", "adjust-font-baseline",
	"adjust-underline-position", "adjust-underline-thickness", "adjust-strikethrough-position",
	"adjust-strikethrough-thickness", "adjust-overline-position", "adjust-overline-thickness",
	"adjust-box-thickness", "adjust-cursor-thickness", "adjust-cursor-height",
	"adjust-icon-height",
	// Links
	"link", "link-url", "link-previews",
	"grapheme-width-method",
	"image-storage-limit",
	// Input
	"mouse-hide-while-typing", "mouse-scroll-multiplier", "mouse-shift-capture", "copy-on-select",
	"click-repeat-interval", "right-click-action", "scroll-to-bottom", "clipboard-read",
	"clipboard-write", "clipboard-trim-trailing-spaces", "clipboard-paste-protection",
	"clipboard-paste-bracketed-safe",
	// Shell
	"title", "title-report", "command", "initial-command", "working-directory",
	"shell-integration", "shell-integration-features", "scrollback-limit", "auto-update",
	"auto-update-channel",
	"keybind",
	// Quick terminal
	"quick-terminal-position", "quick-terminal-size", "quick-terminal-screen",
	"quick-terminal-animation-duration", "quick-terminal-autohide",
	"quick-terminal-space-behavior", "quick-terminal-keyboard-interactivity",
	// GTK
	"gtk-single-instance", "gtk-tabs-location", "gtk-wide-tabs", "gtk-adwaita",
	"gtk-quick-terminal-layer", "gtk-quick-terminal-namespace",
	// Misc
	"config-file", "config-default-files", "confirm-close-surface",
	"quit-after-last-window-closed", "quit-after-last-window-closed-delay", "initial-window",
	"undo-timeout", "abnormal-command-exit-runtime", "wait-after-command", "enquiry-response",
	"osc-color-report-format", "vt-kam-allowed", "term", "env", "input", "linux-cgroup",
	"linux-cgroup-memory-limit", "linux-cgroup-processes-limit", "desktop-notifications",
	"maximize", "fullscreen", "class", "x11-instance-name", "command-palette-entry",
}

// keySuggestions maps common wrong key names to what the user most likely meant.
var keySuggestions = map[string]string{
	"split-border-color":            "split-divider-color",
	"split-border-width":            "split-divider-color (Ghostty has no border width setting)",
	"split-color":                   "split-divider-color",
	"divider-color":                 "split-divider-color",
	"inactive-pane-dim":             "unfocused-split-opacity",
	"inactive-pane-opacity":         "unfocused-split-opacity",
	"inactive-pane-saturation":      "unfocused-split-opacity (Ghostty has no saturation control)",
	"inactive-pane-brightness":      "unfocused-split-opacity (Ghostty has no brightness control)",
	"inactive-pane-overlay":         "unfocused-split-fill",
	"inactive-pane-overlay-opacity": "unfocused-split-opacity",
	"inactive-pane-color":           "unfocused-split-fill",
	"split-opacity":                 "unfocused-split-opacity",
	"bg-opacity":                    "background-opacity",
	"opacity":                       "background-opacity",
	"bg-color":                      "background",
	"fg-color":                      "foreground",
	"font":                          "font-family",
	"cursor":                        "cursor-color",
	"selection-bg":                  "selection-background",
	"selection-fg":                  "selection-foreground",
	"bold-is-bright":                "font-synthetic-style (Ghostty has no bold-is-bright option)",
	"bold-bright":                   "font-synthetic-style (Ghostty has no bold-bright option)",
}

var colorKeys = map[string]struct{}{
	"background": {}, "foreground": {}, "cursor-color": {}, "cursor-text": {},
	"selection-background": {}, "selection-foreground": {},
	"unfocused-split-fill": {}, "split-divider-color": {},
	"window-padding-color": {}, "window-titlebar-background": {}, "window-titlebar-foreground": {},
}

var numericRanges = map[string]NumericRange{
	"font-size":                {6, 72, "6–72"},
	"background-opacity":       {0, 1, "0–1"},
	"background-image-opacity": {0, 1, "0–1"},
	"unfocused-split-opacity":  {0.15, 1, "0.15–1"},
	"cursor-opacity":           {0, 1, "0–1"},
	"minimum-contrast":         {1, 21, "1–21"},
	"scrollback-limit":         {0, 10000000, "0–10000000"},
}

// integerKeys are numeric keys that only accept whole numbers.
var integerKeys = map[string]struct{}{
	"scrollback-limit": {},
}

var enumValues = map[string][]string{
	"cursor-style":                  {"block", "bar", "underline", "block_hollow"},
	"cursor-style-blink":            {"true", "false"},
	"window-decoration":             {"none", "auto", "client", "server", "true", "false"},
	"window-theme":                  {"auto", "system", "dark", "light", "ghostty"},
	"window-colorspace":             {"srgb", "display-p3"},
	"window-save-state":             {"default", "never", "always"},
	"window-new-tab-position":       {"current", "end"},
	"window-show-tab-bar":           {"true", "false"},
	"macos-titlebar-style":          {"native", "transparent", "tabs"},
	"macos-option-as-alt":           {"true", "false", "left", "right"},
	"shell-integration":             {"none", "detect", "bash", "zsh", "fish", "elvish"},
	"alpha-blending":                {"native", "css"},
	"resize-overlay":                {"always", "never", "after-first"},
	"right-click-action":            {"none", "paste", "primary-paste"},
	"copy-on-select":                {"true", "false", "clipboard"},
	"font-thicken":                  {"true", "false"},
	"font-synthetic-style":          {"true", "false", "no-bold", "no-italic"},
	"mouse-hide-while-typing":       {"true", "false"},
	"focus-follows-mouse":           {"true", "false"},
	"confirm-close-surface":         {"true", "false"},
	"quit-after-last-window-closed": {"true", "false"},
	"desktop-notifications":         {"true", "false"},
	"maximize":                      {"true", "false"},
	"fullscreen":                    {"true", "false"},
	"link-previews":                 {"true", "false"},
}

var booleanKeys = map[string]struct{}{
	"cursor-style-blink": {}, "cursor-click-to-move": {}, "window-decoration": {},
	"window-padding-balance": {}, "window-step-resize": {}, "window-inherit-font-size": {},
	"window-inherit-working-directory": {}, "window-vsync": {},
	"font-thicken": {}, "mouse-hide-while-typing": {}, "focus-follows-mouse": {},
	"selection-clear-on-typing": {}, "selection-clear-on-copy": {},
	"clipboard-trim-trailing-spaces": {}, "clipboard-paste-protection": {},
	"clipboard-paste-bracketed-safe": {}, "scroll-to-bottom": {},
	"confirm-close-surface": {}, "quit-after-last-window-closed": {},
	"desktop-notifications": {}, "maximize": {}, "fullscreen": {},
	"link-previews": {}, "macos-window-shadow": {},
	"gtk-single-instance": {}, "gtk-wide-tabs": {},
	"background-opacity-cells": {}, "background-blur": {},
	"vt-kam-allowed": {}, "title-report": {},
}

// multiValueKeys may legitimately appear many times in one file.
var multiValueKeys = map[string]struct{}{
	"palette": {}, "keybind": {}, "font-feature": {}, "font-variation": {},
	"font-variation-bold": {}, "font-variation-italic": {}, "font-variation-bold-italic": {},
	"font-codepoint-map": {}, "link": {}, "link-url": {}, "env": {}, "command-palette-entry": {},
}

// emptyValueKeys accept "key =" to reset the value.
var emptyValueKeys = map[string]struct{}{
	"keybind": {}, "command": {}, "initial-command": {},
}

// selectionSpecialValues are accepted by the selection colors but render as
// the cell's own colors, so they are not stored.
var selectionSpecialValues = map[string]struct{}{
	"cell-foreground": {}, "cell-background": {},
}

const (
	DefaultBackground = "#1e1e2e"
	DefaultForeground = "#cdd6f4"
)

// DefaultPalette fills ANSI slots a config leaves unset.
var DefaultPalette = [16]string{
	"#282c34", // black
	"#e06c75", // red
	"#98c379", // green
	"#e5c07b", // yellow
	"#61afef", // blue
	"#c678dd", // magenta
	"#56b6c2", // cyan
	"#abb2bf", // white
	"#545862", // bright black
	"#e06c75", // bright red
	"#98c379", // bright green
	"#e5c07b", // bright yellow
	"#61afef", // bright blue
	"#c678dd", // bright magenta
	"#56b6c2", // bright cyan
	"#c8ccd4", // bright white
}

// IsKnownKey reports whether key is part of the Ghostty schema.
func IsKnownKey(key string) bool {
	_, ok := knownKeys[key]
	return ok
}

// Suggestion returns the likely intended key for a misspelled one.
func Suggestion(key string) (string, bool) {
	s, ok := keySuggestions[key]
	return s, ok
}

// IsMultiValue reports whether key may repeat without a duplicate warning.
func IsMultiValue(key string) bool {
	_, ok := multiValueKeys[key]
	return ok
}

// Lookup describes a known key. The second result is false for unknown keys.
func Lookup(key string) (SchemaKey, bool) {
	if !IsKnownKey(key) {
		return SchemaKey{}, false
	}
	sk := SchemaKey{Name: key, Kind: KindOpaque, Repeatable: IsMultiValue(key)}
	if key == "palette" {
		sk.Kind = KindPalette
		return sk, true
	}
	if _, ok := colorKeys[key]; ok {
		sk.Kind = KindColor
		return sk, true
	}
	if r, ok := numericRanges[key]; ok {
		sk.Kind = KindNumber
		if _, isInt := integerKeys[key]; isInt {
			sk.Kind = KindInteger
		}
		sk.Range = r
		return sk, true
	}
	if values, ok := enumValues[key]; ok {
		sk.Kind = KindEnum
		sk.Enum = values
		return sk, true
	}
	if _, ok := booleanKeys[key]; ok {
		sk.Kind = KindBool
		return sk, true
	}
	return sk, true
}

// KnownKeys returns every schema key in reference order.
func KnownKeys() []string {
	out := make([]string, len(knownKeyList))
	copy(out, knownKeyList)
	return out
}

func (sk SchemaKey) String() string {
	switch sk.Kind {
	case KindNumber, KindInteger:
		return fmt.Sprintf("%s (%s %s)", sk.Name, sk.Kind, sk.Range.Label)
	case KindEnum:
		return fmt.Sprintf("%s (enum %v)", sk.Name, sk.Enum)
	default:
		return fmt.Sprintf("%s (%s)", sk.Name, sk.Kind)
	}
}
