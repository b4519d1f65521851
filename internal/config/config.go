package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Seed      SeedConfig      `toml:"seed"`
	Logging   LoggingConfig   `toml:"logging"`
	Theme     ThemeConfig     `toml:"theme"`
	Editor      EditorConfig      `toml:"editor"`
	Maintenance MaintenanceConfig `toml:"maintenance"`
}

type DatabaseConfig struct {
	Path          string `toml:"path"`
	BlocklistPath string `toml:"blocklist_path"`
	MaxEntries    int    `toml:"max_entries"`
}

type ServerConfig struct {
	Listen         string `toml:"listen"`
	PerPage        int    `toml:"per_page"`
	MaxConfigBytes int    `toml:"max_config_bytes"`
	MaxTitle       int    `toml:"max_title"`
	MaxDescription int    `toml:"max_description"`
	MaxAuthor      int    `toml:"max_author"`
	CacheSize      int    `toml:"cache_size"`
}

type RateLimitConfig struct {
	UploadMax           int `toml:"upload_max"`
	UploadWindowSeconds int `toml:"upload_window_seconds"`
	VoteMax             int `toml:"vote_max"`
	VoteWindowSeconds   int `toml:"vote_window_seconds"`
}

type SeedConfig struct {
	ListingURL  string   `toml:"listing_url"`
	RawBaseURL  string   `toml:"raw_base_url"`
	SourceURL   string   `toml:"source_url"`
	AuthorName  string   `toml:"author_name"`
	UserAgent   string   `toml:"user_agent"`
	MaxErrors   int      `toml:"max_errors"`
	Concurrency int      `toml:"concurrency"`
	DelayMS     int      `toml:"delay_ms"`
	Featured    []string `toml:"featured"`
}

type LoggingConfig struct {
	LogFile    string `toml:"log_file"`
	Level      string `toml:"level"`
	MaxAge     int    `toml:"max_age"`
	MaxSize    int    `toml:"max_size"`
	MaxBackups int    `toml:"max_backups"`
}

type ThemeConfig struct {
	Header              ColorConfig `toml:"header"`
	Status              ColorConfig `toml:"status"`
	Search              ColorConfig `toml:"search"`
	Warning             ColorConfig `toml:"warning"`
	Selected            ColorConfig `toml:"selected"`
	AlternateBackground ColorConfig `toml:"alternate_background"`
	NormalBackground    ColorConfig `toml:"normal_background"`
	Tag                 ColorConfig `toml:"tag"`
	Frame               FrameConfig `toml:"frame"`
}

type FrameConfig struct {
	Border     ColorConfig `toml:"border"`
	Background ColorConfig `toml:"background"`
}

type ColorConfig struct {
	Foreground string `toml:"foreground"`
	Background string `toml:"background"`
	Bold       bool   `toml:"bold"`
}

type EditorConfig struct {
	TextEditor string `toml:"text_editor"`
}

// MaintenanceConfig drives the daemon's periodic jobs. Intervals are in
// minutes.
type MaintenanceConfig struct {
	AutoDedupe     bool `toml:"auto_dedupe"`
	DedupeInterval int  `toml:"dedupe_interval"`
	SweepInterval  int  `toml:"sweep_interval"`
}

// DefaultFeatured are the seeded themes shown first in the gallery.
var DefaultFeatured = []string{
	"catppuccin-mocha", "dracula", "nord", "tokyonight", "rose-pine",
	"gruvbox-dark", "one-half-dark", "kanagawa-wave", "everforest-dark-hard",
	"solarized-dark-higher-contrast",
}

// Dir returns ~/.config/ghostyle.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "ghostyle"), nil
}

// DefaultPath returns the config file used when none is given.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the default config file, creating it on first run.
func Load() (*Config, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}

	// Create default config if it doesn't exist
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := createDefaultConfig(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	return LoadFrom(configPath)
}

// LoadFrom reads an explicit config file. Missing settings get defaults.
func LoadFrom(configPath string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Default returns a config with every setting at its default.
func Default() *Config {
	var config Config
	// applyDefaults only fails when the home directory is unknown; the
	// relative paths below are used instead.
	if err := config.applyDefaults(); err != nil {
		config.Database.Path = "ghostyle.db"
		config.Database.BlocklistPath = "blocklist.db"
		config.Logging.LogFile = "ghostyle.log"
	}
	return &config
}

func (c *Config) applyDefaults() error {
	if c.Database.Path == "" || c.Database.BlocklistPath == "" || c.Logging.LogFile == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if c.Database.Path == "" {
			c.Database.Path = filepath.Join(dir, "gallery.db")
		}
		if c.Database.BlocklistPath == "" {
			c.Database.BlocklistPath = filepath.Join(dir, "blocklist.db")
		}
		if c.Logging.LogFile == "" {
			c.Logging.LogFile = filepath.Join(dir, "ghostyle.log")
		}
	}
	if c.Database.MaxEntries <= 0 {
		c.Database.MaxEntries = 100000
	}

	if c.Server.Listen == "" {
		c.Server.Listen = "127.0.0.1:8080"
	}
	if c.Server.PerPage <= 0 {
		c.Server.PerPage = 24
	}
	if c.Server.MaxConfigBytes <= 0 {
		c.Server.MaxConfigBytes = 50000
	}
	if c.Server.MaxTitle <= 0 {
		c.Server.MaxTitle = 100
	}
	if c.Server.MaxDescription <= 0 {
		c.Server.MaxDescription = 280
	}
	if c.Server.MaxAuthor <= 0 {
		c.Server.MaxAuthor = 50
	}
	if c.Server.CacheSize <= 0 {
		c.Server.CacheSize = 256
	}

	if c.RateLimit.UploadMax <= 0 {
		c.RateLimit.UploadMax = 5
	}
	if c.RateLimit.UploadWindowSeconds <= 0 {
		c.RateLimit.UploadWindowSeconds = 3600
	}
	if c.RateLimit.VoteMax <= 0 {
		c.RateLimit.VoteMax = 60
	}
	if c.RateLimit.VoteWindowSeconds <= 0 {
		c.RateLimit.VoteWindowSeconds = 60
	}

	if c.Seed.ListingURL == "" {
		c.Seed.ListingURL = "https://api.github.com/repos/mbadolato/iTerm2-Color-Schemes/contents/ghostty"
	}
	if c.Seed.RawBaseURL == "" {
		c.Seed.RawBaseURL = "https://raw.githubusercontent.com/mbadolato/iTerm2-Color-Schemes/master/ghostty"
	}
	if c.Seed.SourceURL == "" {
		c.Seed.SourceURL = "https://github.com/mbadolato/iTerm2-Color-Schemes"
	}
	if c.Seed.AuthorName == "" {
		c.Seed.AuthorName = "iTerm2-Color-Schemes"
	}
	if c.Seed.UserAgent == "" {
		c.Seed.UserAgent = "ghostty-style-seeder/1.0"
	}
	if c.Seed.MaxErrors <= 0 {
		c.Seed.MaxErrors = 3
	}
	if c.Seed.Concurrency <= 0 {
		c.Seed.Concurrency = 4
	}
	if c.Seed.DelayMS <= 0 {
		c.Seed.DelayMS = 100
	}
	if len(c.Seed.Featured) == 0 {
		c.Seed.Featured = append([]string(nil), DefaultFeatured...)
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxAge <= 0 {
		c.Logging.MaxAge = 30
	}
	if c.Logging.MaxSize <= 0 {
		c.Logging.MaxSize = 10
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = 5
	}

	// Set default theme values if not specified
	if c.Theme.Header.Foreground == "" {
		c.Theme.Header.Foreground = "13" // bright magenta
		c.Theme.Header.Bold = true
	}
	if c.Theme.Status.Foreground == "" {
		c.Theme.Status.Foreground = "8"
	}
	if c.Theme.Search.Foreground == "" {
		c.Theme.Search.Foreground = "141" // light purple
		c.Theme.Search.Bold = true
	}
	if c.Theme.Warning.Foreground == "" {
		c.Theme.Warning.Foreground = "9"
		c.Theme.Warning.Bold = true
	}
	if c.Theme.Selected.Foreground == "" {
		c.Theme.Selected.Foreground = "15"
		c.Theme.Selected.Background = "55"
	}
	if c.Theme.AlternateBackground.Background == "" {
		c.Theme.AlternateBackground.Background = "234"
	}
	if c.Theme.Tag.Foreground == "" {
		c.Theme.Tag.Foreground = "111"
	}
	if c.Theme.Frame.Border.Foreground == "" {
		c.Theme.Frame.Border.Foreground = "39"
	}
	if c.Theme.Frame.Background.Background == "" {
		c.Theme.Frame.Background.Background = "235"
	}

	if c.Maintenance.DedupeInterval <= 0 {
		c.Maintenance.DedupeInterval = 60
	}
	if c.Maintenance.SweepInterval <= 0 {
		c.Maintenance.SweepInterval = 5
	}

	if c.Editor.TextEditor == "" {
		c.Editor.TextEditor = "nano"
	}
	return nil
}

func createDefaultConfig(configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(defaultConfigText)
	return err
}

const defaultConfigText = `# ghostyle configuration

[database]
# path = "~/.config/ghostyle/gallery.db"
# blocklist_path = "~/.config/ghostyle/blocklist.db"
max_entries = 100000

[server]
listen = "127.0.0.1:8080"
per_page = 24
max_config_bytes = 50000
max_title = 100
max_description = 280
max_author = 50
cache_size = 256

[rate_limit]
upload_max = 5
upload_window_seconds = 3600
vote_max = 60
vote_window_seconds = 60

[seed]
max_errors = 3
concurrency = 4
delay_ms = 100

[logging]
level = "info"
max_age = 30
max_size = 10
max_backups = 5

[theme.header]
foreground = "13"
background = ""
bold = true

[theme.status]
foreground = "8"
background = ""
bold = false

[theme.search]
foreground = "141"
background = ""
bold = true

[theme.warning]
foreground = "9"
background = ""
bold = true

[theme.selected]
foreground = "15"
background = "55"
bold = false

[theme.alternate_background]
foreground = ""
background = "234"
bold = false

[theme.tag]
foreground = "111"
background = ""
bold = false

[theme.frame.border]
foreground = "39"
background = ""
bold = false

[theme.frame.background]
foreground = ""
background = "235"
bold = false

[maintenance]
auto_dedupe = true
dedupe_interval = 60
sweep_interval = 5

[editor]
text_editor = "nano"
`
