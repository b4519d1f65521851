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

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adaryorg/ghostyle/internal/clipboard"
	"github.com/adaryorg/ghostyle/internal/config"
	"github.com/adaryorg/ghostyle/internal/gallery"
	"github.com/adaryorg/ghostyle/internal/logging"
	"github.com/adaryorg/ghostyle/internal/security"
	"github.com/adaryorg/ghostyle/internal/storage"
	"github.com/adaryorg/ghostyle/internal/version"
)

// cli carries the flags and config shared by every subcommand.
type cli struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "ghostyle",
		Short: "Share, preview and validate Ghostty terminal configs",
		Long: `ghostyle keeps a gallery of Ghostty terminal themes. It validates and
cleans config files, renders preview cards, imports the community theme
collection, and serves the gallery over HTTP or in a terminal browser.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return c.loadConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/ghostyle/config.toml)")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override the configured log level")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// No config needed to print the version.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String("ghostyle"))
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(
		c.newValidateCmd(),
		c.newCleanCmd(),
		c.newNormalizeCmd(),
		c.newTagsCmd(),
		c.newKeysCmd(),
		c.newCardCmd(),
		c.newImportCmd(),
		c.newExportCmd(),
		c.newBrowseCmd(),
		c.newSeedCmd(),
		c.newDedupeCmd(),
		c.newBlockCmd(),
		c.newUnblockCmd(),
		c.newBlocklistCmd(),
		c.newServeCmd(),
	)
	return rootCmd
}

func (c *cli) loadConfig() error {
	var err error
	if c.configPath != "" {
		c.cfg, err = config.LoadFrom(c.configPath)
	} else {
		c.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level := c.cfg.Logging.Level
	if c.logLevel != "" {
		level = c.logLevel
	}
	logging.InitConsole(level)
	return nil
}

// resolvedConfigPath is the file the config was read from.
func (c *cli) resolvedConfigPath() (string, error) {
	if c.configPath != "" {
		return c.configPath, nil
	}
	return config.DefaultPath()
}

// openGallery opens the gallery and blocklist databases. Local commands are
// not rate limited. The returned func closes both databases.
func (c *cli) openGallery() (*gallery.Service, func(), error) {
	store, err := storage.New(c.cfg.Database.Path, c.cfg.Database.MaxEntries)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open gallery: %w", err)
	}

	blocklist, err := security.NewHashStore(c.cfg.Database.BlocklistPath)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to open blocklist: %w", err)
	}

	opts := gallery.OptionsFromConfig(c.cfg)
	opts.UploadLimiter = nil
	opts.VoteLimiter = nil
	opts.Blocklist = blocklist

	closeAll := func() {
		if err := blocklist.Close(); err != nil {
			logging.Warn("Failed to close blocklist: %v", err)
		}
		if err := store.Close(); err != nil {
			logging.Warn("Failed to close gallery: %v", err)
		}
	}
	return gallery.NewService(store, opts), closeAll, nil
}

// readInput reads a config file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// pasteClipboard is replaced in tests.
var pasteClipboard = clipboard.Paste

// clipboardSource is the name clipboard input is reported under.
const clipboardSource = "clipboard"

type input struct {
	name string
	raw  string
}

// readInputs reads every path in order. With fromClipboard the clipboard
// text comes first.
func readInputs(cmd *cobra.Command, paths []string, fromClipboard bool) ([]input, error) {
	var inputs []input
	if fromClipboard {
		raw, err := pasteClipboard()
		if err != nil {
			return nil, fmt.Errorf("failed to read clipboard: %w", err)
		}
		inputs = append(inputs, input{name: clipboardSource, raw: raw})
	}
	for _, path := range paths {
		raw, err := readInput(cmd, path)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, input{name: path, raw: raw})
	}
	return inputs, nil
}

// titleFromPath turns "themes/Tokyo Night.conf" into "Tokyo Night".
func titleFromPath(path string) string {
	if path == "-" || path == clipboardSource {
		return "Untitled"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
