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
	"encoding/hex"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/adaryorg/ghostyle/internal/daemon"
	"github.com/adaryorg/ghostyle/internal/gallery"
	"github.com/adaryorg/ghostyle/internal/logging"
	"github.com/adaryorg/ghostyle/internal/security"
	"github.com/adaryorg/ghostyle/internal/seed"
	"github.com/adaryorg/ghostyle/internal/ui"
)

func (c *cli) newImportCmd() *cobra.Command {
	var req gallery.UploadRequest
	var fromClipboard bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Add a config file to the gallery",
		Long: `Add a config file to the gallery. Use "-" to read stdin, or --clipboard
instead of FILE to import the clipboard text.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if fromClipboard {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := readInputs(cmd, args, fromClipboard)
			if err != nil {
				return err
			}
			req.RawConfig = inputs[0].raw
			if req.Title == "" {
				req.Title = titleFromPath(inputs[0].name)
			}
			req.ClientIP = "local"

			svc, closeAll, err := c.openGallery()
			if err != nil {
				return err
			}
			defer closeAll()

			res, err := svc.Upload(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %q as %s (id %s)\n", req.Title, res.Slug, res.ID)
			for _, d := range res.Errors {
				fmt.Fprintf(out, "  error: %s\n", d)
			}
			for _, d := range res.Warnings {
				fmt.Fprintf(out, "  warning: %s\n", d)
			}
			for _, r := range res.Risks {
				fmt.Fprintf(out, "  risk: %s (%s)\n", r.Reason, r.Type)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "gallery title (default: file name)")
	cmd.Flags().StringVar(&req.Description, "description", "", "short description")
	cmd.Flags().StringSliceVar(&req.Tags, "tags", nil, "comma separated tags")
	cmd.Flags().StringVar(&req.AuthorName, "author", "", "author name")
	cmd.Flags().BoolVar(&fromClipboard, "clipboard", false, "import the clipboard text instead of a file")
	return cmd
}

func (c *cli) newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export SLUG",
		Short: "Write a gallery config as a ready-to-use Ghostty config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeAll, err := c.openGallery()
			if err != nil {
				return err
			}
			defer closeAll()

			rec, err := svc.Store().GetBySlug(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to find %s: %w", args[0], err)
			}
			filename, content, err := svc.Download(cmd.Context(), rec.ID)
			if err != nil {
				return err
			}

			switch output {
			case "", "-":
				fmt.Fprint(cmd.OutOrStdout(), content)
				return nil
			case ".":
				output = filename
			}
			if err := os.WriteFile(output, []byte(content), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "." for ghostty-<slug>.conf (default: stdout)`)
	return cmd
}

func (c *cli) newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the gallery in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Console logging would draw over the alt screen.
			err := logging.InitFile(
				c.cfg.Logging.LogFile,
				c.cfg.Logging.Level,
				c.cfg.Logging.MaxAge,
				c.cfg.Logging.MaxSize,
				c.cfg.Logging.MaxBackups,
			)
			if err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}

			svc, closeAll, err := c.openGallery()
			if err != nil {
				return err
			}
			defer closeAll()

			model := ui.NewModel(svc, c.cfg)
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running browser: %w", err)
			}
			return nil
		},
	}
}

func (c *cli) newSeedCmd() *cobra.Command {
	var (
		limit       int
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import the community Ghostty themes into the gallery",
		Long: `Fetch the Ghostty themes published by iTerm2-Color-Schemes and add the
ones the gallery does not have yet. Already imported themes are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeAll, err := c.openGallery()
			if err != nil {
				return err
			}
			defer closeAll()

			opts := seed.OptionsFromConfig(c.cfg.Seed)
			opts.Limit = limit
			if concurrency > 0 {
				opts.Concurrency = concurrency
			}

			stats, err := seed.New(svc.Store(), nil, opts).Run(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d, skipped %d, failed %d of %d themes\n",
				stats.Seeded, stats.Skipped, stats.Failed, stats.Total)
			return err
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "process at most this many themes (0 for all)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel downloads (default from config)")
	return cmd
}

func (c *cli) newDedupeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe",
		Short: "Remove configs that duplicate another gallery entry",
		Long: `Remove entries whose cleaned text is identical to another entry, keeping
the most voted and then the oldest copy.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeAll, err := c.openGallery()
			if err != nil {
				return err
			}
			defer closeAll()

			removed, err := svc.Store().DeduplicateExisting(cmd.Context())
			if err != nil {
				return fmt.Errorf("deduplication failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d duplicate configs\n", removed)
			return nil
		},
	}
}

// isContentHash reports whether s looks like a SHA256 content hash.
func isContentHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func (c *cli) newBlockCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "block HASH|FILE|SLUG",
		Short: "Keep a config out of the gallery",
		Long: `Add a content hash to the blocklist. The argument may be a hash, a config
file whose content should be blocked, or the slug of a gallery entry, which
is removed as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeAll, err := c.openGallery()
			if err != nil {
				return err
			}
			defer closeAll()

			blocklist := svc.Options().Blocklist
			threat := security.Threat{Type: "moderation", Confidence: 1, Reason: reason}
			if threat.Reason == "" {
				threat.Reason = "blocked by moderator"
			}

			arg := args[0]
			var hash string
			switch {
			case isContentHash(arg):
				hash = arg
				err = blocklist.Block(hash, threat)
			case fileExists(arg):
				var raw string
				if raw, err = readInput(cmd, arg); err != nil {
					return err
				}
				hash, err = blocklist.BlockContent(raw, threat)
			default:
				hash, err = svc.Block(cmd.Context(), arg, reason)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Blocked %s\n", hash)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "reason stored with the entry")
	return cmd
}

func (c *cli) newUnblockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unblock HASH|FILE",
		Short: "Remove a content hash from the blocklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash := args[0]
			if !isContentHash(hash) {
				raw, err := readInput(cmd, hash)
				if err != nil {
					return err
				}
				hash = security.CreateHash(raw)
			}

			svc, closeAll, err := c.openGallery()
			if err != nil {
				return err
			}
			defer closeAll()

			blocklist := svc.Options().Blocklist
			exists, err := blocklist.HasHash(hash)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%s is not blocked", hash)
			}
			if err := blocklist.Unblock(hash); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unblocked %s\n", hash)
			return nil
		},
	}
}

func (c *cli) newBlocklistCmd() *cobra.Command {
	var threatType string

	cmd := &cobra.Command{
		Use:   "blocklist",
		Short: "Show blocked content hashes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeAll, err := c.openGallery()
			if err != nil {
				return err
			}
			defer closeAll()

			blocklist := svc.Options().Blocklist
			stats, err := blocklist.GetStats()
			if err != nil {
				return err
			}
			entries, err := blocklist.List(threatType)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d blocked hashes (%d high confidence)\n", stats.Total, stats.HighConfidence)
			if len(entries) == 0 {
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("HASH", "TYPE", "COUNT", "LAST SEEN", "REASON")
			for _, e := range entries {
				t.Row(e.Hash[:12], e.ThreatType, fmt.Sprint(e.Count), e.LastSeen.Format("2006-01-02"), e.Reason)
			}
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}

	cmd.Flags().StringVar(&threatType, "type", "", "only show entries of this threat type")
	return cmd
}

func (c *cli) newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the gallery HTTP API",
		Long: `Run the gallery API in the foreground, with the same config reload and
maintenance jobs as ghostyled.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, err := c.resolvedConfigPath()
			if err != nil {
				return err
			}
			if listen != "" {
				c.cfg.Server.Listen = listen
			}

			d, err := daemon.New(configPath, c.cfg)
			if err != nil {
				return err
			}
			defer d.Close()
			return d.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "override the configured listen address")
	return cmd
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
