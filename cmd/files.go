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
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adaryorg/ghostyle/internal/card"
	"github.com/adaryorg/ghostyle/internal/gallery"
	"github.com/adaryorg/ghostyle/internal/ghostty"
	"github.com/adaryorg/ghostyle/internal/security"
)

// errProblemsFound makes validate exit 1 without printing an extra error.
var errProblemsFound = errors.New("config has errors")

func (c *cli) newValidateCmd() *cobra.Command {
	var quiet, fromClipboard bool

	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check Ghostty config files for errors, warnings and risky settings",
		Long: `Parse each file and print its diagnostics. Use "-" to read stdin and
--clipboard to check the clipboard text. Exits with status 1 when any input
has errors; warnings alone pass.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if fromClipboard {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := readInputs(cmd, args, fromClipboard)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			detector := security.NewDetector()
			failed := false

			for _, in := range inputs {
				path, raw := in.name, in.raw

				result := ghostty.Parse(raw)
				risks := detector.Scan(ghostty.Clean(raw))
				if result.HasErrors() {
					failed = true
				}

				if len(result.Errors) == 0 && len(result.Warnings) == 0 && len(risks) == 0 {
					if !quiet {
						fmt.Fprintf(out, "%s: ok\n", path)
					}
					continue
				}

				fmt.Fprintf(out, "%s: %d errors, %d warnings\n", path, len(result.Errors), len(result.Warnings))
				for _, d := range result.Errors {
					fmt.Fprintf(out, "  error: %s\n", d)
				}
				if !quiet {
					for _, d := range result.Warnings {
						fmt.Fprintf(out, "  warning: %s\n", d)
					}
				}
				for _, r := range risks {
					fmt.Fprintf(out, "  risk: line %d: %s (%s, %.0f%%)\n", r.Line, r.Reason, r.Type, r.Confidence*100)
				}
			}

			if failed {
				return errProblemsFound
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only report errors and risks")
	cmd.Flags().BoolVar(&fromClipboard, "clipboard", false, "also validate the clipboard text")
	return cmd
}

func (c *cli) newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys [PREFIX]",
		Short: "List the config keys Ghostty accepts and their value kinds",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}

			out := cmd.OutOrStdout()
			matched := 0
			for _, key := range ghostty.KnownKeys() {
				if !strings.HasPrefix(key, prefix) {
					continue
				}
				sk, _ := ghostty.Lookup(key)
				fmt.Fprintln(out, sk)
				matched++
			}
			if matched == 0 {
				return fmt.Errorf("no known keys start with %q", prefix)
			}
			return nil
		},
	}
}

func (c *cli) newCleanCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "clean FILE",
		Short: "Strip comments and blank lines from a config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			cleaned := ghostty.Clean(raw)

			if !write || args[0] == "-" {
				fmt.Fprint(cmd.OutOrStdout(), cleaned)
				return nil
			}

			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], []byte(cleaned), info.Mode().Perm()); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[0], err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite the file in place")
	return cmd
}

func (c *cli) newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize FILE",
		Short: "Print the visual settings of a config in canonical form",
		Long: `Parse the config and write back only the keys the gallery understands
(colors, palette, font, cursor and opacity) in a fixed order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ghostty.Serialize(ghostty.Parse(raw).Config))
			return nil
		},
	}
}

func (c *cli) newTagsCmd() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "tags FILE",
		Short: "Suggest gallery tags for a config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			if title == "" {
				title = titleFromPath(args[0])
			}
			tags := gallery.AutoTag(title, ghostty.Parse(raw).Config)
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(tags, " "))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "theme title (default: file name)")
	return cmd
}

func (c *cli) newCardCmd() *cobra.Command {
	var (
		output string
		title  string
		width  int
		height int
	)

	cmd := &cobra.Command{
		Use:   "card FILE|SLUG",
		Short: "Render a PNG preview card",
		Long: `Render the preview card for a config file, or for a gallery entry when
no file by that name exists.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, cfg, err := c.cardSource(cmd, args[0])
			if err != nil {
				return err
			}
			if title != "" {
				name = title
			}

			png, err := card.Render(name, cfg, width, height)
			if err != nil {
				return fmt.Errorf("failed to render card: %w", err)
			}

			if output == "-" {
				_, err = cmd.OutOrStdout().Write(png)
				return err
			}
			if output == "" {
				output = gallery.GenerateSlug(name) + ".png"
			}
			if err := os.WriteFile(output, png, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%dx%d)\n", output, width, height)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout (default: <slug>.png)`)
	cmd.Flags().StringVar(&title, "title", "", "title printed on the card")
	cmd.Flags().IntVar(&width, "width", 1200, "card width in pixels")
	cmd.Flags().IntVar(&height, "height", 630, "card height in pixels")
	return cmd
}

// cardSource resolves a card argument to a title and parsed config, trying
// a file first and a gallery slug second.
func (c *cli) cardSource(cmd *cobra.Command, arg string) (string, ghostty.ParsedConfig, error) {
	if _, err := os.Stat(arg); err == nil || arg == "-" {
		raw, err := readInput(cmd, arg)
		if err != nil {
			return "", ghostty.ParsedConfig{}, err
		}
		return titleFromPath(arg), ghostty.Parse(raw).Config, nil
	}

	svc, closeAll, err := c.openGallery()
	if err != nil {
		return "", ghostty.ParsedConfig{}, err
	}
	defer closeAll()

	rec, err := svc.Store().GetBySlug(cmd.Context(), arg)
	if err != nil {
		return "", ghostty.ParsedConfig{}, fmt.Errorf("%s is neither a file nor a gallery slug: %w", arg, err)
	}
	preview, err := svc.Get(cmd.Context(), rec.ID)
	if err != nil {
		return "", ghostty.ParsedConfig{}, err
	}
	return rec.Title, preview.Result.Config, nil
}
