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

// Package seed imports the Ghostty themes published in the
// iTerm2-Color-Schemes repository into the gallery.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/adaryorg/ghostyle/internal/config"
	"github.com/adaryorg/ghostyle/internal/gallery"
	"github.com/adaryorg/ghostyle/internal/ghostty"
	"github.com/adaryorg/ghostyle/internal/logging"
	"github.com/adaryorg/ghostyle/internal/storage"
)

const (
	maxRedirects   = 5
	requestTimeout = 30 * time.Second
	maxThemeBytes  = 1 << 20
)

var ErrTooManyRedirects = errors.New("too many redirects")

type Options struct {
	ListingURL  string
	RawBaseURL  string
	SourceURL   string
	AuthorName  string
	UserAgent   string
	MaxErrors   int
	Concurrency int
	Delay       time.Duration
	Featured    []string
	// Limit caps how many listed themes are processed; 0 means all.
	Limit int
}

func OptionsFromConfig(cfg config.SeedConfig) Options {
	return Options{
		ListingURL:  cfg.ListingURL,
		RawBaseURL:  cfg.RawBaseURL,
		SourceURL:   cfg.SourceURL,
		AuthorName:  cfg.AuthorName,
		UserAgent:   cfg.UserAgent,
		MaxErrors:   cfg.MaxErrors,
		Concurrency: cfg.Concurrency,
		Delay:       time.Duration(cfg.DelayMS) * time.Millisecond,
		Featured:    cfg.Featured,
	}
}

// Stats counts what a run did with each listed theme.
type Stats struct {
	Seeded  int `json:"seeded"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}

type Seeder struct {
	store    *storage.Storage
	client   *http.Client
	opts     Options
	featured map[string]bool

	mu    sync.Mutex
	stats Stats
}

// New creates a seeder. A nil client gets a default one; either way
// redirects are capped at five.
func New(store *storage.Storage, client *http.Client, opts Options) *Seeder {
	var c http.Client
	if client != nil {
		c = *client
	} else {
		c.Timeout = requestTimeout
	}
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return ErrTooManyRedirects
		}
		return nil
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.MaxErrors < 0 {
		opts.MaxErrors = 0
	}

	featured := make(map[string]bool, len(opts.Featured))
	for _, slug := range opts.Featured {
		featured[slug] = true
	}

	return &Seeder{store: store, client: &c, opts: opts, featured: featured}
}

// get fetches url and returns the body; anything but 200 is an error.
func (s *Seeder) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if s.opts.UserAgent != "" {
		req.Header.Set("User-Agent", s.opts.UserAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxThemeBytes))
}

type listingItem struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// FetchNames returns the file names in the theme directory listing.
func (s *Seeder) FetchNames(ctx context.Context) ([]string, error) {
	body, err := s.get(ctx, s.opts.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch theme listing: %w", err)
	}

	var items []listingItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("unexpected theme listing response: %w", err)
	}

	var names []string
	for _, item := range items {
		if item.Type == "file" {
			names = append(names, item.Name)
		}
	}
	return names, nil
}

// ThemeURL is the raw download URL for a theme file name.
func (s *Seeder) ThemeURL(name string) string {
	return strings.TrimRight(s.opts.RawBaseURL, "/") + "/" + url.PathEscape(name)
}

// Run imports every listed theme that is not in the gallery yet.
func (s *Seeder) Run(ctx context.Context) (Stats, error) {
	names, err := s.FetchNames(ctx)
	if err != nil {
		return Stats{}, err
	}
	if len(names) == 0 {
		return Stats{}, errors.New("no themes found in the listing")
	}
	if s.opts.Limit > 0 && len(names) > s.opts.Limit {
		names = names[:s.opts.Limit]
	}

	s.mu.Lock()
	s.stats = Stats{Total: len(names)}
	s.mu.Unlock()
	logging.Info("Seeding up to %d themes", len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for _, name := range names {
		g.Go(func() error {
			s.importTheme(gctx, name)
			return s.pause(gctx)
		})
	}
	err = g.Wait()

	s.mu.Lock()
	stats := s.stats
	s.mu.Unlock()

	logging.Info("Seeding done: seeded %d, skipped %d, failed %d of %d",
		stats.Seeded, stats.Skipped, stats.Failed, stats.Total)
	return stats, err
}

func (s *Seeder) pause(ctx context.Context) error {
	if s.opts.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.opts.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Seeder) count(field *int) {
	s.mu.Lock()
	*field++
	s.mu.Unlock()
}

func (s *Seeder) importTheme(ctx context.Context, name string) {
	title := strings.TrimSpace(name)
	slug := gallery.GenerateSlug(title)

	exists, err := s.store.SlugExists(ctx, slug)
	if err != nil {
		logging.Warn("FAIL: %s (%v)", title, err)
		s.count(&s.stats.Failed)
		return
	}
	if exists {
		logging.Debug("SKIP: %s (already exists)", title)
		s.count(&s.stats.Skipped)
		return
	}

	body, err := s.get(ctx, s.ThemeURL(name))
	if err != nil {
		logging.Info("SKIP: %s (fetch failed: %v)", name, err)
		s.count(&s.stats.Skipped)
		return
	}

	cleaned := ghostty.Clean(string(body))
	result := ghostty.Parse(cleaned)
	if len(result.Errors) > s.opts.MaxErrors {
		logging.Info("SKIP: %s (%d parse errors)", name, len(result.Errors))
		s.count(&s.stats.Skipped)
		return
	}

	tags := gallery.AutoTag(title, result.Config)
	rec := gallery.NewRecord(title, cleaned, result.Config)
	rec.Slug = slug
	rec.Tags = tags
	rec.SourceURL = s.opts.SourceURL
	rec.AuthorName = s.opts.AuthorName
	rec.IsFeatured = s.featured[slug]
	rec.IsSeed = true

	if err := s.store.Insert(ctx, rec); err != nil {
		if errors.Is(err, storage.ErrSlugTaken) {
			logging.Debug("SKIP: %s (slug taken concurrently)", title)
			s.count(&s.stats.Skipped)
			return
		}
		logging.Warn("FAIL: %s (%v)", title, err)
		s.count(&s.stats.Failed)
		return
	}

	logging.Info("OK: %s (%s) [%s]", title, slug, strings.Join(tags, ", "))
	s.count(&s.stats.Seeded)
}
