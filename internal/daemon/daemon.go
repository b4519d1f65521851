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

// Package daemon runs the gallery HTTP API together with its background
// maintenance: config hot reload, rate-limit sweeps and deduplication.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/adaryorg/ghostyle/internal/config"
	"github.com/adaryorg/ghostyle/internal/gallery"
	"github.com/adaryorg/ghostyle/internal/logging"
	"github.com/adaryorg/ghostyle/internal/security"
	"github.com/adaryorg/ghostyle/internal/server"
	"github.com/adaryorg/ghostyle/internal/storage"
)

type Daemon struct {
	configPath string
	cfg        atomic.Pointer[config.Config]

	store     *storage.Storage
	blocklist *security.HashStore
	svc       *gallery.Service
	handler   http.Handler
}

// New opens the gallery and blocklist databases named in cfg. configPath is
// watched for changes by Run; leave it empty to disable hot reload.
func New(configPath string, cfg *config.Config) (*Daemon, error) {
	store, err := storage.New(cfg.Database.Path, cfg.Database.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	blocklist, err := security.NewHashStore(cfg.Database.BlocklistPath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize blocklist: %w", err)
	}

	opts := gallery.OptionsFromConfig(cfg)
	opts.Blocklist = blocklist
	svc := gallery.NewService(store, opts)

	d := &Daemon{
		configPath: configPath,
		store:      store,
		blocklist:  blocklist,
		svc:        svc,
		handler:    server.New(svc).Handler(),
	}
	d.cfg.Store(cfg)
	return d, nil
}

func (d *Daemon) Service() *gallery.Service { return d.svc }

func (d *Daemon) Handler() http.Handler { return d.handler }

// Config returns the config currently in effect.
func (d *Daemon) Config() *config.Config { return d.cfg.Load() }

// Reload applies the settings that can change at runtime: the log level and
// both rate limits. Listen address and database paths need a restart.
func (d *Daemon) Reload(cfg *config.Config) {
	old := d.cfg.Swap(cfg)

	logging.SetLevel(cfg.Logging.Level)

	opts := d.svc.Options()
	if opts.UploadLimiter != nil {
		opts.UploadLimiter.Update(cfg.RateLimit.UploadMax,
			time.Duration(cfg.RateLimit.UploadWindowSeconds)*time.Second)
	}
	if opts.VoteLimiter != nil {
		opts.VoteLimiter.Update(cfg.RateLimit.VoteMax,
			time.Duration(cfg.RateLimit.VoteWindowSeconds)*time.Second)
	}

	if old != nil {
		if old.Server.Listen != cfg.Server.Listen {
			logging.Warn("Listen address changed to %s; restart to apply", cfg.Server.Listen)
		}
		if old.Database.Path != cfg.Database.Path || old.Database.BlocklistPath != cfg.Database.BlocklistPath {
			logging.Warn("Database paths changed; restart to apply")
		}
	}
	logging.Info("Configuration reloaded (log level %s, uploads %d/%ds, votes %d/%ds)",
		cfg.Logging.Level,
		cfg.RateLimit.UploadMax, cfg.RateLimit.UploadWindowSeconds,
		cfg.RateLimit.VoteMax, cfg.RateLimit.VoteWindowSeconds)
}

// Sweep drops expired rate-limit windows from both limiters.
func (d *Daemon) Sweep(now time.Time) int {
	opts := d.svc.Options()
	removed := 0
	if opts.UploadLimiter != nil {
		removed += opts.UploadLimiter.Sweep(now)
	}
	if opts.VoteLimiter != nil {
		removed += opts.VoteLimiter.Sweep(now)
	}
	return removed
}

// Dedupe removes configs whose cleaned text duplicates another one.
func (d *Daemon) Dedupe(ctx context.Context) (int, error) {
	return d.store.DeduplicateExisting(ctx)
}

// Run serves the API on the configured listen address until ctx is done.
// The watcher and maintenance tasks stop with the server.
func (d *Daemon) Run(ctx context.Context) error {
	cfg := d.Config()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return server.ListenAndServe(gctx, cfg.Server.Listen, d.handler)
	})

	if d.configPath != "" {
		g.Go(func() error {
			err := config.Watch(gctx, d.configPath, d.Reload, func(err error) {
				logging.Error("Config reload failed, keeping previous settings: %v", err)
			})
			if err != nil {
				logging.Error("Config watcher stopped: %v", err)
			}
			return nil
		})
	}

	sweepEvery := time.Duration(cfg.Maintenance.SweepInterval) * time.Minute
	g.Go(func() error {
		startMaintenanceTask(gctx, "rate limit sweep", sweepEvery, func() {
			if removed := d.Sweep(time.Now()); removed > 0 {
				logging.Debug("Swept %d expired rate limit windows", removed)
			}
		})
		return nil
	})

	if cfg.Maintenance.AutoDedupe {
		dedupeEvery := time.Duration(cfg.Maintenance.DedupeInterval) * time.Minute
		g.Go(func() error {
			startMaintenanceTask(gctx, "deduplication", dedupeEvery, func() {
				logging.Info("Running automatic deduplication...")
				if removed, err := d.Dedupe(gctx); err != nil && !errors.Is(err, context.Canceled) {
					logging.Error("Automatic deduplication failed: %v", err)
				} else if removed > 0 {
					logging.Info("Automatic deduplication removed %d duplicates", removed)
				}
			})
			return nil
		})
	}

	return g.Wait()
}

// startMaintenanceTask runs task every interval until ctx is done.
func startMaintenanceTask(ctx context.Context, name string, interval time.Duration, task func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logging.Info("Starting automatic %s task (every %v)", name, interval)

	for {
		select {
		case <-ctx.Done():
			logging.Info("Stopping %s maintenance task", name)
			return
		case <-ticker.C:
			task()
		}
	}
}

func (d *Daemon) Close() error {
	return errors.Join(d.blocklist.Close(), d.store.Close())
}
