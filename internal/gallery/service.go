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
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/adaryorg/ghostyle/internal/config"
	"github.com/adaryorg/ghostyle/internal/ghostty"
	"github.com/adaryorg/ghostyle/internal/logging"
	"github.com/adaryorg/ghostyle/internal/ratelimit"
	"github.com/adaryorg/ghostyle/internal/security"
	"github.com/adaryorg/ghostyle/internal/storage"
)

var (
	ErrNotFound      = storage.ErrNotFound
	ErrAlreadyVoted  = storage.ErrAlreadyVoted
	ErrInvalidInput  = errors.New("invalid input")
	ErrRateLimited   = errors.New("rate limited")
	ErrBlocked       = errors.New("config content is blocked")
	ErrSlugExhausted = errors.New("could not generate a unique slug")
)

const maxSlugAttempts = 100

// InputError is a validation failure with a message fit for the caller.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(msg string) error { return &InputError{Message: msg} }

// RateLimitError reports a rejected request and when the caller may retry.
type RateLimitError struct {
	Limiter  string
	Decision ratelimit.Decision
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limit exceeded until %s", e.Limiter, e.Decision.ResetAt.Format(time.RFC3339))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// Options tune a Service. Zero limits fall back to the defaults.
type Options struct {
	PerPage        int
	MaxConfigBytes int
	MaxTitle       int
	MaxDescription int
	MaxAuthor      int
	CacheSize      int

	UploadLimiter *ratelimit.Limiter
	VoteLimiter   *ratelimit.Limiter
	Blocklist     *security.HashStore
}

// OptionsFromConfig builds service options, including both rate limiters,
// from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PerPage:        cfg.Server.PerPage,
		MaxConfigBytes: cfg.Server.MaxConfigBytes,
		MaxTitle:       cfg.Server.MaxTitle,
		MaxDescription: cfg.Server.MaxDescription,
		MaxAuthor:      cfg.Server.MaxAuthor,
		CacheSize:      cfg.Server.CacheSize,
		UploadLimiter: ratelimit.New("upload", cfg.RateLimit.UploadMax,
			time.Duration(cfg.RateLimit.UploadWindowSeconds)*time.Second),
		VoteLimiter: ratelimit.New("vote", cfg.RateLimit.VoteMax,
			time.Duration(cfg.RateLimit.VoteWindowSeconds)*time.Second),
	}
}

func (o *Options) applyDefaults() {
	if o.PerPage <= 0 {
		o.PerPage = ConfigsPerPage
	}
	if o.MaxConfigBytes <= 0 {
		o.MaxConfigBytes = 50000
	}
	if o.MaxTitle <= 0 {
		o.MaxTitle = 100
	}
	if o.MaxDescription <= 0 {
		o.MaxDescription = 280
	}
	if o.MaxAuthor <= 0 {
		o.MaxAuthor = 50
	}
}

// Service implements the gallery operations shared by the HTTP API, the CLI
// and the terminal browser.
type Service struct {
	store    *storage.Storage
	cache    *storage.ParsedCache
	detector *security.Detector
	opts     Options
}

func NewService(store *storage.Storage, opts Options) *Service {
	opts.applyDefaults()
	return &Service{
		store:    store,
		cache:    storage.NewParsedCache(store, opts.CacheSize),
		detector: security.NewDetector(),
		opts:     opts,
	}
}

// Store exposes the underlying storage for maintenance commands.
func (s *Service) Store() *storage.Storage { return s.store }

// Options returns the effective options.
func (s *Service) Options() Options { return s.opts }

// CacheStats reports the parsed-config cache counters.
func (s *Service) CacheStats() storage.CacheStats { return s.cache.Stats() }

// UploadRequest is a user-submitted config.
type UploadRequest struct {
	RawConfig   string   `json:"rawConfig"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	AuthorName  string   `json:"authorName"`
	ClientIP    string   `json:"-"`
}

// UploadResult identifies the stored config and carries the advisory
// diagnostics produced while parsing it.
type UploadResult struct {
	ID       string               `json:"id"`
	Slug     string               `json:"slug"`
	Warnings []ghostty.Diagnostic `json:"warnings"`
	Errors   []ghostty.Diagnostic `json:"errors"`
	Risks    []security.Threat    `json:"risks"`
}

func (s *Service) validateUpload(req UploadRequest) error {
	if req.RawConfig == "" || req.Title == "" {
		return invalid("rawConfig and title are required")
	}
	if len(req.RawConfig) > s.opts.MaxConfigBytes {
		return invalid(fmt.Sprintf("Config too large (max %dKB)", s.opts.MaxConfigBytes/1000))
	}
	if strings.TrimSpace(req.Title) == "" || utf8.RuneCountInString(req.Title) > s.opts.MaxTitle {
		return invalid(fmt.Sprintf("Title is required (max %d chars)", s.opts.MaxTitle))
	}
	if utf8.RuneCountInString(req.Description) > s.opts.MaxDescription {
		return invalid(fmt.Sprintf("Description too long (max %d chars)", s.opts.MaxDescription))
	}
	if utf8.RuneCountInString(req.AuthorName) > s.opts.MaxAuthor {
		return invalid(fmt.Sprintf("Author name too long (max %d chars)", s.opts.MaxAuthor))
	}
	return nil
}

// Upload validates, cleans and stores a submitted config under a fresh slug.
// Parse errors do not reject the upload; they are returned for display.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if err := s.allow(s.opts.UploadLimiter, req.ClientIP); err != nil {
		return nil, err
	}
	if err := s.validateUpload(req); err != nil {
		return nil, err
	}

	if s.opts.Blocklist != nil {
		blocked, entry, err := s.opts.Blocklist.IsBlocked(req.RawConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to check blocklist: %w", err)
		}
		if blocked {
			logging.Warn("Rejected blocked upload from %s (%s)", req.ClientIP, entry.ThreatType)
			return nil, fmt.Errorf("%w: %s", ErrBlocked, entry.Reason)
		}
	}

	cleaned := ghostty.Clean(req.RawConfig)
	result := ghostty.Parse(req.RawConfig)
	if result.HasErrors() {
		logging.Warn("Config upload %q has %d parse errors", req.Title, len(result.Errors))
	}
	risks := s.detector.Scan(cleaned)

	rec := NewRecord(strings.TrimSpace(req.Title), cleaned, result.Config)
	rec.Description = truncate(strings.TrimSpace(req.Description), s.opts.MaxDescription)
	rec.AuthorName = truncate(strings.TrimSpace(req.AuthorName), s.opts.MaxAuthor)
	rec.Tags = FilterTags(req.Tags, result.Config.IsDark)
	rec.RiskLevel = security.Level(risks)

	if err := s.insertUnique(ctx, rec, GenerateSlug(req.Title)); err != nil {
		return nil, err
	}
	logging.Info("Stored config %s (%s) from %s", rec.Slug, rec.ID, req.ClientIP)

	return &UploadResult{
		ID:       rec.ID,
		Slug:     rec.Slug,
		Warnings: result.Warnings,
		Errors:   result.Errors,
		Risks:    risks,
	}, nil
}

// insertUnique stores rec under base, base-1, base-2, ... until a free slug
// is found.
func (s *Service) insertUnique(ctx context.Context, rec *storage.ConfigRecord, base string) error {
	for suffix := 0; suffix < maxSlugAttempts; suffix++ {
		candidate := base
		if suffix > 0 {
			candidate = fmt.Sprintf("%s-%d", base, suffix)
		}
		exists, err := s.store.SlugExists(ctx, candidate)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		rec.Slug = candidate
		err = s.store.Insert(ctx, rec)
		if errors.Is(err, storage.ErrSlugTaken) {
			rec.ID = ""
			continue
		}
		return err
	}
	return ErrSlugExhausted
}

// NewRecord builds a storable record from a parsed config.
func NewRecord(title, cleaned string, cfg ghostty.ParsedConfig) *storage.ConfigRecord {
	cursorStyle := cfg.CursorStyle
	if cursorStyle == "" {
		cursorStyle = "block"
	}
	opacity := 1.0
	if cfg.BgOpacity != nil {
		opacity = *cfg.BgOpacity
	}
	return &storage.ConfigRecord{
		ConfigMeta: storage.ConfigMeta{
			Title:       title,
			Background:  cfg.Background,
			Foreground:  cfg.Foreground,
			CursorColor: cfg.CursorColor,
			CursorText:  cfg.CursorText,
			SelectionBg: cfg.SelectionBg,
			SelectionFg: cfg.SelectionFg,
			Palette:     append([]string(nil), cfg.Palette[:]...),
			FontFamily:  cfg.FontFamily,
			FontSize:    cfg.FontSize,
			CursorStyle: cursorStyle,
			BgOpacity:   opacity,
			IsDark:      cfg.IsDark,
			Tags:        []string{},
		},
		RawConfig: cleaned,
	}
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func (s *Service) allow(limiter *ratelimit.Limiter, ip string) error {
	if limiter == nil {
		return nil
	}
	if ip == "" {
		ip = "unknown"
	}
	d := limiter.Check(ip)
	if !d.Allowed {
		logging.Debug("Rate limit %s hit by %s", limiter.Name(), ip)
		return &RateLimitError{Limiter: limiter.Name(), Decision: d}
	}
	return nil
}

func checkID(id string) error {
	if !storage.IsValidID(id) {
		return invalid("Invalid config ID")
	}
	return nil
}

// Download returns the attachment filename and the cleaned config text, and
// counts the download.
func (s *Service) Download(ctx context.Context, id string) (string, string, error) {
	if err := checkID(id); err != nil {
		return "", "", err
	}
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	if err := s.store.IncrementDownload(ctx, id); err != nil {
		logging.Warn("Failed to count download of %s: %v", id, err)
	}
	return DownloadFilename(rec.Slug), ghostty.Clean(rec.RawConfig), nil
}

// DownloadFilename is the attachment name for a slug.
func DownloadFilename(slug string) string {
	var b strings.Builder
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return "ghostty-" + b.String() + ".conf"
}

// Preview is a stored config together with its parse result.
type Preview struct {
	Record *storage.ConfigRecord
	Result ghostty.Result
}

// Get loads a config by ID without counting a view.
func (s *Service) Get(ctx context.Context, id string) (*Preview, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	rec, result, err := s.cache.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Preview{Record: rec, Result: result}, nil
}

// Preview loads a config by slug for its detail page and counts the view.
func (s *Service) Preview(ctx context.Context, slug string) (*Preview, error) {
	rec, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.store.IncrementView(ctx, rec.ID); err != nil {
		logging.Warn("Failed to count view of %s: %v", rec.ID, err)
	} else {
		rec.ViewCount++
	}
	return &Preview{Record: rec, Result: s.cache.Get(rec)}, nil
}

// List returns one page of configs.
func (s *Service) List(ctx context.Context, f storage.Filters) (*storage.Page, error) {
	return s.store.List(ctx, f, s.opts.PerPage)
}

// Validation is the outcome of checking config text without storing it.
type Validation struct {
	Cleaned string            `json:"cleaned"`
	Result  ghostty.Result    `json:"result"`
	Risks   []security.Threat `json:"risks"`
}

func (s *Service) Validate(raw string) Validation {
	cleaned := ghostty.Clean(raw)
	return Validation{
		Cleaned: cleaned,
		Result:  ghostty.Parse(raw),
		Risks:   s.detector.Scan(cleaned),
	}
}

// VoteResult is the vote count after a vote change.
type VoteResult struct {
	VoteCount int  `json:"voteCount"`
	Voted     bool `json:"voted"`
}

// VoterHash identifies a voter by client address and user agent.
func VoterHash(ip, userAgent string) string {
	if userAgent == "" {
		userAgent = "unknown"
	}
	sum := sha256.Sum256([]byte(ip + ":" + userAgent))
	return hex.EncodeToString(sum[:])
}

// Vote adds (up) or withdraws a vote. A repeated up-vote returns the current
// count with ErrAlreadyVoted.
func (s *Service) Vote(ctx context.Context, id, ip, userAgent string, up bool) (VoteResult, error) {
	if err := s.allow(s.opts.VoteLimiter, ip); err != nil {
		return VoteResult{}, err
	}
	if err := checkID(id); err != nil {
		return VoteResult{}, err
	}

	voter := VoterHash(ip, userAgent)
	if up {
		count, err := s.store.AddVote(ctx, id, voter)
		if errors.Is(err, storage.ErrAlreadyVoted) {
			return VoteResult{VoteCount: count, Voted: true}, err
		}
		if err != nil {
			return VoteResult{}, err
		}
		return VoteResult{VoteCount: count, Voted: true}, nil
	}

	count, err := s.store.RemoveVote(ctx, id, voter)
	if err != nil {
		return VoteResult{}, err
	}
	return VoteResult{VoteCount: count, Voted: false}, nil
}

// Delete removes a config and forgets its cached parse result.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	s.cache.Evict(id)
	return nil
}

// Block adds a stored config's content to the blocklist and removes it from
// the gallery. It returns the blocked content hash.
func (s *Service) Block(ctx context.Context, slug, reason string) (string, error) {
	if s.opts.Blocklist == nil {
		return "", errors.New("no blocklist configured")
	}
	rec, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return "", err
	}

	threat := security.Threat{Type: "moderation", Confidence: 1, Reason: reason}
	if top := security.HighestThreat(s.detector.Scan(rec.RawConfig)); top != nil && reason == "" {
		threat = *top
	}
	if threat.Reason == "" {
		threat.Reason = "blocked by moderator"
	}

	hash, err := s.opts.Blocklist.BlockContent(rec.RawConfig, threat)
	if err != nil {
		return "", fmt.Errorf("failed to block %s: %w", slug, err)
	}
	if err := s.Delete(ctx, rec.ID); err != nil {
		return hash, err
	}
	logging.Info("Blocked config %s (%s): %s", slug, hash, threat.Reason)
	return hash, nil
}
