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

package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/adaryorg/ghostyle/internal/security"
	"github.com/mattn/go-sqlite3"
	"github.com/sahilm/fuzzy"
)

var (
	ErrNotFound     = errors.New("config not found")
	ErrSlugTaken    = errors.New("slug already taken")
	ErrAlreadyVoted = errors.New("already voted")
)

// ConfigMeta is a config without its raw text, used for listings.
type ConfigMeta struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Background    string    `json:"background"`
	Foreground    string    `json:"foreground"`
	CursorColor   string    `json:"cursorColor"`
	CursorText    string    `json:"cursorText"`
	SelectionBg   string    `json:"selectionBg"`
	SelectionFg   string    `json:"selectionFg"`
	Palette       []string  `json:"palette"`
	FontFamily    string    `json:"fontFamily"`
	FontSize      *float64  `json:"fontSize"`
	CursorStyle   string    `json:"cursorStyle"`
	BgOpacity     float64   `json:"bgOpacity"`
	IsDark        bool      `json:"isDark"`
	Tags          []string  `json:"tags"`
	SourceURL     string    `json:"sourceUrl"`
	AuthorName    string    `json:"authorName"`
	AuthorURL     string    `json:"authorUrl"`
	IsFeatured    bool      `json:"isFeatured"`
	IsSeed        bool      `json:"isSeed"`
	VoteCount     int       `json:"voteCount"`
	ViewCount     int       `json:"viewCount"`
	DownloadCount int       `json:"downloadCount"`
	ContentHash   string    `json:"contentHash"`
	RiskLevel     string    `json:"riskLevel"` // "none", "low", "medium", "high"
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ConfigRecord is a stored config including the cleaned raw text.
type ConfigRecord struct {
	ConfigMeta
	RawConfig string `json:"rawConfig"`
}

// Filters select and order a page of configs.
type Filters struct {
	Query  string
	Tag    string
	IsDark *bool
	Sort   string // "popular" (default), "newest", "trending"
	Page   int
}

// Page is one page of a listing.
type Page struct {
	Configs    []ConfigMeta `json:"configs"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PerPage    int          `json:"perPage"`
	TotalPages int          `json:"totalPages"`
}

type Storage struct {
	db         *sql.DB
	maxEntries int
	detector   *security.Detector
}

// New opens (creating if needed) the gallery database at dbPath.
func New(dbPath string, maxEntries int) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Storage{
		db:         db,
		maxEntries: maxEntries,
		detector:   security.NewDetector(),
	}

	if err := s.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return s, nil
}

func (s *Storage) createTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS configs (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			raw_config TEXT NOT NULL,
			background TEXT NOT NULL,
			foreground TEXT NOT NULL,
			cursor_color TEXT NOT NULL DEFAULT '',
			cursor_text TEXT NOT NULL DEFAULT '',
			selection_bg TEXT NOT NULL DEFAULT '',
			selection_fg TEXT NOT NULL DEFAULT '',
			palette TEXT NOT NULL DEFAULT '[]',
			font_family TEXT NOT NULL DEFAULT '',
			font_size REAL,
			cursor_style TEXT NOT NULL DEFAULT 'block',
			bg_opacity REAL NOT NULL DEFAULT 1.0,
			is_dark BOOLEAN NOT NULL DEFAULT TRUE,
			tags TEXT NOT NULL DEFAULT '[]',
			source_url TEXT NOT NULL DEFAULT '',
			author_name TEXT NOT NULL DEFAULT '',
			author_url TEXT NOT NULL DEFAULT '',
			is_featured BOOLEAN NOT NULL DEFAULT FALSE,
			is_seed BOOLEAN NOT NULL DEFAULT FALSE,
			vote_count INTEGER NOT NULL DEFAULT 0,
			view_count INTEGER NOT NULL DEFAULT 0,
			download_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS votes (
			config_id TEXT NOT NULL REFERENCES configs(id) ON DELETE CASCADE,
			voter_hash TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (config_id, voter_hash)
		);

		CREATE INDEX IF NOT EXISTS idx_configs_created ON configs(created_at);
		CREATE INDEX IF NOT EXISTS idx_configs_votes ON configs(vote_count);
	`
	if _, err := s.db.Exec(query); err != nil {
		return err
	}

	// Columns added after the first release; errors mean they already exist.
	s.db.Exec("ALTER TABLE configs ADD COLUMN content_hash TEXT NOT NULL DEFAULT ''")
	s.db.Exec("ALTER TABLE configs ADD COLUMN risk_level TEXT NOT NULL DEFAULT 'none'")
	s.db.Exec("CREATE INDEX IF NOT EXISTS idx_configs_hash ON configs(content_hash)")

	return nil
}

// NewID returns a random version 4 UUID.
func NewID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(err)
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

var uuidPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// IsValidID reports whether id has the UUID shape used for config IDs.
func IsValidID(id string) bool {
	return uuidPattern.MatchString(id)
}

const metaColumns = `id, slug, title, description, background, foreground, cursor_color, cursor_text,
	selection_bg, selection_fg, palette, font_family, font_size, cursor_style, bg_opacity, is_dark,
	tags, source_url, author_name, author_url, is_featured, is_seed, vote_count, view_count,
	download_count, content_hash, risk_level, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeta(row rowScanner, extra ...any) (ConfigMeta, error) {
	var m ConfigMeta
	var palette, tags string
	var fontSize sql.NullFloat64

	dest := []any{
		&m.ID, &m.Slug, &m.Title, &m.Description, &m.Background, &m.Foreground,
		&m.CursorColor, &m.CursorText, &m.SelectionBg, &m.SelectionFg, &palette,
		&m.FontFamily, &fontSize, &m.CursorStyle, &m.BgOpacity, &m.IsDark, &tags,
		&m.SourceURL, &m.AuthorName, &m.AuthorURL, &m.IsFeatured, &m.IsSeed,
		&m.VoteCount, &m.ViewCount, &m.DownloadCount, &m.ContentHash, &m.RiskLevel,
		&m.CreatedAt, &m.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return m, err
	}
	if fontSize.Valid {
		v := fontSize.Float64
		m.FontSize = &v
	}
	if err := json.Unmarshal([]byte(palette), &m.Palette); err != nil {
		return m, fmt.Errorf("failed to decode palette for %s: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
		return m, fmt.Errorf("failed to decode tags for %s: %w", m.ID, err)
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return m, nil
}

// Insert stores rec. Empty ID, timestamps, content hash and risk level are
// filled in and written back to rec.
func (s *Storage) Insert(ctx context.Context, rec *ConfigRecord) error {
	now := time.Now().UTC()
	if rec.ID == "" {
		rec.ID = NewID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if rec.ContentHash == "" {
		rec.ContentHash = security.CreateHash(rec.RawConfig)
	}
	if rec.RiskLevel == "" {
		rec.RiskLevel = security.Level(s.detector.Scan(rec.RawConfig))
	}
	if rec.CursorStyle == "" {
		rec.CursorStyle = "block"
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}

	palette, err := json.Marshal(rec.Palette)
	if err != nil {
		return fmt.Errorf("failed to encode palette: %w", err)
	}
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	var fontSize sql.NullFloat64
	if rec.FontSize != nil {
		fontSize = sql.NullFloat64{Float64: *rec.FontSize, Valid: true}
	}

	query := `INSERT INTO configs (id, slug, title, description, raw_config, background, foreground,
		cursor_color, cursor_text, selection_bg, selection_fg, palette, font_family, font_size,
		cursor_style, bg_opacity, is_dark, tags, source_url, author_name, author_url, is_featured,
		is_seed, vote_count, view_count, download_count, content_hash, risk_level, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID, rec.Slug, rec.Title, rec.Description, rec.RawConfig, rec.Background, rec.Foreground,
		rec.CursorColor, rec.CursorText, rec.SelectionBg, rec.SelectionFg, string(palette), rec.FontFamily, fontSize,
		rec.CursorStyle, rec.BgOpacity, rec.IsDark, string(tags), rec.SourceURL, rec.AuthorName, rec.AuthorURL, rec.IsFeatured,
		rec.IsSeed, rec.VoteCount, rec.ViewCount, rec.DownloadCount, rec.ContentHash, rec.RiskLevel, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: %s", ErrSlugTaken, rec.Slug)
		}
		return fmt.Errorf("failed to insert config: %w", err)
	}

	return s.prune(ctx)
}

// prune keeps at most maxEntries configs, dropping the least popular first.
func (s *Storage) prune(ctx context.Context) error {
	if s.maxEntries <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM configs
		WHERE id NOT IN (
			SELECT id FROM configs
			ORDER BY is_featured DESC, vote_count DESC, created_at DESC
			LIMIT ?
		)`, s.maxEntries)
	return err
}

func (s *Storage) getOne(ctx context.Context, where string, arg any) (*ConfigRecord, error) {
	query := "SELECT " + metaColumns + ", raw_config FROM configs WHERE " + where
	var rec ConfigRecord
	meta, err := scanMeta(s.db.QueryRowContext(ctx, query, arg), &rec.RawConfig)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	rec.ConfigMeta = meta
	return &rec, nil
}

// GetByID returns the config with the given ID or ErrNotFound.
func (s *Storage) GetByID(ctx context.Context, id string) (*ConfigRecord, error) {
	return s.getOne(ctx, "id = ?", id)
}

// GetBySlug returns the config with the given slug or ErrNotFound.
func (s *Storage) GetBySlug(ctx context.Context, slug string) (*ConfigRecord, error) {
	return s.getOne(ctx, "slug = ?", slug)
}

func (s *Storage) SlugExists(ctx context.Context, slug string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM configs WHERE slug = ? LIMIT 1", slug).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return true, nil
}

var querySanitizer = regexp.MustCompile(`[^a-zA-Z0-9 -]`)

// SanitizeQuery keeps letters, digits, spaces and hyphens, trimmed to 100
// characters.
func SanitizeQuery(q string) string {
	q = strings.TrimSpace(querySanitizer.ReplaceAllString(q, ""))
	if len(q) > 100 {
		q = q[:100]
	}
	return q
}

// List returns one page of configs matching f.
func (s *Storage) List(ctx context.Context, f Filters, perPage int) (*Page, error) {
	if perPage <= 0 {
		perPage = 24
	}
	page := f.Page
	if page < 1 {
		page = 1
	}

	var where []string
	var args []any

	if q := SanitizeQuery(f.Query); q != "" {
		where = append(where, "(title LIKE ? OR description LIKE ?)")
		like := "%" + q + "%"
		args = append(args, like, like)
	}
	if IsValidTag(f.Tag) {
		where = append(where, "tags LIKE ?")
		args = append(args, `%"`+f.Tag+`"%`)
	}
	if f.IsDark != nil {
		where = append(where, "is_dark = ?")
		args = append(args, *f.IsDark)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM configs"+clause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count configs: %w", err)
	}

	var order string
	switch f.Sort {
	case "newest":
		order = "created_at DESC"
	case "trending":
		order = "created_at DESC, vote_count DESC"
	default:
		order = "vote_count DESC"
	}

	query := "SELECT " + metaColumns + " FROM configs" + clause +
		" ORDER BY " + order + ", id LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, query, append(args, perPage, (page-1)*perPage)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list configs: %w", err)
	}
	defer rows.Close()

	configs := []ConfigMeta{}
	for rows.Next() {
		m, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Page{
		Configs:    configs,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
	}, nil
}

// GetAllMeta returns every config without raw text, newest first.
func (s *Storage) GetAllMeta(ctx context.Context) ([]ConfigMeta, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+metaColumns+" FROM configs ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query configs: %w", err)
	}
	defer rows.Close()

	var items []ConfigMeta
	for rows.Next() {
		m, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

type titleSource []ConfigMeta

func (t titleSource) String(i int) string { return t[i].Title }
func (t titleSource) Len() int            { return len(t) }

// Search ranks config titles against query with fuzzy matching.
func (s *Storage) Search(ctx context.Context, query string, limit int) ([]ConfigMeta, error) {
	all, err := s.GetAllMeta(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		if limit > 0 && len(all) > limit {
			all = all[:limit]
		}
		return all, nil
	}

	matches := fuzzy.FindFrom(query, titleSource(all))
	var results []ConfigMeta
	for _, match := range matches {
		results = append(results, all[match.Index])
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (s *Storage) bump(ctx context.Context, column, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE configs SET "+column+" = "+column+" + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Storage) IncrementDownload(ctx context.Context, id string) error {
	return s.bump(ctx, "download_count", id)
}

func (s *Storage) IncrementView(ctx context.Context, id string) error {
	return s.bump(ctx, "view_count", id)
}

// AddVote records one vote per voter and returns the new vote count.
func (s *Storage) AddVote(ctx context.Context, id, voterHash string) (int, error) {
	return s.voteTx(ctx, id, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO votes (config_id, voter_hash, created_at) VALUES (?, ?, ?)",
			id, voterHash, time.Now().UTC())
		if err != nil {
			var sqlErr sqlite3.Error
			if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrConstraint {
				return ErrAlreadyVoted
			}
			return err
		}
		_, err = tx.ExecContext(ctx, "UPDATE configs SET vote_count = vote_count + 1 WHERE id = ?", id)
		return err
	})
}

// RemoveVote withdraws a voter's vote, if any, and returns the new count.
func (s *Storage) RemoveVote(ctx context.Context, id, voterHash string) (int, error) {
	return s.voteTx(ctx, id, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM votes WHERE config_id = ? AND voter_hash = ?", id, voterHash)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, "UPDATE configs SET vote_count = MAX(vote_count - 1, 0) WHERE id = ?", id)
		return err
	})
}

func (s *Storage) voteTx(ctx context.Context, id string, fn func(*sql.Tx) error) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin vote: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx, "SELECT vote_count FROM configs WHERE id = ?", id).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load vote count: %w", err)
	}

	if err := fn(tx); err != nil {
		if errors.Is(err, ErrAlreadyVoted) {
			return count, err
		}
		return 0, fmt.Errorf("failed to record vote: %w", err)
	}

	if err := tx.QueryRowContext(ctx, "SELECT vote_count FROM configs WHERE id = ?", id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to load vote count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit vote: %w", err)
	}
	return count, nil
}

// SetFeatured marks or unmarks a config as featured.
func (s *Storage) SetFeatured(ctx context.Context, id string, featured bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE configs SET is_featured = ?, updated_at = ? WHERE id = ?", featured, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update featured flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM configs WHERE id = ?", id)
	return err
}

// Count returns the total number of stored configs
func (s *Storage) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM configs").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count configs: %w", err)
	}
	return count, nil
}

// DeduplicateExisting removes configs whose cleaned text is identical to
// another one, keeping the most voted and then the oldest copy.
func (s *Storage) DeduplicateExisting(ctx context.Context) (int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content_hash, raw_config FROM configs
		ORDER BY vote_count DESC, created_at ASC, id`)
	if err != nil {
		return 0, fmt.Errorf("failed to query configs: %w", err)
	}

	type entry struct{ id, hash, raw string }
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.hash, &e.raw); err != nil {
			rows.Close()
			return 0, err
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	seen := make(map[string]string)
	var toDelete []string
	for _, e := range entries {
		// Rows from before the content_hash column have an empty hash.
		if e.hash == "" {
			e.hash = security.CreateHash(e.raw)
			if _, err := s.db.ExecContext(ctx, "UPDATE configs SET content_hash = ? WHERE id = ?", e.hash, e.id); err != nil {
				return 0, fmt.Errorf("failed to backfill content hash: %w", err)
			}
		}
		if _, exists := seen[e.hash]; exists {
			toDelete = append(toDelete, e.id)
			continue
		}
		seen[e.hash] = e.id
	}

	removed := 0
	for _, id := range toDelete {
		if err := s.Delete(ctx, id); err != nil {
			return removed, fmt.Errorf("failed to delete duplicate entry %s: %w", id, err)
		}
		removed++
	}
	return removed, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
