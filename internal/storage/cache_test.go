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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParsedCache(t *testing.T) {
	storage := createTestStorage(t, 0)

	cache := NewParsedCache(storage, 0)
	if cache.Stats().Capacity != 256 {
		t.Errorf("Expected default capacity 256, got %d", cache.Stats().Capacity)
	}

	cache = NewParsedCache(storage, 5)
	if cache.Stats().Capacity != 5 {
		t.Errorf("Expected capacity 5, got %d", cache.Stats().Capacity)
	}
}

func TestParsedCacheLoad(t *testing.T) {
	ctx := context.Background()
	storage := createTestStorage(t, 0)
	cache := NewParsedCache(storage, 4)

	rec := testRecord("cached", "Cached")
	require.NoError(t, storage.Insert(ctx, rec))

	got, result, err := cache.Load(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "#1e1e2e", result.Config.Background)

	_, _, err = cache.Load(ctx, rec.ID)
	require.NoError(t, err)

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 1, stats.Misses)
	assert.Equal(t, 0.5, stats.HitRatio)

	_, _, err = cache.Load(ctx, NewID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParsedCacheReparsesChangedContent(t *testing.T) {
	storage := createTestStorage(t, 0)
	cache := NewParsedCache(storage, 4)

	rec := &ConfigRecord{ConfigMeta: ConfigMeta{ID: "a", ContentHash: "h1"}, RawConfig: "background = #111111"}
	assert.Equal(t, "#111111", cache.Get(rec).Config.Background)

	rec.RawConfig = "background = #222222"
	rec.ContentHash = "h2"
	assert.Equal(t, "#222222", cache.Get(rec).Config.Background)
	assert.Equal(t, 1, cache.Stats().Entries)
}

func TestParsedCacheEviction(t *testing.T) {
	storage := createTestStorage(t, 0)
	cache := NewParsedCache(storage, 2)

	recs := make([]*ConfigRecord, 3)
	for i := range recs {
		recs[i] = &ConfigRecord{
			ConfigMeta: ConfigMeta{ID: fmt.Sprintf("id-%d", i), ContentHash: "h"},
			RawConfig:  fmt.Sprintf("background = #00000%d", i),
		}
	}

	cache.Get(recs[0])
	cache.Get(recs[1])
	cache.Get(recs[0]) // id-0 becomes most recent
	cache.Get(recs[2]) // evicts id-1

	cache.mu.Lock()
	_, has0 := cache.entries["id-0"]
	_, has1 := cache.entries["id-1"]
	_, has2 := cache.entries["id-2"]
	cache.mu.Unlock()

	assert.True(t, has0)
	assert.False(t, has1)
	assert.True(t, has2)

	cache.Evict("id-0")
	assert.Equal(t, 1, cache.Stats().Entries)
	cache.Evict("missing")
}
