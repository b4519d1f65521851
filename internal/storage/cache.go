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
	"container/list"
	"context"
	"sync"

	"github.com/adaryorg/ghostyle/internal/ghostty"
)

// ParsedCache keeps parse results for recently previewed configs with LRU
// eviction. Entries are keyed by config ID and checked against the content
// hash so an edited config is parsed again.
type ParsedCache struct {
	storage *Storage

	entries  map[string]*list.Element // id -> list element for O(1) access
	lru      *list.List
	capacity int

	hits   int
	misses int

	mu sync.Mutex
}

type parsedEntry struct {
	id     string
	hash   string
	result ghostty.Result
}

// NewParsedCache creates a cache holding at most capacity results.
func NewParsedCache(storage *Storage, capacity int) *ParsedCache {
	if capacity <= 0 {
		capacity = 256
	}
	return &ParsedCache{
		storage:  storage,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
		capacity: capacity,
	}
}

// Get returns the parse result for rec, parsing and caching it on a miss.
func (c *ParsedCache) Get(rec *ConfigRecord) ghostty.Result {
	c.mu.Lock()
	if elem, ok := c.entries[rec.ID]; ok {
		entry := elem.Value.(*parsedEntry)
		if entry.hash == rec.ContentHash {
			c.lru.MoveToFront(elem)
			c.hits++
			c.mu.Unlock()
			return entry.result
		}
	}
	c.misses++
	c.mu.Unlock()

	result := ghostty.Parse(rec.RawConfig)
	c.put(rec.ID, rec.ContentHash, result)
	return result
}

// Load fetches the record by ID and returns it with its parse result.
func (c *ParsedCache) Load(ctx context.Context, id string) (*ConfigRecord, ghostty.Result, error) {
	rec, err := c.storage.GetByID(ctx, id)
	if err != nil {
		return nil, ghostty.Result{}, err
	}
	return rec, c.Get(rec), nil
}

func (c *ParsedCache) put(id, hash string, result ghostty.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[id]; ok {
		entry := elem.Value.(*parsedEntry)
		entry.hash = hash
		entry.result = result
		c.lru.MoveToFront(elem)
		return
	}

	c.entries[id] = c.lru.PushFront(&parsedEntry{id: id, hash: hash, result: result})
	for c.lru.Len() > c.capacity {
		c.evictOldest()
	}
}

// evictOldest removes the least recently used entry
func (c *ParsedCache) evictOldest() {
	oldest := c.lru.Back()
	if oldest == nil {
		return
	}
	entry := oldest.Value.(*parsedEntry)
	c.lru.Remove(oldest)
	delete(c.entries, entry.id)
}

// Evict drops the cached result for id, if any.
func (c *ParsedCache) Evict(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[id]; ok {
		c.lru.Remove(elem)
		delete(c.entries, id)
	}
}

// CacheStats describes cache occupancy and effectiveness.
type CacheStats struct {
	Entries  int     `json:"entries"`
	Capacity int     `json:"capacity"`
	Hits     int     `json:"hits"`
	Misses   int     `json:"misses"`
	HitRatio float64 `json:"hit_ratio"`
}

func (c *ParsedCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		Entries:  c.lru.Len(),
		Capacity: c.capacity,
		Hits:     c.hits,
		Misses:   c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRatio = float64(c.hits) / float64(total)
	}
	return stats
}
