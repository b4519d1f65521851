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

// Package ratelimit implements the fixed-window request limits applied to
// uploads and votes.
package ratelimit

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// Decision is the outcome of a single Check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the number of whole seconds until the window resets, at
// least 1.
func (d Decision) RetryAfter(now time.Time) int {
	secs := int((d.ResetAt.Sub(now) + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

type window struct {
	count   int
	resetAt time.Time
}

// Limiter counts requests per key in fixed windows. Each named limiter keeps
// its own windows, so upload and vote limits never share counts.
type Limiter struct {
	name   string
	max    int
	window time.Duration
	now    func() time.Time

	entries map[string]*window
	mu      sync.Mutex
}

// New creates a limiter allowing max requests per key every window.
func New(name string, max int, win time.Duration) *Limiter {
	return &Limiter{
		name:    name,
		max:     max,
		window:  win,
		now:     time.Now,
		entries: make(map[string]*window),
	}
}

// WithClock replaces the time source; used by tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
	return l
}

func (l *Limiter) Name() string { return l.name }

// Check records a request for key and reports whether it is allowed.
func (l *Limiter) Check(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[key]
	if !ok || entry.resetAt.Before(now) {
		resetAt := now.Add(l.window)
		l.entries[key] = &window{count: 1, resetAt: resetAt}
		return Decision{Allowed: true, Remaining: l.max - 1, ResetAt: resetAt}
	}

	if entry.count >= l.max {
		return Decision{Allowed: false, Remaining: 0, ResetAt: entry.resetAt}
	}

	entry.count++
	return Decision{Allowed: true, Remaining: l.max - entry.count, ResetAt: entry.resetAt}
}

// Update changes the limit and window. Open windows keep their reset time.
func (l *Limiter) Update(max int, win time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.max = max
	l.window = win
}

// Sweep drops windows that expired before now and returns how many were
// removed.
func (l *Limiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, entry := range l.entries {
		if entry.resetAt.Before(now) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, else
// "unknown".
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return "unknown"
}
