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

// Package server exposes the gallery over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/adaryorg/ghostyle/internal/card"
	"github.com/adaryorg/ghostyle/internal/gallery"
	"github.com/adaryorg/ghostyle/internal/ghostty"
	"github.com/adaryorg/ghostyle/internal/logging"
	"github.com/adaryorg/ghostyle/internal/ratelimit"
	"github.com/adaryorg/ghostyle/internal/security"
	"github.com/adaryorg/ghostyle/internal/storage"
)

const (
	listCacheControl   = "public, s-maxage=30, stale-while-revalidate=60"
	detailCacheControl = "public, s-maxage=60, stale-while-revalidate=120"

	cardWidth  = 1200
	cardHeight = 630
)

// Server routes API requests to a gallery service.
type Server struct {
	svc *gallery.Service
	mux *http.ServeMux
}

func New(svc *gallery.Service) *Server {
	s := &Server{svc: svc, mux: http.NewServeMux()}
	s.RegisterRoutes(s.mux)
	return s
}

// RegisterRoutes registers the API routes on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/configs", s.handleList)
	mux.HandleFunc("POST /api/configs", s.handleUpload)
	mux.HandleFunc("GET /api/configs/{id}", s.handleGet)
	mux.HandleFunc("GET /api/configs/{id}/download", s.handleDownload)
	mux.HandleFunc("GET /api/configs/{id}/card.png", s.handleCard)
	mux.HandleFunc("POST /api/configs/{id}/vote", s.handleVote)
	mux.HandleFunc("DELETE /api/configs/{id}/vote", s.handleVote)
	mux.HandleFunc("GET /api/slugs/{slug}", s.handlePreview)
	mux.HandleFunc("POST /api/validate", s.handleValidate)
	mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the routed API wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

// ListenAndServe serves handler on addr until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("HTTP server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logging.Info("Shutting down HTTP server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps gallery errors to status codes. fallback is the
// message used for unexpected failures.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var inputErr *gallery.InputError
	var rlErr *gallery.RateLimitError

	switch {
	case errors.As(err, &inputErr):
		writeError(w, http.StatusBadRequest, inputErr.Message)
	case errors.As(err, &rlErr):
		w.Header().Set("Retry-After", strconv.Itoa(rlErr.Decision.RetryAfter(time.Now())))
		if rlErr.Limiter == "upload" {
			writeError(w, http.StatusTooManyRequests, "Too many uploads. Please try again later.")
		} else {
			writeError(w, http.StatusTooManyRequests, "Too many requests. Please slow down.")
		}
	case errors.Is(err, gallery.ErrNotFound):
		writeError(w, http.StatusNotFound, "Config not found")
	case errors.Is(err, gallery.ErrBlocked):
		writeError(w, http.StatusForbidden, "This config has been blocked")
	case errors.Is(err, gallery.ErrSlugExhausted):
		writeError(w, http.StatusInternalServerError, "Could not generate a unique slug. Try a different title.")
	default:
		logging.Error("%s: %v", fallback, err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := storage.Filters{
		Query: q.Get("q"),
		Tag:   q.Get("tag"),
		Sort:  q.Get("sort"),
	}
	switch q.Get("dark") {
	case "true":
		dark := true
		filters.IsDark = &dark
	case "false":
		dark := false
		filters.IsDark = &dark
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		filters.Page = page
	}

	page, err := s.svc.List(r.Context(), filters)
	if err != nil {
		writeServiceError(w, err, "Failed to load configs")
		return
	}
	w.Header().Set("Cache-Control", listCacheControl)
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// JSON escaping can double the size of the config text.
	limit := int64(s.svc.Options().MaxConfigBytes)*2 + 16*1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	var req gallery.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusBadRequest, "Config too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.ClientIP = ratelimit.ClientIP(r)

	res, err := s.svc.Upload(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Failed to create config")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// configDetail is a stored config plus the parsed fields that are not
// persisted as columns.
type configDetail struct {
	*storage.ConfigRecord
	UnfocusedSplitOpacity *float64             `json:"unfocusedSplitOpacity,omitempty"`
	UnfocusedSplitFill    string               `json:"unfocusedSplitFill,omitempty"`
	SplitDividerColor     string               `json:"splitDividerColor,omitempty"`
	Theme                 string               `json:"theme,omitempty"`
	Errors                []ghostty.Diagnostic `json:"errors"`
	Warnings              []ghostty.Diagnostic `json:"warnings"`
}

func newConfigDetail(p *gallery.Preview) configDetail {
	cfg := p.Result.Config
	return configDetail{
		ConfigRecord:          p.Record,
		UnfocusedSplitOpacity: cfg.UnfocusedSplitOpacity,
		UnfocusedSplitFill:    cfg.UnfocusedSplitFill,
		SplitDividerColor:     cfg.SplitDividerColor,
		Theme:                 cfg.Theme,
		Errors:                p.Result.Errors,
		Warnings:              p.Result.Warnings,
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "Failed to load config")
		return
	}
	w.Header().Set("Cache-Control", detailCacheControl)
	writeJSON(w, http.StatusOK, newConfigDetail(p))
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Preview(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, err, "Failed to load config")
		return
	}
	writeJSON(w, http.StatusOK, newConfigDetail(p))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	filename, text, err := s.svc.Download(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "Failed to download config")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "Failed to load config")
		return
	}
	png, err := card.Render(p.Record.Title, p.Result.Config, cardWidth, cardHeight)
	if err != nil {
		writeServiceError(w, err, "Failed to render card")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	up := r.Method == http.MethodPost
	res, err := s.svc.Vote(r.Context(), r.PathValue("id"), ratelimit.ClientIP(r), r.UserAgent(), up)
	if errors.Is(err, gallery.ErrAlreadyVoted) {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "Already voted", "voted": true})
		return
	}
	if err != nil {
		if up {
			writeServiceError(w, err, "Failed to record vote")
		} else {
			writeServiceError(w, err, "Failed to remove vote")
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type validateResponse struct {
	Config   ghostty.ParsedConfig `json:"config"`
	Errors   []ghostty.Diagnostic `json:"errors"`
	Warnings []ghostty.Diagnostic `json:"warnings"`
	Cleaned  string               `json:"cleaned"`
	Risks    []security.Threat    `json:"risks"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.svc.Options().MaxConfigBytes))
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Config too large (max %dKB)", s.svc.Options().MaxConfigBytes/1000))
		return
	}

	v := s.svc.Validate(string(body))
	risks := v.Risks
	if risks == nil {
		risks = []security.Threat{}
	}
	writeJSON(w, http.StatusOK, validateResponse{
		Config:   v.Result.Config,
		Errors:   v.Result.Errors,
		Warnings: v.Result.Warnings,
		Cleaned:  v.Cleaned,
		Risks:    risks,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.svc.Store().Count(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"configs": count,
		"cache":   s.svc.CacheStats(),
	})
}
