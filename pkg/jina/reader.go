// Package jina fetches live page content as plain text through the Jina AI
// reader proxy (r.jina.ai). The reader renders the target page and returns
// its readable text, which keeps this service out of the scraping business.
package jina

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultEndpoint = "https://r.jina.ai"
	// DefaultContentCap bounds returned text so downstream generation calls
	// stay inside their context window.
	DefaultContentCap = 8000
)

// Page is extracted page text, truncated at the configured cap.
type Page struct {
	Content   string
	Truncated bool
}

// Config controls reader behavior.
type Config struct {
	Endpoint string
	// ContentCap is the maximum number of bytes of text returned; longer
	// content is truncated and flagged.
	ContentCap int
	Timeout    time.Duration
}

// Reader fetches pages through the reader proxy. The reader endpoint needs
// no credential for public pages, so New cannot fail on configuration.
type Reader struct {
	cfg  Config
	http *http.Client
}

// New builds a Reader, applying defaults for unset fields.
func New(cfg Config) *Reader {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.ContentCap <= 0 {
		cfg.ContentCap = DefaultContentCap
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Reader{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// ReadPage fetches the target URL's readable text. Any non-success from the
// proxy is an error; callers map errors and empty content to the blocked
// state rather than propagating them.
func (r *Reader) ReadPage(ctx context.Context, target string) (Page, error) {
	if strings.TrimSpace(target) == "" {
		return Page{}, fmt.Errorf("jina: target url is required")
	}
	endpoint := strings.TrimSuffix(r.cfg.Endpoint, "/") + "/" + target

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Page{}, fmt.Errorf("jina: build request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("X-Return-Format", "text")
	req.Header.Set("X-Timeout", "15")

	resp, err := r.http.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("jina: request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("jina: fetch failed with status %d", resp.StatusCode)
	}

	// Read one byte past the cap so truncation can be detected without
	// buffering arbitrarily large pages.
	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(r.cfg.ContentCap)+1))
	if err != nil {
		return Page{}, fmt.Errorf("jina: read response: %w", err)
	}
	if len(body) > r.cfg.ContentCap {
		return Page{Content: string(body[:r.cfg.ContentCap]), Truncated: true}, nil
	}
	return Page{Content: string(body)}, nil
}
