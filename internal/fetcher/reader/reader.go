// Package readerfetcher adapts the hosted reader proxy to the audit
// engine's content fetcher.
package readerfetcher

import (
	"context"
	"fmt"

	"github.com/partsignal/content-audit/internal/audit"
	"github.com/partsignal/content-audit/pkg/jina"
)

// Fetcher implements audit.ContentFetcher over a jina.Reader.
type Fetcher struct {
	reader *jina.Reader
}

// New builds a Fetcher.
func New(reader *jina.Reader) (*Fetcher, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader client is required")
	}
	return &Fetcher{reader: reader}, nil
}

// Fetch retrieves bounded plain text for a URL.
func (f *Fetcher) Fetch(ctx context.Context, target string) (audit.Page, error) {
	page, err := f.reader.ReadPage(ctx, target)
	if err != nil {
		return audit.Page{}, err
	}
	return audit.Page{Content: page.Content, Truncated: page.Truncated}, nil
}
