package headless

import (
	"context"
	"errors"

	"github.com/partsignal/content-audit/internal/audit"
)

// Noop implements audit.ContentFetcher but always returns an error to
// indicate that headless browsing is not available in the current build. The
// audit engine maps the error to a blocked result.
type Noop struct{}

// NewNoop creates a new Noop fetcher.
func NewNoop() *Noop {
	return &Noop{}
}

// Fetch returns an error since this is a stub implementation.
func (Noop) Fetch(_ context.Context, _ string) (audit.Page, error) {
	return audit.Page{}, errors.New("headless fetcher not configured")
}
