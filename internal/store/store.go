// Package store persists audit sessions and their outcomes. The pipeline
// writes through the Provider interface so it stays independent of the
// concrete database.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/partsignal/content-audit/internal/audit"
	"github.com/partsignal/content-audit/internal/catalog"
	"github.com/partsignal/content-audit/internal/resolve"
)

// SessionRecord is the discovery-phase snapshot of one audit session.
type SessionRecord struct {
	ID           uuid.UUID
	Manufacturer string
	Category     string
	CreatedAt    time.Time
	Candidates   []catalog.Candidate
	Channels     []catalog.Channel
}

// Provider persists sessions, resolution outcomes, and audit results.
// Resolution and result writes are keyed by (session, site) and upsert, so a
// retry replaces the stored row the same way it replaces the in-memory one.
type Provider interface {
	SaveSession(ctx context.Context, rec SessionRecord) error
	SaveResolution(ctx context.Context, sessionID uuid.UUID, state resolve.State) error
	SaveResult(ctx context.Context, sessionID uuid.UUID, result audit.Result) error
	Close()
}

// NoOpProvider discards all writes. It is used for runs where persistence is
// not configured.
type NoOpProvider struct{}

// SaveSession for NoOpProvider does nothing.
func (NoOpProvider) SaveSession(_ context.Context, _ SessionRecord) error { return nil }

// SaveResolution for NoOpProvider does nothing.
func (NoOpProvider) SaveResolution(_ context.Context, _ uuid.UUID, _ resolve.State) error {
	return nil
}

// SaveResult for NoOpProvider does nothing.
func (NoOpProvider) SaveResult(_ context.Context, _ uuid.UUID, _ audit.Result) error { return nil }

// Close for NoOpProvider does nothing.
func (NoOpProvider) Close() {}
