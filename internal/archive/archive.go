// Package archive persists the plain-text page snapshots each audit was
// scored against, so a result can always be traced back to the evidence the
// scoring saw. This abstraction keeps the pipeline independent of a specific
// backend (Google Cloud Storage, the local filesystem, or memory).
package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Store defines the common interface for a snapshot archive.
type Store interface {
	// Save writes content under the given key and returns a backend URI.
	Save(ctx context.Context, key string, content []byte) (string, error)
}

// Hasher produces a stable digest for snapshot content.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// NoOpStore discards snapshots. It is useful for dry runs where pages are
// fetched and scored but evidence is not retained.
type NoOpStore struct{}

// Save for NoOpStore does nothing and always returns an empty URI.
func (NoOpStore) Save(_ context.Context, _ string, _ []byte) (string, error) {
	return "", nil
}

// Key builds the archive path for one audited page: the session, a
// site slug, and a content digest prefix, so re-audits of changed pages
// archive side by side instead of overwriting.
func Key(session uuid.UUID, siteName string, h Hasher, content []byte) (string, error) {
	digest, err := h.Hash(content)
	if err != nil {
		return "", fmt.Errorf("hash snapshot: %w", err)
	}
	if len(digest) > 16 {
		digest = digest[:16]
	}
	return fmt.Sprintf("sessions/%s/%s/%s.txt", session, slug(siteName), digest), nil
}

// slug lowercases a site name and flattens everything non-alphanumeric to
// single dashes.
func slug(name string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			dash = false
		default:
			if !dash && sb.Len() > 0 {
				sb.WriteByte('-')
				dash = true
			}
		}
	}
	out := strings.TrimSuffix(sb.String(), "-")
	if out == "" {
		return "site"
	}
	return out
}
