package archive

import (
	"context"

	"github.com/google/uuid"
)

// Recorder composes a Store and a Hasher into the archive hook the audit
// engine consumes.
type Recorder struct {
	store  Store
	hasher Hasher
}

// NewRecorder builds a Recorder.
func NewRecorder(store Store, hasher Hasher) *Recorder {
	return &Recorder{store: store, hasher: hasher}
}

// Archive writes one scored page snapshot and returns its backend URI.
func (r *Recorder) Archive(ctx context.Context, session [16]byte, siteName string, content []byte) (string, error) {
	key, err := Key(uuid.UUID(session), siteName, r.hasher, content)
	if err != nil {
		return "", err
	}
	return r.store.Save(ctx, key, content)
}
