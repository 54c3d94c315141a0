// Package progress defines the live status events emitted by the pipeline
// phases. Observability sinks and the presentation layer consume the same
// stream: every resolution and audit target reports its own start and
// settle milestones independently of its siblings.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the milestone an Event represents.
type Stage string

// Supported progress stages.
const (
	StageSessionStart  Stage = "SESSION_START"
	StageDiscoveryDone Stage = "DISCOVERY_DONE"
	StageResolveStart  Stage = "RESOLVE_START"
	StageResolveDone   Stage = "RESOLVE_DONE"
	StageAuditStart    Stage = "AUDIT_START"
	StageAuditDone     Stage = "AUDIT_DONE"
	StageSessionError  Stage = "SESSION_ERROR"
)

// Event is a single pipeline milestone.
type Event struct {
	// SessionID identifies the audit session in 16-byte UUID form.
	SessionID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage is the milestone that occurred.
	Stage Stage
	// Site labels per-target events with the target's display name.
	Site string
	// URL is the target URL for resolve/audit events.
	URL string
	// Dur is the elapsed time, set on *_DONE events.
	Dur time.Duration
	// Note carries low-volume context: a resolution status, "blocked", or
	// error text.
	Note string
}

// Validate performs coarse validation before an event enters the hub.
func (e Event) Validate() error {
	if e.SessionID == [16]byte{} {
		return errors.New("session id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageSessionStart, StageDiscoveryDone, StageSessionError:
	case StageResolveStart, StageResolveDone, StageAuditStart, StageAuditDone:
		if e.Site == "" {
			return fmt.Errorf("%s requires a site", e.Stage)
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// SessionUUID converts the binary session ID to uuid.UUID.
func (e Event) SessionUUID() uuid.UUID {
	return uuid.UUID(e.SessionID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
