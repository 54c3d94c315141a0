// Package publisher defines the interface for notifying downstream systems
// about pipeline milestones (session discovered, audits completed). The
// abstraction keeps the pipeline independent of the message broker.
package publisher

import "context"

// Provider publishes one JSON-encoded payload per call.
type Provider interface {
	// Publish sends the payload to the named topic and returns the broker's
	// message ID.
	Publish(ctx context.Context, topic string, payload any) (string, error)
	// Close releases broker resources.
	Close() error
}

// Topics published by the pipeline.
const (
	TopicSessionDiscovered = "session-discovered"
	TopicAuditsCompleted   = "audits-completed"
)

// NoOpProvider discards all publishes. It is used when no broker is
// configured.
type NoOpProvider struct{}

// Publish for NoOpProvider does nothing.
func (NoOpProvider) Publish(_ context.Context, _ string, _ any) (string, error) {
	return "", nil
}

// Close for NoOpProvider does nothing.
func (NoOpProvider) Close() error { return nil }
