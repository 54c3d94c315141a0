package audit

import (
	"context"
	"fmt"
	"strings"
)

// Role distinguishes the source-of-truth page from resale listings.
type Role string

// Audit roles.
const (
	RoleManufacturer Role = "manufacturer"
	RoleDistributor  Role = "distributor"
)

// Score is the per-field completeness tier.
type Score string

// Field scores: high = present/complete, medium = partial, low = missing.
const (
	ScoreHigh   Score = "high"
	ScoreMedium Score = "medium"
	ScoreLow    Score = "low"
)

// Weight maps a score to its contribution to the overall 0-100 score.
func (s Score) Weight() (int, bool) {
	switch s {
	case ScoreHigh:
		return 100, true
	case ScoreMedium:
		return 50, true
	case ScoreLow:
		return 0, true
	}
	return 0, false
}

// ContentSource records where a result's evidence came from.
type ContentSource string

// Content sources. Blocked means no page content could be retrieved and
// scoring was withheld entirely.
const (
	SourceLive    ContentSource = "live"
	SourceBlocked ContentSource = "blocked"
)

// FieldAssessment is the audit of a single rubric field.
type FieldAssessment struct {
	// Value summarizes what the page shows, at most 30 words, or "MISSING".
	Value string `json:"value"`
	Score Score  `json:"score"`
	// Notes describes the gap when the score is below high.
	Notes string `json:"notes"`
}

// Target identifies one page to audit.
type Target struct {
	SiteName     string `json:"siteName"`
	Role         Role   `json:"role"`
	URL          string `json:"url"`
	PartNumber   string `json:"partNumber"`
	Manufacturer string `json:"manufacturer"`
}

// Validate rejects incomplete targets before any external call is made.
func (t Target) Validate() error {
	if strings.TrimSpace(t.SiteName) == "" {
		return fmt.Errorf("audit target has no site name")
	}
	if t.Role != RoleManufacturer && t.Role != RoleDistributor {
		return fmt.Errorf("audit target %s has unknown role %q", t.SiteName, t.Role)
	}
	if strings.TrimSpace(t.URL) == "" {
		return fmt.Errorf("audit target %s has no url", t.SiteName)
	}
	return nil
}

// Result is the complete audit of one target. A later retry for the same
// target replaces the Result wholesale; fields are never patched
// individually, so ContentSource and the field map stay mutually
// consistent.
type Result struct {
	SiteName      string        `json:"siteName"`
	Role          Role          `json:"role"`
	URL           string        `json:"url"`
	ContentSource ContentSource `json:"contentSource"`
	// ContentTruncated records that the fetched text hit the length cap.
	ContentTruncated bool `json:"contentTruncated,omitempty"`

	// OverallScore is nil when the result is blocked.
	OverallScore *int                         `json:"overallScore"`
	TopGaps      []FieldKey                   `json:"topGaps,omitempty"`
	Summary      string                       `json:"summary,omitempty"`
	Fields       map[FieldKey]FieldAssessment `json:"fields,omitempty"`

	// SnapshotURI points at the archived page text this result was scored
	// against, when an archiver is configured.
	SnapshotURI string `json:"snapshotUri,omitempty"`
}

// Blocked reports whether scoring was withheld for this result.
func (r Result) Blocked() bool {
	return r.ContentSource == SourceBlocked
}

// Validate enforces the blocked invariant: a blocked result carries no
// score, summary, or fields.
func (r Result) Validate() error {
	if r.Blocked() {
		if r.OverallScore != nil || r.Summary != "" || len(r.Fields) > 0 || len(r.TopGaps) > 0 {
			return fmt.Errorf("blocked result for %s must not carry scores", r.SiteName)
		}
		return nil
	}
	if r.ContentSource != SourceLive {
		return fmt.Errorf("result for %s has unknown content source %q", r.SiteName, r.ContentSource)
	}
	if r.OverallScore == nil {
		return fmt.Errorf("live result for %s has no overall score", r.SiteName)
	}
	return nil
}

// Page is bounded plain-text page content.
type Page struct {
	Content   string
	Truncated bool
}

// ContentFetcher retrieves live page text for a URL. Implementations report
// failures as errors; the engine maps every failure to the blocked state.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// TextGenerator produces generated text for a single user prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Archiver persists the page text a result was scored against and returns a
// URI for it. Archiving failures never fail an audit.
type Archiver interface {
	Archive(ctx context.Context, session [16]byte, siteName string, content []byte) (string, error)
}
