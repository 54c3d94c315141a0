// Package catalog defines the discovery-phase domain types: candidate
// products and the distribution channels that carry them. Values are created
// by the discovery orchestrator from generated output and are immutable
// afterwards, except for classifier enrichment on Channel.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Confidence is a categorical certainty tier attached to discovered items
// and to URL suggestions.
type Confidence string

// Confidence tiers.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Known reports whether c is one of the defined tiers.
func (c Confidence) Known() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// Relationship tags how a channel relates to the manufacturer.
type Relationship string

// Relationship tags emitted by discovery.
const (
	RelationshipAuthorized          Relationship = "authorized"
	RelationshipAuthorizedPreferred Relationship = "authorized-preferred"
	RelationshipBroadCatalog        Relationship = "broad-catalog"
	RelationshipRegional            Relationship = "regional"
)

// Candidate is a discovered product identified by part number.
type Candidate struct {
	PartNumber string     `json:"partNumber"`
	Name       string     `json:"name"`
	Confidence Confidence `json:"confidence"`
	Reason     string     `json:"reason"`
	Sources    []string   `json:"sources,omitempty"`

	// Known product-page URLs the generation service was confident about.
	// Empty strings mean "not confident"; discovery never fabricates these.
	ManufacturerURL string `json:"manufacturerUrl,omitempty"`
	DigikeyURL      string `json:"digikeyUrl,omitempty"`
	MouserURL       string `json:"mouserUrl,omitempty"`
	ArrowURL        string `json:"arrowUrl,omitempty"`
}

// Validate checks the fields discovery must supply.
func (c Candidate) Validate() error {
	if strings.TrimSpace(c.PartNumber) == "" {
		return errors.New("candidate part number is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("candidate %s has no display name", c.PartNumber)
	}
	return nil
}

// Channel is a distribution outlet for a manufacturer's products. The
// classifier enriches DirectlyAddressable, Note, and FallbackURL in place;
// discovery fills everything else.
type Channel struct {
	Name         string       `json:"name"`
	Domain       string       `json:"domain"`
	Confidence   Confidence   `json:"confidence"`
	Relationship Relationship `json:"relationship"`
	VerticalFit  string       `json:"verticalFit"`
	SearchURL    string       `json:"searchUrl,omitempty"`
	Rank         int          `json:"rank,omitempty"`

	// DirectlyAddressable means product pages are reachable by a URL built
	// from an identifier, without a search step.
	DirectlyAddressable bool   `json:"directlyAddressable"`
	Note                string `json:"note,omitempty"`
	FallbackURL         string `json:"fallbackUrl,omitempty"`
}

// Validate checks the fields discovery must supply.
func (ch Channel) Validate() error {
	if strings.TrimSpace(ch.Name) == "" {
		return errors.New("channel name is required")
	}
	if strings.TrimSpace(ch.Domain) == "" {
		return fmt.Errorf("channel %s has no domain", ch.Name)
	}
	return nil
}
