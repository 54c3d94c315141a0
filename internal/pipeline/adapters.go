package pipeline

import (
	"context"
	"errors"

	"github.com/partsignal/content-audit/internal/resolve"
	"github.com/partsignal/content-audit/pkg/anthropic"
	"github.com/partsignal/content-audit/pkg/serper"
)

// AnthropicGenerator adapts the anthropic client to the single-prompt
// generator interface the pipeline, resolution, and audit engines share.
type AnthropicGenerator struct {
	client *anthropic.Client
}

// NewAnthropicGenerator creates an AnthropicGenerator.
func NewAnthropicGenerator(client *anthropic.Client) (*AnthropicGenerator, error) {
	if client == nil {
		return nil, errors.New("pipeline: anthropic client is required")
	}
	return &AnthropicGenerator{client: client}, nil
}

// Generate sends the prompt as a single user message.
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.client.Generate(ctx, []anthropic.Message{{Role: "user", Content: prompt}})
}

// SerperSearcher adapts the serper client to the resolution engine's
// searcher interface.
type SerperSearcher struct {
	client *serper.Client
}

// NewSerperSearcher creates a SerperSearcher.
func NewSerperSearcher(client *serper.Client) (*SerperSearcher, error) {
	if client == nil {
		return nil, errors.New("pipeline: serper client is required")
	}
	return &SerperSearcher{client: client}, nil
}

// Search maps search hits into the resolution engine's shape.
func (s *SerperSearcher) Search(ctx context.Context, query string) ([]resolve.SearchResult, error) {
	hits, err := s.client.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	results := make([]resolve.SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, resolve.SearchResult{
			Title:   h.Title,
			URL:     h.URL,
			Snippet: h.Snippet,
		})
	}
	return results, nil
}
