// Package resolve finds the most specific product-detail URL for each audit
// target. Every target runs the same fallback cascade: a domain-rule URL,
// then site-restricted search, then a generation call selecting the best
// on-domain result. A target that exhausts the cascade keeps its domain-rule
// URL and is labeled fallback, never left empty.
package resolve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/partsignal/content-audit/internal/audit"
	"github.com/partsignal/content-audit/internal/extract"
	"github.com/partsignal/content-audit/internal/knowledge"
	"github.com/partsignal/content-audit/internal/metrics"
	"github.com/partsignal/content-audit/internal/progress"
)

// Status is a target's resolution state. Transitions run strictly forward:
// resolving settles to resolved or fallback; a later user edit re-labels
// fallback as resolved.
type Status string

// Resolution statuses.
const (
	StatusResolving Status = "resolving"
	StatusResolved  Status = "resolved"
	StatusFallback  Status = "fallback"
)

// Target is one page to locate: the manufacturer or one selected channel.
type Target struct {
	SiteName     string     `json:"siteName"`
	Role         audit.Role `json:"role"`
	Domain       string     `json:"domain,omitempty"`
	Manufacturer string     `json:"manufacturer"`
	PartNumber   string     `json:"partNumber"`
	PartName     string     `json:"partName,omitempty"`
	// InitialURL overrides the computed domain-rule URL when discovery
	// already produced a known page for this target.
	InitialURL string `json:"initialUrl,omitempty"`
}

// Validate rejects incomplete targets before any external call is made.
func (t Target) Validate() error {
	if strings.TrimSpace(t.SiteName) == "" {
		return fmt.Errorf("resolution target has no site name")
	}
	if t.Role != audit.RoleManufacturer && t.Role != audit.RoleDistributor {
		return fmt.Errorf("resolution target %s has unknown role %q", t.SiteName, t.Role)
	}
	if strings.TrimSpace(t.PartNumber) == "" {
		return fmt.Errorf("resolution target %s has no part number", t.SiteName)
	}
	return nil
}

// State is the settled outcome for one target.
type State struct {
	SiteName string     `json:"siteName"`
	Role     audit.Role `json:"role"`
	URL      string     `json:"url"`
	Status   Status     `json:"status"`
	// Reason is the generation service's rationale when Status is resolved.
	Reason string `json:"reason,omitempty"`
}

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher issues one web search. Errors are treated as empty result lists
// by the engine, never as fatal.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// TextGenerator produces generated text for a single user prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// maxSelectionCandidates caps how many search hits are offered to the
// generation service.
const maxSelectionCandidates = 5

// Engine runs the resolution cascade.
type Engine struct {
	searcher Searcher
	gen      TextGenerator
	emitter  progress.Emitter
	logger   *zap.Logger
}

// NewEngine builds an Engine. The emitter may be nil.
func NewEngine(searcher Searcher, gen TextGenerator, emitter progress.Emitter, logger *zap.Logger) (*Engine, error) {
	if searcher == nil {
		return nil, fmt.Errorf("resolution engine requires a searcher")
	}
	if gen == nil {
		return nil, fmt.Errorf("resolution engine requires a text generator")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{searcher: searcher, gen: gen, emitter: emitter, logger: logger}, nil
}

// ResolveAll runs the cascade for every target concurrently and blocks until
// all of them have settled. One collector applies each outcome by site name,
// so no state is shared between in-flight targets; observe, when non-nil, is
// invoked from the collector as each target settles. A target that fails
// internally degrades to fallback; it never cancels or delays its siblings.
func (e *Engine) ResolveAll(ctx context.Context, session [16]byte, targets []Target, observe func(State)) map[string]State {
	updates := make(chan State, len(targets))
	var g errgroup.Group
	for _, target := range targets {
		target := target
		g.Go(func() error {
			updates <- e.Resolve(ctx, session, target)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(updates)
	}()

	states := make(map[string]State, len(targets))
	for st := range updates {
		states[st.SiteName] = st
		if observe != nil {
			observe(st)
		}
	}
	return states
}

// Resolve runs the cascade for one target. It always returns a settled
// State: resolved with a generation-selected URL, or fallback with the
// domain-rule URL.
func (e *Engine) Resolve(ctx context.Context, session [16]byte, target Target) State {
	start := time.Now()
	e.emit(progress.Event{
		SessionID: session, TS: start, Stage: progress.StageResolveStart,
		Site: target.SiteName,
	})

	initial := e.initialURL(target)
	domain := target.Domain
	if domain == "" {
		domain = hostOf(initial)
	}

	state := State{SiteName: target.SiteName, Role: target.Role, URL: initial, Status: StatusFallback}
	if suggestion, ok := e.selectURL(ctx, target, domain, initial); ok {
		state.URL = suggestion.URL
		state.Status = StatusResolved
		state.Reason = suggestion.Reason
	}

	e.emit(progress.Event{
		SessionID: session, TS: time.Now(), Stage: progress.StageResolveDone,
		Site: target.SiteName, URL: state.URL, Dur: time.Since(start),
		Note: string(state.Status),
	})
	return state
}

// initialURL computes the step-1 domain-rule URL.
func (e *Engine) initialURL(target Target) string {
	if target.InitialURL != "" {
		return target.InitialURL
	}
	if target.Role == audit.RoleManufacturer {
		return knowledge.ManufacturerURL(target.Manufacturer, target.PartNumber)
	}
	return knowledge.DistributorFallbackURL(target.Domain, target.Manufacturer, target.PartNumber)
}

type suggestion struct {
	URL        string      `json:"url"`
	Confidence audit.Score `json:"confidence"`
	Reason     string      `json:"reason"`
}

// selectURL runs cascade steps 2-5. Any failure along the way reports
// not-ok; the caller falls back to the domain-rule URL.
func (e *Engine) selectURL(ctx context.Context, target Target, domain, initial string) (suggestion, bool) {
	results := e.search(ctx, fmt.Sprintf("%q site:%s", target.PartNumber, domain))
	if len(results) == 0 {
		broadened := strings.TrimSpace(fmt.Sprintf("%s %s %s", target.PartNumber, target.PartName, domain))
		results = append(results, e.search(ctx, broadened)...)
	}
	if len(results) == 0 {
		return suggestion{}, false
	}

	filtered := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if onDomain(r.URL, domain) {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		filtered = results
	}
	if len(filtered) > maxSelectionCandidates {
		filtered = filtered[:maxSelectionCandidates]
	}

	raw, err := e.gen.Generate(ctx, buildSelectionPrompt(target, domain, filtered))
	if err != nil {
		metrics.ObserveGeneration("resolve", "error")
		e.logger.Warn("url selection generation failed",
			zap.String("site", target.SiteName), zap.Error(err))
		return suggestion{}, false
	}
	parsed, err := extract.Parse[suggestion](raw)
	if err != nil {
		metrics.ObserveGeneration("resolve", "unparseable")
		e.logger.Warn("url selection response unparseable",
			zap.String("site", target.SiteName), zap.Error(err))
		return suggestion{}, false
	}
	metrics.ObserveGeneration("resolve", "ok")

	if strings.TrimSpace(parsed.URL) == "" || parsed.Confidence == audit.ScoreLow {
		return suggestion{}, false
	}
	if IsSearchEngineURL(parsed.URL) {
		e.logger.Warn("url selection suggested a search engine, rejecting",
			zap.String("site", target.SiteName), zap.String("url", parsed.URL))
		return suggestion{}, false
	}
	normalized, err := NormalizeURL(parsed.URL)
	if err != nil {
		return suggestion{}, false
	}
	parsed.URL = normalized
	return parsed, true
}

// search issues one query, mapping every failure to an empty result list.
func (e *Engine) search(ctx context.Context, query string) []SearchResult {
	results, err := e.searcher.Search(ctx, query)
	if err != nil {
		metrics.ObserveSearch("error")
		e.logger.Warn("search failed, treating as empty", zap.String("query", query), zap.Error(err))
		return nil
	}
	if len(results) == 0 {
		metrics.ObserveSearch("empty")
		return nil
	}
	metrics.ObserveSearch("ok")
	return results
}

func (e *Engine) emit(evt progress.Event) {
	if e.emitter != nil {
		e.emitter.Emit(evt)
	}
}

func buildSelectionPrompt(target Target, domain string, results []SearchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Find the single best product DETAIL page for part %q", target.PartNumber)
	if target.PartName != "" {
		fmt.Fprintf(&sb, " (%s)", target.PartName)
	}
	fmt.Fprintf(&sb, " by %s on the domain %s.\n", target.Manufacturer, domain)
	sb.WriteString("Candidates:\n")
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n   %s\n   %s\n", i+1, r.Title, r.URL, r.Snippet)
	}
	sb.WriteString("\nPick the URL most likely to be the dedicated detail page for exactly this part on that domain. ")
	sb.WriteString("Category pages, search pages, and off-domain pages do not qualify. ")
	sb.WriteString("If none qualifies, return an empty url with confidence \"low\".\n")
	sb.WriteString("Respond ONLY with valid JSON no markdown:\n")
	sb.WriteString("{\"url\":\"\",\"confidence\":\"high|medium|low\",\"reason\":\"\"}\n")
	return sb.String()
}
