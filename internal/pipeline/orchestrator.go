// Package pipeline sequences the discovery, resolution, and audit phases
// over one session and owns all per-session state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/partsignal/content-audit/internal/audit"
	"github.com/partsignal/content-audit/internal/catalog"
	"github.com/partsignal/content-audit/internal/extract"
	idgen "github.com/partsignal/content-audit/internal/id/uuid"
	"github.com/partsignal/content-audit/internal/knowledge"
	"github.com/partsignal/content-audit/internal/metrics"
	"github.com/partsignal/content-audit/internal/progress"
	"github.com/partsignal/content-audit/internal/publisher"
	"github.com/partsignal/content-audit/internal/resolve"
	"github.com/partsignal/content-audit/internal/store"
)

// requiredChannels is how many channels the caller must select before
// resolution can run.
const requiredChannels = 5

// TextGenerator produces generated text for a single user prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// URLResolver settles every target concurrently and reports each settle as
// it happens.
type URLResolver interface {
	ResolveAll(ctx context.Context, session [16]byte, targets []resolve.Target, observe func(resolve.State)) map[string]resolve.State
}

// Auditor audits one resolved target.
type Auditor interface {
	Audit(ctx context.Context, session [16]byte, target audit.Target) (audit.Result, error)
}

// Config carries the orchestrator's collaborators. Generator, Resolver,
// Auditor, and Logger are required; Store, Publisher, and Emitter default
// to no-ops.
type Config struct {
	Generator TextGenerator
	Resolver  URLResolver
	Auditor   Auditor
	Store     store.Provider
	Publisher publisher.Provider
	Emitter   progress.Emitter
	Logger    *zap.Logger
}

// Orchestrator is the top-level pipeline coordinator. It owns the session
// registry; each phase mutates session state only through keyed updates.
type Orchestrator struct {
	gen      TextGenerator
	resolver URLResolver
	auditor  Auditor
	store    store.Provider
	pub      publisher.Provider
	emitter  progress.Emitter
	ids      *idgen.Generator
	logger   *zap.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// New creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Generator == nil {
		return nil, errors.New("pipeline: generator is required")
	}
	if cfg.Resolver == nil {
		return nil, errors.New("pipeline: resolver is required")
	}
	if cfg.Auditor == nil {
		return nil, errors.New("pipeline: auditor is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("pipeline: logger is required")
	}
	if cfg.Store == nil {
		cfg.Store = store.NoOpProvider{}
	}
	if cfg.Publisher == nil {
		cfg.Publisher = publisher.NoOpProvider{}
	}
	return &Orchestrator{
		gen:      cfg.Generator,
		resolver: cfg.Resolver,
		auditor:  cfg.Auditor,
		store:    cfg.Store,
		pub:      cfg.Publisher,
		emitter:  cfg.Emitter,
		ids:      idgen.NewUUIDGenerator(),
		logger:   cfg.Logger,
	}, nil
}

// Discover runs the two discovery generation calls concurrently, classifies
// the returned channels, and registers a new session. A failed or
// unparseable generation call aborts the discovery phase.
func (o *Orchestrator) Discover(ctx context.Context, manufacturer, category string) (View, error) {
	manufacturer = strings.TrimSpace(manufacturer)
	category = strings.TrimSpace(category)
	if manufacturer == "" || category == "" {
		return View{}, validationErrorf("manufacturer and category are required")
	}

	id, err := o.ids.NewRawID()
	if err != nil {
		return View{}, fmt.Errorf("discovery: %w", err)
	}
	session := newSession(id, manufacturer, category)
	sid := progress.UUIDToBytes(id)

	start := time.Now()
	o.emit(progress.Event{
		SessionID: sid, TS: start, Stage: progress.StageSessionStart,
		Note: manufacturer + " / " + category,
	})

	var candidates []catalog.Candidate
	var channels []catalog.Channel
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = o.discoverCandidates(gctx, manufacturer, category)
		return err
	})
	g.Go(func() error {
		var err error
		channels, err = o.discoverChannels(gctx, manufacturer, category)
		return err
	})
	if err := g.Wait(); err != nil {
		o.emit(progress.Event{
			SessionID: sid, TS: time.Now(), Stage: progress.StageSessionError,
			Note: err.Error(),
		})
		return View{}, fmt.Errorf("discovery: %w", err)
	}

	session.Candidates = candidates
	session.Channels = knowledge.ClassifyChannels(channels, manufacturer, "")

	o.mu.Lock()
	if o.sessions == nil {
		o.sessions = make(map[uuid.UUID]*Session)
	}
	o.sessions[id] = session
	o.mu.Unlock()

	o.emit(progress.Event{
		SessionID: sid, TS: time.Now(), Stage: progress.StageDiscoveryDone,
		Dur:  time.Since(start),
		Note: fmt.Sprintf("%d candidates, %d channels", len(candidates), len(channels)),
	})

	if err := o.store.SaveSession(ctx, store.SessionRecord{
		ID:           id,
		Manufacturer: manufacturer,
		Category:     category,
		CreatedAt:    session.CreatedAt,
		Candidates:   session.Candidates,
		Channels:     session.Channels,
	}); err != nil {
		o.logger.Warn("session persist failed", zap.String("session", id.String()), zap.Error(err))
	}
	if _, err := o.pub.Publish(ctx, publisher.TopicSessionDiscovered, session.View()); err != nil {
		o.logger.Warn("session event publish failed", zap.String("session", id.String()), zap.Error(err))
	}

	return session.View(), nil
}

func (o *Orchestrator) discoverCandidates(ctx context.Context, manufacturer, category string) ([]catalog.Candidate, error) {
	raw, err := o.gen.Generate(ctx, buildCandidatePrompt(manufacturer, category))
	if err != nil {
		metrics.ObserveGeneration("discovery", "error")
		return nil, fmt.Errorf("candidate generation: %w", err)
	}
	parsed, err := extract.Parse[[]catalog.Candidate](raw)
	if err != nil {
		metrics.ObserveGeneration("discovery", "unparseable")
		return nil, fmt.Errorf("candidate payload: %w", err)
	}
	metrics.ObserveGeneration("discovery", "ok")

	candidates := parsed[:0]
	for _, c := range parsed {
		if err := c.Validate(); err != nil {
			o.logger.Warn("dropping invalid candidate", zap.Error(err))
			continue
		}
		if !c.Confidence.Known() {
			c.Confidence = catalog.ConfidenceLow
		}
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return nil, errors.New("no usable candidates in generated payload")
	}
	return candidates, nil
}

func (o *Orchestrator) discoverChannels(ctx context.Context, manufacturer, category string) ([]catalog.Channel, error) {
	raw, err := o.gen.Generate(ctx, buildChannelPrompt(manufacturer, category))
	if err != nil {
		metrics.ObserveGeneration("discovery", "error")
		return nil, fmt.Errorf("channel generation: %w", err)
	}
	parsed, err := extract.Parse[[]catalog.Channel](raw)
	if err != nil {
		metrics.ObserveGeneration("discovery", "unparseable")
		return nil, fmt.Errorf("channel payload: %w", err)
	}
	metrics.ObserveGeneration("discovery", "ok")

	channels := parsed[:0]
	for _, ch := range parsed {
		if err := ch.Validate(); err != nil {
			o.logger.Warn("dropping invalid channel", zap.Error(err))
			continue
		}
		if !ch.Confidence.Known() {
			ch.Confidence = catalog.ConfidenceLow
		}
		if ch.Rank == 0 {
			ch.Rank = len(channels) + 1
		}
		channels = append(channels, ch)
	}
	if len(channels) == 0 {
		return nil, errors.New("no usable channels in generated payload")
	}
	return channels, nil
}

// Classify re-runs channel classification for a specific part number, so
// callers can inspect addressability before selecting channels.
func (o *Orchestrator) Classify(id uuid.UUID, partNumber string) ([]catalog.Channel, error) {
	session, err := o.session(id)
	if err != nil {
		return nil, err
	}
	return knowledge.ClassifyChannels(session.Channels, session.Manufacturer, partNumber), nil
}

// Describe snapshots a session's discovery output.
func (o *Orchestrator) Describe(id uuid.UUID) (View, error) {
	session, err := o.session(id)
	if err != nil {
		return View{}, err
	}
	return session.View(), nil
}

// StartResolution validates the selection, seeds every target at resolving,
// and runs the resolution cascade across all targets concurrently. The call
// blocks until every target settles; live status is visible throughout via
// ResolutionStates.
func (o *Orchestrator) StartResolution(ctx context.Context, id uuid.UUID, partNumber string, channelNames []string) error {
	session, err := o.session(id)
	if err != nil {
		return err
	}
	candidate, ok := session.candidate(partNumber)
	if !ok {
		return validationErrorf("unknown candidate %q", partNumber)
	}
	if len(channelNames) != requiredChannels {
		return validationErrorf("exactly %d channels must be selected, got %d", requiredChannels, len(channelNames))
	}
	channels := make([]catalog.Channel, 0, requiredChannels)
	seen := make(map[string]bool, requiredChannels)
	for _, name := range channelNames {
		ch, ok := session.channel(name)
		if !ok {
			return validationErrorf("unknown channel %q", name)
		}
		if seen[name] {
			return validationErrorf("channel %q selected twice", name)
		}
		seen[name] = true
		channels = append(channels, knowledge.ClassifyChannel(ch, session.Manufacturer, partNumber))
	}

	session.beginResolution(candidate, channels)

	targets := make([]resolve.Target, 0, len(channels)+1)
	targets = append(targets, resolve.Target{
		SiteName:     session.Manufacturer,
		Role:         audit.RoleManufacturer,
		Manufacturer: session.Manufacturer,
		PartNumber:   candidate.PartNumber,
		PartName:     candidate.Name,
		InitialURL:   candidate.ManufacturerURL,
	})
	for _, ch := range channels {
		targets = append(targets, resolve.Target{
			SiteName:     ch.Name,
			Role:         audit.RoleDistributor,
			Domain:       ch.Domain,
			Manufacturer: session.Manufacturer,
			PartNumber:   candidate.PartNumber,
			PartName:     candidate.Name,
			InitialURL:   knownChannelURL(candidate, ch),
		})
	}

	sid := progress.UUIDToBytes(id)
	o.resolver.ResolveAll(ctx, sid, targets, func(state resolve.State) {
		session.setResolution(state)
		if err := o.store.SaveResolution(ctx, id, state); err != nil {
			o.logger.Warn("resolution persist failed",
				zap.String("session", id.String()), zap.String("site", state.SiteName), zap.Error(err))
		}
	})
	return nil
}

// knownChannelURL picks a discovery-supplied product page for a channel, if
// one exists, ahead of the classifier's fallback URL.
func knownChannelURL(candidate catalog.Candidate, ch catalog.Channel) string {
	domain := strings.ToLower(ch.Domain)
	switch {
	case strings.Contains(domain, "digikey.com") && candidate.DigikeyURL != "":
		return candidate.DigikeyURL
	case strings.Contains(domain, "mouser.com") && candidate.MouserURL != "":
		return candidate.MouserURL
	case strings.Contains(domain, "arrow.com") && candidate.ArrowURL != "":
		return candidate.ArrowURL
	}
	return ch.FallbackURL
}

// ResolutionStates snapshots live per-target resolution status in audit
// order.
func (o *Orchestrator) ResolutionStates(id uuid.UUID) ([]resolve.State, error) {
	session, err := o.session(id)
	if err != nil {
		return nil, err
	}
	return session.resolutionStates(), nil
}

// EditResolution overrides one target's resolved URL. The edit is treated
// as user-confirmed: a fallback target becomes resolved without
// re-validation, but general search-engine pages are still rejected.
func (o *Orchestrator) EditResolution(id uuid.UUID, site, rawURL string) error {
	session, err := o.session(id)
	if err != nil {
		return err
	}
	state, ok := session.resolution(site)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, site)
	}
	if state.Status == resolve.StatusResolving {
		return validationErrorf("target %s is still resolving", site)
	}
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return validationErrorf("target %s: url is required", site)
	}
	if resolve.IsSearchEngineURL(rawURL) {
		return validationErrorf("target %s: general search-engine pages are not auditable", site)
	}

	state.URL = rawURL
	state.Status = resolve.StatusResolved
	state.Reason = "user-confirmed"
	session.setResolution(state)
	if err := o.store.SaveResolution(context.Background(), id, state); err != nil {
		o.logger.Warn("resolution persist failed",
			zap.String("session", id.String()), zap.String("site", site), zap.Error(err))
	}
	return nil
}

// RunAudits audits every target sequentially in audit order. An audit-phase
// error aborts the remaining targets and is reported with the failing
// site's context; already-stored results are kept.
func (o *Orchestrator) RunAudits(ctx context.Context, id uuid.UUID) error {
	session, err := o.session(id)
	if err != nil {
		return err
	}
	candidate, ok := session.selection()
	if !ok {
		return validationErrorf("resolution has not been triggered")
	}
	if !session.settled() {
		return validationErrorf("resolution has not settled for every target")
	}

	sid := progress.UUIDToBytes(id)
	for _, site := range session.orderedSites() {
		state, ok := session.resolution(site)
		if !ok {
			continue
		}
		result, err := o.auditor.Audit(ctx, sid, audit.Target{
			SiteName:     state.SiteName,
			Role:         state.Role,
			URL:          state.URL,
			PartNumber:   candidate.PartNumber,
			Manufacturer: session.Manufacturer,
		})
		if err != nil {
			o.emit(progress.Event{
				SessionID: sid, TS: time.Now(), Stage: progress.StageSessionError,
				Site: site, Note: err.Error(),
			})
			return fmt.Errorf("audit %s: %w", site, err)
		}
		o.storeResult(ctx, session, result)
	}

	if _, err := o.pub.Publish(ctx, publisher.TopicAuditsCompleted, auditsCompletedEvent(session)); err != nil {
		o.logger.Warn("audit event publish failed", zap.String("session", id.String()), zap.Error(err))
	}
	return nil
}

// RetryAudit re-audits one target and replaces its result wholesale. A
// non-empty URL overrides the target's resolved URL first, under the same
// rules as EditResolution.
func (o *Orchestrator) RetryAudit(ctx context.Context, id uuid.UUID, site, rawURL string) error {
	session, err := o.session(id)
	if err != nil {
		return err
	}
	candidate, ok := session.selection()
	if !ok {
		return validationErrorf("resolution has not been triggered")
	}
	if rawURL = strings.TrimSpace(rawURL); rawURL != "" {
		if err := o.EditResolution(id, site, rawURL); err != nil {
			return err
		}
	}
	state, ok := session.resolution(site)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, site)
	}
	if state.Status == resolve.StatusResolving {
		return validationErrorf("target %s is still resolving", site)
	}

	result, err := o.auditor.Audit(ctx, progress.UUIDToBytes(id), audit.Target{
		SiteName:     state.SiteName,
		Role:         state.Role,
		URL:          state.URL,
		PartNumber:   candidate.PartNumber,
		Manufacturer: session.Manufacturer,
	})
	if err != nil {
		return fmt.Errorf("audit %s: %w", site, err)
	}
	o.storeResult(ctx, session, result)
	return nil
}

func (o *Orchestrator) storeResult(ctx context.Context, session *Session, result audit.Result) {
	session.setResult(result)
	if err := o.store.SaveResult(ctx, session.ID, result); err != nil {
		o.logger.Warn("result persist failed",
			zap.String("session", session.ID.String()), zap.String("site", result.SiteName), zap.Error(err))
	}
}

// Results snapshots the audit results in audit order.
func (o *Orchestrator) Results(id uuid.UUID) ([]audit.Result, error) {
	session, err := o.session(id)
	if err != nil {
		return nil, err
	}
	return session.orderedResults(), nil
}

// Gaps recomputes the gap report from the current result set.
func (o *Orchestrator) Gaps(id uuid.UUID) (map[audit.FieldKey][]audit.GapRecord, error) {
	session, err := o.session(id)
	if err != nil {
		return nil, err
	}
	manufacturer, distributors, ok := session.resultSet()
	if !ok {
		return nil, validationErrorf("manufacturer has not been audited")
	}
	return audit.Gaps(manufacturer, distributors), nil
}

func (o *Orchestrator) session(id uuid.UUID) (*Session, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	session, ok := o.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, nil
}

func (o *Orchestrator) emit(evt progress.Event) {
	if o.emitter == nil {
		return
	}
	o.emitter.Emit(evt)
}

// auditsCompletedEvent summarizes a finished audit phase for the completion
// topic.
func auditsCompletedEvent(session *Session) map[string]any {
	results := session.orderedResults()
	blocked := make([]string, 0)
	for _, r := range results {
		if r.Blocked() {
			blocked = append(blocked, r.SiteName)
		}
	}
	return map[string]any{
		"sessionId": session.ID.String(),
		"results":   len(results),
		"blocked":   blocked,
	}
}
