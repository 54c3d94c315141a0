package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/partsignal/content-audit/internal/audit"
	"github.com/partsignal/content-audit/internal/metrics"
	"github.com/partsignal/content-audit/internal/progress"
	"github.com/partsignal/content-audit/internal/publisher/memory"
	"github.com/partsignal/content-audit/internal/resolve"
	"github.com/partsignal/content-audit/internal/store"
)

func init() {
	metrics.Init()
}

const candidatesJSON = `[
  {"partNumber":"X-100","name":"Widget","confidence":"high","reason":"volume leader",
   "manufacturerUrl":"https://www.acme.com/products/x-100",
   "digikeyUrl":"https://www.digikey.com/en/products/detail/acme/X-100/123"},
  {"partNumber":"Y-200","name":"Gadget","confidence":"medium","reason":"broad cross references"}
]`

const channelsJSON = `[
  {"name":"Digi-Key","domain":"digikey.com","confidence":"high","relationship":"authorized","verticalFit":"electronics"},
  {"name":"Mouser","domain":"mouser.com","confidence":"high","relationship":"authorized","verticalFit":"electronics"},
  {"name":"Arrow","domain":"arrow.com","confidence":"medium","relationship":"authorized-preferred","verticalFit":"electronics"},
  {"name":"Newark","domain":"newark.com","confidence":"medium","relationship":"broad-catalog","verticalFit":"industrial"},
  {"name":"Grainger","domain":"grainger.com","confidence":"low","relationship":"broad-catalog","verticalFit":"MRO"},
  {"name":"Partsbay","domain":"partsbay.example.com","confidence":"low","relationship":"regional","verticalFit":"niche"}
]`

var fiveChannels = []string{"Digi-Key", "Mouser", "Arrow", "Newark", "Grainger"}

// fakeGenerator answers discovery prompts by shape: the channel prompt
// mentions distributors, everything else gets the candidate payload.
type fakeGenerator struct {
	candidates  string
	channels    string
	err         error
	channelsErr error
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	if strings.Contains(prompt, "distributors for manufacturer") {
		if g.channelsErr != nil {
			return "", g.channelsErr
		}
		return g.channels, nil
	}
	return g.candidates, nil
}

// fakeResolver settles every target synchronously.
type fakeResolver struct {
	targets []resolve.Target
	// fallbackSites settle at fallback with the target's initial URL.
	fallbackSites map[string]bool
}

func (r *fakeResolver) ResolveAll(_ context.Context, _ [16]byte, targets []resolve.Target, observe func(resolve.State)) map[string]resolve.State {
	r.targets = targets
	settled := make(map[string]resolve.State, len(targets))
	for _, t := range targets {
		state := resolve.State{
			SiteName: t.SiteName,
			Role:     t.Role,
			URL:      fmt.Sprintf("https://%s/p/%s", t.Domain, t.PartNumber),
			Status:   resolve.StatusResolved,
			Reason:   "exact detail page",
		}
		if t.Role == audit.RoleManufacturer {
			state.URL = "https://www.acme.com/products/x-100"
		}
		if r.fallbackSites[t.SiteName] {
			state.URL = t.InitialURL
			state.Status = resolve.StatusFallback
			state.Reason = ""
		}
		settled[t.SiteName] = state
		if observe != nil {
			observe(state)
		}
	}
	return settled
}

// fakeAuditor returns a live result per site unless told otherwise.
type fakeAuditor struct {
	audited []string
	urls    map[string]string
	failOn  string
	blockOn string
}

func (a *fakeAuditor) Audit(_ context.Context, _ [16]byte, target audit.Target) (audit.Result, error) {
	a.audited = append(a.audited, target.SiteName)
	if a.urls == nil {
		a.urls = make(map[string]string)
	}
	a.urls[target.SiteName] = target.URL
	if target.SiteName == a.failOn {
		return audit.Result{}, errors.New("generation service unavailable")
	}
	if target.SiteName == a.blockOn {
		return audit.Result{
			SiteName: target.SiteName, Role: target.Role, URL: target.URL,
			ContentSource: audit.SourceBlocked,
		}, nil
	}
	score := 100
	return audit.Result{
		SiteName: target.SiteName, Role: target.Role, URL: target.URL,
		ContentSource: audit.SourceLive,
		OverallScore:  &score,
		Summary:       "Complete page. No gaps found.",
		Fields: map[audit.FieldKey]audit.FieldAssessment{
			audit.FieldDescription: {Value: "a widget", Score: audit.ScoreHigh},
		},
	}, nil
}

// fakeStore records persistence calls.
type fakeStore struct {
	store.NoOpProvider
	sessions    []store.SessionRecord
	resolutions []resolve.State
	results     []audit.Result
}

func (s *fakeStore) SaveSession(_ context.Context, rec store.SessionRecord) error {
	s.sessions = append(s.sessions, rec)
	return nil
}

func (s *fakeStore) SaveResolution(_ context.Context, _ uuid.UUID, state resolve.State) error {
	s.resolutions = append(s.resolutions, state)
	return nil
}

func (s *fakeStore) SaveResult(_ context.Context, _ uuid.UUID, result audit.Result) error {
	s.results = append(s.results, result)
	return nil
}

type captureEmitter struct {
	events []progress.Event
}

func (c *captureEmitter) Emit(evt progress.Event) {
	c.events = append(c.events, evt)
}

func (c *captureEmitter) stages() []progress.Stage {
	out := make([]progress.Stage, 0, len(c.events))
	for _, evt := range c.events {
		out = append(out, evt.Stage)
	}
	return out
}

type fixture struct {
	orch     *Orchestrator
	gen      *fakeGenerator
	resolver *fakeResolver
	auditor  *fakeAuditor
	store    *fakeStore
	pub      *memory.Publisher
	emitter  *captureEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gen:      &fakeGenerator{candidates: candidatesJSON, channels: channelsJSON},
		resolver: &fakeResolver{},
		auditor:  &fakeAuditor{},
		store:    &fakeStore{},
		pub:      memory.New(),
		emitter:  &captureEmitter{},
	}
	orch, err := New(Config{
		Generator: f.gen,
		Resolver:  f.resolver,
		Auditor:   f.auditor,
		Store:     f.store,
		Publisher: f.pub,
		Emitter:   f.emitter,
		Logger:    zap.NewNop(),
	})
	require.NoError(t, err)
	f.orch = orch
	return f
}

func (f *fixture) discover(t *testing.T) uuid.UUID {
	t.Helper()
	view, err := f.orch.Discover(context.Background(), "Acme", "connectors")
	require.NoError(t, err)
	return view.ID
}

func (f *fixture) resolveFive(t *testing.T, id uuid.UUID) {
	t.Helper()
	require.NoError(t, f.orch.StartResolution(context.Background(), id, "X-100", fiveChannels))
}

func TestNewRequiresCollaborators(t *testing.T) {
	t.Parallel()

	base := Config{
		Generator: &fakeGenerator{},
		Resolver:  &fakeResolver{},
		Auditor:   &fakeAuditor{},
		Logger:    zap.NewNop(),
	}

	for name, strip := range map[string]func(Config) Config{
		"generator": func(c Config) Config { c.Generator = nil; return c },
		"resolver":  func(c Config) Config { c.Resolver = nil; return c },
		"auditor":   func(c Config) Config { c.Auditor = nil; return c },
		"logger":    func(c Config) Config { c.Logger = nil; return c },
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := New(strip(base))
			require.Error(t, err)
		})
	}

	orch, err := New(base)
	require.NoError(t, err)
	require.NotNil(t, orch)
}

func TestDiscover(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	view, err := f.orch.Discover(context.Background(), "Acme", "connectors")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, view.ID)
	require.Len(t, view.Candidates, 2)
	require.Equal(t, "X-100", view.Candidates[0].PartNumber)
	require.Len(t, view.Channels, 6)

	// Classification enriched the channels in place.
	digikey := view.Channels[0]
	require.Equal(t, "Digi-Key", digikey.Name)
	require.True(t, digikey.DirectlyAddressable)
	require.NotEmpty(t, digikey.Note)
	unknown := view.Channels[5]
	require.False(t, unknown.DirectlyAddressable)
	require.Equal(t, "unknown URL pattern; will resolve via search", unknown.Note)

	described, err := f.orch.Describe(view.ID)
	require.NoError(t, err)
	require.Equal(t, view.ID, described.ID)
	require.Equal(t, "Acme", described.Manufacturer)

	require.Len(t, f.store.sessions, 1)
	require.Equal(t, view.ID, f.store.sessions[0].ID)

	msgs := f.pub.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "session-discovered", msgs[0].Topic)

	require.Equal(t, []progress.Stage{progress.StageSessionStart, progress.StageDiscoveryDone}, f.emitter.stages())
	for _, evt := range f.emitter.events {
		require.NoError(t, evt.Validate())
	}
}

func TestDiscoverRejectsEmptyInput(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	for _, tc := range [][2]string{{"", "connectors"}, {"Acme", ""}, {"  ", "  "}} {
		_, err := f.orch.Discover(context.Background(), tc[0], tc[1])
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	}
}

func TestDiscoverGenerationFailureAbortsPhase(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.gen.err = errors.New("overloaded")

	_, err := f.orch.Discover(context.Background(), "Acme", "connectors")
	require.ErrorContains(t, err, "discovery")
	require.ErrorContains(t, err, "overloaded")

	stages := f.emitter.stages()
	require.Equal(t, progress.StageSessionError, stages[len(stages)-1])
	require.Empty(t, f.store.sessions)
	require.Empty(t, f.pub.Messages())
}

func TestDiscoverUnparseablePayloadAbortsPhase(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.gen.channels = "I cannot answer that."

	_, err := f.orch.Discover(context.Background(), "Acme", "connectors")
	require.ErrorContains(t, err, "channel payload")
}

func TestDiscoverDropsInvalidEntries(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.gen.candidates = `[{"partNumber":"X-100","name":"Widget","confidence":"high"},{"partNumber":"","name":"nameless"}]`

	view, err := f.orch.Discover(context.Background(), "Acme", "connectors")
	require.NoError(t, err)
	require.Len(t, view.Candidates, 1)
}

func TestDiscoverAllInvalidIsAnError(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.gen.candidates = `[{"partNumber":"","name":""}]`

	_, err := f.orch.Discover(context.Background(), "Acme", "connectors")
	require.ErrorContains(t, err, "no usable candidates")
}

func TestClassifyUsesPartNumber(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := f.discover(t)

	channels, err := f.orch.Classify(id, "X-100")
	require.NoError(t, err)
	require.Len(t, channels, 6)
	require.Equal(t, "https://www.digikey.com/en/products/filter?keywords=X-100", channels[0].FallbackURL)
}

func TestStartResolutionValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := f.discover(t)
	ctx := context.Background()

	var verr *ValidationError

	err := f.orch.StartResolution(ctx, id, "Z-999", fiveChannels)
	require.ErrorAs(t, err, &verr)

	err = f.orch.StartResolution(ctx, id, "X-100", fiveChannels[:3])
	require.ErrorAs(t, err, &verr)
	require.ErrorContains(t, err, "exactly 5 channels")

	err = f.orch.StartResolution(ctx, id, "X-100", []string{"Digi-Key", "Mouser", "Arrow", "Newark", "Nonesuch"})
	require.ErrorAs(t, err, &verr)

	err = f.orch.StartResolution(ctx, id, "X-100", []string{"Digi-Key", "Digi-Key", "Arrow", "Newark", "Grainger"})
	require.ErrorAs(t, err, &verr)

	err = f.orch.StartResolution(ctx, uuid.Nil, "X-100", fiveChannels)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStartResolutionBuildsTargets(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := f.discover(t)
	f.resolveFive(t, id)

	require.Len(t, f.resolver.targets, 6)

	mfr := f.resolver.targets[0]
	require.Equal(t, "Acme", mfr.SiteName)
	require.Equal(t, audit.RoleManufacturer, mfr.Role)
	require.Equal(t, "X-100", mfr.PartNumber)
	require.Equal(t, "Widget", mfr.PartName)
	require.Equal(t, "https://www.acme.com/products/x-100", mfr.InitialURL)

	// The candidate's known Digi-Key page wins over the fallback builder.
	digikey := f.resolver.targets[1]
	require.Equal(t, "Digi-Key", digikey.SiteName)
	require.Equal(t, audit.RoleDistributor, digikey.Role)
	require.Equal(t, "digikey.com", digikey.Domain)
	require.Equal(t, "https://www.digikey.com/en/products/detail/acme/X-100/123", digikey.InitialURL)

	// No known page for Mouser, so the classifier's fallback URL seeds it.
	mouser := f.resolver.targets[2]
	require.Equal(t, "https://www.mouser.com/Search/Refine?Keyword=X-100", mouser.InitialURL)

	states, err := f.orch.ResolutionStates(id)
	require.NoError(t, err)
	require.Len(t, states, 6)
	require.Equal(t, "Acme", states[0].SiteName)
	for _, st := range states {
		require.Equal(t, resolve.StatusResolved, st.Status)
	}
	require.Len(t, f.store.resolutions, 6)
}

func TestResolutionStatesBeforeTrigger(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := f.discover(t)

	states, err := f.orch.ResolutionStates(id)
	require.NoError(t, err)
	require.Empty(t, states)
}

func TestEditResolution(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolver.fallbackSites = map[string]bool{"Newark": true}
	id := f.discover(t)
	f.resolveFive(t, id)

	var verr *ValidationError

	err := f.orch.EditResolution(id, "Nonesuch", "https://example.com/p/1")
	require.ErrorIs(t, err, ErrTargetNotFound)

	err = f.orch.EditResolution(id, "Newark", "  ")
	require.ErrorAs(t, err, &verr)

	err = f.orch.EditResolution(id, "Newark", "https://www.google.com/search?q=X-100")
	require.ErrorAs(t, err, &verr)

	require.NoError(t, f.orch.EditResolution(id, "Newark", "https://www.newark.com/acme/x-100/dp/123"))
	states, err := f.orch.ResolutionStates(id)
	require.NoError(t, err)
	for _, st := range states {
		if st.SiteName != "Newark" {
			continue
		}
		require.Equal(t, resolve.StatusResolved, st.Status)
		require.Equal(t, "https://www.newark.com/acme/x-100/dp/123", st.URL)
		require.Equal(t, "user-confirmed", st.Reason)
	}
}

func TestRunAuditsRequiresSettledResolution(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := f.discover(t)

	var verr *ValidationError
	err := f.orch.RunAudits(context.Background(), id)
	require.ErrorAs(t, err, &verr)
}

func TestRunAuditsSequentialOrder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := f.discover(t)
	f.resolveFive(t, id)

	require.NoError(t, f.orch.RunAudits(context.Background(), id))

	// Manufacturer first, then channels in selection order.
	require.Equal(t, []string{"Acme", "Digi-Key", "Mouser", "Arrow", "Newark", "Grainger"}, f.auditor.audited)
	require.Equal(t, "https://www.acme.com/products/x-100", f.auditor.urls["Acme"])

	results, err := f.orch.Results(id)
	require.NoError(t, err)
	require.Len(t, results, 6)
	require.Len(t, f.store.results, 6)

	msgs := f.pub.Messages()
	require.Equal(t, "audits-completed", msgs[len(msgs)-1].Topic)
}

func TestRunAuditsAbortsPhaseOnError(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.auditor.failOn = "Mouser"
	id := f.discover(t)
	f.resolveFive(t, id)

	err := f.orch.RunAudits(context.Background(), id)
	require.ErrorContains(t, err, "audit Mouser")

	// Results before the failure are kept; nothing after it ran.
	results, rerr := f.orch.Results(id)
	require.NoError(t, rerr)
	require.Len(t, results, 2)
	require.Equal(t, []string{"Acme", "Digi-Key", "Mouser"}, f.auditor.audited)

	stages := f.emitter.stages()
	require.Equal(t, progress.StageSessionError, stages[len(stages)-1])
}

func TestRetryAuditReplacesResultWholesale(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.auditor.blockOn = "Arrow"
	id := f.discover(t)
	f.resolveFive(t, id)
	require.NoError(t, f.orch.RunAudits(context.Background(), id))

	results, err := f.orch.Results(id)
	require.NoError(t, err)
	for _, r := range results {
		if r.SiteName == "Arrow" {
			require.True(t, r.Blocked())
		}
	}

	f.auditor.blockOn = ""
	require.NoError(t, f.orch.RetryAudit(context.Background(), id, "Arrow", ""))

	results, err = f.orch.Results(id)
	require.NoError(t, err)
	for _, r := range results {
		if r.SiteName == "Arrow" {
			require.False(t, r.Blocked())
			require.NotNil(t, r.OverallScore)
		}
	}
}

func TestRetryAuditWithURLOverride(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := f.discover(t)
	f.resolveFive(t, id)

	require.NoError(t, f.orch.RetryAudit(context.Background(), id, "Grainger", "https://www.grainger.com/product/ACME-X100"))
	require.Equal(t, "https://www.grainger.com/product/ACME-X100", f.auditor.urls["Grainger"])

	states, err := f.orch.ResolutionStates(id)
	require.NoError(t, err)
	for _, st := range states {
		if st.SiteName == "Grainger" {
			require.Equal(t, "https://www.grainger.com/product/ACME-X100", st.URL)
		}
	}

	var verr *ValidationError
	err = f.orch.RetryAudit(context.Background(), id, "Grainger", "https://www.bing.com/search?q=x-100")
	require.ErrorAs(t, err, &verr)

	err = f.orch.RetryAudit(context.Background(), id, "Nonesuch", "")
	require.ErrorIs(t, err, ErrTargetNotFound)
}

func TestGapsRequiresManufacturerResult(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := f.discover(t)
	f.resolveFive(t, id)

	var verr *ValidationError
	_, err := f.orch.Gaps(id)
	require.ErrorAs(t, err, &verr)

	require.NoError(t, f.orch.RunAudits(context.Background(), id))
	gaps, err := f.orch.Gaps(id)
	require.NoError(t, err)
	require.Empty(t, gaps)
}

func TestMatrix(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.auditor.blockOn = "Newark"
	id := f.discover(t)
	f.resolveFive(t, id)
	require.NoError(t, f.orch.RunAudits(context.Background(), id))

	rows, err := f.orch.Matrix(id)
	require.NoError(t, err)
	require.Len(t, rows, 15)

	var desc MatrixRow
	for _, row := range rows {
		if row.Field == audit.FieldDescription {
			desc = row
		}
	}
	require.Equal(t, "Product Description", desc.Label)

	cell, ok := desc.Cells["Acme"]
	require.True(t, ok)
	require.Equal(t, audit.ScoreHigh, cell.Score)
	require.Equal(t, "a widget", cell.Value)

	blocked, ok := desc.Cells["Newark"]
	require.True(t, ok)
	require.True(t, blocked.Blocked)
	require.Empty(t, blocked.Score)

	// Sites carry only the fields they were scored on.
	var price MatrixRow
	for _, row := range rows {
		if row.Field == audit.FieldPrice {
			price = row
		}
	}
	_, ok = price.Cells["Acme"]
	require.False(t, ok)
}

func TestMatrixBeforeAudits(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := f.discover(t)

	var verr *ValidationError
	_, err := f.orch.Matrix(id)
	require.ErrorAs(t, err, &verr)
}
