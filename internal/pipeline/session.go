package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/partsignal/content-audit/internal/audit"
	"github.com/partsignal/content-audit/internal/catalog"
	"github.com/partsignal/content-audit/internal/resolve"
)

// Session holds everything one manufacturer/category run produces, from
// discovery through the completed audit set. Discovery output is immutable
// once set; the resolution and result maps are updated by key, one writer
// per key, behind the session mutex.
type Session struct {
	ID           uuid.UUID
	Manufacturer string
	Category     string
	CreatedAt    time.Time
	Candidates   []catalog.Candidate
	Channels     []catalog.Channel

	mu       sync.RWMutex
	selected *catalog.Candidate
	// targetOrder lists site names in audit order: manufacturer first,
	// then the selected channels in selection order.
	targetOrder []string
	channels    map[string]catalog.Channel
	resolutions map[string]resolve.State
	results     map[string]audit.Result
}

// View is a read-only snapshot of a session's discovery output.
type View struct {
	ID           uuid.UUID           `json:"id"`
	Manufacturer string              `json:"manufacturer"`
	Category     string              `json:"category"`
	CreatedAt    time.Time           `json:"createdAt"`
	Candidates   []catalog.Candidate `json:"candidates"`
	Channels     []catalog.Channel   `json:"channels"`
}

func newSession(id uuid.UUID, manufacturer, category string) *Session {
	return &Session{
		ID:           id,
		Manufacturer: manufacturer,
		Category:     category,
		CreatedAt:    time.Now().UTC(),
		channels:     make(map[string]catalog.Channel),
		resolutions:  make(map[string]resolve.State),
		results:      make(map[string]audit.Result),
	}
}

// View snapshots the discovery output.
func (s *Session) View() View {
	return View{
		ID:           s.ID,
		Manufacturer: s.Manufacturer,
		Category:     s.Category,
		CreatedAt:    s.CreatedAt,
		Candidates:   append([]catalog.Candidate(nil), s.Candidates...),
		Channels:     append([]catalog.Channel(nil), s.Channels...),
	}
}

// candidate returns the discovered candidate with the given part number.
func (s *Session) candidate(partNumber string) (catalog.Candidate, bool) {
	for _, c := range s.Candidates {
		if c.PartNumber == partNumber {
			return c, true
		}
	}
	return catalog.Candidate{}, false
}

// channel returns the discovered channel with the given display name.
func (s *Session) channel(name string) (catalog.Channel, bool) {
	for _, ch := range s.Channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return catalog.Channel{}, false
}

// beginResolution records the chosen candidate and channels and seeds every
// target at resolving. A re-trigger replaces the previous selection and
// clears stale resolutions and results.
func (s *Session) beginResolution(candidate catalog.Candidate, channels []catalog.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = &candidate
	s.targetOrder = make([]string, 0, len(channels)+1)
	s.channels = make(map[string]catalog.Channel, len(channels))
	s.resolutions = make(map[string]resolve.State, len(channels)+1)
	s.results = make(map[string]audit.Result, len(channels)+1)

	s.targetOrder = append(s.targetOrder, s.Manufacturer)
	s.resolutions[s.Manufacturer] = resolve.State{
		SiteName: s.Manufacturer,
		Role:     audit.RoleManufacturer,
		Status:   resolve.StatusResolving,
	}
	for _, ch := range channels {
		s.targetOrder = append(s.targetOrder, ch.Name)
		s.channels[ch.Name] = ch
		s.resolutions[ch.Name] = resolve.State{
			SiteName: ch.Name,
			Role:     audit.RoleDistributor,
			Status:   resolve.StatusResolving,
		}
	}
}

// setResolution replaces one target's resolution state.
func (s *Session) setResolution(state resolve.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolutions[state.SiteName] = state
}

// resolution returns one target's resolution state.
func (s *Session) resolution(site string) (resolve.State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.resolutions[site]
	return st, ok
}

// resolutionStates snapshots all resolution states in target order.
func (s *Session) resolutionStates() []resolve.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	states := make([]resolve.State, 0, len(s.targetOrder))
	for _, site := range s.targetOrder {
		if st, ok := s.resolutions[site]; ok {
			states = append(states, st)
		}
	}
	return states
}

// settled reports whether resolution was triggered and every target has
// left the resolving state.
func (s *Session) settled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.resolutions) == 0 {
		return false
	}
	for _, st := range s.resolutions {
		if st.Status == resolve.StatusResolving {
			return false
		}
	}
	return true
}

// selection returns the chosen candidate, or false before resolution was
// triggered.
func (s *Session) selection() (catalog.Candidate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return catalog.Candidate{}, false
	}
	return *s.selected, true
}

// setResult replaces one target's audit result wholesale.
func (s *Session) setResult(result audit.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.SiteName] = result
}

// result returns one target's audit result.
func (s *Session) result(site string) (audit.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[site]
	return r, ok
}

// resultSet snapshots results in target order: the manufacturer's result
// (zero-valued and false if absent) plus the distributor results.
func (s *Session) resultSet() (audit.Result, []audit.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var manufacturer audit.Result
	var haveManufacturer bool
	distributors := make([]audit.Result, 0, len(s.results))
	for _, site := range s.targetOrder {
		r, ok := s.results[site]
		if !ok {
			continue
		}
		if r.Role == audit.RoleManufacturer {
			manufacturer = r
			haveManufacturer = true
			continue
		}
		distributors = append(distributors, r)
	}
	return manufacturer, distributors, haveManufacturer
}

// orderedResults snapshots all results in target order.
func (s *Session) orderedResults() []audit.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Result, 0, len(s.results))
	for _, site := range s.targetOrder {
		if r, ok := s.results[site]; ok {
			out = append(out, r)
		}
	}
	return out
}

// orderedSites snapshots the target order.
func (s *Session) orderedSites() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.targetOrder...)
}

// selectedChannel returns the selected channel for a site name.
func (s *Session) selectedChannel(site string) (catalog.Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.channels[site]
	return ch, ok
}
