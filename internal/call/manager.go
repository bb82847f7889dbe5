package call

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dispatch-voice-go/internal/logger"
	"dispatch-voice-go/internal/metrics"
	"dispatch-voice-go/internal/scenario"
	"dispatch-voice-go/internal/script"
	"dispatch-voice-go/internal/types"
)

// Publisher receives each finished call exactly once.
type Publisher interface {
	Publish(ctx context.Context, res types.CallResult) error
}

// Scenarios resolves a scenario id to a definition snapshot.
type Scenarios interface {
	Get(id string) (scenario.Definition, error)
}

type StartRequest struct {
	ScenarioID string         `json:"scenario_id"`
	Meta       types.CallMeta `json:"call_request"`
	Scripted   bool           `json:"scripted"`
}

// Manager is the registry of calls. Sessions share no mutable state.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	scenarios       Scenarios
	publisher       Publisher
	defaultScenario string
	retention       time.Duration
	now             func() time.Time
	log             *logger.Logger
}

// DefaultRetention is how long an ended call stays in memory.
const DefaultRetention = 15 * time.Minute

type Option func(*Manager)

// WithClock replaces time.Now, used by tests and replays.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithDefaultScenario(id string) Option {
	return func(m *Manager) { m.defaultScenario = id }
}

// WithRetention sets how long ended calls are kept before Sweep drops them.
func WithRetention(d time.Duration) Option {
	return func(m *Manager) { m.retention = d }
}

// NewManager builds a manager. publisher may be nil.
func NewManager(scenarios Scenarios, publisher Publisher, log *logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		sessions:        map[string]*Session{},
		scenarios:       scenarios,
		publisher:       publisher,
		defaultScenario: scenario.IDGeneral,
		retention:       DefaultRetention,
		now:             time.Now,
		log:             log.Component("call_manager"),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Start opens a call and returns the dispatcher's opening line.
func (m *Manager) Start(req StartRequest) (*Session, script.Line, error) {
	id := req.ScenarioID
	if id == "" {
		id = m.defaultScenario
	}
	def, err := m.scenarios.Get(id)
	if err != nil {
		return nil, script.Line{}, err
	}
	callID := uuid.New().String()
	s, err := NewSession(callID, def, req.Meta, req.Scripted, m.now(), m.log)
	if err != nil {
		return nil, script.Line{}, err
	}

	m.mu.Lock()
	m.sessions[callID] = s
	m.mu.Unlock()

	metrics.CallsStarted.WithLabelValues(def.ID).Inc()
	m.log.WithField("call_id", callID).WithField("scenario", def.ID).Info("call started")
	return s, script.Opening(def, req.Meta), nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCallNotFound, id)
	}
	return s, nil
}

// Ingest feeds one utterance to call id. A scripted call whose next line
// closes the conversation is ended and published.
func (m *Manager) Ingest(ctx context.Context, id string, speaker types.Speaker, text string) (Turn, error) {
	s, err := m.Get(id)
	if err != nil {
		return Turn{}, err
	}
	turn, err := s.Ingest(speaker, text, m.now())
	if err != nil {
		return Turn{}, err
	}
	if s.scripted && turn.Next != nil && turn.Next.EndCall {
		if _, err := m.End(ctx, id, types.EndReasonEndCall); err != nil {
			m.log.WithError(err).WithField("call_id", id).Warn("auto end failed")
		}
	}
	return turn, nil
}

// End closes call id and publishes its result once. Ending an ended call
// returns the stored result.
func (m *Manager) End(ctx context.Context, id, reason string) (types.CallResult, error) {
	s, err := m.Get(id)
	if err != nil {
		return types.CallResult{}, err
	}
	if reason == "" {
		reason = types.EndReasonEndCall
	}
	res, first, err := s.End(reason, m.now())
	if err != nil {
		return res, err
	}
	if first && m.publisher != nil {
		if perr := m.publisher.Publish(ctx, res); perr != nil {
			m.log.WithError(perr).WithField("call_id", id).Error("publish call result")
		}
	}
	return res, nil
}

// List returns the ids of all known calls, oldest first.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := m.sessions[ids[i]], m.sessions[ids[j]]
		if a.startedAt.Equal(b.startedAt) {
			return ids[i] < ids[j]
		}
		return a.startedAt.Before(b.startedAt)
	})
	return ids
}

// Forget drops an ended call from memory.
func (m *Manager) Forget(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok && s.Ended() {
		delete(m.sessions, id)
	}
}

// Sweep drops calls that ended at least the retention period ago and returns
// how many it dropped. Their results remain readable through the store.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.retention)
	m.mu.RLock()
	var stale []string
	for id, s := range m.sessions {
		if at, ok := s.EndedAt(); ok && !at.After(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range stale {
		m.Forget(id)
	}
	if len(stale) > 0 {
		m.log.WithField("evicted", len(stale)).Debug("ended calls evicted")
	}
	return len(stale)
}

// Run sweeps ended calls every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, every time.Duration) {
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			m.Sweep()
		}
	}
}
