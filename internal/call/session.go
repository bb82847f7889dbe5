// Package call owns the per-call processing context and the registry of live
// calls.
package call

import (
	"errors"
	"sync"
	"time"

	"dispatch-voice-go/internal/conversation"
	"dispatch-voice-go/internal/emergency"
	"dispatch-voice-go/internal/extractor"
	"dispatch-voice-go/internal/logger"
	"dispatch-voice-go/internal/metrics"
	"dispatch-voice-go/internal/retry"
	"dispatch-voice-go/internal/scenario"
	"dispatch-voice-go/internal/script"
	"dispatch-voice-go/internal/transcript"
	"dispatch-voice-go/internal/types"
)

var (
	ErrCallNotFound = errors.New("call not found")
	ErrCallEnded    = errors.New("call already ended")
)

// Turn is returned for every ingested utterance.
type Turn struct {
	Utterance          types.Utterance `json:"utterance"`
	Classification     string          `json:"classification,omitempty"`
	Action             string          `json:"action"`
	Phase              string          `json:"phase"`
	Pending            types.Topic     `json:"pending_topic,omitempty"`
	Emergency          bool            `json:"emergency"`
	EmergencyTriggered bool            `json:"emergency_triggered"`
	Next               *script.Line    `json:"next_line,omitempty"`
}

// Session is the arena for a single call: it owns the log, latch, detector,
// tracker and a snapshot of the scenario taken at call start. All methods are
// safe for concurrent use but utterances must arrive in order.
type Session struct {
	mu sync.Mutex

	id        string
	def       scenario.Definition
	meta      types.CallMeta
	scripted  bool
	startedAt time.Time

	log      *transcript.Log
	detector *emergency.Detector
	latch    emergency.Latch
	tracker  *conversation.Tracker
	result   *types.CallResult

	logger *logger.Logger
}

// NewSession validates def and opens the call. When scripted is true the
// session speaks the dispatcher's lines itself and records them in the log.
func NewSession(id string, def scenario.Definition, meta types.CallMeta, scripted bool, start time.Time, log *logger.Logger) (*Session, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	def = def.Clone()
	s := &Session{
		id:        id,
		def:       def,
		meta:      meta,
		scripted:  scripted,
		startedAt: start,
		log:       transcript.New(),
		detector:  def.Detector(),
		tracker:   conversation.NewTracker(def.Keys(), start),
		logger:    log.WithCall(id, def.ID),
	}
	if scripted {
		opening := script.Opening(def, meta)
		if _, err := s.log.Append(types.SpeakerDispatcher, opening.Text, start); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Session) ID() string                    { return s.id }
func (s *Session) Scenario() scenario.Definition { return s.def.Clone() }
func (s *Session) Meta() types.CallMeta          { return s.meta }
func (s *Session) StartedAt() time.Time          { return s.startedAt }

// EndedAt reports when the call ended; ok is false while it is still open.
func (s *Session) EndedAt() (at time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return time.Time{}, false
	}
	return s.result.EndedAt, true
}

// Ingest appends one utterance and advances the call.
func (s *Session) Ingest(speaker types.Speaker, text string, ts time.Time) (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result != nil {
		return Turn{}, ErrCallEnded
	}
	u, err := s.log.Append(speaker, text, ts)
	if err != nil {
		return Turn{}, err
	}

	wasLatched := s.latch.Triggered()
	s.detector.Evaluate(u, &s.latch)
	triggered := !wasLatched && s.latch.Triggered()
	if triggered {
		kw, _, _, _ := s.latch.Trigger()
		metrics.EmergencyTriggers.WithLabelValues(s.def.ID).Inc()
		s.logger.WithField("keyword", kw).WithField("seq", u.Seq).Warn("emergency latch raised")
	}

	ct := s.tracker.Step(u, s.latch.Triggered())
	turn := Turn{
		Utterance:          u,
		Classification:     ct.Kind,
		Action:             ct.ActionName,
		Phase:              ct.Phase.String(),
		Pending:            ct.Pending,
		Emergency:          s.latch.Triggered(),
		EmergencyTriggered: triggered,
	}
	if ct.Action != retry.Continue {
		metrics.RetryActions.WithLabelValues(ct.ActionName).Inc()
		s.logger.WithField("topic", ct.Asked).WithField("action", ct.ActionName).Debug("retry policy")
	}
	if speaker != types.SpeakerDriver {
		return turn, nil
	}

	line := script.NextLine(s.def, s.tracker.State(), ct)
	turn.Next = &line
	if s.scripted {
		if _, err := s.log.Append(types.SpeakerDispatcher, line.Text, ts); err != nil {
			return Turn{}, err
		}
	}
	return turn, nil
}

// Summarize extracts the summary from the call as it stands. It may be called
// at any point, before or after End.
func (s *Session) Summarize() (types.StructuredSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result != nil {
		return s.result.Summary, nil
	}
	return extractor.Extract(s.log, s.tracker.State(), s.latch.Triggered(), s.def)
}

// State is the tracker snapshot.
func (s *Session) State() conversation.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.State()
}

func (s *Session) Latched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latch.Triggered()
}

func (s *Session) Transcript() []types.Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.All()
}

// Terminal reports whether the conversation reached a terminal phase.
func (s *Session) Terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Phase().Kind.Terminal()
}

func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result != nil
}

// End closes the call and builds its result. The first call wins; later calls
// return the same result and first reports false.
func (s *Session) End(reason string, at time.Time) (res types.CallResult, first bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result != nil {
		return *s.result, false, nil
	}

	state := s.tracker.State()
	res = types.CallResult{
		CallID:             s.id,
		ScenarioID:         s.def.ID,
		Meta:               s.meta,
		StartedAt:          s.startedAt,
		EndedAt:            at,
		DurationMs:         at.Sub(s.startedAt).Milliseconds(),
		FinalPhase:         state.Phase.String(),
		EmergencyTriggered: s.latch.Triggered(),
		EndReason:          reason,
		DriverTurns:        s.log.DriverTurns(),
		Transcript:         s.log.All(),
	}
	if kw, _, _, ok := s.latch.Trigger(); ok {
		res.EmergencyKeyword = kw
	}
	summary, err := extractor.Extract(s.log, state, s.latch.Triggered(), s.def)
	if err != nil {
		metrics.ExtractionErrors.WithLabelValues(s.def.ID).Inc()
		res.Error = err.Error()
	}
	res.Summary = summary
	s.result = &res

	metrics.CallsEnded.WithLabelValues(s.def.ID, summary.Outcome(), reason).Inc()
	metrics.TurnsPerCall.WithLabelValues(s.def.ID).Observe(float64(res.DriverTurns))
	s.logger.WithField("outcome", summary.Outcome()).WithField("phase", res.FinalPhase).WithField("reason", reason).Info("call ended")
	return res, true, err
}
