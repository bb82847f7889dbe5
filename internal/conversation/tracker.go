package conversation

import (
	"time"

	"dispatch-voice-go/internal/retry"
	"dispatch-voice-go/internal/types"
)

// Tracker is owned by one call and must be fed utterances in order.
type Tracker struct {
	required map[types.Topic]bool
	policy   *retry.Policy
	phase    Phase
	history  []Transition
	topics   map[types.Topic]*TopicState

	// emergency is set once the call has entered the emergency flow.
	emergency bool
}

// NewTracker starts a call in Greeting. fields are the scenario's summary
// keys; a normal-flow topic is only asked for when its field is present.
// The status question and the emergency sequence are always part of the flow.
func NewTracker(fields []string, start time.Time) *Tracker {
	keys := make(map[string]bool, len(fields))
	for _, f := range fields {
		keys[f] = true
	}
	required := map[types.Topic]bool{types.TopicStatus: true}
	for _, tp := range types.EmergencyTopics {
		required[tp] = true
	}
	for tp, field := range types.TopicField {
		if keys[field] {
			required[tp] = true
		}
	}
	return &Tracker{
		required: required,
		policy:   retry.NewPolicy(),
		phase:    Phase{Kind: Greeting, EnteredAt: start},
		topics:   map[types.Topic]*TopicState{},
	}
}

func (t *Tracker) Phase() Phase { return t.phase }

// Required reports whether tp is part of this call's flow.
func (t *Tracker) Required(tp types.Topic) bool { return t.required[tp] }

// Pending is the first open topic of the current phase, empty when the phase
// has nothing left to ask.
func (t *Tracker) Pending() types.Topic {
	if open := t.open(); len(open) > 0 {
		return open[0]
	}
	return ""
}

// Classify grades u as an answer about tp. Bare answers only count for the
// pending topic.
func (t *Tracker) Classify(u types.Utterance, tp types.Topic) retry.Classification {
	return retry.Classify(u.Text, tp, tp == t.Pending())
}

// Step advances the machine by one utterance. Dispatcher lines are ignored.
// A raised latch moves the call into Emergency from any phase, including
// WrapUp and Terminated, the first time it is seen; otherwise nothing
// happens after a terminal phase.
func (t *Tracker) Step(u types.Utterance, latched bool) Turn {
	turn := Turn{Utterance: u, Action: retry.Continue}
	if u.Speaker != types.SpeakerDriver {
		return t.finish(turn)
	}

	// Preemption: the triggering line was not an answer to any question.
	pending := t.Pending()
	switch {
	case latched && !t.emergency && t.phase.Kind != Emergency && t.phase.Kind != Escalated:
		t.emergency = true
		t.enter(Emergency, t.phase.Branch, u, "emergency keyword")
		t.policy.ResetStreak()
		turn.Preempted = true
		pending = ""
	case t.phase.Kind.Terminal():
		return t.finish(turn)
	}
	turn.Asked = pending

	resolved, c := t.capture(u, pending)
	if t.phase.Kind == Greeting || t.phase.Kind == StatusInquiry {
		if st := t.topics[types.TopicStatus]; st != nil && st.Known {
			t.enter(InBranch, Branch(st.Value), u, "status "+st.Value)
			more, _ := t.capture(u, "")
			resolved = append(resolved, more...)
		}
	}
	turn.Resolved = resolved

	if pending != "" {
		turn.Classification = c
		turn.Kind = c.Kind.String()
	}
	if len(resolved) == 0 && pending != "" {
		t.policy.Record(pending, c)
		t.state(pending)
		turn.Action = t.policy.Advance(pending)
		turn.Resolved = append(turn.Resolved, t.apply(turn.Action, pending, u)...)
	}

	t.settle(u)
	return t.finish(turn)
}

// State returns a copy of the tracker's state.
func (t *Tracker) State() State {
	s := State{
		Phase:   t.phase,
		History: append([]Transition(nil), t.history...),
		Topics:  make(map[types.Topic]TopicState, len(t.topics)),
		Pending: t.Pending(),
		Streak:  t.policy.Streak(),
	}
	for tp, ts := range t.topics {
		cp := *ts
		cp.Retries = t.policy.Count(tp)
		s.Topics[tp] = cp
	}
	return s
}

func (t *Tracker) finish(turn Turn) Turn {
	turn.ActionName = turn.Action.String()
	turn.Phase = t.phase
	turn.Pending = t.Pending()
	return turn
}

func (t *Tracker) topicsFor(p Phase) []types.Topic {
	switch p.Kind {
	case Greeting, StatusInquiry:
		return []types.Topic{types.TopicStatus}
	case InBranch:
		return t.filter(branchTopics[p.Branch])
	case FollowUp:
		return t.filter([]types.Topic{types.TopicPOD})
	case Emergency:
		return types.EmergencyTopics
	}
	return nil
}

func (t *Tracker) filter(in []types.Topic) []types.Topic {
	var out []types.Topic
	for _, tp := range in {
		if t.required[tp] {
			out = append(out, tp)
		}
	}
	return out
}

func (t *Tracker) open() []types.Topic {
	var out []types.Topic
	for _, tp := range t.topicsFor(t.phase) {
		if ts := t.topics[tp]; ts != nil && (ts.Known || ts.Skipped) {
			continue
		}
		out = append(out, tp)
	}
	return out
}

func (t *Tracker) state(tp types.Topic) *TopicState {
	ts, ok := t.topics[tp]
	if !ok {
		ts = &TopicState{Topic: tp, Seq: -1}
		t.topics[tp] = ts
	}
	return ts
}

// capture scans u against every open topic of the current phase and marks
// the clear ones known. It also returns the classification for pending.
func (t *Tracker) capture(u types.Utterance, pending types.Topic) ([]types.Topic, retry.Classification) {
	var (
		resolved []types.Topic
		forPend  retry.Classification
	)
	for _, tp := range t.open() {
		c := retry.Classify(u.Text, tp, tp == pending)
		if tp == pending {
			forPend = c
		}
		if c.Kind != retry.Clear {
			continue
		}
		t.policy.Record(tp, c)
		ts := t.state(tp)
		ts.Known = true
		ts.Seq = u.Seq
		ts.Answered = tp == pending
		ts.Value = c.Value
		resolved = append(resolved, tp)
	}
	return resolved, forPend
}

// apply carries out the policy's action. A defaulted status enters the
// Driving branch and harvests u against it; the captured topics are returned.
func (t *Tracker) apply(a retry.Action, tp types.Topic, u types.Utterance) []types.Topic {
	switch a {
	case retry.RePrompt:
		if t.phase.Kind == Greeting {
			t.enter(StatusInquiry, NoBranch, u, "status unclear")
		}
	case retry.SkipTopic:
		t.policy.Skip(tp)
		t.state(tp).Skipped = true
		if tp == types.TopicStatus {
			t.enter(InBranch, BranchDriving, u, "status defaulted")
			more, _ := t.capture(u, "")
			return more
		}
	case retry.TerminateCall:
		t.enter(Terminated, t.phase.Branch, u, "retry limit on "+string(tp))
	}
	return nil
}

// settle walks completed phases forward.
func (t *Tracker) settle(u types.Utterance) {
	for len(t.open()) == 0 {
		switch t.phase.Kind {
		case InBranch:
			t.enter(FollowUp, t.phase.Branch, u, "branch complete")
		case FollowUp:
			t.enter(WrapUp, t.phase.Branch, u, "follow-up complete")
		case Emergency:
			t.enter(Escalated, t.phase.Branch, u, "emergency details collected")
		default:
			return
		}
	}
}

func (t *Tracker) enter(kind PhaseKind, branch Branch, u types.Utterance, reason string) {
	to := Phase{Kind: kind, Branch: branch, EnteredAt: u.Timestamp}
	t.history = append(t.history, Transition{From: t.phase, To: to, Seq: u.Seq, Reason: reason})
	t.phase = to
}
