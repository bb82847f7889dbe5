// Package retry decides what the dispatcher does after an unclear or
// uncooperative driver answer.
package retry

import "dispatch-voice-go/internal/types"

type Kind int

const (
	Clear Kind = iota
	Unclear
	Uncooperative
)

func (k Kind) String() string {
	switch k {
	case Clear:
		return "clear"
	case Unclear:
		return "unclear"
	case Uncooperative:
		return "uncooperative"
	}
	return "unknown"
}

type Classification struct {
	Kind  Kind
	Value string
	Terse bool
}

type Action int

const (
	Continue Action = iota
	RePrompt
	SkipTopic
	TerminateCall
)

func (a Action) String() string {
	switch a {
	case Continue:
		return "continue"
	case RePrompt:
		return "reprompt"
	case SkipTopic:
		return "skip_topic"
	case TerminateCall:
		return "terminate_call"
	}
	return "unknown"
}

const (
	// MaxUnclear is the per-topic count at which the policy stops re-asking.
	MaxUnclear = 2
	// UncooperativeLimit is the cross-topic streak that ends the call.
	UncooperativeLimit = 3
)

// mandatory topics can never be skipped.
var mandatory = map[types.Topic]bool{
	types.TopicSafety:            true,
	types.TopicEmergencyLocation: true,
}

func Mandatory(t types.Topic) bool { return mandatory[t] }

type topicState struct {
	count   int
	known   bool
	skipped bool
	last    Kind
	seen    bool
}

// Policy is owned by a single call.
type Policy struct {
	topics map[types.Topic]*topicState
	streak int
}

func NewPolicy() *Policy {
	return &Policy{topics: map[types.Topic]*topicState{}}
}

func (p *Policy) state(t types.Topic) *topicState {
	s, ok := p.topics[t]
	if !ok {
		s = &topicState{}
		p.topics[t] = s
	}
	return s
}

// Record applies one classified driver turn to topic t. Counters of known or
// skipped topics are frozen.
func (p *Policy) Record(t types.Topic, c Classification) {
	s := p.state(t)
	switch c.Kind {
	case Clear:
		p.streak = 0
		if s.skipped {
			return
		}
		s.count = 0
		s.known = true
	case Unclear:
		p.streak = 0
		if s.known || s.skipped {
			return
		}
		s.count++
	case Uncooperative:
		p.streak++
		if s.known || s.skipped {
			return
		}
	}
	s.last = c.Kind
	s.seen = true
}

// Advance returns the next step for the pending topic t.
func (p *Policy) Advance(t types.Topic) Action {
	if p.streak >= UncooperativeLimit {
		return TerminateCall
	}
	s := p.state(t)
	if s.known || s.skipped || !s.seen {
		return Continue
	}
	switch s.last {
	case Uncooperative:
		return RePrompt
	case Unclear:
		if s.count < MaxUnclear {
			return RePrompt
		}
		if Mandatory(t) {
			return TerminateCall
		}
		return SkipTopic
	}
	return Continue
}

// Skip marks t as abandoned without a value.
func (p *Policy) Skip(t types.Topic) {
	s := p.state(t)
	s.skipped = true
}

func (p *Policy) Count(t types.Topic) int {
	if s, ok := p.topics[t]; ok {
		return s.count
	}
	return 0
}

func (p *Policy) Known(t types.Topic) bool {
	s, ok := p.topics[t]
	return ok && s.known
}

func (p *Policy) Skipped(t types.Topic) bool {
	s, ok := p.topics[t]
	return ok && s.skipped
}

func (p *Policy) Streak() int { return p.streak }

// ResetStreak clears the uncooperative streak without touching topic counters.
func (p *Policy) ResetStreak() { p.streak = 0 }
