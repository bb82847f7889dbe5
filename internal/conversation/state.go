package conversation

import (
	"dispatch-voice-go/internal/retry"
	"dispatch-voice-go/internal/types"
)

// TopicState is the completion flag of one topic. Seq points at the driver
// utterance that resolved it; Answered reports whether that utterance was a
// reply to a question about the topic.
type TopicState struct {
	Topic    types.Topic `json:"topic"`
	Known    bool        `json:"known"`
	Skipped  bool        `json:"skipped"`
	Seq      int         `json:"sequence_index"`
	Answered bool        `json:"answered"`
	Value    string      `json:"value,omitempty"`
	Retries  int         `json:"retries"`
}

// State is a read-only snapshot of the tracker.
type State struct {
	Phase   Phase                      `json:"phase"`
	History []Transition               `json:"history"`
	Topics  map[types.Topic]TopicState `json:"topics"`
	Pending types.Topic                `json:"pending,omitempty"`
	Streak  int                        `json:"uncooperative_streak"`
}

// Topic returns the state of t, zero-valued (unknown) when never touched.
func (s State) Topic(t types.Topic) TopicState {
	if ts, ok := s.Topics[t]; ok {
		return ts
	}
	return TopicState{Topic: t, Seq: -1}
}

// Branch is the status branch the call took, NoBranch if the driver never
// got past the status question.
func (s State) Branch() Branch { return s.Phase.Branch }

// Turn is the outcome of feeding one utterance to the tracker.
type Turn struct {
	Utterance types.Utterance `json:"utterance"`
	// Asked is the topic pending before this utterance.
	Asked          types.Topic          `json:"asked,omitempty"`
	Classification retry.Classification `json:"-"`
	Kind           string               `json:"classification,omitempty"`
	Action         retry.Action         `json:"-"`
	ActionName     string               `json:"action"`
	Resolved       []types.Topic        `json:"resolved,omitempty"`
	Preempted      bool                 `json:"preempted"`
	Phase          Phase                `json:"phase"`
	// Pending is the topic the dispatcher should ask about next.
	Pending types.Topic `json:"pending,omitempty"`
}
