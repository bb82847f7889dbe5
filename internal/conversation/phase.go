// Package conversation tracks the scripted flow of a check-in call as an
// explicit state machine over driver utterances.
package conversation

import (
	"time"

	"dispatch-voice-go/internal/rules"
	"dispatch-voice-go/internal/types"
)

type PhaseKind int

const (
	Greeting PhaseKind = iota
	StatusInquiry
	InBranch
	FollowUp
	WrapUp
	Emergency
	Escalated
	Terminated
)

var phaseNames = map[PhaseKind]string{
	Greeting:      "Greeting",
	StatusInquiry: "StatusInquiry",
	InBranch:      "Branch",
	FollowUp:      "FollowUp",
	WrapUp:        "WrapUp",
	Emergency:     "Emergency",
	Escalated:     "Escalated",
	Terminated:    "Terminated",
}

func (k PhaseKind) String() string {
	if n, ok := phaseNames[k]; ok {
		return n
	}
	return "Unknown"
}

// Terminal phases accept no further transitions.
func (k PhaseKind) Terminal() bool {
	return k == WrapUp || k == Escalated || k == Terminated
}

// Branch is the driver's reported status. It is carried into every phase
// that follows the status answer.
type Branch string

const (
	NoBranch      Branch = ""
	BranchDriving Branch = rules.StatusDriving
	BranchDelayed Branch = rules.StatusDelayed
	BranchArrived Branch = rules.StatusArrived
)

type Phase struct {
	Kind      PhaseKind `json:"kind"`
	Branch    Branch    `json:"branch,omitempty"`
	EnteredAt time.Time `json:"entered_at"`
}

func (p Phase) String() string {
	if p.Kind == InBranch {
		return "Branch(" + string(p.Branch) + ")"
	}
	return p.Kind.String()
}

// Transition is one entry of the phase history.
type Transition struct {
	From   Phase  `json:"from"`
	To     Phase  `json:"to"`
	Seq    int    `json:"sequence_index"`
	Reason string `json:"reason"`
}

// branchTopics lists, in asking order, the topics collected in each branch.
var branchTopics = map[Branch][]types.Topic{
	BranchDriving: {types.TopicLocation, types.TopicETA},
	BranchDelayed: {types.TopicDelayReason, types.TopicETA, types.TopicLocation},
	BranchArrived: {types.TopicUnloading},
}
