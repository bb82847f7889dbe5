package types

import (
	"strings"
	"time"
)

type Speaker string

const (
	SpeakerDispatcher Speaker = "Dispatcher"
	SpeakerDriver     Speaker = "Driver"
)

// ParseSpeaker accepts the role names used by the voice SDKs ("agent"/"user")
// as well as the dispatch names.
func ParseSpeaker(s string) (Speaker, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dispatcher", "dispatch", "agent", "assistant":
		return SpeakerDispatcher, true
	case "driver", "user", "caller":
		return SpeakerDriver, true
	}
	return "", false
}

// Utterance is one speaker turn. Seq is assigned by the log on append.
type Utterance struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Seq       int       `json:"sequence_index"`
}

type CallMeta struct {
	DriverName  string `json:"driver_name,omitempty"`
	LoadNumber  string `json:"load_number,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	CallType    string `json:"call_type,omitempty"`
}

const (
	EndReasonEndCall    = "end_call"
	EndReasonDisconnect = "disconnect"
	EndReasonCompleted  = "completed"
)

// CallResult is handed to the results sinks once per call.
type CallResult struct {
	CallID             string            `json:"call_id"`
	ScenarioID         string            `json:"scenario_id"`
	Meta               CallMeta          `json:"call_request"`
	StartedAt          time.Time         `json:"started_at"`
	EndedAt            time.Time         `json:"ended_at"`
	DurationMs         int64             `json:"duration_ms"`
	FinalPhase         string            `json:"final_phase"`
	EmergencyTriggered bool              `json:"emergency_triggered"`
	EmergencyKeyword   string            `json:"emergency_keyword,omitempty"`
	EndReason          string            `json:"end_reason"`
	DriverTurns        int               `json:"driver_turns"`
	Summary            StructuredSummary `json:"summary"`
	Transcript         []Utterance       `json:"transcript"`
	Error              string            `json:"error,omitempty"`
}
