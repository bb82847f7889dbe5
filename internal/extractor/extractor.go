// Package extractor derives the structured call summary from a finished (or
// abandoned) conversation. It is a pure function of its inputs.
package extractor

import (
	"strings"

	"dispatch-voice-go/internal/conversation"
	"dispatch-voice-go/internal/rules"
	"dispatch-voice-go/internal/scenario"
	"dispatch-voice-go/internal/types"
)

var (
	ErrConfiguration = scenario.ErrConfiguration
	ErrMissingField  = scenario.ErrMissingField
	ErrUnknownField  = scenario.ErrUnknownField
)

// Escalation status values.
const (
	EscalationConnected = "Connected to Human Dispatcher"
	EscalationFollowUp  = "Driver Unresponsive - Dispatcher Follow-up Required"
	EscalationPending   = "Escalation Pending"
)

// DriverUnloading is reported instead of Arrived once the truck is in a door.
const DriverUnloading = "Unloading"

// Transcript is the read side of the utterance log.
type Transcript interface {
	At(seq int) (types.Utterance, bool)
	Driver() []types.Utterance
}

// Extract builds the summary for def. The key set is exactly def's fields
// (emergency fields only when latched) with call_outcome first. Topics that
// were never resolved get their fallback value. A definition the extractor
// cannot satisfy is rejected with an error wrapping ErrConfiguration.
func Extract(log Transcript, state conversation.State, latched bool, def scenario.Definition) (types.StructuredSummary, error) {
	if err := def.Validate(); err != nil {
		return types.StructuredSummary{}, err
	}
	x := extraction{log: log, state: state, latched: latched}

	fields := []types.SummaryField{{Key: types.FieldCallOutcome, Value: x.outcome()}}
	for _, key := range def.Keys() {
		if key == types.FieldCallOutcome {
			continue
		}
		if types.EmergencyFields[key] && !latched {
			continue
		}
		fields = append(fields, types.SummaryField{Key: key, Value: x.value(key)})
	}
	return types.NewSummary(fields), nil
}

type extraction struct {
	log     Transcript
	state   conversation.State
	latched bool
}

func (x extraction) outcome() string {
	switch {
	case x.latched:
		return types.OutcomeEmergency
	case len(x.log.Driver()) == 0:
		return types.OutcomeIncomplete
	case x.state.Branch() == conversation.BranchArrived:
		return types.OutcomeArrival
	default:
		return types.OutcomeInTransit
	}
}

func (x extraction) value(key string) any {
	branch := x.state.Branch()
	switch key {
	case types.FieldDriverStatus:
		return x.driverStatus()
	case types.FieldCurrentLocation:
		return x.topic(types.TopicLocation, rules.Location, rules.NotSpecified)
	case types.FieldETA:
		return x.topic(types.TopicETA, rules.ETA, rules.NotSpecified)
	case types.FieldDelayReason:
		if branch != conversation.BranchDelayed {
			return rules.DelayNone
		}
		return x.topic(types.TopicDelayReason, rules.DelayReason, rules.DelayOther)
	case types.FieldUnloadingStatus:
		if branch != conversation.BranchArrived {
			return rules.UnloadingNA
		}
		return x.topic(types.TopicUnloading, rules.Unloading, rules.UnloadingNA)
	case types.FieldPODAcknowledged:
		return x.state.Topic(types.TopicPOD).Known
	case types.FieldEmergencyType:
		return x.emergencyType()
	case types.FieldSafetyStatus:
		return x.topic(types.TopicSafety, rules.Safety, rules.SafetyUnknown)
	case types.FieldInjuryStatus:
		return x.injuryStatus()
	case types.FieldEmergencyLoc:
		return x.topic(types.TopicEmergencyLocation, rules.Location, rules.NotSpecified)
	case types.FieldLoadSecure:
		return x.topic(types.TopicLoadSecurity, rules.LoadSecurity, "false") == "true"
	case types.FieldEscalationStatus:
		return x.escalation()
	}
	// Validate has already rejected unknown keys.
	return nil
}

// topic re-runs table on the utterance that resolved tp.
func (x extraction) topic(tp types.Topic, table rules.Table, fallback string) string {
	ts := x.state.Topic(tp)
	if !ts.Known {
		return fallback
	}
	if ts.Value != "" {
		fallback = ts.Value
	}
	u, ok := x.log.At(ts.Seq)
	if !ok {
		return fallback
	}
	return table.Value(u.Text, ts.Answered, fallback)
}

func (x extraction) driverStatus() string {
	switch x.state.Branch() {
	case conversation.BranchArrived:
		if strings.HasPrefix(x.topic(types.TopicUnloading, rules.Unloading, ""), "In Door") {
			return DriverUnloading
		}
		return rules.StatusArrived
	case conversation.BranchDelayed:
		return rules.StatusDelayed
	default:
		return rules.StatusDriving
	}
}

// emergencyType falls back to the first driver line describing an incident
// when the incident question was never answered.
func (x extraction) emergencyType() string {
	if v := x.topic(types.TopicIncident, rules.Incident, ""); v != "" {
		return v
	}
	for _, u := range x.log.Driver() {
		if m, ok := rules.Incident.First(u.Text, false); ok {
			return m.Value
		}
	}
	return rules.EmergencyOther
}

func (x extraction) injuryStatus() string {
	if ts := x.state.Topic(types.TopicSafety); ts.Known {
		if u, ok := x.log.At(ts.Seq); ok {
			if m, ok := rules.Injury.First(u.Text, false); ok {
				return m.Value
			}
		}
	}
	for _, u := range x.log.Driver() {
		if m, ok := rules.Injury.First(u.Text, false); ok {
			return m.Value
		}
	}
	return rules.InjuriesUnknown
}

func (x extraction) escalation() string {
	switch x.state.Phase.Kind {
	case conversation.Escalated:
		return EscalationConnected
	case conversation.Terminated:
		return EscalationFollowUp
	default:
		return EscalationPending
	}
}
