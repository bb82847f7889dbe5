package scenario

import "dispatch-voice-go/internal/types"

const (
	IDGeneral           = "general"
	IDDriverCheckin     = "driver_checkin"
	IDEmergencyProtocol = "emergency_protocol"
)

var (
	driverStatusOptions = []string{"Driving", "Delayed", "Arrived", "Unloading"}
	delayReasonOptions  = []string{"Heavy Traffic", "Weather", "Mechanical", "Loading/Unloading", "Other", "None"}
	unloadingOptions    = []string{"In Door", "Waiting for Lumper", "Detention", "N/A"}
	emergencyOptions    = []string{"Accident", "Breakdown", "Medical", "Other"}
)

func checkinFields(outcomes ...string) []FieldDef {
	return []FieldDef{
		{Key: types.FieldCallOutcome, Label: "Call Outcome", Type: TypeSelect, Options: outcomes},
		{Key: types.FieldDriverStatus, Label: "Driver Status", Type: TypeSelect, Options: driverStatusOptions},
		{Key: types.FieldCurrentLocation, Label: "Current Location", Type: TypeText},
		{Key: types.FieldETA, Label: "ETA", Type: TypeText},
		{Key: types.FieldDelayReason, Label: "Delay Reason", Type: TypeSelect, Options: delayReasonOptions},
		{Key: types.FieldUnloadingStatus, Label: "Unloading Status", Type: TypeSelect, Options: unloadingOptions},
		{Key: types.FieldPODAcknowledged, Label: "POD Reminder", Type: TypeBoolean},
	}
}

func emergencyFields() []FieldDef {
	return []FieldDef{
		{Key: types.FieldEmergencyType, Label: "Emergency Type", Type: TypeSelect, Options: emergencyOptions},
		{Key: types.FieldSafetyStatus, Label: "Safety Status", Type: TypeText},
		{Key: types.FieldInjuryStatus, Label: "Injury Status", Type: TypeText},
		{Key: types.FieldEmergencyLoc, Label: "Emergency Location", Type: TypeText},
		{Key: types.FieldLoadSecure, Label: "Load Secure", Type: TypeBoolean},
		{Key: types.FieldEscalationStatus, Label: "Escalation Status", Type: TypeText},
	}
}

// Builtins returns fresh copies of the three stock scenarios.
func Builtins() []Definition {
	return []Definition{
		{
			ID:     IDGeneral,
			Name:   "General Logistics Call",
			Fields: append(checkinFields(types.OutcomeInTransit, types.OutcomeArrival, types.OutcomeEmergency), emergencyFields()...),
		},
		{
			ID:     IDDriverCheckin,
			Name:   "Driver Check-in",
			Fields: checkinFields(types.OutcomeInTransit, types.OutcomeArrival),
		},
		{
			ID:   IDEmergencyProtocol,
			Name: "Emergency Protocol",
			Fields: append([]FieldDef{
				{Key: types.FieldCallOutcome, Label: "Call Outcome", Type: TypeSelect, Options: []string{types.OutcomeEmergency}},
			}, emergencyFields()...),
		},
	}
}
