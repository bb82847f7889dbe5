package types

// Topic is one piece of information the dispatcher needs from the driver.
type Topic string

const (
	TopicStatus            Topic = "status"
	TopicLocation          Topic = "location"
	TopicETA               Topic = "eta"
	TopicDelayReason       Topic = "delay_reason"
	TopicUnloading         Topic = "unloading_status"
	TopicPOD               Topic = "pod"
	TopicSafety            Topic = "emergency_safety"
	TopicEmergencyLocation Topic = "emergency_location"
	TopicIncident          Topic = "emergency_incident"
	TopicLoadSecurity      Topic = "emergency_load_secure"
)

// EmergencyTopics is the fixed emergency sequence.
var EmergencyTopics = []Topic{TopicSafety, TopicEmergencyLocation, TopicIncident, TopicLoadSecurity}

// TopicField maps a topic to the summary field it feeds.
var TopicField = map[Topic]string{
	TopicStatus:            FieldDriverStatus,
	TopicLocation:          FieldCurrentLocation,
	TopicETA:               FieldETA,
	TopicDelayReason:       FieldDelayReason,
	TopicUnloading:         FieldUnloadingStatus,
	TopicPOD:               FieldPODAcknowledged,
	TopicSafety:            FieldSafetyStatus,
	TopicEmergencyLocation: FieldEmergencyLoc,
	TopicIncident:          FieldEmergencyType,
	TopicLoadSecurity:      FieldLoadSecure,
}
