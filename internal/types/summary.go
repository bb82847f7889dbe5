// internal/types/summary.go
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// --------------------------------------------
// Call outcomes
// --------------------------------------------
const (
	OutcomeInTransit  = "In-Transit Update"
	OutcomeArrival    = "Arrival Confirmation"
	OutcomeEmergency  = "Emergency Escalation"
	OutcomeIncomplete = "Incomplete"
)

// --------------------------------------------
// Structured field keys
// --------------------------------------------
const (
	FieldCallOutcome      = "call_outcome"
	FieldDriverStatus     = "driver_status"
	FieldCurrentLocation  = "current_location"
	FieldETA              = "eta"
	FieldDelayReason      = "delay_reason"
	FieldUnloadingStatus  = "unloading_status"
	FieldPODAcknowledged  = "pod_reminder_acknowledged"
	FieldEmergencyType    = "emergency_type"
	FieldSafetyStatus     = "safety_status"
	FieldInjuryStatus     = "injury_status"
	FieldEmergencyLoc     = "emergency_location"
	FieldLoadSecure       = "load_secure"
	FieldEscalationStatus = "escalation_status"
)

// EmergencyFields are only reported once the emergency latch is set.
var EmergencyFields = map[string]bool{
	FieldEmergencyType:    true,
	FieldSafetyStatus:     true,
	FieldInjuryStatus:     true,
	FieldEmergencyLoc:     true,
	FieldLoadSecure:       true,
	FieldEscalationStatus: true,
}

type SummaryField struct {
	Key   string
	Value any
}

// StructuredSummary is an ordered, immutable key/value record. It marshals to a
// JSON object whose keys keep insertion order.
type StructuredSummary struct {
	fields []SummaryField
}

func NewSummary(fields []SummaryField) StructuredSummary {
	cp := make([]SummaryField, len(fields))
	copy(cp, fields)
	return StructuredSummary{fields: cp}
}

func (s StructuredSummary) Get(key string) (any, bool) {
	for _, f := range s.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func (s StructuredSummary) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// String returns the value for key rendered as a string ("" when absent).
func (s StructuredSummary) String(key string) string {
	v, ok := s.Get(key)
	if !ok {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprint(v)
}

func (s StructuredSummary) Bool(key string) bool {
	v, _ := s.Get(key)
	b, _ := v.(bool)
	return b
}

func (s StructuredSummary) Outcome() string { return s.String(FieldCallOutcome) }

func (s StructuredSummary) Keys() []string {
	keys := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		keys = append(keys, f.Key)
	}
	return keys
}

func (s StructuredSummary) Fields() []SummaryField {
	cp := make([]SummaryField, len(s.fields))
	copy(cp, s.fields)
	return cp
}

func (s StructuredSummary) Len() int { return len(s.fields) }

func (s StructuredSummary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", f.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *StructuredSummary) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		s.fields = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("summary: expected object, got %v", tok)
	}
	var fields []SummaryField
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("summary: expected key, got %v", kt)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("summary %s: %w", key, err)
		}
		fields = append(fields, SummaryField{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	s.fields = fields
	return nil
}
