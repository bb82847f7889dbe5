// Package scenario holds the declarative call scenarios: which summary fields
// a call produces and which keywords trigger emergency protocol.
package scenario

import (
	"errors"
	"fmt"
	"strings"

	"dispatch-voice-go/internal/emergency"
	"dispatch-voice-go/internal/types"
)

var (
	// ErrConfiguration is the parent of every operator-facing scenario error.
	ErrConfiguration = errors.New("scenario configuration error")
	ErrMissingField  = fmt.Errorf("%w: missing field", ErrConfiguration)
	ErrUnknownField  = fmt.Errorf("%w: unknown field", ErrConfiguration)
)

// Field types.
const (
	TypeText    = "text"
	TypeSelect  = "select"
	TypeBoolean = "boolean"
)

type FieldDef struct {
	Key     string   `yaml:"key" json:"key"`
	Label   string   `yaml:"label" json:"label"`
	Type    string   `yaml:"type" json:"type"`
	Options []string `yaml:"options,omitempty" json:"options,omitempty"`
}

type Definition struct {
	ID                string              `yaml:"id" json:"id"`
	Name              string              `yaml:"name" json:"name"`
	Description       string              `yaml:"description,omitempty" json:"description,omitempty"`
	Fields            []FieldDef          `yaml:"fields" json:"fields"`
	EmergencyKeywords []string            `yaml:"emergency_keywords,omitempty" json:"emergency_keywords,omitempty"`
	KeywordMatch      emergency.MatchMode `yaml:"keyword_match,omitempty" json:"keyword_match,omitempty"`
}

// coreFields are required per well-known scenario id on top of call_outcome.
var coreFields = map[string][]string{
	IDDriverCheckin:     {types.FieldDriverStatus},
	IDEmergencyProtocol: {types.FieldEmergencyType, types.FieldSafetyStatus},
}

// knownFields are the keys the extractor can produce.
var knownFields = map[string]string{
	types.FieldCallOutcome:      TypeSelect,
	types.FieldDriverStatus:     TypeSelect,
	types.FieldCurrentLocation:  TypeText,
	types.FieldETA:              TypeText,
	types.FieldDelayReason:      TypeSelect,
	types.FieldUnloadingStatus:  TypeSelect,
	types.FieldPODAcknowledged:  TypeBoolean,
	types.FieldEmergencyType:    TypeSelect,
	types.FieldSafetyStatus:     TypeText,
	types.FieldInjuryStatus:     TypeText,
	types.FieldEmergencyLoc:     TypeText,
	types.FieldLoadSecure:       TypeBoolean,
	types.FieldEscalationStatus: TypeText,
}

// Known reports whether key is a summary field this service can fill.
func Known(key string) bool {
	_, ok := knownFields[key]
	return ok
}

// Keys returns the field keys in declaration order.
func (d Definition) Keys() []string {
	out := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		out = append(out, f.Key)
	}
	return out
}

func (d Definition) Has(key string) bool {
	for _, f := range d.Fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

func (d Definition) Field(key string) (FieldDef, bool) {
	for _, f := range d.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Keywords returns the emergency keyword list, falling back to the default set.
func (d Definition) Keywords() []string {
	if len(d.EmergencyKeywords) > 0 {
		return d.EmergencyKeywords
	}
	return emergency.DefaultKeywords
}

// Detector builds the emergency detector for a call on this scenario.
func (d Definition) Detector() *emergency.Detector {
	return emergency.NewDetector(d.Keywords(), d.KeywordMatch)
}

// Validate checks the definition against what the extractor can produce.
// Every returned error wraps ErrConfiguration.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: scenario id is empty", ErrConfiguration)
	}
	seen := map[string]bool{}
	for _, f := range d.Fields {
		want, ok := knownFields[f.Key]
		if !ok {
			return fmt.Errorf("%w %q in scenario %q", ErrUnknownField, f.Key, d.ID)
		}
		if seen[f.Key] {
			return fmt.Errorf("%w: duplicate field %q in scenario %q", ErrConfiguration, f.Key, d.ID)
		}
		seen[f.Key] = true
		if f.Type != "" && f.Type != want {
			return fmt.Errorf("%w: field %q in scenario %q has type %q, want %q", ErrConfiguration, f.Key, d.ID, f.Type, want)
		}
		if f.Type == TypeSelect && len(f.Options) == 0 {
			return fmt.Errorf("%w: select field %q in scenario %q has no options", ErrConfiguration, f.Key, d.ID)
		}
	}
	required := append([]string{types.FieldCallOutcome}, coreFields[d.ID]...)
	for _, key := range required {
		if !seen[key] {
			return fmt.Errorf("%w %q in scenario %q", ErrMissingField, key, d.ID)
		}
	}
	switch d.KeywordMatch {
	case "", emergency.MatchSubstring, emergency.MatchWord:
	default:
		return fmt.Errorf("%w: keyword_match %q in scenario %q", ErrConfiguration, d.KeywordMatch, d.ID)
	}
	return nil
}

// Clone returns a deep copy so a running call is unaffected by reloads.
func (d Definition) Clone() Definition {
	out := d
	out.Fields = make([]FieldDef, len(d.Fields))
	for i, f := range d.Fields {
		f.Options = append([]string(nil), f.Options...)
		out.Fields[i] = f
	}
	out.EmergencyKeywords = append([]string(nil), d.EmergencyKeywords...)
	return out
}
