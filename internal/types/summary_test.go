package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryKeepsInsertionOrder(t *testing.T) {
	s := NewSummary([]SummaryField{
		{Key: FieldCallOutcome, Value: OutcomeInTransit},
		{Key: FieldETA, Value: "2pm"},
		{Key: FieldPODAcknowledged, Value: true},
		{Key: FieldCurrentLocation, Value: "I-10"},
	})

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `{"call_outcome":"In-Transit Update","eta":"2pm","pod_reminder_acknowledged":true,"current_location":"I-10"}`, string(data))

	var back StructuredSummary
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s.Keys(), back.Keys())
	assert.True(t, back.Bool(FieldPODAcknowledged))
	assert.Equal(t, "I-10", back.String(FieldCurrentLocation))
}

func TestSummaryAccessors(t *testing.T) {
	fields := []SummaryField{{Key: FieldCallOutcome, Value: OutcomeArrival}, {Key: FieldLoadSecure, Value: false}}
	s := NewSummary(fields)
	fields[0].Value = "mutated"

	assert.Equal(t, OutcomeArrival, s.Outcome())
	assert.Equal(t, "false", s.String(FieldLoadSecure))
	assert.Equal(t, "", s.String(FieldETA))
	assert.False(t, s.Has(FieldETA))
	assert.Equal(t, 2, s.Len())

	var empty StructuredSummary
	data, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestParseSpeaker(t *testing.T) {
	for in, want := range map[string]Speaker{
		"agent": SpeakerDispatcher, " Dispatcher ": SpeakerDispatcher,
		"user": SpeakerDriver, "DRIVER": SpeakerDriver,
	} {
		got, ok := ParseSpeaker(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseSpeaker("narrator")
	assert.False(t, ok)
}
