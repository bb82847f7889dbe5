package extractor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch-voice-go/internal/conversation"
	"dispatch-voice-go/internal/emergency"
	"dispatch-voice-go/internal/scenario"
	"dispatch-voice-go/internal/transcript"
	"dispatch-voice-go/internal/types"
)

var start = time.Date(2025, 12, 1, 14, 0, 0, 0, time.UTC)

type line struct {
	speaker types.Speaker
	text    string
}

func dispatcher(text string) line { return line{types.SpeakerDispatcher, text} }
func driver(text string) line     { return line{types.SpeakerDriver, text} }

type run struct {
	log     *transcript.Log
	tracker *conversation.Tracker
	latch   *emergency.Latch
	def     scenario.Definition
}

// play feeds lines through the same pipeline a live session uses.
func play(t *testing.T, scenarioID string, lines ...line) run {
	t.Helper()
	def, err := scenario.NewRegistry().Get(scenarioID)
	require.NoError(t, err)
	return playDef(t, def, lines...)
}

func playDef(t *testing.T, def scenario.Definition, lines ...line) run {
	t.Helper()
	r := run{log: transcript.New(), tracker: conversation.NewTracker(def.Keys(), start), latch: &emergency.Latch{}, def: def}
	det := def.Detector()
	for i, l := range lines {
		u, err := r.log.Append(l.speaker, l.text, start.Add(time.Duration(i)*5*time.Second))
		require.NoError(t, err)
		det.Evaluate(u, r.latch)
		r.tracker.Step(u, r.latch.Triggered())
	}
	return r
}

func (r run) extract(t *testing.T) types.StructuredSummary {
	t.Helper()
	s, err := Extract(r.log, r.tracker.State(), r.latch.Triggered(), r.def)
	require.NoError(t, err)
	return s
}

func TestInTransitCheckin(t *testing.T) {
	r := play(t, scenario.IDDriverCheckin,
		dispatcher("Hi Mike, this is Dispatch with a check call on load 7891-B. Can you give me an update on your status?"),
		driver("I'm driving on I-10, mile marker 85, should be there by 2pm"),
		dispatcher("Thanks. Please remember to submit your POD once you deliver."),
		driver("Will do"),
	)
	s := r.extract(t)

	assert.Equal(t, []string{
		"call_outcome", "driver_status", "current_location", "eta",
		"delay_reason", "unloading_status", "pod_reminder_acknowledged",
	}, s.Keys())
	assert.Equal(t, types.OutcomeInTransit, s.Outcome())
	assert.Equal(t, "Driving", s.String("driver_status"))
	assert.Equal(t, "I-10 Mile Marker 85", s.String("current_location"))
	assert.Equal(t, "2pm", s.String("eta"))
	assert.Equal(t, "None", s.String("delay_reason"))
	assert.Equal(t, "N/A", s.String("unloading_status"))
	assert.True(t, s.Bool("pod_reminder_acknowledged"))
	assert.False(t, s.Has("emergency_type"))
}

func TestEmergencyPreemption(t *testing.T) {
	r := play(t, scenario.IDGeneral,
		dispatcher("Hi, can you give me an update on your status?"),
		driver("I just had a blowout on I-10 near mile marker 78, everyone's fine"),
	)
	require.True(t, r.latch.Triggered())
	kw, seq, _, _ := r.latch.Trigger()
	assert.Equal(t, "blowout", kw)
	assert.Equal(t, 1, seq)

	s := r.extract(t)
	assert.Equal(t, types.OutcomeEmergency, s.Outcome())
	assert.Equal(t, "Breakdown", s.String("emergency_type"))
	assert.Equal(t, "Driver confirmed everyone is safe", s.String("safety_status"))
	assert.Equal(t, "No injuries reported", s.String("injury_status"))
	assert.Equal(t, "I-10 Mile Marker 78", s.String("emergency_location"))
	assert.False(t, s.Bool("load_secure"))
	assert.Equal(t, EscalationPending, s.String("escalation_status"))
	// normal-flow fields that were never asked keep their fallbacks
	assert.Equal(t, "Not specified", s.String("current_location"))
	assert.Equal(t, "Driving", s.String("driver_status"))
}

func TestEmergencyEscalatesWhenComplete(t *testing.T) {
	r := play(t, scenario.IDGeneral,
		driver("I just had a blowout on I-10 near mile marker 78, everyone's fine"),
		dispatcher("Is the load secure?"),
		driver("yeah the load is secure"),
	)
	assert.Equal(t, conversation.Escalated, r.tracker.Phase().Kind)

	s := r.extract(t)
	assert.True(t, s.Bool("load_secure"))
	assert.Equal(t, EscalationConnected, s.String("escalation_status"))
}

func TestEmergencyAfterNormalFlowKeepsCapturedFields(t *testing.T) {
	r := play(t, scenario.IDGeneral,
		driver("I'm driving near Dallas"),
		dispatcher("What's your ETA?"),
		driver("there was an accident, a car hit my trailer"),
	)
	s := r.extract(t)
	assert.Equal(t, types.OutcomeEmergency, s.Outcome())
	assert.Equal(t, "Dallas", s.String("current_location"))
	assert.Equal(t, "Accident", s.String("emergency_type"))
	assert.Equal(t, "Safety status unknown", s.String("safety_status"))
	assert.Equal(t, "Injury status unknown", s.String("injury_status"))
	assert.Equal(t, "Not specified", s.String("emergency_location"))
}

func TestEmergencyAfterWrapUp(t *testing.T) {
	r := play(t, scenario.IDGeneral,
		driver("driving on I-10 mile marker 85, there by 2pm"),
		driver("yes I will send the POD"),
		driver("wait, there was an accident, my co-driver is bleeding"),
		driver("no we are not safe"),
	)
	assert.Equal(t, conversation.Emergency, r.tracker.Phase().Kind)
	assert.Equal(t, types.TopicEmergencyLocation, r.tracker.Pending())

	s := r.extract(t)
	assert.Equal(t, types.OutcomeEmergency, s.Outcome())
	assert.Equal(t, "Accident", s.String("emergency_type"))
	assert.Equal(t, "Safety concerns reported", s.String("safety_status"))
	assert.Equal(t, "Injuries reported", s.String("injury_status"))
	assert.Equal(t, "I-10 Mile Marker 85", s.String("current_location"))
	assert.Equal(t, EscalationPending, s.String("escalation_status"))
}

func TestUncooperativeDriverTerminates(t *testing.T) {
	r := play(t, scenario.IDGeneral,
		dispatcher("Can you give me an update on your status?"),
		driver("ok"),
		dispatcher("Could you tell me a bit more?"),
		driver("yeah"),
		dispatcher("Are you driving, delayed, or arrived?"),
		driver("fine"),
	)
	assert.Equal(t, conversation.Terminated, r.tracker.Phase().Kind)

	s := r.extract(t)
	assert.Equal(t, types.OutcomeInTransit, s.Outcome())
	assert.False(t, s.Has("escalation_status"))
	assert.Equal(t, "Not specified", s.String("current_location"))
	assert.Equal(t, "Not specified", s.String("eta"))
}

func TestTerminatedEmergencyNeedsFollowUp(t *testing.T) {
	r := play(t, scenario.IDEmergencyProtocol,
		driver("emergency"),
		driver("uh"),
		driver("hm"),
		driver("um"),
	)
	assert.Equal(t, conversation.Terminated, r.tracker.Phase().Kind)
	s := r.extract(t)
	assert.Equal(t, EscalationFollowUp, s.String("escalation_status"))
}

func TestArrivalInDoor(t *testing.T) {
	r := play(t, scenario.IDDriverCheckin,
		driver("Just arrived, I'm in door 12 getting unloaded"),
	)
	s := r.extract(t)
	assert.Equal(t, types.OutcomeArrival, s.Outcome())
	assert.Equal(t, "Unloading", s.String("driver_status"))
	assert.Equal(t, "In Door 12", s.String("unloading_status"))
	assert.Equal(t, "None", s.String("delay_reason"))
	assert.False(t, s.Bool("pod_reminder_acknowledged"))
}

func TestArrivalOutranksDelay(t *testing.T) {
	r := play(t, scenario.IDDriverCheckin,
		driver("I just arrived at the receiver but they're running behind, I'm in door 12"),
	)
	assert.Equal(t, conversation.BranchArrived, r.tracker.Phase().Branch)
	assert.Equal(t, conversation.FollowUp, r.tracker.Phase().Kind)

	s := r.extract(t)
	assert.Equal(t, types.OutcomeArrival, s.Outcome())
	assert.Equal(t, "Unloading", s.String("driver_status"))
	assert.Equal(t, "In Door 12", s.String("unloading_status"))
	assert.Equal(t, "None", s.String("delay_reason"))
}

func TestDelayedBranch(t *testing.T) {
	def, err := scenario.NewRegistry().Get(scenario.IDDriverCheckin)
	require.NoError(t, err)

	// substring matching latches on "stuck"
	r := playDef(t, def, driver("running late, stuck in traffic near Phoenix"))
	require.True(t, r.latch.Triggered())

	def.KeywordMatch = emergency.MatchWord
	def.EmergencyKeywords = []string{"accident", "crash"}
	r = playDef(t, def,
		driver("running late, stuck in traffic near Phoenix"),
		dispatcher("What's your ETA?"),
		driver("probably around 5pm"),
	)
	require.False(t, r.latch.Triggered())

	s := r.extract(t)
	assert.Equal(t, types.OutcomeInTransit, s.Outcome())
	assert.Equal(t, "Delayed", s.String("driver_status"))
	assert.Equal(t, "Heavy Traffic", s.String("delay_reason"))
	assert.Equal(t, "Phoenix", s.String("current_location"))
	assert.Equal(t, "5pm", s.String("eta"))
}

func TestNoDriverUtterancesIsIncomplete(t *testing.T) {
	r := play(t, scenario.IDGeneral, dispatcher("Hello? Can you hear me?"))
	s := r.extract(t)
	assert.Equal(t, types.OutcomeIncomplete, s.Outcome())
	assert.Equal(t, "call_outcome", s.Keys()[0])
}

func TestExtractIsIdempotent(t *testing.T) {
	r := play(t, scenario.IDGeneral,
		driver("I'm driving on I-10, mile marker 85, should be there by 2pm"),
		driver("there's been an accident, nobody is hurt"),
	)
	a, err := json.Marshal(r.extract(t))
	require.NoError(t, err)
	b, err := json.Marshal(r.extract(t))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestCheckinNeverReportsEmergencyFields(t *testing.T) {
	r := play(t, scenario.IDDriverCheckin,
		driver("we had an accident, the truck crashed"),
	)
	require.True(t, r.latch.Triggered())
	s := r.extract(t)
	assert.Equal(t, types.OutcomeEmergency, s.Outcome())
	for k := range types.EmergencyFields {
		assert.False(t, s.Has(k), k)
	}
}

func TestConfigurationErrors(t *testing.T) {
	r := play(t, scenario.IDGeneral, driver("I'm driving"))
	state := r.tracker.State()

	noOutcome := scenario.Definition{ID: "custom", Fields: []scenario.FieldDef{{Key: "eta", Type: scenario.TypeText}}}
	_, err := Extract(r.log, state, false, noOutcome)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.ErrorIs(t, err, ErrConfiguration)

	unknown := scenario.Definition{ID: "custom", Fields: []scenario.FieldDef{
		{Key: "call_outcome", Type: scenario.TypeSelect, Options: []string{"x"}},
		{Key: "trailer_temp", Type: scenario.TypeText},
	}}
	_, err = Extract(r.log, state, false, unknown)
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestFieldOrderFollowsDefinition(t *testing.T) {
	def := scenario.Definition{ID: "custom", Fields: []scenario.FieldDef{
		{Key: "eta", Type: scenario.TypeText},
		{Key: "current_location", Type: scenario.TypeText},
		{Key: "call_outcome", Type: scenario.TypeSelect, Options: []string{types.OutcomeInTransit}},
	}}
	log := transcript.New()
	tr := conversation.NewTracker(def.Keys(), start)
	u, err := log.Append(types.SpeakerDriver, "driving, about 2 hours out", start)
	require.NoError(t, err)
	tr.Step(u, false)

	s, err := Extract(log, tr.State(), false, def)
	require.NoError(t, err)
	assert.Equal(t, []string{"call_outcome", "eta", "current_location"}, s.Keys())
	assert.Equal(t, "2 hours out", s.String("eta"))
}
