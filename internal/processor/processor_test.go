package processor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch-voice-go/internal/dataset"
	"dispatch-voice-go/internal/logger"
	"dispatch-voice-go/internal/scenario"
	"dispatch-voice-go/internal/types"
)

var t0 = time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)

func recorded(id, scenarioID string, lines ...string) dataset.Call {
	c := dataset.Call{CallID: id, ScenarioID: scenarioID}
	for i, l := range lines {
		sp := types.SpeakerDispatcher
		if i%2 == 1 {
			sp = types.SpeakerDriver
		}
		c.Utterances = append(c.Utterances, types.Utterance{Speaker: sp, Text: l, Timestamp: t0.Add(time.Duration(i) * 10 * time.Second), Seq: i})
	}
	return c
}

type collector struct {
	mu  sync.Mutex
	ids []string
}

func (c *collector) Publish(_ context.Context, res types.CallResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, res.CallID)
	return nil
}

func TestReplay(t *testing.T) {
	def, err := scenario.NewRegistry().Get(scenario.IDDriverCheckin)
	require.NoError(t, err)

	c := recorded("r1", "",
		"Hi Mike, can you give me an update on your status?",
		"I'm driving on I-10, mile marker 85, should be there by 2pm",
		"Great. Please remember to submit your POD.",
		"Will do",
	)
	rr, err := Replay(c, def, logger.Discard())
	require.NoError(t, err)

	require.Len(t, rr.Turns, 4)
	assert.Nil(t, rr.Turns[0].Next, "dispatcher lines get no next line")
	require.NotNil(t, rr.Turns[3].Next)
	assert.True(t, rr.Turns[3].Next.EndCall)

	res := rr.Result
	assert.Equal(t, "r1", res.CallID)
	assert.Equal(t, types.EndReasonCompleted, res.EndReason)
	assert.Equal(t, int64(30000), res.DurationMs)
	assert.Equal(t, "WrapUp", res.FinalPhase)
	assert.Len(t, res.Transcript, 4)
	assert.Equal(t, "I-10 Mile Marker 85", res.Summary.String("current_location"))
	assert.True(t, res.Summary.Bool("pod_reminder_acknowledged"))
}

func TestReplayBatchKeepsOrder(t *testing.T) {
	calls := []dataset.Call{
		recorded("a", "", "Status?", "just arrived, waiting on a lumper"),
		recorded("b", scenario.IDGeneral, "Status?", "I had an accident, everyone is okay"),
		recorded("c", scenario.IDDriverCheckin, "Status?", "running late, heavy traffic"),
	}
	pub := &collector{}
	out, err := ReplayBatch(context.Background(), calls, scenario.NewRegistry(), BatchOptions{
		DefaultScenario: scenario.IDDriverCheckin,
		Workers:         2,
		Publisher:       pub,
	}, logger.Discard())
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "a", out[0].Result.CallID)
	assert.Equal(t, scenario.IDDriverCheckin, out[0].Result.ScenarioID)
	assert.Equal(t, types.OutcomeArrival, out[0].Result.Summary.Outcome())
	assert.Equal(t, "Waiting for Lumper", out[0].Result.Summary.String("unloading_status"))

	assert.Equal(t, types.OutcomeEmergency, out[1].Result.Summary.Outcome())
	assert.Equal(t, "Accident", out[1].Result.Summary.String("emergency_type"))

	assert.Equal(t, "Heavy Traffic", out[2].Result.Summary.String("delay_reason"))

	assert.ElementsMatch(t, []string{"a", "b", "c"}, pub.ids)
}

func TestReplayBatchUnknownScenario(t *testing.T) {
	calls := []dataset.Call{recorded("x", "missing", "Status?", "driving")}
	_, err := ReplayBatch(context.Background(), calls, scenario.NewRegistry(), BatchOptions{}, logger.Discard())
	assert.ErrorIs(t, err, scenario.ErrConfiguration)
}
