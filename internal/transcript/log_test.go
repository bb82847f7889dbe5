package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch-voice-go/internal/types"
)

var t0 = time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)

func TestAppendAssignsSequence(t *testing.T) {
	l := New()
	u, err := l.Append(types.SpeakerDispatcher, "  Hi there  ", t0)
	require.NoError(t, err)
	assert.Equal(t, 0, u.Seq)
	assert.Equal(t, "Hi there", u.Text)

	u, err = l.Append(types.SpeakerDriver, "driving", t0.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, u.Seq)

	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 1, l.DriverTurns())
	require.Len(t, l.Driver(), 1)
	assert.Equal(t, "driving", l.Driver()[0].Text)

	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, 1, last.Seq)

	_, ok = l.At(2)
	assert.False(t, ok)
	_, ok = l.At(-1)
	assert.False(t, ok)
}

func TestAppendRejectsBadInput(t *testing.T) {
	l := New()
	_, err := l.Append(types.SpeakerDriver, "   ", t0)
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = l.Append(types.Speaker("Robot"), "hello", t0)
	assert.ErrorIs(t, err, ErrUnknownSpeaker)
	assert.Zero(t, l.Len())
}

func TestAllReturnsCopy(t *testing.T) {
	l := New()
	_, err := l.Append(types.SpeakerDriver, "original", t0)
	require.NoError(t, err)

	all := l.All()
	all[0].Text = "changed"
	u, _ := l.At(0)
	assert.Equal(t, "original", u.Text)
}

func TestParseAndRender(t *testing.T) {
	text := `Agent: Hi Mike, can you give me an update on your status?

User: I'm driving on I-10,
mile marker 85.
Dispatcher: Thanks!
`
	l, err := Parse(text, t0, 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, 3, l.Len())

	u, _ := l.At(1)
	assert.Equal(t, types.SpeakerDriver, u.Speaker)
	assert.Equal(t, "I'm driving on I-10, mile marker 85.", u.Text)
	assert.Equal(t, t0.Add(2*time.Second), u.Timestamp)

	assert.Equal(t, "Dispatcher: Hi Mike, can you give me an update on your status?\n"+
		"Driver: I'm driving on I-10, mile marker 85.\n"+
		"Dispatcher: Thanks!\n", l.Render())
}

func TestParseRequiresLeadingSpeaker(t *testing.T) {
	_, err := Parse("no speaker here", t0, time.Second)
	assert.ErrorIs(t, err, ErrUnknownSpeaker)
}

func TestFromUtterancesReindexes(t *testing.T) {
	l, err := FromUtterances([]types.Utterance{
		{Speaker: types.SpeakerDriver, Text: "a", Seq: 7},
		{Speaker: types.SpeakerDispatcher, Text: "b", Seq: 3},
	})
	require.NoError(t, err)
	u, _ := l.At(1)
	assert.Equal(t, "b", u.Text)
	assert.Equal(t, 1, u.Seq)
}
