package dataset

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"dispatch-voice-go/internal/emergency"
	"dispatch-voice-go/internal/logger"
	"dispatch-voice-go/internal/types"
)

func writeSheet(t *testing.T, rows [][]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calls.xlsx")
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
	return path
}

func sample(t *testing.T) string {
	return writeSheet(t, [][]any{
		{"Call ID", "Scenario", "Driver Name", "Load Number", "Speaker", "Text", "Timestamp"},
		{"c1", "driver_checkin", "Mike", "7891-B", "Agent", "Can you give me an update?", "2025-12-01T09:00:00Z"},
		{"c1", "", "", "", "User", "Driving on I-10, there by 2pm", ""},
		{"c2", "general", "Ana", "", "Driver", "I had a blowout, need help", "2025-12-01 10:00:00"},
		{"c1", "", "", "", "narrator", "ignored row", ""},
		{"c2", "", "", "", "Dispatcher", "", ""},
		{"c2", "", "", "", "Dispatcher", "Is everyone safe?", "2025-12-01 10:00:05"},
	})
}

func TestLoadGroupsRowsByCall(t *testing.T) {
	calls, err := Load(sample(t))
	require.NoError(t, err)
	require.Len(t, calls, 2)

	c1 := calls[0]
	assert.Equal(t, "c1", c1.CallID)
	assert.Equal(t, "driver_checkin", c1.ScenarioID)
	assert.Equal(t, "Mike", c1.Meta.DriverName)
	assert.Equal(t, "7891-B", c1.Meta.LoadNumber)
	require.Len(t, c1.Utterances, 2)
	assert.Equal(t, types.SpeakerDispatcher, c1.Utterances[0].Speaker)
	assert.Equal(t, types.SpeakerDriver, c1.Utterances[1].Speaker)
	assert.Equal(t, 1, c1.Utterances[1].Seq)
	assert.Equal(t, time.Date(2025, 12, 1, 9, 0, 1, 0, time.UTC), c1.Utterances[1].Timestamp)

	c2 := calls[1]
	assert.Equal(t, "general", c2.ScenarioID)
	require.Len(t, c2.Utterances, 2)
	assert.Equal(t, "Is everyone safe?", c2.Utterances[1].Text)
}

func TestLoadNeedsSpeakerAndText(t *testing.T) {
	path := writeSheet(t, [][]any{{"id", "notes"}, {"1", "hello"}})
	_, err := Load(path)
	assert.Error(t, err)

	path = writeSheet(t, [][]any{{"Speaker", "Text"}})
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	calls, err := Load(sample(t))
	require.NoError(t, err)

	ds := Summarize(calls, emergency.NewDetector(emergency.DefaultKeywords, emergency.MatchSubstring), logger.Discard())
	assert.Equal(t, 2, ds.TotalCalls)
	assert.Equal(t, 4, ds.TotalUtterances)
	assert.Equal(t, 2, ds.DriverUtterances)
	assert.Equal(t, map[string]int{"driver_checkin": 1, "general": 1}, ds.ByScenario)
	assert.Equal(t, 1, ds.EmergencyCalls)
	assert.Equal(t, []string{"help"}, ds.TopKeywords)
	assert.Equal(t, []string{"c1", "c2"}, ds.ExampleCalls)
}

func TestSort(t *testing.T) {
	calls := []Call{{CallID: "b"}, {CallID: "a"}, {CallID: "c"}}
	Sort(calls)
	assert.Equal(t, "a", calls[0].CallID)
	assert.Equal(t, "c", calls[2].CallID)
}
