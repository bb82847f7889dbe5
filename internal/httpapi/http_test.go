package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch-voice-go/internal/call"
	"dispatch-voice-go/internal/logger"
	"dispatch-voice-go/internal/results"
	"dispatch-voice-go/internal/scenario"
	"dispatch-voice-go/internal/types"
)

type fixture struct {
	srv   *httptest.Server
	store *results.Store
	calls *call.Manager
}

func newFixture(t *testing.T, opts ...call.Option) fixture {
	t.Helper()
	store, err := results.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg := scenario.NewRegistry()
	log := logger.Discard()
	calls := call.NewManager(reg, store, log, opts...)

	mux := http.NewServeMux()
	NewRouter(calls, reg, store, log).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fixture{srv: srv, store: store, calls: calls}
}

func (f fixture) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(f.srv.URL+path, "application/json", &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f fixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestCallLifecycle(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, "/calls", map[string]any{
		"scenario_id":  "driver_checkin",
		"call_request": map[string]string{"driver_name": "Mike", "load_number": "7891-B"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	started := decode[struct {
		CallID  string `json:"call_id"`
		Opening struct {
			Text string `json:"text"`
		} `json:"opening_line"`
	}](t, resp)
	require.NotEmpty(t, started.CallID)
	assert.Contains(t, started.Opening.Text, "load 7891-B")

	base := "/calls/" + started.CallID
	resp = f.post(t, base+"/utterances", map[string]string{"speaker": "agent", "text": started.Opening.Text})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.post(t, base+"/utterances", map[string]string{"speaker": "user", "text": "I'm driving on I-10, mile marker 85, should be there by 2pm"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	turn := decode[call.Turn](t, resp)
	assert.Equal(t, "FollowUp", turn.Phase)
	require.NotNil(t, turn.Next)
	assert.Equal(t, types.TopicPOD, turn.Next.Topic)

	resp = f.get(t, base+"/summary")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sum := decode[struct {
		Phase   string         `json:"phase"`
		Ended   bool           `json:"ended"`
		Summary map[string]any `json:"summary"`
	}](t, resp)
	assert.Equal(t, "FollowUp", sum.Phase)
	assert.False(t, sum.Ended)
	assert.Equal(t, "I-10 Mile Marker 85", sum.Summary["current_location"])

	resp = f.get(t, base+"/transcript")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]types.Utterance](t, resp), 2)

	resp = f.post(t, base+"/end", map[string]string{"reason": "disconnect"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[types.CallResult](t, resp)
	assert.Equal(t, types.EndReasonDisconnect, res.EndReason)
	assert.Equal(t, types.OutcomeInTransit, res.Summary.Outcome())

	resp = f.post(t, base+"/utterances", map[string]string{"speaker": "driver", "text": "hello?"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	stored, err := f.store.Get(context.Background(), started.CallID)
	require.NoError(t, err)
	assert.Equal(t, "disconnect", stored.EndReason)
}

func TestSummaryFallsBackToStore(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save(context.Background(), types.CallResult{
		CallID:     "archived",
		ScenarioID: "general",
		FinalPhase: "WrapUp",
		Summary:    types.NewSummary([]types.SummaryField{{Key: "call_outcome", Value: types.OutcomeArrival}}),
	}))

	resp := f.get(t, "/calls/archived/summary")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, true, body["ended"])
	assert.Equal(t, "WrapUp", body["phase"])

	resp = f.get(t, "/calls/nope/summary")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEvictedCallIsServedFromStore(t *testing.T) {
	f := newFixture(t, call.WithRetention(0))

	resp := f.post(t, "/calls", map[string]any{"scenario_id": "driver_checkin"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decode[struct {
		CallID string `json:"call_id"`
	}](t, resp).CallID
	base := "/calls/" + id

	resp = f.post(t, base+"/utterances", map[string]string{"speaker": "driver", "text": "I'm driving on I-10, mile marker 85, should be there by 2pm"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = f.post(t, base+"/end", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 1, f.calls.Sweep())
	assert.Empty(t, f.calls.List())

	resp = f.get(t, base+"/summary")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sum := decode[struct {
		Phase   string         `json:"phase"`
		Ended   bool           `json:"ended"`
		Summary map[string]any `json:"summary"`
	}](t, resp)
	assert.True(t, sum.Ended)
	assert.Equal(t, "FollowUp", sum.Phase)
	assert.Equal(t, "I-10 Mile Marker 85", sum.Summary["current_location"])

	resp = f.get(t, base+"/transcript")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]types.Utterance](t, resp), 1)
}

func TestErrorMapping(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, "/calls", map[string]any{"scenario_id": "unknown"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = f.post(t, "/calls/missing/utterances", map[string]string{"speaker": "driver", "text": "hi"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.post(t, "/calls", map[string]any{})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decode[map[string]any](t, resp)["call_id"].(string)

	resp = f.post(t, "/calls/"+id+"/utterances", map[string]string{"speaker": "robot", "text": "beep"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.post(t, "/calls/"+id+"/utterances", map[string]string{"speaker": "driver", "text": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.post(t, "/calls/"+id+"/end", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestScenariosAndAnalytics(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/scenarios")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defs := decode[[]scenario.Definition](t, resp)
	require.Len(t, defs, 3)
	assert.Equal(t, scenario.IDDriverCheckin, defs[0].ID)

	resp = f.get(t, "/analytics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Card struct {
			Insight string `json:"insight"`
		} `json:"action_card"`
	}](t, resp)
	assert.Equal(t, "Only 0 calls recorded", body.Card.Insight)

	resp = f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
