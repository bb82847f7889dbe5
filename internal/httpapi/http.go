package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dispatch-voice-go/internal/actionable"
	"dispatch-voice-go/internal/aggregator"
	"dispatch-voice-go/internal/call"
	"dispatch-voice-go/internal/logger"
	"dispatch-voice-go/internal/results"
	"dispatch-voice-go/internal/scenario"
	"dispatch-voice-go/internal/transcript"
	"dispatch-voice-go/internal/types"
)

// ResultStore is the read side of the results store.
type ResultStore interface {
	Get(ctx context.Context, callID string) (types.CallResult, error)
	List(ctx context.Context, f results.Filter) ([]types.CallResult, error)
}

type ScenarioLister interface {
	List() []scenario.Definition
}

// Router builds HTTP handlers for the call API.
type Router struct {
	calls     *call.Manager
	scenarios ScenarioLister
	store     ResultStore
	log       *logger.Logger
}

func NewRouter(calls *call.Manager, scenarios ScenarioLister, store ResultStore, log *logger.Logger) *Router {
	return &Router{calls: calls, scenarios: scenarios, store: store, log: log.Component("httpapi")}
}

func (r *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", r.health)
	mux.HandleFunc("POST /calls", r.startCall)
	mux.HandleFunc("POST /calls/{id}/utterances", r.ingest)
	mux.HandleFunc("GET /calls/{id}/summary", r.summary)
	mux.HandleFunc("GET /calls/{id}/transcript", r.transcript)
	mux.HandleFunc("POST /calls/{id}/end", r.endCall)
	mux.HandleFunc("GET /scenarios", r.listScenarios)
	mux.HandleFunc("GET /analytics", r.analytics)
	mux.Handle("GET /metrics", promhttp.Handler())
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	w.Write([]byte("ok"))
}

func (r *Router) startCall(w http.ResponseWriter, req *http.Request) {
	reqLog := r.log.WithRequest(req)
	var body call.StartRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s, opening, err := r.calls.Start(body)
	if err != nil {
		reqLog.WithError(err).Warn("start call rejected")
		r.fail(w, err)
		return
	}
	respondStatus(w, http.StatusCreated, map[string]any{
		"call_id":      s.ID(),
		"scenario_id":  s.Scenario().ID,
		"opening_line": opening,
	})
}

func (r *Router) ingest(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Speaker string `json:"speaker"`
		Text    string `json:"text"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sp, ok := types.ParseSpeaker(body.Speaker)
	if !ok {
		http.Error(w, "unknown speaker", http.StatusBadRequest)
		return
	}
	turn, err := r.calls.Ingest(req.Context(), req.PathValue("id"), sp, body.Text)
	if err != nil {
		r.fail(w, err)
		return
	}
	respondJSON(w, turn)
}

func (r *Router) summary(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("id")
	s, err := r.calls.Get(id)
	if errors.Is(err, call.ErrCallNotFound) && r.store != nil {
		res, serr := r.store.Get(req.Context(), id)
		if serr == nil {
			respondJSON(w, map[string]any{"call_id": id, "phase": res.FinalPhase, "emergency": res.EmergencyTriggered, "ended": true, "summary": res.Summary})
			return
		}
	}
	if err != nil {
		r.fail(w, err)
		return
	}
	sum, err := s.Summarize()
	if err != nil {
		r.fail(w, err)
		return
	}
	st := s.State()
	respondJSON(w, map[string]any{
		"call_id":   id,
		"phase":     st.Phase.String(),
		"emergency": s.Latched(),
		"ended":     s.Ended(),
		"summary":   sum,
	})
}

func (r *Router) transcript(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("id")
	s, err := r.calls.Get(id)
	if errors.Is(err, call.ErrCallNotFound) && r.store != nil {
		if res, serr := r.store.Get(req.Context(), id); serr == nil {
			respondJSON(w, res.Transcript)
			return
		}
	}
	if err != nil {
		r.fail(w, err)
		return
	}
	respondJSON(w, s.Transcript())
}

func (r *Router) endCall(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if req.ContentLength != 0 {
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	res, err := r.calls.End(req.Context(), req.PathValue("id"), body.Reason)
	if err != nil {
		r.fail(w, err)
		return
	}
	respondJSON(w, res)
}

func (r *Router) listScenarios(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, r.scenarios.List())
}

func (r *Router) analytics(w http.ResponseWriter, req *http.Request) {
	if r.store == nil {
		http.Error(w, "results store not configured", http.StatusServiceUnavailable)
		return
	}
	f := results.Filter{ScenarioID: req.URL.Query().Get("scenario")}
	if v := req.URL.Query().Get("since_hours"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			f.Since = time.Now().Add(-time.Duration(h) * time.Hour)
		}
	}
	list, err := r.store.List(req.Context(), f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	ins := aggregator.Aggregate(list)
	respondJSON(w, map[string]any{"insight": ins, "action_card": actionable.Generate(ins)})
}

// fail maps domain errors onto status codes. Only configuration errors carry
// their message to the operator verbatim.
func (r *Router) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scenario.ErrConfiguration):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, call.ErrCallNotFound):
		http.Error(w, "call not found", http.StatusNotFound)
	case errors.Is(err, call.ErrCallEnded):
		http.Error(w, "call already ended", http.StatusConflict)
	case errors.Is(err, transcript.ErrEmptyText), errors.Is(err, transcript.ErrUnknownSpeaker):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		r.log.WithError(err).Error("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, v any) {
	respondStatus(w, http.StatusOK, v)
}

func respondStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
