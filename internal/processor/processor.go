// Package processor replays recorded transcripts through the call pipeline,
// one call at a time or as a concurrent batch.
package processor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"dispatch-voice-go/internal/call"
	"dispatch-voice-go/internal/dataset"
	"dispatch-voice-go/internal/logger"
	"dispatch-voice-go/internal/scenario"
	"dispatch-voice-go/internal/types"
)

// ReplayResult is one replayed call with its per-turn trace.
type ReplayResult struct {
	Result types.CallResult `json:"result"`
	Turns  []call.Turn      `json:"turns"`
}

// Replay feeds c through a fresh unscripted session and ends it at the last
// utterance's timestamp.
func Replay(c dataset.Call, def scenario.Definition, log *logger.Logger) (ReplayResult, error) {
	start := time.Time{}
	if len(c.Utterances) > 0 {
		start = c.Utterances[0].Timestamp
	}
	s, err := call.NewSession(c.CallID, def, c.Meta, false, start, log)
	if err != nil {
		return ReplayResult{}, err
	}
	out := ReplayResult{}
	end := start
	for _, u := range c.Utterances {
		turn, err := s.Ingest(u.Speaker, u.Text, u.Timestamp)
		if err != nil {
			return ReplayResult{}, fmt.Errorf("call %s utterance %d: %w", c.CallID, u.Seq, err)
		}
		out.Turns = append(out.Turns, turn)
		end = u.Timestamp
	}
	res, _, err := s.End(types.EndReasonCompleted, end)
	out.Result = res
	return out, err
}

// BatchOptions controls ReplayBatch.
type BatchOptions struct {
	DefaultScenario string
	Workers         int
	// Publisher, when set, receives every replayed result.
	Publisher call.Publisher
}

// ReplayBatch replays calls concurrently. Results keep the input order. The
// first configuration error aborts the batch.
func ReplayBatch(ctx context.Context, calls []dataset.Call, scenarios call.Scenarios, opts BatchOptions, log *logger.Logger) ([]ReplayResult, error) {
	log = log.Component("processor")
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	out := make([]ReplayResult, len(calls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range calls {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			id := c.ScenarioID
			if id == "" {
				id = opts.DefaultScenario
			}
			def, err := scenarios.Get(id)
			if err != nil {
				return fmt.Errorf("call %s: %w", c.CallID, err)
			}
			rr, err := Replay(c, def, log)
			if err != nil {
				return err
			}
			out[i] = rr
			if opts.Publisher != nil {
				if err := opts.Publisher.Publish(ctx, rr.Result); err != nil {
					log.WithError(err).WithField("call_id", c.CallID).Warn("publish replayed call")
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.WithField("calls", len(calls)).Info("batch replay complete")
	return out, nil
}
