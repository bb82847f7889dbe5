// Package transcription fetches recorded call transcripts from the voice
// platform so they can be replayed.
package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"dispatch-voice-go/internal/dataset"
	"dispatch-voice-go/internal/logger"
	"dispatch-voice-go/internal/transcript"
	"dispatch-voice-go/internal/types"
)

var ErrNotConfigured = errors.New("transcription: TRANSPORT_URL not set")

// CallResponse is the subset of the platform's call record we read.
type CallResponse struct {
	CallID           string `json:"call_id"`
	Transcript       string `json:"transcript"`
	TranscriptObject []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"transcript_object"`
	StartTimestamp int64             `json:"start_timestamp"`
	DynamicVars    map[string]string `json:"retell_llm_dynamic_variables"`
	Metadata       map[string]string `json:"metadata"`
}

type Client struct {
	baseURL      string
	apiKey       string
	http         *http.Client
	maxRetryTime time.Duration
	log          *logger.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		http:         &http.Client{Timeout: timeout},
		maxRetryTime: 12 * time.Second,
		log:          log.Component("transcription"),
	}
}

// Fetch downloads call id and converts it into a replayable call. Utterances
// are spaced one second apart from the call's start time.
func (c *Client) Fetch(ctx context.Context, id string) (dataset.Call, error) {
	if c.baseURL == "" {
		return dataset.Call{}, ErrNotConfigured
	}
	endpoint := c.baseURL + "/get-call/" + url.PathEscape(id)
	var resp CallResponse
	if err := c.doJSON(ctx, endpoint, &resp); err != nil {
		return dataset.Call{}, err
	}
	c.log.WithField("call_id", id).WithField("turns", len(resp.TranscriptObject)).Info("transcript fetched")
	return convert(id, resp)
}

func convert(id string, resp CallResponse) (dataset.Call, error) {
	start := time.UnixMilli(resp.StartTimestamp).UTC()
	out := dataset.Call{
		CallID: id,
		Meta: types.CallMeta{
			DriverName: resp.DynamicVars["driver_name"],
			LoadNumber: resp.DynamicVars["load_number"],
		},
		ScenarioID: resp.Metadata["scenario_id"],
	}

	if len(resp.TranscriptObject) > 0 {
		log := transcript.New()
		for i, t := range resp.TranscriptObject {
			sp, ok := types.ParseSpeaker(t.Role)
			if !ok || strings.TrimSpace(t.Content) == "" {
				continue
			}
			if _, err := log.Append(sp, t.Content, start.Add(time.Duration(i)*time.Second)); err != nil {
				return dataset.Call{}, err
			}
		}
		out.Utterances = log.All()
		return out, nil
	}

	log, err := transcript.Parse(resp.Transcript, start, time.Second)
	if err != nil {
		return dataset.Call{}, fmt.Errorf("parse transcript %s: %w", id, err)
	}
	out.Utterances = log.All()
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, endpoint string, target any) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.maxRetryTime
	var lastErr error
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %s", string(body))
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("fetch failed %d: %s", resp.StatusCode, string(body))
			return backoff.Permanent(lastErr)
		}
		if len(body) == 0 {
			lastErr = fmt.Errorf("empty body")
			return lastErr
		}
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, string(body))
			return backoff.Permanent(lastErr)
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return lastErr
	}
	return nil
}
