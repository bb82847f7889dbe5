package results

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"dispatch-voice-go/internal/logger"
	"dispatch-voice-go/internal/types"
)

// Webhook POSTs each call result as JSON. 5xx responses and transport errors
// are retried with exponential backoff for up to maxRetryTime; 4xx responses
// are not. A zero maxRetryTime disables retries.
type Webhook struct {
	url          string
	client       *http.Client
	maxRetryTime time.Duration
	log          *logger.Logger
}

func NewWebhook(url string, timeout, maxRetryTime time.Duration, log *logger.Logger) *Webhook {
	return &Webhook{
		url:          url,
		client:       &http.Client{Timeout: timeout},
		maxRetryTime: maxRetryTime,
		log:          log.Component("results_webhook"),
	}
}

func (w *Webhook) Publish(ctx context.Context, res types.CallResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	log := w.log.WithField("call_id", res.CallID)

	var lastErr error
	attempt := 0
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", res.CallID)

		resp, err := w.client.Do(req)
		if err != nil {
			lastErr = err
			log.WithError(err).WithField("attempt", attempt).Warn("webhook request failed")
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		switch {
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("webhook server error %d: %s", resp.StatusCode, string(body))
			log.WithField("http_status", resp.StatusCode).WithField("attempt", attempt).Warn("webhook retry")
			return lastErr
		case resp.StatusCode >= 400:
			// Permanent: don't retry on client errors
			lastErr = fmt.Errorf("webhook rejected result %d: %s", resp.StatusCode, string(body))
			return backoff.Permanent(lastErr)
		}
		lastErr = nil
		return nil
	}

	// A zero MaxElapsedTime means "retry forever" to backoff, so a zero
	// budget is a single attempt instead.
	var b backoff.BackOff = backoff.NewExponentialBackOff(backoff.WithMaxElapsedTime(w.maxRetryTime))
	if w.maxRetryTime <= 0 {
		b = backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 0)
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return fmt.Errorf("webhook publish failed: %w", lastErr)
	}
	log.WithField("attempts", attempt).Debug("call result delivered")
	return nil
}
