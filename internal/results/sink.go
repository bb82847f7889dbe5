package results

import (
	"context"
	"errors"
	"fmt"

	"dispatch-voice-go/internal/logger"
	"dispatch-voice-go/internal/metrics"
	"dispatch-voice-go/internal/types"
)

// Sink is anything that accepts a finished call.
type Sink interface {
	Publish(ctx context.Context, res types.CallResult) error
}

type namedSink struct {
	name string
	sink Sink
}

// MultiSink fans a result out to every sink. One failing sink does not stop
// the others; the errors are joined.
type MultiSink struct {
	sinks []namedSink
	log   *logger.Logger
}

func NewMultiSink(log *logger.Logger) *MultiSink {
	return &MultiSink{log: log.Component("results")}
}

func (m *MultiSink) Add(name string, s Sink) *MultiSink {
	m.sinks = append(m.sinks, namedSink{name: name, sink: s})
	return m
}

func (m *MultiSink) Len() int { return len(m.sinks) }

func (m *MultiSink) Publish(ctx context.Context, res types.CallResult) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.sink.Publish(ctx, res); err != nil {
			metrics.SinkFailures.WithLabelValues(s.name).Inc()
			m.log.WithError(err).WithField("sink", s.name).WithField("call_id", res.CallID).Error("publish failed")
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}
