// Package transcript holds the append-only utterance log of a single call.
package transcript

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch-voice-go/internal/types"
)

var (
	ErrEmptyText      = errors.New("transcript: empty utterance text")
	ErrUnknownSpeaker = errors.New("transcript: unknown speaker")
)

// Log is ordered by sequence index; insertion order is the truth order.
// Callers deliver utterances in order and at most once.
type Log struct {
	utterances []types.Utterance
}

func New() *Log { return &Log{} }

// FromUtterances rebuilds a log, reassigning sequence indexes in slice order.
func FromUtterances(us []types.Utterance) (*Log, error) {
	l := New()
	for _, u := range us {
		if _, err := l.Append(u.Speaker, u.Text, u.Timestamp); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Append stores a new utterance and returns it with its sequence index set.
func (l *Log) Append(speaker types.Speaker, text string, ts time.Time) (types.Utterance, error) {
	if speaker != types.SpeakerDispatcher && speaker != types.SpeakerDriver {
		return types.Utterance{}, fmt.Errorf("%w: %q", ErrUnknownSpeaker, speaker)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return types.Utterance{}, ErrEmptyText
	}
	u := types.Utterance{
		Speaker:   speaker,
		Text:      text,
		Timestamp: ts,
		Seq:       len(l.utterances),
	}
	l.utterances = append(l.utterances, u)
	return u, nil
}

func (l *Log) Len() int { return len(l.utterances) }

// At returns the utterance with the given sequence index.
func (l *Log) At(seq int) (types.Utterance, bool) {
	if seq < 0 || seq >= len(l.utterances) {
		return types.Utterance{}, false
	}
	return l.utterances[seq], true
}

func (l *Log) Last() (types.Utterance, bool) {
	return l.At(len(l.utterances) - 1)
}

func (l *Log) All() []types.Utterance {
	cp := make([]types.Utterance, len(l.utterances))
	copy(cp, l.utterances)
	return cp
}

// Driver returns only the driver turns, in order.
func (l *Log) Driver() []types.Utterance {
	var out []types.Utterance
	for _, u := range l.utterances {
		if u.Speaker == types.SpeakerDriver {
			out = append(out, u)
		}
	}
	return out
}

func (l *Log) DriverTurns() int {
	n := 0
	for _, u := range l.utterances {
		if u.Speaker == types.SpeakerDriver {
			n++
		}
	}
	return n
}

// Render produces the verbatim transcript, one "Speaker: text" line per turn.
func (l *Log) Render() string {
	var b strings.Builder
	for _, u := range l.utterances {
		b.WriteString(string(u.Speaker))
		b.WriteString(": ")
		b.WriteString(u.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// Parse reads "Speaker: text" lines (the Render format, also accepting
// agent/user role names). Blank lines are skipped; lines without a known
// speaker prefix continue the previous utterance.
func Parse(text string, start time.Time, step time.Duration) (*Log, error) {
	l := New()
	var pending *types.Utterance
	flush := func() error {
		if pending == nil {
			return nil
		}
		_, err := l.Append(pending.Speaker, pending.Text, pending.Timestamp)
		pending = nil
		return err
	}
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if idx := strings.Index(line, ":"); idx > 0 {
			if sp, ok := types.ParseSpeaker(line[:idx]); ok {
				if err := flush(); err != nil {
					return nil, fmt.Errorf("line %d: %w", i+1, err)
				}
				ts := start.Add(time.Duration(l.Len()) * step)
				pending = &types.Utterance{Speaker: sp, Text: strings.TrimSpace(line[idx+1:]), Timestamp: ts}
				continue
			}
		}
		if pending == nil {
			return nil, fmt.Errorf("line %d: %w", i+1, ErrUnknownSpeaker)
		}
		pending.Text += " " + line
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return l, nil
}
