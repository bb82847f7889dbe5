// Package emergency scans driver utterances for emergency keywords and holds
// the one-way latch that switches a call into emergency protocol.
package emergency

import (
	"regexp"
	"strings"
	"time"

	"dispatch-voice-go/internal/types"
)

// MatchMode selects how keywords are compared against utterance text.
type MatchMode string

const (
	// MatchSubstring is case-insensitive containment. It is the reference
	// behaviour and produces known false positives ("stuck" in "stuck in
	// traffic", "help" in "helpful").
	MatchSubstring MatchMode = "substring"
	// MatchWord requires the keyword to start and end on word boundaries.
	MatchWord MatchMode = "word"
)

// DefaultKeywords is used when a scenario does not supply its own list.
var DefaultKeywords = []string{
	"emergency", "accident", "breakdown", "medical", "help", "urgent",
	"blowout", "flat tire", "crash", "collision", "injury", "injured",
	"hurt", "stuck", "stranded", "disabled", "broke down", "can't move",
	"need help", "pulled over", "on fire", "unconscious", "chest pain",
	"breathing", "bleeding",
}

type keyword struct {
	text string
	word *regexp.Regexp
}

type Detector struct {
	mode     MatchMode
	keywords []keyword
}

// NewDetector lowercases and de-duplicates the keyword set, keeping order so
// the reported trigger is deterministic.
func NewDetector(keywords []string, mode MatchMode) *Detector {
	if mode != MatchWord {
		mode = MatchSubstring
	}
	d := &Detector{mode: mode}
	seen := map[string]bool{}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(normalizeApostrophes(k)))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		kw := keyword{text: k}
		if mode == MatchWord {
			kw.word = regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`)
		}
		d.keywords = append(d.keywords, kw)
	}
	return d
}

func (d *Detector) Mode() MatchMode { return d.mode }

func (d *Detector) Keywords() []string {
	out := make([]string, 0, len(d.keywords))
	for _, k := range d.keywords {
		out = append(out, k.text)
	}
	return out
}

// Match returns the first keyword (in configured order) found in a driver
// utterance. Dispatcher utterances never match.
func (d *Detector) Match(u types.Utterance) (string, bool) {
	if u.Speaker != types.SpeakerDriver {
		return "", false
	}
	text := strings.ToLower(normalizeApostrophes(u.Text))
	for _, k := range d.keywords {
		if d.mode == MatchWord {
			if k.word.MatchString(text) {
				return k.text, true
			}
			continue
		}
		if strings.Contains(text, k.text) {
			return k.text, true
		}
	}
	return "", false
}

// Evaluate matches u and records a hit in the latch. It reports whether this
// utterance contained a keyword; the latch itself only changes once.
func (d *Detector) Evaluate(u types.Utterance, latch *Latch) bool {
	kw, ok := d.Match(u)
	if !ok {
		return false
	}
	latch.Set(kw, u.Seq, u.Timestamp)
	return true
}

func normalizeApostrophes(s string) string {
	return strings.NewReplacer("’", "'", "‘", "'").Replace(s)
}

// Latch is a one-way flag; once set it never resets for the life of a call.
type Latch struct {
	set     bool
	keyword string
	seq     int
	at      time.Time
}

// Set raises the latch and reports whether this call changed it.
func (l *Latch) Set(keyword string, seq int, at time.Time) bool {
	if l.set {
		return false
	}
	l.set = true
	l.keyword = keyword
	l.seq = seq
	l.at = at
	return true
}

func (l *Latch) Triggered() bool { return l.set }

// Trigger describes what raised the latch; ok is false while it is unset.
func (l *Latch) Trigger() (keyword string, seq int, at time.Time, ok bool) {
	return l.keyword, l.seq, l.at, l.set
}
