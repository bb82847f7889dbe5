package aggregator

import (
	"regexp"

	"dispatch-voice-go/internal/rules"
	"dispatch-voice-go/internal/types"
)

// Driver moods, most pressing first.
const (
	MoodUrgent     = "urgent"
	MoodAngry      = "angry"
	MoodFrustrated = "frustrated"
	MoodConfused   = "confused"
	MoodNegative   = "negative"
	MoodPositive   = "positive"
	MoodNeutral    = "neutral"
)

func mood(name, expr string) rules.Rule {
	return rules.Rule{Name: name, Value: name, Pattern: regexp.MustCompile(`(?i)\b(` + expr + `)\b`)}
}

// moods is checked per driver line; the first matching rule labels the line.
var moods = rules.Table{
	mood(MoodUrgent, `urgent|asap|immediately|right now|can'?t wait|time sensitive|critical|rush`),
	mood(MoodAngry, `angry|mad|furious|livid|pissed|outraged|unacceptable|supervisor|manager`),
	mood(MoodFrustrated, `frustrat(?:ed|ing)|annoyed|irritated|fed up|tired of|sick of|had enough|ridiculous`),
	mood(MoodConfused, `confused|don'?t understand|unclear|what do you mean|makes no sense|don'?t get it`),
	mood(MoodNegative, `bad|terrible|awful|horrible|disappointed|difficult|issues?|worst`),
	mood(MoodPositive, `good|great|excellent|perfect|thanks|thank you|appreciate|smooth|happy|no problem`),
}

// Mood labels a call by its driver's most frequent mood. Ties go to the more
// pressing mood; a call with no mood words is neutral.
func Mood(utts []types.Utterance) string {
	counts := map[string]int{}
	for _, u := range utts {
		if u.Speaker != types.SpeakerDriver {
			continue
		}
		if m, ok := moods.First(u.Text, false); ok {
			counts[m.Value]++
		}
	}
	best, n := MoodNeutral, 0
	for _, r := range moods {
		if c := counts[r.Value]; c > n {
			best, n = r.Value, c
		}
	}
	return best
}

// DriverTalkShare is the driver's share of the words spoken on the call, or
// 0 when nothing was said.
func DriverTalkShare(utts []types.Utterance) float64 {
	var driver, total int
	for _, u := range utts {
		n := rules.WordCount(u.Text)
		total += n
		if u.Speaker == types.SpeakerDriver {
			driver += n
		}
	}
	if total == 0 {
		return 0
	}
	return float64(driver) / float64(total)
}
