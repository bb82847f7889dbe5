package retry

import (
	"dispatch-voice-go/internal/rules"
	"dispatch-voice-go/internal/types"
)

// TerseWords is the word count below which an answer counts as terse.
const TerseWords = 3

var topicTables = map[types.Topic]rules.Table{
	types.TopicStatus:            rules.Status,
	types.TopicLocation:          rules.Location,
	types.TopicETA:               rules.ETA,
	types.TopicDelayReason:       rules.DelayReason,
	types.TopicUnloading:         rules.Unloading,
	types.TopicPOD:               rules.PODAck,
	types.TopicSafety:            rules.Safety,
	types.TopicEmergencyLocation: rules.Location,
	types.TopicIncident:          rules.Incident,
	types.TopicLoadSecurity:      rules.LoadSecurity,
}

// Classify classifies text as an answer about topic. pending is true when the
// dispatcher's last question was about this topic; only then are bare answers
// ("yes", "fine") accepted and non-answers graded as unclear/uncooperative.
func Classify(text string, topic types.Topic, pending bool) Classification {
	terse := rules.WordCount(text) < TerseWords
	if table, ok := topicTables[topic]; ok {
		if m, ok := table.First(text, pending); ok {
			return Classification{Kind: Clear, Value: m.Value, Terse: terse}
		}
	}
	if !pending {
		return Classification{Kind: Unclear, Terse: terse}
	}
	if topic == types.TopicPOD {
		if _, ok := rules.PODDecline.First(text, true); ok {
			return Classification{Kind: Unclear, Terse: terse}
		}
	}
	if _, ok := rules.Noise.First(text, true); ok {
		return Classification{Kind: Unclear, Terse: terse}
	}
	if _, ok := rules.Refusal.First(text, true); ok {
		return Classification{Kind: Uncooperative, Terse: terse}
	}
	if terse {
		return Classification{Kind: Uncooperative, Terse: true}
	}
	return Classification{Kind: Unclear}
}
