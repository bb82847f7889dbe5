package dataset

import (
	"sort"

	"dispatch-voice-go/internal/emergency"
	"dispatch-voice-go/internal/logger"
	"dispatch-voice-go/internal/types"
)

type DatasetSummary struct {
	TotalCalls       int            `json:"total_calls"`
	TotalUtterances  int            `json:"total_utterances"`
	DriverUtterances int            `json:"driver_utterances"`
	ByScenario       map[string]int `json:"by_scenario"`
	EmergencyCalls   int            `json:"emergency_calls"`
	TopKeywords      []string       `json:"top_emergency_keywords"`
	ExampleCalls     []string       `json:"example_call_ids"`
}

// Summarize profiles a dataset before replay: size, scenario mix and how many
// calls contain an emergency keyword under detector d.
func Summarize(calls []Call, d *emergency.Detector, log *logger.Logger) DatasetSummary {
	log = log.Component("dataset.summary")
	ds := DatasetSummary{TotalCalls: len(calls), ByScenario: map[string]int{}}
	kwCount := map[string]int{}
	for _, c := range calls {
		sc := c.ScenarioID
		if sc == "" {
			sc = "unspecified"
		}
		ds.ByScenario[sc]++
		ds.TotalUtterances += len(c.Utterances)
		hit := false
		for _, u := range c.Utterances {
			if u.Speaker != types.SpeakerDriver {
				continue
			}
			ds.DriverUtterances++
			if kw, ok := d.Match(u); ok {
				kwCount[kw]++
				hit = true
			}
		}
		if hit {
			ds.EmergencyCalls++
		}
		if len(ds.ExampleCalls) < 3 && len(c.Utterances) > 0 {
			ds.ExampleCalls = append(ds.ExampleCalls, c.CallID)
		}
	}

	type kc struct {
		k string
		c int
	}
	var arr []kc
	for k, c := range kwCount {
		arr = append(arr, kc{k, c})
	}
	sort.Slice(arr, func(i, j int) bool {
		if arr[i].c == arr[j].c {
			return arr[i].k < arr[j].k
		}
		return arr[i].c > arr[j].c
	})
	for i := 0; i < len(arr) && i < 5; i++ {
		ds.TopKeywords = append(ds.TopKeywords, arr[i].k)
	}

	log.WithField("total_calls", ds.TotalCalls).
		WithField("emergency_calls", ds.EmergencyCalls).
		WithField("scenarios", len(ds.ByScenario)).
		Info("dataset summarization complete")
	return ds
}
