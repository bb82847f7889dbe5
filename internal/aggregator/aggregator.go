package aggregator

import (
	"dispatch-voice-go/internal/conversation"
	"dispatch-voice-go/internal/types"
)

type Insight struct {
	TotalCalls      int                `json:"total_calls"`
	OutcomeCounts   map[string]int     `json:"outcome_counts"`
	OutcomeRates    map[string]float64 `json:"outcome_rates"`
	ScenarioCounts  map[string]int     `json:"scenario_counts"`
	EmergencyTypes  map[string]int     `json:"emergency_types"`
	DelayReasons    map[string]int     `json:"delay_reasons"`
	EmergencyRate   float64            `json:"emergency_rate"`
	TerminatedCount int                `json:"terminated_count"`
	TerminatedRate  float64            `json:"terminated_rate"`
	AvgDurationMs   float64            `json:"avg_duration_ms"`
	AvgDriverTurns  float64            `json:"avg_driver_turns"`
	DriverMoods     map[string]int     `json:"driver_moods"`
	AvgTalkShare    float64            `json:"avg_driver_talk_share"`
}

func Aggregate(records []types.CallResult) Insight {
	ins := Insight{
		TotalCalls:     len(records),
		OutcomeCounts:  map[string]int{},
		OutcomeRates:   map[string]float64{},
		ScenarioCounts: map[string]int{},
		EmergencyTypes: map[string]int{},
		DelayReasons:   map[string]int{},
		DriverMoods:    map[string]int{},
	}
	if len(records) == 0 {
		return ins
	}
	var emergencies int
	var duration, turns int64
	var share float64
	var talked int
	terminated := conversation.Terminated.String()
	for _, r := range records {
		ins.OutcomeCounts[r.Summary.Outcome()]++
		ins.ScenarioCounts[r.ScenarioID]++
		if r.EmergencyTriggered {
			emergencies++
			if t := r.Summary.String(types.FieldEmergencyType); t != "" {
				ins.EmergencyTypes[t]++
			}
		}
		if d := r.Summary.String(types.FieldDelayReason); d != "" && d != "None" {
			ins.DelayReasons[d]++
		}
		if r.FinalPhase == terminated {
			ins.TerminatedCount++
		}
		duration += r.DurationMs
		turns += int64(r.DriverTurns)
		if len(r.Transcript) > 0 {
			ins.DriverMoods[Mood(r.Transcript)]++
			share += DriverTalkShare(r.Transcript)
			talked++
		}
	}
	n := float64(len(records))
	for k, v := range ins.OutcomeCounts {
		ins.OutcomeRates[k] = float64(v) / n
	}
	ins.EmergencyRate = float64(emergencies) / n
	ins.TerminatedRate = float64(ins.TerminatedCount) / n
	ins.AvgDurationMs = float64(duration) / n
	ins.AvgDriverTurns = float64(turns) / n
	if talked > 0 {
		ins.AvgTalkShare = share / float64(talked)
	}
	return ins
}

// Top returns the key with the highest count, ties broken alphabetically.
func Top(m map[string]int) (string, int) {
	best, n := "", 0
	for k, v := range m {
		if v > n || (v == n && k < best) {
			best, n = k, v
		}
	}
	return best, n
}
