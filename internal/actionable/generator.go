package actionable

import (
	"fmt"

	"dispatch-voice-go/internal/aggregator"
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

const (
	terminatedThreshold = 0.25
	emergencyThreshold  = 0.10
	delayThreshold      = 0.30
	frustratedThreshold = 0.30
	minCalls            = 5
)

// Generate picks the single most pressing pattern, checked in order:
// unresponsive drivers, emergencies, recurring delays, then unhappy drivers.
func Generate(ins aggregator.Insight) ActionCard {
	if ins.TotalCalls < minCalls {
		return ActionCard{
			Insight: fmt.Sprintf("Only %d calls recorded", ins.TotalCalls),
			Action:  "Monitor and collect more data",
			Impact:  "Low immediate intervention",
		}
	}
	if ins.TerminatedRate >= terminatedThreshold {
		return ActionCard{
			Insight: fmt.Sprintf("%.0f%% of calls ended with an unresponsive driver", ins.TerminatedRate*100),
			Action:  "Schedule dispatcher follow-up calls and review check-call timing with carriers",
			Impact:  "Recover missing location and ETA updates",
		}
	}
	if ins.EmergencyRate >= emergencyThreshold {
		top, _ := aggregator.Top(ins.EmergencyTypes)
		if top == "" {
			top = "Other"
		}
		return ActionCard{
			Insight: fmt.Sprintf("Emergency rate %.0f%%, mostly %s", ins.EmergencyRate*100, top),
			Action:  "Review emergency calls with safety team; audit keyword list for false positives",
			Impact:  "Faster escalation and fewer false alarms",
		}
	}
	if reason, n := aggregator.Top(ins.DelayReasons); reason != "" && float64(n)/float64(ins.TotalCalls) >= delayThreshold {
		return ActionCard{
			Insight: fmt.Sprintf("Recurring delays: %s in %d of %d calls", reason, n, ins.TotalCalls),
			Action:  "Adjust appointment windows and notify receivers proactively",
			Impact:  "Fewer late arrivals and detention charges",
		}
	}
	if upset := ins.DriverMoods[aggregator.MoodAngry] + ins.DriverMoods[aggregator.MoodFrustrated]; float64(upset)/float64(ins.TotalCalls) >= frustratedThreshold {
		return ActionCard{
			Insight: fmt.Sprintf("Drivers sounded frustrated or angry in %d of %d calls", upset, ins.TotalCalls),
			Action:  "Shorten the check-call script and avoid repeat calls on loads already updated",
			Impact:  "Better driver cooperation on future calls",
		}
	}
	return ActionCard{
		Insight: "No strong pattern detected",
		Action:  "Monitor and collect more data",
		Impact:  "Low immediate intervention",
	}
}
