package actionable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dispatch-voice-go/internal/aggregator"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name string
		ins  aggregator.Insight
		want string
	}{
		{"too few calls", aggregator.Insight{TotalCalls: 3}, "Only 3 calls recorded"},
		{"unresponsive drivers", aggregator.Insight{TotalCalls: 8, TerminatedRate: 0.25, EmergencyRate: 0.5}, "25% of calls ended with an unresponsive driver"},
		{"emergencies", aggregator.Insight{TotalCalls: 10, EmergencyRate: 0.2, EmergencyTypes: map[string]int{"Accident": 1, "Breakdown": 1}}, "Emergency rate 20%, mostly Accident"},
		{"emergency without type", aggregator.Insight{TotalCalls: 10, EmergencyRate: 0.1}, "Emergency rate 10%, mostly Other"},
		{"delays", aggregator.Insight{TotalCalls: 10, DelayReasons: map[string]int{"Weather": 4, "Heavy Traffic": 1}}, "Recurring delays: Weather in 4 of 10 calls"},
		{"weak delays", aggregator.Insight{TotalCalls: 10, DelayReasons: map[string]int{"Weather": 2}}, "No strong pattern detected"},
		{"upset drivers", aggregator.Insight{TotalCalls: 10, DriverMoods: map[string]int{"angry": 1, "frustrated": 2, "positive": 7}}, "Drivers sounded frustrated or angry in 3 of 10 calls"},
		{"mostly happy drivers", aggregator.Insight{TotalCalls: 10, DriverMoods: map[string]int{"frustrated": 2, "positive": 8}}, "No strong pattern detected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := Generate(tt.ins)
			assert.Equal(t, tt.want, card.Insight)
			assert.NotEmpty(t, card.Action)
			assert.NotEmpty(t, card.Impact)
		})
	}
}
