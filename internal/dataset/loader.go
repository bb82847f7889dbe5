package dataset

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"dispatch-voice-go/internal/types"
)

// Call is one recorded conversation from a dataset sheet.
type Call struct {
	CallID     string            `json:"call_id"`
	ScenarioID string            `json:"scenario_id,omitempty"`
	Meta       types.CallMeta    `json:"call_request"`
	Utterances []types.Utterance `json:"utterances"`
}

type columns struct {
	callID, scenario, speaker, text, timestamp, driver, load int
}

// detectColumns maps header names onto column indexes by substring heuristics.
func detectColumns(header []string) columns {
	c := columns{-1, -1, -1, -1, -1, -1, -1}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "call") && strings.Contains(l, "id") || l == "id":
			if c.callID == -1 {
				c.callID = i
			}
		case strings.Contains(l, "scenario"):
			c.scenario = i
		case strings.Contains(l, "speaker") || strings.Contains(l, "role"):
			c.speaker = i
		case strings.Contains(l, "text") || strings.Contains(l, "utterance") || strings.Contains(l, "transcript") || strings.Contains(l, "message"):
			if c.text == -1 {
				c.text = i
			}
		case strings.Contains(l, "time"):
			c.timestamp = i
		case strings.Contains(l, "driver"):
			c.driver = i
		case strings.Contains(l, "load"):
			c.load = i
		}
	}
	return c
}

func cell(r []string, idx int) string {
	if idx >= 0 && idx < len(r) {
		return strings.TrimSpace(r[idx])
	}
	return ""
}

// Load reads the first sheet of an XLSX file with one utterance per row and
// groups the rows into calls, keeping the sheet order within each call. Rows
// without a recognised speaker or with empty text are skipped. Missing
// timestamps are filled at one-second steps from the previous row.
func Load(path string) ([]Call, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}
	col := detectColumns(rows[0])
	if col.speaker == -1 || col.text == -1 {
		return nil, fmt.Errorf("dataset needs speaker and text columns, got header %v", rows[0])
	}

	byID := map[string]*Call{}
	var order []string
	for i, r := range rows {
		if i == 0 {
			continue
		}
		sp, ok := types.ParseSpeaker(cell(r, col.speaker))
		text := cell(r, col.text)
		if !ok || text == "" {
			continue
		}
		id := cell(r, col.callID)
		if id == "" {
			id = "call-1"
		}
		c, ok := byID[id]
		if !ok {
			c = &Call{CallID: id}
			byID[id] = c
			order = append(order, id)
		}
		if v := cell(r, col.scenario); v != "" && c.ScenarioID == "" {
			c.ScenarioID = v
		}
		if v := cell(r, col.driver); v != "" && c.Meta.DriverName == "" {
			c.Meta.DriverName = v
		}
		if v := cell(r, col.load); v != "" && c.Meta.LoadNumber == "" {
			c.Meta.LoadNumber = v
		}
		ts := parseTime(cell(r, col.timestamp))
		if ts.IsZero() && len(c.Utterances) > 0 {
			ts = c.Utterances[len(c.Utterances)-1].Timestamp.Add(time.Second)
		}
		c.Utterances = append(c.Utterances, types.Utterance{Speaker: sp, Text: text, Timestamp: ts, Seq: len(c.Utterances)})
	}

	out := make([]Call, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "01/02/2006 15:04:05", "15:04:05"}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Sort orders calls by id, used when a stable replay order is needed.
func Sort(calls []Call) {
	sort.Slice(calls, func(i, j int) bool { return calls[i].CallID < calls[j].CallID })
}
