package results

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"dispatch-voice-go/internal/types"
)

var exportBase = []string{"call_id", "scenario_id", "started_at", "duration_ms", "final_phase", "end_reason", "driver_turns", "emergency_keyword"}

// ExportXLSX writes one row per call. Summary keys become columns in order of
// first appearance; the verbatim transcript goes in a second sheet.
func ExportXLSX(path string, rs []types.CallResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet, transcriptSheet = "Calls", "Transcripts"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(transcriptSheet); err != nil {
		return err
	}

	var keys []string
	seen := map[string]bool{}
	for _, r := range rs {
		for _, k := range r.Summary.Keys() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	header := append(append([]string{}, exportBase...), keys...)
	if err := writeRow(f, summarySheet, 1, toAny(header)); err != nil {
		return err
	}
	if err := writeRow(f, transcriptSheet, 1, []any{"call_id", "sequence_index", "speaker", "text", "timestamp"}); err != nil {
		return err
	}

	trow := 2
	for i, r := range rs {
		row := []any{r.CallID, r.ScenarioID, r.StartedAt.UTC().Format(time.RFC3339), r.DurationMs, r.FinalPhase, r.EndReason, r.DriverTurns, r.EmergencyKeyword}
		for _, k := range keys {
			v, ok := r.Summary.Get(k)
			if !ok {
				v = ""
			}
			row = append(row, v)
		}
		if err := writeRow(f, summarySheet, i+2, row); err != nil {
			return err
		}
		for _, u := range r.Transcript {
			if err := writeRow(f, transcriptSheet, trow, []any{r.CallID, u.Seq, string(u.Speaker), u.Text, u.Timestamp.UTC().Format(time.RFC3339)}); err != nil {
				return err
			}
			trow++
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, vals []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &vals)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
