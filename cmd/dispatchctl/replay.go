package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dispatch-voice-go/internal/config"
	"dispatch-voice-go/internal/dataset"
	"dispatch-voice-go/internal/processor"
	"dispatch-voice-go/internal/results"
	"dispatch-voice-go/internal/transcript"
	"dispatch-voice-go/internal/transcription"
)

var (
	replayScenario string
	replayJSON     bool
	replayWorkers  int
	replaySave     bool
	replayRemote   string
	replayProfile  bool
)

var replayCmd = &cobra.Command{
	Use:   "replay [transcript.txt|dataset.xlsx]",
	Short: "Replay recorded calls and print their structured summaries",
	Long: `Replay runs recorded transcripts through the conversation tracker and
extractor exactly as a live call would be processed.

A .txt file holds one call as "Speaker: text" lines. An .xlsx dataset holds
one utterance per row and may contain many calls, which are replayed
concurrently. --remote fetches a call from the voice platform instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := cliLogger()
		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		var calls []dataset.Call
		switch {
		case replayRemote != "":
			c, err := transcription.NewClient(cfg.TransportURL, cfg.TransportAPIKey, 12*time.Second, log).Fetch(ctx, replayRemote)
			if err != nil {
				return err
			}
			calls = []dataset.Call{c}
		case len(args) == 1 && strings.EqualFold(filepath.Ext(args[0]), ".xlsx"):
			calls, err = dataset.Load(args[0])
			if err != nil {
				return err
			}
			if replayProfile {
				def, err := reg.Get(defaultScenario(cfg))
				if err != nil {
					return err
				}
				return printJSON(dataset.Summarize(calls, def.Detector(), log))
			}
		case len(args) == 1:
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			l, err := transcript.Parse(string(data), time.Unix(0, 0).UTC(), time.Second)
			if err != nil {
				return err
			}
			calls = []dataset.Call{{CallID: strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0])), Utterances: l.All()}}
		default:
			return fmt.Errorf("replay needs a transcript file or --remote")
		}
		if replayScenario != "" {
			for i := range calls {
				calls[i].ScenarioID = replayScenario
			}
		}

		opts := processor.BatchOptions{DefaultScenario: defaultScenario(cfg), Workers: replayWorkers}
		if !cmd.Flags().Changed("workers") {
			opts.Workers = cfg.ReplayWorkers
		}
		if replaySave {
			store, err := results.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()
			opts.Publisher = store
		}
		out, err := processor.ReplayBatch(ctx, calls, reg, opts, log)
		if err != nil {
			return err
		}
		if replayJSON {
			return printJSON(out)
		}
		for _, rr := range out {
			printResult(rr)
		}
		return nil
	},
}

func defaultScenario(cfg config.Config) string {
	if replayScenario != "" {
		return replayScenario
	}
	return cfg.DefaultScenario
}

func printResult(rr processor.ReplayResult) {
	res := rr.Result
	infoColor.Printf("call %s", res.CallID)
	fmt.Printf("  scenario=%s phase=%s turns=%d\n", res.ScenarioID, res.FinalPhase, res.DriverTurns)
	if verbose {
		for _, t := range rr.Turns {
			fmt.Printf("  [%d] %s: %s\n", t.Utterance.Seq, t.Utterance.Speaker, t.Utterance.Text)
			if t.Action != "" && t.Action != "continue" {
				warningColor.Printf("       %s -> %s (%s)\n", t.Classification, t.Action, t.Phase)
			}
		}
	}
	if res.EmergencyTriggered {
		errorColor.Printf("  EMERGENCY (%s)\n", res.EmergencyKeyword)
	}
	if res.Error != "" {
		errorColor.Printf("  error: %s\n", res.Error)
		return
	}
	for _, f := range res.Summary.Fields() {
		fmt.Printf("  %-28s ", f.Key)
		successColor.Printf("%v\n", f.Value)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	replayCmd.Flags().StringVar(&replayScenario, "scenario", "", "scenario id for every call (default: dataset column or $DEFAULT_SCENARIO)")
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "output as JSON")
	replayCmd.Flags().IntVar(&replayWorkers, "workers", 4, "concurrent replays for datasets (default $REPLAY_WORKERS)")
	replayCmd.Flags().BoolVar(&replaySave, "save", false, "store results in $DB_PATH")
	replayCmd.Flags().StringVar(&replayRemote, "remote", "", "fetch call ID from the voice platform ($TRANSPORT_URL)")
	replayCmd.Flags().BoolVar(&replayProfile, "profile", false, "print a dataset profile instead of replaying")
	rootCmd.AddCommand(replayCmd)
}
