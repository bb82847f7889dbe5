package main

import (
	"time"

	"github.com/spf13/cobra"

	"dispatch-voice-go/internal/config"
	"dispatch-voice-go/internal/results"
)

var (
	exportOut      string
	exportScenario string
	exportSince    time.Duration
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored call results to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		store, err := results.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		f := results.Filter{ScenarioID: exportScenario}
		if exportSince > 0 {
			f.Since = time.Now().Add(-exportSince)
		}
		list, err := store.List(cmd.Context(), f)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			warningColor.Println("no call results matched")
			return nil
		}
		if err := results.ExportXLSX(exportOut, list); err != nil {
			return err
		}
		successColor.Printf("exported %d calls to %s\n", len(list), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "call_results.xlsx", "output workbook")
	exportCmd.Flags().StringVar(&exportScenario, "scenario", "", "only this scenario id")
	exportCmd.Flags().DurationVar(&exportSince, "since", 0, "only calls started within this window (e.g. 24h)")
	rootCmd.AddCommand(exportCmd)
}
