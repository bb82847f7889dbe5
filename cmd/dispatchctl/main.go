package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dispatch-voice-go/internal/config"
	"dispatch-voice-go/internal/logger"
	"dispatch-voice-go/internal/scenario"
)

var (
	verbose     bool
	scenarioDir string

	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
)

var rootCmd = &cobra.Command{
	Use:   "dispatchctl",
	Short: "Operate the dispatch voice agent offline",
	Long: `dispatchctl replays recorded check calls through the conversation
pipeline, validates scenario files and exports stored call results.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&scenarioDir, "scenario-dir", "", "directory of scenario YAML files (default $SCENARIO_DIR)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// cliLogger writes to stderr so stdout stays machine readable.
func cliLogger() *logger.Logger {
	if verbose {
		os.Setenv("LOG_LEVEL", "debug")
	} else if os.Getenv("LOG_LEVEL") == "" {
		os.Setenv("LOG_LEVEL", "warn")
	}
	return logger.NewWithOutput(os.Stderr)
}

// loadRegistry returns the built-ins plus every scenario in the directory.
func loadRegistry(cfg config.Config) (*scenario.Registry, error) {
	reg := scenario.NewRegistry()
	dir := scenarioDir
	if dir == "" {
		dir = cfg.ScenarioDir
	}
	if dir == "" {
		return reg, nil
	}
	defs, err := scenario.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, d := range defs {
		if err := reg.Put(d); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", d.ID, err)
		}
	}
	return reg, nil
}
