package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dispatch-voice-go/internal/config"
	"dispatch-voice-go/internal/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Inspect and validate call scenarios",
}

var scenariosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and configured scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(config.Load())
		if err != nil {
			return err
		}
		for _, d := range reg.List() {
			infoColor.Printf("%-22s", d.ID)
			fmt.Printf(" %-28s %d fields, %d keywords (%s)\n", d.Name, len(d.Fields), len(d.Keywords()), matchMode(d))
		}
		return nil
	},
}

var scenariosShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a scenario as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(config.Load())
		if err != nil {
			return err
		}
		d, err := reg.Get(args[0])
		if err != nil {
			return err
		}
		out, err := scenario.Marshal(d)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

var scenariosValidateCmd = &cobra.Command{
	Use:   "validate <file.yaml>...",
	Short: "Validate scenario files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			d, err := scenario.LoadFile(path)
			if err != nil {
				failed++
				errorColor.Printf("✗ %s: %v\n", path, err)
				continue
			}
			successColor.Printf("✓ %s", path)
			fmt.Printf(" (%s, %d fields)\n", d.ID, len(d.Fields))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scenario files invalid", failed, len(args))
		}
		return nil
	},
}

func matchMode(d scenario.Definition) string {
	if d.KeywordMatch == "" {
		return "substring"
	}
	return string(d.KeywordMatch)
}

func init() {
	scenariosCmd.AddCommand(scenariosListCmd, scenariosShowCmd, scenariosValidateCmd)
	rootCmd.AddCommand(scenariosCmd)
}
