package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bessgo/config"
	"bessgo/logging"
	"bessgo/pipeline"
)

var commandCmd = &cobra.Command{
	Use:   "command <config.json> <module> <command>",
	Short: "Build a pipeline and run one control-plane command against a module",
	Long: `Load a pipeline configuration, build it (without starting any
workers), invoke the named command against the named module, print the
result as JSON, and tear the pipeline down. Useful for one-shot
inspection or mutation of a module's control-plane state (e.g. IPLookup's
add/delete/lookup/clear).`,
	Args: cobra.ExactArgs(3),
	RunE: runCommand,
}

var commandArg string

func init() {
	rootCmd.AddCommand(commandCmd)

	commandCmd.Flags().StringVar(&commandArg, "arg", "", "JSON-encoded argument for the command")
}

func runCommand(cmd *cobra.Command, args []string) error {
	configPath, moduleName, cmdName := args[0], args[1], args[2]

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	reg, err := newRegistry()
	if err != nil {
		return err
	}
	p := pipeline.New(reg)
	if err := p.Create(cfg); err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	defer p.Destroy() //nolint:errcheck // best-effort teardown after a one-shot command

	var rawArg json.RawMessage
	if commandArg != "" {
		rawArg = json.RawMessage(commandArg)
	}

	result, err := p.RunCommand(moduleName, cmdName, rawArg)
	if err != nil {
		logging.Error("command failed", "module", moduleName, "command", cmdName, "error", err)
		return fmt.Errorf("run command: %w", err)
	}
	if result == nil {
		return nil
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
