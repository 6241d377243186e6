package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bessgo/config"
	"bessgo/logging"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Generate a skeleton pipeline config",
	Long: `Print a minimal, valid pipeline configuration to stdout (or to
--out), wiring one IPLookup module into one L2Forward module — a starting
point to edit rather than a config.json hand-written from scratch.`,
	Args: cobra.NoArgs,
	RunE: runPipelineSkeleton,
}

var pipelineOut string

func init() {
	rootCmd.AddCommand(pipelineCmd)

	pipelineCmd.Flags().StringVarP(&pipelineOut, "out", "o", "", "write to this path instead of stdout")
}

func runPipelineSkeleton(cmd *cobra.Command, args []string) error {
	cfg := config.PipelineConfig{
		Modules: []config.ModuleConfig{
			{Class: "IPLookup", Name: "lookup0"},
			{Class: "L2Forward", Name: "fwd0"},
		},
		Links: []config.LinkConfig{
			{Src: "lookup0", SrcGate: 0, Dst: "fwd0", DstGate: 0},
		},
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal skeleton: %w", err)
	}
	data = append(data, '\n')

	if pipelineOut == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if _, err := os.Stat(pipelineOut); err == nil {
		logging.Warn("overwriting existing file", "path", pipelineOut)
	}
	return os.WriteFile(pipelineOut, data, 0o644)
}
