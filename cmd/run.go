package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bessgo/config"
	"bessgo/logging"
	"bessgo/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run <config.json>",
	Short: "Build a pipeline and run it until interrupted",
	Long: `Load a pipeline configuration, build it, start the configured
number of workers, and block until SIGINT/SIGTERM. On signal, quiesces
every worker and tears the pipeline down before exiting.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

var runWorkers int

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 1, "number of worker goroutines to schedule modules across")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := logging.ContextWithLogger(GetContext(), logging.WithOperation(logging.Default(), "run"))
	log := logging.FromContext(ctx)

	cfg, err := config.Load(args[0])
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
	if err := p.Start(runWorkers); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}

	logging.InfoContext(ctx, "pipeline running", "modules", len(cfg.Modules), "workers", runWorkers)
	fmt.Printf("running %d modules across %d workers, press ctrl-c to stop\n", len(cfg.Modules), runWorkers)
	<-ctx.Done()

	log.Info("signal received, quiescing pipeline")
	if err := p.Quiesce(); err != nil {
		logging.ErrorContext(ctx, "quiesce failed", "error", err)
		return fmt.Errorf("quiesce pipeline: %w", err)
	}
	if err := p.Destroy(); err != nil {
		logging.WarnContext(ctx, "destroy reported an error after quiesce", "error", err)
		return err
	}
	return nil
}
