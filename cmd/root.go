// Package cmd implements the bessgo CLI: build, run, command, console,
// list, pipeline, status, and version. Adapted from the teacher's
// cobra-based cmd package, which drove an OCI container's create/start/
// run/exec/state/kill/delete/list/spec verbs — here every verb instead
// builds or drives a dataflow Pipeline from a config.PipelineConfig.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bessgo/logging"
	"bessgo/modules"
	"bessgo/pipeline"
)

// Version information set at build time.
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// Global flags.
var (
	globalLog       string
	globalLogFormat string
	globalLogLevel  string
	globalDebug     bool
)

// rootCmd is the base command for bessgo.
var rootCmd = &cobra.Command{
	Use:   "bessgo",
	Short: "Run-to-completion packet dataflow engine",
	Long: `bessgo is a run-to-completion packet dataflow engine.

It instantiates a graph of dataflow modules from a JSON pipeline
configuration, wires their gates, and schedules them across one worker
goroutine per OS thread.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetContext returns a context that cancels on SIGINT/SIGTERM.
func GetContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx
}

// newRegistry builds a fresh builder registry with every built-in module
// class registered — the starting point for build/run/command/console/
// status, each of which owns its own Pipeline and therefore its own
// Registry (Pipeline.Destroy clears the registry it was given).
func newRegistry() (*pipeline.Registry, error) {
	reg := pipeline.NewRegistry()
	if err := modules.RegisterAll(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalLog, "log", "", "set the log file path")
	rootCmd.PersistentFlags().StringVar(&globalLogFormat, "log-format", "text", "set the format for log output (text or json)")
	rootCmd.PersistentFlags().StringVar(&globalLogLevel, "log-level", "info", "set the log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&globalDebug, "debug", false, "enable debug logging (shorthand for --log-level debug)")
}

func setupLogging() {
	logOutput := os.Stderr
	if globalLog != "" {
		f, err := os.OpenFile(globalLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err == nil {
			logOutput = f
		}
	}

	logLevel := logging.ParseLevel(globalLogLevel)
	if globalDebug {
		logLevel = logging.ParseLevel("debug")
	}

	logger := logging.NewLogger(logging.Config{
		Level:  logLevel,
		Format: globalLogFormat,
		Output: logOutput,
	})
	logging.SetDefault(logger)
}
