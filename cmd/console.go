package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"bessgo/config"
	"bessgo/logging"
	"bessgo/pipeline"
)

var consoleCmd = &cobra.Command{
	Use:   "console <config.json>",
	Short: "Build a pipeline, run it, and drive it from an interactive prompt",
	Long: `Load a pipeline configuration, build and start it, then read
"<module> <command> [json-arg]" lines from stdin and dispatch each as a
RunCommand call, printing the result. Type "state" to print the current
graph, "quit" (or ctrl-d) to stop workers and exit.`,
	Args: cobra.ExactArgs(1),
	RunE: runConsole,
}

var consoleWorkers int

func init() {
	rootCmd.AddCommand(consoleCmd)

	consoleCmd.Flags().IntVarP(&consoleWorkers, "workers", "w", 1, "number of worker goroutines to schedule modules across")
}

func runConsole(cmd *cobra.Command, args []string) error {
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
	if err := p.Start(consoleWorkers); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	runREPL(cmd.InOrStdin(), os.Stdout, p, interactive)

	if err := p.Quiesce(); err != nil {
		return fmt.Errorf("quiesce pipeline: %w", err)
	}
	return p.Destroy()
}

func runREPL(in io.Reader, out io.Writer, p *pipeline.Pipeline, interactive bool) {
	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		if line == "state" {
			printState(out, p)
			continue
		}
		dispatchConsoleCommand(out, p, line)
	}
}

func dispatchConsoleCommand(out io.Writer, p *pipeline.Pipeline, line string) {
	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 2 {
		fmt.Fprintln(out, "usage: <module> <command> [json-arg]")
		return
	}
	moduleName, cmdName := fields[0], fields[1]
	var arg json.RawMessage
	if len(fields) == 3 {
		arg = json.RawMessage(strings.TrimSpace(fields[2]))
	}

	logging.DebugContext(context.Background(), "console dispatching command", "module", moduleName, "command", cmdName)
	result, err := p.RunCommand(moduleName, cmdName, arg)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	if result == nil {
		fmt.Fprintln(out, "ok")
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		fmt.Fprintf(out, "error: marshal result: %v\n", err)
		return
	}
	fmt.Fprintln(out, string(data))
}

func printState(out io.Writer, p *pipeline.Pipeline) {
	data, err := json.MarshalIndent(p.State(), "", "  ")
	if err != nil {
		fmt.Fprintf(out, "error: marshal state: %v\n", err)
		return
	}
	fmt.Fprintln(out, string(data))
}
