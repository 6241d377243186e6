// bessgo is a run-to-completion packet dataflow engine.
//
// It builds a graph of dataflow modules from a JSON pipeline configuration,
// wires their gates, and schedules them across one worker goroutine per OS
// thread.
//
// Commands:
//
//	build     - validate a pipeline config and build it once
//	run       - build a pipeline and run it until interrupted
//	command   - run one control-plane command against a module
//	console   - build, start, and drive a pipeline interactively
//	list      - list registered module classes
//	pipeline  - generate a skeleton pipeline config
//	status    - print a pipeline's graph as JSON
//	version   - print version information
package main

import (
	"fmt"
	"os"

	"bessgo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
