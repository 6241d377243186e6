// Package modules aggregates every built-in module class's Builder into a
// single RegisterAll call, mirroring the teacher's single build-tag'd list
// of compiled-in OCI hook/runtime features with one place that knows about
// all of them.
package modules

import (
	"bessgo/module"
	"bessgo/modules/iplookup"
	"bessgo/modules/l2forward"
	"bessgo/pipeline"
)

// RegisterAll registers every built-in module class with reg. Callers
// assemble a fresh *pipeline.Registry (e.g. at process start, or per test)
// and call this once before loading any config.PipelineConfig.
func RegisterAll(reg *pipeline.Registry) error {
	builders := []pipeline.Builder{
		{
			Class:    "L2Forward",
			Template: "L2Forward",
			New:      func(name string) module.Module { return l2forward.New(name) },
			Commands: l2forward.Commands,
		},
		{
			Class:    "IPLookup",
			Template: "IPLookup",
			New:      func(name string) module.Module { return iplookup.New(name) },
			Commands: iplookup.Commands,
		},
	}
	for _, b := range builders {
		if err := reg.Register(b); err != nil {
			return err
		}
	}
	return nil
}
