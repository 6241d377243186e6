// Package config loads and validates the JSON document describing a
// dataflow graph: which module classes to instantiate under which names,
// and which gates to wire together. Adapted from the teacher's OCI
// config.json loader (spec.LoadSpec) to a pipeline graph instead of a
// container bundle.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"bessgo/errors"
)

// ModuleConfig describes one module instance to create.
type ModuleConfig struct {
	Class string          `json:"class"`
	Name  string          `json:"name,omitempty"`
	Args  json.RawMessage `json:"args,omitempty"`
}

// LinkConfig describes one gate connection to make after all modules in
// the enclosing PipelineConfig are created.
type LinkConfig struct {
	Src     string `json:"src"`
	SrcGate int    `json:"src_gate"`
	Dst     string `json:"dst"`
	DstGate int    `json:"dst_gate"`
}

// PipelineConfig is the on-disk document consumed by bessgo build and by
// Pipeline.Create.
type PipelineConfig struct {
	Modules []ModuleConfig `json:"modules"`
	Links   []LinkConfig   `json:"links"`
}

// Load reads and validates a PipelineConfig from path.
func Load(path string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithDetail(errors.ErrMissingConfig, errors.ErrInvalidArg, "config.Load", path)
		}
		return nil, fmt.Errorf("config.Load: read %s: %w", path, err)
	}
	var cfg PipelineConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapWithDetail(errors.ErrInvalidPipelineConfig, errors.ErrInvalidArg, "config.Load", err.Error())
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural invariants Pipeline.Create itself does not
// re-check: every module referenced by a link must be declared, class and
// (if given) name must be non-empty, and declared names must be unique so
// link resolution is unambiguous.
func Validate(cfg *PipelineConfig) error {
	seen := make(map[string]bool, len(cfg.Modules))
	for _, m := range cfg.Modules {
		if m.Class == "" {
			return errors.WrapWithDetail(errors.ErrInvalidPipelineConfig, errors.ErrInvalidArg, "config.Validate", "module with empty class")
		}
		if m.Name != "" {
			if seen[m.Name] {
				return errors.WrapWithModule(errors.ErrModuleExists, errors.ErrAlreadyExists, "config.Validate", m.Name)
			}
			seen[m.Name] = true
		}
	}
	// Link endpoints must name a module explicitly: a module left to
	// auto-generate its name has no stable identifier to link against
	// until Pipeline.Create actually runs the builder registry.
	for _, l := range cfg.Links {
		if l.Src == "" || l.Dst == "" {
			return errors.WrapWithDetail(errors.ErrInvalidPipelineConfig, errors.ErrInvalidArg, "config.Validate", "link with empty endpoint")
		}
		if !seen[l.Src] {
			return errors.WrapWithModule(errors.ErrModuleNotFound, errors.ErrNotFound, "config.Validate", l.Src)
		}
		if !seen[l.Dst] {
			return errors.WrapWithModule(errors.ErrModuleNotFound, errors.ErrNotFound, "config.Validate", l.Dst)
		}
	}
	return nil
}
