package config

import (
	"os"
	"path/filepath"
	"testing"

	"bessgo/errors"
)

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); !errors.Is(err, errors.ErrMissingConfig) {
		t.Fatalf("expected ErrMissingConfig, got %v", err)
	}
}

func TestLoad_ValidDocument(t *testing.T) {
	doc := `{
		"modules": [
			{"class": "L2Forward", "name": "fwd0"},
			{"class": "Sink", "name": "sink0"}
		],
		"links": [
			{"src": "fwd0", "src_gate": 0, "dst": "sink0", "dst_gate": 0}
		]
	}`
	path := filepath.Join(t.TempDir(), "pipeline.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Modules) != 2 || len(cfg.Links) != 1 {
		t.Fatalf("unexpected config shape: %#v", cfg)
	}
}

func TestValidate_RejectsEmptyClass(t *testing.T) {
	cfg := &PipelineConfig{Modules: []ModuleConfig{{Name: "a"}}}
	if err := Validate(cfg); !errors.Is(err, errors.ErrInvalidPipelineConfig) {
		t.Fatalf("expected ErrInvalidPipelineConfig, got %v", err)
	}
}

func TestValidate_RejectsDuplicateName(t *testing.T) {
	cfg := &PipelineConfig{Modules: []ModuleConfig{
		{Class: "L2Forward", Name: "a"},
		{Class: "IPLookup", Name: "a"},
	}}
	if err := Validate(cfg); !errors.Is(err, errors.ErrModuleExists) {
		t.Fatalf("expected ErrModuleExists, got %v", err)
	}
}

func TestValidate_RejectsLinkToUndeclaredModule(t *testing.T) {
	cfg := &PipelineConfig{
		Modules: []ModuleConfig{{Class: "L2Forward", Name: "a"}},
		Links:   []LinkConfig{{Src: "a", Dst: "ghost"}},
	}
	if err := Validate(cfg); !errors.Is(err, errors.ErrModuleNotFound) {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}
}
