package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

const twoModuleConfig = `{
	"modules": [
		{"class": "IPLookup", "name": "lookup0"},
		{"class": "L2Forward", "name": "fwd0"}
	],
	"links": [
		{"src": "lookup0", "src_gate": 0, "dst": "fwd0", "dst_gate": 0}
	]
}`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestRunBuild_ValidConfigSucceeds(t *testing.T) {
	path := writeConfig(t, twoModuleConfig)
	if err := runBuild(buildCmd, []string{path}); err != nil {
		t.Fatalf("runBuild: %v", err)
	}
}

func TestRunBuild_UnknownClassFails(t *testing.T) {
	path := writeConfig(t, `{"modules":[{"class":"Ghost","name":"g"}]}`)
	if err := runBuild(buildCmd, []string{path}); err == nil {
		t.Fatal("expected an error for an unregistered class")
	}
}

func TestRunStatus_ReportsWiredLink(t *testing.T) {
	path := writeConfig(t, twoModuleConfig)
	if err := runStatus(statusCmd, []string{path}); err != nil {
		t.Fatalf("runStatus: %v", err)
	}
}

func TestNewRegistry_IncludesBuiltinClasses(t *testing.T) {
	reg, err := newRegistry()
	if err != nil {
		t.Fatalf("newRegistry: %v", err)
	}
	classes := reg.Classes()
	if len(classes) != 2 {
		t.Fatalf("expected 2 builtin classes, got %v", classes)
	}
}
