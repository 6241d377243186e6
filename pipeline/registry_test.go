package pipeline

import (
	"encoding/json"
	"testing"

	"bessgo/errors"
	"bessgo/module"
	"bessgo/pkt"
)

// stubModule is a minimal module.Module used only to exercise the registry
// and pipeline lifecycle without pulling in a real leaf module.
type stubModule struct {
	*module.Base
}

func newStub(name string) module.Module {
	m := &stubModule{Base: module.NewBase(name, "Stub", nil)}
	m.SetOwner(m)
	return m
}

func (s *stubModule) Init(json.RawMessage) error    { return nil }
func (s *stubModule) Deinit() error                 { return nil }
func (s *stubModule) ProcessBatch(int, *pkt.Batch)   {}
func (s *stubModule) RunTask(any) module.TaskResult  { return module.TaskResult{} }
func (s *stubModule) GetDesc() string                { return "stub" }
func (s *stubModule) RunCommand(_ string, _ json.RawMessage) (any, error) {
	return nil, nil
}

func newStubRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	if err := reg.Register(Builder{Class: "Stub", Template: "Stub", New: newStub}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return reg
}

func TestRegistry_RegisterRejectsDuplicateClass(t *testing.T) {
	reg := newStubRegistry(t)
	if err := reg.Register(Builder{Class: "Stub", New: newStub}); !errors.Is(err, errors.ErrModuleExists) {
		t.Fatalf("expected ErrModuleExists, got %v", err)
	}
}

func TestRegistry_CreateUnknownClassFails(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Create("Ghost", "", nil); !errors.Is(err, errors.ErrBuilderNotFound) {
		t.Fatalf("expected ErrBuilderNotFound, got %v", err)
	}
}

func TestRegistry_CreateWithExplicitName(t *testing.T) {
	reg := newStubRegistry(t)
	m, err := reg.Create("Stub", "mine", map[string]bool{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.Name() != "mine" {
		t.Fatalf("got name %q, want %q", m.Name(), "mine")
	}
}

func TestRegistry_CreateRejectsCollidingExplicitName(t *testing.T) {
	reg := newStubRegistry(t)
	existing := map[string]bool{"mine": true}
	if _, err := reg.Create("Stub", "mine", existing); !errors.Is(err, errors.ErrModuleExists) {
		t.Fatalf("expected ErrModuleExists, got %v", err)
	}
}

func TestRegistry_CreateAutoGeneratesNonCollidingNames(t *testing.T) {
	reg := newStubRegistry(t)
	existing := map[string]bool{}

	first, err := reg.Create("Stub", "", existing)
	if err != nil {
		t.Fatalf("Create first: %v", err)
	}
	existing[first.Name()] = true

	second, err := reg.Create("Stub", "", existing)
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if first.Name() == second.Name() {
		t.Fatalf("auto-generated names collided: %q", first.Name())
	}
	if first.Name() != "stub0" {
		t.Fatalf("got %q, want stub0", first.Name())
	}
	if second.Name() != "stub1" {
		t.Fatalf("got %q, want stub1", second.Name())
	}
}

func TestRegistry_ClassesReturnsSortedNames(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Builder{Class: "Zebra", New: newStub})
	reg.Register(Builder{Class: "Alpha", New: newStub})
	got := reg.Classes()
	want := []string{"Alpha", "Zebra"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Classes() = %v, want %v", got, want)
	}
}

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"L2Forward": "l2_forward",
		"IPLookup":  "ip_lookup",
		"Stub":      "stub",
	}
	for in, want := range cases {
		if got := snakeCase(in); got != want {
			t.Errorf("snakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRegistry_ClearResetsBuildersAndCounters(t *testing.T) {
	reg := newStubRegistry(t)
	if _, err := reg.Create("Stub", "", map[string]bool{}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	reg.Clear()
	if _, ok := reg.Lookup("Stub"); ok {
		t.Fatal("expected Stub builder to be gone after Clear")
	}
	if err := reg.Register(Builder{Class: "Stub", New: newStub}); err != nil {
		t.Fatalf("re-Register after Clear: %v", err)
	}
	m, err := reg.Create("Stub", "", map[string]bool{})
	if err != nil {
		t.Fatalf("Create after Clear: %v", err)
	}
	if m.Name() != "stub0" {
		t.Fatalf("expected counters reset to stub0, got %q", m.Name())
	}
}
