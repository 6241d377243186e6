package modules

import (
	"testing"

	"bessgo/pipeline"
)

func TestRegisterAll_RegistersBuiltinClasses(t *testing.T) {
	reg := pipeline.NewRegistry()
	if err := RegisterAll(reg); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	for _, class := range []string{"L2Forward", "IPLookup"} {
		if _, ok := reg.Lookup(class); !ok {
			t.Errorf("expected class %q to be registered", class)
		}
	}
}

func TestRegisterAll_CreatesInstancesOfEachClass(t *testing.T) {
	reg := pipeline.NewRegistry()
	if err := RegisterAll(reg); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	existing := map[string]bool{}
	for _, class := range []string{"L2Forward", "IPLookup"} {
		m, err := reg.Create(class, "", existing)
		if err != nil {
			t.Fatalf("Create(%s): %v", class, err)
		}
		existing[m.Name()] = true
		if m.Class() != class {
			t.Errorf("got class %q, want %q", m.Class(), class)
		}
	}
}
