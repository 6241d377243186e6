package module

// CommandSpec statically declares one control-plane command a module class
// supports. RequiredInInit marks commands that must be issued as part of
// the module's config (applied during Init) rather than afterward via
// RunCommand — mirroring the teacher's builder-level command metadata.
type CommandSpec struct {
	Name           string
	RequiredInInit bool
}

// CommandTable is the static, per-type command registry a builder
// publishes. It replaces a vtable: concrete modules still implement
// RunCommand themselves, but the table lets the builder registry and CLI
// introspect what a class supports without instantiating one.
type CommandTable []CommandSpec

// Lookup reports whether name is a declared command and returns its spec.
func (t CommandTable) Lookup(name string) (CommandSpec, bool) {
	for _, c := range t {
		if c.Name == name {
			return c, true
		}
	}
	return CommandSpec{}, false
}
