// Package metadata implements the offline metadata compiler: the pass that
// assigns every module's declared attribute a byte offset into the
// per-packet scratch region, run once after a pipeline's modules and links
// are fixed and before any worker starts processing batches.
//
// A scope component is the maximal set of modules connected by reads and
// writes of one named attribute — one writer, every reader reachable
// downstream of it, and every module in between that the value must flow
// through. Components that share no module can reuse the same bytes;
// components that do share a module must be assigned disjoint ranges. This
// file holds the component type itself; compiler.go holds the traversal and
// assignment passes.
package metadata

import "bessgo/module"

// component mirrors the original engine's ScopeComponent.
type component struct {
	id   int
	name string
	size int

	modules []module.Module
	present map[module.Module]bool

	invalid  bool
	assigned bool
	offset   int
	degree   int
}

func newComponent(id int) *component {
	return &component{id: id, present: make(map[module.Module]bool)}
}

// addModule records m as a member of the component, deduplicating by
// identity. The first module ever added fixes the component's attribute
// name and size; later additions (readers, pass-through modules) reuse it.
func (c *component) addModule(m module.Module, name string, size int) {
	if c.present[m] {
		return
	}
	if len(c.modules) == 0 {
		c.name = name
		c.size = size
	}
	c.modules = append(c.modules, m)
	c.present[m] = true
}

// disjointFrom reports whether c and other share no member module. Two
// components that are not disjoint can never be assigned overlapping byte
// ranges, since some packet would carry both attributes live at once at the
// shared module.
func (c *component) disjointFrom(other *component) bool {
	for m := range c.present {
		if other.present[m] {
			return false
		}
	}
	return true
}
