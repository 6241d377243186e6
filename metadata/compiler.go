package metadata

import (
	"log/slog"
	"sort"

	"bessgo/gate"
	"bessgo/module"
	"bessgo/pkt"
)

// metadataTotal is the size of the per-packet scratch region every offset
// assignment must fit inside.
const metadataTotal = pkt.MetadataTotal

// attrKey identifies one module's declared attribute by name, mirroring the
// scope_id field the original engine keeps directly on the attribute
// struct. A module may have at most one attribute per name, so (module,
// name) uniquely addresses it.
type attrKey struct {
	mod  module.Module
	name string
}

// OrphanWarning reports a reader attribute with no live upstream writer:
// the value it reads is never produced by anything in the pipeline.
type OrphanWarning struct {
	Module string
	Attr   string
	Size   int
}

// Result summarizes one compilation pass.
type Result struct {
	Components int
	Orphans    []OrphanWarning
}

// compilerState is the working state of a single Compile call. It is
// discarded once Compile returns; nothing here is safe to reuse across
// calls.
type compilerState struct {
	components []*component
	// scopeID maps an attribute to the 1-based id of the component that
	// claimed it. 0 means unclaimed.
	scopeID map[attrKey]int
}

// Compile assigns metadata byte offsets to every attribute declared by mods,
// given the gate wiring currently connecting them. It must be called after
// the pipeline's graph is fixed and before any worker begins scheduling, and
// again after any topology change.
//
// logger receives one warning per orphaned reader attribute; it may be nil.
func Compile(mods []module.Module, logger *slog.Logger) Result {
	c := &compilerState{scopeID: make(map[attrKey]int)}

	for _, mod := range mods {
		for i, a := range mod.Attrs() {
			if a.Mode.IsReader() {
				mod.SetAttrOffset(i, module.NoRead)
			} else {
				mod.SetAttrOffset(i, module.NoWrite)
			}
		}
	}

	for _, mod := range mods {
		for i, a := range mod.Attrs() {
			if a.Mode.IsWriter() && c.scopeID[attrKey{mod, a.Name}] == 0 {
				c.identifySingleComponent(mod, i, a.Name)
			}
		}
	}

	c.computeDegrees()
	sort.SliceStable(c.components, func(i, j int) bool {
		return c.components[i].degree > c.components[j].degree
	})
	c.assignOffsets()

	var orphans []OrphanWarning
	for _, mod := range mods {
		for i, a := range mod.Attrs() {
			if mod.AttrOffset(i) == module.NoRead {
				orphans = append(orphans, OrphanWarning{Module: mod.Name(), Attr: a.Name, Size: a.Size})
				if logger != nil {
					logger.Warn("metadata attribute has no upstream writer",
						"module", mod.Name(), "attr", a.Name, "size", a.Size)
				}
			}
		}
	}

	return Result{Components: len(c.components), Orphans: orphans}
}

// identifySingleComponent starts a new scope component rooted at a writer
// attribute and explores everything reachable from it.
func (c *compilerState) identifySingleComponent(mod module.Module, attrIdx int, name string) {
	comp := newComponent(len(c.components) + 1)
	c.components = append(c.components, comp)

	// Two independent per-pass visited sets, one per traversal direction.
	// The original engine uses a single shared marker array and resets a
	// module's marker just before walking upstream from it, so that an
	// upstream path looping back through the same module is no longer
	// recognized as already-visited and gets reprocessed without bound.
	// Keeping downstream and upstream visitation independent gets the same
	// "let the upstream walk start from the reader itself" behavior without
	// ever un-marking a module the current pass has already finished with.
	down := make(map[module.Module]bool)
	up := make(map[module.Module]bool)

	c.identifyScopeComponent(comp, mod, attrIdx, name, down, up)
}

// identifyScopeComponent adds mod to comp and walks every downstream peer.
// It is re-entered (with the same comp) from traverseUpstream when upstream
// exploration discovers a second writer that feeds the same component.
func (c *compilerState) identifyScopeComponent(comp *component, mod module.Module, attrIdx int, name string, down, up map[module.Module]bool) {
	comp.addModule(mod, name, mod.Attrs()[attrIdx].Size)
	c.scopeID[attrKey{mod, name}] = comp.id
	down[mod] = true

	for _, idx := range sortedOGateIndices(mod) {
		og := mod.OGates()[idx]
		if og.Peer == nil {
			continue
		}
		c.traverseDownstream(comp, asModule(og.Peer.Owner), name, down, up)
	}
}

// traverseDownstream walks from mod toward its descendants looking for
// readers of name. It reports whether mod ended up a member of comp (either
// directly, as a reader, or transitively, as a pass-through module sitting
// between the writer and a reader).
func (c *compilerState) traverseDownstream(comp *component, mod module.Module, name string, down, up map[module.Module]bool) bool {
	if down[mod] {
		return false
	}
	down[mod] = true

	if idx, ok := findAttr(mod, name); ok {
		if mod.Attrs()[idx].Mode.IsReader() {
			comp.addModule(mod, name, mod.Attrs()[idx].Size)
			c.scopeID[attrKey{mod, name}] = comp.id

			for _, oidx := range sortedOGateIndices(mod) {
				og := mod.OGates()[oidx]
				if og.Peer == nil {
					continue
				}
				c.traverseDownstream(comp, asModule(og.Peer.Owner), name, down, up)
			}

			c.traverseUpstream(comp, mod, name, down, up)
			return true
		}
		// A second, independent writer of the same name: the downstream
		// traversal stops here: packets flowing from this module carry a
		// value this component didn't produce.
		return false
	}

	inScope := false
	for _, oidx := range sortedOGateIndices(mod) {
		og := mod.OGates()[oidx]
		if og.Peer == nil {
			continue
		}
		if c.traverseDownstream(comp, asModule(og.Peer.Owner), name, down, up) {
			inScope = true
		}
	}
	if inScope {
		comp.addModule(mod, name, comp.size)
		c.traverseUpstream(comp, mod, name, down, up)
	}
	return inScope
}

// traverseUpstream walks from mod toward its ancestors looking for the
// writer(s) that feed it. A module with no input gates at all, reached
// without finding a writer, marks comp invalid: some packet can reach the
// reader this walk started from without ever passing through a writer.
func (c *compilerState) traverseUpstream(comp *component, mod module.Module, name string, down, up map[module.Module]bool) {
	comp.addModule(mod, name, comp.size)

	if idx, ok := findAttr(mod, name); ok && mod.Attrs()[idx].Mode.IsWriter() {
		key := attrKey{mod, name}
		if c.scopeID[key] == 0 {
			c.scopeID[key] = comp.id
			c.identifyScopeComponent(comp, mod, idx, name, down, up)
		}
		return
	}

	if up[mod] {
		return
	}
	up[mod] = true

	igateIdxs := sortedIGateIndices(mod)
	for _, idx := range igateIdxs {
		ig := mod.IGates()[idx]
		for _, og := range ig.Upstream {
			c.traverseUpstream(comp, asModule(og.Owner), name, down, up)
		}
	}
	if len(igateIdxs) == 0 {
		comp.invalid = true
	}
}

// computeDegrees counts, for every component, how many other components it
// is not disjoint from. Higher-degree components are assigned offsets
// first, so the modules with the most conflicting neighbors get first pick
// of low offsets.
func (c *compilerState) computeDegrees() {
	for i := 0; i < len(c.components); i++ {
		for j := i + 1; j < len(c.components); j++ {
			if !c.components[i].disjointFrom(c.components[j]) {
				c.components[i].degree++
				c.components[j].degree++
			}
		}
	}
}

// assignOffsets walks the (already degree-sorted) components and gives each
// a byte offset that avoids every already-assigned, non-disjoint
// component's range, then publishes the result onto every member module's
// attribute table.
func (c *compilerState) assignOffsets() {
	for i, comp := range c.components {
		if comp.invalid {
			comp.offset = module.NoRead
			comp.assigned = true
			continue
		}
		if comp.assigned || len(comp.modules) == 1 {
			continue
		}

		var overlapping []*component
		for j, other := range c.components {
			if i == j {
				continue
			}
			if other.assigned && !comp.disjointFrom(other) {
				overlapping = append(overlapping, other)
			}
		}
		sort.Slice(overlapping, func(a, b int) bool {
			return overlapping[a].offset < overlapping[b].offset
		})

		offset := 0
		for _, other := range overlapping {
			if other.offset == module.NoRead || other.offset == module.NoWrite || other.offset == module.NoSpace {
				continue
			}
			if offset >= other.offset+other.size {
				continue
			}
			if offset+comp.size > other.offset {
				offset = computeNextOffset(other.offset+other.size, comp.size)
				if offset == module.NoSpace {
					break
				}
			} else {
				break
			}
		}
		comp.offset = offset
		comp.assigned = true
	}

	c.fillOffsetArrays()
}

// fillOffsetArrays publishes each component's final offset onto every
// member module's matching attribute, or the NoRead/NoWrite sentinel if the
// component turned out invalid or has only one member (a write nothing ever
// reads).
func (c *compilerState) fillOffsetArrays() {
	for _, comp := range c.components {
		offset := comp.offset
		if len(comp.modules) == 1 {
			comp.offset = module.NoWrite
			offset = module.NoWrite
		}

		for _, mod := range comp.modules {
			for i, a := range mod.Attrs() {
				if a.Name != comp.name {
					continue
				}
				switch {
				case comp.invalid && a.Mode == module.AttrRead:
					mod.SetAttrOffset(i, module.NoRead)
				case comp.invalid:
					mod.SetAttrOffset(i, module.NoWrite)
				default:
					mod.SetAttrOffset(i, offset)
				}
				break
			}
		}
	}
}

// computeNextOffset returns the first offset at or after curr, aligned to
// the next power of two at or above size, such that [offset, offset+size)
// fits within the metadata region; module.NoSpace if it cannot.
func computeNextOffset(curr, size int) int {
	rounded := alignCeilPow2(size)
	if curr%rounded != 0 {
		curr = alignCeil(curr, rounded)
	}
	if curr+size > metadataTotal {
		return module.NoSpace
	}
	return curr
}

func alignCeilPow2(size int) int {
	p := 1
	for p < size {
		p <<= 1
	}
	return p
}

func alignCeil(x, align int) int {
	return (x + align - 1) / align * align
}

func findAttr(mod module.Module, name string) (int, bool) {
	for i, a := range mod.Attrs() {
		if a.Name == name {
			return i, true
		}
	}
	return 0, false
}

// asModule recovers the full Module interface from a gate owner reference.
// Every concrete module registered with a pipeline implements both; a
// failed assertion means a gate was wired to something that isn't a real
// pipeline module, which is a programming error in the caller, not a
// reachable runtime condition.
func asModule(o gate.OwnerModule) module.Module {
	m, ok := o.(module.Module)
	if !ok {
		panic("metadata: gate owner does not implement module.Module")
	}
	return m
}

func sortedOGateIndices(mod module.Module) []int {
	m := mod.OGates()
	idxs := make([]int, 0, len(m))
	for i := range m {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	return idxs
}

func sortedIGateIndices(mod module.Module) []int {
	m := mod.IGates()
	idxs := make([]int, 0, len(m))
	for i := range m {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	return idxs
}
