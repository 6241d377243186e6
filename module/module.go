// Package module defines the polymorphic module trait every dataflow node
// implements, plus the embeddable Base that leaf modules compose for gate
// storage, attribute tables, and the run_next/run_choose/run_split
// dispatch primitives.
//
// This redesigns the teacher's class-hierarchy-plus-vtable approach (and
// the original engine's C++ virtual-method modules) as a Go interface plus
// a static, per-type command registry keyed by name, per spec.md §9.
package module

import (
	"encoding/json"

	"bessgo/gate"
	"bessgo/pkt"
)

// TaskResult is returned by RunTask: the number of packets and bits it
// produced, used by the scheduler for throughput accounting.
type TaskResult struct {
	Packets uint64
	Bits    uint64
}

// Module is the interface every dataflow node implements.
type Module interface {
	// Name returns the module's unique, process-wide instance name.
	Name() string
	// Class returns the module's builder class name.
	Class() string

	// Init validates config and allocates state. Called once, before the
	// module is wired into the graph or scheduled.
	Init(config json.RawMessage) error
	// Deinit releases state. Must be idempotent.
	Deinit() error

	// ProcessBatch consumes a batch arriving on input gate igateIdx. It
	// must dispatch zero or more packets downstream via RunNext/RunChoose/
	// RunSplit, or free any subset it drops.
	ProcessBatch(igateIdx int, batch *pkt.Batch)
	// RunTask is invoked by the scheduler for source-like modules. It may
	// produce one batch and forward it via the dispatch primitives.
	RunTask(arg any) TaskResult

	// GetDesc returns a human-readable status string.
	GetDesc() string
	// RunCommand invokes a named control-plane command.
	RunCommand(name string, arg json.RawMessage) (any, error)

	// IGate returns (creating on demand) the input gate at index idx.
	IGate(idx int) *gate.IGate
	// OGate returns (creating on demand) the output gate at index idx.
	OGate(idx int) *gate.OGate
	// IGates returns the sparse map of allocated input gates.
	IGates() map[int]*gate.IGate
	// OGates returns the sparse map of allocated output gates.
	OGates() map[int]*gate.OGate

	// Attrs returns the module's declared attribute descriptors.
	Attrs() []Attr
	// AttrOffset returns the metadata-compiler-assigned offset (or a
	// NoRead/NoWrite/NoSpace sentinel) for attribute index i.
	AttrOffset(i int) int
	// SetAttrOffset is called by the metadata compiler to publish the
	// assigned offset for attribute index i.
	SetAttrOffset(i int, offset int)
}

// Base is the embeddable struct leaf modules compose. It implements the
// gate-table bookkeeping and the dispatch primitives; concrete modules
// embed it and implement Init/Deinit/ProcessBatch/RunTask/GetDesc/
// RunCommand themselves.
type Base struct {
	name  string
	class string

	// ownerRef is the concrete module embedding this Base, recorded by
	// SetOwner so gates can dispatch straight into ProcessBatch without
	// going through a separate pipeline-wide lookup.
	ownerRef gate.OwnerModule

	igates map[int]*gate.IGate
	ogates map[int]*gate.OGate

	attrs      []Attr
	attrOffset []int
}

// NewBase constructs a Base with the given instance name, class name, and
// declared attributes (in declaration order — AttrOffset(i) addresses
// attrs[i]).
func NewBase(name, class string, attrs []Attr) *Base {
	offsets := make([]int, len(attrs))
	for i, a := range attrs {
		if a.Mode.IsReader() {
			offsets[i] = NoRead
		} else {
			offsets[i] = NoWrite
		}
	}
	return &Base{
		name:       name,
		class:      class,
		igates:     make(map[int]*gate.IGate),
		ogates:     make(map[int]*gate.OGate),
		attrs:      attrs,
		attrOffset: offsets,
	}
}

// SetOwner records the concrete module that embeds this Base. Builders
// must call this immediately after constructing a module, before any gate
// is connected, so that Owner references on gates resolve to the full
// Module rather than the bare Base.
func (b *Base) SetOwner(owner gate.OwnerModule) {
	b.ownerRef = owner
}

// Name implements Module.
func (b *Base) Name() string { return b.name }

// Class implements Module.
func (b *Base) Class() string { return b.class }

// Attrs implements Module.
func (b *Base) Attrs() []Attr { return b.attrs }

// AttrOffset implements Module.
func (b *Base) AttrOffset(i int) int { return b.attrOffset[i] }

// SetAttrOffset implements Module.
func (b *Base) SetAttrOffset(i int, offset int) { b.attrOffset[i] = offset }

// IGate implements Module, lazily allocating the gate on first reference.
func (b *Base) IGate(idx int) *gate.IGate {
	g, ok := b.igates[idx]
	if !ok {
		g = &gate.IGate{Owner: b.ownerRef, Index: idx}
		b.igates[idx] = g
	}
	return g
}

// OGate implements Module, lazily allocating the gate on first reference.
func (b *Base) OGate(idx int) *gate.OGate {
	g, ok := b.ogates[idx]
	if !ok {
		g = &gate.OGate{Owner: b.ownerRef, Index: idx}
		b.ogates[idx] = g
	}
	return g
}

// IGates returns the sparse map of allocated input gates.
func (b *Base) IGates() map[int]*gate.IGate { return b.igates }

// OGates returns the sparse map of allocated output gates.
func (b *Base) OGates() map[int]*gate.OGate { return b.ogates }
