// Package gate implements the directed edges between dataflow modules.
//
// Gates are arena-indexed by (module, gate index) rather than linked by
// owning pointers, per the cyclic-graph guidance in spec.md §9: this keeps
// Link O(1) (Unlink scans the peer's upstream list) and avoids ownership
// cycles between modules that
// both read and write each other's gates.
package gate

import "bessgo/pkt"

// DropGate is the reserved output-gate index meaning "free the packet".
const DropGate = 0xFFFF

// MaxGates is the maximum number of gates (input or output) a single
// module instance may declare.
const MaxGates = 8192

// OwnerModule is the identity a gate needs to reach its owning module: a
// name for diagnostics, and the entry point dispatch primitives call to
// hand a sub-batch to the peer's owning module. module.Base alone does not
// implement this (it has no ProcessBatch); the concrete module that embeds
// Base and registers itself as owner does.
type OwnerModule interface {
	Name() string
	ProcessBatch(igateIdx int, batch *pkt.Batch)
}

// OGate is an output gate: a module's outgoing edge to at most one peer
// input gate.
type OGate struct {
	Owner OwnerModule
	Index int
	// Peer is the connected input gate, or nil if unconnected.
	Peer *IGate
}

// Connected reports whether this output gate has a peer.
func (g *OGate) Connected() bool {
	return g.Peer != nil
}

// IGate is an input gate: a module's incoming edge, holding the reverse
// list of every output gate that targets it (needed for upstream metadata
// traversal).
type IGate struct {
	Owner OwnerModule
	Index int
	// Upstream lists every OGate currently wired to this IGate, appended in
	// connection order.
	Upstream []*OGate
}

// addUpstream appends og to the input gate's upstream list.
func (g *IGate) addUpstream(og *OGate) {
	g.Upstream = append(g.Upstream, og)
}

// removeUpstream removes og from the input gate's upstream list. It is a
// no-op if og is not present.
func (g *IGate) removeUpstream(og *OGate) {
	for i, u := range g.Upstream {
		if u == og {
			g.Upstream = append(g.Upstream[:i], g.Upstream[i+1:]...)
			return
		}
	}
}

// Link wires src (an output gate) to dst (an input gate). Callers
// (pipeline.Connect) are responsible for the higher-level validation
// (range checks, already-connected checks); Link itself is unconditional.
func Link(src *OGate, dst *IGate) {
	src.Peer = dst
	dst.addUpstream(src)
}

// Unlink removes the wiring between src and its peer, if any.
func Unlink(src *OGate) {
	if src.Peer == nil {
		return
	}
	src.Peer.removeUpstream(src)
	src.Peer = nil
}
