package pkt

import (
	"sync"

	bessErrors "bessgo/errors"
)

// Pool is the packet-buffer memory pool interface the dataflow engine
// consumes. A production implementation backs this with DMA-capable huge
// pages shared with a NIC driver; that implementation is out of scope
// here (see spec.md §1, §6). SimplePool below is a sync.Pool-backed stand-in
// used by tests and local (non-line-rate) pipelines.
type Pool interface {
	// AllocBulk allocates up to count packets of the given payload size,
	// storing them in out[0:n], and returns n, how many were allocated.
	AllocBulk(out []*Packet, count int, size int) int
	// FreeBulk returns every non-nil packet in pkts to the pool.
	FreeBulk(pkts []*Packet)

	// freeOne is the unexported hook Packet.Free calls; only Pool
	// implementations within this module family need it.
	freeOne(p *Packet)
}

// SimplePool is a sync.Pool-backed packet allocator. It is not DMA-backed
// and is not suitable for line-rate NIC I/O; it exists so the dataflow
// runtime, metadata compiler, and lookup cores can be exercised without an
// external driver.
type SimplePool struct {
	headroom int
	pool     sync.Pool
}

// NewSimplePool returns a pool that reserves headroom bytes at the front of
// every allocated packet (for Prepend use by encap modules).
func NewSimplePool(headroom int) *SimplePool {
	return &SimplePool{headroom: headroom}
}

// AllocBulk implements Pool.
func (p *SimplePool) AllocBulk(out []*Packet, count int, size int) int {
	if count > len(out) {
		count = len(out)
	}
	want := size + p.headroom
	n := 0
	for ; n < count; n++ {
		var buf []byte
		if got, ok := p.pool.Get().([]byte); ok && cap(got) >= want {
			buf = got[:want]
		} else {
			buf = make([]byte, want)
		}
		pk := NewPacket(buf, p.headroom)
		pk.length = 0
		pk.pool = p
		out[n] = pk
	}
	return n
}

// FreeBulk implements Pool.
func (p *SimplePool) FreeBulk(pkts []*Packet) {
	for _, pk := range pkts {
		if pk != nil {
			p.freeOne(pk)
		}
	}
}

// freeOne returns pk's backing buffer to the sync.Pool for reuse by a
// later AllocBulk call of matching or smaller size, then clears pk.
func (p *SimplePool) freeOne(pk *Packet) {
	if pk.buf != nil {
		p.pool.Put(pk.buf) //nolint:staticcheck // []byte is fine as a sync.Pool element; no heap-escape concern at this allocation rate
	}
	pk.buf = nil
	pk.head = 0
	pk.length = 0
	pk.pool = nil
}

// ErrPacketTooLarge is returned by callers that validate a requested
// packet size against a pool's fixed slot size before allocating.
var ErrPacketTooLarge = bessErrors.ErrPacketTooLarge
