// Package pkt defines the packet handle and packet batch types that flow
// through the dataflow engine, along with the packet-buffer pool interface
// the engine consumes (the real NIC-backed allocator is out of scope; see
// SimplePool for a test/local stand-in).
package pkt

import "fmt"

// MetadataTotal is the size, in bytes, of the per-packet scratch region
// used for inter-module attribute storage.
const MetadataTotal = 96

// MaxBurst is the maximum number of packets carried in one Batch.
const MaxBurst = 32

// Packet is an owned reference to a packet buffer. Ownership transfers when
// a Batch is handed to a module's ProcessBatch: the callee either forwards
// the packet downstream (ownership passes along) or must Free it.
type Packet struct {
	// buf holds headroom + head-data + tailroom in one contiguous slice.
	buf []byte
	// head is the offset of the first valid data byte within buf.
	head int
	// length is the number of valid data bytes starting at head.
	length int

	// Metadata is the fixed-size per-packet scratch region used by the
	// metadata compiler's attribute offsets.
	Metadata [MetadataTotal]byte

	// pool is the pool this packet was allocated from, used by Free.
	pool Pool
}

// NewPacket wraps a raw buffer as a packet with headroom bytes of empty
// space at the front of buf.
func NewPacket(buf []byte, headroom int) *Packet {
	return &Packet{
		buf:    buf,
		head:   headroom,
		length: len(buf) - headroom,
	}
}

// HeadData returns the slice of currently valid packet data.
func (p *Packet) HeadData() []byte {
	return p.buf[p.head : p.head+p.length]
}

// TotalLen returns the number of valid data bytes.
func (p *Packet) TotalLen() int {
	return p.length
}

// Headroom returns the number of unused bytes before the head-data pointer.
func (p *Packet) Headroom() int {
	return p.head
}

// Prepend grows the packet by n bytes at the front, returning a pointer to
// the new data, or nil if there isn't enough headroom. Per the data-plane
// error policy, a failed Prepend must leave the packet unchanged; the
// caller decides whether to forward it regardless.
func (p *Packet) Prepend(n int) []byte {
	if n < 0 || n > p.head {
		return nil
	}
	p.head -= n
	p.length += n
	return p.buf[p.head : p.head+n]
}

// Adj trims n bytes off the front of the packet (adjusts past a consumed
// header), returning the new head-data slice, or nil if n exceeds the
// current length.
func (p *Packet) Adj(n int) []byte {
	if n < 0 || n > p.length {
		return nil
	}
	p.head += n
	p.length -= n
	return p.HeadData()
}

// Append grows the packet by n bytes at the tail, returning a pointer to
// the new space, or nil if the backing buffer has no room.
func (p *Packet) Append(n int) []byte {
	if n < 0 || p.head+p.length+n > len(p.buf) {
		return nil
	}
	start := p.head + p.length
	p.length += n
	return p.buf[start : start+n]
}

// Free returns the packet to its owning pool. Freeing a packet with no
// pool is a no-op (used by tests that construct bare packets).
func (p *Packet) Free() {
	if p.pool != nil {
		p.pool.freeOne(p)
	}
}

// String implements fmt.Stringer for diagnostic logging.
func (p *Packet) String() string {
	return fmt.Sprintf("pkt(len=%d, headroom=%d)", p.length, p.head)
}
