package pkt

// Batch is an ordered sequence of up to MaxBurst live packets. Entries
// [0, Cnt) are live; entries [Cnt, MaxBurst) are unspecified. A Batch must
// not outlive a single ProcessBatch invocation chain: it is created by a
// source module (driver receive or allocator) and consumed by a sink
// (driver transmit or FreeAll).
type Batch struct {
	pkts [MaxBurst]*Packet
	cnt  int
}

// Cnt returns the number of live packets in the batch.
func (b *Batch) Cnt() int {
	return b.cnt
}

// Pkts returns the live packet slice [0, Cnt).
func (b *Batch) Pkts() []*Packet {
	return b.pkts[:b.cnt]
}

// At returns the packet at index i. Callers must ensure 0 <= i < Cnt.
func (b *Batch) At(i int) *Packet {
	return b.pkts[i]
}

// Add appends a packet to the batch. It is a no-op (and drops the packet
// reference) if the batch is already at MaxBurst capacity — callers at the
// dataflow boundary (source modules, pool allocators) are responsible for
// never exceeding MaxBurst per burst.
func (b *Batch) Add(p *Packet) bool {
	if b.cnt >= MaxBurst {
		return false
	}
	b.pkts[b.cnt] = p
	b.cnt++
	return true
}

// Clear resets the batch to empty without freeing any packets. Used once
// ownership of every packet has been handed elsewhere.
func (b *Batch) Clear() {
	for i := 0; i < b.cnt; i++ {
		b.pkts[i] = nil
	}
	b.cnt = 0
}

// FreeAll frees every live packet in the batch and clears it. This is the
// terminal operation for a batch routed to DROP_GATE.
func (b *Batch) FreeAll() {
	for i := 0; i < b.cnt; i++ {
		if b.pkts[i] != nil {
			b.pkts[i].Free()
		}
		b.pkts[i] = nil
	}
	b.cnt = 0
}

// NewBatch returns an empty batch ready for Add.
func NewBatch() *Batch {
	return &Batch{}
}
