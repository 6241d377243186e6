package module

import "bessgo/pkt"

// RunNext is shorthand for RunChoose(0, batch): forward the entire batch to
// output gate 0.
func (b *Base) RunNext(batch *pkt.Batch) {
	b.RunChoose(0, batch)
}

// RunChoose forwards the entire batch to a single output gate. Gate.DropGate
// frees the batch instead. If the gate has no peer, the batch is freed.
func (b *Base) RunChoose(gateIdx int, batch *pkt.Batch) {
	if gateIdx == dropGateSentinel {
		batch.FreeAll()
		return
	}
	og, ok := b.ogates[gateIdx]
	if !ok || og.Peer == nil {
		batch.FreeAll()
		return
	}
	og.Peer.Owner.ProcessBatch(og.Peer.Index, batch)
}

// dropGateSentinel mirrors gate.DropGate without importing gate twice in
// call sites; kept local so RunChoose reads as a single guarded branch.
const dropGateSentinel = 0xFFFF

// RunSplit partitions a batch across output gates using a per-packet gate
// index array: gates[i] names the output gate packet i of the batch
// should be routed to. Packets are bucketed in input order, preserving
// relative order within each bucket (a stable partition). An entry equal
// to DropGate frees that packet. Each non-empty bucket is dispatched as
// its own sub-batch to the peer input gate's owning module; gates with no
// peer have their bucket freed.
func (b *Base) RunSplit(gates []int, batch *pkt.Batch) {
	buckets := make(map[int]*pkt.Batch)
	order := make([]int, 0, 4)

	pkts := batch.Pkts()
	for i, p := range pkts {
		gidx := gates[i]
		if gidx == dropGateSentinel {
			p.Free()
			continue
		}
		bucket, ok := buckets[gidx]
		if !ok {
			bucket = pkt.NewBatch()
			buckets[gidx] = bucket
			order = append(order, gidx)
		}
		bucket.Add(p)
	}
	batch.Clear()

	for _, gidx := range order {
		b.RunChoose(gidx, buckets[gidx])
	}
}
