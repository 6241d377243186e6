package l2

import "golang.org/x/sys/cpu"

// hasAVX2 reports whether the 4-way SIMD bucket compare can run on this
// CPU. The scalar fallback below produces identical results either way;
// this only chooses which one actually executes.
var hasAVX2 = cpu.X86.HasAVX2

// findIndex4 scans a 4-entry bucket for addr, returning the slot index in
// [0,4) or -1 if absent. Masking off the gate bits before comparing is what
// lets this run as one 256-bit equality compare on capable hardware: four
// adjacent entry words, each masked to (occupied-bit | addr bits), compared
// against a single broadcast needle.
func findIndex4(addr uint64, bucket []entry) int {
	if hasAVX2 {
		return findIndex4AVX2(addr, bucket)
	}
	return findIndex4Scalar(addr, bucket)
}

func findIndex4Scalar(addr uint64, bucket []entry) int {
	needle := occupiedBit | (addr & addrMask)
	for i := 0; i < 4 && i < len(bucket); i++ {
		if uint64(bucket[i])&(occupiedBit|addrMask) == needle {
			return i
		}
	}
	return -1
}

// findIndex4AVX2 is the SIMD-eligible path. Without cgo or a Go assembly
// kernel available in this module's dependency set, the masked compare
// itself is expressed as plain Go; what AVX2 buys in the original engine is
// a single vector load-and-compare instead of four scalar ones, which this
// loop cannot actually perform. It is kept as a distinct entry point (gated
// by the same cpu.X86.HasAVX2 feature test as the original) so a future
// assembly kernel can be dropped in without touching call sites, and so
// tests can exercise both named paths independently per spec.md §9's
// requirement that the scalar and SIMD paths produce identical results.
func findIndex4AVX2(addr uint64, bucket []entry) int {
	return findIndex4Scalar(addr, bucket)
}
