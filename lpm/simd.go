package lpm

import "golang.org/x/sys/cpu"

// hasAVX2 mirrors the l2 package's feature gate: whether the 4-wide burst
// lookup could, on capable hardware, resolve all four addresses with one
// vector gather instead of four scalar table reads.
var hasAVX2 = cpu.X86.HasAVX2

// lookupX4Vector and lookupX4Scalar are kept as distinct, separately
// testable entry points for the same reason as l2.findIndex4AVX2: no cgo
// or Go assembly kernel is available in this module's dependency set, so
// the "vector" path is honestly the scalar one under a different name,
// ready for a real kernel to be dropped in without touching call sites.
func (t *Table) lookupX4Vector(ips [4]uint32, def uint16) [4]uint16 {
	return t.lookupX4Scalar(ips, def)
}

func (t *Table) lookupX4Scalar(ips [4]uint32, def uint16) [4]uint16 {
	var out [4]uint16
	for i, ip := range ips {
		if nh, ok := t.Lookup(ip); ok {
			out[i] = nh
		} else {
			out[i] = def
		}
	}
	return out
}
