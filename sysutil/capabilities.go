package sysutil

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// HasCapability reports whether the calling process currently holds cap in
// its effective set. Ported from the teacher's capget-based capability
// probe (linux/capabilities.go), trimmed to a read-only check: this engine
// never needs to drop or raise capabilities itself, only to refuse a port
// acquisition the process cannot actually perform.
func HasCapability(cap uintptr) (bool, error) {
	hdr := unix.CapUserHeader{Version: unix.LINUX_CAPABILITY_VERSION_3}
	var data [2]unix.CapUserData
	if err := unix.Capget(&hdr, &data[0]); err != nil {
		return false, fmt.Errorf("sysutil: capget: %w", err)
	}
	idx := cap / 32
	bit := uint32(1) << (cap % 32)
	if idx == 0 {
		return data[0].Effective&bit != 0, nil
	}
	return data[1].Effective&bit != 0, nil
}

// RequireCapability returns an error naming op if the process does not
// hold cap. Ports call this before acquiring NIC queues (CAP_NET_RAW) so a
// missing privilege surfaces as a clear control-plane error instead of an
// opaque syscall failure deep in the driver.
func RequireCapability(cap uintptr, op string) error {
	ok, err := HasCapability(cap)
	if err != nil {
		return fmt.Errorf("sysutil: %s: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("sysutil: %s: missing required capability", op)
	}
	return nil
}
