package port

import (
	"golang.org/x/sys/unix"

	"bessgo/sysutil"
)

// Acquire wraps p.AcquireQueues with the privilege check a real NIC port
// would enforce at the driver level: raw packet I/O requires CAP_NET_RAW,
// so a process lacking it is refused here rather than failing deep inside
// whatever syscall the real driver would have made.
func Acquire(p Port, owner string, dir Direction, queues []int) error {
	if err := sysutil.RequireCapability(unix.CAP_NET_RAW, "port.Acquire"); err != nil {
		return err
	}
	return p.AcquireQueues(owner, dir, queues)
}
