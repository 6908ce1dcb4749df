package poller

import "time"

// Direction selects which readiness a descriptor is armed for.
type Direction uint8

const (
	Read Direction = iota + 1
	Write
)

func (d Direction) String() string {
	switch d {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return "none"
	}
}

// Event is one readiness notification.
type Event struct {
	Fd       int
	Readable bool
	Writable bool
	// Closed is set when the kernel reports end-of-file, hang-up or an
	// error condition on the descriptor.
	Closed bool
}

// Poller is a readiness-notification queue. Registrations are one-shot: after
// an event is delivered for a descriptor it stays silent until re-armed with
// Modify. A descriptor is armed for exactly one direction at a time.
type Poller interface {
	// Add registers fd and arms it for dir.
	Add(fd int, dir Direction) error
	// Modify re-arms an already registered fd for dir.
	Modify(fd int, dir Direction) error
	// Remove deregisters fd.
	Remove(fd int) error
	// Wait fills events and returns how many were written. A zero timeout
	// polls without blocking; a negative timeout blocks indefinitely.
	Wait(events []Event, timeout time.Duration) (int, error)
	Close() error
}

// timeoutMillis rounds positive sub-millisecond timeouts up so they still block.
func timeoutMillis(d time.Duration) int {
	switch {
	case d < 0:
		return -1
	case d == 0:
		return 0
	}
	ms := d / time.Millisecond
	if d%time.Millisecond != 0 {
		ms++
	}
	return int(ms)
}
