//go:build darwin

package poller

import (
	"time"

	"golang.org/x/sys/unix"
)

// KqueuePoller is a kqueue-based Poller.
type KqueuePoller struct {
	kqfd   int
	events []unix.Kevent_t
}

// New creates a kqueue that returns at most maxEvents per Wait.
func New(maxEvents int) (Poller, error) {
	kqfd, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kqfd)
	if maxEvents <= 0 {
		maxEvents = 1024
	}

	return &KqueuePoller{
		kqfd:   kqfd,
		events: make([]unix.Kevent_t, maxEvents),
	}, nil
}

func filter(dir Direction) int {
	if dir == Write {
		return unix.EVFILT_WRITE
	}
	return unix.EVFILT_READ
}

func (p *KqueuePoller) arm(fd int, dir Direction) error {
	// EV_ONESHOT filters delete themselves after firing, so switching
	// direction only needs the new filter added.
	var ev unix.Kevent_t
	unix.SetKevent(&ev, fd, filter(dir), unix.EV_ADD|unix.EV_ONESHOT)
	_, err := unix.Kevent(p.kqfd, []unix.Kevent_t{ev}, nil, nil)
	return err
}

func (p *KqueuePoller) Add(fd int, dir Direction) error    { return p.arm(fd, dir) }
func (p *KqueuePoller) Modify(fd int, dir Direction) error { return p.arm(fd, dir) }

func (p *KqueuePoller) Remove(fd int) error {
	// Either filter may already be gone; ENOENT is expected.
	var changes [2]unix.Kevent_t
	unix.SetKevent(&changes[0], fd, unix.EVFILT_READ, unix.EV_DELETE)
	unix.SetKevent(&changes[1], fd, unix.EVFILT_WRITE, unix.EV_DELETE)
	for i := range changes {
		if _, err := unix.Kevent(p.kqfd, changes[i:i+1], nil, nil); err != nil && err != unix.ENOENT {
			return err
		}
	}
	return nil
}

func (p *KqueuePoller) Wait(events []Event, timeout time.Duration) (int, error) {
	max := len(events)
	if max > len(p.events) {
		max = len(p.events)
	}

	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(int64(timeout))
		ts = &t
	}

	n, err := unix.Kevent(p.kqfd, nil, p.events[:max], ts)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}

	for i := 0; i < n; i++ {
		events[i] = fromKevent(&p.events[i])
	}
	return n, nil
}

// fromKevent reports EOF on the read filter as Closed only once nothing is
// left to read, so a request sent just before a half-close is still served.
func fromKevent(raw *unix.Kevent_t) Event {
	ev := Event{
		Fd:       int(raw.Ident),
		Readable: raw.Filter == unix.EVFILT_READ,
		Writable: raw.Filter == unix.EVFILT_WRITE,
	}
	switch {
	case raw.Flags&unix.EV_ERROR != 0:
		ev.Closed = true
	case raw.Flags&unix.EV_EOF != 0:
		ev.Closed = !ev.Readable || raw.Data == 0
	}
	return ev
}

func (p *KqueuePoller) Close() error {
	return unix.Close(p.kqfd)
}
