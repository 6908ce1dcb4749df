//go:build linux

package poller

import (
	"time"

	"golang.org/x/sys/unix"
)

// EpollPoller is an epoll-based Poller.
type EpollPoller struct {
	epfd   int
	events []unix.EpollEvent
}

// New creates an epoll instance that returns at most maxEvents per Wait.
func New(maxEvents int) (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	if maxEvents <= 0 {
		maxEvents = 1024
	}

	return &EpollPoller{
		epfd:   epfd,
		events: make([]unix.EpollEvent, maxEvents),
	}, nil
}

func interest(dir Direction) uint32 {
	// Level-triggered one-shot; the owner re-arms after every event.
	if dir == Write {
		return unix.EPOLLOUT | unix.EPOLLONESHOT
	}
	return unix.EPOLLIN | unix.EPOLLONESHOT
}

func (p *EpollPoller) Add(fd int, dir Direction) error {
	ev := unix.EpollEvent{Events: interest(dir), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (p *EpollPoller) Modify(fd int, dir Direction) error {
	ev := unix.EpollEvent{Events: interest(dir), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

func (p *EpollPoller) Remove(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *EpollPoller) Wait(events []Event, timeout time.Duration) (int, error) {
	max := len(events)
	if max > len(p.events) {
		max = len(p.events)
	}

	n, err := unix.EpollWait(p.epfd, p.events[:max], timeoutMillis(timeout))
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}

	for i := 0; i < n; i++ {
		events[i] = fromEpoll(&p.events[i])
	}
	return n, nil
}

// fromEpoll reports a hang-up that still carries readable data as Readable,
// so buffered request bytes are consumed before the connection is dropped.
func fromEpoll(raw *unix.EpollEvent) Event {
	ev := Event{
		Fd:       int(raw.Fd),
		Readable: raw.Events&unix.EPOLLIN != 0,
		Writable: raw.Events&unix.EPOLLOUT != 0,
	}
	switch {
	case raw.Events&unix.EPOLLERR != 0:
		ev.Closed = true
	case raw.Events&unix.EPOLLHUP != 0:
		ev.Closed = !ev.Readable
	}
	return ev
}

func (p *EpollPoller) Close() error {
	return unix.Close(p.epfd)
}
