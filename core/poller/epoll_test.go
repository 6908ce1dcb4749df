//go:build linux

package poller

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestFromEpoll(t *testing.T) {
	tests := []struct {
		name     string
		events   uint32
		readable bool
		writable bool
		closed   bool
	}{
		{"data", unix.EPOLLIN, true, false, false},
		{"hang-up with pending bytes", unix.EPOLLIN | unix.EPOLLHUP, true, false, false},
		{"hang-up drained", unix.EPOLLHUP, false, false, true},
		{"writable", unix.EPOLLOUT, false, true, false},
		{"error", unix.EPOLLIN | unix.EPOLLERR, true, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := unix.EpollEvent{Events: tt.events, Fd: 7}
			ev := fromEpoll(&raw)
			if ev.Fd != 7 || ev.Readable != tt.readable || ev.Writable != tt.writable || ev.Closed != tt.closed {
				t.Errorf("unexpected event %+v", ev)
			}
		})
	}
}
