//go:build darwin

package poller

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestFromKevent(t *testing.T) {
	tests := []struct {
		name     string
		filter   int16
		flags    uint16
		data     int64
		readable bool
		writable bool
		closed   bool
	}{
		{"data", unix.EVFILT_READ, 0, 18, true, false, false},
		{"eof with pending bytes", unix.EVFILT_READ, unix.EV_EOF, 18, true, false, false},
		{"eof drained", unix.EVFILT_READ, unix.EV_EOF, 0, true, false, true},
		{"writable", unix.EVFILT_WRITE, 0, 1024, false, true, false},
		{"eof on write", unix.EVFILT_WRITE, unix.EV_EOF, 1024, false, true, true},
		{"error", unix.EVFILT_READ, unix.EV_ERROR, 5, true, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := unix.Kevent_t{Ident: 7, Filter: tt.filter, Flags: tt.flags, Data: tt.data}
			ev := fromKevent(&raw)
			if ev.Fd != 7 || ev.Readable != tt.readable || ev.Writable != tt.writable || ev.Closed != tt.closed {
				t.Errorf("unexpected event %+v", ev)
			}
		})
	}
}
