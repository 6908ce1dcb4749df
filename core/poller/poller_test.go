//go:build linux || darwin

package poller

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func socketPair(t *testing.T) (int, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestPollerOneShotRead(t *testing.T) {
	p, err := New(16)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	a, b := socketPair(t)
	if err := p.Add(a, Read); err != nil {
		t.Fatalf("add: %v", err)
	}

	events := make([]Event, 16)
	if n, _ := p.Wait(events, 0); n != 0 {
		t.Fatalf("expected no events before data, got %d", n)
	}

	unix.Write(b, []byte("ping"))
	n, err := p.Wait(events, time.Second)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 event, got %d (%v)", n, err)
	}
	if events[0].Fd != a || !events[0].Readable || events[0].Writable {
		t.Errorf("unexpected event %+v", events[0])
	}

	// Data is still unread, but the registration fired once and is disarmed.
	if n, _ := p.Wait(events, 20*time.Millisecond); n != 0 {
		t.Errorf("expected one-shot registration to stay silent, got %d events", n)
	}

	if err := p.Modify(a, Read); err != nil {
		t.Fatalf("modify: %v", err)
	}
	if n, _ := p.Wait(events, time.Second); n != 1 {
		t.Errorf("expected re-armed read event, got %d", n)
	}
}

func TestPollerSwitchToWrite(t *testing.T) {
	p, err := New(16)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	a, _ := socketPair(t)
	if err := p.Add(a, Read); err != nil {
		t.Fatal(err)
	}
	if err := p.Modify(a, Write); err != nil {
		t.Fatal(err)
	}

	events := make([]Event, 16)
	n, err := p.Wait(events, time.Second)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 event, got %d (%v)", n, err)
	}
	if !events[0].Writable || events[0].Readable {
		t.Errorf("expected write readiness only, got %+v", events[0])
	}

	if err := p.Remove(a); err != nil {
		t.Errorf("remove: %v", err)
	}
}

func TestTimeoutMillis(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int
	}{
		{-1, -1},
		{0, 0},
		{10 * time.Microsecond, 1},
		{time.Millisecond, 1},
		{1500 * time.Microsecond, 2},
		{10 * time.Millisecond, 10},
	}
	for _, tt := range tests {
		if got := timeoutMillis(tt.in); got != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestHalfClosedPeerStillReadable(t *testing.T) {
	p, err := New(16)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	a, b := socketPair(t)
	if err := p.Add(a, Read); err != nil {
		t.Fatal(err)
	}
	unix.Write(b, []byte("GET / HTTP/1.1\r\n\r\n"))
	unix.Shutdown(b, unix.SHUT_WR)

	events := make([]Event, 16)
	n, err := p.Wait(events, time.Second)
	if err != nil || n != 1 {
		t.Fatalf("expected one event, got %d (%v)", n, err)
	}
	if !events[0].Readable || events[0].Closed {
		t.Errorf("expected readable and not closed while bytes are pending, got %+v", events[0])
	}
}
