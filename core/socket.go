package core

import (
	"fmt"
	"math/rand"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// socketOps is the non-blocking I/O a worker performs on its descriptors.
type socketOps interface {
	Read(fd int, p []byte) (int, error)
	Write(fd int, p []byte) (int, error)
	Close(fd int) error
}

type sysSocket struct{}

func (sysSocket) Read(fd int, p []byte) (int, error)  { return unix.Read(fd, p) }
func (sysSocket) Write(fd int, p []byte) (int, error) { return unix.Write(fd, p) }
func (sysSocket) Close(fd int) error                  { return unix.Close(fd) }

// retryable reports whether err only means "not now".
func retryable(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR
}

// listenSocket creates a non-blocking IPv4 listening socket.
func listenSocket(host string, port, backlog int) (int, error) {
	addr, err := ipv4(host)
	if err != nil {
		return -1, err
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, fmt.Errorf("create socket: %w", err)
	}
	unix.CloseOnExec(fd)

	fail := func(step string, err error) (int, error) {
		unix.Close(fd)
		return -1, fmt.Errorf("%s: %w", step, err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fail("set SO_REUSEADDR", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return fail("set non-blocking", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port, Addr: addr}); err != nil {
		return fail(fmt.Sprintf("bind %s:%d", host, port), err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		return fail(fmt.Sprintf("listen on port %d", port), err)
	}
	return fd, nil
}

func ipv4(host string) ([4]byte, error) {
	var addr [4]byte
	switch host {
	case "", "0.0.0.0":
		return addr, nil
	case "localhost":
		return [4]byte{127, 0, 0, 1}, nil
	}
	ip := net.ParseIP(host).To4()
	if ip == nil {
		return addr, fmt.Errorf("host %q is not an IPv4 address", host)
	}
	copy(addr[:], ip)
	return addr, nil
}

func localPort(fd int) int {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return 0
	}
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		return in4.Port
	}
	return 0
}

// jitter returns a uniformly distributed duration in [min, max].
func jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min+1)))
}
