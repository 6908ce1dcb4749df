package core

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// acceptor drains the listening socket and deals connections to workers in
// strict rotation. next is owned by the acceptor goroutine alone.
type acceptor struct {
	lfd     int
	workers []*worker
	next    int
	running *atomic.Bool

	backoffMin time.Duration
	backoffMax time.Duration

	log     zerolog.Logger
	metrics *Metrics
}

const (
	acceptErrorBackoffMin = time.Millisecond
	acceptErrorBackoffMax = time.Second
)

func (a *acceptor) run() error {
	// descriptor exhaustion repeats on every attempt until something closes
	errLog := a.log.Sample(&zerolog.BurstSampler{Burst: 1, Period: time.Second})
	failures := 0
	for a.running.Load() {
		nfd, _, err := unix.Accept(a.lfd)
		if err != nil {
			if retryable(err) || err == unix.ECONNABORTED {
				time.Sleep(jitter(a.backoffMin, a.backoffMax))
				continue
			}
			failures++
			a.metrics.acceptErrors.Inc()
			errLog.Warn().Err(err).Int("failures", failures).Msg("accept failed")
			time.Sleep(errorBackoff(failures))
			continue
		}
		failures = 0
		a.metrics.accepted.Inc()
		a.assign(nfd)
	}
	return nil
}

// errorBackoff doubles the pause for every consecutive hard accept failure,
// from acceptErrorBackoffMin up to acceptErrorBackoffMax.
func errorBackoff(failures int) time.Duration {
	if failures < 1 {
		return acceptErrorBackoffMin
	}
	if failures > 11 {
		return acceptErrorBackoffMax
	}
	return min(acceptErrorBackoffMin<<(failures-1), acceptErrorBackoffMax)
}

// assign prepares nfd and hands it to the next worker in rotation.
func (a *acceptor) assign(nfd int) {
	if err := unix.SetNonblock(nfd, true); err != nil {
		a.log.Warn().Err(err).Int("fd", nfd).Msg("set non-blocking failed")
		unix.Close(nfd)
		return
	}
	unix.CloseOnExec(nfd)
	// TCP_NODELAY: Disable Nagle's algorithm
	_ = unix.SetsockoptInt(nfd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)

	w := a.workers[a.next]
	a.next = (a.next + 1) % len(a.workers)

	c := newReadingConn(nfd, w.pool.Get())
	if err := w.adopt(c); err != nil {
		a.log.Warn().Err(err).Int("worker", w.id).Msg("hand-off failed")
		w.pool.Put(c.buf)
		unix.Close(nfd)
		return
	}
	a.log.Debug().Int("fd", nfd).Int("worker", w.id).Msg("connection assigned")
}
