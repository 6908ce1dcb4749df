package core

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/searchktools/evloop/core/http"
	"github.com/searchktools/evloop/core/poller"
	"github.com/searchktools/evloop/core/pools"
)

// worker is one event loop. It owns a readiness queue and the records of
// every connection assigned to it; only its own goroutine reads or writes
// the conns table.
type worker struct {
	id      int
	poller  poller.Poller
	sock    socketOps
	pipe    *pipeline
	pool    *pools.BytePool
	running *atomic.Bool

	timeout    time.Duration
	busy       bool
	backoffMin time.Duration
	backoffMax time.Duration

	log     zerolog.Logger
	metrics *Metrics
	active  prometheus.Gauge
	stats   *workerStats

	conns  map[int]*conn
	events []poller.Event

	// inbox hands records from the acceptor to the loop
	inboxMu sync.Mutex
	inbox   []*conn
}

// adopt registers c for read readiness and queues it for the loop. It runs
// on the acceptor goroutine. The lock spans the registration so the loop
// cannot see an event for c before it can see c.
func (w *worker) adopt(c *conn) error {
	w.inboxMu.Lock()
	defer w.inboxMu.Unlock()
	if err := w.poller.Add(c.fd, poller.Read); err != nil {
		return fmt.Errorf("register fd %d: %w", c.fd, err)
	}
	w.inbox = append(w.inbox, c)
	w.stats.accepted.Add(1)
	w.stats.active.Add(1)
	w.active.Inc()
	return nil
}

func (w *worker) drainInbox() {
	w.inboxMu.Lock()
	for i, c := range w.inbox {
		w.conns[c.fd] = c
		w.inbox[i] = nil
	}
	w.inbox = w.inbox[:0]
	w.inboxMu.Unlock()
}

// run is the event loop. It returns when the shared running flag is cleared
// or the readiness queue fails, closing every connection it owns.
func (w *worker) run() error {
	defer w.closeAll()

	timeout := w.timeout
	if w.busy {
		timeout = 0
	}

	for w.running.Load() {
		n, err := w.poller.Wait(w.events, timeout)
		if err != nil {
			w.log.Error().Err(err).Msg("readiness wait failed")
			return fmt.Errorf("worker %d: wait: %w", w.id, err)
		}
		w.drainInbox()

		if n == 0 {
			if w.busy {
				time.Sleep(jitter(w.backoffMin, w.backoffMax))
			}
			continue
		}
		for i := 0; i < n; i++ {
			w.dispatch(w.events[i])
		}
	}
	return nil
}

func (w *worker) dispatch(ev poller.Event) {
	c, ok := w.conns[ev.Fd]
	if !ok {
		return
	}
	switch {
	case ev.Closed:
		w.close(c, closeEOF)
	case ev.Readable && c.state == stateReading:
		w.handleRead(c)
	case ev.Writable && c.state == stateWriting:
		w.handleWrite(c)
	default:
		w.log.Debug().Int("fd", c.fd).Stringer("state", c.state).Msg("unexpected readiness")
		w.close(c, closeUnexpected)
	}
}

func (w *worker) handleRead(c *conn) {
	n, err := w.sock.Read(c.fd, c.buf[c.n:])
	if err != nil {
		if retryable(err) {
			w.rearm(c, poller.Read)
			return
		}
		w.log.Debug().Err(err).Int("fd", c.fd).Msg("read failed")
		w.close(c, closeReadError)
		return
	}
	if n == 0 {
		w.close(c, closePeer)
		return
	}

	c.n += n
	w.stats.bytesRead.Add(uint64(n))
	w.metrics.bytesRead.Add(float64(n))

	// A full buffer is served as-is.
	if c.n < len(c.buf) && !http.RequestComplete(c.buf[:c.n]) {
		w.rearm(c, poller.Read)
		return
	}

	out, closeAfter := w.pipe.handle(c.buf[:c.n], w.pool.Get()[:0])
	w.stats.requests.Add(1)

	next := newWritingConn(c.fd, out, closeAfter)
	w.conns[c.fd] = next
	w.pool.Put(c.buf)
	w.rearm(next, poller.Write)
}

func (w *worker) handleWrite(c *conn) {
	n, err := w.sock.Write(c.fd, c.unsent())
	if err != nil {
		if retryable(err) {
			w.rearm(c, poller.Write)
			return
		}
		w.log.Debug().Err(err).Int("fd", c.fd).Msg("write failed")
		w.close(c, closeWriteError)
		return
	}

	w.stats.bytesWritten.Add(uint64(n))
	w.metrics.bytesWritten.Add(float64(n))

	if c.advance(n) {
		w.stats.partialWrites.Add(1)
		w.metrics.partialWrites.Inc()
		w.rearm(c, poller.Write)
		return
	}

	if c.closeAfter {
		w.close(c, closeRequested)
		return
	}

	next := newReadingConn(c.fd, w.pool.Get())
	w.conns[c.fd] = next
	w.pool.Put(c.buf)
	w.rearm(next, poller.Read)
}

func (w *worker) rearm(c *conn, dir poller.Direction) {
	if err := w.poller.Modify(c.fd, dir); err != nil {
		w.log.Debug().Err(err).Int("fd", c.fd).Stringer("dir", dir).Msg("re-arm failed")
		w.close(c, closeRearm)
	}
}

// close deregisters and closes c and forgets its record.
func (w *worker) close(c *conn, reason string) {
	_ = w.poller.Remove(c.fd)
	if err := w.sock.Close(c.fd); err != nil {
		w.log.Debug().Err(err).Int("fd", c.fd).Msg("close failed")
	}
	delete(w.conns, c.fd)
	w.pool.Put(c.buf)
	c.buf = nil

	w.stats.active.Add(-1)
	w.active.Dec()
	w.metrics.closed.WithLabelValues(reason).Inc()
}

// shutdown closes anything handed over after the loop exited, then the
// readiness queue. It runs once the acceptor has stopped too.
func (w *worker) shutdown() error {
	w.closeAll()
	return w.poller.Close()
}

func (w *worker) closeAll() {
	w.drainInbox()
	for _, c := range w.conns {
		w.close(c, closeShutdown)
	}
}
