package core

import (
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/searchktools/evloop/core/pools"
)

// workerStats is written by one worker (and the acceptor for accepted and
// active) and read by Stats. Padded so neighbouring workers do not share a
// cache line.
type workerStats struct {
	_             cpu.CacheLinePad
	accepted      atomic.Uint64
	active        atomic.Int64
	requests      atomic.Uint64
	bytesRead     atomic.Uint64
	bytesWritten  atomic.Uint64
	partialWrites atomic.Uint64
}

// WorkerStats is a point-in-time copy of one worker's counters.
type WorkerStats struct {
	ID            int    `json:"id"`
	Accepted      uint64 `json:"accepted"`
	Active        int64  `json:"active"`
	Requests      uint64 `json:"requests"`
	BytesRead     uint64 `json:"bytes_read"`
	BytesWritten  uint64 `json:"bytes_written"`
	PartialWrites uint64 `json:"partial_writes"`
}

// Stats represents the server's counters at one moment
type Stats struct {
	Running bool                `json:"running"`
	Port    int                 `json:"port"`
	Workers []WorkerStats       `json:"workers"`
	Buffers pools.BytePoolStats `json:"buffers"`
}

func (s *workerStats) snapshot(id int) WorkerStats {
	return WorkerStats{
		ID:            id,
		Accepted:      s.accepted.Load(),
		Active:        s.active.Load(),
		Requests:      s.requests.Load(),
		BytesRead:     s.bytesRead.Load(),
		BytesWritten:  s.bytesWritten.Load(),
		PartialWrites: s.partialWrites.Load(),
	}
}

// Totals sums the per-worker counters.
func (s Stats) Totals() WorkerStats {
	t := WorkerStats{ID: -1}
	for _, w := range s.Workers {
		t.Accepted += w.Accepted
		t.Active += w.Active
		t.Requests += w.Requests
		t.BytesRead += w.BytesRead
		t.BytesWritten += w.BytesWritten
		t.PartialWrites += w.PartialWrites
	}
	return t
}

// Text returns the statistics as human-readable text
func (s Stats) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Server Statistics (port %d, running %v)\n", s.Port, s.Running)
	b.WriteString("=========================================\n")
	for _, w := range s.Workers {
		fmt.Fprintf(&b, "Worker %d:\n  Accepted: %d\n  Active:   %d\n  Requests: %d\n  Read:     %d bytes\n  Written:  %d bytes (%d partial)\n",
			w.ID, w.Accepted, w.Active, w.Requests, w.BytesRead, w.BytesWritten, w.PartialWrites)
	}
	fmt.Fprintf(&b, "\nBuffers:\n  Gets:      %d\n  Puts:      %d\n  Oversized: %d\n",
		s.Buffers.Gets, s.Buffers.Puts, s.Buffers.Oversized)
	return b.String()
}
