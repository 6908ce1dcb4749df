package pools

import (
	"sync"
	"sync/atomic"
)

// BytePool hands out connection buffers of one fixed capacity. Requests
// larger than the capacity are allocated directly and never pooled.
type BytePool struct {
	size int
	pool sync.Pool

	gets      atomic.Uint64
	puts      atomic.Uint64
	oversized atomic.Uint64
}

// NewBytePool creates a pool of size-byte buffers.
func NewBytePool(size int) *BytePool {
	bp := &BytePool{size: size}
	bp.pool.New = func() any {
		buf := make([]byte, size)
		return &buf
	}
	return bp
}

// Size returns the pooled buffer capacity.
func (bp *BytePool) Size() int { return bp.size }

// Get returns a buffer of exactly Size bytes.
func (bp *BytePool) Get() []byte {
	return bp.GetN(bp.size)
}

// GetN returns a buffer of length n, pooled when n fits the capacity.
func (bp *BytePool) GetN(n int) []byte {
	if n > bp.size {
		bp.oversized.Add(1)
		return make([]byte, n)
	}
	bp.gets.Add(1)
	buf := *(bp.pool.Get().(*[]byte))
	return buf[:n]
}

// Put returns buf to the pool. Buffers of a foreign capacity are dropped.
func (bp *BytePool) Put(buf []byte) {
	if cap(buf) != bp.size {
		return
	}
	bp.puts.Add(1)
	buf = buf[:cap(buf)]
	bp.pool.Put(&buf)
}

// BytePoolStats counts pool traffic.
type BytePoolStats struct {
	Gets      uint64 `json:"gets"`
	Puts      uint64 `json:"puts"`
	Oversized uint64 `json:"oversized"`
}

func (bp *BytePool) Stats() BytePoolStats {
	return BytePoolStats{
		Gets:      bp.gets.Load(),
		Puts:      bp.puts.Load(),
		Oversized: bp.oversized.Load(),
	}
}
