package core

type connState uint8

const (
	stateReading connState = iota
	stateWriting
)

func (s connState) String() string {
	if s == stateWriting {
		return "writing"
	}
	return "reading"
}

// conn is the record for one accepted socket in one phase. A phase change
// replaces the record in the owning worker's table instead of mutating it,
// and exactly one worker goroutine touches a record at a time.
type conn struct {
	fd    int
	state connState
	buf   []byte

	// reading: bytes received so far into buf
	n int

	// writing: buf[cursor:cursor+pending] is still to be sent
	cursor  int
	pending int

	closeAfter bool
}

func newReadingConn(fd int, buf []byte) *conn {
	return &conn{fd: fd, state: stateReading, buf: buf}
}

func newWritingConn(fd int, out []byte, closeAfter bool) *conn {
	return &conn{
		fd:         fd,
		state:      stateWriting,
		buf:        out,
		pending:    len(out),
		closeAfter: closeAfter,
	}
}

// unsent returns the slice the next send must start with.
func (c *conn) unsent() []byte {
	return c.buf[c.cursor : c.cursor+c.pending]
}

// advance records a send of n bytes and reports whether anything remains.
func (c *conn) advance(n int) bool {
	c.cursor += n
	c.pending -= n
	return c.pending > 0
}
