package core

import (
	"errors"
	"time"
)

// Defaults applied to zero-valued Options fields.
const (
	DefaultWorkers     = 5
	DefaultBufferSize  = 4096
	DefaultBacklog     = 1000
	DefaultMaxEvents   = 10000
	DefaultPollTimeout = 10 * time.Millisecond
	DefaultBackoffMin  = 10 * time.Microsecond
	DefaultBackoffMax  = 100 * time.Microsecond
)

// Lifecycle errors
var (
	ErrServerRunning = errors.New("server already started")
	ErrServerStopped = errors.New("server stopped")
)

// Reasons a connection is torn down, used as the metrics label.
const (
	closePeer       = "peer_closed"
	closeEOF        = "eof"
	closeReadError  = "read_error"
	closeWriteError = "write_error"
	closeRearm      = "rearm_error"
	closeUnexpected = "unexpected_event"
	closeRequested  = "connection_close"
	closeShutdown   = "shutdown"
)
