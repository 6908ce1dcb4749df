package core

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/searchktools/evloop/core/http"
	"github.com/searchktools/evloop/core/middleware"
	"github.com/searchktools/evloop/core/poller"
	"github.com/searchktools/evloop/core/pools"
	"github.com/searchktools/evloop/core/router"
	"github.com/searchktools/evloop/core/uri"
)

// Options configures a Server. Zero values select the package defaults.
type Options struct {
	Host string
	Port int

	Workers    int
	BufferSize int
	Backlog    int
	MaxEvents  int

	// PollTimeout bounds each readiness wait. BusyPoll replaces it with
	// non-blocking waits and a short randomized sleep when nothing is ready.
	PollTimeout time.Duration
	BusyPoll    bool
	BackoffMin  time.Duration
	BackoffMax  time.Duration

	HeaderMode http.HeaderMode

	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
	// Registerer receives the server's collectors when set.
	Registerer prometheus.Registerer
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}
	if o.Backlog <= 0 {
		o.Backlog = DefaultBacklog
	}
	if o.MaxEvents <= 0 {
		o.MaxEvents = DefaultMaxEvents
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = DefaultPollTimeout
	}
	if o.BackoffMin <= 0 {
		o.BackoffMin = DefaultBackoffMin
	}
	if o.BackoffMax < o.BackoffMin {
		o.BackoffMax = max(DefaultBackoffMax, o.BackoffMin)
	}
	return o
}

// Server is an HTTP/1.1 server driven by one acceptor and a fixed set of
// worker event loops.
type Server struct {
	opts    Options
	table   *router.Table
	chain   *middleware.Pipeline
	handler router.HandlerFunc
	log     zerolog.Logger
	metrics *Metrics
	pool    *pools.BytePool

	mu      sync.Mutex
	started bool
	stopped bool
	running atomic.Bool

	lfd     int
	port    int
	workers []*worker
	stats   []workerStats
	group   *errgroup.Group
}

// NewServer creates a server. Routes are registered before Start.
func NewServer(opts Options) *Server {
	opts = opts.withDefaults()
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "server").Logger()
	}
	return &Server{
		opts:    opts,
		table:   router.NewTable(),
		chain:   middleware.NewPipeline(),
		log:     log,
		metrics: NewMetrics(opts.Registerer),
		pool:    pools.NewBytePool(opts.BufferSize),
		lfd:     -1,
	}
}

// Register binds handler to (path, method). It fails once the server has
// started.
func (s *Server) Register(path string, method http.Method, handler router.HandlerFunc) error {
	if s.running.Load() {
		return ErrServerRunning
	}
	return s.table.Register(path, method, handler)
}

// RegisterURI is Register for a prebuilt URI.
func (s *Server) RegisterURI(u uri.URI, method http.Method, handler router.HandlerFunc) error {
	if s.running.Load() {
		return ErrServerRunning
	}
	return s.table.RegisterURI(u, method, handler)
}

// Use adds middleware around every route, including the 404 and 405
// answers. It fails once the server has started.
func (s *Server) Use(mws ...middleware.Middleware) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrServerRunning
	}
	s.chain.Use(mws...)
	return nil
}

func (s *Server) mustRegister(path string, method http.Method, handler router.HandlerFunc) {
	if err := s.Register(path, method, handler); err != nil {
		panic(fmt.Sprintf("register %s %s: %v", method, path, err))
	}
}

// GET registers a GET route
func (s *Server) GET(path string, handler router.HandlerFunc) {
	s.mustRegister(path, http.MethodGet, handler)
}

// HEAD registers a HEAD route
func (s *Server) HEAD(path string, handler router.HandlerFunc) {
	s.mustRegister(path, http.MethodHead, handler)
}

// POST registers a POST route
func (s *Server) POST(path string, handler router.HandlerFunc) {
	s.mustRegister(path, http.MethodPost, handler)
}

// PUT registers a PUT route
func (s *Server) PUT(path string, handler router.HandlerFunc) {
	s.mustRegister(path, http.MethodPut, handler)
}

// DELETE registers a DELETE route
func (s *Server) DELETE(path string, handler router.HandlerFunc) {
	s.mustRegister(path, http.MethodDelete, handler)
}

// PATCH registers a PATCH route
func (s *Server) PATCH(path string, handler router.HandlerFunc) {
	s.mustRegister(path, http.MethodPatch, handler)
}

// OPTIONS registers an OPTIONS route
func (s *Server) OPTIONS(path string, handler router.HandlerFunc) {
	s.mustRegister(path, http.MethodOptions, handler)
}

// Start binds the listening socket, creates one readiness queue per worker
// and launches the acceptor and worker goroutines. It returns once they are
// running.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrServerStopped
	}
	if s.started {
		return ErrServerRunning
	}

	lfd, err := listenSocket(s.opts.Host, s.opts.Port, s.opts.Backlog)
	if err != nil {
		return err
	}

	pollers := make([]poller.Poller, 0, s.opts.Workers)
	for i := 0; i < s.opts.Workers; i++ {
		p, err := poller.New(s.opts.MaxEvents)
		if err != nil {
			for _, p := range pollers {
				p.Close()
			}
			sysSocket{}.Close(lfd)
			return fmt.Errorf("create readiness queue %d: %w", i, err)
		}
		pollers = append(pollers, p)
	}

	s.table.Freeze()
	s.handler = s.chain.Then(s.table.Dispatch)
	s.lfd = lfd
	s.port = localPort(lfd)
	s.stats = make([]workerStats, s.opts.Workers)
	s.workers = make([]*worker, s.opts.Workers)
	for i, p := range pollers {
		s.workers[i] = s.newWorker(i, p)
	}

	acc := &acceptor{
		lfd:        lfd,
		workers:    s.workers,
		running:    &s.running,
		backoffMin: s.opts.BackoffMin,
		backoffMax: s.opts.BackoffMax,
		log:        s.log.With().Str("component", "acceptor").Logger(),
		metrics:    s.metrics,
	}

	s.running.Store(true)
	s.started = true
	loops := []func() error{acc.run}
	for _, w := range s.workers {
		loops = append(loops, w.run)
	}
	s.launch(loops)

	s.log.Info().
		Str("addr", s.Addr()).
		Int("workers", s.opts.Workers).
		Int("buffer_size", s.opts.BufferSize).
		Stringer("header_mode", s.opts.HeaderMode).
		Bool("busy_poll", s.opts.BusyPoll).
		Msg("server listening")
	return nil
}

// launch runs every loop in one group. The first loop to fail clears the
// running flag so the others wind down too.
func (s *Server) launch(loops []func() error) {
	g, ctx := errgroup.WithContext(context.Background())
	for _, loop := range loops {
		g.Go(loop)
	}
	go func() {
		<-ctx.Done()
		if s.running.CompareAndSwap(true, false) {
			s.log.Error().Err(context.Cause(ctx)).Msg("event loop failed, shutting down")
		}
	}()
	s.group = g
}

func (s *Server) newWorker(id int, p poller.Poller) *worker {
	log := s.log.With().Int("worker", id).Logger()
	return &worker{
		id:      id,
		poller:  p,
		sock:    sysSocket{},
		pool:    s.pool,
		running: &s.running,
		pipe: &pipeline{
			handler: s.handler,
			parser:  http.Parser{Mode: s.opts.HeaderMode},
			log:     log,
			metrics: s.metrics,
		},
		timeout:    s.opts.PollTimeout,
		busy:       s.opts.BusyPoll,
		backoffMin: s.opts.BackoffMin,
		backoffMax: s.opts.BackoffMax,
		log:        log,
		metrics:    s.metrics,
		active:     s.metrics.activeFor(id),
		stats:      &s.stats[id],
		conns:      make(map[int]*conn),
		events:     make([]poller.Event, s.opts.MaxEvents),
	}
}

// Stop signals every loop to exit, waits for them, then releases the
// readiness queues and the listening socket. Calling Stop more than once, or
// before Start, is a no-op.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.stopped {
		return nil
	}
	s.stopped = true
	s.running.Store(false)

	err := s.group.Wait()
	for _, w := range s.workers {
		if cerr := w.shutdown(); cerr != nil {
			s.log.Warn().Err(cerr).Int("worker", w.id).Msg("close readiness queue")
		}
	}
	if cerr := (sysSocket{}).Close(s.lfd); cerr != nil {
		s.log.Warn().Err(cerr).Msg("close listener")
	}
	s.log.Info().Uint64("requests", s.Stats().Totals().Requests).Msg("server stopped")
	return err
}

// Running reports whether the loops are live.
func (s *Server) Running() bool { return s.running.Load() }

// Port returns the bound port, which differs from Options.Port when that
// was zero. It is zero before Start.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Addr returns host:port of the listener.
func (s *Server) Addr() string {
	host := s.opts.Host
	if host == "" {
		host = "0.0.0.0"
	}
	return net.JoinHostPort(host, strconv.Itoa(s.port))
}

// Routes returns the number of registered paths.
func (s *Server) Routes() int { return s.table.Len() }

// Stats returns a snapshot of the per-worker counters.
func (s *Server) Stats() Stats {
	st := Stats{
		Running: s.running.Load(),
		Port:    s.port,
		Buffers: s.pool.Stats(),
	}
	for i := range s.stats {
		st.Workers = append(st.Workers, s.stats[i].snapshot(i))
	}
	return st
}
