package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/searchktools/evloop/config"
	"github.com/searchktools/evloop/core"
	"github.com/searchktools/evloop/core/http"
	"github.com/searchktools/evloop/core/middleware"
)

// App wires configuration, logging, metrics and the server together.
type App struct {
	cfg      *config.Config
	server   *core.Server
	log      zerolog.Logger
	registry *prometheus.Registry

	metricsLn  net.Listener
	metricsSrv *fasthttp.Server
}

// New creates an application instance logging to stderr.
func New(cfg *config.Config) (*App, error) {
	log, err := NewLogger(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	return NewWithLogger(cfg, log)
}

// NewWithLogger creates an application instance with a pre-built logger.
func NewWithLogger(cfg *config.Config, log zerolog.Logger) (*App, error) {
	opts, err := serverOptions(cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	opts.Logger = &log
	opts.Registerer = reg

	server := core.NewServer(opts)
	if err := server.Use(middleware.AccessLog(log)); err != nil {
		return nil, err
	}
	return &App{
		cfg:      cfg,
		server:   server,
		log:      log,
		registry: reg,
	}, nil
}

func serverOptions(cfg *config.Config) (core.Options, error) {
	if err := cfg.Validate(); err != nil {
		return core.Options{}, err
	}
	mode, err := http.ParseHeaderMode(cfg.HeaderMode)
	if err != nil {
		return core.Options{}, err
	}
	return core.Options{
		Host:        cfg.Host,
		Port:        cfg.Port,
		Workers:     cfg.Workers,
		BufferSize:  cfg.BufferSize,
		Backlog:     cfg.Backlog,
		MaxEvents:   cfg.MaxEvents,
		PollTimeout: cfg.PollTimeout,
		BusyPoll:    cfg.PollTimeout == 0,
		BackoffMin:  cfg.BackoffMin,
		BackoffMax:  cfg.BackoffMax,
		HeaderMode:  mode,
	}, nil
}

// Server returns the underlying server for route registration
func (a *App) Server() *core.Server {
	return a.server
}

// Logger returns the application logger.
func (a *App) Logger() zerolog.Logger {
	return a.log
}

// Start starts the server and, when configured, the metrics endpoint.
func (a *App) Start() error {
	if err := a.server.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	if a.cfg.MetricsAddr == "" {
		return nil
	}

	ln, err := net.Listen("tcp", a.cfg.MetricsAddr)
	if err != nil {
		a.server.Stop()
		return fmt.Errorf("metrics listener: %w", err)
	}
	a.metricsLn = ln
	a.metricsSrv = &fasthttp.Server{
		Name:    "evloop-metrics",
		Handler: fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})),
	}
	go func() {
		if err := a.metricsSrv.Serve(ln); err != nil {
			a.log.Error().Err(err).Msg("metrics endpoint stopped")
		}
	}()
	a.log.Info().Str("addr", ln.Addr().String()).Msg("metrics endpoint listening")
	return nil
}

// MetricsAddr returns the bound metrics address, or "" when disabled.
func (a *App) MetricsAddr() string {
	if a.metricsLn == nil {
		return ""
	}
	return a.metricsLn.Addr().String()
}

// Stop stops the metrics endpoint and the server.
func (a *App) Stop() error {
	if a.metricsSrv != nil {
		if err := a.metricsSrv.Shutdown(); err != nil {
			a.log.Warn().Err(err).Msg("metrics shutdown")
		}
		a.metricsSrv = nil
	}
	err := a.server.Stop()
	a.log.Debug().Msg(a.server.Stats().Text())
	return err
}

// Run starts the application and blocks until SIGINT, SIGTERM or a "quit"
// line on stdin.
func (a *App) Run() error {
	return a.RunContext(context.Background(), os.Stdin)
}

// RunContext is Run with an explicit context and command input.
func (a *App) RunContext(ctx context.Context, in io.Reader) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Start(); err != nil {
		return err
	}
	a.log.Info().
		Int("port", a.server.Port()).
		Int("routes", a.server.Routes()).
		Msg("type \"quit\" or press Ctrl-C to stop")

	quit := make(chan struct{})
	if in != nil {
		go awaitQuit(in, quit)
	}

	select {
	case <-ctx.Done():
		a.log.Info().Msg("signal received, shutting down")
	case <-quit:
		a.log.Info().Msg("quit requested, shutting down")
	}
	return a.Stop()
}

func awaitQuit(in io.Reader, quit chan<- struct{}) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if strings.EqualFold(strings.TrimSpace(sc.Text()), "quit") {
			close(quit)
			return
		}
	}
}
