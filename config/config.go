package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/searchktools/evloop/core/http"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "EVLOOP"

// Config holds all application configuration.
type Config struct {
	Host        string        `config:"host"`
	Port        int           `config:"port"`
	Workers     int           `config:"workers"`
	BufferSize  int           `config:"buffer.size"`
	Backlog     int           `config:"backlog"`
	MaxEvents   int           `config:"max.events"`
	PollTimeout time.Duration `config:"poll.timeout"`
	BackoffMin  time.Duration `config:"backoff.min"`
	BackoffMax  time.Duration `config:"backoff.max"`
	HeaderMode  string        `config:"header.mode"`
	LogLevel    string        `config:"log.level"`
	Env         string        `config:"env"`
	MetricsAddr string        `config:"metrics.addr"`
	File        string        `config:"config"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Host:        "0.0.0.0",
		Port:        8080,
		Workers:     5,
		BufferSize:  4096,
		Backlog:     1000,
		MaxEvents:   10000,
		PollTimeout: 10 * time.Millisecond,
		BackoffMin:  10 * time.Microsecond,
		BackoffMax:  100 * time.Microsecond,
		HeaderMode:  "strip",
		LogLevel:    "info",
		Env:         "development",
	}
}

// New loads configuration from the command line, exiting on bad input the
// way flag.Parse does.
func New() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs := Default().FlagSet(os.Stderr)
			fs.Usage()
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return cfg
}

// Load builds a Config from defaults, then the JSON file named by -config or
// EVLOOP_CONFIG, then EVLOOP_* environment variables, then the flags
// explicitly present in args.
func Load(args []string) (*Config, error) {
	// first pass only finds the config file and rejects bad flags
	probe := Default()
	fs := probe.FlagSet(io.Discard)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	m := NewManager()
	path := probe.File
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		if err := m.LoadFromJSON(path); err != nil {
			return nil, err
		}
	}
	m.LoadFromEnv(EnvPrefix)

	cfg := Default()
	if err := m.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	if err := cfg.FlagSet(io.Discard).Parse(args); err != nil {
		return nil, err
	}
	if cfg.File == "" {
		cfg.File = path
	}
	return cfg, cfg.Validate()
}

// FlagSet binds every field to a flag whose default is the field's current
// value, so parsing only overrides flags that are present.
func (c *Config) FlagSet(output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("evloop", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&c.Host, "host", c.Host, "IPv4 address to listen on")
	fs.IntVar(&c.Port, "port", c.Port, "HTTP server port (0 picks a free port)")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Number of worker event loops")
	fs.IntVar(&c.BufferSize, "buffer-size", c.BufferSize, "Per-connection buffer size (bytes)")
	fs.IntVar(&c.Backlog, "backlog", c.Backlog, "Listen backlog")
	fs.IntVar(&c.MaxEvents, "max-events", c.MaxEvents, "Readiness events fetched per wait")
	fs.DurationVar(&c.PollTimeout, "poll-timeout", c.PollTimeout, "Readiness wait timeout (0 polls and backs off)")
	fs.DurationVar(&c.BackoffMin, "backoff-min", c.BackoffMin, "Minimum idle backoff")
	fs.DurationVar(&c.BackoffMax, "backoff-max", c.BackoffMax, "Maximum idle backoff")
	fs.StringVar(&c.HeaderMode, "header-mode", c.HeaderMode, "Header whitespace handling (strip/rfc)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug/info/warn/error)")
	fs.StringVar(&c.Env, "env", c.Env, "Environment (development/production)")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Address for the Prometheus endpoint (empty disables it)")
	fs.StringVar(&c.File, "config", c.File, "JSON configuration file")
	return fs
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("port %d out of range", c.Port)
	case c.Workers <= 0:
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	case c.BufferSize <= 0:
		return fmt.Errorf("buffer-size must be positive, got %d", c.BufferSize)
	case c.Backlog <= 0:
		return fmt.Errorf("backlog must be positive, got %d", c.Backlog)
	case c.MaxEvents <= 0:
		return fmt.Errorf("max-events must be positive, got %d", c.MaxEvents)
	case c.PollTimeout < 0:
		return fmt.Errorf("poll-timeout must not be negative, got %s", c.PollTimeout)
	case c.BackoffMin > c.BackoffMax:
		return fmt.Errorf("backoff-min %s exceeds backoff-max %s", c.BackoffMin, c.BackoffMax)
	}
	if _, err := http.ParseHeaderMode(c.HeaderMode); err != nil {
		return err
	}
	return nil
}

// Production reports whether Env selects production behaviour.
func (c *Config) Production() bool { return c.Env == "production" }
