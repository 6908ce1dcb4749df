/*
Package evloop provides an HTTP/1.1 server built directly on non-blocking
sockets and readiness notification (epoll on Linux, kqueue on macOS).

One acceptor goroutine drains the listening socket and deals connections to a
fixed set of worker event loops in strict rotation. Each worker owns its own
readiness queue and the records of the connections assigned to it, and drives
every connection through a two-state cycle: read until a complete request is
buffered, then write the response, resuming partial sends where they stopped.

# Features

  - One readiness queue per worker, one-shot arming, no shared connection state
  - Partial reads and partial writes handled without blocking
  - Exact-path routing with 404 for unknown paths and 405 for unknown methods
  - Case-insensitive paths: every path is lowercased before routing
  - Structured logging (zerolog), Prometheus metrics, per-worker statistics
  - Configuration from flags, EVLOOP_* environment variables and JSON files

# Quick Start

Basic usage example:

	package main

	import (
		"github.com/searchktools/evloop/app"
		"github.com/searchktools/evloop/config"
		"github.com/searchktools/evloop/core/http"
	)

	func main() {
		cfg := config.New()
		application, err := app.New(cfg)
		if err != nil {
			panic(err)
		}

		server := application.Server()
		server.GET("/hello", func(req *http.Request) *http.Response {
			resp := http.NewResponse(http.StatusOK)
			resp.SetHeader("Content-Type", "text/plain")
			resp.SetBodyString("Hello, world\n")
			return resp
		})

		application.Run()
	}

# Modules

The module is organized into several packages:

  - app: Application lifecycle, logging setup, metrics endpoint, stats handler
  - config: Configuration loading and management
  - core: Server, acceptor and worker event loops
  - core/http: HTTP/1.1 message types, parser and serializer
  - core/uri: Normalized request paths
  - core/router: Route table keyed by path and method
  - core/middleware: Handler middleware
  - core/pools: Connection buffer pool
  - core/poller: Readiness notification (epoll/kqueue)

# Limits

Requests must fit in one connection buffer (buffer-size, 4096 bytes by
default); a request that fills the buffer is processed as received. There is
no TLS, HTTP/2 framing or chunked transfer encoding.
*/
package evloop
