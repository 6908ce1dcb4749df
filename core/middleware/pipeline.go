package middleware

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/searchktools/evloop/core/http"
	"github.com/searchktools/evloop/core/router"
)

// Middleware wraps a handler. It may short-circuit by not calling next.
type Middleware func(next router.HandlerFunc) router.HandlerFunc

// Pipeline is an ordered middleware list
type Pipeline struct {
	middlewares []Middleware
}

// NewPipeline creates a new middleware pipeline
func NewPipeline(mws ...Middleware) *Pipeline {
	return &Pipeline{middlewares: append(make([]Middleware, 0, len(mws)), mws...)}
}

// Use appends middlewares; the first one added runs outermost.
func (p *Pipeline) Use(mws ...Middleware) *Pipeline {
	p.middlewares = append(p.middlewares, mws...)
	return p
}

// Len returns the number of middlewares.
func (p *Pipeline) Len() int { return len(p.middlewares) }

// Then returns final wrapped by every middleware. The chain is built once;
// later Use calls do not affect it.
func (p *Pipeline) Then(final router.HandlerFunc) router.HandlerFunc {
	h := final
	for i := len(p.middlewares) - 1; i >= 0; i-- {
		h = p.middlewares[i](h)
	}
	return h
}

// AccessLog logs one debug line per request.
func AccessLog(log zerolog.Logger) Middleware {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(req *http.Request) *http.Response {
			start := time.Now()
			resp := next(req)
			ev := log.Debug().
				Str("method", req.Method().String()).
				Str("path", req.Path()).
				Dur("took", time.Since(start))
			if resp != nil {
				ev = ev.Int("status", int(resp.Status())).Int("bytes", resp.ContentLength())
			}
			ev.Msg("request")
			return resp
		}
	}
}

// CORS adds permissive CORS headers and answers OPTIONS preflight requests
// with 204 without reaching the route.
func CORS() Middleware {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(req *http.Request) *http.Response {
			var resp *http.Response
			if req.Method() == http.MethodOptions && req.Header("Access-Control-Request-Method") != "" {
				resp = http.NewResponse(http.StatusNoContent)
			} else if resp = next(req); resp == nil {
				return nil
			}
			resp.SetHeader("Access-Control-Allow-Origin", "*")
			resp.SetHeader("Access-Control-Allow-Methods", "GET, HEAD, POST, PUT, DELETE, PATCH, OPTIONS")
			resp.SetHeader("Access-Control-Allow-Headers", "Content-Type, Authorization")
			return resp
		}
	}
}

// RequestID stamps each response with a sequential X-Request-ID.
func RequestID() Middleware {
	var counter atomic.Uint64
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(req *http.Request) *http.Response {
			resp := next(req)
			if resp != nil {
				resp.SetHeader("X-Request-ID", strconv.FormatUint(counter.Add(1), 10))
			}
			return resp
		}
	}
}

// ServerHeader sets the Server response header.
func ServerHeader(name string) Middleware {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(req *http.Request) *http.Response {
			resp := next(req)
			if resp != nil {
				resp.SetHeader("Server", name)
			}
			return resp
		}
	}
}
