package middleware

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/searchktools/evloop/core/http"
	"github.com/searchktools/evloop/core/router"
)

func ok(*http.Request) *http.Response {
	resp := http.NewResponse(http.StatusOK)
	resp.SetBodyString("ok")
	return resp
}

func TestPipelineOrder(t *testing.T) {
	var trace []string
	mark := func(name string) Middleware {
		return func(next router.HandlerFunc) router.HandlerFunc {
			return func(req *http.Request) *http.Response {
				trace = append(trace, name+">")
				resp := next(req)
				trace = append(trace, "<"+name)
				return resp
			}
		}
	}

	p := NewPipeline(mark("a")).Use(mark("b"))
	if p.Len() != 2 {
		t.Fatalf("expected 2 middlewares, got %d", p.Len())
	}
	h := p.Then(func(req *http.Request) *http.Response {
		trace = append(trace, "handler")
		return ok(req)
	})
	p.Use(mark("late"))

	h(http.NewRequest(http.MethodGet, "/"))
	if got := strings.Join(trace, " "); got != "a> b> handler <b <a" {
		t.Errorf("unexpected order %q", got)
	}
}

func TestPipelineShortCircuit(t *testing.T) {
	deny := func(next router.HandlerFunc) router.HandlerFunc {
		return func(*http.Request) *http.Response {
			return http.NewResponse(http.StatusForbidden)
		}
	}
	reached := false
	h := NewPipeline(deny).Then(func(req *http.Request) *http.Response {
		reached = true
		return ok(req)
	})

	if resp := h(http.NewRequest(http.MethodGet, "/")); resp.Status() != http.StatusForbidden {
		t.Errorf("expected 403, got %d", resp.Status())
	}
	if reached {
		t.Error("handler should not run after a short circuit")
	}
}

func TestEmptyPipeline(t *testing.T) {
	h := NewPipeline().Then(ok)
	if resp := h(http.NewRequest(http.MethodGet, "/")); string(resp.Body()) != "ok" {
		t.Errorf("expected passthrough, got %q", resp.Body())
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	h := NewPipeline(AccessLog(log)).Then(ok)
	h(http.NewRequest(http.MethodGet, "/Logged"))

	out := buf.String()
	for _, want := range []string{`"method":"GET"`, `"path":"/logged"`, `"status":200`, `"bytes":2`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestCORS(t *testing.T) {
	h := NewPipeline(CORS()).Then(ok)

	resp := h(http.NewRequest(http.MethodGet, "/"))
	if resp.Status() != http.StatusOK || resp.Header("Access-Control-Allow-Origin") != "*" {
		t.Errorf("expected CORS headers on normal response, got %d", resp.Status())
	}

	preflight := http.NewRequest(http.MethodOptions, "/")
	preflight.SetHeader("Access-Control-Request-Method", "POST")
	resp = h(preflight)
	if resp.Status() != http.StatusNoContent || resp.Header("Access-Control-Allow-Methods") == "" {
		t.Errorf("expected 204 preflight, got %d", resp.Status())
	}

	if h := NewPipeline(CORS()).Then(func(*http.Request) *http.Response { return nil }); h(http.NewRequest(http.MethodGet, "/")) != nil {
		t.Error("expected nil to pass through")
	}
}

func TestRequestIDAndServerHeader(t *testing.T) {
	h := NewPipeline(RequestID(), ServerHeader("evloop")).Then(ok)

	for i, want := range []string{"1", "2"} {
		resp := h(http.NewRequest(http.MethodGet, "/"))
		if got := resp.Header("X-Request-ID"); got != want {
			t.Errorf("request %d: expected id %s, got %s", i, want, got)
		}
		if resp.Header("Server") != "evloop" {
			t.Errorf("expected Server header, got %q", resp.Header("Server"))
		}
	}
}
