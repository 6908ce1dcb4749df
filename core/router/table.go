package router

import (
	"errors"
	"sync/atomic"

	"github.com/searchktools/evloop/core/http"
	"github.com/searchktools/evloop/core/uri"
)

var (
	ErrTableFrozen = errors.New("route table is frozen")
	ErrNilHandler  = errors.New("nil handler")
)

// HandlerFunc serves one parsed request.
type HandlerFunc func(req *http.Request) *http.Response

// Table maps a normalized path to per-method handlers. It is filled before
// the server starts and only read afterwards, so lookups take no lock.
type Table struct {
	routes map[string]map[http.Method]HandlerFunc
	frozen atomic.Bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{routes: make(map[string]map[http.Method]HandlerFunc, 16)}
}

// Register binds handler to (path, method). The path is lowercased.
// Registering the same pair again replaces the handler.
func (t *Table) Register(path string, method http.Method, handler HandlerFunc) error {
	return t.RegisterURI(uri.New(path), method, handler)
}

// RegisterURI is Register for an already-built URI.
func (t *Table) RegisterURI(u uri.URI, method http.Method, handler HandlerFunc) error {
	if t.frozen.Load() {
		return ErrTableFrozen
	}
	if handler == nil {
		return ErrNilHandler
	}

	methods, ok := t.routes[u.Path()]
	if !ok {
		methods = make(map[http.Method]HandlerFunc, 2)
		t.routes[u.Path()] = methods
	}
	methods[method] = handler
	return nil
}

// Freeze rejects further registrations.
func (t *Table) Freeze() { t.frozen.Store(true) }

// Lookup returns the handler for (u, method). pathKnown reports whether any
// method is registered for the path.
func (t *Table) Lookup(u uri.URI, method http.Method) (h HandlerFunc, pathKnown bool) {
	methods, ok := t.routes[u.Path()]
	if !ok {
		return nil, false
	}
	return methods[method], true
}

// Dispatch resolves req and runs its handler. Unknown paths get 404 and
// known paths with an unregistered method get 405, both without a body.
// A handler's response is returned unmodified.
func (t *Table) Dispatch(req *http.Request) *http.Response {
	h, known := t.Lookup(req.URI(), req.Method())
	switch {
	case !known:
		return http.NewResponse(http.StatusNotFound)
	case h == nil:
		return http.NewResponse(http.StatusMethodNotAllowed)
	}
	return h(req)
}

// Len returns the number of registered paths.
func (t *Table) Len() int { return len(t.routes) }
