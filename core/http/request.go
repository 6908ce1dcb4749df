package http

import (
	"strconv"

	"github.com/searchktools/evloop/core/uri"
)

// message is the state shared by requests and responses.
type message struct {
	version Version
	headers Header
	body    []byte
}

func (m *message) Version() Version { return m.version }

func (m *message) SetHeader(key, value string) { m.headers.Set(key, value) }

func (m *message) RemoveHeader(key string) { m.headers.Del(key) }

func (m *message) ClearHeaders() { m.headers.Reset() }

// Header returns the value stored under key, or "".
func (m *message) Header(key string) string { return m.headers.Get(key) }

// Headers exposes the live header map.
func (m *message) Headers() *Header { return &m.headers }

// SetBody replaces the body and recomputes Content-Length.
func (m *message) SetBody(body []byte) {
	m.body = body
	m.syncContentLength()
}

// SetBodyString is SetBody for string content.
func (m *message) SetBodyString(body string) {
	m.SetBody([]byte(body))
}

// ClearBody empties the body and sets Content-Length to 0.
func (m *message) ClearBody() {
	m.body = nil
	m.syncContentLength()
}

func (m *message) Body() []byte { return m.body }

func (m *message) ContentLength() int { return len(m.body) }

func (m *message) syncContentLength() {
	m.headers.Set(HeaderContentLength, strconv.Itoa(len(m.body)))
}

// Request is a parsed or constructed HTTP request.
type Request struct {
	message
	method Method
	uri    uri.URI
}

// NewRequest builds an HTTP/1.1 request for path.
func NewRequest(method Method, path string) *Request {
	return &Request{
		message: message{version: HTTP11},
		method:  method,
		uri:     uri.New(path),
	}
}

func (r *Request) Method() Method       { return r.method }
func (r *Request) SetMethod(m Method)   { r.method = m }
func (r *Request) URI() uri.URI         { return r.uri }
func (r *Request) SetURI(u uri.URI)     { r.uri = u }
func (r *Request) SetVersion(v Version) { r.version = v }
func (r *Request) Path() string         { return r.uri.Path() }

// Response is an HTTP/1.1 response.
type Response struct {
	message
	status StatusCode
}

// NewResponse returns an HTTP/1.1 response with the given status and no body.
func NewResponse(status StatusCode) *Response {
	return &Response{
		message: message{version: HTTP11},
		status:  status,
	}
}

func (r *Response) Status() StatusCode          { return r.status }
func (r *Response) SetStatus(status StatusCode) { r.status = status }

// Header names used by the codec and the engine.
const (
	HeaderContentType   = "Content-Type"
	HeaderContentLength = "Content-Length"
	HeaderConnection    = "Connection"
)
