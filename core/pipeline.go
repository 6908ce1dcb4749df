package core

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/net/http/httpguts"

	"github.com/searchktools/evloop/core/http"
	"github.com/searchktools/evloop/core/router"
)

// pipeline turns the bytes of one complete request into response bytes:
// parse, dispatch, serialize. handler is the route table wrapped in the
// server's middleware.
type pipeline struct {
	handler router.HandlerFunc
	parser  http.Parser
	log     zerolog.Logger
	metrics *Metrics
}

// handle appends the serialized response for raw to dst. closeAfter is set
// when the client asked for the connection to be closed.
func (p *pipeline) handle(raw, dst []byte) (out []byte, closeAfter bool) {
	resp, head, closeAfter := p.respond(raw)
	p.metrics.requests.WithLabelValues(strconv.Itoa(int(resp.Status()))).Inc()
	return http.AppendResponse(dst, resp, !head), closeAfter
}

func (p *pipeline) respond(raw []byte) (resp *http.Response, head, closeAfter bool) {
	req, err := p.parser.ParseRequest(raw)
	if err != nil {
		p.log.Debug().Err(err).Msg("rejecting request")
		return errorResponse(err), false, false
	}
	head = req.Method() == http.MethodHead
	closeAfter = httpguts.HeaderValuesContainsToken([]string{req.Header(http.HeaderConnection)}, "close")
	return p.dispatch(req), head, closeAfter
}

// dispatch runs the handler. A panic or a nil response becomes a 500 so the
// worker loop survives.
func (p *pipeline) dispatch(req *http.Request) (resp *http.Response) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().
				Str("method", req.Method().String()).
				Str("path", req.Path()).
				Interface("panic", r).
				Msg("handler panicked")
			resp = textResponse(http.StatusInternalServerError, fmt.Sprint(r))
		}
	}()

	resp = p.handler(req)
	if resp == nil {
		p.log.Error().Str("path", req.Path()).Msg("handler returned no response")
		resp = textResponse(http.StatusInternalServerError, "handler returned no response")
	}
	return resp
}

func errorResponse(err error) *http.Response {
	switch {
	case errors.Is(err, http.ErrUnsupportedVersion):
		return textResponse(http.StatusHTTPVersionNotSupported, err.Error())
	case errors.Is(err, http.ErrMalformedStartLine),
		errors.Is(err, http.ErrUnknownMethod),
		errors.Is(err, http.ErrUnknownVersion),
		errors.Is(err, http.ErrMalformedHeader):
		return textResponse(http.StatusBadRequest, err.Error())
	}
	return textResponse(http.StatusInternalServerError, err.Error())
}

func textResponse(status http.StatusCode, body string) *http.Response {
	resp := http.NewResponse(status)
	resp.SetHeader(http.HeaderContentType, "text/plain")
	resp.SetBodyString(body)
	return resp
}
