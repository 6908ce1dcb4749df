package http

import (
	"bytes"
	"fmt"
	"strconv"

	"golang.org/x/net/http/httpguts"

	"github.com/searchktools/evloop/core/uri"
)

var (
	crlf       = []byte("\r\n")
	headerEnd  = []byte("\r\n\r\n")
	colonSpace = []byte(": ")
)

// HeaderMode selects how header lines are tokenized.
type HeaderMode int

const (
	// HeaderStrip removes every whitespace byte from keys and values,
	// interior whitespace included. Lines without a colon are ignored.
	HeaderStrip HeaderMode = iota
	// HeaderRFC trims only leading and trailing whitespace from values and
	// rejects invalid field names or lines without a colon.
	HeaderRFC
)

func (m HeaderMode) String() string {
	if m == HeaderRFC {
		return "rfc"
	}
	return "strip"
}

// ParseHeaderMode accepts "strip" and "rfc".
func ParseHeaderMode(s string) (HeaderMode, error) {
	switch s {
	case "strip", "":
		return HeaderStrip, nil
	case "rfc":
		return HeaderRFC, nil
	}
	return 0, fmt.Errorf("unknown header mode %q", s)
}

// Parser turns request bytes into a Request. The zero value uses HeaderStrip.
type Parser struct {
	Mode HeaderMode
}

// ParseRequest parses data with the default header mode.
func ParseRequest(data []byte) (*Request, error) {
	return Parser{}.ParseRequest(data)
}

// ParseRequest parses one request. Everything after the blank line is the
// body, copied verbatim; no Content-Length truncation or chunked decoding.
// The returned request does not alias data.
func (p Parser) ParseRequest(data []byte) (*Request, error) {
	lineEnd := bytes.Index(data, crlf)
	if lineEnd == -1 {
		return nil, fmt.Errorf("%w: no line terminator", ErrMalformedStartLine)
	}

	tokens := bytes.Fields(data[:lineEnd])
	if len(tokens) != 3 {
		return nil, fmt.Errorf("%w: %q", ErrMalformedStartLine, data[:lineEnd])
	}

	method, err := ParseMethod(string(tokens[0]))
	if err != nil {
		return nil, err
	}
	version, err := ParseVersion(string(tokens[2]))
	if err != nil {
		return nil, err
	}
	if version != HTTP11 {
		return nil, wrapToken(ErrUnsupportedVersion, version.String())
	}

	req := &Request{
		message: message{version: version},
		method:  method,
		uri:     uri.New(string(tokens[1])),
	}

	// The header block starts after the request line; the blank-line
	// search starts at the request line's own CRLF so an empty block works.
	var block, body []byte
	if end := bytes.Index(data[lineEnd:], headerEnd); end == -1 {
		block = data[lineEnd+2:]
	} else {
		end += lineEnd
		if end > lineEnd {
			block = data[lineEnd+2 : end]
		}
		body = data[end+len(headerEnd):]
	}

	if err := p.parseHeaders(req, block); err != nil {
		return nil, err
	}
	if len(body) > 0 {
		req.body = append([]byte(nil), body...)
	}
	return req, nil
}

func (p Parser) parseHeaders(req *Request, block []byte) error {
	for len(block) > 0 {
		var line []byte
		if i := bytes.Index(block, crlf); i == -1 {
			line, block = block, nil
		} else {
			line, block = block[:i], block[i+2:]
		}
		if len(line) == 0 {
			continue
		}

		colon := bytes.IndexByte(line, ':')
		if p.Mode == HeaderRFC {
			if colon == -1 {
				return fmt.Errorf("%w: %q", ErrMalformedHeader, line)
			}
			key := string(line[:colon])
			value := string(bytes.TrimSpace(line[colon+1:]))
			if !httpguts.ValidHeaderFieldName(key) || !httpguts.ValidHeaderFieldValue(value) {
				return fmt.Errorf("%w: %q", ErrMalformedHeader, line)
			}
			req.headers.Set(key, value)
			continue
		}

		if colon == -1 {
			continue
		}
		key := stripSpace(line[:colon])
		if key == "" {
			continue
		}
		req.headers.Set(key, stripSpace(line[colon+1:]))
	}
	return nil
}

func stripSpace(b []byte) string {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n', '\v', '\f':
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

// ParseResponse is not supported: the server only produces responses.
func ParseResponse(data []byte) (*Response, error) {
	return nil, ErrNotImplemented
}

// SerializeResponse renders r. With includeBody false the body bytes are
// omitted but the headers, Content-Length included, are unchanged.
func SerializeResponse(r *Response, includeBody bool) []byte {
	return AppendResponse(nil, r, includeBody)
}

// AppendResponse appends the wire form of r to dst. Content-Length always
// carries the current body length: it is rewritten in place when present
// and appended after the other headers otherwise.
func AppendResponse(dst []byte, r *Response, includeBody bool) []byte {
	dst = append(dst, r.version.String()...)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(r.status), 10)
	dst = append(dst, ' ')
	dst = append(dst, r.status.Reason()...)
	dst = append(dst, crlf...)

	sawLength := false
	for _, k := range r.headers.keys {
		v := r.headers.values[k]
		if k == HeaderContentLength {
			sawLength = true
			v = strconv.Itoa(len(r.body))
		}
		dst = appendHeader(dst, k, v)
	}
	if !sawLength {
		dst = appendHeader(dst, HeaderContentLength, strconv.Itoa(len(r.body)))
	}
	dst = append(dst, crlf...)

	if includeBody {
		dst = append(dst, r.body...)
	}
	return dst
}

// SerializeRequest renders r as-is. It is meant for building requests in
// clients and tests, not for the serving path.
func SerializeRequest(r *Request) []byte {
	dst := make([]byte, 0, 64+len(r.body))
	dst = append(dst, r.method.String()...)
	dst = append(dst, ' ')
	dst = append(dst, r.uri.Path()...)
	dst = append(dst, ' ')
	dst = append(dst, r.version.String()...)
	dst = append(dst, crlf...)
	r.headers.Each(func(k, v string) {
		dst = appendHeader(dst, k, v)
	})
	dst = append(dst, crlf...)
	return append(dst, r.body...)
}

func appendHeader(dst []byte, key, value string) []byte {
	dst = append(dst, key...)
	dst = append(dst, colonSpace...)
	dst = append(dst, value...)
	return append(dst, crlf...)
}

// RequestComplete reports whether data holds the full header block and, when
// a Content-Length header is declared, at least that many body bytes.
func RequestComplete(data []byte) bool {
	end := bytes.Index(data, headerEnd)
	if end == -1 {
		return false
	}
	want := declaredLength(data[:end])
	return len(data)-(end+len(headerEnd)) >= want
}

// declaredLength scans raw header lines for Content-Length, ignoring case and
// whitespace. Unparseable values count as zero.
func declaredLength(head []byte) int {
	const name = "content-length"
	for len(head) > 0 {
		var line []byte
		if i := bytes.Index(head, crlf); i == -1 {
			line, head = head, nil
		} else {
			line, head = head[:i], head[i+2:]
		}
		colon := bytes.IndexByte(line, ':')
		if colon == -1 || !bytes.EqualFold(bytes.TrimSpace(line[:colon]), []byte(name)) {
			continue
		}
		n, err := strconv.Atoi(string(bytes.TrimSpace(line[colon+1:])))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	return 0
}
