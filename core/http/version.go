package http

import "strings"

// Version is an HTTP protocol version. The numeric value is major*10+minor.
type Version int

const (
	HTTP09 Version = 9
	HTTP10 Version = 10
	HTTP11 Version = 11
	HTTP20 Version = 20
)

func (v Version) String() string {
	switch v {
	case HTTP09:
		return "HTTP/0.9"
	case HTTP10:
		return "HTTP/1.0"
	case HTTP11:
		return "HTTP/1.1"
	case HTTP20:
		return "HTTP/2.0"
	default:
		return ""
	}
}

// ParseVersion recognizes HTTP/0.9, HTTP/1.0, HTTP/1.1, HTTP/2 and HTTP/2.0,
// ignoring case.
func ParseVersion(s string) (Version, error) {
	switch strings.ToUpper(s) {
	case "HTTP/0.9":
		return HTTP09, nil
	case "HTTP/1.0":
		return HTTP10, nil
	case "HTTP/1.1":
		return HTTP11, nil
	case "HTTP/2", "HTTP/2.0":
		return HTTP20, nil
	}
	return 0, wrapToken(ErrUnknownVersion, s)
}
