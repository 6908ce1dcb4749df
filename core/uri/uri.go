// Package uri holds the normalized request target used as a routing key.
package uri

// URI is a request target. Only the path is populated by the request parser;
// scheme, host and port are reserved for a fuller model and stay empty.
type URI struct {
	path   string
	scheme string
	host   string
	port   uint16
}

// New returns a URI whose path is lowercased (ASCII only, locale independent).
// Query strings are kept as part of the path.
func New(path string) URI {
	return URI{path: lower(path)}
}

// SetPath replaces the path, lowercasing it.
func (u *URI) SetPath(path string) {
	u.path = lower(path)
}

func (u URI) Path() string   { return u.path }
func (u URI) Scheme() string { return u.scheme }
func (u URI) Host() string   { return u.host }
func (u URI) Port() uint16   { return u.port }

// String returns the normalized path.
func (u URI) String() string { return u.path }

// Equal compares normalized paths.
func (u URI) Equal(other URI) bool { return u.path == other.path }

// Less orders URIs by normalized path.
func (u URI) Less(other URI) bool { return u.path < other.path }

// lower avoids the allocation when the path is already lowercase,
// which is the common case for routing keys.
func lower(s string) string {
	i := 0
	for ; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			break
		}
	}
	if i == len(s) {
		return s
	}

	b := []byte(s)
	for ; i < len(b); i++ {
		if c := b[i]; c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
