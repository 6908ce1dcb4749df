package http

import (
	"errors"
	"fmt"
)

// Codec errors. Parse failures wrap one of these with the offending token.
var (
	ErrMalformedStartLine = errors.New("malformed start line")
	ErrUnknownMethod      = errors.New("unknown method")
	ErrUnknownVersion     = errors.New("unknown version")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrMalformedHeader    = errors.New("malformed header")
	ErrNotImplemented     = errors.New("not implemented")
)

func wrapToken(err error, token string) error {
	return fmt.Errorf("%w: %q", err, token)
}
