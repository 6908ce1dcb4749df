package http

import "strings"

// Method is one of the request methods the server understands.
type Method uint8

const (
	MethodGet Method = iota
	MethodHead
	MethodPost
	MethodPut
	MethodDelete
	MethodConnect
	MethodOptions
	MethodTrace
	MethodPatch
)

var methodNames = [...]string{
	MethodGet:     "GET",
	MethodHead:    "HEAD",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodDelete:  "DELETE",
	MethodConnect: "CONNECT",
	MethodOptions: "OPTIONS",
	MethodTrace:   "TRACE",
	MethodPatch:   "PATCH",
}

// Methods lists every supported method in declaration order.
var Methods = []Method{
	MethodGet, MethodHead, MethodPost, MethodPut, MethodDelete,
	MethodConnect, MethodOptions, MethodTrace, MethodPatch,
}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return ""
}

// ParseMethod matches s case-insensitively against the supported methods.
func ParseMethod(s string) (Method, error) {
	for i, name := range methodNames {
		if len(name) == len(s) && strings.EqualFold(name, s) {
			return Method(i), nil
		}
	}
	return 0, wrapToken(ErrUnknownMethod, s)
}
