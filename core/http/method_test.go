package http

import (
	"errors"
	"testing"
)

func TestMethodString(t *testing.T) {
	if MethodGet.String() != "GET" {
		t.Errorf("expected GET, got %s", MethodGet)
	}
	if Method(200).String() != "" {
		t.Error("expected empty name for out-of-range method")
	}
}

func TestParseMethod(t *testing.T) {
	for _, m := range Methods {
		got, err := ParseMethod(m.String())
		if err != nil || got != m {
			t.Errorf("expected %s, got %s (%v)", m, got, err)
		}
	}
	if got, _ := ParseMethod("post"); got != MethodPost {
		t.Errorf("expected POST, got %s", got)
	}
	if _, err := ParseMethod("GETS"); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("expected ErrUnknownMethod, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	if HTTP11.String() != "HTTP/1.1" {
		t.Errorf("expected HTTP/1.1, got %s", HTTP11)
	}
	tests := map[string]Version{
		"HTTP/0.9": HTTP09,
		"http/1.0": HTTP10,
		"HTTP/1.1": HTTP11,
		"HTTP/2":   HTTP20,
		"Http/2.0": HTTP20,
	}
	for in, want := range tests {
		if got, err := ParseVersion(in); err != nil || got != want {
			t.Errorf("%s: expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseVersion("HTTP/1.2"); !errors.Is(err, ErrUnknownVersion) {
		t.Errorf("expected ErrUnknownVersion, got %v", err)
	}
}

func TestStatusReason(t *testing.T) {
	tests := map[StatusCode]string{
		StatusTeapot:                  "I'm a Teapot",
		StatusNoContent:               "No Content",
		StatusHTTPVersionNotSupported: "HTTP Version Not Supported",
		StatusCode(299):               "",
	}
	for code, want := range tests {
		if got := code.Reason(); got != want {
			t.Errorf("%d: expected %q, got %q", int(code), want, got)
		}
	}
}

func TestHeaderOrder(t *testing.T) {
	var h Header
	h.Set("B", "1")
	h.Set("A", "2")
	h.Set("B", "3")
	h.Set("C", "4")
	h.Del("A")

	var got []string
	h.Each(func(k, v string) { got = append(got, k+"="+v) })
	if len(got) != 2 || got[0] != "B=3" || got[1] != "C=4" {
		t.Errorf("expected [B=3 C=4], got %v", got)
	}
	if _, ok := h.Lookup("A"); ok {
		t.Error("expected A to be removed")
	}

	h.Reset()
	if h.Len() != 0 || h.Get("B") != "" {
		t.Error("expected empty header after Reset")
	}
}
