package http

// Header is a header map that iterates in insertion order. Keys are
// case-sensitive and stored exactly as given.
type Header struct {
	keys   []string
	values map[string]string
}

// Set stores value under key. Replacing an existing key keeps its position.
func (h *Header) Set(key, value string) {
	if h.values == nil {
		h.values = make(map[string]string, 8)
	}
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = value
}

// Get returns the value for key, or "" when absent.
func (h *Header) Get(key string) string { return h.values[key] }

// Lookup reports whether key is present along with its value.
func (h *Header) Lookup(key string) (string, bool) {
	v, ok := h.values[key]
	return v, ok
}

// Del removes key if present.
func (h *Header) Del(key string) {
	if _, ok := h.values[key]; !ok {
		return
	}
	delete(h.values, key)
	for i, k := range h.keys {
		if k == key {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
}

// Reset removes every header.
func (h *Header) Reset() {
	h.keys = h.keys[:0]
	clear(h.values)
}

func (h *Header) Len() int { return len(h.keys) }

// Keys returns the keys in insertion order.
func (h *Header) Keys() []string {
	return append([]string(nil), h.keys...)
}

// Each calls fn for every header in insertion order.
func (h *Header) Each(fn func(key, value string)) {
	for _, k := range h.keys {
		fn(k, h.values[k])
	}
}
