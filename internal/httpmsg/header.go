package httpmsg

import "sort"

// ResponseHeader preserves insertion case (spec §3: "preserved case on
// wire") while still supporting case-insensitive Set/Get, the same split
// the teacher's hdr.Header achieves via CanonicalHeaderKey — except here
// we track original casing explicitly instead of canonicalizing to
// Title-Case, since CGI scripts and error pages both set headers with
// their own casing that must survive untouched.
type ResponseHeader struct {
	order []string          // lowercase keys, insertion order
	cased map[string]string // lowercase -> as-set casing
	value map[string]string
}

func NewResponseHeader() *ResponseHeader {
	return &ResponseHeader{
		cased: make(map[string]string),
		value: make(map[string]string),
	}
}

func (h *ResponseHeader) Set(name, value string) {
	lower := toLowerASCII(name)
	if _, exists := h.value[lower]; !exists {
		h.order = append(h.order, lower)
	}
	h.cased[lower] = name
	h.value[lower] = value
}

func (h *ResponseHeader) Get(name string) (string, bool) {
	v, ok := h.value[toLowerASCII(name)]
	return v, ok
}

func (h *ResponseHeader) Del(name string) {
	lower := toLowerASCII(name)
	if _, ok := h.value[lower]; !ok {
		return
	}
	delete(h.value, lower)
	delete(h.cased, lower)
	for i, k := range h.order {
		if k == lower {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Keys returns header names in insertion order, with their original
// casing, for deterministic wire output.
func (h *ResponseHeader) Keys() []string {
	out := make([]string, len(h.order))
	for i, lower := range h.order {
		out[i] = h.cased[lower]
	}
	return out
}

// SortedKeys returns header names case-preserved but alphabetically by
// lowercase key, matching the teacher's WriteSubset sort-before-write
// behavior, for callers that need deterministic order regardless of
// insertion order. Encode does not use it; wire order is Keys() order.
func (h *ResponseHeader) SortedKeys() []string {
	keys := append([]string(nil), h.order...)
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, lower := range keys {
		out[i] = h.cased[lower]
	}
	return out
}

func toLowerASCII(s string) string {
	b := []byte(s)
	changed := false
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(b)
}
