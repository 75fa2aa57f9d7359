package headers

import (
	"github.com/indigo-web/utils/strcomp"
)

// Separator joins values merged by Append.
const Separator = "; "

type Header struct {
	Key, Value string
}

// Headers is an ordered list of (key, value) pairs. It acts as a map but uses linear search
// instead, which proves to be more efficient on relatively low amount of entries, which is
// always the case here. Keys are compared case-insensitively, the first match always wins.
type Headers struct {
	pairs []Header
}

func New() *Headers {
	return new(Headers)
}

// NewPrealloc returns an instance of Headers with pre-allocated underlying storage.
func NewPrealloc(n int) *Headers {
	return &Headers{
		pairs: make([]Header, 0, n),
	}
}

// Add appends a new pair even if the key is already presented. Used by the request
// parser, as requests may legally repeat header fields.
func (h *Headers) Add(key, value string) *Headers {
	h.pairs = append(h.pairs, Header{
		Key:   key,
		Value: value,
	})

	return h
}

// Set replaces the value of the first pair with the same key. If there's none, a new pair
// is appended, so the order of first appearance is preserved.
func (h *Headers) Set(key, value string) *Headers {
	if i := h.index(key); i != -1 {
		h.pairs[i].Value = value
		return h
	}

	return h.Add(key, value)
}

// Append extends the value of the first pair with the same key as "old; value". If the
// key isn't presented, nothing happens: Append never creates new pairs.
func (h *Headers) Append(key, value string) *Headers {
	if i := h.index(key); i != -1 {
		h.pairs[i].Value += Separator + value
	}

	return h
}

// Get returns a value and a bool, indicating whether the value was found. If it wasn't, it'll
// be an empty string.
func (h *Headers) Get(key string) (value string, found bool) {
	if i := h.index(key); i != -1 {
		return h.pairs[i].Value, true
	}

	return "", false
}

// Value returns the first value, corresponding to the key. Otherwise, empty string is returned
func (h *Headers) Value(key string) string {
	return h.ValueOr(key, "")
}

// ValueOr returns either the first value corresponding to the key or custom value, defined
// via the second parameter.
func (h *Headers) ValueOr(key, or string) string {
	value, found := h.Get(key)
	if !found {
		return or
	}

	return value
}

// Values returns all values by the key in the order of their appearance.
func (h *Headers) Values(key string) (values []string) {
	for _, pair := range h.pairs {
		if strcomp.EqualFold(pair.Key, key) {
			values = append(values, pair.Value)
		}
	}

	return values
}

// Has indicates, whether there's an entry of the key.
func (h *Headers) Has(key string) bool {
	return h.index(key) != -1
}

// Len returns the number of stored pairs, including repeated keys.
func (h *Headers) Len() int {
	return len(h.pairs)
}

// Unwrap returns the underlying pairs. The slice must not be modified.
func (h *Headers) Unwrap() []Header {
	return h.pairs
}

// Clear drops all the pairs, retaining the allocated storage.
func (h *Headers) Clear() {
	h.pairs = h.pairs[:0]
}

func (h *Headers) index(key string) int {
	for i, pair := range h.pairs {
		if strcomp.EqualFold(pair.Key, key) {
			return i
		}
	}

	return -1
}
