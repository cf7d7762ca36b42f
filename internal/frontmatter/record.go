// Package frontmatter implements the multi-source metadata merge pipeline:
// ordered key→value records, the precedence merge with tags union, preset
// default extraction, and the YAML block codec.
package frontmatter

// Record is an insertion-ordered mapping from string keys to values.
// Values are strings, string sequences, or other scalars. The zero value
// is not usable; construct with NewRecord.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// Set stores value under key. A new key is appended to the ordering;
// an existing key keeps its position.
func (r *Record) Set(key string, value any) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value for key and whether it is present.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Delete removes key and its position in the ordering. Missing keys are a no-op.
func (r *Record) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order. The slice is a copy.
func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of keys.
func (r *Record) Len() int {
	return len(r.keys)
}

// Clone returns a deep-enough copy: the key ordering and value map are
// fresh, and sequence values are copied so mutation of one record's tags
// cannot leak into another.
func (r *Record) Clone() *Record {
	out := &Record{
		keys:   append([]string(nil), r.keys...),
		values: make(map[string]any, len(r.values)),
	}
	for k, v := range r.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch s := v.(type) {
	case []string:
		return append([]string(nil), s...)
	case []any:
		return append([]any(nil), s...)
	default:
		return v
	}
}

// FromPairs builds a record from alternating key, value arguments.
// Intended for tests and small literals; panics on an odd count or a
// non-string key.
func FromPairs(pairs ...any) *Record {
	if len(pairs)%2 != 0 {
		panic("frontmatter: FromPairs needs an even number of arguments")
	}
	r := NewRecord()
	for i := 0; i < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1])
	}
	return r
}
