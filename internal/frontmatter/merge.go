package frontmatter

import (
	"fmt"
	"strings"
)

// TagsKey is the one key with union instead of override semantics.
const TagsKey = "tags"

// Merge combines base and override into a new record. For every key in
// override the result takes override's value, except "tags": the result is
// the set union of both tag sequences, deduplicated, first-seen order kept.
// Base keys absent from override pass through unchanged. Neither input is
// mutated; nil inputs are treated as empty.
func Merge(base, override *Record) *Record {
	out := NewRecord()
	if base != nil {
		for _, k := range base.keys {
			out.Set(k, cloneValue(base.values[k]))
		}
	}
	if override == nil {
		return out
	}
	for _, k := range override.keys {
		if k == TagsKey {
			var baseTags any
			if base != nil {
				baseTags = base.values[TagsKey]
			}
			out.Set(TagsKey, unionTags(baseTags, override.values[k]))
			continue
		}
		out.Set(k, cloneValue(override.values[k]))
	}
	return out
}

// unionTags merges two tag values into one deduplicated sequence.
// Scalars are coerced to one-element sequences; nil is empty.
func unionTags(base, override any) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, v := range []any{base, override} {
		for _, t := range ToStringSlice(v) {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// ToStringSlice coerces v into a string sequence: sequences keep their
// elements (stringified, blanks dropped), scalars become one element,
// nil becomes empty.
func ToStringSlice(v any) []string {
	switch s := v.(type) {
	case nil:
		return nil
	case []string:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if e = strings.TrimSpace(e); e != "" {
				out = append(out, e)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			str := strings.TrimSpace(Stringify(e))
			if str != "" {
				out = append(out, str)
			}
		}
		return out
	default:
		str := strings.TrimSpace(Stringify(v))
		if str == "" {
			return nil
		}
		return []string{str}
	}
}

// Stringify renders a scalar as a string; nil becomes empty.
func Stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", v)
	}
}
