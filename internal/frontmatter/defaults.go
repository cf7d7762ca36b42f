package frontmatter

import (
	"strings"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/templater"
)

// Defaults converts a preset's field definitions into a base record of
// default values. Fields whose default is empty after normalisation are
// omitted entirely — an explicit empty-string key would outrank a note's
// prior value during merge. Fields marked with UseTemplaterTimestamp get
// the templater timestamp expression instead of their literal default.
func Defaults(preset models.FrontmatterPreset) *Record {
	out := NewRecord()
	for _, f := range preset.Fields {
		if f.Key == "" {
			continue
		}
		if f.UseTemplaterTimestamp {
			out.Set(f.Key, templater.TimestampExpr)
			continue
		}
		switch f.Type {
		case models.FieldMultiSelect:
			vals := normalizeMultiDefault(f)
			if len(vals) > 0 {
				out.Set(f.Key, vals)
			}
		default:
			s := coerceScalarDefault(f.Default)
			if s != "" {
				out.Set(f.Key, s)
			}
		}
	}
	return out
}

// normalizeMultiDefault dedupes the default sequence and, when the field
// carries options, keeps only values present among the trimmed non-empty
// options.
func normalizeMultiDefault(f models.FrontmatterField) []string {
	vals := ToStringSlice(f.Default)
	if len(vals) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(vals))
	deduped := vals[:0:0]
	for _, v := range vals {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		deduped = append(deduped, v)
	}

	if len(f.Options) == 0 {
		return deduped
	}
	allowed := make(map[string]struct{}, len(f.Options))
	for _, o := range f.Options {
		o = strings.TrimSpace(o)
		if o != "" {
			allowed[o] = struct{}{}
		}
	}
	out := deduped[:0:0]
	for _, v := range deduped {
		if _, ok := allowed[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

// coerceScalarDefault turns a default of any shape into a trimmed string:
// strings pass through, a sequence contributes its first element, other
// scalars are stringified, nil is empty.
func coerceScalarDefault(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case []string:
		if len(s) == 0 {
			return ""
		}
		return strings.TrimSpace(s[0])
	case []any:
		if len(s) == 0 {
			return ""
		}
		return strings.TrimSpace(Stringify(s[0]))
	default:
		return strings.TrimSpace(Stringify(v))
	}
}
