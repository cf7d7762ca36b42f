package frontmatter

import (
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// PresetKey is the record key a preset reference may be serialized under.
// It and its legacy aliases are configuration bookkeeping and must never
// leak into document output.
const PresetKey = "frontmatter-preset"

var legacyPresetKeys = []string{"frontmatterPreset", "fm-preset"}

// dateLayouts are accepted for date-typed field values, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Resolve merges the four metadata sources under the fixed precedence
// (lowest to highest): preset defaults, the note's existing metadata, the
// template's embedded metadata, user input. Bookkeeping keys are stripped
// and the result is re-ordered so the preset's field keys come first, in
// field order, followed by remaining keys in merge-discovery order.
//
// A date-typed field that ends up with an unparseable value fails the
// whole call with *apperr.DateFieldError.
func Resolve(preset models.FrontmatterPreset, noteMeta, templateMeta, userInput *Record) (*Record, error) {
	merged := Merge(Defaults(preset), noteMeta)
	merged = Merge(merged, templateMeta)
	merged = Merge(merged, userInput)

	merged.Delete(PresetKey)
	for _, k := range legacyPresetKeys {
		merged.Delete(k)
	}

	if err := validateDateFields(preset, merged); err != nil {
		return nil, err
	}

	return reorder(preset, merged), nil
}

// validateDateFields checks every date-typed preset field that has a value
// in the merged record. Values carrying an unexpanded templater expression
// are left for the expansion step to resolve.
func validateDateFields(preset models.FrontmatterPreset, rec *Record) error {
	for _, f := range preset.Fields {
		if f.Type != models.FieldDate {
			continue
		}
		v, ok := rec.Get(f.Key)
		if !ok {
			continue
		}
		s := strings.TrimSpace(Stringify(v))
		if s == "" || containsPlaceholder(s) {
			continue
		}
		if !parsesAsDate(s) {
			return &apperr.DateFieldError{Key: f.Key, Value: s}
		}
	}
	return nil
}

func parsesAsDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func containsPlaceholder(s string) bool {
	return strings.Contains(s, "{{") || strings.Contains(s, "<%")
}

// reorder shapes the output: keys belonging to the preset's field set
// first, in field-definition order, then everything else in the order the
// merge chain produced. Values are untouched.
func reorder(preset models.FrontmatterPreset, rec *Record) *Record {
	out := NewRecord()
	inPreset := make(map[string]struct{}, len(preset.Fields))
	for _, f := range preset.Fields {
		inPreset[f.Key] = struct{}{}
		if v, ok := rec.Get(f.Key); ok {
			out.Set(f.Key, v)
		}
	}
	for _, k := range rec.Keys() {
		if _, ok := inPreset[k]; ok {
			continue
		}
		v, _ := rec.Get(k)
		out.Set(k, v)
	}
	return out
}
