// Package models defines the domain types for Ansuz.
package models

// FieldType enumerates the kinds of frontmatter preset fields.
type FieldType string

// Field types.
const (
	FieldText        FieldType = "text"
	FieldDate        FieldType = "date"
	FieldSelect      FieldType = "select"
	FieldMultiSelect FieldType = "multi-select"
)

// TemplateDocument is one template file read from the watched folder.
// ID and Path are identical and unique within an index snapshot.
// Content is the raw file text, immutable once loaded.
type TemplateDocument struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	Content string `json:"content"`
}

// FrontmatterField is one field definition inside a preset. Key is unique
// within the preset's field sequence.
type FrontmatterField struct {
	Key                   string    `json:"key"`
	Label                 string    `json:"label"`
	Type                  FieldType `json:"type"`
	Default               any       `json:"default,omitempty"`
	Options               []string  `json:"options,omitempty"`
	UseTemplaterTimestamp bool      `json:"use_templater_timestamp,omitempty"`
}

// Clone returns a deep copy of the field. Option lists and array defaults
// are copied so callers can mutate the result freely.
func (f FrontmatterField) Clone() FrontmatterField {
	out := f
	if f.Options != nil {
		out.Options = append([]string(nil), f.Options...)
	}
	switch v := f.Default.(type) {
	case []string:
		out.Default = append([]string(nil), v...)
	case []any:
		out.Default = append([]any(nil), v...)
	}
	return out
}

// FrontmatterPreset is a named, ordered set of field definitions.
// Field order is semantically meaningful: it defines output key ordering.
type FrontmatterPreset struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	Fields []FrontmatterField `json:"fields"`
}

// CloneFields returns a deep copy of the preset's field sequence.
func (p FrontmatterPreset) CloneFields() []FrontmatterField {
	if p.Fields == nil {
		return nil
	}
	out := make([]FrontmatterField, len(p.Fields))
	for i, f := range p.Fields {
		out[i] = f.Clone()
	}
	return out
}

// FieldKeys returns the preset's field keys in definition order.
func (p FrontmatterPreset) FieldKeys() []string {
	keys := make([]string, 0, len(p.Fields))
	for _, f := range p.Fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// PresetMatchResult is one scored preset from the matcher.
type PresetMatchResult struct {
	Preset  FrontmatterPreset `json:"preset"`
	Score   float64           `json:"score"`
	Reasons []string          `json:"reasons"`
}
