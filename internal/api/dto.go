package api

import "github.com/starford/ansuz/internal/models"

// Pair is one ordered key/value entry of a metadata record. Records cross
// the wire as pair lists because JSON objects do not preserve key order.
type Pair struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// TemplateListItem is a lightweight template entry in a list response.
type TemplateListItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// TemplateListResponse wraps the current index snapshot.
type TemplateListResponse struct {
	Templates    []TemplateListItem `json:"templates"`
	Status       string             `json:"status"`
	Message      string             `json:"message"`
	ReadFailures int                `json:"read_failures"`
}

// MergeRequest carries the four merge sources. Exactly one of PresetID
// (resolved against the preset store) or Preset must be set.
type MergeRequest struct {
	PresetID string                    `json:"preset_id,omitempty"`
	Preset   *models.FrontmatterPreset `json:"preset,omitempty"`
	Note     []Pair                    `json:"note,omitempty"`
	Template []Pair                    `json:"template,omitempty"`
	User     []Pair                    `json:"user,omitempty"`
}

// MergeResponse is the resolved record: its ordered pairs and the
// serialized frontmatter block.
type MergeResponse struct {
	Record []Pair `json:"record"`
	Block  string `json:"block"`
}

// MatchRequest names the template to score presets against. An empty
// PresetIDs list means every stored preset.
type MatchRequest struct {
	TemplateID string   `json:"template_id"`
	PresetIDs  []string `json:"preset_ids,omitempty"`
	BestOnly   bool     `json:"best_only,omitempty"`
}

// MatchResponse wraps scored presets, sorted descending.
type MatchResponse struct {
	Results []models.PresetMatchResult `json:"results"`
}
