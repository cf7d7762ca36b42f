// Package match scores frontmatter presets against template documents.
package match

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
)

// Options holds the scoring constants. The defaults are heuristic; they
// are configurable but kept stable for compatibility with existing
// expectations.
type Options struct {
	// NameWeight is awarded when the preset id overlaps the template's
	// name or path.
	NameWeight float64
	// FieldWeight scales the field-name overlap ratio.
	FieldWeight float64
	// Baseline is assigned when both signals are zero but the preset has
	// at least one field.
	Baseline float64
	// UseFieldSignal enables the field-name overlap signal.
	UseFieldSignal bool
}

// DefaultOptions returns the standard scoring constants.
func DefaultOptions() Options {
	return Options{
		NameWeight:     0.7,
		FieldWeight:    0.3,
		Baseline:       0.1,
		UseFieldSignal: true,
	}
}

// Score rates one preset against one template. Two independent signals
// are weighted and summed, capped at 1.0: filename/id overlap and the
// ratio of preset field keys among the template's inferred variables.
func Score(tpl models.TemplateDocument, preset models.FrontmatterPreset, opts Options) models.PresetMatchResult {
	res := models.PresetMatchResult{Preset: preset, Reasons: []string{}}

	if nameOverlap(tpl, preset.ID) {
		res.Score += opts.NameWeight
		res.Reasons = append(res.Reasons,
			fmt.Sprintf("preset id %q overlaps template name %q", preset.ID, tpl.Name))
	}

	if opts.UseFieldSignal {
		if ratio := fieldOverlap(tpl, preset); ratio > 0 {
			res.Score += opts.FieldWeight * ratio
			res.Reasons = append(res.Reasons,
				fmt.Sprintf("field keys cover %.0f%% of template variables", ratio*100))
		}
	}

	if res.Score == 0 && len(preset.Fields) > 0 {
		res.Score = opts.Baseline
		res.Reasons = append(res.Reasons, "baseline: preset defines fields")
	}

	if res.Score > 1.0 {
		res.Score = 1.0
	}
	return res
}

// MatchPresets scores every preset and returns them sorted descending by
// score. Ties keep input order.
func MatchPresets(tpl models.TemplateDocument, presets []models.FrontmatterPreset, opts Options) []models.PresetMatchResult {
	out := make([]models.PresetMatchResult, 0, len(presets))
	for _, p := range presets {
		out = append(out, Score(tpl, p, opts))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// BestMatch returns the top-scored preset, but only when its score is
// strictly greater than zero.
func BestMatch(tpl models.TemplateDocument, presets []models.FrontmatterPreset, opts Options) (models.PresetMatchResult, bool) {
	results := MatchPresets(tpl, presets, opts)
	if len(results) == 0 || results[0].Score <= 0 {
		return models.PresetMatchResult{}, false
	}
	return results[0], true
}

// nameOverlap reports whether the preset id appears in the template's
// name or path: case-folded substring, substring after stripping all
// non-alphanumeric characters, or any id token of length >= 3 as a raw
// substring.
func nameOverlap(tpl models.TemplateDocument, id string) bool {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return false
	}
	name := strings.ToLower(tpl.Name)
	path := strings.ToLower(tpl.Path)

	if strings.Contains(name, id) || strings.Contains(path, id) {
		return true
	}

	strippedID := stripNonAlnum(id)
	if strippedID != "" &&
		(strings.Contains(stripNonAlnum(name), strippedID) ||
			strings.Contains(stripNonAlnum(path), strippedID)) {
		return true
	}

	for _, tok := range splitTokens(id) {
		if len(tok) < 3 {
			continue
		}
		if strings.Contains(name, tok) || strings.Contains(path, tok) {
			return true
		}
	}
	return false
}

// fieldOverlap returns the share of the template's inferred variables
// covered by the preset's field keys, 0 when the template has none.
func fieldOverlap(tpl models.TemplateDocument, preset models.FrontmatterPreset) float64 {
	res, err := parser.Parse([]byte(tpl.Content))
	if err != nil || len(res.Variables) == 0 {
		return 0
	}
	keys := make(map[string]struct{}, len(preset.Fields))
	for _, f := range preset.Fields {
		keys[f.Key] = struct{}{}
	}
	hits := 0
	for _, v := range res.Variables {
		if _, ok := keys[v]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(res.Variables))
}

func stripNonAlnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func splitTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
