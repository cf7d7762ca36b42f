package frontmatter

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

func twoFieldPreset() models.FrontmatterPreset {
	return models.FrontmatterPreset{
		ID:   "task",
		Name: "Task",
		Fields: []models.FrontmatterField{
			{Key: "status", Type: models.FieldText},
			{Key: "priority", Type: models.FieldText},
		},
	}
}

func TestResolve_KeyOrdering(t *testing.T) {
	preset := twoFieldPreset()
	template := FromPairs("extra", 1, "status", "draft")
	user := FromPairs("priority", "high")

	got, err := Resolve(preset, NewRecord(), template, user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"status", "priority", "extra"}, got.Keys()); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_Precedence(t *testing.T) {
	preset := models.FrontmatterPreset{ID: "p", Fields: []models.FrontmatterField{
		{Key: "status", Type: models.FieldText, Default: "default"},
	}}

	cases := []struct {
		name     string
		note     *Record
		template *Record
		user     *Record
		want     string
	}{
		{"defaults alone", NewRecord(), NewRecord(), NewRecord(), "default"},
		{"note beats default", FromPairs("status", "note"), NewRecord(), NewRecord(), "note"},
		{"template beats note", FromPairs("status", "note"), FromPairs("status", "tpl"), NewRecord(), "tpl"},
		{"user beats template", FromPairs("status", "note"), FromPairs("status", "tpl"), FromPairs("status", "user"), "user"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(preset, tc.note, tc.template, tc.user)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v, _ := got.Get("status"); v != tc.want {
				t.Errorf("status = %v, want %q", v, tc.want)
			}
		})
	}
}

func TestResolve_StripsBookkeepingKeys(t *testing.T) {
	preset := twoFieldPreset()
	note := FromPairs(PresetKey, "task", "frontmatterPreset", "task", "status", "open")

	got, err := Resolve(preset, note, NewRecord(), NewRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Has(PresetKey) || got.Has("frontmatterPreset") || got.Has("fm-preset") {
		t.Errorf("bookkeeping keys leaked: %v", got.Keys())
	}
	if v, _ := got.Get("status"); v != "open" {
		t.Errorf("status = %v", v)
	}
}

func TestResolve_TagsUnionAcrossSources(t *testing.T) {
	preset := models.FrontmatterPreset{ID: "p", Fields: []models.FrontmatterField{
		{Key: "tags", Type: models.FieldMultiSelect, Default: []string{"base"}},
	}}
	note := FromPairs("tags", []string{"note"})
	template := FromPairs("tags", []string{"base", "tpl"})
	user := FromPairs("tags", "user")

	got, err := Resolve(preset, note, template, user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tags, _ := got.Get("tags")
	if diff := cmp.Diff([]string{"base", "note", "tpl", "user"}, tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_DateFieldInvalid(t *testing.T) {
	preset := models.FrontmatterPreset{ID: "p", Fields: []models.FrontmatterField{
		{Key: "due", Type: models.FieldDate},
	}}
	_, err := Resolve(preset, NewRecord(), NewRecord(), FromPairs("due", "not-a-date"))

	var dateErr *apperr.DateFieldError
	if !errors.As(err, &dateErr) {
		t.Fatalf("expected DateFieldError, got %v", err)
	}
	if dateErr.Key != "due" {
		t.Errorf("key = %q", dateErr.Key)
	}
}

func TestResolve_DateFieldValidAndPlaceholder(t *testing.T) {
	preset := models.FrontmatterPreset{ID: "p", Fields: []models.FrontmatterField{
		{Key: "due", Type: models.FieldDate},
	}}

	for _, v := range []string{"2026-08-31", "2026-08-31 14:30", "{{ due }}", `<% tp.date.now() %>`, ""} {
		if _, err := Resolve(preset, NewRecord(), NewRecord(), FromPairs("due", v)); err != nil {
			t.Errorf("value %q: unexpected error: %v", v, err)
		}
	}
}
