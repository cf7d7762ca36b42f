package frontmatter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func recordMap(r *Record) map[string]any {
	out := make(map[string]any, r.Len())
	for _, k := range r.Keys() {
		v, _ := r.Get(k)
		out[k] = v
	}
	return out
}

func TestMerge_OverrideWins(t *testing.T) {
	base := FromPairs("status", "draft", "priority", "low")
	override := FromPairs("priority", "high", "extra", 1)

	got := Merge(base, override)

	want := map[string]any{"status": "draft", "priority": "high", "extra": 1}
	if diff := cmp.Diff(want, recordMap(got)); diff != "" {
		t.Errorf("merged values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"status", "priority", "extra"}, got.Keys()); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_InputsNotMutated(t *testing.T) {
	base := FromPairs("status", "draft", TagsKey, []string{"a", "b"})
	override := FromPairs("status", "final", TagsKey, []string{"b", "c"})

	_ = Merge(base, override)

	if v, _ := base.Get("status"); v != "draft" {
		t.Errorf("base mutated: status = %v", v)
	}
	baseTags, _ := base.Get(TagsKey)
	if diff := cmp.Diff([]string{"a", "b"}, baseTags); diff != "" {
		t.Errorf("base tags mutated (-want +got):\n%s", diff)
	}
	overrideTags, _ := override.Get(TagsKey)
	if diff := cmp.Diff([]string{"b", "c"}, overrideTags); diff != "" {
		t.Errorf("override tags mutated (-want +got):\n%s", diff)
	}
}

func TestMerge_TagsUnion(t *testing.T) {
	got := Merge(
		FromPairs(TagsKey, []string{"a", "b"}),
		FromPairs(TagsKey, []string{"b", "c"}),
	)

	tags, _ := got.Get(TagsKey)
	if diff := cmp.Diff([]string{"a", "b", "c"}, tags); diff != "" {
		t.Errorf("tags union mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_TagsScalarCoercion(t *testing.T) {
	got := Merge(
		FromPairs(TagsKey, "solo"),
		FromPairs(TagsKey, []any{"solo", "second"}),
	)

	tags, _ := got.Get(TagsKey)
	if diff := cmp.Diff([]string{"solo", "second"}, tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_TagsAbsentFromBase(t *testing.T) {
	got := Merge(NewRecord(), FromPairs(TagsKey, "x"))
	tags, _ := got.Get(TagsKey)
	if diff := cmp.Diff([]string{"x"}, tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_NilInputs(t *testing.T) {
	got := Merge(nil, FromPairs("a", "1"))
	if v, _ := got.Get("a"); v != "1" {
		t.Errorf("got %v", v)
	}
	got = Merge(FromPairs("a", "1"), nil)
	if v, _ := got.Get("a"); v != "1" {
		t.Errorf("got %v", v)
	}
}

func TestRecord_DeleteKeepsOrder(t *testing.T) {
	r := FromPairs("a", 1, "b", 2, "c", 3)
	r.Delete("b")
	if diff := cmp.Diff([]string{"a", "c"}, r.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	r.Delete("missing") // no-op
	if r.Len() != 2 {
		t.Errorf("len = %d, want 2", r.Len())
	}
}

func TestRecord_CloneIsolation(t *testing.T) {
	r := FromPairs(TagsKey, []string{"a"})
	c := r.Clone()
	tags, _ := c.Get(TagsKey)
	tags.([]string)[0] = "mutated"

	orig, _ := r.Get(TagsKey)
	if orig.([]string)[0] != "a" {
		t.Error("clone shares tag backing array with original")
	}
}
