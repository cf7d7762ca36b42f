package frontmatter

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeBlock_Shape(t *testing.T) {
	rec := FromPairs(
		"title", "Weekly Meeting",
		"tags", []string{"meeting", "weekly"},
		"priority", "high",
	)

	block, err := EncodeBlock(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "---\n" +
		"title: Weekly Meeting\n" +
		"tags:\n" +
		"  - meeting\n" +
		"  - weekly\n" +
		"priority: high\n" +
		"---\n\n"
	if block != want {
		t.Errorf("block = %q, want %q", block, want)
	}
}

func TestEncodeBlock_Empty(t *testing.T) {
	block, err := EncodeBlock(NewRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if block != "" {
		t.Errorf("empty record should produce empty block, got %q", block)
	}
	block, err = EncodeBlock(nil)
	if err != nil || block != "" {
		t.Errorf("nil record: block=%q err=%v", block, err)
	}
}

func TestEncodeBlock_NoAliasFolding(t *testing.T) {
	shared := []string{"a", "b"}
	rec := FromPairs("first", shared, "second", shared)

	block, err := EncodeBlock(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(block, "&") || strings.Contains(block, "*") {
		t.Errorf("block must not use YAML anchors/aliases: %q", block)
	}
}

func TestDecodeBlock_PreservesOrder(t *testing.T) {
	rec, err := DecodeBlock([]byte("zeta: 1\nalpha: 2\nmid: 3\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"zeta", "alpha", "mid"}, rec.Keys()); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeBlock_EmptyAndInvalid(t *testing.T) {
	rec, err := DecodeBlock([]byte("  \n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Len() != 0 {
		t.Errorf("expected empty record")
	}

	if _, err := DecodeBlock([]byte(": bad: yaml: {{{")); err == nil {
		t.Error("expected error for invalid YAML")
	}
}
