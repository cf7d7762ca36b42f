// Package parser splits template content into embedded frontmatter and body
// and infers which variables a template references.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/frontmatter"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_.-]*)\s*\}\}`)

// Result holds the output of parsing template content.
type Result struct {
	Frontmatter *frontmatter.Record
	Body        string
	// Variables are the inferred variable references: every {{ name }}
	// placeholder in the raw text, plus every frontmatter key whose value
	// itself contains a placeholder. Deduplicated, first-seen order.
	Variables []string
}

// Parse extracts embedded frontmatter, body, and variable references from
// raw template content.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Variables:   inferVariables(string(data), fm),
	}, nil
}

// splitFrontmatter separates the YAML block (between leading --- fences)
// from the body. Fences must be whole `---` lines; a `----` rule or a
// line merely starting with --- is content, not a fence. If no block is
// found the entire content is body and the record is empty. Invalid YAML
// falls back the same way.
func splitFrontmatter(data []byte) (*frontmatter.Record, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) || !fenceLineEnd(trimmed[len(delim):]) {
		return frontmatter.NewRecord(), string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := closingFence(rest)
	if idx < 0 {
		return frontmatter.NewRecord(), string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	fm, err := frontmatter.DecodeBlock(yamlBlock)
	if err != nil {
		// Invalid YAML — treat everything as body.
		return frontmatter.NewRecord(), string(data), nil
	}
	return fm, body, nil
}

// closingFence returns the offset of the newline opening the first whole
// `---` line in rest, or -1.
func closingFence(rest []byte) int {
	const delim = "---"
	for from := 0; ; {
		i := bytes.Index(rest[from:], []byte("\n"+delim))
		if i < 0 {
			return -1
		}
		pos := from + i
		if fenceLineEnd(rest[pos+1+len(delim):]) {
			return pos
		}
		from = pos + 1
	}
}

// fenceLineEnd reports whether a fence line terminates here: end of input
// or a line break.
func fenceLineEnd(tail []byte) bool {
	return len(tail) == 0 || tail[0] == '\n' || tail[0] == '\r'
}

// inferVariables scans raw text for {{ name }} placeholders and treats any
// frontmatter value containing a placeholder as a reference to that key.
func inferVariables(raw string, fm *frontmatter.Record) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	for _, m := range placeholderRe.FindAllStringSubmatch(raw, -1) {
		add(m[1])
	}

	if fm != nil {
		for _, k := range fm.Keys() {
			v, _ := fm.Get(k)
			if valueHasPlaceholder(v) {
				add(k)
			}
		}
	}
	return out
}

func valueHasPlaceholder(v any) bool {
	switch s := v.(type) {
	case string:
		return placeholderRe.MatchString(s)
	case []any:
		for _, e := range s {
			if valueHasPlaceholder(e) {
				return true
			}
		}
	case []string:
		for _, e := range s {
			if placeholderRe.MatchString(e) {
				return true
			}
		}
	}
	return false
}
