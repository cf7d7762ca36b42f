package frontmatter

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// EncodeBlock serializes a record as a frontmatter block: a `---` line, a
// YAML body with 2-space indent and keys in record order, a closing `---`
// line, and a trailing blank line before body text. An empty or nil record
// yields an empty string.
func EncodeBlock(rec *Record) (string, error) {
	if rec == nil || rec.Len() == 0 {
		return "", nil
	}

	node, err := toYAMLNode(rec)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return "", fmt.Errorf("frontmatter: encode block: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("frontmatter: encode block: %w", err)
	}

	return "---\n" + buf.String() + "---\n\n", nil
}

// toYAMLNode builds a fresh mapping node per key so the encoder never
// folds repeated values into anchors.
func toYAMLNode(rec *Record) (*yaml.Node, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range rec.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: k}
		valNode := &yaml.Node{}
		if err := valNode.Encode(rec.values[k]); err != nil {
			return nil, fmt.Errorf("frontmatter: encode key %q: %w", k, err)
		}
		mapping.Content = append(mapping.Content, keyNode, valNode)
	}
	return mapping, nil
}

// FromYAMLNode converts a YAML mapping node into a record, preserving the
// document's key order. Non-mapping nodes yield an empty record.
func FromYAMLNode(node *yaml.Node) (*Record, error) {
	rec := NewRecord()
	if node == nil {
		return rec, nil
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return rec, nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		var v any
		if err := valNode.Decode(&v); err != nil {
			return nil, fmt.Errorf("frontmatter: decode key %q: %w", keyNode.Value, err)
		}
		rec.Set(keyNode.Value, v)
	}
	return rec, nil
}

// DecodeBlock parses the YAML body of a frontmatter block (without the
// `---` fences) into an ordered record.
func DecodeBlock(body []byte) (*Record, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return NewRecord(), nil
	}
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(trimmed), &node); err != nil {
		return nil, fmt.Errorf("frontmatter: parse block: %w", err)
	}
	return FromYAMLNode(&node)
}
