package util

import (
	"bytes"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Mapping builds a yaml mapping node with keys in insertion order. Nil and
// empty values are skipped so rendered files only carry meaningful fields.
type Mapping struct {
	node *yaml.Node
}

// NewMapping returns an empty ordered mapping.
func NewMapping() *Mapping {
	return &Mapping{node: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

// Node returns the underlying mapping node.
func (m *Mapping) Node() *yaml.Node { return m.node }

// Len returns the number of keys.
func (m *Mapping) Len() int { return len(m.node.Content) / 2 }

// Set appends key with a string value. Empty strings are skipped.
func (m *Mapping) Set(key, value string) *Mapping {
	if value == "" {
		return m
	}
	return m.SetNode(key, Str(value))
}

// SetBool appends key with a boolean value.
func (m *Mapping) SetBool(key string, value bool) *Mapping {
	return m.SetNode(key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(value)})
}

// SetInt appends key with an integer value.
func (m *Mapping) SetInt(key string, value int) *Mapping {
	return m.SetNode(key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(value)})
}

// SetStrings appends key with a string list. Empty lists are skipped.
func (m *Mapping) SetStrings(key string, values []string) *Mapping {
	if len(values) == 0 {
		return m
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, v := range values {
		seq.Content = append(seq.Content, Str(v))
	}
	return m.SetNode(key, seq)
}

// SetStringMap appends key with a string map in sorted key order. Empty
// maps are skipped.
func (m *Mapping) SetStringMap(key string, values map[string]string) *Mapping {
	if len(values) == 0 {
		return m
	}
	sub := NewMapping()
	for _, k := range SortedKeys(values) {
		sub.SetNode(k, Str(values[k]))
	}
	return m.SetNode(key, sub.node)
}

// SetMapping appends key with a nested mapping. Empty mappings are skipped.
func (m *Mapping) SetMapping(key string, sub *Mapping) *Mapping {
	if sub == nil || sub.Len() == 0 {
		return m
	}
	return m.SetNode(key, sub.node)
}

// SetNode appends key with an arbitrary node. Nil nodes are skipped.
func (m *Mapping) SetNode(key string, value *yaml.Node) *Mapping {
	if value == nil {
		return m
	}
	m.node.Content = append(m.node.Content, Str(key), value)
	return m
}

// Str returns a string scalar node. Values the YAML resolver would read as
// another type ("true", "10", "null") are quoted.
func Str(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// Encode renders a node with two-space indentation.
func Encode(n *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SortedKeys returns the keys of m in sorted order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
