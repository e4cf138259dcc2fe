package datamodel

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// LoadYAML builds a model from a YAML mapping. Top-level keys become root
// variables; nested mappings and sequences are addressable with the
// "a.b[2]" syntax. Every top-level key must be a valid identifier.
func LoadYAML(r io.Reader, opts ...Option) (*Model, error) {
	m := New(opts...)

	var doc map[string]interface{}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return m, nil
		}
		return nil, fmt.Errorf("datamodel: decode yaml: %w", err)
	}

	for _, name := range sortedKeys(doc) {
		if err := m.Define(name, doc[name]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// WriteYAML encodes the current variable values as a YAML mapping. Bound
// host variables are written with their current value.
func (m *Model) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m.Snapshot()); err != nil {
		return fmt.Errorf("datamodel: encode yaml: %w", err)
	}
	return enc.Close()
}

// Snapshot returns the root variables as plain Go values.
func (m *Model) Snapshot() map[string]interface{} {
	out := make(map[string]interface{}, len(m.vars))
	for name, v := range m.vars {
		if hv, ok := v.(hostVariable); ok {
			out[name] = hv.get().Native()
			continue
		}
		out[name] = v
	}
	return out
}

func sortedKeys(doc map[string]interface{}) []string {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
