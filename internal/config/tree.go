// Package config loads the AIST YAML configuration file and exposes both a
// generic dot-path lookup (Tree) and a typed, per-process Config derived
// from it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Tree is a decoded YAML document queried by dotted path, e.g.
// tree.String("models.llm.path", "").
type Tree struct {
	root map[string]any
}

// LoadTree reads and parses a YAML file into a Tree.
func LoadTree(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &Tree{root: root}, nil
}

func (t *Tree) lookup(path string) (any, bool) {
	if t == nil || t.root == nil {
		return nil, false
	}
	segments := strings.Split(path, ".")
	var cur any = t.root
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// String returns the string at path, or def if absent or not a string-like scalar.
func (t *Tree) String(path, def string) string {
	v, ok := t.lookup(path)
	if !ok {
		return def
	}
	switch s := v.(type) {
	case string:
		return s
	case int, int64, float64, bool:
		return fmt.Sprintf("%v", s)
	default:
		return def
	}
}

// Int returns the int at path, or def if absent or not numeric.
func (t *Tree) Int(path string, def int) int {
	v, ok := t.lookup(path)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return parsed
		}
	}
	return def
}

// Float returns the float64 at path, or def if absent or not numeric.
func (t *Tree) Float(path string, def float64) float64 {
	v, ok := t.lookup(path)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if parsed, err := strconv.ParseFloat(n, 64); err == nil {
			return parsed
		}
	}
	return def
}

// Bool returns the bool at path, or def if absent or not a bool.
func (t *Tree) Bool(path string, def bool) bool {
	v, ok := t.lookup(path)
	if !ok {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

// Duration parses the value at path as a Go duration string (e.g. "10s").
func (t *Tree) Duration(path string, def time.Duration) time.Duration {
	s := t.String(path, "")
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// StringSlice returns a []string at path, or def if absent.
func (t *Tree) StringSlice(path string, def []string) []string {
	v, ok := t.lookup(path)
	if !ok {
		return def
	}
	raw, ok := v.([]any)
	if !ok {
		return def
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Has reports whether path resolves to any value.
func (t *Tree) Has(path string) bool {
	_, ok := t.lookup(path)
	return ok
}
