// Package constfile loads constant definitions for expressions from YAML or
// JSON files. A file is a flat mapping of names to numbers:
//
//	width: 4000
//	height: 3000
//	hfov: 65.5
//
// Names are folded to lower case and must start with a letter followed by
// letters, digits, or underscores.
package constfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromFile loads constants from a file, choosing the format by extension.
// Supported extensions are .yaml, .yml, and .json.
func FromFile(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read constants file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return nil, fmt.Errorf("unsupported constants file extension: %q", ext)
	}
}

// FromYAML parses YAML constant definitions.
func FromYAML(data []byte) (map[string]float64, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return convert(m)
}

// FromJSON parses JSON constant definitions.
func FromJSON(data []byte) (map[string]float64, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return convert(m)
}

func convert(m map[string]any) (map[string]float64, error) {
	// Sort so that errors are deterministic.
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)

	r := make(map[string]float64, len(m))
	from := make(map[string]string, len(m))
	for _, k := range names {
		name := strings.ToLower(k)
		if !validName(name) {
			return nil, fmt.Errorf("invalid constant name %q", k)
		}
		if prev, ok := from[name]; ok {
			return nil, fmt.Errorf("constant %q duplicates %q", k, prev)
		}
		v, err := number(m[k])
		if err != nil {
			return nil, fmt.Errorf("constant %q: %w", k, err)
		}
		r[name] = v
		from[name] = k
	}
	return r, nil
}

func number(v any) (float64, error) {
	switch v := v.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not a number", v, v)
	}
}

func validName(s string) bool {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !('a' <= c && c <= 'z' || '0' <= c && c <= '9' || c == '_') {
			return false
		}
	}
	return true
}
