// Package loader reads schema descriptions and documents from YAML or JSON.
//
// Schema files use the same grammar as Go descriptions, with two markers
// for the wrappers that have no literal form:
//
//	name: string
//	nickname: {$optional: string}
//	contact: {$anyOf: [string, {email: string}]}
//	age: {type: integer, min: 0, max: [150, "too old"]}
//	total:
//	  type: number
//	  where: {expr: "value >= subtotal", dependsOn: [subtotal], message: "total below subtotal"}
//
// where clauses are CEL expressions over value and the listed dependencies.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/docskema"
	"github.com/reoring/docskema/internal/engine"
)

// Markers for wrappers in schema files.
const (
	MarkerOptional = "$optional"
	MarkerAnyOf    = "$anyOf"
)

// Format selects the decoder.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for unknown file extensions.
var ErrUnsupportedFormat = errors.New("loader: unsupported format")

// FormatOf derives the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}

// LoadFile reads a schema description from a .yaml, .yml or .json file.
func LoadFile(path string) (docskema.Fields, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	return Load(data, f)
}

// Load decodes a schema description.
func Load(data []byte, f Format) (docskema.Fields, error) {
	raw, err := decodeObject(data, f)
	if err != nil {
		return nil, err
	}
	out, err := convertFields(raw, nil)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadDocuments decodes every document of a data file. YAML streams may
// hold several documents; JSON input holds exactly one and is rejected when
// it repeats a key.
func LoadDocuments(data []byte, f Format) ([]map[string]any, error) {
	switch f {
	case FormatJSON:
		doc, err := docskema.ParseJSON(data)
		if err != nil {
			return nil, err
		}
		return []map[string]any{doc}, nil
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		var docs []map[string]any
		for {
			var node any
			if err := dec.Decode(&node); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, fmt.Errorf("loader: yaml: %w", err)
			}
			m := yamlAnyToStringMap(node)
			if m == nil {
				return nil, fmt.Errorf("loader: document %d is not a mapping", len(docs))
			}
			docs = append(docs, m)
		}
		return docs, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

func decodeObject(data []byte, f Format) (map[string]any, error) {
	switch f {
	case FormatYAML:
		var node any
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("loader: yaml: %w", err)
		}
		m := yamlAnyToStringMap(node)
		if m == nil {
			return nil, errors.New("loader: schema root must be a mapping")
		}
		return m, nil
	case FormatJSON:
		dups, err := engine.DuplicateKeys(data, 1)
		if err != nil {
			return nil, fmt.Errorf("loader: json: %w", err)
		}
		if len(dups) > 0 {
			return nil, fmt.Errorf("loader: json: key %q duplicated at %q", dups[0].Key, dups[0].Path)
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("loader: json: %w", err)
		}
		if m == nil {
			return nil, errors.New("loader: schema root must be an object")
		}
		return m, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

func convertFields(m map[string]any, path []string) (docskema.Fields, error) {
	constrained := isConstrained(m)
	out := make(docskema.Fields, len(m))
	for k, v := range m {
		p := append(slices.Clip(path), k)
		if constrained && k == docskema.KeyWhere {
			w, err := compileWhere(v, path)
			if err != nil {
				return nil, fmt.Errorf("loader: where at %s: %w", strings.Join(path, "."), err)
			}
			out[k] = w
			continue
		}
		c, err := convert(v, p)
		if err != nil {
			return nil, err
		}
		out[k] = c
	}
	return out, nil
}

func convert(v any, path []string) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		if inner, ok := t[MarkerOptional]; ok && len(t) == 1 {
			c, err := convert(inner, path)
			if err != nil {
				return nil, err
			}
			return docskema.Optional(c), nil
		}
		if alts, ok := t[MarkerAnyOf]; ok && len(t) == 1 {
			list, ok := alts.([]any)
			if !ok {
				return nil, fmt.Errorf("loader: %s at %s must be a list", MarkerAnyOf, strings.Join(path, "."))
			}
			opts := make([]any, 0, len(list))
			for _, a := range list {
				c, err := convert(a, path)
				if err != nil {
					return nil, err
				}
				opts = append(opts, c)
			}
			return docskema.AnyOf(opts...), nil
		}
		return convertFields(t, path)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			c, err := convert(e, append(slices.Clip(path), strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	}
	return v, nil
}

// isConstrained mirrors how descriptions tell a constrained field from a
// nested object with a field named type.
func isConstrained(m map[string]any) bool {
	if _, ok := m[docskema.KeyType]; !ok {
		return false
	}
	for k := range m {
		if k != docskema.KeyType && !slices.Contains(docskema.QualifierKeys(), k) {
			return false
		}
	}
	return true
}

// yamlAnyToStringMap converts YAML-decoded values (which may contain
// map[any]any) into map[string]any recursively. Non-map roots return nil.
func yamlAnyToStringMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = yamlNormalizeValue(vv)
		}
		return out
	}
	return nil
}

func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return yamlAnyToStringMap(t)
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = yamlNormalizeValue(t[i])
		}
		return arr
	}
	return v
}
