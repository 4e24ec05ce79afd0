// Package modifier turns update-operator documents into the plain partial
// documents the validator understands.
package modifier

import (
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"
)

// Update operators recognized by Normalize.
const (
	Set         = "$set"
	SetOnInsert = "$setOnInsert"
	Inc         = "$inc"
	Min         = "$min"
	Max         = "$max"
	Mul         = "$mul"
	Push        = "$push"
	AddToSet    = "$addToSet"
	CurrentDate = "$currentDate"
	Bit         = "$bit"
)

// order is the fixed processing order; later operators win on conflicting
// paths.
var order = []string{Set, SetOnInsert, Inc, Min, Max, Mul, Push, AddToSet, CurrentDate, Bit}

// now is replaced in tests.
var now = time.Now

// Operators lists the recognized operators in processing order.
func Operators() []string { return slices.Clone(order) }

// IsOperator reports whether a top-level key is an update operator.
func IsOperator(key string) bool { return strings.HasPrefix(key, "$") }

// HasOperators reports whether any top-level key of doc is an operator.
func HasOperators(doc map[string]any) bool {
	for k := range doc {
		if IsOperator(k) {
			return true
		}
	}
	return false
}

// Normalize rewrites an update document into a nested partial document:
//
//	{"$set": {"items.$.qty": 3}, "$push": {"tags": "x"}}
//	=> {"items": [{"qty": 3}], "tags": ["x"]}
//
// Non-operator keys are kept as filter data. Unrecognized operators are
// ignored. doc itself is never mutated.
func Normalize(doc map[string]any) map[string]any {
	out := map[string]any{}
	for _, k := range sortedKeys(doc) {
		if !IsOperator(k) {
			put(out, k, doc[k])
		}
	}
	for _, op := range order {
		body, ok := asMap(doc[op])
		if !ok {
			continue
		}
		for _, k := range sortedKeys(body) {
			put(out, k, transform(op, body[k]))
		}
	}
	return out
}

func transform(op string, v any) any {
	switch op {
	case Push, AddToSet:
		if m, ok := asMap(v); ok {
			if each, ok := m["$each"]; ok {
				return each
			}
		}
		return []any{v}
	case CurrentDate:
		return now()
	case Bit:
		// {"$bit": {"flags": {"and": 5}}} carries the operand one level down
		if m, ok := asMap(v); ok && len(m) == 1 {
			for _, inner := range m {
				return inner
			}
		}
	}
	return v
}

// Unflatten expands dotted keys into nested documents. Positional markers
// ($, $[], $[id]) and numeric segments become a single-element array.
func Unflatten(flat map[string]any) map[string]any {
	out := map[string]any{}
	for _, k := range sortedKeys(flat) {
		put(out, k, flat[k])
	}
	return out
}

func put(dst map[string]any, key string, v any) {
	segs := strings.Split(key, ".")
	dst[segs[0]] = assign(dst[segs[0]], segs[1:], v)
}

func assign(cur any, segs []string, v any) any {
	if len(segs) == 0 {
		return v
	}
	head, rest := segs[0], segs[1:]
	if IsPositional(head) {
		var elem any
		if list, ok := cur.([]any); ok && len(list) > 0 {
			elem = list[0]
		}
		return []any{assign(elem, rest, v)}
	}
	m, ok := asMap(cur)
	if ok {
		m = maps.Clone(m)
	} else {
		m = map[string]any{}
	}
	m[head] = assign(m[head], rest, v)
	return m
}

// IsPositional reports whether a path segment addresses an array element.
func IsPositional(seg string) bool {
	switch {
	case seg == "$", seg == "$[]":
		return true
	case strings.HasPrefix(seg, "$[") && strings.HasSuffix(seg, "]"):
		return true
	case seg == "":
		return false
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// asMap returns v as map[string]any. Named map types such as a driver's
// document type are copied into a plain map.
func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, t != nil
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
