package docskema

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/reoring/docskema/i18n"
	"github.com/reoring/docskema/modifier"
)

type checkOptions struct {
	full bool
}

// CheckOption configures Check.
type CheckOption func(*checkOptions)

// Full checks data as a complete document: every required field must be
// present except the identity field, which inserts may omit.
func Full(full bool) CheckOption {
	return func(o *checkOptions) { o.full = full }
}

// Check validates data against schema, which may be a *Schema, a *Shaped or
// a Fields description. It returns nil or ValidationErrors carrying every
// violation found. Any other error reports a malformed schema.
//
// Data whose top-level keys include update operators ($set, $push, ...) is
// normalized first and checked against the deep-partial shape.
func Check(data any, schema any, opts ...CheckOption) error {
	var o checkOptions
	for _, opt := range opts {
		opt(&o)
	}
	partial := false
	if doc, ok := asMap(data); ok && modifier.HasOperators(doc) {
		data = modifier.Normalize(doc)
		partial = true
	}
	shaped, err := resolveShape(schema, partial)
	if err != nil {
		return err
	}
	return check(data, shaped, o.full && !partial)
}

func resolveShape(schema any, partial bool) (*Shaped, error) {
	switch s := schema.(type) {
	case nil:
		return nil, ErrNilSchema
	case *Schema:
		if s == nil {
			return nil, ErrNilSchema
		}
		if partial {
			return s.DeepPartial()
		}
		return s.Shape()
	case *Shaped:
		if s == nil {
			return nil, ErrNilSchema
		}
		if partial {
			return s.DeepPartial()
		}
		return s, nil
	case Fields:
		if partial {
			return Shape(s, WithOptionalize())
		}
		return Shape(s)
	}
	return nil, fmt.Errorf("%w: unsupported schema value %T", ErrInvalidShape, schema)
}

func check(data any, s *Shaped, full bool) error {
	root := s.Root
	doc, isDoc := asMap(data)
	switch {
	case s.Partial:
	case full:
		root = optionalField(root, s.identity)
	case isDoc:
		root = pick(root, doc)
	}

	v := &validator{types: snapshotTypes()}
	v.node(root, data, nil, "")
	if len(v.errs) > 0 {
		return v.errs
	}
	if isDoc && len(s.Rules) > 0 {
		if errs := enforce(doc, s.Rules); len(errs) > 0 {
			return errs
		}
	}
	return nil
}

// accepts reports whether value passes n structurally.
func accepts(types typeTable, n *Node, value any) bool {
	sub := &validator{types: types}
	sub.node(n, value, nil, "")
	return len(sub.errs) == 0
}

// optionalField returns a copy of an object node with one field made
// optional.
func optionalField(obj *Node, name string) *Node {
	f, ok := obj.Field(name)
	if !ok || f.IsOptional() {
		return obj
	}
	fields := maps.Clone(obj.fields)
	fields[name] = OptionalNode(f)
	return ObjectNode(fields)
}

// pick narrows the root object to the declared keys present in doc.
func pick(obj *Node, doc map[string]any) *Node {
	if obj.kind != NodeObject {
		return obj
	}
	fields := make(map[string]*Node, len(doc))
	for k := range doc {
		if f, ok := obj.fields[k]; ok {
			fields[k] = f
		}
	}
	return ObjectNode(fields)
}

type validator struct {
	types typeTable
	errs  ValidationErrors
}

func (v *validator) add(t ErrorType, name string, path []string, msg string) {
	v.errs = appendErrors(v.errs, ValidationError{
		Name:    name,
		Type:    t,
		Message: msg,
		Path:    strings.Join(path, "."),
	})
}

func (v *validator) typeError(name string, path []string, expected string, got any) {
	v.add(IssueType, name, path, i18n.T(i18n.InvalidType, map[string]string{
		"field":    humanize(name),
		"expected": expected,
		"got":      kindOf(got),
	}))
}

// node validates value against n. name is the closest real field name and
// path the dotted location, including array indices.
func (v *validator) node(n *Node, value any, path []string, name string) {
	switch n.kind {
	case NodeOptional:
		v.node(n.inner, value, path, name)

	case NodePlain:
		if !v.types.match(n.typ, value) {
			v.typeError(name, path, string(n.typ), value)
		}

	case NodeAnyOf:
		for _, alt := range n.alts {
			sub := &validator{types: v.types}
			sub.node(alt, value, path, name)
			if len(sub.errs) == 0 {
				return
			}
		}
		v.add(IssueType, name, path, i18n.T(i18n.NoMatch, map[string]string{"field": humanize(name)}))

	case NodeConstrained:
		candidate := value
		if n.quals.AdditionalProperties {
			candidate = declaredOnly(n.inner, value)
		}
		before := len(v.errs)
		v.node(n.inner, candidate, path, name)
		if len(v.errs) > before {
			return
		}
		if msgs := evaluate(value, n.inner, n.quals, name); len(msgs) > 0 {
			v.add(IssueCondition, name, path, strings.Join(msgs, "; "))
		}

	case NodeArrayOf:
		list, ok := asSlice(value)
		if !ok {
			v.typeError(name, path, string(Array), value)
			return
		}
		for i, item := range list {
			if item == nil && n.inner.IsOptional() {
				continue
			}
			v.node(n.inner, item, append(slices.Clip(path), strconv.Itoa(i)), name)
		}

	case NodeObject:
		m, ok := asMap(value)
		if !ok {
			v.typeError(name, path, string(Object), value)
			return
		}
		for _, k := range n.keys {
			child := n.fields[k]
			fieldPath := append(slices.Clip(path), k)
			val, present := m[k]
			if !present {
				if !child.IsOptional() {
					v.add(IssueRequired, k, fieldPath, i18n.T(i18n.Required, map[string]string{"field": humanize(k)}))
				}
				continue
			}
			v.node(child, val, fieldPath, k)
		}
		v.unknownKeys(n, m, path, name)
	}
}

func (v *validator) unknownKeys(n *Node, m map[string]any, path []string, name string) {
	var unknown []string
	for k := range m {
		if _, ok := n.fields[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	slices.Sort(unknown)
	for _, k := range unknown {
		if len(path) == 0 {
			v.add(IssueType, k, []string{k}, i18n.T(i18n.UnknownField, map[string]string{"field": humanize(k)}))
			continue
		}
		v.add(IssueType, name, path, i18n.T(i18n.UnknownKey, map[string]string{"field": humanize(name), "key": k}))
	}
}

// declaredOnly drops the keys of value that base does not declare.
func declaredOnly(base *Node, value any) any {
	if base.kind != NodeObject {
		return value
	}
	m, ok := asMap(value)
	if !ok {
		return value
	}
	out := make(map[string]any, len(m))
	for k, val := range m {
		if _, declared := base.fields[k]; declared {
			out[k] = val
		}
	}
	return out
}
