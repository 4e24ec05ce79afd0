package docskema

import (
	"fmt"
	"slices"
	"strings"
)

// DependencyRule is a where predicate deferred until structural validation
// succeeds because it reads sibling fields.
type DependencyRule struct {
	// Path lists the real field names from the document root to the
	// constrained field. Optional, alternative and array levels are skipped.
	Path []string
	// DependsOn lists sibling field names read by the predicate.
	DependsOn []string
	Check     Predicate
	// Qualifiers are the other qualifiers of the field, passed to Check.
	Qualifiers Qualifiers
	// Each is set when the predicate is attached to the elements of an
	// array field rather than to the field itself.
	Each bool
}

// Key returns the dotted path of the rule.
func (r DependencyRule) Key() string { return strings.Join(r.Path, ".") }

// Shaped is a compiled validation pattern: the canonical shape of a schema
// description plus the dependency rules found while shaping it.
type Shaped struct {
	Root    *Node
	Rules   []DependencyRule
	Partial bool // Built in optionalize (deep-partial) mode.

	desc     Fields
	identity string
}

// Description returns the description the shape was built from.
func (s *Shaped) Description() Fields { return s.desc }

// DeepPartial shapes the same description in optionalize mode. It returns
// the receiver when it is already deep-partial.
func (s *Shaped) DeepPartial() (*Shaped, error) {
	if s.Partial {
		return s, nil
	}
	return Shape(s.desc, WithOptionalize())
}

type shapeOptions struct {
	optionalize bool
}

// ShapeOption configures Shape.
type ShapeOption func(*shapeOptions)

// WithOptionalize builds the deep-partial variant: every field at every
// depth is optional.
func WithOptionalize() ShapeOption {
	return func(o *shapeOptions) { o.optionalize = true }
}

// Shape normalizes a schema description into its canonical shape.
func Shape(desc Fields, opts ...ShapeOption) (*Shaped, error) {
	if desc == nil {
		return nil, ErrNilSchema
	}
	var o shapeOptions
	for _, opt := range opts {
		opt(&o)
	}
	cfg := CurrentConfig()
	s := &shaper{types: snapshotTypes(), optionalize: o.optionalize}
	fields, err := s.shapeFields(desc, nil)
	if err != nil {
		return nil, err
	}
	if _, declared := fields[cfg.IdentityField]; !declared && cfg.IdentityField != "" {
		idType := Type(cfg.IdentityType)
		if !s.types.known(idType) {
			return nil, fmt.Errorf("%w: identity type %q", ErrUnknownType, cfg.IdentityType)
		}
		fields[cfg.IdentityField] = OptionalNode(PlainNode(idType))
	}
	return &Shaped{
		Root:     ObjectNode(fields),
		Rules:    s.rules,
		Partial:  o.optionalize,
		desc:     desc,
		identity: cfg.IdentityField,
	}, nil
}

// MustShape is like Shape but panics on a malformed description.
func MustShape(desc Fields, opts ...ShapeOption) *Shaped {
	s, err := Shape(desc, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

type shaper struct {
	types       typeTable
	optionalize bool
	rules       []DependencyRule
}

func (s *shaper) shapeFields(m map[string]any, path []string) (map[string]*Node, error) {
	out := make(map[string]*Node, len(m))
	for k, v := range m {
		n, err := s.shapeField(v, append(slices.Clip(path), k))
		if err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, nil
}

// shapeField shapes the value of an object field and applies optionalize.
func (s *shaper) shapeField(v any, path []string) (*Node, error) {
	n, err := s.shapeValue(v, path, false)
	if err != nil {
		return nil, err
	}
	if s.optionalize {
		return OptionalNode(n), nil
	}
	return n, nil
}

// shapeValue applies the grammar rules in precedence order. inArray is set
// for the element description of an array literal.
func (s *shaper) shapeValue(v any, path []string, inArray bool) (*Node, error) {
	switch t := v.(type) {
	case OptionalField:
		inner, err := s.shapeValue(t.Inner, path, inArray)
		if err != nil {
			return nil, err
		}
		return OptionalNode(inner), nil
	case Alternatives:
		if len(t.Options) == 0 {
			return nil, fmt.Errorf("%w at %s: AnyOf needs at least one option", ErrInvalidShape, dotted(path))
		}
		alts := make([]*Node, 0, len(t.Options))
		branches := make([]anyOfBranch, 0, len(t.Options))
		for _, opt := range t.Options {
			first := len(s.rules)
			a, err := s.shapeValue(opt, path, inArray)
			if err != nil {
				return nil, err
			}
			alts = append(alts, a)
			branches = append(branches, anyOfBranch{node: a, rules: slices.Clone(s.rules[first:])})
			s.rules = s.rules[:first]
		}
		if err := s.anyOfRules(branches, path, inArray); err != nil {
			return nil, err
		}
		return AnyOfNode(alts...), nil
	case Type:
		return s.plain(t, path)
	case string:
		return s.plain(Type(t), path)
	}
	if m, ok := asMap(v); ok {
		if _, hasType := m[KeyType]; hasType && onlyQualifiers(m) {
			return s.shapeConstrained(m, path, inArray)
		}
		fields, err := s.shapeFields(m, path)
		if err != nil {
			return nil, err
		}
		return ObjectNode(fields), nil
	}
	if list, ok := asSlice(v); ok {
		if len(list) == 0 {
			return ArrayNode(PlainNode(Any)), nil
		}
		elem, err := s.shapeValue(list[0], path, true)
		if err != nil {
			return nil, err
		}
		if isArray(list[0]) {
			// array of raw type-lists keeps its nesting as a constrained array
			return ConstrainedNode(ArrayNode(elem), Qualifiers{}), nil
		}
		return ArrayNode(elem), nil
	}
	return nil, fmt.Errorf("%w at %s: unsupported leaf %T", ErrInvalidShape, dotted(path), v)
}

// onlyQualifiers resolves the constrained-field ambiguity: a mapping with a
// "type" key is a constrained field only when every other key is a
// qualifier. Otherwise it is a nested object that has a field named type.
func onlyQualifiers(m map[string]any) bool {
	for k := range m {
		if k != KeyType && !isQualifierKey(k) {
			return false
		}
	}
	return true
}

func (s *shaper) shapeConstrained(m map[string]any, path []string, inArray bool) (*Node, error) {
	base, err := s.shapeValue(m[KeyType], path, inArray)
	if err != nil {
		return nil, err
	}
	optional := base.IsOptional()
	base = base.unwrap()

	conds := make(map[string]any, len(m)-1)
	for k, v := range m {
		if k != KeyType {
			conds[k] = v
		}
	}
	node := base
	if len(conds) > 0 {
		q, err := parseQualifiers(conds)
		if err != nil {
			return nil, fmt.Errorf("at %s: %w", dotted(path), err)
		}
		if q.Where != nil {
			if deps := siblingDeps(q.Where.DependsOn, path); len(deps) > 0 {
				rest := q.withoutWhere()
				s.rules = append(s.rules, DependencyRule{
					Path:       slices.Clone(path),
					DependsOn:  deps,
					Check:      q.Where.Check,
					Qualifiers: rest,
					Each:       inArray,
				})
				q = rest
			}
		}
		if !q.IsZero() {
			node = ConstrainedNode(base, q)
		}
	}
	if optional {
		return OptionalNode(node), nil
	}
	return node, nil
}

type anyOfBranch struct {
	node  *Node
	rules []DependencyRule
}

// anyOfRules folds the dependency rules declared on AnyOf alternatives into
// a single rule. It passes when some alternative accepts the value and every
// rule of that alternative holds. Rules must sit on the alternative itself,
// not on a field nested inside it.
func (s *shaper) anyOfRules(branches []anyOfBranch, path []string, inArray bool) error {
	var deps []string
	found := false
	for _, b := range branches {
		for _, r := range b.rules {
			if len(r.Path) != len(path) || (r.Each && !inArray) {
				return fmt.Errorf("%w at %s: a where with dependencies must be declared on the AnyOf alternative itself", ErrInvalidShape, dotted(path))
			}
			for _, d := range r.DependsOn {
				if !slices.Contains(deps, d) {
					deps = append(deps, d)
				}
			}
			found = true
		}
	}
	if !found {
		return nil
	}
	types := s.types
	check := func(value any, args Args) error {
		var first error
		for _, b := range branches {
			if !accepts(types, b.node, value) {
				continue
			}
			err := runRules(b.rules, value, args.Deps)
			if err == nil {
				return nil
			}
			if first == nil {
				first = err
			}
		}
		return first
	}
	s.rules = append(s.rules, DependencyRule{
		Path:      slices.Clone(path),
		DependsOn: deps,
		Check:     check,
		Each:      inArray,
	})
	return nil
}

func runRules(rules []DependencyRule, value any, deps map[string]any) error {
	for _, r := range rules {
		if err := r.Check(value, Args{Qualifiers: r.Qualifiers, Deps: deps}); err != nil {
			return err
		}
	}
	return nil
}

// siblingDeps drops the constrained field's own name from a dependency list.
func siblingDeps(deps []string, path []string) []string {
	self := ""
	if len(path) > 0 {
		self = path[len(path)-1]
	}
	var out []string
	for _, d := range deps {
		if d != "" && d != self && !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	return out
}

func (s *shaper) plain(t Type, path []string) (*Node, error) {
	if !s.types.known(t) {
		return nil, fmt.Errorf("%w %q at %s", ErrUnknownType, string(t), dotted(path))
	}
	return PlainNode(t), nil
}

func dotted(path []string) string {
	if len(path) == 0 {
		return "."
	}
	return strings.Join(path, ".")
}
