// Package rules provides ready-made where predicates for common
// cross-field and collection checks.
package rules

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/reoring/docskema"
)

// Op defines comparison operators.
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

func (o Op) String() string {
	switch o {
	case Eq:
		return "equal to"
	case Ne:
		return "different from"
	case Lt:
		return "less than"
	case Le:
		return "at most"
	case Gt:
		return "greater than"
	case Ge:
		return "at least"
	}
	return "?"
}

// Compare checks the constrained value against a sibling field, e.g.
// Compare(Ge, "subtotal", "") on total requires total >= subtotal. The
// check passes when the sibling is absent. An empty message is generated.
func Compare(op Op, dep, message string) docskema.WhereClause {
	return docskema.Where(func(v any, args docskema.Args) error {
		other, ok := lookup(args.Deps, dep)
		if !ok || other == nil {
			return nil
		}
		if compare(v, op, other) {
			return nil
		}
		if message == "" {
			return fmt.Errorf("must be %s %s", op, dep)
		}
		return errors.New(message)
	}, root(dep))
}

// CompareValue checks the constrained value against a constant.
func CompareValue(op Op, want any, message string) docskema.Predicate {
	return func(v any, _ docskema.Args) error {
		if compare(v, op, want) {
			return nil
		}
		if message == "" {
			return fmt.Errorf("must be %s %v", op, want)
		}
		return errors.New(message)
	}
}

// Conditional is a condition over sibling fields.
type Conditional struct {
	path string
	op   Op
	want any
	all  []Conditional // composite AND
	some []Conditional // composite OR
}

// If builds a conditional comparing a sibling field with want. path may be
// dotted to reach into a nested sibling (address.country).
func If(path string, op Op, want any) Conditional {
	return Conditional{path: strings.Trim(path, "."), op: op, want: want}
}

// IfAll builds a conditional that requires all conditions to hold.
func IfAll(conds ...Conditional) Conditional { return Conditional{all: conds} }

// IfAny builds a conditional that requires any condition to hold.
func IfAny(conds ...Conditional) Conditional { return Conditional{some: conds} }

// And combines the receiver with additional conditions using logical AND.
func (c Conditional) And(others ...Conditional) Conditional {
	return IfAll(append([]Conditional{c}, others...)...)
}

// Or combines the receiver with additional conditions using logical OR.
func (c Conditional) Or(others ...Conditional) Conditional {
	return IfAny(append([]Conditional{c}, others...)...)
}

// Then runs preds on the constrained value only while the condition holds.
func (c Conditional) Then(preds ...docskema.Predicate) docskema.WhereClause {
	check := All(preds...)
	return docskema.Where(func(v any, args docskema.Args) error {
		if !c.eval(args.Deps) {
			return nil
		}
		return check(v, args)
	}, c.deps()...)
}

func (c Conditional) eval(deps map[string]any) bool {
	if len(c.all) > 0 {
		for _, it := range c.all {
			if !it.eval(deps) {
				return false
			}
		}
		return true
	}
	if len(c.some) > 0 {
		for _, it := range c.some {
			if it.eval(deps) {
				return true
			}
		}
		return false
	}
	cur, ok := lookup(deps, c.path)
	if !ok {
		return false
	}
	return compare(cur, c.op, c.want)
}

func (c Conditional) deps() []string {
	var out []string
	if c.path != "" {
		out = append(out, root(c.path))
	}
	for _, it := range append(append([]Conditional(nil), c.all...), c.some...) {
		out = append(out, it.deps()...)
	}
	return out
}

// Required fails when the value is nil or an empty string.
func Required(message string) docskema.Predicate {
	return func(v any, _ docskema.Args) error {
		if s, ok := v.(string); v == nil || (ok && s == "") {
			return errors.New(orDefault(message, "is required"))
		}
		return nil
	}
}

// AtLeastOne fails when the value is an empty collection.
func AtLeastOne(message string) docskema.Predicate {
	return func(v any, _ docskema.Args) error {
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			if rv.Len() == 0 {
				return errors.New(orDefault(message, "at least 1 item is required"))
			}
		}
		return nil
	}
}

// UniqueBy fails when two elements of an array of objects share the value
// at keyPath (dotted, relative to the element).
func UniqueBy(keyPath, message string) docskema.Predicate {
	kp := strings.Trim(keyPath, ".")
	return func(v any, _ docskema.Args) error {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil
		}
		seen := map[string]int{}
		for i := 0; i < rv.Len(); i++ {
			elem, ok := rv.Index(i).Interface().(map[string]any)
			if !ok {
				continue
			}
			kv, ok := lookup(elem, kp)
			if !ok {
				continue
			}
			key := fmt.Sprint(kv)
			if j, dup := seen[key]; dup {
				if message != "" {
					return errors.New(message)
				}
				return fmt.Errorf("duplicate %s %q at %d and %d", kp, key, j, i)
			}
			seen[key] = i
		}
		return nil
	}
}

// All runs every predicate and joins their failures into one error.
func All(preds ...docskema.Predicate) docskema.Predicate {
	return func(v any, args docskema.Args) error {
		var msgs []string
		for _, p := range preds {
			if p == nil {
				continue
			}
			if err := p(v, args); err != nil {
				msgs = append(msgs, err.Error())
			}
		}
		if len(msgs) == 0 {
			return nil
		}
		return errors.New(strings.Join(msgs, "; "))
	}
}

// Any succeeds if any predicate succeeds. When all fail, the first failure
// is returned.
func Any(preds ...docskema.Predicate) docskema.Predicate {
	return func(v any, args docskema.Args) error {
		var first error
		for _, p := range preds {
			if p == nil {
				continue
			}
			err := p(v, args)
			if err == nil {
				return nil
			}
			if first == nil {
				first = err
			}
		}
		return first
	}
}

// ------- helpers -------

func orDefault(msg, def string) string {
	if msg != "" {
		return msg
	}
	return def
}

func root(path string) string {
	head, _, _ := strings.Cut(path, ".")
	return head
}

// lookup navigates nested maps by a dotted path.
func lookup(m map[string]any, path string) (any, bool) {
	var cur any = m
	for _, seg := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func compare(cur any, op Op, want any) bool {
	switch op {
	case Eq:
		return equal(cur, want)
	case Ne:
		return !equal(cur, want)
	case Lt, Le, Gt, Ge:
		c, ok := order(cur, want)
		if !ok {
			return false
		}
		switch op {
		case Lt:
			return c < 0
		case Le:
			return c <= 0
		case Gt:
			return c > 0
		default:
			return c >= 0
		}
	}
	return false
}

func equal(a, b any) bool {
	if fa, ok := toFloat64(a); ok {
		fb, ok := toFloat64(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// order compares numbers, strings and times. ok is false for other or
// mismatched kinds.
func order(a, b any) (int, bool) {
	if fa, ok := toFloat64(a); ok {
		fb, ok := toFloat64(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return strings.Compare(x, y), ok
	case time.Time:
		y, ok := b.(time.Time)
		return x.Compare(y), ok
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
