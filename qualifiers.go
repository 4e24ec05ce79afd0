package docskema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Bound is a parsed min or max qualifier.
type Bound struct {
	Value   float64
	Message string // Custom message; empty means generated.
}

// Pattern is a parsed regex qualifier.
type Pattern struct {
	Re      *regexp.Regexp
	Message string
}

// Enum is a parsed allow qualifier.
type Enum struct {
	Values  []any
	Message string
}

// Uniqueness is a parsed unique qualifier.
type Uniqueness struct {
	Message string
}

// Qualifiers are the normalized constraints of a constrained field. Nil
// members are absent.
type Qualifiers struct {
	Min                  *Bound
	Max                  *Bound
	Regex                *Pattern
	Allow                *Enum
	Unique               *Uniqueness
	Where                *WhereClause
	AdditionalProperties bool
}

// IsZero reports whether no qualifier is set.
func (q Qualifiers) IsZero() bool {
	return q.Min == nil && q.Max == nil && q.Regex == nil && q.Allow == nil &&
		q.Unique == nil && q.Where == nil && !q.AdditionalProperties
}

// withoutWhere returns a copy with the where predicate removed.
func (q Qualifiers) withoutWhere() Qualifiers {
	q.Where = nil
	return q
}

func (q Qualifiers) String() string {
	var parts []string
	if q.Min != nil {
		parts = append(parts, fmt.Sprintf("min=%v", q.Min.Value))
	}
	if q.Max != nil {
		parts = append(parts, fmt.Sprintf("max=%v", q.Max.Value))
	}
	if q.Regex != nil {
		parts = append(parts, "regex="+q.Regex.Re.String())
	}
	if q.Allow != nil {
		parts = append(parts, fmt.Sprintf("allow=%v", q.Allow.Values))
	}
	if q.Unique != nil {
		parts = append(parts, "unique")
	}
	if q.Where != nil {
		parts = append(parts, "where")
	}
	if q.AdditionalProperties {
		parts = append(parts, "additionalProperties")
	}
	return strings.Join(parts, ",")
}

// parseQualifiers converts the raw qualifier values of a constrained field.
// Every key must be a qualifier key; callers resolve ambiguity first.
func parseQualifiers(raw map[string]any) (Qualifiers, error) {
	var q Qualifiers
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := raw[k]
		var err error
		switch k {
		case KeyMin:
			q.Min, err = parseBound(v)
		case KeyMax:
			q.Max, err = parseBound(v)
		case KeyRegex:
			q.Regex, err = parsePattern(v)
		case KeyAllow:
			q.Allow, err = parseEnum(v)
		case KeyUnique:
			q.Unique, err = parseUnique(v)
		case KeyWhere:
			q.Where, err = parseWhere(v)
		case KeyAdditionalProperties:
			b, ok := v.(bool)
			if !ok {
				err = fmt.Errorf("expected bool, got %T", v)
			}
			q.AdditionalProperties = b
		default:
			err = fmt.Errorf("not a qualifier")
		}
		if err != nil {
			return Qualifiers{}, fmt.Errorf("%w %q: %v", ErrInvalidQualifier, k, err)
		}
	}
	return q, nil
}

// splitMessage separates a [constraint, message] pair.
func splitMessage(v any) (any, string) {
	list, ok := asSlice(v)
	if !ok || len(list) != 2 {
		return v, ""
	}
	msg, ok := list[1].(string)
	if !ok {
		return v, ""
	}
	return list[0], msg
}

func parseBound(v any) (*Bound, error) {
	c, msg := splitMessage(v)
	f, ok := toFloat(c)
	if !ok {
		return nil, fmt.Errorf("expected number, got %T", c)
	}
	return &Bound{Value: f, Message: msg}, nil
}

func parsePattern(v any) (*Pattern, error) {
	c, msg := splitMessage(v)
	switch t := c.(type) {
	case *regexp.Regexp:
		if t == nil {
			return nil, fmt.Errorf("nil regexp")
		}
		return &Pattern{Re: t, Message: msg}, nil
	case string:
		re, err := regexp.Compile(t)
		if err != nil {
			return nil, err
		}
		return &Pattern{Re: re, Message: msg}, nil
	}
	return nil, fmt.Errorf("expected pattern, got %T", c)
}

// parseEnum applies the custom message heuristic: when the list holds at
// least one array-valued entry and ends with a bare string, that string is
// the message and not an allowed value.
func parseEnum(v any) (*Enum, error) {
	list, ok := asSlice(v)
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	n := len(list)
	if n >= 2 {
		if msg, ok := list[n-1].(string); ok {
			for _, e := range list[:n-1] {
				if isArray(e) {
					return &Enum{Values: append([]any(nil), list[:n-1]...), Message: msg}, nil
				}
			}
		}
	}
	return &Enum{Values: append([]any(nil), list...)}, nil
}

func parseUnique(v any) (*Uniqueness, error) {
	c, msg := splitMessage(v)
	b, ok := c.(bool)
	if !ok {
		return nil, fmt.Errorf("expected bool, got %T", c)
	}
	if !b {
		return nil, nil
	}
	return &Uniqueness{Message: msg}, nil
}

func parseWhere(v any) (*WhereClause, error) {
	switch t := v.(type) {
	case WhereClause:
		if t.Check == nil {
			return nil, fmt.Errorf("nil predicate")
		}
		return &t, nil
	case *WhereClause:
		if t == nil || t.Check == nil {
			return nil, fmt.Errorf("nil predicate")
		}
		w := *t
		return &w, nil
	case Predicate:
		if t == nil {
			return nil, fmt.Errorf("nil predicate")
		}
		return &WhereClause{Check: t}, nil
	case func(any, Args) error:
		if t == nil {
			return nil, fmt.Errorf("nil predicate")
		}
		return &WhereClause{Check: t}, nil
	case func(any) error:
		if t == nil {
			return nil, fmt.Errorf("nil predicate")
		}
		return &WhereClause{Check: func(value any, _ Args) error { return t(value) }}, nil
	}
	return nil, fmt.Errorf("expected predicate, got %T", v)
}
