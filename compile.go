package docskema

import (
	"fmt"
	"math"

	js "github.com/reoring/docskema/jsonschema"
)

// typeSchema returns the backend schema of a built-in type tag. It accepts
// the same values as the matcher of the tag, so whole doubles count as
// integers and object ids may arrive as hex strings.
func typeSchema(t Type) (*js.Schema, bool) {
	switch t {
	case String, Date, Object, Array:
		return &js.Schema{BSONType: string(t)}, true
	case Number:
		return &js.Schema{BSONType: "number"}, true
	case Boolean:
		return &js.Schema{BSONType: "bool"}, true
	case Integer:
		return &js.Schema{BSONType: []string{"int", "long", "double"}, MultipleOf: floatPtr(1)}, true
	case Decimal:
		return &js.Schema{BSONType: []string{"decimal", "double", "int", "long"}}, true
	case ObjectID:
		return &js.Schema{BSONType: []string{"objectId", "string"}, Pattern: objectIDPattern.String()}, true
	case UUID:
		return &js.Schema{BSONType: []string{"binData", "string"}, Pattern: uuidPattern.String()}, true
	case Any:
		return &js.Schema{}, true
	}
	return nil, false
}

// Compile translates a schema description into a backend validator schema.
// The where qualifier has no backend representation and is dropped.
func Compile(desc Fields) (*js.Schema, error) {
	s, err := Shape(desc)
	if err != nil {
		return nil, err
	}
	return CompileShape(s)
}

// CompileShape compiles an already shaped schema.
func CompileShape(s *Shaped) (*js.Schema, error) {
	if s == nil {
		return nil, ErrNilSchema
	}
	c := compiler{additional: CurrentConfig().AdditionalTypes}
	return c.node(s.Root)
}

type compiler struct {
	additional map[string]string
}

func (c compiler) node(n *Node) (*js.Schema, error) {
	switch n.kind {
	case NodePlain:
		return c.plain(n.typ), nil
	case NodeOptional:
		return c.node(n.inner)
	case NodeAnyOf:
		out := &js.Schema{AnyOf: make([]*js.Schema, 0, len(n.alts))}
		for _, a := range n.alts {
			s, err := c.node(a)
			if err != nil {
				return nil, err
			}
			out.AnyOf = append(out.AnyOf, s)
		}
		return out, nil
	case NodeArrayOf:
		items, err := c.node(n.inner)
		if err != nil {
			return nil, err
		}
		out := &js.Schema{BSONType: "array", Items: items}
		if n.inner.IsOptional() {
			items.AllowNull()
			out.MinItems = intPtr(0)
		}
		return out, nil
	case NodeObject:
		props := make(map[string]*js.Schema, len(n.keys))
		req := make([]string, 0, len(n.keys))
		for _, k := range n.keys { // sorted
			f := n.fields[k]
			s, err := c.node(f)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			props[k] = s
			if !f.IsOptional() {
				req = append(req, k)
			}
		}
		return &js.Schema{BSONType: "object", Properties: props, Required: req, AdditionalProperties: boolPtr(false)}, nil
	case NodeConstrained:
		return c.constrained(n)
	}
	return nil, fmt.Errorf("%w: node kind %s", ErrInvalidShape, n.kind)
}

func (c compiler) plain(t Type) *js.Schema {
	if s, ok := typeSchema(t); ok {
		return s
	}
	if tag, ok := c.additional[string(t)]; ok && tag != "" {
		return &js.Schema{BSONType: tag}
	}
	return &js.Schema{}
}

func (c compiler) constrained(n *Node) (*js.Schema, error) {
	s, err := c.node(n.inner)
	if err != nil {
		return nil, err
	}
	q := n.quals
	switch unitOf(n.inner, nil) {
	case unitValue:
		if q.Min != nil {
			s.Minimum = floatPtr(q.Min.Value)
		}
		if q.Max != nil {
			s.Maximum = floatPtr(q.Max.Value)
		}
	case unitChars:
		s.MinLength, s.MaxLength = boundInt(q.Min, math.Ceil), boundInt(q.Max, math.Floor)
	case unitItems:
		s.MinItems, s.MaxItems = boundInt(q.Min, math.Ceil), boundInt(q.Max, math.Floor)
	case unitProps:
		s.MinProperties, s.MaxProperties = boundInt(q.Min, math.Ceil), boundInt(q.Max, math.Floor)
	}
	if q.Regex != nil {
		if s.Pattern != "" {
			// the type already pins a pattern; both must hold
			s.AllOf = append(s.AllOf, &js.Schema{Pattern: q.Regex.Re.String()})
		} else {
			s.Pattern = q.Regex.Re.String()
		}
	}
	if q.Allow != nil {
		s.Enum = enumValues(n.inner, q.Allow.Values)
	}
	if q.Unique != nil {
		s.UniqueItems = true
	}
	if q.AdditionalProperties && s.Properties != nil {
		s.AdditionalProperties = boolPtr(true)
	}
	return s, nil
}

// enumValues flattens array-valued entries for scalar bases, matching how
// the validator accepts a scalar listed inside an array entry.
func enumValues(base *Node, values []any) []any {
	if base.kind == NodeArrayOf || base.kind == NodeObject || (base.kind == NodePlain && (base.typ == Array || base.typ == Object)) {
		return append([]any(nil), values...)
	}
	out := make([]any, 0, len(values))
	for _, v := range values {
		if list, ok := asSlice(v); ok {
			out = append(out, list...)
			continue
		}
		out = append(out, v)
	}
	return out
}

// boundInt converts a count bound to the integer the validator enforces:
// a fractional min rounds up and a fractional max rounds down.
func boundInt(b *Bound, round func(float64) float64) *int {
	if b == nil {
		return nil
	}
	return intPtr(int(round(b.Value)))
}

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }

func boolPtr(b bool) *bool { return &b }
