package docskema

import (
	"fmt"
	"reflect"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/reoring/docskema/i18n"
)

// unit is what min and max count for a given base type.
type unit uint8

const (
	unitNone  unit = iota
	unitValue      // numeric value itself
	unitChars      // string length in characters
	unitItems      // array length
	unitProps      // object property count
)

// unitOf derives the counted unit from the base node, falling back to the
// runtime kind of v for untyped bases.
func unitOf(base *Node, v any) unit {
	switch base.kind {
	case NodePlain:
		switch base.typ {
		case String:
			return unitChars
		case Number, Integer, Decimal:
			return unitValue
		case Array:
			return unitItems
		case Object:
			return unitProps
		}
	case NodeArrayOf:
		return unitItems
	case NodeObject:
		return unitProps
	case NodeConstrained:
		return unitOf(base.inner, v)
	}
	switch {
	case v == nil:
		return unitNone
	case isNumber(v):
		return unitValue
	}
	if _, ok := v.(string); ok {
		return unitChars
	}
	if isArray(v) {
		return unitItems
	}
	if isObject(v) {
		return unitProps
	}
	return unitNone
}

func measure(v any, u unit) (float64, bool) {
	switch u {
	case unitValue:
		return toFloat(v)
	case unitChars:
		s, ok := v.(string)
		return float64(utf8.RuneCountInString(s)), ok
	case unitItems:
		list, ok := asSlice(v)
		return float64(len(list)), ok
	case unitProps:
		m, ok := asMap(v)
		return float64(len(m)), ok
	}
	return 0, false
}

var (
	minCodes = map[unit]string{unitValue: i18n.MinValue, unitChars: i18n.MinLength, unitItems: i18n.MinItems, unitProps: i18n.MinProps}
	maxCodes = map[unit]string{unitValue: i18n.MaxValue, unitChars: i18n.MaxLength, unitItems: i18n.MaxItems, unitProps: i18n.MaxProps}
)

// evaluate applies qualifiers to a value that already passed its structural
// check and returns one message per violated qualifier. field is the raw
// field name; generated messages humanize it, custom messages are verbatim.
func evaluate(value any, base *Node, q Qualifiers, field string) []string {
	var out []string
	label := humanize(field)
	data := func(kv ...string) map[string]string {
		m := map[string]string{"field": label}
		for i := 0; i+1 < len(kv); i += 2 {
			m[kv[i]] = kv[i+1]
		}
		return m
	}

	if q.Min != nil || q.Max != nil {
		u := unitOf(base, value)
		if n, ok := measure(value, u); ok {
			if q.Min != nil && n < q.Min.Value {
				switch {
				case q.Min.Message != "":
					out = append(out, q.Min.Message)
				case n < 1 && u != unitValue:
					out = append(out, i18n.T(i18n.Empty, data()))
				default:
					out = append(out, i18n.T(minCodes[u], data("min", formatNumber(q.Min.Value))))
				}
			}
			if q.Max != nil && n > q.Max.Value {
				if q.Max.Message != "" {
					out = append(out, q.Max.Message)
				} else {
					out = append(out, i18n.T(maxCodes[u], data("max", formatNumber(q.Max.Value))))
				}
			}
		}
	}

	if q.Regex != nil {
		s, ok := value.(string)
		if !ok {
			s = fmt.Sprint(value)
		}
		if !q.Regex.Re.MatchString(s) {
			out = append(out, orDefault(q.Regex.Message, i18n.Pattern, data("pattern", q.Regex.Re.String())))
		}
	}

	if q.Allow != nil && !allowed(value, q.Allow.Values) {
		out = append(out, orDefault(q.Allow.Message, i18n.NotAllowed, data()))
	}

	if q.Unique != nil {
		if list, ok := asSlice(value); ok && hasDuplicates(list) {
			out = append(out, orDefault(q.Unique.Message, i18n.NotUnique, data()))
		}
	}

	if q.Where != nil && q.Where.Check != nil {
		if err := q.Where.Check(value, Args{Qualifiers: q}); err != nil {
			out = append(out, err.Error())
		}
	}
	return out
}

func orDefault(custom, code string, data map[string]string) string {
	if custom != "" {
		return custom
	}
	return i18n.T(code, data)
}

// allowed tests enumeration membership: deep equality for structured values;
// direct or string-coerced equality for scalars, which may also be listed
// inside an array-valued entry.
func allowed(v any, values []any) bool {
	structured := isArray(v) || isObject(v)
	for _, a := range values {
		if structured {
			if deepEqual(v, a) {
				return true
			}
			continue
		}
		if scalarEqual(v, a) {
			return true
		}
		if list, ok := asSlice(a); ok {
			for _, e := range list {
				if scalarEqual(v, e) {
					return true
				}
			}
		}
	}
	return false
}

func scalarEqual(a, b any) bool {
	if isArray(b) || isObject(b) {
		return false
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra, rb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ra == rb && ra.Comparable() && a == b {
		return true
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// deepEqual compares structured values, treating numbers of different Go
// types as equal when their values are.
func deepEqual(a, b any) bool {
	if la, ok := asSlice(a); ok {
		lb, ok := asSlice(b)
		if !ok || len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !deepEqual(la[i], lb[i]) {
				return false
			}
		}
		return true
	}
	if ma, ok := asMap(a); ok {
		mb, ok := asMap(b)
		if !ok || len(ma) != len(mb) {
			return false
		}
		for k, va := range ma {
			vb, ok := mb[k]
			if !ok || !deepEqual(va, vb) {
				return false
			}
		}
		return true
	}
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func hasDuplicates(list []any) bool {
	for i := 1; i < len(list); i++ {
		for j := 0; j < i; j++ {
			if deepEqual(list[i], list[j]) {
				return true
			}
		}
	}
	return false
}

func formatNumber(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// humanize turns a field name into a label: camel-case boundaries become
// spaces and the first letter is capitalized (firstName -> First Name).
func humanize(name string) string {
	if name == "" {
		return "Value"
	}
	rs := []rune(name)
	out := make([]rune, 0, len(rs)+4)
	for i, r := range rs {
		if i > 0 && unicode.IsUpper(r) && (unicode.IsLower(rs[i-1]) || unicode.IsDigit(rs[i-1])) {
			out = append(out, ' ')
		}
		out = append(out, r)
	}
	out[0] = unicode.ToUpper(out[0])
	return string(out)
}
