package docskema

// Fields is a schema description: a nested mapping from field names to
// leaves. A leaf is a Type (or a string naming one), a nested Fields, an
// array literal ([]any{T} for a homogeneous array of T), a constrained field
// (a mapping with a "type" key plus qualifier keys), or a marker built by
// Optional or AnyOf.
type Fields = map[string]any

// Keys of a constrained field.
const (
	KeyType                 = "type"
	KeyMin                  = "min"
	KeyMax                  = "max"
	KeyRegex                = "regex"
	KeyAllow                = "allow"
	KeyUnique               = "unique"
	KeyWhere                = "where"
	KeyAdditionalProperties = "additionalProperties"
)

var qualifierKeys = map[string]struct{}{
	KeyMin: {}, KeyMax: {}, KeyRegex: {}, KeyAllow: {}, KeyUnique: {}, KeyWhere: {}, KeyAdditionalProperties: {},
}

// QualifierKeys returns the allowed qualifier keys of a constrained field.
func QualifierKeys() []string {
	return []string{KeyMin, KeyMax, KeyRegex, KeyAllow, KeyUnique, KeyWhere, KeyAdditionalProperties}
}

func isQualifierKey(k string) bool {
	_, ok := qualifierKeys[k]
	return ok
}

// OptionalField marks a field that may be absent.
type OptionalField struct{ Inner any }

// Optional marks v as optional. Wrapping an already optional value returns it
// unchanged.
func Optional(v any) OptionalField {
	if o, ok := v.(OptionalField); ok {
		return o
	}
	return OptionalField{Inner: v}
}

// Alternatives marks a field that must match at least one of several
// descriptions.
type Alternatives struct{ Options []any }

// AnyOf builds an alternatives marker.
func AnyOf(options ...any) Alternatives {
	return Alternatives{Options: append([]any(nil), options...)}
}

// Msg pairs a constraint with a custom message, e.g. Msg(2, "too short")
// as the value of "min". It is the Go spelling of [constraint, message].
func Msg(constraint any, message string) []any {
	return []any{constraint, message}
}

// Args is passed to where predicates.
type Args struct {
	// Qualifiers are the sibling qualifiers of the constrained field.
	Qualifiers Qualifiers
	// Deps holds the values of the fields listed in WhereClause.DependsOn,
	// read from the object that holds the constrained field. Absent
	// fields are reported as nil.
	Deps map[string]any
}

// Dep returns the value of a dependency field.
func (a Args) Dep(name string) any { return a.Deps[name] }

// Predicate is a custom condition. Returning a non-nil error is the only way
// to fail; its message is reported verbatim.
type Predicate func(value any, args Args) error

// WhereClause is a predicate together with the sibling fields it reads.
// When DependsOn names fields other than the constrained field itself, the
// predicate is deferred to the dependency rule engine and runs after
// structural validation.
type WhereClause struct {
	Check     Predicate
	DependsOn []string
}

// Where builds a where clause that depends on the named sibling fields.
func Where(check Predicate, dependsOn ...string) WhereClause {
	return WhereClause{Check: check, DependsOn: append([]string(nil), dependsOn...)}
}
