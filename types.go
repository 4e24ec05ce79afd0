package docskema

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type is a bare type tag used as a leaf of a schema description.
type Type string

const (
	String   Type = "string"
	Number   Type = "number"
	Integer  Type = "integer"
	Boolean  Type = "boolean"
	Date     Type = "date"     // time.Time or *time.Time.
	Object   Type = "object"   // Any map with string keys.
	Array    Type = "array"    // Any slice or array.
	Any      Type = "any"      // Arbitrary value, including nil.
	ObjectID Type = "objectId" // 24 hex characters, or a value with Hex() string.
	Decimal  Type = "decimal"  // Any numeric value, json.Number, *big.Float or *big.Rat.
	UUID     Type = "uuid"     // uuid.UUID or a canonical 8-4-4-4-12 hex string.
)

// Matcher reports whether a runtime value belongs to a type.
type Matcher func(v any) bool

var builtinTypes = map[Type]Matcher{
	String:   func(v any) bool { _, ok := v.(string); return ok },
	Number:   isNumber,
	Integer:  isInteger,
	Boolean:  func(v any) bool { _, ok := v.(bool); return ok },
	Date:     isDate,
	Object:   isObject,
	Array:    isArray,
	Any:      func(any) bool { return true },
	ObjectID: isObjectID,
	Decimal:  isDecimal,
	UUID:     isUUID,
}

var (
	typesMu     sync.RWMutex
	customTypes = map[Type]Matcher{}
)

// RegisterType adds a caller-defined type tag. Registering an existing
// built-in name is an error; re-registering a custom name replaces it.
func RegisterType(name string, match Matcher) (Type, error) {
	t := Type(name)
	if name == "" || match == nil {
		return "", fmt.Errorf("%w: empty name or nil matcher", ErrUnknownType)
	}
	if isBuiltin(t) {
		return "", fmt.Errorf("%w: %q is a built-in type", ErrUnknownType, name)
	}
	typesMu.Lock()
	customTypes[t] = match
	typesMu.Unlock()
	return t, nil
}

// InstanceOf registers (once) and returns a type tag matching values whose
// dynamic type is T, e.g. a driver's identity type.
func InstanceOf[T any]() Type {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	t := Type(rt.String())
	typesMu.Lock()
	defer typesMu.Unlock()
	if _, ok := customTypes[t]; !ok {
		customTypes[t] = func(v any) bool {
			if v == nil {
				return false
			}
			vt := reflect.TypeOf(v)
			return vt == rt || (rt.Kind() == reflect.Interface && vt.Implements(rt))
		}
	}
	return t
}

// typeTable is an immutable snapshot of the type registry taken at the start
// of a shaping or validation run.
type typeTable map[Type]Matcher

func snapshotTypes() typeTable {
	typesMu.RLock()
	defer typesMu.RUnlock()
	out := make(typeTable, len(builtinTypes)+len(customTypes))
	for k, v := range builtinTypes {
		out[k] = v
	}
	for k, v := range customTypes {
		out[k] = v
	}
	return out
}

func (tt typeTable) known(t Type) bool {
	_, ok := tt[t]
	return ok
}

func (tt typeTable) match(t Type, v any) bool {
	m, ok := tt[t]
	if !ok {
		return false
	}
	return m(v)
}

func isBuiltin(t Type) bool {
	_, ok := builtinTypes[t]
	return ok
}

// ---- matchers ----

func isNumber(v any) bool {
	_, ok := toFloat(v)
	return ok
}

func isInteger(v any) bool {
	switch t := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return true
		}
	}
	f, ok := toFloat(v)
	return ok && !math.IsInf(f, 0) && f == math.Trunc(f)
}

func isDecimal(v any) bool {
	switch t := v.(type) {
	case *big.Float:
		return t != nil
	case *big.Rat:
		return t != nil
	}
	return isNumber(v)
}

func isDate(v any) bool {
	switch t := v.(type) {
	case time.Time:
		return true
	case *time.Time:
		return t != nil
	}
	return false
}

func isObject(v any) bool {
	_, ok := asMap(v)
	return ok
}

func isArray(v any) bool {
	_, ok := asSlice(v)
	return ok
}

var (
	objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	uuidPattern     = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

type hexer interface{ Hex() string }

func isObjectID(v any) bool {
	switch t := v.(type) {
	case string:
		return objectIDPattern.MatchString(t)
	case hexer:
		return objectIDPattern.MatchString(t.Hex())
	}
	return false
}

func isUUID(v any) bool {
	switch t := v.(type) {
	case uuid.UUID:
		return true
	case string:
		return uuidPattern.MatchString(t) && uuid.Validate(t) == nil
	}
	return false
}

// toFloat converts any Go numeric value (and json.Number) to float64.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t)
	case float32:
		return float64(t), !math.IsNaN(float64(t))
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case *big.Float:
		if t == nil {
			return 0, false
		}
		f, _ := t.Float64()
		return f, true
	case *big.Rat:
		if t == nil {
			return 0, false
		}
		f, _ := t.Float64()
		return f, true
	}
	return 0, false
}

// asMap returns v as map[string]any, converting other string-keyed maps.
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

// asSlice returns v as []any, converting other slice and array kinds.
// Fixed-size arrays with a text form (uuid.UUID, driver object ids) are
// scalars.
func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case nil, string, []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if _, ok := v.(fmt.Stringer); ok && rv.Kind() == reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// kindOf names the runtime kind of v in schema vocabulary for type messages.
func kindOf(v any) string {
	switch {
	case v == nil:
		return "null"
	case isDate(v):
		return string(Date)
	}
	switch v.(type) {
	case string:
		return string(String)
	case bool:
		return string(Boolean)
	}
	if isNumber(v) {
		return string(Number)
	}
	if isObject(v) {
		return string(Object)
	}
	if isArray(v) {
		return string(Array)
	}
	return reflect.TypeOf(v).String()
}
