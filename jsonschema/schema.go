// Package jsonschema holds the backend validator vocabulary produced by the
// compiler: a $jsonSchema document using bsonType tags.
package jsonschema

// Schema is one node of a compiled backend schema. BSONType is either a
// single tag or a list of tags; an empty Schema accepts any value.
type Schema struct {
	BSONType any `json:"bsonType,omitempty" yaml:"bsonType,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required             []string           `json:"required,omitempty" yaml:"required,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`
	MinProperties        *int               `json:"minProperties,omitempty" yaml:"minProperties,omitempty"`
	MaxProperties        *int               `json:"maxProperties,omitempty" yaml:"maxProperties,omitempty"`

	// Array
	Items       *Schema `json:"items,omitempty" yaml:"items,omitempty"`
	MinItems    *int    `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	MaxItems    *int    `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
	UniqueItems bool    `json:"uniqueItems,omitempty" yaml:"uniqueItems,omitempty"`

	// String
	MinLength *int   `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Number
	Minimum    *float64 `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum    *float64 `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	MultipleOf *float64 `json:"multipleOf,omitempty" yaml:"multipleOf,omitempty"`

	Enum  []any     `json:"enum,omitempty" yaml:"enum,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty" yaml:"anyOf,omitempty"`
	AllOf []*Schema `json:"allOf,omitempty" yaml:"allOf,omitempty"`
}

// Validator wraps s as a collection validator document.
func Validator(s *Schema) map[string]any {
	return map[string]any{"$jsonSchema": s}
}

// AllowNull extends the type tags of s with "null". A schema without tags
// already accepts null and is left unchanged.
func (s *Schema) AllowNull() {
	switch t := s.BSONType.(type) {
	case string:
		if t != "null" {
			s.BSONType = []string{t, "null"}
		}
	case []string:
		for _, tag := range t {
			if tag == "null" {
				return
			}
		}
		s.BSONType = append(append([]string(nil), t...), "null")
	}
}
