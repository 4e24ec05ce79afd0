package docskema

import (
	"sync"

	js "github.com/reoring/docskema/jsonschema"
)

// Schema owns a description and memoizes its shapes. It is safe for
// concurrent use; each shape is built at most once.
type Schema struct {
	desc Fields

	shapeOnce sync.Once
	shaped    *Shaped
	shapeErr  error

	partialOnce sync.Once
	partial     *Shaped
	partialErr  error
}

// NewSchema wraps a description. Shaping is deferred to first use.
func NewSchema(desc Fields) *Schema { return &Schema{desc: desc} }

// Description returns the wrapped description.
func (s *Schema) Description() Fields { return s.desc }

// Shape returns the memoized canonical shape.
func (s *Schema) Shape() (*Shaped, error) {
	s.shapeOnce.Do(func() {
		s.shaped, s.shapeErr = Shape(s.desc)
	})
	return s.shaped, s.shapeErr
}

// DeepPartial returns the memoized deep-partial shape used for updates.
func (s *Schema) DeepPartial() (*Shaped, error) {
	s.partialOnce.Do(func() {
		s.partial, s.partialErr = Shape(s.desc, WithOptionalize())
	})
	return s.partial, s.partialErr
}

// Compile compiles the memoized shape into a backend validator schema.
func (s *Schema) Compile() (*js.Schema, error) {
	sh, err := s.Shape()
	if err != nil {
		return nil, err
	}
	return CompileShape(sh)
}

// Check validates data against the schema. See the package-level Check.
func (s *Schema) Check(data any, opts ...CheckOption) error {
	return Check(data, s, opts...)
}
