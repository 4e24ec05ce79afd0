// Package attach installs compiled schemas on document collections and
// guards writes with the validator.
package attach

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reoring/docskema"
	"github.com/reoring/docskema/jsonschema"
)

// Collection is a document collection that accepts a backend validator.
type Collection interface {
	Name() string
	// SetValidator installs validator ({"$jsonSchema": ...}) with the given
	// validation level and action.
	SetValidator(ctx context.Context, validator map[string]any, level, action string) error
}

// Writer performs document writes.
type Writer interface {
	Insert(ctx context.Context, doc map[string]any) error
	Update(ctx context.Context, filter, update map[string]any) error
	Upsert(ctx context.Context, filter, update map[string]any) error
}

type options struct {
	logger *slog.Logger
}

// Option configures Attach and NewGuard.
type Option func(*options)

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Attach compiles s and installs it as the validator of c, using the
// validation level and action of the current configuration. A nil schema
// is a programming error: it is logged and returned as ErrNilSchema.
func Attach(ctx context.Context, c Collection, s *docskema.Schema, opts ...Option) error {
	o := buildOptions(opts)
	if s == nil {
		o.logger.Error("attach schema", "component", "attach", "collection", c.Name(), "error", docskema.ErrNilSchema)
		return docskema.ErrNilSchema
	}
	compiled, err := s.Compile()
	if err != nil {
		o.logger.Error("compile schema", "component", "attach", "collection", c.Name(), "error", err)
		return fmt.Errorf("attach %s: %w", c.Name(), err)
	}
	cfg := docskema.CurrentConfig()
	if err := c.SetValidator(ctx, jsonschema.Validator(compiled), cfg.ValidationLevel, cfg.ValidationAction); err != nil {
		o.logger.Error("set validator", "component", "attach", "collection", c.Name(), "error", err)
		return fmt.Errorf("attach %s: %w", c.Name(), err)
	}
	o.logger.Info("schema attached", "component", "attach", "collection", c.Name(),
		"level", cfg.ValidationLevel, "action", cfg.ValidationAction)
	return nil
}
