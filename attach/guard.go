package attach

import (
	"context"
	"log/slog"
	"maps"

	"github.com/google/uuid"

	"github.com/reoring/docskema"
	"github.com/reoring/docskema/modifier"
)

// Guard validates writes against a schema before handing them to the
// wrapped Writer. Validation is skipped while Config.AutoCheck is false.
type Guard struct {
	w      Writer
	schema *docskema.Schema
	logger *slog.Logger
}

var _ Writer = (*Guard)(nil)

// NewGuard wraps w.
func NewGuard(w Writer, s *docskema.Schema, opts ...Option) *Guard {
	o := buildOptions(opts)
	return &Guard{w: w, schema: s, logger: o.logger}
}

// Insert checks doc as a complete document.
func (g *Guard) Insert(ctx context.Context, doc map[string]any) error {
	if err := g.check("insert", doc, docskema.Full(true)); err != nil {
		return err
	}
	return g.w.Insert(ctx, doc)
}

// Update checks an operator update against the deep-partial shape, or a
// replacement document as a complete document.
func (g *Guard) Update(ctx context.Context, filter, update map[string]any) error {
	if err := g.check("update", update, fullUnlessOperators(update)); err != nil {
		return err
	}
	return g.w.Update(ctx, filter, update)
}

// Upsert is like Update, but the plain fields of filter also end up in an
// inserted document, so they are checked together with an operator update.
func (g *Guard) Upsert(ctx context.Context, filter, update map[string]any) error {
	doc := update
	if modifier.HasOperators(update) {
		doc = maps.Clone(update)
		for k, v := range filter {
			if _, ok := doc[k]; !ok && !modifier.IsOperator(k) {
				doc[k] = v
			}
		}
	}
	if err := g.check("upsert", doc, fullUnlessOperators(update)); err != nil {
		return err
	}
	return g.w.Upsert(ctx, filter, update)
}

func fullUnlessOperators(update map[string]any) docskema.CheckOption {
	return docskema.Full(!modifier.HasOperators(update))
}

func (g *Guard) check(op string, doc map[string]any, opt docskema.CheckOption) error {
	if !docskema.CurrentConfig().AutoCheck {
		return nil
	}
	if g.schema == nil {
		g.logger.Error("guarded write without schema", "component", "attach", "op", op)
		return docskema.ErrNilSchema
	}
	err := g.schema.Check(doc, opt)
	if err == nil {
		return nil
	}
	attrs := []any{"component", "attach", "op", op, "trace_id", uuid.NewString(), "error", err}
	if ve, ok := docskema.AsValidationErrors(err); ok {
		g.logger.Debug("write rejected", append(attrs, "violations", len(ve))...)
	} else {
		g.logger.Error("write check failed", attrs...)
	}
	return err
}
