package loader

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/cel-go/cel"

	"github.com/reoring/docskema"
)

// ValueVar is the CEL variable bound to the constrained value.
const ValueVar = "value"

// whereDecl is the file form of a where clause. A bare string is shorthand
// for {expr: <string>}.
type whereDecl struct {
	Expr      string
	DependsOn []string
	Message   string
}

func parseWhereDecl(v any) (whereDecl, error) {
	switch t := v.(type) {
	case string:
		return whereDecl{Expr: t}, nil
	case map[string]any:
		var w whereDecl
		for k, vv := range t {
			switch k {
			case "expr":
				s, ok := vv.(string)
				if !ok {
					return w, fmt.Errorf("expr must be a string, got %T", vv)
				}
				w.Expr = s
			case "message":
				s, ok := vv.(string)
				if !ok {
					return w, fmt.Errorf("message must be a string, got %T", vv)
				}
				w.Message = s
			case "dependsOn":
				list, ok := vv.([]any)
				if !ok {
					return w, fmt.Errorf("dependsOn must be a list, got %T", vv)
				}
				for _, d := range list {
					s, ok := d.(string)
					if !ok {
						return w, fmt.Errorf("dependsOn entries must be strings, got %T", d)
					}
					w.DependsOn = append(w.DependsOn, s)
				}
			default:
				return w, fmt.Errorf("unknown key %q", k)
			}
		}
		if w.Expr == "" {
			return w, errors.New("expr is required")
		}
		return w, nil
	}
	return whereDecl{}, fmt.Errorf("expected string or mapping, got %T", v)
}

// compileWhere turns a file where clause into a docskema.WhereClause backed
// by a compiled CEL program. path is the location of the constrained field.
func compileWhere(v any, path []string) (docskema.WhereClause, error) {
	w, err := parseWhereDecl(v)
	if err != nil {
		return docskema.WhereClause{}, err
	}
	opts := []cel.EnvOption{
		cel.Variable(ValueVar, cel.DynType),
		cel.CrossTypeNumericComparisons(true),
	}
	for _, d := range w.DependsOn {
		if d == ValueVar {
			return docskema.WhereClause{}, fmt.Errorf("dependency may not be named %q", ValueVar)
		}
		opts = append(opts, cel.Variable(d, cel.DynType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return docskema.WhereClause{}, err
	}
	ast, iss := env.Compile(w.Expr)
	if iss != nil && iss.Err() != nil {
		return docskema.WhereClause{}, iss.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) && !ast.OutputType().IsExactType(cel.DynType) {
		return docskema.WhereClause{}, fmt.Errorf("expression %q must evaluate to bool, not %s", w.Expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return docskema.WhereClause{}, err
	}

	field := ""
	if len(path) > 0 {
		field = path[len(path)-1]
	}
	message := w.Message
	if message == "" {
		message = fmt.Sprintf("%s must satisfy %s", field, w.Expr)
	}
	deps := slices.Clone(w.DependsOn)
	check := func(value any, args docskema.Args) error {
		vars := map[string]any{ValueVar: celValue(value)}
		for _, d := range deps {
			vars[d] = celValue(args.Dep(d))
		}
		out, _, err := prg.Eval(vars)
		if err != nil {
			return fmt.Errorf("%s (%s)", message, strings.TrimSpace(err.Error()))
		}
		if ok, isBool := out.Value().(bool); !isBool || !ok {
			return errors.New(message)
		}
		return nil
	}
	return docskema.Where(check, deps...), nil
}

// celValue converts decoded values into types CEL understands natively.
func celValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = celValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = celValue(e)
		}
		return out
	}
	return v
}
