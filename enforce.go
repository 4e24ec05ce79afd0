package docskema

import (
	"slices"
	"strconv"
)

// enforce runs dependency rules against a structurally valid document. A
// rule is skipped when the first segment of its path is absent from doc or
// when the constrained field itself is absent. Arrays met along the path fan
// out, so a rule on items.qty runs once per element of items.
func enforce(doc map[string]any, rules []DependencyRule) ValidationErrors {
	var errs ValidationErrors
	for _, r := range rules {
		if len(r.Path) == 0 || r.Check == nil {
			continue
		}
		if _, ok := doc[r.Path[0]]; !ok {
			continue
		}
		name := r.Path[len(r.Path)-1]
		visit(doc, r, 0, nil, func(value any, parent map[string]any, at []string) {
			args := Args{Qualifiers: r.Qualifiers, Deps: make(map[string]any, len(r.DependsOn))}
			for _, d := range r.DependsOn {
				args.Deps[d] = parent[d]
			}
			if err := r.Check(value, args); err != nil {
				errs = appendErrors(errs, ValidationError{
					Name:    name,
					Type:    IssueCondition,
					Message: err.Error(),
					Path:    dotted(at),
				})
			}
		})
	}
	return errs
}

type visitFunc func(value any, parent map[string]any, at []string)

func visit(cur map[string]any, r DependencyRule, i int, at []string, fn visitFunc) {
	key := r.Path[i]
	val, ok := cur[key]
	if !ok {
		return
	}
	at = append(slices.Clip(at), key)
	if i < len(r.Path)-1 {
		descend(val, r, i+1, at, fn)
		return
	}
	if r.Each {
		if list, ok := asSlice(val); ok {
			for j, e := range list {
				fn(e, cur, append(slices.Clip(at), strconv.Itoa(j)))
			}
			return
		}
	}
	fn(val, cur, at)
}

func descend(val any, r DependencyRule, i int, at []string, fn visitFunc) {
	if m, ok := asMap(val); ok {
		visit(m, r, i, at, fn)
		return
	}
	if list, ok := asSlice(val); ok {
		for j, e := range list {
			descend(e, r, i, append(slices.Clip(at), strconv.Itoa(j)), fn)
		}
	}
}
