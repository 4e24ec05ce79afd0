package docskema_test

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/docskema"
)

// entries returns "type path" pairs of a validation failure.
func entries(t *testing.T, err error) []string {
	t.Helper()
	ve, ok := docskema.AsValidationErrors(err)
	require.True(t, ok, "expected ValidationErrors, got %v", err)
	out := make([]string, len(ve))
	for i, e := range ve {
		out[i] = fmt.Sprintf("%s %s", e.Type, e.Path)
	}
	return out
}

func TestCheck_AggregatesEveryViolation(t *testing.T) {
	doc := map[string]any{
		"name":    "A",
		"age":     "x",
		"address": map[string]any{"zip": 1},
		"tags":    []any{"a", 2},
		"contact": 5,
	}
	err := docskema.Check(doc, userFields(), docskema.Full(true))
	require.Error(t, err)
	assert.Equal(t, []string{
		"required address.city",
		"type address.zip",
		"type age",
		"type contact",
		"condition name",
		"type tags.1",
	}, entries(t, err))

	ve, _ := docskema.AsValidationErrors(err)
	assert.Equal(t, "city", ve[0].Name)
	assert.Equal(t, "City is required", ve[0].Message)
	assert.Equal(t, "Age must be of type integer, got string", ve[2].Message)
	assert.Equal(t, "Contact does not match any of the allowed types", ve[3].Message)
	assert.Equal(t, "Name must be at least 2 characters", ve[4].Message)
	assert.Equal(t, "tags", ve[5].Name)
}

func TestCheck_FullRequiresFieldsButNotIdentity(t *testing.T) {
	doc := map[string]any{
		"name":    "Ann",
		"address": map[string]any{"city": "Kyoto"},
		"tags":    []any{},
		"contact": "ann@example.com",
	}
	require.NoError(t, docskema.Check(doc, userFields(), docskema.Full(true)))

	declared := docskema.Fields{"_id": docskema.ObjectID, "name": docskema.String}
	require.NoError(t, docskema.Check(map[string]any{"name": "x"}, declared, docskema.Full(true)))

	err := docskema.Check(map[string]any{"age": 3}, userFields(), docskema.Full(true))
	assert.Equal(t, []string{
		"required address",
		"required contact",
		"required name",
		"required tags",
	}, entries(t, err))
}

func TestCheck_NonFullChecksPresentKeysOnly(t *testing.T) {
	require.NoError(t, docskema.Check(map[string]any{"age": 3}, userFields()))

	// nested objects still need their required keys
	err := docskema.Check(map[string]any{"address": map[string]any{}}, userFields())
	assert.Equal(t, []string{"required address.city"}, entries(t, err))
}

func TestCheck_UnknownKeys(t *testing.T) {
	err := docskema.Check(map[string]any{"name": "ab", "extra": 1}, userFields())
	require.Error(t, err)
	ve, _ := docskema.AsValidationErrors(err)
	require.Len(t, ve, 1)
	assert.Equal(t, docskema.ValidationError{Name: "extra", Type: docskema.IssueType, Message: "Extra is not allowed", Path: "extra"}, ve[0])

	err = docskema.Check(map[string]any{"address": map[string]any{"city": "x", "street": "y"}}, userFields())
	ve, _ = docskema.AsValidationErrors(err)
	require.Len(t, ve, 1)
	assert.Equal(t, docskema.ValidationError{Name: "address", Type: docskema.IssueType, Message: "Address contains unknown key 'street'", Path: "address"}, ve[0])
}

func TestCheck_AdditionalPropertiesStripsUnknownKeys(t *testing.T) {
	open := docskema.Fields{
		"meta": docskema.Fields{"type": docskema.Fields{"source": docskema.String}, "additionalProperties": true},
	}
	closed := docskema.Fields{"meta": docskema.Fields{"source": docskema.String}}
	doc := map[string]any{"meta": map[string]any{"source": "web", "campaign": "spring"}}

	require.NoError(t, docskema.Check(doc, open))
	assert.Equal(t, []string{"type meta"}, entries(t, docskema.Check(doc, closed)))

	err := docskema.Check(map[string]any{"meta": map[string]any{"campaign": "spring"}}, open)
	assert.Equal(t, []string{"required meta.source"}, entries(t, err))
}

func TestCheck_UpdateOperatorsUseDeepPartial(t *testing.T) {
	schema := docskema.NewSchema(userFields())

	ok := []map[string]any{
		{"$set": map[string]any{"age": 30}},
		{"$set": map[string]any{"address.city": "Kyoto"}},
		{"$push": map[string]any{"tags": "go"}},
		{"$addToSet": map[string]any{"tags": map[string]any{"$each": []any{"a", "b"}}}},
		{"$unset": map[string]any{"name": ""}},
		{"$inc": map[string]any{"age": 1}, "name": "Ann"},
	}
	for _, doc := range ok {
		assert.NoError(t, schema.Check(doc, docskema.Full(true)), "%v", doc)
	}

	cases := []struct {
		doc  map[string]any
		want []string
	}{
		{map[string]any{"$set": map[string]any{"age": "x"}}, []string{"type age"}},
		{map[string]any{"$set": map[string]any{"address.city": 3}}, []string{"type address.city"}},
		{map[string]any{"$push": map[string]any{"tags": 5}}, []string{"type tags.0"}},
		{map[string]any{"$set": map[string]any{"name": "A"}}, []string{"condition name"}},
		{map[string]any{"$set": map[string]any{"bogus": 1}}, []string{"type bogus"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, entries(t, schema.Check(tc.doc)), "%v", tc.doc)
	}
}

func TestCheck_AnyOf(t *testing.T) {
	s := userFields()
	require.NoError(t, docskema.Check(map[string]any{"contact": "a@b"}, s))
	require.NoError(t, docskema.Check(map[string]any{"contact": map[string]any{"email": "a@b"}}, s))
	assert.Equal(t, []string{"type contact"}, entries(t, docskema.Check(map[string]any{"contact": map[string]any{"phone": "1"}}, s)))
}

func TestCheck_NilValues(t *testing.T) {
	s := docskema.Fields{
		"vals":  []any{docskema.Optional(docskema.Number)},
		"nums":  []any{docskema.Number},
		"age":   docskema.Optional(docskema.Integer),
		"extra": docskema.Any,
	}
	require.NoError(t, docskema.Check(map[string]any{"vals": []any{1, nil, 2}, "extra": nil}, s))

	err := docskema.Check(map[string]any{"nums": []any{nil}, "age": nil}, s)
	require.Error(t, err)
	ve, _ := docskema.AsValidationErrors(err)
	assert.Equal(t, []string{"Age must be of type integer, got null", "Nums must be of type number, got null"}, ve.Messages())
}

func TestCheck_RootMustBeObject(t *testing.T) {
	err := docskema.Check("x", userFields())
	ve, ok := docskema.AsValidationErrors(err)
	require.True(t, ok)
	assert.Equal(t, "Value must be of type object, got string", ve[0].Message)
	assert.Empty(t, ve[0].Name)
}

func TestCheck_SchemaArgument(t *testing.T) {
	assert.ErrorIs(t, docskema.Check(map[string]any{}, nil), docskema.ErrNilSchema)
	assert.ErrorIs(t, docskema.Check(map[string]any{}, (*docskema.Schema)(nil)), docskema.ErrNilSchema)
	assert.ErrorIs(t, docskema.Check(map[string]any{}, 42), docskema.ErrInvalidShape)

	shaped := docskema.MustShape(userFields())
	require.NoError(t, docskema.Check(map[string]any{"age": 1}, shaped))
	require.NoError(t, docskema.Check(map[string]any{"$set": map[string]any{"age": 1}}, shaped))
}

func TestCheck_ConditionFragmentsJoined(t *testing.T) {
	s := docskema.Fields{"code": docskema.Fields{"type": docskema.String, "min": 5, "regex": "^[0-9]+$"}}
	err := docskema.Check(map[string]any{"code": "ab"}, s)
	ve, ok := docskema.AsValidationErrors(err)
	require.True(t, ok)
	require.Len(t, ve, 1)
	assert.Equal(t, "Code must be at least 5 characters; Code must match the pattern ^[0-9]+$", ve[0].Message)
}

func TestCheck_Japanese(t *testing.T) {
	cfg := docskema.DefaultConfig()
	cfg.Language = "ja"
	require.NoError(t, docskema.Configure(cfg))
	t.Cleanup(func() { _ = docskema.Configure(docskema.DefaultConfig()) })

	err := docskema.Check(map[string]any{}, docskema.Fields{"name": docskema.String}, docskema.Full(true))
	ve, _ := docskema.AsValidationErrors(err)
	assert.Equal(t, []string{"Nameは必須です"}, ve.Messages())
}

func num(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func orderFields() docskema.Fields {
	return docskema.Fields{
		"subtotal": docskema.Number,
		"total": docskema.Fields{
			"type": docskema.Number,
			"where": docskema.Where(func(v any, a docskema.Args) error {
				if num(v) < num(a.Dep("subtotal")) {
					return errors.New("total must cover the subtotal")
				}
				return nil
			}, "subtotal"),
		},
		"items": []any{docskema.Fields{
			"price": docskema.Number,
			"qty": docskema.Fields{
				"type": docskema.Integer,
				"min":  1,
				"where": docskema.Where(func(v any, a docskema.Args) error {
					if num(v)*num(a.Dep("price")) > 100 {
						return errors.New("line total exceeds 100")
					}
					return nil
				}, "price"),
			},
		}},
		"blocked": docskema.Optional([]any{docskema.String}),
		"tags": []any{docskema.Fields{
			"type": docskema.String,
			"where": docskema.Where(func(v any, a docskema.Args) error {
				blocked, _ := a.Dep("blocked").([]any)
				for _, b := range blocked {
					if b == v {
						return fmt.Errorf("tag %v is blocked", v)
					}
				}
				return nil
			}, "blocked"),
		}},
	}
}

func TestCheck_DependencyRules(t *testing.T) {
	schema := docskema.NewSchema(orderFields())

	err := schema.Check(map[string]any{"subtotal": 10.0, "total": 5.0})
	require.Error(t, err)
	ve, _ := docskema.AsValidationErrors(err)
	assert.Equal(t, docskema.ValidationErrors{{
		Name: "total", Type: docskema.IssueCondition, Message: "total must cover the subtotal", Path: "total",
	}}, ve)

	require.NoError(t, schema.Check(map[string]any{"subtotal": 10.0, "total": 12.0}))
	// rule is skipped when its field is absent
	require.NoError(t, schema.Check(map[string]any{"subtotal": 10.0}))
}

func TestCheck_DependencyRulesRunAfterStructure(t *testing.T) {
	err := docskema.Check(map[string]any{"subtotal": "x", "total": 1.0}, orderFields())
	assert.Equal(t, []string{"type subtotal"}, entries(t, err))
}

func TestCheck_DependencyRulesFanOutOverArrays(t *testing.T) {
	doc := map[string]any{"items": []any{
		map[string]any{"price": 10, "qty": 1},
		map[string]any{"price": 10, "qty": 50},
		map[string]any{"price": 1, "qty": 50},
	}}
	err := docskema.Check(doc, orderFields())
	require.Error(t, err)
	ve, _ := docskema.AsValidationErrors(err)
	require.Len(t, ve, 1)
	assert.Equal(t, "items.1.qty", ve[0].Path)
	assert.Equal(t, "qty", ve[0].Name)
	assert.Equal(t, "line total exceeds 100", ve[0].Message)

	err = docskema.Check(map[string]any{"tags": []any{"a", "b"}, "blocked": []any{"b"}}, orderFields())
	assert.Equal(t, []string{"condition tags.1"}, entries(t, err))
}

func TestCheck_MissingDependencyIsNil(t *testing.T) {
	var seen map[string]any
	s := docskema.Fields{
		"a": docskema.Optional(docskema.Number),
		"b": docskema.Fields{"type": docskema.Number, "where": docskema.Where(func(_ any, args docskema.Args) error {
			seen = args.Deps
			return nil
		}, "a")},
	}
	require.NoError(t, docskema.Check(map[string]any{"b": 1}, s))
	v, ok := seen["a"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestCheckJSON_RejectsDuplicateKeys(t *testing.T) {
	err := docskema.CheckJSON([]byte(`{"name":"a","address":{"city":"x","city":"y"}}`), userFields())
	require.Error(t, err)
	ve, ok := docskema.AsValidationErrors(err)
	require.True(t, ok)
	assert.Equal(t, docskema.ValidationErrors{{
		Name: "city", Type: docskema.IssueCondition, Message: "key 'city' duplicated", Path: "address",
	}}, ve)

	require.NoError(t, docskema.CheckJSON([]byte(`{"name":"Ann","age":41}`), userFields()))
	_, err = docskema.ParseJSON([]byte(`[1]`))
	assert.Error(t, err)
}

func TestCheck_DeferredWhereReceivesQualifiers(t *testing.T) {
	var got docskema.Qualifiers
	s := docskema.Fields{
		"a": docskema.Number,
		"b": docskema.Fields{"type": docskema.Number, "max": 10, "where": docskema.Where(func(_ any, args docskema.Args) error {
			got = args.Qualifiers
			return nil
		}, "a")},
	}
	require.NoError(t, docskema.Check(map[string]any{"a": 1, "b": 2}, s))
	require.NotNil(t, got.Max)
	assert.Equal(t, 10.0, got.Max.Value)
	assert.Nil(t, got.Where)
}

type bsonM map[string]any

func TestCheck_UpdateOperatorsInNamedMapTypes(t *testing.T) {
	err := docskema.Check(bsonM{"$set": bsonM{"age": "x"}}, userFields())
	assert.Equal(t, []string{"type age"}, entries(t, err))

	err = docskema.Check(bsonM{"$push": bsonM{"tags": bsonM{"$each": []any{"a", 2}}}}, userFields())
	assert.Equal(t, []string{"type tags.1"}, entries(t, err))

	require.NoError(t, docskema.Check(bsonM{"$set": bsonM{"age": 3, "address.city": "Kyoto"}}, userFields()))
}

// subsets returns every sub-document of doc built from a subset of its
// top-level keys.
func subsets(doc map[string]any) []map[string]any {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var out []map[string]any
	for mask := 0; mask < 1<<len(keys); mask++ {
		sub := map[string]any{}
		for i, k := range keys {
			if mask&(1<<i) != 0 {
				sub[k] = doc[k]
			}
		}
		out = append(out, sub)
	}
	return out
}

func TestCheck_DeepPartialNeverRequires(t *testing.T) {
	partial, err := docskema.NewSchema(userFields()).DeepPartial()
	require.NoError(t, err)

	valid := map[string]any{
		"name":    "Ann",
		"age":     3,
		"address": map[string]any{"city": "Kyoto"},
		"tags":    []any{"go"},
		"contact": "ann@example.com",
	}
	for _, sub := range subsets(valid) {
		assert.NoError(t, docskema.Check(sub, partial), "%v", sub)
	}

	invalid := map[string]any{
		"name":    "A",
		"age":     "x",
		"address": map[string]any{"zip": "1"},
		"tags":    []any{1},
	}
	for _, sub := range subsets(invalid) {
		err := docskema.Check(sub, partial)
		if len(sub) == 0 || (len(sub) == 1 && sub["address"] != nil) {
			assert.NoError(t, err, "%v", sub)
			continue
		}
		ve, ok := docskema.AsValidationErrors(err)
		require.True(t, ok, "%v", sub)
		for _, e := range ve {
			assert.NotEqual(t, docskema.IssueRequired, e.Type, "%v: %v", sub, e)
		}
	}
}

func TestCheck_FullImpliesNonFull(t *testing.T) {
	cases := []struct {
		name   string
		schema docskema.Fields
		doc    map[string]any
	}{
		{"user", userFields(), map[string]any{
			"name": "Ann", "address": map[string]any{"city": "Kyoto"}, "tags": []any{}, "contact": "a@b",
		}},
		{"user with optionals", userFields(), map[string]any{
			"_id": "1", "name": "Ann", "age": 40, "address": map[string]any{"city": "Kyoto", "zip": "600"},
			"tags": []any{"a"}, "contact": map[string]any{"email": "a@b"},
		}},
		{"dependency rules", orderFields(), map[string]any{
			"subtotal": 10.0, "total": 12.0, "blocked": []any{"x"}, "tags": []any{"a"},
			"items": []any{map[string]any{"price": 10, "qty": 2}},
		}},
		{"constrained", docskema.Fields{
			"code": docskema.Fields{"type": docskema.String, "min": 2, "max": 4, "regex": "^[a-z]+$"},
			"kind": docskema.Fields{"type": docskema.String, "allow": []any{"a", "b"}},
		}, map[string]any{"code": "abc", "kind": "b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, docskema.Check(tc.doc, tc.schema, docskema.Full(true)))
			assert.NoError(t, docskema.Check(tc.doc, tc.schema, docskema.Full(false)))
		})
	}
}

func TestCheck_DependentWhereOnAnyOfAlternative(t *testing.T) {
	calls := 0
	exceeds := docskema.Fields{"type": docskema.Number, "where": docskema.Where(func(v any, a docskema.Args) error {
		calls++
		if num(v) <= num(a.Dep("a")) {
			return errors.New("v must exceed a")
		}
		return nil
	}, "a")}

	s := docskema.Fields{"a": docskema.Number, "v": docskema.AnyOf(docskema.String, exceeds)}
	require.NoError(t, docskema.Check(map[string]any{"a": 1, "v": "x"}, s))
	assert.Zero(t, calls)
	require.NoError(t, docskema.Check(map[string]any{"a": 1, "v": 2}, s))
	assert.Equal(t, 1, calls)

	err := docskema.Check(map[string]any{"a": 5, "v": 2}, s)
	require.Error(t, err)
	ve, _ := docskema.AsValidationErrors(err)
	assert.Equal(t, docskema.ValidationErrors{{
		Name: "v", Type: docskema.IssueCondition, Message: "v must exceed a", Path: "v",
	}}, ve)

	// a plain alternative accepting the same value is enough
	loose := docskema.Fields{"a": docskema.Number, "v": docskema.AnyOf(exceeds, docskema.Number)}
	require.NoError(t, docskema.Check(map[string]any{"a": 5, "v": 2}, loose))

	// array elements
	list := docskema.Fields{"a": docskema.Number, "v": []any{docskema.AnyOf(docskema.String, exceeds)}}
	err = docskema.Check(map[string]any{"a": 5, "v": []any{"x", 9, 3}}, list)
	assert.Equal(t, []string{"condition v.2"}, entries(t, err))
}

func TestShape_RejectsDependentWhereNestedInAnyOf(t *testing.T) {
	nested := docskema.Fields{
		"x": docskema.Number,
		"y": docskema.Fields{"type": docskema.Number, "where": docskema.Where(func(any, docskema.Args) error { return nil }, "x")},
	}
	_, err := docskema.Shape(docskema.Fields{"v": docskema.AnyOf(docskema.String, nested)})
	assert.ErrorIs(t, err, docskema.ErrInvalidShape)
}
