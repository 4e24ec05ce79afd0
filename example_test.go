package docskema_test

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/reoring/docskema"
)

func ExampleCheck() {
	users := docskema.NewSchema(docskema.Fields{
		"name":  docskema.Fields{"type": docskema.String, "min": 2},
		"email": docskema.String,
		"age":   docskema.Optional(docskema.Integer),
	})

	err := users.Check(map[string]any{"name": "A", "age": "x"}, docskema.Full(true))
	if ve, ok := docskema.AsValidationErrors(err); ok {
		for _, e := range ve {
			fmt.Println(e.Type, e.Path, e.Message)
		}
	}

	// update operators are checked against the deep-partial shape
	fmt.Println(users.Check(map[string]any{"$set": map[string]any{"age": 30}}))
	// Output:
	// type age Age must be of type integer, got string
	// required email Email is required
	// condition name Name must be at least 2 characters
	// <nil>
}

func ExampleCompile() {
	s, err := docskema.Compile(docskema.Fields{
		"name": docskema.String,
		"tags": []any{docskema.String},
	})
	if err != nil {
		panic(err)
	}
	b, _ := json.Marshal(s)
	fmt.Println(string(b))
	// Output:
	// {"bsonType":"object","properties":{"_id":{},"name":{"bsonType":"string"},"tags":{"bsonType":"array","items":{"bsonType":"string"}}},"required":["name","tags"],"additionalProperties":false}
}
