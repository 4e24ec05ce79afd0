// Package docskema provides:
//
// - Declarative schema descriptions for document data (Fields, Optional, AnyOf, qualifiers)
// - Normalization of descriptions into a canonical shape with deferred dependency rules
// - Validation of documents and update operators with a stable error model (ValidationErrors)
// - Compilation into $jsonSchema validators for document databases
//
// Design policy:
// - Keep the authoring and validation APIs in the root package; loaders, rules and
//   collection wiring live in loader/, rules/ and attach/, the CLI under cmd/docskema.
// - Shapes are immutable and memoized per Schema; configuration is read as a snapshot.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	users := docskema.NewSchema(docskema.Fields{
//		"name":  docskema.String,
//		"email": docskema.Fields{"type": docskema.String, "regex": `^[^@]+@[^@]+$`},
//		"age":   docskema.Optional(docskema.Fields{"type": docskema.Integer, "min": 0}),
//	})
//
//	err := users.Check(doc, docskema.Full(true))
//	err = users.Check(map[string]any{"$set": map[string]any{"age": 30}})
//	validator, err := users.Compile()
package docskema
