package docskema

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/reoring/docskema/i18n"
	"github.com/reoring/docskema/internal/engine"
)

// maxDuplicateReports caps the duplicate-key entries reported for one
// document.
const maxDuplicateReports = 16

// ParseJSON decodes a JSON object for validation. Numbers are kept as
// json.Number. A repeated key in any object is reported as a condition
// error, since decoding would silently keep only the last value.
func ParseJSON(data []byte) (map[string]any, error) {
	dups, err := engine.DuplicateKeys(data, maxDuplicateReports)
	if err != nil {
		return nil, fmt.Errorf("docskema: parse json: %w", err)
	}
	if len(dups) > 0 {
		var errs ValidationErrors
		for _, d := range dups {
			errs = appendErrors(errs, ValidationError{
				Name:    d.Key,
				Type:    IssueCondition,
				Message: i18n.T(i18n.DuplicateKey, map[string]string{"key": d.Key}),
				Path:    d.Path,
			})
		}
		return nil, errs
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("docskema: parse json: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("docskema: parse json: document must be an object")
	}
	return doc, nil
}

// CheckJSON parses data with ParseJSON and validates the result.
func CheckJSON(data []byte, schema any, opts ...CheckOption) error {
	doc, err := ParseJSON(data)
	if err != nil {
		return err
	}
	return Check(doc, schema, opts...)
}
