package docskema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies a single validation failure.
type ErrorType string

// Error types (exported consts for IDE completion and type safety by convention)
const (
	IssueRequired  ErrorType = "required"  // A mandatory field is absent.
	IssueType      ErrorType = "type"      // A present value fails its declared type.
	IssueCondition ErrorType = "condition" // A qualifier or predicate is violated.
)

// Sentinel errors for malformed schema descriptions and misuse.
var (
	ErrNilSchema        = errors.New("docskema: schema must not be nil")
	ErrUnknownType      = errors.New("docskema: unknown type")
	ErrInvalidQualifier = errors.New("docskema: invalid qualifier")
	ErrInvalidShape     = errors.New("docskema: invalid schema description")
)

// ValidationError represents a single field-addressed validation entry.
type ValidationError struct {
	Name    string    `json:"name,omitempty" yaml:"name,omitempty"` // Field name; empty for the document itself.
	Type    ErrorType `json:"type" yaml:"type"`
	Message string    `json:"message" yaml:"message"`
	Path    string    `json:"path,omitempty" yaml:"path,omitempty"` // Dotted path, e.g. items.2.qty.
}

func (e ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s at %s: %s", e.Type, e.Path, e.Message)
}

// ValidationErrors is the single failure value returned by a validation call.
// It carries one or more entries in the order they were found.
type ValidationErrors []ValidationError

// Error summarizes the first few entries.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(ve)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := ve[i]
		// e.g. required at address.city
		fmt.Fprintf(b, "%s at %s", it.Type, it.location())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

func (e ValidationError) location() string {
	switch {
	case e.Path != "":
		return e.Path
	case e.Name != "":
		return e.Name
	default:
		return "."
	}
}

// Messages returns the message of every entry, in order.
func (ve ValidationErrors) Messages() []string {
	out := make([]string, len(ve))
	for i, e := range ve {
		out[i] = e.Message
	}
	return out
}

// appendErrors appends entries to the destination, initializing the slice when
// needed.
func appendErrors(dst ValidationErrors, more ...ValidationError) ValidationErrors {
	if dst == nil {
		dst = ValidationErrors{}
	}
	return append(dst, more...)
}

// AsValidationErrors extracts ValidationErrors from an error using errors.As
// internally.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	if err == nil {
		return nil, false
	}
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
