package docskema_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/docskema"
)

func TestValidationErrors_ErrorSummary(t *testing.T) {
	ve := docskema.ValidationErrors{
		{Name: "a", Type: docskema.IssueType, Path: "a"},
		{Name: "b", Type: docskema.IssueRequired, Path: "b.c"},
		{Type: docskema.IssueCondition},
		{Name: "d", Type: docskema.IssueType, Path: "d"},
	}
	assert.Equal(t, "type at a; required at b.c; condition at .; ... (total 4)", ve.Error())
}

func TestValidationError_Error(t *testing.T) {
	e := docskema.ValidationError{Name: "qty", Type: docskema.IssueCondition, Message: "Qty must be at least 1", Path: "items.1.qty"}
	assert.Equal(t, "condition at items.1.qty: Qty must be at least 1", e.Error())
}

func TestAsValidationErrors_Wrapped(t *testing.T) {
	err := docskema.Check(map[string]any{"age": "x"}, docskema.Fields{"age": docskema.Integer})
	require.Error(t, err)

	wrapped := fmt.Errorf("save user: %w", err)
	ve, ok := docskema.AsValidationErrors(wrapped)
	require.True(t, ok)
	require.Len(t, ve, 1)
	assert.Equal(t, []string{"Age must be of type integer, got string"}, ve.Messages())

	_, ok = docskema.AsValidationErrors(docskema.ErrNilSchema)
	assert.False(t, ok)
	_, ok = docskema.AsValidationErrors(nil)
	assert.False(t, ok)
}
