package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	data := map[string]string{"field": "Name", "min": "2"}

	// default is en
	assert.Equal(t, "Name must be at least 2 characters", T(MinLength, data))

	SetLanguage("ja")
	t.Cleanup(func() { SetLanguage("en") })
	assert.Equal(t, "Nameは2文字以上である必要があります", T(MinLength, data))
}

func TestTranslator_UnknownLanguageFallsBackToEnglish(t *testing.T) {
	SetLanguage("xx")
	t.Cleanup(func() { SetLanguage("en") })
	assert.Equal(t, "Age is required", T(Required, map[string]string{"field": "Age"}))
}

func TestTranslator_UnknownCodeReturnsCode(t *testing.T) {
	assert.Equal(t, "no_such_code", T("no_such_code", nil))
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestSetTranslator_Custom(t *testing.T) {
	SetTranslator(upper{})
	t.Cleanup(func() { SetTranslator(nil) })
	assert.Equal(t, "X:required", T(Required, nil))
}

func TestFill_LeavesUnknownPlaceholders(t *testing.T) {
	assert.Equal(t, "a {b} c", Fill("{a} {b} c", map[string]string{"a": "a"}))
}
