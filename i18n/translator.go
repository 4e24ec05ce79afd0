package i18n

import (
	"strings"
	"sync"
)

// Message codes used by the validator. Templates reference data keys in
// braces, e.g. {field}.
const (
	Required     = "required"      // {field}
	InvalidType  = "invalid_type"  // {field} {expected} {got}
	NoMatch      = "no_match"      // {field}
	UnknownKey   = "unknown_key"   // {field} {key}
	UnknownField = "unknown_field" // {field}
	Empty        = "empty"         // {field}
	MinValue     = "min_value"     // {field} {min}
	MaxValue     = "max_value"     // {field} {max}
	MinLength    = "min_length"    // {field} {min}
	MaxLength    = "max_length"    // {field} {max}
	MinItems     = "min_items"     // {field} {min}
	MaxItems     = "max_items"     // {field} {max}
	MinProps     = "min_props"     // {field} {min}
	MaxProps     = "max_props"     // {field} {max}
	Pattern      = "pattern"       // {field} {pattern}
	NotAllowed   = "not_allowed"   // {field}
	NotUnique    = "not_unique"    // {field}
	DuplicateKey = "duplicate_key" // {key}
)

// Translator retrieves localized messages for message codes.
// data provides the values substituted into the template (for example,
// "field" or "min").
type Translator interface {
	Message(code string, data map[string]string) string
}

var dictionaries = map[string]map[string]string{
	"en": {
		Required:     "{field} is required",
		InvalidType:  "{field} must be of type {expected}, got {got}",
		NoMatch:      "{field} does not match any of the allowed types",
		UnknownKey:   "{field} contains unknown key '{key}'",
		UnknownField: "{field} is not allowed",
		Empty:        "{field} cannot be empty",
		MinValue:     "{field} must be at least {min}",
		MaxValue:     "{field} cannot exceed {max}",
		MinLength:    "{field} must be at least {min} characters",
		MaxLength:    "{field} cannot exceed {max} characters",
		MinItems:     "{field} must have at least {min} items",
		MaxItems:     "{field} cannot exceed {max} items",
		MinProps:     "{field} must have at least {min} properties",
		MaxProps:     "{field} cannot exceed {max} properties",
		Pattern:      "{field} must match the pattern {pattern}",
		NotAllowed:   "{field} must be one of the allowed values",
		NotUnique:    "{field} must contain unique items",
		DuplicateKey: "key '{key}' duplicated",
	},
	"ja": {
		Required:     "{field}は必須です",
		InvalidType:  "{field}は{expected}型である必要があります({got}が指定されました)",
		NoMatch:      "{field}は許可されたいずれの型にも一致しません",
		UnknownKey:   "{field}に未知のキー'{key}'が含まれています",
		UnknownField: "{field}は許可されていません",
		Empty:        "{field}は空にできません",
		MinValue:     "{field}は{min}以上である必要があります",
		MaxValue:     "{field}は{max}以下である必要があります",
		MinLength:    "{field}は{min}文字以上である必要があります",
		MaxLength:    "{field}は{max}文字以下である必要があります",
		MinItems:     "{field}は{min}件以上である必要があります",
		MaxItems:     "{field}は{max}件以下である必要があります",
		MinProps:     "{field}は{min}個以上のプロパティが必要です",
		MaxProps:     "{field}のプロパティは{max}個以下である必要があります",
		Pattern:      "{field}はパターン{pattern}に一致する必要があります",
		NotAllowed:   "{field}は許可された値のいずれかである必要があります",
		NotUnique:    "{field}の要素は一意である必要があります",
		DuplicateKey: "キー'{key}'が重複しています",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := dictionaries[t.lang][code]
	if !ok {
		tmpl, ok = dictionaries["en"][code]
	}
	if !ok {
		return code
	}
	return Fill(tmpl, data)
}

// Fill substitutes {key} placeholders in tmpl with values from data.
func Fill(tmpl string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	pairs := make([]string, 0, 2*len(data))
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var (
	mu                           = sync.RWMutex{}
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// Languages lists the languages of the built-in dictionary.
func Languages() []string { return []string{"en", "ja"} }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := dictionaries[lang]; !ok {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// Current returns the Translator in use.
func Current() Translator {
	mu.RLock()
	defer mu.RUnlock()
	return currentTranslator
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return Current().Message(code, data) }
