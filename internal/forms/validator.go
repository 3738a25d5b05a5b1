// Package forms validates screen input and tracks per-screen form state.
package forms

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// phonePattern accepts numbers like 555-123-4567, (555) 123 4567 and
// +5551234567.
var phonePattern = regexp.MustCompile(`^[+]?[(]?[0-9]{3}[)]?[-\s.]?[0-9]{3}[-\s.]?[0-9]{4,6}$`)

// Validator checks single field values against validator tags and renders
// failures as English messages.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// NewValidator builds a Validator with the "phone" tag and English
// messages registered.
func NewValidator() (*Validator, error) {
	validate := validator.New()
	if err := validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("failed to register phone rule: %w", err)
	}

	english := en.New()
	uni := ut.New(english, english)
	trans, found := uni.GetTranslator("en")
	if !found {
		return nil, fmt.Errorf("no translator for locale %q", "en")
	}
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("failed to register translations: %w", err)
	}
	err := validate.RegisterTranslation("phone", trans,
		func(t ut.Translator) error {
			return t.Add("phone", "{0} must be a valid phone number", true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T("phone", fe.Field())
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register phone translation: %w", err)
	}

	return &Validator{validate: validate, trans: trans}, nil
}

// Check validates value against f's rules. It returns "" when the value
// passes.
func (v *Validator) Check(f Field, value string) string {
	if f.Rules == "" {
		return ""
	}
	if f.Trim {
		value = strings.TrimSpace(value)
	}
	err := v.validate.Var(value, f.Rules)
	if err == nil {
		return ""
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return f.Label + " is invalid"
	}

	fe := fieldErrs[0]
	if msg, ok := f.Messages[fe.Tag()]; ok {
		return msg
	}
	// Var has no field name, so the translation starts at the verb.
	msg := fe.Translate(v.trans)
	if strings.HasPrefix(msg, " ") {
		return f.Label + msg
	}
	return msg
}
