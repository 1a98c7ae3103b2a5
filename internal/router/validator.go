package router

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"web3nav/internal/errors"
)

var sectionKeyPattern = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator  *validator.Validate
	translator ut.Translator
}

// NewValidator returns a validator with the project's custom tags registered.
// Field names in messages are the JSON names clients send.
//
//   - sectionkey: lower-case letters and digits separated by single - or _,
//     not made of digits alone since a numeric ref is read as an id
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("sectionkey", func(fl validator.FieldLevel) bool {
		return IsSectionKey(fl.Field().String())
	})

	locale := en.New()
	trans, _ := ut.New(locale, locale).GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(v, trans)
	_ = v.RegisterTranslation("sectionkey", trans,
		func(t ut.Translator) error {
			return t.Add("sectionkey", "{0} must be lower-case letters and digits joined by single - or _ and cannot be only digits", true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T("sectionkey", fe.Field())
			return msg
		},
	)

	return &CustomValidator{validator: v, translator: trans}
}

// Validate implements echo.Validator interface. Field failures come back as
// *errors.ValidationError with one readable message per field.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fe.Translate(cv.translator))
	}
	return &errors.ValidationError{Messages: messages}
}

// IsSectionKey reports whether key is a well-formed section key.
func IsSectionKey(key string) bool {
	return sectionKeyPattern.MatchString(key) && strings.Trim(key, "0123456789") != ""
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	}
	return name
}
