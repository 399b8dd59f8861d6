package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"stuntcheck/internal/models"
)

// FieldError describes one violated constraint, keyed by the JSON field name
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is returned when a request body fails validation
type Errors []FieldError

func (e Errors) Error() string {
	messages := make([]string, len(e))
	for i, fe := range e {
		messages[i] = fe.Message
	}
	return strings.Join(messages, "; ")
}

// Validator checks request structs against their `validate` tags and
// reports failures as English sentences
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New creates a validator with the custom rules used by request payloads
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(err)
	}

	mustRegister(validate.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseGender(fl.Field().String())
		return ok
	}))
	mustRegister(validate.RegisterTranslation("gender", trans,
		func(ut ut.Translator) error {
			return ut.Add("gender", "{0} must be male or female", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("gender", fe.Field())
			return msg
		},
	))

	return &Validator{validate: validate, trans: trans}
}

// Struct validates s and returns Errors on failure
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := make(Errors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fe.Translate(v.trans)})
	}
	return out
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}
