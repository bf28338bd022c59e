package forms

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Errors maps a form field (its JSON name) to a human readable message.
type Errors map[string]string

// Error joins the messages so Errors can travel as an error value.
func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// Valid reports whether no field failed.
func (e Errors) Valid() bool { return len(e) == 0 }

var (
	validate   *validator.Validate
	translator ut.Translator
	initOnce   sync.Once
)

const (
	notBlankTag  = "notblank"
	notBlankText = "{0} must not be blank"
	requiredText = "this field is required"
)

func setup() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, validators.NotBlank)
	registerTranslation(notBlankTag, notBlankText, false)
	registerTranslation("required", requiredText, true)
}

func registerTranslation(tag, text string, override bool) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Validate checks form against its `validate` tags and any Check method.
// A nil result means the form may be submitted.
func Validate(form any) Errors {
	initOnce.Do(setup)

	errs := Errors{}
	if err := validate.Struct(form); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			errs["_"] = err.Error()
			return errs
		}
		for _, fe := range ve {
			field := fe.Field()
			if _, seen := errs[field]; !seen {
				errs[field] = fe.Translate(translator)
			}
		}
	}
	if c, ok := form.(checker); ok {
		c.check(errs)
	}
	if errs.Valid() {
		return nil
	}
	return errs
}

// checker is implemented by forms with cross-field rules.
type checker interface {
	check(Errors)
}
