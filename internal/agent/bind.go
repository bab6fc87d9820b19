package agent

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	custom_errors "repo-intel/internal/errors"
)

// Validator checks decoded operation inputs against their struct tags and
// renders failures as short English messages keyed by JSON field name.
type Validator struct {
	v     *validator.Validate
	trans ut.Translator
}

// NewValidator returns a validator with English translations and json tag names.
func NewValidator() *Validator {
	enLoc := en.New()
	uni := ut.New(enLoc, enLoc)
	trans, _ := uni.GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())

	// prefer json tag names in messages
	v.RegisterTagNameFunc(jsonName)

	_ = en_translations.RegisterDefaultTranslations(v, trans)

	return &Validator{v: v, trans: trans}
}

// RegisterValidation adds a custom tag with its failure message.
// The message may reference the field name as {0}.
func (val *Validator) RegisterValidation(tag, message string, fn validator.Func) error {
	if err := val.v.RegisterValidation(tag, fn); err != nil {
		return err
	}
	return val.v.RegisterTranslation(tag, val.trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, message, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T(tag, fe.Field())
			return msg
		},
	)
}

// Struct validates s and maps the first failure to a ValidationError.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &custom_errors.ValidationError{Field: fe.Field(), Message: fe.Translate(val.trans)}
	}
	return &custom_errors.ValidationError{Message: err.Error()}
}

// Defaulter is implemented by inputs that fill unset fields before validation.
type Defaulter interface {
	ApplyDefaults()
}

// decodeInput unmarshals raw into T, applies defaults, and validates.
// An empty or null payload decodes to the zero value.
func decodeInput[T any](val *Validator, raw json.RawMessage) (T, error) {
	var in T
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil {
			return in, &custom_errors.ValidationError{Message: "invalid input: " + err.Error()}
		}
	}
	if d, ok := any(&in).(Defaulter); ok {
		d.ApplyDefaults()
	}
	if err := val.Struct(in); err != nil {
		return in, err
	}
	return in, nil
}

func jsonName(fld reflect.StructField) string {
	tag := fld.Tag.Get("json")
	if tag == "-" {
		return "-"
	}
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	if tag == "" {
		return fld.Name
	}
	return tag
}
