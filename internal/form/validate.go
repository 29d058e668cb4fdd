package form

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
)

const defaultInvalidMessage = "Veuillez remplir tous les champs obligatoires."

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// Check validates a struct against its validate tags. Failures are
// VALIDATION_ERROR with message as the user-facing text and per-field details.
func Check(value any, message string) error {
	if message == "" {
		message = defaultInvalidMessage
	}
	err := validate.Struct(value)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, message)
	}
	details := map[string]string{}
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = fieldMessage(fieldErr)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(details)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "est obligatoire"
	case "min":
		return fmt.Sprintf("doit contenir au moins %s caractères", fe.Param())
	case "max":
		return fmt.Sprintf("doit contenir au plus %s caractères", fe.Param())
	case "email":
		return "doit être une adresse e-mail valide"
	case "url":
		return "doit être une URL valide"
	case "eqfield":
		return "ne correspond pas"
	case "oneof":
		return fmt.Sprintf("doit valoir l'une des valeurs: %s", fe.Param())
	}
	return "est invalide"
}

func isStruct(value any) bool {
	t := reflect.TypeOf(value)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.Struct
}

// Invalid reports whether err is a client-side validation failure rather than
// one reported by the API.
func Invalid(err error) bool {
	return pkgerrors.IsCode(err, pkgerrors.CodeValidation) && pkgerrors.StatusOf(err) == 0
}
