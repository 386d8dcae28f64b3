// Package validator adapts go-playground/validator to echo and renders its
// failures as field-keyed messages.
package validator

import (
	"fmt"
	"reflect"
	"strings"

	"foodbridge/internal/errors"

	"github.com/go-playground/validator/v10"
)

// FormKey collects errors that belong to no single field.
const FormKey = "_form"

// messageTag overrides the generated message of a field.
const messageTag = "msg"

// CustomValidator implements echo.Validator.
type CustomValidator struct {
	validate *validator.Validate
}

// New returns a validator that names fields by their json (or form) tag.
func New() *CustomValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(fieldName)

	return &CustomValidator{validate: validate}
}

// Validate implements echo.Validator.
func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validate.Struct(i); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// FieldErrors turns a validation failure of obj into messages keyed by field
// name. Errors that are not validation failures land under FormKey.
func FieldErrors(obj any, err error) map[string][]string {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return map[string][]string{FormKey: {err.Error()}}
	}

	structType := reflect.TypeOf(obj)
	for structType != nil && structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}

	out := make(map[string][]string, len(validationErrs))
	for _, fe := range validationErrs {
		out[fe.Field()] = append(out[fe.Field()], message(structType, fe))
	}

	return out
}

// Summary joins field errors into one line for JSON error details.
func Summary(fields map[string][]string) string {
	parts := make([]string, 0, len(fields))
	for field, messages := range fields {
		parts = append(parts, field+": "+strings.Join(messages, ", "))
	}

	return strings.Join(parts, "; ")
}

func message(structType reflect.Type, fe validator.FieldError) string {
	if structType != nil && structType.Kind() == reflect.Struct {
		if field, ok := structType.FieldByName(fe.StructField()); ok {
			if msg := field.Tag.Get(messageTag); msg != "" {
				return msg
			}
		}
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Please enter a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "latitude", "longitude":
		return fmt.Sprintf("%s is out of range", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func fieldName(field reflect.StructField) string {
	for _, tag := range []string{"json", "form", "query", "param"} {
		name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}

	return field.Name
}
