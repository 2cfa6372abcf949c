// Package validation checks user input with the validator/v10 library and
// reports failures as structured validation errors.
package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/listenupapp/shelfwise/internal/errors"
)

const (
	passwordMinLength = 8
	passwordMaxLength = 25
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our domain.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error details
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "":
			return fld.Name
		case "-":
			return ""
		}
		return name
	})

	// The rule set is fixed, registration cannot fail.
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsPassword(fl.Field().String())
	})

	return &Validator{v: v}
}

// IsPassword reports whether s is 8 to 25 ASCII letters and digits with at
// least one uppercase letter and one digit.
func IsPassword(s string) bool {
	if len(s) < passwordMinLength || len(s) > passwordMaxLength {
		return false
	}

	var upper, digit bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'a' && r <= 'z':
		default:
			return false
		}
	}
	return upper && digit
}

// Validate validates a struct and returns an *errors.Error on failure.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// Var validates a single value against a tag, reporting it under field.
func (v *Validator) Var(field string, value any, tag string) error {
	if err := v.v.Var(value, tag); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return errors.Wrap(err, errors.KeyInternal, "validation misconfigured")
		}
		details := make([]errors.FieldError, 0, len(validationErrs))
		for _, e := range validationErrs {
			details = append(details, v.fieldError(field, e))
		}
		return errors.ValidationWithDetails("validation failed", details)
	}
	return nil
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return errors.Wrap(err, errors.KeyInternal, "validation misconfigured")
	}

	details := make([]errors.FieldError, 0, len(validationErrs))
	for _, e := range validationErrs {
		details = append(details, v.fieldError(fieldPath(e), e))
	}
	return errors.ValidationWithDetails("validation failed", details)
}

func (v *Validator) fieldError(name string, e validator.FieldError) errors.FieldError {
	fe := errors.FieldError{
		FieldName:  name,
		MessageKey: errors.Key("validation." + e.Tag()),
		Message:    v.friendlyMessage(e),
	}
	// Never echo secrets back to the caller.
	if e.Tag() != "password" && !strings.Contains(name, "password") {
		fe.FieldValue = fmt.Sprint(e.Value())
	}
	return fe
}

// fieldPath drops the top-level struct name from the namespace,
// so "User.personal_info.name" becomes "personal_info.name".
func fieldPath(e validator.FieldError) string {
	if _, rest, ok := strings.Cut(e.Namespace(), "."); ok {
		return rest
	}
	return e.Field()
}

func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "password":
		return fmt.Sprintf("must be %d-%d letters and digits with an uppercase letter and a digit",
			passwordMinLength, passwordMaxLength)
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", e.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "eqfield":
		return "must match " + e.Param()
	default:
		return "is invalid"
	}
}
