// Package validator wraps go-playground/validator with human-readable
// per-field messages for request payload validation.
package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError aggregates per-field validation failures.
type ValidationError struct {
	fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.fields))
	for field, msg := range e.fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the field-name to message map.
func (e *ValidationError) Fields() map[string]string {
	return e.fields
}

// Validate checks the struct's `validate` tags and returns a
// *ValidationError describing every failing field, or nil.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	fields := make(map[string]string)
	if ok := asValidationErrors(err, &verrs); ok {
		for _, fe := range verrs {
			fields[fieldName(fe)] = msgForTag(fe)
		}
	} else {
		fields["_"] = err.Error()
	}

	return &ValidationError{fields: fields}
}

// DecodeAndValidate JSON-decodes the body into v and validates it.
func DecodeAndValidate(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return Validate(v)
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

func fieldName(fe validator.FieldError) string {
	return strings.ToLower(fe.Field())
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid":
		return "must be a valid UUID"
	case "email":
		return "must be a valid email address"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must have at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must have at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "e164":
		return "must be a valid phone number in E.164 format"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
