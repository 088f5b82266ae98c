// Package validation wraps go-playground/validator with per-field
// failure messages suitable for API error payloads.
package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FieldErrors holds one human-readable message per failed field.
type FieldErrors []string

// Error implements the error interface
func (f FieldErrors) Error() string {
	if len(f) == 0 {
		return "validation failed"
	}
	return f[0]
}

// ValidateStruct validates a struct using its validate tags. It returns a
// FieldErrors value when one or more fields fail, or the raw error when
// validation itself could not run.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	if ve, ok := err.(validator.ValidationErrors); ok {
		msgs := make(FieldErrors, 0, len(ve))
		for _, e := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed validation: %s", e.Field(), e.Tag()))
		}
		return msgs
	}

	return err
}
