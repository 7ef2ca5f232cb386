// Package validation checks request payloads against their struct tags.
package validation

import (
	"github.com/go-playground/validator/v10"

	"backend-milestomemories/internal/shared/apperr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Check validates v and reports any failure as a 400 carrying message.
func Check(v any, message string) error {
	if err := validate.Struct(v); err != nil {
		return apperr.Validation(message)
	}
	return nil
}
