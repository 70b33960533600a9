package inbound

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"

	apperr "github.com/refferq/refferq/domain/error"
)

// CheckRequest runs a request's validation rules and converts a failure into
// a ValidationError carrying the first field message.
func CheckRequest(v validation.Validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		keys := make([]string, 0, len(fieldErrs))
		for k := range fieldErrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if fieldErrs[k] != nil {
				return apperr.NewValidationError(fieldErrs[k].Error(), err)
			}
		}
	}
	return apperr.NewValidationError(err.Error(), err)
}
