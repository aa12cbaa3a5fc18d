// Package normalize coerces untrusted input into validated catalog and
// configuration values.
package normalize

import (
	"errors"
	"fmt"
)

// ValidationError is the single failure kind for malformed estimator input.
// Details carries numeric diagnostics when a caller needs to render them.
type ValidationError struct {
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Errorf builds a ValidationError without details
func Errorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// AsValidation unwraps err into a ValidationError if it is one
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
