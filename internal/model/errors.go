package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStoreUnavailable indicates the persistence layer cannot be reached.
// Handlers surface it as 503.
var ErrStoreUnavailable = errors.New("store unavailable")

// FieldError describes one offending field in an intake batch.
type FieldError struct {
	Field  string `json:"field"`  // e.g. "logs[2].level"
	Detail string `json:"detail"` // human-readable constraint violation
}

// ValidationError carries every field violation found across a whole intake
// batch. The batch is rejected atomically; nothing from it is persisted.
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, fmt.Sprintf("%s: %s", d.Field, d.Detail))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
