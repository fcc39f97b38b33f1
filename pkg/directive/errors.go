package directive

import (
	"errors"
	"fmt"
)

const (
	ErrorUnknownOperation = "unknown_operation"
	ErrorMissingField     = "missing_field"
	ErrorInvalidField     = "invalid_field"
	ErrorBadEnvelope      = "bad_envelope"
)

// DecodeError represents a stable, categorized decode failure. Decode failures
// are non-fatal: the caller logs them and drops the message.
type DecodeError struct {
	Category string
	Detail   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail == "" {
		return e.Category
	}

	return fmt.Sprintf("%s: %s", e.Category, e.Detail)
}

// NewDecodeError creates a categorized decode error.
func NewDecodeError(category string, detail string) error {
	return &DecodeError{Category: category, Detail: detail}
}

// DecodeCategory returns the stable category for a decode error when available.
func DecodeCategory(err error) string {
	if err == nil {
		return ""
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return decodeErr.Category
	}

	return ""
}
