package publisher

import (
	"errors"
	"fmt"
	"io/fs"
)

const (
	ErrorContention       = "contention"
	ErrorInvalidPath      = "invalid_path"
	ErrorPermissionDenied = "permission_denied"
	ErrorIO               = "io_error"
)

// Error represents a stable, categorized publish failure.
type Error struct {
	Category string
	Detail   string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail == "" {
		return e.Category
	}

	return fmt.Sprintf("%s: %s", e.Category, e.Detail)
}

// NewError creates a categorized publish error.
func NewError(category string, detail string) error {
	return &Error{Category: category, Detail: detail}
}

// CategoryFromError returns the stable category for an error when available.
func CategoryFromError(err error) string {
	if err == nil {
		return ""
	}

	var categorized *Error
	if errors.As(err, &categorized) {
		return categorized.Category
	}

	if errors.Is(err, fs.ErrPermission) {
		return ErrorPermissionDenied
	}

	return ErrorIO
}

// IsContention reports whether an error is the retry-budget-exhausted case, the
// one publish failure that is expected during normal operation.
func IsContention(err error) bool {
	return CategoryFromError(err) == ErrorContention
}
