package directory

import (
	"errors"
	"fmt"
)

// Common backend errors.
var (
	// ErrNotFound is returned when the backend has no such group, book or student.
	ErrNotFound = errors.New("not found")
	// ErrServer is returned for any other non-2xx lookup response.
	ErrServer = errors.New("backend error")
	// ErrMissingGroup is returned when a group-scoped lookup is called without a group.
	ErrMissingGroup = errors.New("group id is required")
	// ErrMissingBook is returned when a copy lookup is called without a book.
	ErrMissingBook = errors.New("book id is required")
)

// RejectedError is returned when the backend refuses a book request.
// Body holds the backend's plain-text explanation.
type RejectedError struct {
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return fmt.Sprintf("Ошибка сервера (%d)", e.Status)
}
