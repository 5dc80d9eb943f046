package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the session token is missing or expired; callers force a logout
	ErrUnauthorized = errors.New("unauthorized")

	// ErrBackendUnreachable means the backend could not be contacted at all
	ErrBackendUnreachable = errors.New("backend unreachable")

	// ErrNotFound means the referenced asset is not in the session
	ErrNotFound = errors.New("not found")

	// ErrCancelled means the user declined a confirmation
	ErrCancelled = errors.New("cancelled")
)

// RejectedError is returned when the backend refuses a request (validation or server error)
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request rejected with status %d", e.Status)
	}
	return fmt.Sprintf("request rejected with status %d: %s", e.Status, e.Message)
}

// UserMessage converts an error into a message suitable for the user
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var rejected *RejectedError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "Your session has expired. Please log in again."
	case errors.Is(err, ErrBackendUnreachable):
		return "Cannot reach the backend server. Please check that it is running."
	case errors.Is(err, ErrCancelled):
		return "Operation cancelled."
	case errors.Is(err, ErrNotFound):
		return "The requested asset could not be found."
	case errors.As(err, &rejected) && rejected.Message != "":
		return rejected.Message
	default:
		return "Something went wrong. Please try again."
	}
}
