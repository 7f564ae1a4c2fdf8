package service

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateClaim     = errors.New("claim ID already exists")
	ErrUnsupportedMedia   = errors.New("invalid file type")
	ErrFileTooLarge       = errors.New("file too large")
	ErrInfectedFile       = errors.New("file rejected by antivirus scan")
	ErrProcessing         = errors.New("document processing failed")
	ErrFileNotReviewable  = errors.New("file is not awaiting review")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
)

// ValidationError is returned for malformed or incomplete input. Its
// message is safe to show to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
