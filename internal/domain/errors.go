package domain

import (
	"errors"
	"fmt"
)

// Kind classifies errors so callers can decide between exiting and reporting
type Kind string

const (
	KindConfigMissing Kind = "config_missing"
	KindConfigInvalid Kind = "config_invalid"
	KindValidation    Kind = "validation"
	KindGeneration    Kind = "generation"
	KindDownload      Kind = "download"
	KindIO            Kind = "io"
)

var (
	// ErrConfigMissing is returned after the credentials template has been written
	ErrConfigMissing = NewError(KindConfigMissing, "credentials file was missing, template created", nil)

	ErrEmptyPrompt   = NewError(KindValidation, "prompt cannot be empty", nil)
	ErrInvalidPrompt = NewError(KindValidation, "prompt cannot be used as a file name", nil)
)

// Error is the error type returned by the credential store and the generator
type Error struct {
	Kind    Kind
	Message string
	// StatusCode is the upstream HTTP status for generation and download errors
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Kind) + ": " + e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError builds an *Error of the given kind
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// NewStatusError builds an *Error that carries an upstream HTTP status
func NewStatusError(kind Kind, status int, message string) *Error {
	return &Error{
		Kind:       kind,
		Message:    message,
		StatusCode: status,
	}
}

// IsKind reports whether any error in err's chain is an *Error of kind
func IsKind(err error, kind Kind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// IsFatal reports whether err should stop the program at startup
func IsFatal(err error) bool {
	return IsKind(err, KindConfigMissing) || IsKind(err, KindConfigInvalid)
}
