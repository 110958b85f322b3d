package errs

import (
	"errors"
	"fmt"
)

type Code string

const (
	Internal Code = "internal"
	Invalid  Code = "invalid"
	Storage  Code = "storage"
	Resource Code = "resource"
)

// Error is an application error.
type Error struct {
	// Code is a machine-readable error code.
	Code Code

	// Description is a human-readable description of the error.
	Description string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "wake-breaker: " + string(e.Code) + ": " + e.Description
}

func Errorf(code Code, format string, args ...any) error {
	return &Error{code, fmt.Sprintf(format, args...)}
}

// ErrorCode returns the error code associated with err, or Internal if err
// isn't an application error.
func ErrorCode(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return Internal
}

// ErrorDescription returns a human-readable description of the error, or
// "internal error" if err isn't an application error.
func ErrorDescription(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Description != "" {
		return e.Description
	}
	return "internal error"
}
