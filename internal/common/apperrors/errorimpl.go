package apperrors

import (
	"fmt"
	"strings"
)

// appError implements the apperrors.Error interface
type appError struct {
	msg           string
	base          Error
	wrappedErrors []error
	statuscode    int
	expandError   bool
}

func (e *appError) Error() string {
	return e.msg
}

// ErrorAll returns the message followed by the messages of all wrapped
// errors when expansion is enabled.
func (e *appError) ErrorAll() string {
	if !e.expandError || len(e.wrappedErrors) == 0 {
		return e.msg
	}
	msgs := make([]string, 0, len(e.wrappedErrors))
	for _, err := range e.wrappedErrors {
		msgs = append(msgs, err.Error())
	}
	return e.msg + ": " + strings.Join(msgs, ";")
}

func (e *appError) Unwrap() []error {
	return e.wrappedErrors
}

func (e *appError) child(msg string, errs []error) *appError {
	return &appError{
		msg:           msg,
		base:          e,
		wrappedErrors: errs,
		statuscode:    e.statuscode,
		expandError:   e.expandError,
	}
}

func (e *appError) New(msg string) Error {
	return e.child(msg, nil)
}

func (e *appError) Msg(msg string) Error {
	return e.child(msg, nil)
}

func (e *appError) Msgf(format string, args ...any) Error {
	return e.child(fmt.Sprintf(format, args...), nil)
}

func (e *appError) MsgErr(msg string, err ...error) Error {
	return e.child(msg, append([]error(nil), err...))
}

func (e *appError) Err(err ...error) Error {
	return e.child(e.msg, append([]error(nil), err...))
}

func (e *appError) Is(target error) bool {
	if e == target || (e.base != nil && e.base == target) {
		return true
	}
	if e.base != nil && e.base.Is(target) {
		return true
	}
	for _, err := range e.wrappedErrors {
		if err == target {
			return true
		}
		if ae, ok := err.(Error); ok && ae.Is(target) {
			return true
		}
	}
	return false
}

func (e *appError) SetExpandError(expand bool) Error {
	e.expandError = expand
	return e
}

func (e *appError) SetStatusCode(code int) Error {
	e.statuscode = code
	return e
}

func (e *appError) StatusCode() int {
	return e.statuscode
}

// New creates a root error.
func New(msg string) Error {
	return &appError{
		msg: msg,
	}
}
