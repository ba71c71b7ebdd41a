package response

import (
	"errors"
)

// Error carries the HTTP status a domain failure maps to.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

// Wrap attaches the status and message of a domain error to a lower level cause.
func Wrap(domain error, cause error) error {
	var d *Error
	if !errors.As(domain, &d) || cause == nil {
		return domain
	}
	return &Error{Code: d.Code, Err: &wrapped{msg: d.Err.Error(), cause: cause}}
}

type wrapped struct {
	msg   string
	cause error
}

func (w *wrapped) Error() string {
	return w.msg
}

func (w *wrapped) Unwrap() error {
	return w.cause
}
