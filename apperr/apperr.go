// Package apperr carries the error taxonomy used across handlers: every
// failure a handler can report maps to exactly one HTTP status, and the
// request boundary converts it to a JSON error body.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"boutique/utils"
)

type Error struct {
	Code int // HTTP status
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func Validation(format string, args ...any) *Error {
	return &Error{Code: http.StatusBadRequest, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Code: http.StatusNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Code: http.StatusForbidden, Msg: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) *Error {
	return &Error{Code: http.StatusUnauthorized, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Code: http.StatusConflict, Msg: fmt.Sprintf(format, args...)}
}

func Internal(format string, args ...any) *Error {
	return &Error{Code: http.StatusInternalServerError, Msg: fmt.Sprintf(format, args...)}
}

// InsufficientStock reports how many units remain so the client can
// adjust the requested quantity.
func InsufficientStock(remaining int) *Error {
	return &Error{Code: http.StatusBadRequest, Msg: fmt.Sprintf("Only %d items left in stock", remaining)}
}

// Status returns the HTTP status for err, defaulting to 500 for errors
// that did not originate in this package.
func Status(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return http.StatusInternalServerError
}

// Write converts err to the JSON error body used by every endpoint.
func Write(w http.ResponseWriter, err error) {
	utils.RespondWithError(w, Status(err), err.Error())
}

func IsNotFound(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == http.StatusNotFound
}
