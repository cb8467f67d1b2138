// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the domain layer. Domain packages wrap these so
// handlers can map failures to status codes without inspecting messages.
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("already registered")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflicting concurrent modification")
	ErrUnauthorized = errors.New("unauthorized")
)

// Mapped reports whether RespondError resolves err to a specific status.
// Handlers use it to keep their own logging on the unmapped 500 path.
func Mapped(err error) bool {
	for _, sentinel := range []error{ErrNotFound, ErrDuplicate, ErrValidation, ErrConflict, ErrUnauthorized} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusConflict, "Transaction Conflict", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
