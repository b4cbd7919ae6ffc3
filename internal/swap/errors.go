package swap

import (
	"errors"
	"net/http"
)

// Error taxonomy shared by services and stores. Handlers map these to HTTP
// status codes; everything else bubbles up as a 500.
var (
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidState       = errors.New("operation not allowed in current state")
	ErrConflict           = errors.New("conflict")
	ErrPreconditionFailed = errors.New("precondition not satisfied")
	ErrNotFound           = errors.New("not found")
)

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrPreconditionFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
