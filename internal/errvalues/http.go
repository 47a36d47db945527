package errvalues

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/prtracker/pkg"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// HTTPStatus maps the error taxonomy onto response status codes.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrValidation), errors.Is(err, ErrSelfReference):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteHTTPError writes err as a JSON error body. Internal failures are logged
// and replaced by the generic fallback message.
func WriteHTTPError(w http.ResponseWriter, err error, fallbackMsg string) {
	status := HTTPStatus(err)
	resp := ErrorResponse{Error: err.Error()}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		resp = ErrorResponse{Error: validationErr.Reason, Field: validationErr.Field}
	}

	if status >= http.StatusInternalServerError {
		log.Errorf("%s: %s", fallbackMsg, err)
		resp = ErrorResponse{Error: fallbackMsg}
	} else {
		log.Tracef("%s: %s", fallbackMsg, err)
	}

	pkg.WriteJSON(w, resp, status)
}
