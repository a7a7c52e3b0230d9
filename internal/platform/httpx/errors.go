package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors mapped onto problem responses.
var (
	ErrNotFound    = errors.New("resource not found")
	ErrBadGateway  = errors.New("upstream unavailable")
	ErrUnavailable = errors.New("service unavailable")
)

// RespondError maps err to an RFC7807 response. Unmatched errors become 500s
// carrying the error text as detail.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		Problem(w, http.StatusInternalServerError, "Internal Error", "unknown failure")
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrBadGateway):
		Problem(w, http.StatusBadGateway, "Bad Gateway", err.Error())
	case errors.Is(err, ErrUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", err.Error())
	}
}
