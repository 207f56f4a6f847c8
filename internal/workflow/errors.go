// Package workflow runs the trace, override and verify pipeline against the TMS:
// AUTH → TRACE1 → (DONE | OVERRIDE → TRACE2 → DONE).
package workflow

import (
	"errors"
	"net/http"
)

// ErrValidation indicates a malformed workflow request.
var ErrValidation = errors.New("invalid request")

// MapHTTPStatus maps workflow and upstream errors to HTTP status codes.
// Authentication and first-trace failures are fatal server errors.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
