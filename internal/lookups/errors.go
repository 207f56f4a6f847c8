// Package lookups serves PRO status lookups and stage overrides over HTTP.
// Each request runs the workflow once, journals the run, and publishes
// override events.
package lookups

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/protrace/internal/workflow"
)

// ErrMethodNotAllowed is returned for any method other than POST.
var ErrMethodNotAllowed = errors.New("method not allowed")

// MapHTTPStatus maps lookup errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrMethodNotAllowed) {
		return http.StatusMethodNotAllowed
	}
	return workflow.MapHTTPStatus(err)
}
