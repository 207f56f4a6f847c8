package lookups

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/protrace/internal/tms"
	"github.com/JaimeStill/protrace/internal/workflow"
	"github.com/JaimeStill/protrace/pkg/handlers"
	"github.com/JaimeStill/protrace/pkg/routes"
)

const maxBodyBytes = 1 << 20

// Handler provides the HTTP endpoint for lookups.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "lookups"),
	}
}

// Routes returns the route group definition for lookup endpoints.
// The method-less route answers every non-POST request with 405.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/tms",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Lookup},
			{Pattern: "", Handler: h.MethodNotAllowed},
		},
	}
}

// Lookup decodes a workflow request, runs it, and writes the result.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	var req workflow.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("%w: invalid JSON body: %v", workflow.ErrValidation, err))
		return
	}

	result, err := h.sys.Lookup(r.Context(), req)
	if err != nil {
		status := MapHTTPStatus(err)
		if status >= http.StatusInternalServerError {
			handlers.RespondErrorDetails(w, h.logger, status, err, tms.Details(err))
			return
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// MethodNotAllowed rejects any method other than POST.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	handlers.RespondError(w, h.logger, http.StatusMethodNotAllowed, ErrMethodNotAllowed)
}
