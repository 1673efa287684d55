package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hunterianlab/modules-platform/internal/models"
	"github.com/hunterianlab/modules-platform/libs/auth/middleware"
	"github.com/hunterianlab/modules-platform/libs/handlers"
	"go.uber.org/zap"
)

// respondServiceError maps a service error onto an HTTP status.
// Validation and not-found errors carry their message to the client; anything else is logged and hidden.
func respondServiceError(h *handlers.BaseHandler, w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		h.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		h.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInvalidCredentials):
		h.RespondError(w, http.StatusUnauthorized, err.Error())
	default:
		h.Logger.Error("failed to "+action, zap.String("path", r.URL.Path), zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// intParam parses a non-negative integer path parameter
func intParam(r *http.Request, name string) (int, bool) {
	value, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

// adminID returns the authenticated admin, answering 401 when the request carries none
func adminID(h *handlers.BaseHandler, w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.GetAdminID(r.Context())
	if !ok || id == "" {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return id, true
}
