package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hunterianlab/modules-platform/internal/models"
	"github.com/hunterianlab/modules-platform/libs/handlers"
	"go.uber.org/zap"
)

// AdminService defines the interface for admin authentication
type AdminService interface {
	// Login checks the credentials against the approved-admins list and issues an access token.
	//
	// Returns models.ErrInvalidCredentials for an unknown admin or a wrong password.
	Login(req models.LoginRequest) (*models.LoginResponse, error)
}

// AuthHandler handles admin authentication requests
type AuthHandler struct {
	handlers.BaseHandler
	adminService AdminService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(adminService AdminService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler:  handlers.BaseHandler{Logger: logger},
		adminService: adminService,
	}
}

// RegisterRoutes registers all auth handler routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

// Login handles POST /auth/login
// @Summary Admin login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Admin credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.adminService.Login(req)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "log in")
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}
