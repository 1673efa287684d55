package handlers

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hunterianlab/modules-platform/internal/models"
	"github.com/hunterianlab/modules-platform/libs/handlers"
	"go.uber.org/zap"
)

// multipartMemory is the part of a multipart body kept in memory before spilling to temp files
const multipartMemory = 32 << 20

// ModuleService defines the interface for module document operations
type ModuleService interface {
	// CreateModule validates the request and stores a module with no units.
	//
	// Returns models.ErrValidation for a blank title or a non-image thumbnail.
	CreateModule(ctx context.Context, req models.CreateModuleRequest) (*models.Module, error)
	// ListModules returns summaries of all modules in insertion order.
	ListModules(ctx context.Context) ([]models.ModuleListItem, error)
	// GetModule returns the full module document, or models.ErrNotFound.
	GetModule(ctx context.Context, id int) (*models.Module, error)
	// GetThumbnail returns the thumbnail bytes and mime type.
	GetThumbnail(ctx context.Context, id int) ([]byte, string, error)
	// DeleteModule removes a module. Deleting an absent module succeeds.
	DeleteModule(ctx context.Context, id int) error
	// DeleteUnit removes a unit and renumbers the remaining ones.
	DeleteUnit(ctx context.Context, moduleID, unitID int) error
}

// ModuleHandler handles module-related HTTP requests
type ModuleHandler struct {
	handlers.BaseHandler
	moduleService ModuleService
}

// NewModuleHandler creates a new module handler
func NewModuleHandler(moduleService ModuleService, logger *zap.Logger) *ModuleHandler {
	return &ModuleHandler{
		BaseHandler:   handlers.BaseHandler{Logger: logger},
		moduleService: moduleService,
	}
}

// RegisterRoutes registers all module handler routes
func (h *ModuleHandler) RegisterRoutes(r chi.Router) {
	r.Route("/modules", func(r chi.Router) {
		r.Get("/", h.ListModules)
		r.Post("/", h.CreateModule)
		r.Get("/{id}", h.GetModule)
		r.Delete("/{id}", h.DeleteModule)
		r.Get("/{id}/thumbnail", h.GetThumbnail)
		r.Delete("/{id}/units/{unitId}", h.DeleteUnit)
	})
}

// ListModules handles GET /modules
// @Summary List modules
// @Tags modules
// @Produce json
// @Success 200 {array} models.ModuleListItem
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /modules [get]
func (h *ModuleHandler) ListModules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.moduleService.ListModules(r.Context())
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "list modules")
		return
	}

	h.RespondJSON(w, http.StatusOK, modules)
}

// CreateModule handles POST /modules.
// Accepts multipart/form-data with title, description and an optional thumbnail file,
// or a JSON body with title and description.
// @Summary Create module
// @Tags modules
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Module title"
// @Param description formData string false "Module description"
// @Param thumbnail formData file false "Thumbnail image"
// @Success 201 {object} models.Module
// @Failure 400 {object} map[string]string "Invalid request"
// @Security BearerAuth
// @Router /modules [post]
func (h *ModuleHandler) CreateModule(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(&h.BaseHandler, w, r)
	if !ok {
		return
	}

	var req models.CreateModuleRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			h.RespondError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		req.Title = r.FormValue("title")
		req.Description = r.FormValue("description")

		file, header, err := r.FormFile("thumbnail")
		switch {
		case err == nil:
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				h.RespondError(w, http.StatusBadRequest, "failed to read thumbnail")
				return
			}
			req.Thumbnail = data
			req.ThumbnailMimeType = header.Header.Get("Content-Type")
		case err != http.ErrMissingFile:
			h.RespondError(w, http.StatusBadRequest, "invalid thumbnail upload")
			return
		}
	} else {
		var body struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := h.DecodeJSON(r, &body); err != nil {
			h.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Title = body.Title
		req.Description = body.Description
	}
	req.CreatedBy = admin

	module, err := h.moduleService.CreateModule(r.Context(), req)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "create module")
		return
	}

	h.RespondJSON(w, http.StatusCreated, module)
}

// GetModule handles GET /modules/{id}
// @Summary Get module with its units
// @Tags modules
// @Produce json
// @Param id path int true "Module ID"
// @Success 200 {object} models.Module
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Module not found"
// @Security BearerAuth
// @Router /modules/{id} [get]
func (h *ModuleHandler) GetModule(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r, "id")
	if !ok {
		h.RespondError(w, http.StatusBadRequest, "invalid module id")
		return
	}

	module, err := h.moduleService.GetModule(r.Context(), id)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "get module")
		return
	}

	h.RespondJSON(w, http.StatusOK, module)
}

// GetThumbnail handles GET /modules/{id}/thumbnail
// @Summary Get module thumbnail
// @Tags modules
// @Produce image/png,image/jpeg,image/webp
// @Param id path int true "Module ID"
// @Success 200 {file} binary "Thumbnail image"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Module or thumbnail not found"
// @Security BearerAuth
// @Router /modules/{id}/thumbnail [get]
func (h *ModuleHandler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r, "id")
	if !ok {
		h.RespondError(w, http.StatusBadRequest, "invalid module id")
		return
	}

	data, mimeType, err := h.moduleService.GetThumbnail(r.Context(), id)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "get thumbnail")
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.Logger.Warn("failed to write thumbnail", zap.Int("module_id", id), zap.Error(err))
	}
}

// DeleteModule handles DELETE /modules/{id}
// @Summary Delete module
// @Description Deleting a missing module succeeds. Blobs referenced by the module are kept.
// @Tags modules
// @Param id path int true "Module ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /modules/{id} [delete]
func (h *ModuleHandler) DeleteModule(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r, "id")
	if !ok {
		h.RespondError(w, http.StatusBadRequest, "invalid module id")
		return
	}

	if err := h.moduleService.DeleteModule(r.Context(), id); err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "delete module")
		return
	}

	h.RespondNoContent(w)
}

// DeleteUnit handles DELETE /modules/{id}/units/{unitId}
// @Summary Delete unit
// @Description Remaining units are renumbered 0..n-1.
// @Tags modules
// @Param id path int true "Module ID"
// @Param unitId path int true "Unit ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Module or unit not found"
// @Security BearerAuth
// @Router /modules/{id}/units/{unitId} [delete]
func (h *ModuleHandler) DeleteUnit(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r, "id")
	if !ok {
		h.RespondError(w, http.StatusBadRequest, "invalid module id")
		return
	}
	unitID, ok := intParam(r, "unitId")
	if !ok {
		h.RespondError(w, http.StatusBadRequest, "invalid unit id")
		return
	}

	if err := h.moduleService.DeleteUnit(r.Context(), id, unitID); err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "delete unit")
		return
	}

	h.RespondNoContent(w)
}
