package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hunterianlab/modules-platform/internal/models"
	"github.com/hunterianlab/modules-platform/libs/handlers"
	"go.uber.org/zap"
)

// StagingService defines the interface for edit session operations.
// Every session-scoped method returns models.ErrNotFound when the session
// does not exist or belongs to another admin.
type StagingService interface {
	OpenSession(ctx context.Context, moduleID int, adminID string) (models.SessionSnapshot, error)
	GetSession(sessionID, adminID string) (models.SessionSnapshot, error)
	CloseSession(sessionID, adminID string) error
	BeginUnit(sessionID, adminID string) (models.SessionSnapshot, error)
	AddItem(ctx context.Context, sessionID, adminID string, req models.AddItemRequest) ([]models.Item, error)
	CommitUnit(ctx context.Context, sessionID, adminID string, req models.CommitUnitRequest) (*models.CommitUnitResponse, error)
	CancelUnit(sessionID, adminID string) (models.SessionSnapshot, error)
	AddQuestion(sessionID, adminID string, req models.QuizQuestionRequest) (models.SessionSnapshot, error)
	EditQuestion(sessionID, adminID string, index int, req models.QuizQuestionRequest) (models.SessionSnapshot, error)
	DeleteQuestion(sessionID, adminID string, index int) (models.SessionSnapshot, error)
	EnterEditMode(sessionID, adminID string, index int) (models.SessionSnapshot, error)
	ExitEditMode(sessionID, adminID string) (models.SessionSnapshot, error)
}

// SessionHandler handles edit session HTTP requests
type SessionHandler struct {
	handlers.BaseHandler
	stagingService StagingService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(stagingService StagingService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    handlers.BaseHandler{Logger: logger},
		stagingService: stagingService,
	}
}

// RegisterRoutes registers all session handler routes
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/modules/{id}/sessions", h.OpenSession)

	r.Route("/sessions/{sid}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.CloseSession)
		r.Post("/unit", h.BeginUnit)
		r.Post("/items", h.AddItem)
		r.Post("/commit", h.CommitUnit)
		r.Post("/cancel", h.CancelUnit)

		r.Post("/questions", h.AddQuestion)
		r.Delete("/questions/edit", h.ExitEditMode)
		r.Put("/questions/{index}", h.EditQuestion)
		r.Delete("/questions/{index}", h.DeleteQuestion)
		r.Post("/questions/{index}/edit", h.EnterEditMode)
	})
}

// OpenSession handles POST /modules/{id}/sessions
// @Summary Open an edit session on a module
// @Tags sessions
// @Produce json
// @Param id path int true "Module ID"
// @Success 201 {object} models.SessionSnapshot
// @Failure 404 {object} map[string]string "Module not found"
// @Security BearerAuth
// @Router /modules/{id}/sessions [post]
func (h *SessionHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(&h.BaseHandler, w, r)
	if !ok {
		return
	}
	moduleID, ok := intParam(r, "id")
	if !ok {
		h.RespondError(w, http.StatusBadRequest, "invalid module id")
		return
	}

	snapshot, err := h.stagingService.OpenSession(r.Context(), moduleID, admin)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "open session")
		return
	}

	h.RespondJSON(w, http.StatusCreated, snapshot)
}

// GetSession handles GET /sessions/{sid}
// @Summary Get session snapshot
// @Tags sessions
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} models.SessionSnapshot
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Security BearerAuth
// @Router /sessions/{sid} [get]
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.snapshotOp(w, r, "get session", func(sid, admin string) (models.SessionSnapshot, error) {
		return h.stagingService.GetSession(sid, admin)
	})
}

// CloseSession handles DELETE /sessions/{sid}
// @Summary Close session
// @Description Any staged unit is discarded.
// @Tags sessions
// @Param sid path string true "Session ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Security BearerAuth
// @Router /sessions/{sid} [delete]
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(&h.BaseHandler, w, r)
	if !ok {
		return
	}

	if err := h.stagingService.CloseSession(chi.URLParam(r, "sid"), admin); err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "close session")
		return
	}

	h.RespondNoContent(w)
}

// BeginUnit handles POST /sessions/{sid}/unit
// @Summary Begin staging a unit
// @Description Discards any previous draft and resets the quiz builder.
// @Tags sessions
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} models.SessionSnapshot
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Security BearerAuth
// @Router /sessions/{sid}/unit [post]
func (h *SessionHandler) BeginUnit(w http.ResponseWriter, r *http.Request) {
	h.snapshotOp(w, r, "begin unit", func(sid, admin string) (models.SessionSnapshot, error) {
		return h.stagingService.BeginUnit(sid, admin)
	})
}

// AddItem handles POST /sessions/{sid}/items
// @Summary Stage an item in the current unit
// @Description Video and file items take one or more files; one item is staged per file. Quiz items take the session's quiz questions.
// @Tags sessions
// @Accept multipart/form-data
// @Produce json
// @Param sid path string true "Session ID"
// @Param title formData string true "Item title"
// @Param type formData string true "video, file or quiz"
// @Param instruction formData string false "Item instruction"
// @Param files formData file false "Item files"
// @Success 201 {array} models.Item
// @Failure 400 {object} map[string]string "Invalid request"
// @Security BearerAuth
// @Router /sessions/{sid}/items [post]
func (h *SessionHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(&h.BaseHandler, w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	req := models.AddItemRequest{
		Title:       r.FormValue("title"),
		Type:        models.ItemType(r.FormValue("type")),
		Instruction: r.FormValue("instruction"),
	}

	for _, header := range r.MultipartForm.File["files"] {
		file, err := header.Open()
		if err != nil {
			h.RespondError(w, http.StatusBadRequest, "failed to read uploaded file")
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			h.RespondError(w, http.StatusBadRequest, "failed to read uploaded file")
			return
		}
		req.Files = append(req.Files, models.UploadedFile{
			Filename: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Data:     data,
		})
	}

	items, err := h.stagingService.AddItem(r.Context(), chi.URLParam(r, "sid"), admin, req)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "add item")
		return
	}

	h.RespondJSON(w, http.StatusCreated, items)
}

// CommitUnit handles POST /sessions/{sid}/commit
// @Summary Commit the staged unit to the module
// @Tags sessions
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param request body models.CommitUnitRequest true "Unit title and instruction"
// @Success 201 {object} models.CommitUnitResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Session or module not found"
// @Security BearerAuth
// @Router /sessions/{sid}/commit [post]
func (h *SessionHandler) CommitUnit(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(&h.BaseHandler, w, r)
	if !ok {
		return
	}

	var req models.CommitUnitRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.stagingService.CommitUnit(r.Context(), chi.URLParam(r, "sid"), admin, req)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "commit unit")
		return
	}

	h.RespondJSON(w, http.StatusCreated, resp)
}

// CancelUnit handles POST /sessions/{sid}/cancel
// @Summary Cancel the staged unit
// @Tags sessions
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} models.SessionSnapshot
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Security BearerAuth
// @Router /sessions/{sid}/cancel [post]
func (h *SessionHandler) CancelUnit(w http.ResponseWriter, r *http.Request) {
	h.snapshotOp(w, r, "cancel unit", func(sid, admin string) (models.SessionSnapshot, error) {
		return h.stagingService.CancelUnit(sid, admin)
	})
}

// AddQuestion handles POST /sessions/{sid}/questions
// @Summary Add quiz question
// @Tags sessions
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param request body models.QuizQuestionRequest true "Quiz question"
// @Success 200 {object} models.SessionSnapshot
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Security BearerAuth
// @Router /sessions/{sid}/questions [post]
func (h *SessionHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	var req models.QuizQuestionRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.snapshotOp(w, r, "add question", func(sid, admin string) (models.SessionSnapshot, error) {
		return h.stagingService.AddQuestion(sid, admin, req)
	})
}

// EditQuestion handles PUT /sessions/{sid}/questions/{index}
// @Summary Edit quiz question
// @Tags sessions
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param index path int true "Question index"
// @Param request body models.QuizQuestionRequest true "Quiz question"
// @Success 200 {object} models.SessionSnapshot
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Security BearerAuth
// @Router /sessions/{sid}/questions/{index} [put]
func (h *SessionHandler) EditQuestion(w http.ResponseWriter, r *http.Request) {
	index, ok := intParam(r, "index")
	if !ok {
		h.RespondError(w, http.StatusBadRequest, "invalid question index")
		return
	}
	var req models.QuizQuestionRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.snapshotOp(w, r, "edit question", func(sid, admin string) (models.SessionSnapshot, error) {
		return h.stagingService.EditQuestion(sid, admin, index, req)
	})
}

// DeleteQuestion handles DELETE /sessions/{sid}/questions/{index}
// @Summary Delete quiz question
// @Tags sessions
// @Produce json
// @Param sid path string true "Session ID"
// @Param index path int true "Question index"
// @Success 200 {object} models.SessionSnapshot
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Security BearerAuth
// @Router /sessions/{sid}/questions/{index} [delete]
func (h *SessionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	index, ok := intParam(r, "index")
	if !ok {
		h.RespondError(w, http.StatusBadRequest, "invalid question index")
		return
	}

	h.snapshotOp(w, r, "delete question", func(sid, admin string) (models.SessionSnapshot, error) {
		return h.stagingService.DeleteQuestion(sid, admin, index)
	})
}

// EnterEditMode handles POST /sessions/{sid}/questions/{index}/edit
// @Summary Select quiz question for editing
// @Tags sessions
// @Produce json
// @Param sid path string true "Session ID"
// @Param index path int true "Question index"
// @Success 200 {object} models.SessionSnapshot
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Security BearerAuth
// @Router /sessions/{sid}/questions/{index}/edit [post]
func (h *SessionHandler) EnterEditMode(w http.ResponseWriter, r *http.Request) {
	index, ok := intParam(r, "index")
	if !ok {
		h.RespondError(w, http.StatusBadRequest, "invalid question index")
		return
	}

	h.snapshotOp(w, r, "enter edit mode", func(sid, admin string) (models.SessionSnapshot, error) {
		return h.stagingService.EnterEditMode(sid, admin, index)
	})
}

// ExitEditMode handles DELETE /sessions/{sid}/questions/edit
// @Summary Clear quiz question selection
// @Tags sessions
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} models.SessionSnapshot
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Security BearerAuth
// @Router /sessions/{sid}/questions/edit [delete]
func (h *SessionHandler) ExitEditMode(w http.ResponseWriter, r *http.Request) {
	h.snapshotOp(w, r, "exit edit mode", func(sid, admin string) (models.SessionSnapshot, error) {
		return h.stagingService.ExitEditMode(sid, admin)
	})
}

// snapshotOp runs a session operation that answers with the session snapshot
func (h *SessionHandler) snapshotOp(w http.ResponseWriter, r *http.Request, action string, op func(sid, admin string) (models.SessionSnapshot, error)) {
	admin, ok := adminID(&h.BaseHandler, w, r)
	if !ok {
		return
	}

	snapshot, err := op(chi.URLParam(r, "sid"), admin)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, action)
		return
	}

	h.RespondJSON(w, http.StatusOK, snapshot)
}
