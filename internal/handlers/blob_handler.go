package handlers

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hunterianlab/modules-platform/internal/models"
	"github.com/hunterianlab/modules-platform/libs/handlers"
	"go.uber.org/zap"
)

// BlobService defines the interface for blob store operations
type BlobService interface {
	// Put stores content and returns a new blob id. Identical content gets distinct ids.
	Put(ctx context.Context, data []byte, filename, mimeType string) (string, error)
	// Get returns the blob with its content, or models.ErrNotFound.
	Get(ctx context.Context, id string) (*models.Blob, error)
	// Stat returns the blob metadata, or models.ErrNotFound.
	Stat(ctx context.Context, id string) (*models.BlobMetadata, error)
}

// BlobHandler handles blob HTTP requests
type BlobHandler struct {
	handlers.BaseHandler
	blobService BlobService
}

// NewBlobHandler creates a new blob handler
func NewBlobHandler(blobService BlobService, logger *zap.Logger) *BlobHandler {
	return &BlobHandler{
		BaseHandler: handlers.BaseHandler{Logger: logger},
		blobService: blobService,
	}
}

// RegisterRoutes registers all blob handler routes
func (h *BlobHandler) RegisterRoutes(r chi.Router) {
	r.Route("/blobs", func(r chi.Router) {
		r.Post("/", h.Upload)
		r.Get("/{id}", h.Download)
		r.Get("/{id}/metadata", h.GetMetadata)
	})
}

// Upload handles POST /blobs
// @Summary Upload a blob
// @Tags blobs
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File content"
// @Success 201 {object} map[string]string "Blob id"
// @Failure 400 {object} map[string]string "Invalid request"
// @Security BearerAuth
// @Router /blobs [post]
func (h *BlobHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	id, err := h.blobService.Put(r.Context(), data, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "store blob")
		return
	}

	h.RespondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Download handles GET /blobs/{id}. Range requests are supported.
// @Summary Download blob
// @Tags blobs
// @Produce octet-stream
// @Param id path string true "Blob ID"
// @Success 200 {file} binary "Blob content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Blob not found"
// @Security BearerAuth
// @Router /blobs/{id} [get]
func (h *BlobHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	blob, err := h.blobService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "get blob")
		return
	}

	w.Header().Set("Content-Type", blob.MimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": blob.Filename}))
	http.ServeContent(w, r, blob.Filename, blob.CreatedAt, bytes.NewReader(blob.Data))
}

// GetMetadata handles GET /blobs/{id}/metadata
// @Summary Get blob metadata
// @Tags blobs
// @Produce json
// @Param id path string true "Blob ID"
// @Success 200 {object} models.BlobMetadata
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Blob not found"
// @Security BearerAuth
// @Router /blobs/{id}/metadata [get]
func (h *BlobHandler) GetMetadata(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	metadata, err := h.blobService.Stat(r.Context(), id)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "get blob metadata")
		return
	}

	h.RespondJSON(w, http.StatusOK, metadata)
}
