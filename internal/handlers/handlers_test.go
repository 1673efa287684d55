package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hunterianlab/modules-platform/internal/models"
	"github.com/hunterianlab/modules-platform/libs/auth/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAdmin = "ana@example.org"

// mockModuleService is a mock implementation of ModuleService
type mockModuleService struct {
	createReq   models.CreateModuleRequest
	module      *models.Module
	modules     []models.ModuleListItem
	thumbnail   []byte
	thumbMime   string
	deletedUnit [2]int
	err         error
}

func (m *mockModuleService) CreateModule(ctx context.Context, req models.CreateModuleRequest) (*models.Module, error) {
	m.createReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Module{ID: 1, Title: req.Title, Units: []models.Unit{}, CreatedBy: req.CreatedBy}, nil
}

func (m *mockModuleService) ListModules(ctx context.Context) ([]models.ModuleListItem, error) {
	return m.modules, m.err
}

func (m *mockModuleService) GetModule(ctx context.Context, id int) (*models.Module, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.module, nil
}

func (m *mockModuleService) GetThumbnail(ctx context.Context, id int) ([]byte, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return m.thumbnail, m.thumbMime, nil
}

func (m *mockModuleService) DeleteModule(ctx context.Context, id int) error {
	return m.err
}

func (m *mockModuleService) DeleteUnit(ctx context.Context, moduleID, unitID int) error {
	m.deletedUnit = [2]int{moduleID, unitID}
	return m.err
}

// mockBlobService is a mock implementation of BlobService
type mockBlobService struct {
	putData     []byte
	putFilename string
	putMime     string
	blob        *models.Blob
	err         error
}

func (m *mockBlobService) Put(ctx context.Context, data []byte, filename, mimeType string) (string, error) {
	m.putData, m.putFilename, m.putMime = data, filename, mimeType
	if m.err != nil {
		return "", m.err
	}
	return "blob-1", nil
}

func (m *mockBlobService) Get(ctx context.Context, id string) (*models.Blob, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.blob, nil
}

func (m *mockBlobService) Stat(ctx context.Context, id string) (*models.BlobMetadata, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &m.blob.BlobMetadata, nil
}

// mockAdminService is a mock implementation of AdminService
type mockAdminService struct {
	err error
}

func (m *mockAdminService) Login(req models.LoginRequest) (*models.LoginResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.LoginResponse{AccessToken: "token"}, nil
}

// withAdmin stands in for the auth middleware
func withAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(middleware.WithAdminID(r.Context(), testAdmin)))
	})
}

type routeRegistrar interface {
	RegisterRoutes(r chi.Router)
}

func newTestRouter(h routeRegistrar) chi.Router {
	r := chi.NewRouter()
	r.Use(withAdmin)
	h.RegisterRoutes(r)
	return r
}

func multipartBody(t *testing.T, fields map[string]string, fileField string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for filename, content := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, filename))
		header.Set("Content-Type", "application/pdf")
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "validation", err: fmt.Errorf("%w: title is required", models.ErrValidation), expectedStatus: http.StatusBadRequest},
		{name: "index out of range", err: models.ErrIndexOutOfRange, expectedStatus: http.StatusBadRequest},
		{name: "not found", err: fmt.Errorf("module 3: %w", models.ErrNotFound), expectedStatus: http.StatusNotFound},
		{name: "credentials", err: models.ErrInvalidCredentials, expectedStatus: http.StatusUnauthorized},
		{name: "storage", err: fmt.Errorf("%w: disk", models.ErrStorage), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewModuleHandler(&mockModuleService{}, zap.NewNop())
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			w := httptest.NewRecorder()

			respondServiceError(&h.BaseHandler, w, req, tt.err, "do thing")

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestModuleHandler_CreateModule(t *testing.T) {
	t.Run("json body", func(t *testing.T) {
		svc := &mockModuleService{}
		router := newTestRouter(NewModuleHandler(svc, zap.NewNop()))

		req := httptest.NewRequest(http.MethodPost, "/modules", bytes.NewBufferString(`{"title":"Safety","description":"Intro"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "Safety", svc.createReq.Title)
		assert.Equal(t, testAdmin, svc.createReq.CreatedBy)
	})

	t.Run("multipart with thumbnail", func(t *testing.T) {
		svc := &mockModuleService{}
		router := newTestRouter(NewModuleHandler(svc, zap.NewNop()))

		body, contentType := multipartBody(t, map[string]string{"title": "Safety"}, "thumbnail", map[string]string{"thumb.png": "png-bytes"})
		req := httptest.NewRequest(http.MethodPost, "/modules", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, []byte("png-bytes"), svc.createReq.Thumbnail)
	})

	t.Run("unknown json field", func(t *testing.T) {
		router := newTestRouter(NewModuleHandler(&mockModuleService{}, zap.NewNop()))

		req := httptest.NewRequest(http.MethodPost, "/modules", bytes.NewBufferString(`{"name":"Safety"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		svc := &mockModuleService{err: fmt.Errorf("%w: module title is required", models.ErrValidation)}
		router := newTestRouter(NewModuleHandler(svc, zap.NewNop()))

		req := httptest.NewRequest(http.MethodPost, "/modules", bytes.NewBufferString(`{"title":"  "}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no admin in context", func(t *testing.T) {
		h := NewModuleHandler(&mockModuleService{}, zap.NewNop())
		r := chi.NewRouter()
		h.RegisterRoutes(r)

		req := httptest.NewRequest(http.MethodPost, "/modules", bytes.NewBufferString(`{"title":"Safety"}`))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestModuleHandler_Reads(t *testing.T) {
	svc := &mockModuleService{
		module:    &models.Module{ID: 4, Title: "Safety", Thumbnail: []byte("img"), ThumbnailMimeType: "image/png", Units: []models.Unit{{UnitID: 0, Title: "U", Items: []models.Item{}}}},
		modules:   []models.ModuleListItem{{ID: 4, Title: "Safety", UnitCount: 1}},
		thumbnail: []byte("img"),
		thumbMime: "image/png",
	}
	router := newTestRouter(NewModuleHandler(svc, zap.NewNop()))

	t.Run("list", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/modules", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var list []models.ModuleListItem
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		assert.Len(t, list, 1)
	})

	t.Run("get", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/modules/4", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var module models.Module
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &module))
		assert.Equal(t, "Safety", module.Title)
		assert.Len(t, module.Units, 1)
		assert.Equal(t, "image/png", module.ThumbnailMimeType)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
		assert.NotContains(t, raw, "thumbnail")
		units := raw["units"].([]any)
		assert.Contains(t, units[0], "unitId")
	})

	t.Run("invalid id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/modules/abc", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("thumbnail", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/modules/4/thumbnail", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Equal(t, "img", w.Body.String())
	})
}

func TestModuleHandler_Deletes(t *testing.T) {
	t.Run("delete module", func(t *testing.T) {
		router := newTestRouter(NewModuleHandler(&mockModuleService{}, zap.NewNop()))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/modules/4", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("delete unit", func(t *testing.T) {
		svc := &mockModuleService{}
		router := newTestRouter(NewModuleHandler(svc, zap.NewNop()))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/modules/4/units/2", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, [2]int{4, 2}, svc.deletedUnit)
	})

	t.Run("missing unit", func(t *testing.T) {
		svc := &mockModuleService{err: fmt.Errorf("unit 9: %w", models.ErrNotFound)}
		router := newTestRouter(NewModuleHandler(svc, zap.NewNop()))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/modules/4/units/9", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBlobHandler(t *testing.T) {
	created := time.Date(2026, 10, 2, 8, 30, 0, 0, time.UTC)
	svc := &mockBlobService{blob: &models.Blob{
		BlobMetadata: models.BlobMetadata{ID: "blob-1", Filename: "notes.pdf", MimeType: "application/pdf", Size: 5, CreatedAt: created},
		Data:         []byte("hello"),
	}}
	router := newTestRouter(NewBlobHandler(svc, zap.NewNop()))

	t.Run("upload", func(t *testing.T) {
		body, contentType := multipartBody(t, nil, "file", map[string]string{"notes.pdf": "hello"})
		req := httptest.NewRequest(http.MethodPost, "/blobs", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"id":"blob-1"}`, w.Body.String())
		assert.Equal(t, "notes.pdf", svc.putFilename)
		assert.Equal(t, "application/pdf", svc.putMime)
	})

	t.Run("upload without file", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{"x": "y"}, "file", nil)
		req := httptest.NewRequest(http.MethodPost, "/blobs", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("download", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/blobs/blob-1", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hello", w.Body.String())
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "notes.pdf")
	})

	t.Run("download range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/blobs/blob-1", nil)
		req.Header.Set("Range", "bytes=1-3")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusPartialContent, w.Code)
		assert.Equal(t, "ell", w.Body.String())
	})

	t.Run("metadata", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/blobs/blob-1/metadata", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var meta models.BlobMetadata
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
		assert.Equal(t, int64(5), meta.Size)
	})

	t.Run("unknown blob", func(t *testing.T) {
		missing := newTestRouter(NewBlobHandler(&mockBlobService{err: fmt.Errorf("blob x: %w", models.ErrNotFound)}, zap.NewNop()))
		w := httptest.NewRecorder()
		missing.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/blobs/x", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		err            error
		expectedStatus int
	}{
		{name: "success", body: `{"adminId":"ana@example.org","password":"pw"}`, expectedStatus: http.StatusOK},
		{name: "bad credentials", body: `{"adminId":"ana@example.org","password":"no"}`, err: models.ErrInvalidCredentials, expectedStatus: http.StatusUnauthorized},
		{name: "empty body", body: ``, expectedStatus: http.StatusBadRequest},
		{name: "malformed json", body: `{"adminId":`, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAdminService{err: tt.err}, zap.NewNop())
			r := chi.NewRouter()
			h.RegisterRoutes(r)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
