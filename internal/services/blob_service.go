package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hunterianlab/modules-platform/internal/models"
	"github.com/hunterianlab/modules-platform/internal/storage"
	"github.com/hunterianlab/modules-platform/libs/monitoring"
	"go.uber.org/zap"
)

// BlobStorage defines the interface for blob content backends
type BlobStorage interface {
	// Put writes the object content under id
	Put(ctx context.Context, id string, reader io.Reader, size int64, contentType string) error

	// Open opens an object for reading.
	// Returns storage.ErrObjectNotFound if the object does not exist.
	Open(ctx context.Context, id string) (io.ReadCloser, error)

	// Delete removes an object
	Delete(ctx context.Context, id string) error
}

// BlobMetadataRepository defines the interface for blob metadata data access
type BlobMetadataRepository interface {
	Create(ctx context.Context, blob *models.BlobMetadata) error
	GetByID(ctx context.Context, id string) (*models.BlobMetadata, error)
}

// BlobService handles business logic for blob operations
type BlobService struct {
	metadataRepo BlobMetadataRepository
	storage      BlobStorage
	logger       *zap.Logger
}

// NewBlobService creates a new blob service
func NewBlobService(metadataRepo BlobMetadataRepository, storage BlobStorage, logger *zap.Logger) *BlobService {
	return &BlobService{
		metadataRepo: metadataRepo,
		storage:      storage,
		logger:       logger,
	}
}

// Put stores the content under a freshly generated id and records its metadata.
// Identical content uploaded twice gets two ids.
func (s *BlobService) Put(ctx context.Context, data []byte, filename, mimeType string) (string, error) {
	id := storage.NewObjectID()

	filename = sanitizeFilename(filename)
	if filename == "" {
		filename = id
	}
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = models.DefaultMimeType
	}

	if err := s.storage.Put(ctx, id, bytes.NewReader(data), int64(len(data)), mimeType); err != nil {
		monitoring.BlobUploads.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: failed to write blob: %w", models.ErrStorage, err)
	}

	metadata := &models.BlobMetadata{
		ID:       id,
		Filename: filename,
		MimeType: mimeType,
		Size:     int64(len(data)),
	}
	if err := s.metadataRepo.Create(ctx, metadata); err != nil {
		// Cleanup: delete the object if metadata creation fails
		if delErr := s.storage.Delete(ctx, id); delErr != nil {
			s.logger.Warn("failed to remove blob after metadata error", zap.String("id", id), zap.Error(delErr))
		}
		monitoring.BlobUploads.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to create blob metadata: %w", err)
	}

	monitoring.BlobUploads.WithLabelValues("ok").Inc()
	monitoring.BlobUploadBytes.Add(float64(len(data)))
	s.logger.Debug("blob stored", zap.String("id", id), zap.String("filename", filename), zap.Int("size", len(data)))
	return id, nil
}

// Stat retrieves blob metadata by id
func (s *BlobService) Stat(ctx context.Context, id string) (*models.BlobMetadata, error) {
	return s.metadataRepo.GetByID(ctx, id)
}

// Get retrieves blob metadata together with its content.
// A metadata row whose object has disappeared is reported as not found and logged as a warning.
func (s *BlobService) Get(ctx context.Context, id string) (*models.Blob, error) {
	metadata, err := s.metadataRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Warn("blob reference does not resolve", zap.String("id", id))
		}
		return nil, err
	}

	reader, err := s.storage.Open(ctx, id)
	if errors.Is(err, storage.ErrObjectNotFound) {
		s.logger.Warn("blob content missing for existing metadata", zap.String("id", id))
		return nil, fmt.Errorf("blob %s content: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open blob: %w", models.ErrStorage, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read blob: %w", models.ErrStorage, err)
	}

	return &models.Blob{BlobMetadata: *metadata, Data: data}, nil
}

// sanitizeFilename keeps only the base name of a client supplied filename
func sanitizeFilename(filename string) string {
	filename = strings.TrimSpace(strings.ReplaceAll(filename, "\\", "/"))
	if filename == "" {
		return ""
	}
	base := filepath.Base(filename)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}
