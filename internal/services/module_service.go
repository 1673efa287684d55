package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hunterianlab/modules-platform/internal/models"
	"go.uber.org/zap"
)

// ModuleRepository is the interface that wraps methods for modules table data access
type ModuleRepository interface {
	// Create inserts a new module with an empty unit list and sets its ID
	Create(ctx context.Context, module *models.Module) error

	// GetAll returns summaries of every module in insertion order
	GetAll(ctx context.Context) ([]models.ModuleListItem, error)

	// GetByID returns the full module document.
	// Returns models.ErrNotFound if the module does not exist.
	GetByID(ctx context.Context, id int) (*models.Module, error)

	// GetThumbnail returns the thumbnail bytes and their mime type
	GetThumbnail(ctx context.Context, id int) ([]byte, string, error)

	// ExistsByID checks if a module exists
	ExistsByID(ctx context.Context, id int) (bool, error)

	// Delete removes a module and reports whether it existed
	Delete(ctx context.Context, id int) (bool, error)

	// AppendUnit atomically appends a unit and returns the assigned unit ID
	AppendUnit(ctx context.Context, moduleID int, unit models.Unit) (int, error)

	// DeleteUnit removes a unit and renumbers the remaining ones
	DeleteUnit(ctx context.Context, moduleID, unitID int) error
}

// ModuleService handles business logic for module documents
type ModuleService struct {
	repo   ModuleRepository
	logger *zap.Logger
}

// NewModuleService creates a new module service
func NewModuleService(repo ModuleRepository, logger *zap.Logger) *ModuleService {
	return &ModuleService{
		repo:   repo,
		logger: logger,
	}
}

// CreateModule validates the request and inserts a new module with no units
func (s *ModuleService) CreateModule(ctx context.Context, req models.CreateModuleRequest) (*models.Module, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: module title is required", models.ErrValidation)
	}

	module := &models.Module{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   req.CreatedBy,
	}

	if len(req.Thumbnail) > 0 {
		mimeType, err := thumbnailMimeType(req.Thumbnail, req.ThumbnailMimeType)
		if err != nil {
			return nil, err
		}
		module.Thumbnail = req.Thumbnail
		module.ThumbnailMimeType = mimeType
	}

	if err := s.repo.Create(ctx, module); err != nil {
		s.logger.Error("failed to create module", zap.String("title", title), zap.Error(err))
		return nil, err
	}

	s.logger.Info("module created", zap.Int("module_id", module.ID), zap.String("created_by", module.CreatedBy))
	return module, nil
}

// ListModules returns summaries of all modules
func (s *ModuleService) ListModules(ctx context.Context) ([]models.ModuleListItem, error) {
	modules, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list modules", zap.Error(err))
		return nil, err
	}
	return modules, nil
}

// GetModule returns the full module document
func (s *ModuleService) GetModule(ctx context.Context, id int) (*models.Module, error) {
	if id <= 0 {
		return nil, fmt.Errorf("module %d: %w", id, models.ErrNotFound)
	}
	return s.repo.GetByID(ctx, id)
}

// GetThumbnail returns the module thumbnail, or models.ErrNotFound if it has none
func (s *ModuleService) GetThumbnail(ctx context.Context, id int) ([]byte, string, error) {
	data, mimeType, err := s.repo.GetThumbnail(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("thumbnail of module %d: %w", id, models.ErrNotFound)
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

// DeleteModule removes a module. Deleting an absent module succeeds.
func (s *ModuleService) DeleteModule(ctx context.Context, id int) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("failed to delete module", zap.Int("module_id", id), zap.Error(err))
		return err
	}
	if !deleted {
		s.logger.Warn("delete of absent module", zap.Int("module_id", id))
		return nil
	}
	s.logger.Info("module deleted", zap.Int("module_id", id))
	return nil
}

// DeleteUnit removes one unit from a module; later units shift down by one
func (s *ModuleService) DeleteUnit(ctx context.Context, moduleID, unitID int) error {
	if unitID < 0 {
		return fmt.Errorf("unit %d in module %d: %w", unitID, moduleID, models.ErrNotFound)
	}
	if err := s.repo.DeleteUnit(ctx, moduleID, unitID); err != nil {
		return err
	}
	s.logger.Info("unit deleted", zap.Int("module_id", moduleID), zap.Int("unit_id", unitID))
	return nil
}

// thumbnailMimeType resolves the stored mime type of a thumbnail and rejects non-images
// and thumbnails too large to store
func thumbnailMimeType(data []byte, declared string) (string, error) {
	if len(data) > models.MaxThumbnailSize {
		return "", fmt.Errorf("%w: thumbnail exceeds %d bytes", models.ErrValidation, models.MaxThumbnailSize)
	}
	mimeType := strings.TrimSpace(declared)
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%w: thumbnail must be an image, got %s", models.ErrValidation, mimeType)
	}
	return mimeType, nil
}
