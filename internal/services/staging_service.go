package services

import (
	"context"
	"fmt"

	"github.com/hunterianlab/modules-platform/internal/models"
	"github.com/hunterianlab/modules-platform/internal/staging"
	"github.com/hunterianlab/modules-platform/libs/monitoring"
	"go.uber.org/zap"
)

// UnitAppender is the part of the module store used when committing units
type UnitAppender interface {
	ExistsByID(ctx context.Context, id int) (bool, error)
	AppendUnit(ctx context.Context, moduleID int, unit models.Unit) (int, error)
}

// BlobUploader stores uploaded file content and returns the blob id
type BlobUploader interface {
	Put(ctx context.Context, data []byte, filename, mimeType string) (string, error)
}

// StagingService drives edit sessions: unit staging, the quiz builder and unit commits
type StagingService struct {
	registry *SessionRegistry
	modules  UnitAppender
	blobs    BlobUploader
	logger   *zap.Logger
}

// NewStagingService creates a new staging service
func NewStagingService(registry *SessionRegistry, modules UnitAppender, blobs BlobUploader, logger *zap.Logger) *StagingService {
	return &StagingService{
		registry: registry,
		modules:  modules,
		blobs:    blobs,
		logger:   logger,
	}
}

// OpenSession starts an edit session on an existing module
func (s *StagingService) OpenSession(ctx context.Context, moduleID int, adminID string) (models.SessionSnapshot, error) {
	exists, err := s.modules.ExistsByID(ctx, moduleID)
	if err != nil {
		return models.SessionSnapshot{}, err
	}
	if !exists {
		return models.SessionSnapshot{}, fmt.Errorf("module %d: %w", moduleID, models.ErrNotFound)
	}

	session := s.registry.Open(moduleID, adminID)
	s.logger.Info("edit session opened",
		zap.String("session_id", session.ID()),
		zap.Int("module_id", moduleID),
		zap.String("admin_id", adminID),
	)
	return session.Snapshot(), nil
}

// GetSession returns the current state of a session
func (s *StagingService) GetSession(sessionID, adminID string) (models.SessionSnapshot, error) {
	return s.withSession(sessionID, adminID, func(*staging.Session) error { return nil })
}

// CloseSession ends a session, discarding any staged unit
func (s *StagingService) CloseSession(sessionID, adminID string) error {
	if err := s.registry.Close(sessionID, adminID); err != nil {
		return err
	}
	s.logger.Info("edit session closed", zap.String("session_id", sessionID))
	return nil
}

// BeginUnit starts staging a new unit in the session
func (s *StagingService) BeginUnit(sessionID, adminID string) (models.SessionSnapshot, error) {
	return s.withSession(sessionID, adminID, func(session *staging.Session) error {
		session.BeginUnit()
		return nil
	})
}

// AddItem uploads the request's files and appends the resulting items to the staged unit
func (s *StagingService) AddItem(ctx context.Context, sessionID, adminID string, req models.AddItemRequest) ([]models.Item, error) {
	session, err := s.registry.Get(sessionID, adminID)
	if err != nil {
		return nil, err
	}

	items, err := session.AddItem(req, func(file models.UploadedFile) (string, error) {
		return s.blobs.Put(ctx, file.Data, file.Filename, file.MimeType)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("items staged",
		zap.String("session_id", sessionID),
		zap.String("type", string(req.Type)),
		zap.Int("count", len(items)),
	)
	return items, nil
}

// CommitUnit appends the staged unit to the session's module and returns its unit id
func (s *StagingService) CommitUnit(ctx context.Context, sessionID, adminID string, req models.CommitUnitRequest) (*models.CommitUnitResponse, error) {
	session, err := s.registry.Get(sessionID, adminID)
	if err != nil {
		return nil, err
	}

	moduleID := session.ModuleID()
	unitID, err := session.Commit(req.Title, req.Instruction, func(unit models.Unit) (int, error) {
		return s.modules.AppendUnit(ctx, moduleID, unit)
	})
	if err != nil {
		monitoring.UnitCommits.WithLabelValues("error").Inc()
		s.logger.Warn("unit commit failed",
			zap.String("session_id", sessionID),
			zap.Int("module_id", moduleID),
			zap.Error(err),
		)
		return nil, err
	}

	monitoring.UnitCommits.WithLabelValues("ok").Inc()
	s.logger.Info("unit committed",
		zap.String("session_id", sessionID),
		zap.Int("module_id", moduleID),
		zap.Int("unit_id", unitID),
	)
	return &models.CommitUnitResponse{ModuleID: moduleID, UnitID: unitID}, nil
}

// CancelUnit discards the staged unit
func (s *StagingService) CancelUnit(sessionID, adminID string) (models.SessionSnapshot, error) {
	return s.withSession(sessionID, adminID, func(session *staging.Session) error {
		return session.Cancel()
	})
}

// AddQuestion appends a question to the session's quiz builder
func (s *StagingService) AddQuestion(sessionID, adminID string, req models.QuizQuestionRequest) (models.SessionSnapshot, error) {
	return s.withSession(sessionID, adminID, func(session *staging.Session) error {
		return session.AddQuestion(req.Question, req.Choices, req.CorrectIndex)
	})
}

// EditQuestion replaces the question at index
func (s *StagingService) EditQuestion(sessionID, adminID string, index int, req models.QuizQuestionRequest) (models.SessionSnapshot, error) {
	return s.withSession(sessionID, adminID, func(session *staging.Session) error {
		return session.EditQuestion(index, req.Question, req.Choices, req.CorrectIndex)
	})
}

// DeleteQuestion removes the question at index
func (s *StagingService) DeleteQuestion(sessionID, adminID string, index int) (models.SessionSnapshot, error) {
	return s.withSession(sessionID, adminID, func(session *staging.Session) error {
		return session.DeleteQuestion(index)
	})
}

// EnterEditMode marks the question at index as the one being edited
func (s *StagingService) EnterEditMode(sessionID, adminID string, index int) (models.SessionSnapshot, error) {
	return s.withSession(sessionID, adminID, func(session *staging.Session) error {
		return session.EnterEditMode(index)
	})
}

// ExitEditMode clears the editing pointer
func (s *StagingService) ExitEditMode(sessionID, adminID string) (models.SessionSnapshot, error) {
	return s.withSession(sessionID, adminID, func(session *staging.Session) error {
		session.ExitEditMode()
		return nil
	})
}

func (s *StagingService) withSession(sessionID, adminID string, op func(*staging.Session) error) (models.SessionSnapshot, error) {
	session, err := s.registry.Get(sessionID, adminID)
	if err != nil {
		return models.SessionSnapshot{}, err
	}
	if err := op(session); err != nil {
		return models.SessionSnapshot{}, err
	}
	return session.Snapshot(), nil
}
