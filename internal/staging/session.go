// Package staging holds the per-session draft of a unit before it is committed to a module.
package staging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hunterianlab/modules-platform/internal/models"
)

// UploadFunc stores one uploaded file and returns its blob id
type UploadFunc func(file models.UploadedFile) (string, error)

// CommitFunc persists a finished unit and returns the unit id assigned by the store
type CommitFunc func(unit models.Unit) (int, error)

var errNotStaging = fmt.Errorf("%w: no unit is being staged", models.ErrValidation)

// Session is one admin's editing context for one module.
// All methods are safe for concurrent use; operations on a session are serialized.
type Session struct {
	mu       sync.Mutex
	id       string
	moduleID int
	adminID  string
	state    models.SessionState
	items    []models.Item
	quiz     *QuizBuilder
	lastUsed time.Time
	now      func() time.Time
}

// NewSession creates an idle session for the module
func NewSession(id string, moduleID int, adminID string) *Session {
	s := &Session{
		id:       id,
		moduleID: moduleID,
		adminID:  adminID,
		state:    models.SessionStateIdle,
		quiz:     NewQuizBuilder(),
		now:      time.Now,
	}
	s.lastUsed = s.now()
	return s
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// ModuleID returns the id of the module being edited
func (s *Session) ModuleID() int { return s.moduleID }

// AdminID returns the id of the admin owning the session
func (s *Session) AdminID() string { return s.adminID }

// LastUsed returns the time of the last operation on the session
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// touch must be called with mu held
func (s *Session) touch() {
	s.lastUsed = s.now()
}

// reset must be called with mu held
func (s *Session) reset(state models.SessionState) {
	s.state = state
	s.items = nil
	s.quiz.Reset()
}

// BeginUnit starts staging a new unit, discarding any previous draft
func (s *Session) BeginUnit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.reset(models.SessionStateStaging)
}

// AddItem validates the request and appends item drafts to the buffer.
//
// Quiz items take the quiz builder's current questions, which resets the builder.
// For video and file items every file is stored through upload first, then one
// item is appended per file. If anything fails the buffer is left unchanged.
func (s *Session) AddItem(req models.AddItemRequest, upload UploadFunc) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state != models.SessionStateStaging {
		return nil, errNotStaging
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: item title is required", models.ErrValidation)
	}
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: invalid item type %q", models.ErrValidation, req.Type)
	}
	instruction := strings.TrimSpace(req.Instruction)

	if req.Type == models.ItemTypeQuiz {
		if len(req.Files) > 0 {
			return nil, fmt.Errorf("%w: quiz items do not accept files", models.ErrValidation)
		}
		if s.quiz.Len() == 0 {
			return nil, fmt.Errorf("%w: quiz has no questions", models.ErrValidation)
		}
		item := models.Item{
			ItemID:      len(s.items),
			Title:       title,
			Type:        req.Type,
			Instruction: instruction,
			Quiz:        s.quiz.Take(),
		}
		s.items = append(s.items, item)
		return []models.Item{item}, nil
	}

	if req.Type.RequiresFile() && len(req.Files) == 0 {
		return nil, fmt.Errorf("%w: a file is required for %s items", models.ErrValidation, req.Type)
	}

	fileIDs := make([]string, len(req.Files))
	for i, file := range req.Files {
		id, err := upload(file)
		if err != nil {
			return nil, fmt.Errorf("failed to store %q: %w", file.Filename, err)
		}
		fileIDs[i] = id
	}

	added := make([]models.Item, 0, len(req.Files))
	for i, file := range req.Files {
		item := models.Item{
			ItemID:      len(s.items),
			Title:       title,
			Type:        req.Type,
			Instruction: instruction,
			FileID:      fileIDs[i],
			Filename:    file.Filename,
			MimeType:    file.MimeType,
		}
		s.items = append(s.items, item)
		added = append(added, item)
	}

	return added, nil
}

// Commit flushes the staged items into a unit through commit.
// On success the session returns to idle; on failure the draft is kept.
func (s *Session) Commit(title, instruction string, commit CommitFunc) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state != models.SessionStateStaging {
		return 0, errNotStaging
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return 0, fmt.Errorf("%w: unit title is required", models.ErrValidation)
	}

	items := s.items
	if items == nil {
		items = []models.Item{}
	}

	unitID, err := commit(models.Unit{
		Title:       title,
		Instruction: strings.TrimSpace(instruction),
		Items:       items,
	})
	if err != nil {
		return 0, err
	}

	s.reset(models.SessionStateIdle)
	return unitID, nil
}

// Cancel discards the staged unit and returns to idle
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state != models.SessionStateStaging {
		return errNotStaging
	}
	s.reset(models.SessionStateIdle)
	return nil
}

// AddQuestion appends a question to the quiz builder
func (s *Session) AddQuestion(question string, choices []string, correctIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.quiz.AddQuestion(question, choices, correctIndex)
}

// EditQuestion replaces a quiz builder question in place
func (s *Session) EditQuestion(index int, question string, choices []string, correctIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.quiz.EditQuestion(index, question, choices, correctIndex)
}

// DeleteQuestion removes a quiz builder question
func (s *Session) DeleteQuestion(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.quiz.DeleteQuestion(index)
}

// EnterEditMode points the quiz builder's editing pointer at index
func (s *Session) EnterEditMode(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.quiz.EnterEditMode(index)
}

// ExitEditMode clears the quiz builder's editing pointer
func (s *Session) ExitEditMode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.quiz.ExitEditMode()
}

// Snapshot returns a copy of the session state
func (s *Session) Snapshot() models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.Item, len(s.items))
	for i, item := range s.items {
		items[i] = item
		if item.Quiz != nil {
			items[i].Quiz = cloneQuestions(item.Quiz)
		}
	}

	snapshot := models.SessionSnapshot{
		ID:        s.id,
		ModuleID:  s.moduleID,
		State:     s.state,
		Items:     items,
		Questions: s.quiz.Questions(),
		LastUsed:  s.lastUsed,
	}
	if index, ok := s.quiz.EditingIndex(); ok {
		snapshot.EditingIndex = &index
	}
	return snapshot
}
