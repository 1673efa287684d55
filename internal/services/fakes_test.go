package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hunterianlab/modules-platform/internal/models"
	"github.com/hunterianlab/modules-platform/internal/storage"
)

// memoryModuleRepository is an in-memory ModuleRepository.
// AppendUnit assigns unit ids under the lock the same way the SQL update does under the row lock.
type memoryModuleRepository struct {
	mu      sync.Mutex
	modules map[int]*models.Module
	nextID  int
	err     error
}

func newMemoryModuleRepository() *memoryModuleRepository {
	return &memoryModuleRepository{modules: make(map[int]*models.Module), nextID: 1}
}

func (m *memoryModuleRepository) Create(ctx context.Context, module *models.Module) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	module.ID = m.nextID
	module.Units = []models.Unit{}
	m.nextID++
	stored := *module
	m.modules[module.ID] = &stored
	return nil
}

func (m *memoryModuleRepository) GetAll(ctx context.Context) ([]models.ModuleListItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	items := []models.ModuleListItem{}
	for id := 1; id < m.nextID; id++ {
		module, ok := m.modules[id]
		if !ok {
			continue
		}
		items = append(items, models.ModuleListItem{
			ID:           module.ID,
			Title:        module.Title,
			Description:  module.Description,
			HasThumbnail: len(module.Thumbnail) > 0,
			UnitCount:    len(module.Units),
			CreatedBy:    module.CreatedBy,
		})
	}
	return items, nil
}

func (m *memoryModuleRepository) GetByID(ctx context.Context, id int) (*models.Module, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	module, ok := m.modules[id]
	if !ok {
		return nil, fmt.Errorf("module %d: %w", id, models.ErrNotFound)
	}
	// Round-trip through JSON so callers never share slices with the store
	raw, _ := json.Marshal(module.Units)
	copied := *module
	copied.Units = []models.Unit{}
	_ = json.Unmarshal(raw, &copied.Units)
	return &copied, nil
}

func (m *memoryModuleRepository) GetThumbnail(ctx context.Context, id int) ([]byte, string, error) {
	module, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return module.Thumbnail, module.ThumbnailMimeType, nil
}

func (m *memoryModuleRepository) ExistsByID(ctx context.Context, id int) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.modules[id]
	return ok, nil
}

func (m *memoryModuleRepository) Delete(ctx context.Context, id int) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.modules[id]
	delete(m.modules, id)
	return ok, nil
}

func (m *memoryModuleRepository) AppendUnit(ctx context.Context, moduleID int, unit models.Unit) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	module, ok := m.modules[moduleID]
	if !ok {
		return 0, fmt.Errorf("module %d: %w", moduleID, models.ErrNotFound)
	}
	unit.UnitID = len(module.Units)
	module.Units = append(module.Units, unit)
	return unit.UnitID, nil
}

func (m *memoryModuleRepository) DeleteUnit(ctx context.Context, moduleID, unitID int) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	module, ok := m.modules[moduleID]
	if !ok {
		return fmt.Errorf("module %d: %w", moduleID, models.ErrNotFound)
	}
	if unitID < 0 || unitID >= len(module.Units) {
		return fmt.Errorf("unit %d: %w", unitID, models.ErrNotFound)
	}
	units := append(module.Units[:unitID:unitID], module.Units[unitID+1:]...)
	for i := range units {
		units[i].UnitID = i
	}
	module.Units = units
	return nil
}

// memoryBlobStorage is an in-memory BlobStorage
type memoryBlobStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	deleted []string
}

func newMemoryBlobStorage() *memoryBlobStorage {
	return &memoryBlobStorage{objects: make(map[string][]byte)}
}

func (m *memoryBlobStorage) Put(ctx context.Context, id string, reader io.Reader, size int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[id] = data
	return nil
}

func (m *memoryBlobStorage) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[id]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryBlobStorage) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// memoryBlobMetadataRepository is an in-memory BlobMetadataRepository
type memoryBlobMetadataRepository struct {
	mu        sync.Mutex
	blobs     map[string]models.BlobMetadata
	createErr error
}

func newMemoryBlobMetadataRepository() *memoryBlobMetadataRepository {
	return &memoryBlobMetadataRepository{blobs: make(map[string]models.BlobMetadata)}
}

func (m *memoryBlobMetadataRepository) Create(ctx context.Context, blob *models.BlobMetadata) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[blob.ID] = *blob
	return nil
}

func (m *memoryBlobMetadataRepository) GetByID(ctx context.Context, id string) (*models.BlobMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.blobs[id]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", id, models.ErrNotFound)
	}
	return &blob, nil
}

var errDatabase = errors.New("database error")
