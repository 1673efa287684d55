package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hunterianlab/modules-platform/internal/models"
)

// blobRepository implements blob metadata repository operations
type blobRepository struct {
	db *sql.DB
}

// NewBlobRepository creates a new blob metadata repository
func NewBlobRepository(db *sql.DB) *blobRepository {
	return &blobRepository{
		db: db,
	}
}

// Create inserts a new blob metadata record into the database
func (r *blobRepository) Create(ctx context.Context, blob *models.BlobMetadata) error {
	query := `
		INSERT INTO blobs (id, filename, mime_type, size)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		blob.ID,
		blob.Filename,
		blob.MimeType,
		blob.Size,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to create blob metadata: %w", models.ErrStorage, err)
	}

	return nil
}

// GetByID retrieves blob metadata by ID
func (r *blobRepository) GetByID(ctx context.Context, id string) (*models.BlobMetadata, error) {
	query := `
		SELECT filename, mime_type, size, created_at
		FROM blobs
		WHERE id = ?
		LIMIT 1
	`

	blob := &models.BlobMetadata{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&blob.Filename,
		&blob.MimeType,
		&blob.Size,
		&blob.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("blob %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get blob metadata by id: %w", models.ErrStorage, err)
	}

	blob.ID = id
	return blob, nil
}
