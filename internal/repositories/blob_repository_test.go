package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hunterianlab/modules-platform/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupBlobTestRepository creates a blob repository with a mock database
func setupBlobTestRepository(t *testing.T) (*blobRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewBlobRepository(db)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestNewBlobRepository(t *testing.T) {
	db := &sql.DB{}

	repo := NewBlobRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestBlobRepository_Create(t *testing.T) {
	tests := []struct {
		name          string
		blob          *models.BlobMetadata
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
	}{
		{
			name: "success",
			blob: &models.BlobMetadata{
				ID:       "test-id-123",
				Filename: "x.png",
				MimeType: "image/png",
				Size:     1024,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO blobs`).
					WithArgs("test-id-123", "x.png", "image/png", int64(1024)).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectedError: false,
		},
		{
			name: "duplicate key error",
			blob: &models.BlobMetadata{
				ID:       "duplicate-id",
				Filename: "notes.pdf",
				MimeType: "application/pdf",
				Size:     2048,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO blobs`).
					WithArgs("duplicate-id", "notes.pdf", "application/pdf", int64(2048)).
					WillReturnError(errors.New("Error 1062: Duplicate entry 'duplicate-id' for key 'PRIMARY'"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupBlobTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Create(context.Background(), tt.blob)

			if tt.expectedError {
				assert.ErrorIs(t, err, models.ErrStorage)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBlobRepository_GetByID(t *testing.T) {
	createdAt := time.Date(2026, 10, 2, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		name          string
		id            string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		expected      *models.BlobMetadata
	}{
		{
			name: "success",
			id:   "test-id-123",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"filename", "mime_type", "size", "created_at"}).
					AddRow("x.png", "image/png", int64(1024), createdAt)
				mock.ExpectQuery(`SELECT filename, mime_type, size, created_at FROM blobs WHERE id = \? LIMIT 1`).
					WithArgs("test-id-123").
					WillReturnRows(rows)
			},
			expected: &models.BlobMetadata{
				ID:        "test-id-123",
				Filename:  "x.png",
				MimeType:  "image/png",
				Size:      1024,
				CreatedAt: createdAt,
			},
		},
		{
			name: "not found",
			id:   "nonexistent-id",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT filename, mime_type, size, created_at FROM blobs`).
					WithArgs("nonexistent-id").
					WillReturnError(sql.ErrNoRows)
			},
			expectedError: models.ErrNotFound,
		},
		{
			name: "database error",
			id:   "test-id-123",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT filename, mime_type, size, created_at FROM blobs`).
					WithArgs("test-id-123").
					WillReturnError(errors.New("database error"))
			},
			expectedError: models.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupBlobTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			blob, err := repo.GetByID(context.Background(), tt.id)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, blob)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, blob)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
