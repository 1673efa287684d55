package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalStorage(t *testing.T) {
	s := NewLocalStorage("/tmp/blobs")

	assert.NotNil(t, s)
	assert.Equal(t, "/tmp/blobs", s.basePath)
}

func TestLocalStorage_GeneratePath(t *testing.T) {
	s := NewLocalStorage("/data")

	tests := []struct {
		name          string
		id            string
		expectedPath  string
		expectedError bool
	}{
		{name: "uuid", id: "3f2a9c1e-0000", expectedPath: filepath.Join("/data", "3f", "3f2a9c1e-0000")},
		{name: "short id", id: "ab", expectedPath: filepath.Join("/data", "ab", "ab")},
		{name: "empty", id: "", expectedError: true},
		{name: "path traversal", id: "../etc/passwd", expectedError: true},
		{name: "dot dot", id: "..", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := s.generatePath(tt.id)
			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedPath, path)
		})
	}
}

func TestLocalStorage_PutOpenDelete(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStorage(t.TempDir())
	id := NewObjectID()
	content := []byte{0x89, 'P', 'N', 'G', 0x00, 0x01}

	require.NoError(t, s.Put(ctx, id, bytes.NewReader(content), int64(len(content)), "image/png"))

	reader, err := s.Open(ctx, id)
	require.NoError(t, err)
	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	assert.Equal(t, content, got)

	require.NoError(t, s.Delete(ctx, id))

	_, err = s.Open(ctx, id)
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.ErrorIs(t, s.Delete(ctx, id), ErrObjectNotFound)
}

func TestLocalStorage_OpenMissing(t *testing.T) {
	s := NewLocalStorage(t.TempDir())

	_, err := s.Open(context.Background(), "missing-object")

	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorage_PutFailsWhenBaseIsAFile(t *testing.T) {
	base := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(base, []byte("x"), 0644))
	s := NewLocalStorage(base)

	err := s.Put(context.Background(), "abc", bytes.NewReader([]byte("data")), 4, "text/plain")

	assert.Error(t, err)
}

func TestNewObjectID(t *testing.T) {
	first := NewObjectID()
	second := NewObjectID()

	assert.Len(t, first, 36)
	assert.NotEqual(t, first, second)
}
