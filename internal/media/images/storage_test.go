package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	return storage
}

func TestNewStorage_EmptyBasePath(t *testing.T) {
	_, err := NewStorage("")
	assert.Error(t, err)
}

func TestStorage_SaveAndGet(t *testing.T) {
	storage := setupTestStorage(t)

	require.NoError(t, storage.Save("cover-abc.jpg", []byte("jpeg-bytes")))

	data, err := storage.Get("cover-abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
	assert.True(t, storage.Exists("cover-abc.jpg"))
}

func TestStorage_SaveValidation(t *testing.T) {
	storage := setupTestStorage(t)

	assert.Error(t, storage.Save("", []byte("data")))
	assert.Error(t, storage.Save("cover-abc.jpg", nil))
}

func TestStorage_GetMissing(t *testing.T) {
	storage := setupTestStorage(t)

	_, err := storage.Get("cover-missing.jpg")
	assert.Error(t, err)
	assert.False(t, storage.Exists("cover-missing.jpg"))
}

func TestStorage_Delete(t *testing.T) {
	storage := setupTestStorage(t)

	require.NoError(t, storage.Save("cover-abc.jpg", []byte("jpeg-bytes")))
	require.NoError(t, storage.Delete("cover-abc.jpg"))
	assert.False(t, storage.Exists("cover-abc.jpg"))

	// Deleting an absent asset is success.
	assert.NoError(t, storage.Delete("cover-abc.jpg"))
}
