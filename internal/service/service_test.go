package service

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grimoireapp/grimoire-server/internal/media/images"
	"github.com/grimoireapp/grimoire-server/internal/store"
)

// testEnv bundles the dependencies a service test needs.
type testEnv struct {
	store   *store.Store
	storage *images.Storage
	assets  *images.Manager
	locks   *RecordLocks
	logger  *slog.Logger
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	storage, err := images.NewStorage(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := images.NewManager(storage, images.NewOptimizer(800), "http://localhost:8080", logger)

	return &testEnv{
		store:   s,
		storage: storage,
		assets:  manager,
		locks:   NewRecordLocks(),
		logger:  logger,
	}
}

// testUpload writes a small PNG to a temp path and wraps it as an Upload.
func testUpload(t *testing.T) images.Upload {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 90, A: 255})
		}
	}

	path := filepath.Join(t.TempDir(), "upload.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	return images.Upload{TempPath: path, ContentType: "image/png"}
}
