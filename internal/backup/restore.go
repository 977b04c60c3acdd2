package backup

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-json-experiment/json"

	"github.com/grimoireapp/grimoire-server/internal/domain"
	"github.com/grimoireapp/grimoire-server/internal/store"
)

// RestoreService restores records and assets from a backup archive.
type RestoreService struct {
	store     *store.Store
	imagesDir string
	logger    *slog.Logger
}

// NewRestoreService creates a RestoreService.
func NewRestoreService(s *store.Store, imagesDir string, logger *slog.Logger) *RestoreService {
	return &RestoreService{
		store:     s,
		imagesDir: imagesDir,
		logger:    logger,
	}
}

// RestoreResult summarizes a restore run.
type RestoreResult struct {
	Imported int
	Skipped  int
	Images   int
	Duration time.Duration
}

// Restore imports records and assets from the archive at path. Records whose
// id already exists are skipped, never overwritten.
func (s *RestoreService) Restore(ctx context.Context, path string) (*RestoreResult, error) {
	start := time.Now()

	zr, err := zip.OpenReader(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBackupNotFound
		}
		return nil, fmt.Errorf("open backup: %w", err)
	}
	defer zr.Close()

	if _, err := s.readManifest(&zr.Reader); err != nil {
		return nil, err
	}

	result := &RestoreResult{}

	users, err := readJSONEntry[[]*domain.User](&zr.Reader, "users.json")
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		if _, err := s.store.GetUser(ctx, user.ID); err == nil {
			result.Skipped++
			continue
		}
		if err := s.store.CreateUser(ctx, user); err != nil {
			s.logger.Warn("skipping user on restore", "user_id", user.ID, "error", err)
			result.Skipped++
			continue
		}
		result.Imported++
	}

	books, err := readJSONEntry[[]*domain.Book](&zr.Reader, "books.json")
	if err != nil {
		return nil, err
	}
	for _, book := range books {
		if err := s.store.CreateBook(ctx, book); err != nil {
			result.Skipped++
			continue
		}
		result.Imported++
	}

	n, err := s.restoreImages(&zr.Reader)
	if err != nil {
		return nil, err
	}
	result.Images = n

	result.Duration = time.Since(start)

	s.logger.Info("restore complete",
		"imported", result.Imported,
		"skipped", result.Skipped,
		"images", result.Images,
		"duration", result.Duration,
	)

	return result, nil
}

// Validate checks a backup archive without importing anything.
func (s *RestoreService) Validate(path string) (*Manifest, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBackupNotFound
		}
		return nil, fmt.Errorf("open backup: %w", err)
	}
	defer zr.Close()

	return s.readManifest(&zr.Reader)
}

func (s *RestoreService) readManifest(zr *zip.Reader) (*Manifest, error) {
	manifest, err := readJSONEntry[Manifest](zr, manifestName)
	if err != nil {
		return nil, ErrInvalidManifest
	}
	if !strings.HasPrefix(manifest.Version, "1.") {
		return nil, fmt.Errorf("%w: %s", ErrVersionMismatch, manifest.Version)
	}
	return &manifest, nil
}

// restoreImages extracts archived cover assets that are not already present.
func (s *RestoreService) restoreImages(zr *zip.Reader) (int, error) {
	if err := os.MkdirAll(s.imagesDir, 0o755); err != nil {
		return 0, fmt.Errorf("create images dir: %w", err)
	}

	count := 0
	for _, f := range zr.File {
		name, ok := strings.CutPrefix(f.Name, "images/")
		if !ok || name == "" || strings.Contains(name, "/") {
			continue
		}

		dest := filepath.Join(s.imagesDir, name)
		if _, err := os.Stat(dest); err == nil {
			continue
		}

		src, err := f.Open()
		if err != nil {
			return count, fmt.Errorf("open archive entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return count, fmt.Errorf("read archive entry %s: %w", f.Name, err)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return count, fmt.Errorf("write asset %s: %w", name, err)
		}
		count++
	}

	return count, nil
}

func readJSONEntry[T any](zr *zip.Reader, name string) (T, error) {
	var v T

	f, err := zr.Open(name)
	if err != nil {
		return v, fmt.Errorf("open archive entry %s: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return v, fmt.Errorf("read archive entry %s: %w", name, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", name, err)
	}
	return v, nil
}
