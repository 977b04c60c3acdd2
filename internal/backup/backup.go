// Package backup provides backup and restore functionality for the Grimoire
// catalog: records are exported as JSON alongside the stored cover assets in
// a single zip archive.
package backup

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-json-experiment/json"

	"github.com/grimoireapp/grimoire-server/internal/store"
)

// Service manages backup creation and listing.
type Service struct {
	store     *store.Store
	backupDir string
	imagesDir string
	logger    *slog.Logger
}

// NewService creates a backup Service. imagesDir is the directory cover
// assets are stored in.
func NewService(s *store.Store, backupDir, imagesDir string, logger *slog.Logger) *Service {
	return &Service{
		store:     s,
		backupDir: backupDir,
		imagesDir: imagesDir,
		logger:    logger,
	}
}

// Options controls what a backup includes.
type Options struct {
	// OutputPath overrides the generated timestamped path.
	OutputPath string
	// IncludeImages adds stored cover assets to the archive.
	IncludeImages bool
}

// Result describes a completed backup.
type Result struct {
	Path     string
	Counts   EntityCounts
	Size     int64
	Duration time.Duration
}

// Info describes an existing backup file.
type Info struct {
	CreatedAt time.Time
	Path      string
	Size      int64
}

// Create writes a backup archive of all records and, optionally, cover
// assets.
func (s *Service) Create(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		timestamp := time.Now().Format("2006-01-02-150405")
		outputPath = filepath.Join(s.backupDir, fmt.Sprintf("backup-%s.grimoire.zip", timestamp))
	}

	s.logger.Info("creating backup", "output", outputPath, "include_images", opts.IncludeImages)

	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create backup file: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	counts, err := s.writeArchive(ctx, zw, opts)
	if err != nil {
		zw.Close()
		os.Remove(outputPath)
		return nil, err
	}

	if err := zw.Close(); err != nil {
		os.Remove(outputPath)
		return nil, fmt.Errorf("finalize backup archive: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat backup file: %w", err)
	}

	result := &Result{
		Path:     outputPath,
		Counts:   counts,
		Size:     stat.Size(),
		Duration: time.Since(start),
	}

	s.logger.Info("backup complete",
		"path", result.Path,
		"books", counts.Books,
		"users", counts.Users,
		"images", counts.Images,
		"size", result.Size,
		"duration", result.Duration,
	)

	return result, nil
}

// List returns existing backups in the backup directory, newest first.
func (s *Service) List() ([]Info, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".grimoire.zip") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			Path:      filepath.Join(s.backupDir, entry.Name()),
			Size:      fi.Size(),
			CreatedAt: fi.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, nil
}

// writeArchive streams records and assets into the zip writer.
func (s *Service) writeArchive(ctx context.Context, zw *zip.Writer, opts Options) (EntityCounts, error) {
	var counts EntityCounts

	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return counts, fmt.Errorf("export books: %w", err)
	}
	counts.Books = len(books)

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return counts, fmt.Errorf("export users: %w", err)
	}
	counts.Users = len(users)

	if err := writeJSONEntry(zw, "books.json", books); err != nil {
		return counts, err
	}
	if err := writeJSONEntry(zw, "users.json", users); err != nil {
		return counts, err
	}

	if opts.IncludeImages {
		n, err := s.writeImages(zw)
		if err != nil {
			return counts, err
		}
		counts.Images = n
	}

	manifest := Manifest{
		Version:        FormatVersion,
		CreatedAt:      time.Now().UTC(),
		Counts:         counts,
		IncludesImages: opts.IncludeImages,
	}
	if err := writeJSONEntry(zw, manifestName, manifest); err != nil {
		return counts, err
	}

	return counts, nil
}

// writeImages copies every stored cover asset into the archive under images/.
func (s *Service) writeImages(zw *zip.Writer) (int, error) {
	entries, err := os.ReadDir(s.imagesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read images dir: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		src, err := os.Open(filepath.Join(s.imagesDir, entry.Name()))
		if err != nil {
			return count, fmt.Errorf("open asset %s: %w", entry.Name(), err)
		}

		w, err := zw.Create("images/" + entry.Name())
		if err != nil {
			src.Close()
			return count, fmt.Errorf("create archive entry: %w", err)
		}
		if _, err := io.Copy(w, src); err != nil {
			src.Close()
			return count, fmt.Errorf("copy asset %s: %w", entry.Name(), err)
		}
		src.Close()
		count++
	}

	return count, nil
}

func writeJSONEntry(zw *zip.Writer, name string, v any) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create archive entry %s: %w", name, err)
	}
	if err := json.MarshalWrite(w, v); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return nil
}
