package images

import (
	"context"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/grimoireapp/grimoire-server/internal/errors"
	"github.com/grimoireapp/grimoire-server/internal/id"
)

// Upload describes a single uploaded file handed over by the HTTP layer.
type Upload struct {
	// TempPath is the path of the temporary file holding the raw upload.
	TempPath string
	// ContentType is the declared MIME type of the upload.
	ContentType string
}

// Asset is a stored, optimized cover image.
type Asset struct {
	// Name is the generated file name inside the asset directory.
	Name string
	// URL is the public URL the asset is served under.
	URL string
	// BlurHash is a compact placeholder hash of the asset.
	BlurHash string
}

// Manager owns the lifecycle of cover assets: creating an optimized asset from
// an upload, replacing a record's asset with compensating cleanup, and
// releasing an asset when its record goes away. Exactly one record references
// an asset at a time; an asset orphaned by a replace or delete is reclaimed as
// part of the same logical operation.
type Manager struct {
	storage   *Storage
	optimizer *Optimizer
	publicURL string
	logger    *slog.Logger
}

// NewManager creates a new asset lifecycle manager.
// publicURL is the base URL assets are served under (e.g. http://localhost:8080).
func NewManager(storage *Storage, optimizer *Optimizer, publicURL string, logger *slog.Logger) *Manager {
	return &Manager{
		storage:   storage,
		optimizer: optimizer,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		logger:    logger,
	}
}

// StoreNew optimizes the uploaded image and writes it under a freshly
// generated, collision-resistant name. The temporary upload is deleted after
// the optimized copy is durably written; that deletion is best-effort and
// never fails the operation.
func (m *Manager) StoreNew(ctx context.Context, upload Upload) (*Asset, error) {
	result, err := m.optimizer.Optimize(upload.TempPath)
	if err != nil {
		return nil, errors.ErrEncodeFailed.WithCause(err)
	}

	name, err := id.Generate("cover")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate asset name")
	}
	name += ".jpg"

	if err := m.storage.Save(name, result.Data); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "store asset")
	}

	// The durable copy exists; the raw upload is no longer needed.
	if err := os.Remove(upload.TempPath); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("failed to remove temporary upload",
			"path", upload.TempPath,
			"error", err,
		)
	}

	m.logger.Debug("stored new cover asset",
		"name", name,
		"width", result.Width,
		"height", result.Height,
		"content_type", upload.ContentType,
	)

	return &Asset{
		Name:     name,
		URL:      m.publicURL + "/images/" + name,
		BlurHash: result.BlurHash,
	}, nil
}

// Replace stores a new asset from the upload, invokes commit to persist the
// owning record's reference, and only then deletes the asset previously
// referenced by oldURL. If commit fails, the freshly written asset is deleted
// before the error is returned, so the caller never observes a record pointing
// at a missing file and never leaks an orphan.
//
// Cleanup runs to completion regardless of the caller's context.
func (m *Manager) Replace(ctx context.Context, oldURL string, upload Upload, commit func(*Asset) error) (*Asset, error) {
	asset, err := m.StoreNew(ctx, upload)
	if err != nil {
		return nil, err
	}

	if err := commit(asset); err != nil {
		// Compensating cleanup: the new asset is orphaned and must go
		// before the error surfaces.
		if delErr := m.storage.Delete(asset.Name); delErr != nil {
			m.logger.Error("failed to clean up orphaned asset after commit failure",
				"name", asset.Name,
				"error", delErr,
			)
		}
		return nil, err
	}

	// Commit point passed: the old asset is now the orphan.
	if oldURL != "" {
		if err := m.Release(oldURL); err != nil {
			// The record already references the new asset; a failed
			// old-asset delete is reported but never rolled back.
			m.logger.Error("failed to delete replaced asset",
				"url", oldURL,
				"error", err,
			)
		}
	}

	return asset, nil
}

// Release deletes the asset referenced by url. An already-absent file counts
// as success; other filesystem failures surface as an asset deletion error.
func (m *Manager) Release(url string) error {
	name := m.assetName(url)
	if name == "" {
		return nil
	}

	if err := m.storage.Delete(name); err != nil {
		return errors.ErrAssetDelete.WithCause(err)
	}
	return nil
}

// assetName extracts the stored file name from an asset URL.
func (m *Manager) assetName(url string) string {
	if url == "" {
		return ""
	}
	if _, after, found := strings.Cut(url, "/images/"); found {
		return after
	}
	return path.Base(url)
}
