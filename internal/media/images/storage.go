// Package images provides cover image optimization, storage, and the asset
// replacement lifecycle.
package images

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage manages asset filesystem operations.
// Thread-safe for concurrent operations.
type Storage struct {
	basePath string
	mu       sync.RWMutex // Protects file operations
}

// NewStorage creates a Storage for cover assets.
// basePath should be the data directory (e.g., ~/Grimoire/data).
// Assets are stored in {basePath}/images/.
func NewStorage(basePath string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	storagePath := filepath.Join(basePath, "images")

	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}

	return &Storage{
		basePath: storagePath,
	}, nil
}

// Save stores asset data under the given file name.
func (s *Storage) Save(name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("asset name cannot be empty")
	}
	if len(data) == 0 {
		return fmt.Errorf("asset data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.Path(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write asset file: %w", err)
	}
	return nil
}

// Get retrieves asset data by file name.
func (s *Storage) Get(name string) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("asset name cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("asset not found: %s: %w", name, err)
		}
		return nil, fmt.Errorf("failed to read asset file: %w", err)
	}
	return data, nil
}

// Exists checks whether an asset file is present.
func (s *Storage) Exists(name string) bool {
	if name == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Delete removes an asset file.
// An already-absent file is treated as success (idempotent delete).
func (s *Storage) Delete(name string) error {
	if name == "" {
		return fmt.Errorf("asset name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(name)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete asset file: %w", err)
	}
	return nil
}

// Path returns the full filesystem path for an asset file name.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.basePath, name)
}

// Dir returns the directory assets are stored in, for static file serving.
func (s *Storage) Dir() string {
	return s.basePath
}
