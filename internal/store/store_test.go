package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestStore creates a Store backed by a temp directory.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath, nil)
	require.NoError(t, err)
	require.NotNil(t, s)

	cleanup := func() {
		_ = s.Close()
	}

	return s, cleanup
}
