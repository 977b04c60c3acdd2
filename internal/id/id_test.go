package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	got, err := Generate("book")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "book-"))
	// prefix + "-" + 21-char nanoid
	assert.Len(t, got, len("book-")+21)
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := Generate("cover")
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id generated: %s", id)
		seen[id] = true
	}
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		id := MustGenerate("user")
		assert.True(t, strings.HasPrefix(id, "user-"))
	})
}
