package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:     AppConfig{Environment: "development"},
			Logger:  LoggerConfig{Level: "info"},
			Assets:  AssetsConfig{BasePath: "/tmp/grimoire", TargetWidth: 800},
			Ratings: RatingsConfig{TopRatedLimit: 3},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("bad environment", func(t *testing.T) {
		cfg := base()
		cfg.App.Environment = "prod"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := base()
		cfg.Logger.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing assets path", func(t *testing.T) {
		cfg := base()
		cfg.Assets.BasePath = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero target width", func(t *testing.T) {
		cfg := base()
		cfg.Assets.TargetWidth = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero top rated limit", func(t *testing.T) {
		cfg := base()
		cfg.Ratings.TopRatedLimit = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestExpandPath(t *testing.T) {
	t.Run("empty uses default", func(t *testing.T) {
		got, err := expandPath("", "/srv/default")
		require.NoError(t, err)
		assert.Equal(t, "/srv/default", got)
	})

	t.Run("tilde expansion", func(t *testing.T) {
		home, err := os.UserHomeDir()
		require.NoError(t, err)
		got, err := expandPath("~/covers", "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "covers"), got)
	})

	t.Run("relative becomes absolute", func(t *testing.T) {
		got, err := expandPath("covers", "")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(
		"# comment\nGRIMOIRE_TEST_A=hello\nGRIMOIRE_TEST_B=\"quoted\"\nnot a pair\n",
	), 0o644))

	t.Setenv("GRIMOIRE_TEST_A", "preset")
	require.NoError(t, loadEnvFile(envPath))

	// Pre-existing values win.
	assert.Equal(t, "preset", os.Getenv("GRIMOIRE_TEST_A"))
	assert.Equal(t, "quoted", os.Getenv("GRIMOIRE_TEST_B"))
	t.Cleanup(func() { os.Unsetenv("GRIMOIRE_TEST_B") })
}

func TestGetIntConfigValue(t *testing.T) {
	t.Setenv("GRIMOIRE_TEST_INT", "7")
	assert.Equal(t, 7, getIntConfigValue("", "GRIMOIRE_TEST_INT", 3))
	assert.Equal(t, 5, getIntConfigValue("5", "GRIMOIRE_TEST_INT", 3))

	t.Setenv("GRIMOIRE_TEST_INT", "not-a-number")
	assert.Equal(t, 3, getIntConfigValue("", "GRIMOIRE_TEST_INT", 3))
}
