// Package config provides application configuration management with support for
// environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	Assets  AssetsConfig
	Auth    AuthConfig
	Ratings RatingsConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	PublicURL    string        // Base URL clients use to reach the server (default: http://localhost:{port})
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// AssetsConfig holds cover asset storage configuration.
type AssetsConfig struct {
	// BasePath is the directory holding stored cover images (default: ~/Grimoire/data).
	BasePath string
	// TargetWidth is the width covers are scaled to during optimization (default: 800).
	TargetWidth int
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for access tokens, hex-encoded (32 bytes).
	// Generated at startup when empty, which invalidates tokens across restarts.
	AccessTokenKeyHex   string
	AccessTokenDuration time.Duration // e.g. 24h
}

// RatingsConfig holds rating subsystem configuration.
type RatingsConfig struct {
	// TopRatedLimit is the number of records returned by the best-rating
	// endpoint when the caller does not specify one (default: 3).
	TopRatedLimit int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	assetsPath := flag.String("assets-path", "", "Base path for cover asset storage")
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	publicURL := flag.String("public-url", "", "Public base URL for asset links")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	accessTokenDuration := flag.String("access-token-duration", "", "Access token lifetime (e.g., 24h)")
	topRatedLimit := flag.String("top-rated-limit", "", "Number of records returned by best-rating (default: 3)")
	coverTargetWidth := flag.String("cover-width", "", "Target width for optimized covers (default: 800)")
	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:      getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			PublicURL: getConfigValue(*publicURL, "PUBLIC_URL", ""),
		},
		Assets: AssetsConfig{
			BasePath:    getConfigValue(*assetsPath, "ASSETS_PATH", ""),
			TargetWidth: getIntConfigValue(*coverTargetWidth, "COVER_TARGET_WIDTH", 800),
		},
		Auth: AuthConfig{
			AccessTokenKeyHex: getConfigValue("", "AUTH_TOKEN_KEY", ""),
		},
		Ratings: RatingsConfig{
			TopRatedLimit: getIntConfigValue(*topRatedLimit, "TOP_RATED_LIMIT", 3),
		},
	}

	if cfg.Server.PublicURL == "" {
		cfg.Server.PublicURL = "http://localhost:" + cfg.Server.Port
	}

	accessDurationStr := getConfigValue(*accessTokenDuration, "ACCESS_TOKEN_DURATION", "24h")
	accessDuration, err := time.ParseDuration(accessDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid access token duration %q: %w", accessDurationStr, err)
	}
	cfg.Auth.AccessTokenDuration = accessDuration

	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	cfg.Server.ReadTimeout, err = time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}

	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	cfg.Server.WriteTimeout, err = time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	cfg.Server.IdleTimeout, err = time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}

	if err := cfg.expandAssetsPath(); err != nil {
		return nil, fmt.Errorf("invalid assets path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Assets.BasePath == "" {
		return errors.New("assets base path cannot be empty after expansion")
	}
	if c.Assets.TargetWidth <= 0 {
		return fmt.Errorf("invalid cover target width: %d", c.Assets.TargetWidth)
	}

	if c.Ratings.TopRatedLimit <= 0 {
		return fmt.Errorf("invalid top rated limit: %d", c.Ratings.TopRatedLimit)
	}

	return nil
}

// expandAssetsPath expands ~ and makes the path absolute.
// Defaults to ~/Grimoire/data when unset.
func (c *Config) expandAssetsPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Grimoire", "data")

	expanded, err := expandPath(c.Assets.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Assets.BasePath = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value among flag, env var, and default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue is getConfigValue for integer settings.
// Unparseable values fall back to the default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// loadEnvFile reads KEY=VALUE pairs from a file into the process environment.
// Existing environment variables are not overwritten.
func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}

	return scanner.Err()
}
