// Package config loads ~/.abiogenesis/config.toml and persists the API key.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/doeshing/ergo/internal/domain"
	"github.com/doeshing/ergo/internal/pkg/filesystem"
	"github.com/doeshing/ergo/internal/ports"
)

// FileLoader loads TOML configuration (overridable via ERGO_CONFIG).
type FileLoader struct {
	overridePath string
	getenv       func(string) string
}

// NewFileLoader builds a new loader. An empty path uses the default location.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path, getenv: os.Getenv}
}

// Path implements ports.ConfigProvider.
func (l *FileLoader) Path() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := l.getenv(domain.EnvConfigPath); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(filesystem.ConfigDir(), domain.ConfigFileName)
}

// Exists implements ports.ConfigProvider.
func (l *FileLoader) Exists() bool {
	_, err := os.Stat(l.Path())
	return err == nil
}

// Load implements ports.ConfigProvider. A missing file yields defaults; the
// ANTHROPIC_API_KEY environment variable wins over the file.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	cfg, err := l.loadFile()
	if err != nil {
		return domain.Config{}, err
	}
	if key := strings.TrimSpace(l.getenv(domain.EnvAPIKey)); key != "" {
		cfg.AnthropicAPIKey = key
	}
	if err := cfg.ValidateConsistency(); err != nil {
		return domain.Config{}, fmt.Errorf("invalid config %s: %w", l.Path(), err)
	}
	return cfg, nil
}

func (l *FileLoader) loadFile() (domain.Config, error) {
	cfg := domain.DefaultConfig()
	path := l.Path()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return domain.Config{}, fmt.Errorf("read config: %w", err)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// SetAPIKey implements ports.ConfigProvider. Only the file's own values are
// written back, never the environment override.
func (l *FileLoader) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key must not be empty")
	}
	cfg, err := l.loadFile()
	if err != nil {
		return err
	}
	cfg.AnthropicAPIKey = key

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	path := l.Path()
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return err
	}
	if err := filesystem.WriteFileAtomic(path, buf.Bytes(), domain.SecureFilePermissions); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LoadDotEnv reads dir/.env when present. Variables already set are kept.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, domain.EnvFileName)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

// MockModeEnabled reports whether the deterministic generator was requested.
func MockModeEnabled(getenv func(string) string) bool {
	for _, name := range []string{domain.EnvUseMock, domain.EnvUseMockLegacy} {
		switch strings.ToLower(strings.TrimSpace(getenv(name))) {
		case "1", "true", "yes":
			return true
		}
	}
	return false
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
