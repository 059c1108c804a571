package console

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the logbook-watch settings file.
type Config struct {
	Server     string `toml:"server"`
	Project    string `toml:"project"`
	Search     string `toml:"search"`
	TimeFormat string `toml:"time_format"`
	MaxPerDay  int    `toml:"max_per_day"`
}

const (
	defaultConfigPath = "~/.config/logbook/watch.toml"
	defaultServer     = "127.0.0.1:1340"
	defaultTimeFormat = "15:04:05"
	defaultMaxPerDay  = 50
)

// DefaultPath returns the default settings file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Defaults returns the settings used when no file exists.
func Defaults() Config {
	return Config{
		Server:     defaultServer,
		TimeFormat: defaultTimeFormat,
		MaxPerDay:  defaultMaxPerDay,
	}
}

// LoadConfig reads the settings file at path (DefaultPath when empty).
func LoadConfig(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.Server = strings.TrimSpace(cfg.Server)
	if cfg.Server == "" {
		cfg.Server = defaultServer
	}
	cfg.Project = strings.TrimSpace(cfg.Project)
	if strings.TrimSpace(cfg.TimeFormat) == "" {
		cfg.TimeFormat = defaultTimeFormat
	}
	if cfg.MaxPerDay <= 0 {
		cfg.MaxPerDay = defaultMaxPerDay
	}
	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
