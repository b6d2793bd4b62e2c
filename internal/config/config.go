// Package config loads and validates the sir configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the sir configuration file
const ConfigFileName = "config.yaml"

// DataDirName is the name of the sir data directory
const DataDirName = ".sir"

// Config holds all sir configuration
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	AI      AIConfig      `yaml:"ai"`
	Auth    AuthConfig    `yaml:"auth"`
	Export  ExportConfig  `yaml:"export"`
}

// StorageConfig holds configuration for draft persistence
type StorageConfig struct {
	AutosaveIntervalSeconds int `yaml:"autosave_interval_seconds"`
}

// AIConfig holds configuration for the generative-language service
type AIConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// AuthConfig holds the passphrase gate configuration. Only the SHA-256 hex
// digest of the shared passphrase is stored.
type AuthConfig struct {
	PassphraseSHA256 string `yaml:"passphrase_sha256"`
}

// ExportConfig holds configuration for report exports
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config from .sir/config.yaml, falling back to defaults.
// It searches for the data directory starting from workDir and walking up
// the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	dataDir, err := FindDataDir(workDir)
	if err != nil {
		// No data dir found, return defaults
		return DefaultConfig(), nil
	}

	configPath := filepath.Join(dataDir, ConfigFileName)
	return LoadFromPath(configPath)
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())

	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// FindDataDir locates the .sir directory by walking up from startDir.
// Returns the path to the .sir directory if found.
func FindDataDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		dataDir := filepath.Join(currentDir, DataDirName)
		info, err := os.Stat(dataDir)
		if err == nil && info.IsDir() {
			return dataDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root, data dir not found
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureDataDir creates the .sir directory if it doesn't exist.
// Returns the path to the .sir directory.
func EnsureDataDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	dataDir := filepath.Join(absDir, DataDirName)

	info, err := os.Stat(dataDir)
	if err == nil {
		if info.IsDir() {
			return dataDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}

	return dataDir, nil
}

// Validate checks that config values are valid.
// Returns an error if validation fails.
func Validate(cfg *Config) error {
	if cfg.Storage.AutosaveIntervalSeconds <= 0 {
		return fmt.Errorf("%w: autosave_interval_seconds must be positive, got %d",
			ErrInvalidConfig, cfg.Storage.AutosaveIntervalSeconds)
	}

	if cfg.AI.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: timeout_seconds must be positive, got %d",
			ErrInvalidConfig, cfg.AI.TimeoutSeconds)
	}

	if cfg.AI.Model == "" {
		return fmt.Errorf("%w: ai model must not be empty", ErrInvalidConfig)
	}

	if len(cfg.Auth.PassphraseSHA256) != 64 {
		return fmt.Errorf("%w: passphrase_sha256 must be a 64-character hex digest, got %d characters",
			ErrInvalidConfig, len(cfg.Auth.PassphraseSHA256))
	}

	return nil
}

// SaveDefault writes the default configuration to .sir/config.yaml in workDir.
// Creates the .sir directory if it doesn't exist.
func SaveDefault(workDir string) (string, error) {
	dataDir, err := EnsureDataDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(dataDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	// Add header comment
	header := "# sir configuration\n# See https://github.com/hargabyte/sir for documentation\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}
