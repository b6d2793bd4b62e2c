package config

import "time"

// DefaultPassphrase is the initial shared passphrase; its digest is written
// into the default config. Deployments are expected to change it.
const DefaultPassphrase = "escola123"

// defaultPassphraseSHA256 is the SHA-256 hex digest of DefaultPassphrase.
const defaultPassphraseSHA256 = "2c2e0c20f949f08a0c6eb27248d838c8fb9f816c1a488025134bedf3d371e26e"

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			AutosaveIntervalSeconds: 30,
		},
		AI: AIConfig{
			BaseURL:        "https://generativelanguage.googleapis.com",
			Model:          "gemini-2.0-flash",
			APIKeyEnv:      "SIR_API_KEY",
			TimeoutSeconds: 30,
		},
		Auth: AuthConfig{
			PassphraseSHA256: defaultPassphraseSHA256,
		},
		Export: ExportConfig{
			Dir: "exports",
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.Storage = mergeStorageConfig(loaded.Storage, defaults.Storage)
	result.AI = mergeAIConfig(loaded.AI, defaults.AI)
	result.Auth = mergeAuthConfig(loaded.Auth, defaults.Auth)
	result.Export = mergeExportConfig(loaded.Export, defaults.Export)

	return result
}

func mergeStorageConfig(loaded, defaults StorageConfig) StorageConfig {
	result := StorageConfig{}

	if loaded.AutosaveIntervalSeconds != 0 {
		result.AutosaveIntervalSeconds = loaded.AutosaveIntervalSeconds
	} else {
		result.AutosaveIntervalSeconds = defaults.AutosaveIntervalSeconds
	}

	return result
}

func mergeAIConfig(loaded, defaults AIConfig) AIConfig {
	result := AIConfig{}

	if loaded.BaseURL != "" {
		result.BaseURL = loaded.BaseURL
	} else {
		result.BaseURL = defaults.BaseURL
	}

	if loaded.Model != "" {
		result.Model = loaded.Model
	} else {
		result.Model = defaults.Model
	}

	if loaded.APIKeyEnv != "" {
		result.APIKeyEnv = loaded.APIKeyEnv
	} else {
		result.APIKeyEnv = defaults.APIKeyEnv
	}

	if loaded.TimeoutSeconds != 0 {
		result.TimeoutSeconds = loaded.TimeoutSeconds
	} else {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}

	return result
}

func mergeAuthConfig(loaded, defaults AuthConfig) AuthConfig {
	result := AuthConfig{}

	if loaded.PassphraseSHA256 != "" {
		result.PassphraseSHA256 = loaded.PassphraseSHA256
	} else {
		result.PassphraseSHA256 = defaults.PassphraseSHA256
	}

	return result
}

func mergeExportConfig(loaded, defaults ExportConfig) ExportConfig {
	result := ExportConfig{}

	if loaded.Dir != "" {
		result.Dir = loaded.Dir
	} else {
		result.Dir = defaults.Dir
	}

	return result
}

// AutosaveInterval returns the autosave interval as a duration.
func (c *Config) AutosaveInterval() time.Duration {
	return time.Duration(c.Storage.AutosaveIntervalSeconds) * time.Second
}

// AITimeout returns the AI request timeout as a duration.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}
