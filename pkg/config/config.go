/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the roiread configuration
type Config struct {
	Decode  Decode  `yaml:"decode" json:"decode"`
	Output  Output  `yaml:"output" json:"output"`
	Server  Server  `yaml:"server" json:"server"`
	Catalog Catalog `yaml:"catalog" json:"catalog"`
	Logging Logging `yaml:"logging" json:"logging"`
}

// Decode controls how archives are decoded
type Decode struct {
	Workers      int   `yaml:"workers" json:"workers"`
	MaxEntrySize int64 `yaml:"max_entry_size" json:"max_entry_size"`
}

// Output controls how decoded collections are printed
type Output struct {
	Format string `yaml:"format" json:"format"`
}

// Server contains HTTP API configuration
type Server struct {
	Port           int    `yaml:"port" json:"port"`
	Bind           string `yaml:"bind" json:"bind"`
	APIKey         string `yaml:"api_key" json:"api_key"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" json:"max_upload_bytes"`
}

// Catalog locates the store of decoded collections
type Catalog struct {
	Dir string `yaml:"dir" json:"dir"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Output formats understood by the CLI
var validFormats = map[string]bool{"table": true, "json": true, "yaml": true}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Decode: Decode{
			Workers:      runtime.NumCPU(),
			MaxEntrySize: 64 << 20,
		},
		Output: Output{
			Format: "table",
		},
		Server: Server{
			Port:           9200,
			Bind:           "127.0.0.1",
			MaxUploadBytes: 256 << 20,
		},
		Catalog: Catalog{
			Dir: "./catalog",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for values the tools cannot use
func (c *Config) Validate() error {
	if c.Decode.Workers < 1 {
		return fmt.Errorf("decode.workers must be at least 1, got %d", c.Decode.Workers)
	}
	if c.Decode.MaxEntrySize < 1 {
		return fmt.Errorf("decode.max_entry_size must be positive, got %d", c.Decode.MaxEntrySize)
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("output.format must be table, json or yaml, got %q", c.Output.Format)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// LoadConfig loads configuration from the specified path. Fields missing from
// the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600), the file may hold the API key
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a default configuration with a generated API key
func BootstrapConfig(configPath string, catalogDir string) (*Config, error) {
	config := DefaultConfig()
	if catalogDir != "" {
		config.Catalog.Dir = catalogDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Server.APIKey = apiKey

	// Save the configuration
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	// Use OS-specific default locations
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./roiread.yaml"
	}

	// For Linux/macOS, use ~/.config/roiread/config.yaml
	configDir := filepath.Join(homeDir, ".config", "roiread")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
