package pngstash

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the pngstash configuration
type Config struct {
	// DefaultChunkType is the type code tools use when none is given.
	DefaultChunkType string `json:"default_chunk_type"`
	// DataDir is where the daemon keeps its artifact files and index.
	DataDir string `json:"data_dir"`
	// ListenAddr is the daemon's HTTP listen address.
	ListenAddr string `json:"listen_addr"`
}

// DefaultConfig returns the configuration used when no config file
// exists
func DefaultConfig() *Config {
	return &Config{
		DefaultChunkType: "stSh",
		ListenAddr:       ":8432",
	}
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error getting home directory: %v\n", err)
		os.Exit(1)
	}
	return filepath.Join(homeDir, ".config", "pngstash", "config.json")
}

// LoadConfig loads the configuration from disk
func LoadConfig() (*Config, error) {
	configPath := GetConfigPath()
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(config *Config) error {
	configPath := GetConfigPath()
	configDir := filepath.Dir(configPath)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}
