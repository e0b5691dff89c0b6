// Package config loads the application configuration from YAML with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration.
type Config struct {
	// Library is the path of the JSON library file.
	Library string `yaml:"library"`
	// Provider selects the generation backend: ollama, openai, or off.
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	Endpoint string `yaml:"endpoint"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Library:  filepath.Join(stateDir(), "library.json"),
		Provider: "",
		LogLevel: "info",
		LogFile:  filepath.Join(stateDir(), "studydeck.log"),
	}
}

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "studydeck", "config.yaml")
}

func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "studydeck")
}

// Load reads the YAML file at path, starting from defaults, then applies
// STUDYDECK_* environment overrides. A missing file is not an error; the
// defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Defaults stand.
	default:
		return Config{}, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"STUDYDECK_LIBRARY":   &cfg.Library,
		"STUDYDECK_PROVIDER":  &cfg.Provider,
		"STUDYDECK_MODEL":     &cfg.Model,
		"STUDYDECK_ENDPOINT":  &cfg.Endpoint,
		"STUDYDECK_LOG_LEVEL": &cfg.LogLevel,
		"STUDYDECK_LOG_FILE":  &cfg.LogFile,
	}
	for key, target := range overrides {
		if value := os.Getenv(key); value != "" {
			*target = value
		}
	}
}
