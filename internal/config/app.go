package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// AppConfig holds configuration for the grownby terminal app.
type AppConfig struct {
	Env        string
	BackendURL string
	DataDir    string
	Offline    bool
}

// SessionDBPath is the device-local key/value database inside DataDir.
func (c *AppConfig) SessionDBPath() string {
	return filepath.Join(c.DataDir, "storage.db")
}

// LogPath is where the app writes its log, since stdout belongs to the UI.
func (c *AppConfig) LogPath() string {
	return filepath.Join(c.DataDir, "grownby.log")
}

// NewAppViper returns a viper instance reading GROWNBY_* environment variables.
// Callers may bind command-line flags onto it before calling LoadApp.
func NewAppViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("GROWNBY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("env", "development")
	v.SetDefault("backend", "http://localhost:8080")
	v.SetDefault("data-dir", defaultDataDir())
	v.SetDefault("offline", false)

	v.AutomaticEnv()
	return v
}

// LoadApp builds an AppConfig from the given viper instance.
func LoadApp(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		Env:        v.GetString("env"),
		BackendURL: strings.TrimRight(v.GetString("backend"), "/"),
		DataDir:    v.GetString("data-dir"),
		Offline:    v.GetBool("offline"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *AppConfig) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data-dir is required")
	}
	if !c.Offline && c.BackendURL == "" {
		return fmt.Errorf("backend is required unless offline")
	}
	if !c.Offline && !strings.HasPrefix(c.BackendURL, "http://") && !strings.HasPrefix(c.BackendURL, "https://") {
		return fmt.Errorf("backend must be an http(s) URL, got %q", c.BackendURL)
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".grownby"
	}
	return filepath.Join(home, ".grownby")
}
