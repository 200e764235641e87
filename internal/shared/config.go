package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Library     LibraryConfig     `toml:"library"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
}

// LibraryConfig describes the local music directory and sync behaviour.
type LibraryConfig struct {
	Dir                string `toml:"music_dir"`
	Extension          string `toml:"extension"`
	SettleSeconds      int    `toml:"settle_seconds"`
	PlaylistTrackLimit int    `toml:"playlist_track_limit"`
	UploadLimit        int    `toml:"upload_limit"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	YouTube YouTubeConfig `toml:"youtube"`
}

// YouTubeConfig contains YouTube Music proxy settings.
type YouTubeConfig struct {
	ProxyURL          string  `toml:"proxy_url"`
	HeadersPath       string  `toml:"headers_path"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// DatabaseConfig contains database connection settings.
//
// An empty path disables run history.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that would otherwise fail deep inside a sync run.
func (c *Config) Validate() error {
	ext := c.Library.Extension
	if ext == "" || strings.ContainsAny(ext, "./[]") {
		return fmt.Errorf("%w: library.extension %q", ErrInvalidConfig, ext)
	}
	if c.Library.SettleSeconds < 0 {
		return fmt.Errorf("%w: library.settle_seconds must not be negative", ErrInvalidConfig)
	}
	if c.Library.PlaylistTrackLimit <= 0 {
		return fmt.Errorf("%w: library.playlist_track_limit must be positive", ErrInvalidConfig)
	}
	if c.Credentials.YouTube.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: credentials.youtube.requests_per_second must not be negative", ErrInvalidConfig)
	}
	return nil
}

// MusicDir returns the configured music directory, falling back to ~/Music.
func (c *Config) MusicDir() (string, error) {
	if c.Library.Dir != "" {
		return c.Library.Dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: music_dir not set and no home directory: %v", ErrMissingConfig, err)
	}
	return filepath.Join(home, "Music"), nil
}

// SettleDelay is the wait between a library sync and a playlist sync in the same run.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Library.SettleSeconds) * time.Second
}
