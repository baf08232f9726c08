package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable that overrides a config key.
const EnvPrefix = "SCRYMANCER_"

// Config represents the application configuration
type Config struct {
	BaseURL           string  `toml:"base_url"`
	UserAgent         string  `toml:"user_agent"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	PageIntervalMS    int     `toml:"page_interval_ms"`
	MaxPages          int     `toml:"max_pages"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	ImageVersion      string  `toml:"image_version"`
	Format            string  `toml:"format"`
	DefaultDeck       string  `toml:"default_deck"`
}

// Default returns the configuration written on first run.
func Default() *Config {
	return &Config{
		BaseURL:           "https://api.scryfall.com",
		UserAgent:         "scrymancer/1.0",
		TimeoutSeconds:    30,
		PageIntervalMS:    50,
		MaxPages:          0,
		RequestsPerSecond: 10,
		ImageVersion:      "normal",
		Format:            "modern",
	}
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PageInterval returns the pause between page fetches.
func (c *Config) PageInterval() time.Duration {
	return time.Duration(c.PageIntervalMS) * time.Millisecond
}

// Validate reports the first unusable value.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url %q is not an http(s) URL", c.BaseURL)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	if c.PageIntervalMS < 0 {
		return fmt.Errorf("page_interval_ms must not be negative, got %d", c.PageIntervalMS)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max_pages must not be negative, got %d", c.MaxPages)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative, got %v", c.RequestsPerSecond)
	}
	return nil
}

// GetXDGDataHome returns XDG_DATA_HOME or default path
func GetXDGDataHome() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return xdgData
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".local", "share")
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or default path
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetXDGCacheHome returns XDG_CACHE_HOME or default path
func GetXDGCacheHome() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return xdgCache
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".cache")
}

// GetCacheDir returns the directory for regenerable data such as rendered art
func GetCacheDir() string {
	return filepath.Join(GetXDGCacheHome(), "scrymancer")
}

// GetDeckLibraryPath returns the directory holding saved deck lists
func GetDeckLibraryPath() string {
	return filepath.Join(GetXDGDataHome(), "scrymancer", "decks")
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() string {
	return filepath.Join(GetXDGConfigHome(), "scrymancer", "config.toml")
}

// LoadConfig loads .env from the working directory, then the config file
// (creating it with defaults if missing), then applies SCRYMANCER_*
// environment overrides.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	config, err := LoadFile(GetConfigFilePath())
	if err != nil {
		return nil, err
	}
	if err := config.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// LoadFile decodes the config at path over the defaults. A missing file is
// created with the defaults.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		config := Default()
		if err := Save(path, config); err != nil {
			return nil, err
		}
		return config, nil
	}

	config := Default()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}
	return config, nil
}

// Save writes config to path, creating the directory if needed.
func Save(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(config); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	return nil
}

// applyEnv overrides fields from SCRYMANCER_<KEY> variables, where KEY is the
// upper-cased toml key.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + strings.ToUpper(key))
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}
	setInt := func(key string, dst *int) error {
		v, ok := get(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %q is not an integer", EnvPrefix, strings.ToUpper(key), v)
		}
		*dst = n
		return nil
	}

	if v, ok := get("base_url"); ok {
		c.BaseURL = v
	}
	if v, ok := get("user_agent"); ok {
		c.UserAgent = v
	}
	if v, ok := get("image_version"); ok {
		c.ImageVersion = v
	}
	if v, ok := get("format"); ok {
		c.Format = v
	}
	if v, ok := get("default_deck"); ok {
		c.DefaultDeck = v
	}
	if err := setInt("timeout_seconds", &c.TimeoutSeconds); err != nil {
		return err
	}
	if err := setInt("page_interval_ms", &c.PageIntervalMS); err != nil {
		return err
	}
	if err := setInt("max_pages", &c.MaxPages); err != nil {
		return err
	}
	if v, ok := get("requests_per_second"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sREQUESTS_PER_SECOND: %q is not a number", EnvPrefix, v)
		}
		c.RequestsPerSecond = f
	}
	return nil
}

// GetDeckPath returns the path to a deck list, either in the deck library or
// a relative path. Library entries may omit the .toml extension.
func GetDeckPath(deckName string) (string, error) {
	libraryPath := GetDeckLibraryPath()
	for _, candidate := range []string{deckName, deckName + ".toml"} {
		deckPath := filepath.Join(libraryPath, candidate)
		if info, err := os.Stat(deckPath); err == nil && !info.IsDir() {
			return deckPath, nil
		}
	}

	if info, err := os.Stat(deckName); err == nil && !info.IsDir() {
		return deckName, nil
	}

	return "", fmt.Errorf("deck not found: %s", deckName)
}

// SetDefaultDeck sets the default deck in the config file
func SetDefaultDeck(deckName string) error {
	path := GetConfigFilePath()
	config, err := LoadFile(path)
	if err != nil {
		return err
	}
	config.DefaultDeck = deckName
	return Save(path, config)
}
