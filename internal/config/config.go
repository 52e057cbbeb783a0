// Package config loads and validates the Casandalee core configuration.
// Precedence, lowest to highest: built-in defaults, the YAML config file,
// CASANDALEE_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/folken88/casandalee-discord-bot-sub000/internal/errors"
)

// CurrentVersion is the config schema version this build writes.
const CurrentVersion = 1

// Config is the complete core configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Paths   PathsConfig   `yaml:"paths" json:"paths"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Rebuild RebuildConfig `yaml:"rebuild" json:"rebuild"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// PathsConfig locates the data files. Empty fields are derived from DataDir.
type PathsConfig struct {
	// DataDir is the root for all persisted state. Default: ~/.casandalee
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// EventsFile is the timeline source file (JSON or YAML row array).
	EventsFile string `yaml:"events_file" json:"events_file"`

	// SnapshotFile is where the cache snapshot is persisted.
	SnapshotFile string `yaml:"snapshot_file" json:"snapshot_file"`

	// AliasDB is the SQLite database for persisted alias registrations.
	// Set to "off" to run the registry in memory only.
	AliasDB string `yaml:"alias_db" json:"alias_db"`
}

// SearchConfig tunes the query path.
type SearchConfig struct {
	// MaxResults caps the ranked list a search returns.
	MaxResults int `yaml:"max_results" json:"max_results"`

	// ResultCacheSize bounds the per-snapshot query-result LRU.
	ResultCacheSize int `yaml:"result_cache_size" json:"result_cache_size"`
}

// RebuildConfig tunes the maintenance path.
type RebuildConfig struct {
	// StaleAfter is how old a snapshot may get before IsStale reports it,
	// as a duration string (e.g. "30m").
	StaleAfter string `yaml:"stale_after" json:"stale_after"`

	// WatchDebounce is the quiet window for the events-file watcher,
	// as a duration string (e.g. "500ms").
	WatchDebounce string `yaml:"watch_debounce" json:"watch_debounce"`
}

// LoggingConfig controls the slog setup.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	FilePath  string `yaml:"file_path" json:"file_path"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// DefaultConfig returns the built-in defaults. Path fields derived from
// DataDir stay empty until ApplyDefaults resolves them.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Paths: PathsConfig{
			DataDir: defaultDataDir(),
		},
		Search: SearchConfig{
			MaxResults:      10,
			ResultCacheSize: 256,
		},
		Rebuild: RebuildConfig{
			StaleAfter:    "30m",
			WatchDebounce: "500ms",
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".casandalee"
	}
	return filepath.Join(home, ".casandalee")
}

// Load reads the config file at path, merging it over defaults and applying
// environment overrides. A missing file is not an error: defaults plus
// environment apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults only.
		case err != nil:
			return nil, apperrors.New(apperrors.ErrCodeConfigNotFound,
				"cannot read config file: "+path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, apperrors.New(apperrors.ErrCodeConfigInvalid,
					"config file is not valid YAML: "+path, err)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies CASANDALEE_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CASANDALEE_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv("CASANDALEE_EVENTS_FILE"); v != "" {
		c.Paths.EventsFile = v
	}
	if v := os.Getenv("CASANDALEE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CASANDALEE_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.MaxResults = n
		}
	}
}

// expandHome replaces a leading "~" with the user's home directory, so
// config files written with "~/.casandalee" resolve as intended instead of
// creating a literal "~" directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ApplyDefaults resolves empty derived fields from DataDir.
func (c *Config) ApplyDefaults() {
	c.Paths.DataDir = expandHome(c.Paths.DataDir)
	c.Paths.EventsFile = expandHome(c.Paths.EventsFile)
	c.Paths.SnapshotFile = expandHome(c.Paths.SnapshotFile)
	c.Paths.AliasDB = expandHome(c.Paths.AliasDB)
	c.Logging.FilePath = expandHome(c.Logging.FilePath)

	if c.Paths.DataDir == "" {
		c.Paths.DataDir = defaultDataDir()
	}
	if c.Paths.EventsFile == "" {
		c.Paths.EventsFile = filepath.Join(c.Paths.DataDir, "events.json")
	}
	if c.Paths.SnapshotFile == "" {
		c.Paths.SnapshotFile = filepath.Join(c.Paths.DataDir, "timeline_cache.json")
	}
	if c.Paths.AliasDB == "" {
		c.Paths.AliasDB = filepath.Join(c.Paths.DataDir, "aliases.db")
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(c.Paths.DataDir, "logs", "core.log")
	}
	if c.Search.MaxResults == 0 {
		c.Search.MaxResults = 10
	}
	if c.Search.ResultCacheSize == 0 {
		c.Search.ResultCacheSize = 256
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Search.MaxResults < 0 {
		return apperrors.ConfigError("search.max_results must not be negative", nil)
	}
	if c.Search.ResultCacheSize < 0 {
		return apperrors.ConfigError("search.result_cache_size must not be negative", nil)
	}
	if _, err := c.StaleAfter(); err != nil {
		return apperrors.ConfigError("rebuild.stale_after is not a valid duration", err)
	}
	if _, err := c.WatchDebounce(); err != nil {
		return apperrors.ConfigError("rebuild.watch_debounce is not a valid duration", err)
	}
	return nil
}

// StaleAfter parses the staleness threshold. Empty means the default 30m.
func (c *Config) StaleAfter() (time.Duration, error) {
	if c.Rebuild.StaleAfter == "" {
		return 30 * time.Minute, nil
	}
	return time.ParseDuration(c.Rebuild.StaleAfter)
}

// WatchDebounce parses the watcher quiet window. Empty means 500ms.
func (c *Config) WatchDebounce() (time.Duration, error) {
	if c.Rebuild.WatchDebounce == "" {
		return 500 * time.Millisecond, nil
	}
	return time.ParseDuration(c.Rebuild.WatchDebounce)
}

// Save writes the config as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return apperrors.ConfigError("cannot marshal config", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.ConfigError("cannot create config directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.ConfigError("cannot write config file", err)
	}
	return nil
}
