package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	LogDir       string `toml:"log_dir"`
	FranchiseMap string `toml:"franchise_map"` // optional TOML file overriding the built-in table
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// TMDB contains configuration for the general movie/TV catalog.
type TMDB struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Language       string  `toml:"language"`
	RequestsPerSec float64 `toml:"requests_per_sec"`
	RequestTimeout int     `toml:"request_timeout"`
	IncludeMovies  bool    `toml:"include_movies"`
	IncludeTVShows bool    `toml:"include_tv_shows"`
}

// MAL contains configuration for the anime-specialized catalog.
type MAL struct {
	ClientID       string  `toml:"client_id"`
	BaseURL        string  `toml:"base_url"`
	RequestsPerSec float64 `toml:"requests_per_sec"`
	RequestTimeout int     `toml:"request_timeout"`
}

// Ingest contains batch ingestion settings.
type Ingest struct {
	PageSize    int `toml:"page_size"`
	MaxPages    int `toml:"max_pages"`
	Concurrency int `toml:"concurrency"` // records processed in parallel within a page
}

// Matching contains the fact-checker tolerances. These are policy knobs, not
// hard laws: loosening them trades duplicate records for false merges.
type Matching struct {
	FuzzyThreshold   float64 `toml:"fuzzy_threshold"`
	MovieYearSkew    int     `toml:"movie_year_skew"`
	TVYearSkew       int     `toml:"tv_year_skew"`
	EpisodeTolerance int     `toml:"episode_tolerance"`
	RuntimeTolerance int     `toml:"runtime_tolerance"` // minutes
}

// Relationships contains franchise relationship resolution settings.
type Relationships struct {
	CacheTTLSeconds int `toml:"cache_ttl_seconds"`
	RelatedLimit    int `toml:"related_limit"`
}

// Config encapsulates all configuration values for toondex.
//
// Configuration sections by subsystem:
//   - Paths: data directory (catalog database, lock file) and log directory
//   - Logging: log format and level
//   - TMDB: the general movie/TV catalog (source A)
//   - MAL: the anime-specialized catalog (source B)
//   - Ingest: page sizes, limits, and intra-page concurrency
//   - Matching: fuzzy threshold and fact-checker tolerances
//   - Relationships: resolver cache TTL and fallback limits
type Config struct {
	Paths         Paths         `toml:"paths"`
	Logging       Logging       `toml:"logging"`
	TMDB          TMDB          `toml:"tmdb"`
	MAL           MAL           `toml:"mal"`
	Ingest        Ingest        `toml:"ingest"`
	Matching      Matching      `toml:"matching"`
	Relationships Relationships `toml:"relationships"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/toondex/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The bool reports whether
// a config file was actually found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	projectPath, err := filepath.Abs("toondex.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.FranchiseMap) != "" {
		if c.Paths.FranchiseMap, err = expandPath(c.Paths.FranchiseMap); err != nil {
			return fmt.Errorf("paths.franchise_map: %w", err)
		}
	}
	if envKey := strings.TrimSpace(os.Getenv("TMDB_API_KEY")); envKey != "" && c.TMDB.APIKey == "" {
		c.TMDB.APIKey = envKey
	}
	if envID := strings.TrimSpace(os.Getenv("MAL_CLIENT_ID")); envID != "" && c.MAL.ClientID == "" {
		c.MAL.ClientID = envID
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	return nil
}

// EnsureDirectories creates the configured data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the catalog database location inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "catalog.db")
}

// LockPath returns the ingest lock file location inside the data directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "ingest.lock")
}

// CreateSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func CreateSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath resolves a leading ~ and makes the path absolute.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	trimmed := strings.TrimSpace(pathValue)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Abs(trimmed)
}
