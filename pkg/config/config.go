/*
Package config manages TOML config for HPOServe.
*/
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bastiangx/hposerve/internal/utils"
	"github.com/charmbracelet/log"
)

// FileName is the config file looked up in the config dir.
const FileName = "config.toml"

// Config holds the entire config structure
type Config struct {
	Search  SearchConfig  `toml:"search"`
	Dataset DatasetConfig `toml:"dataset"`
	HTTP    HTTPConfig    `toml:"http"`
	CLI     CliConfig     `toml:"cli"`
}

// SearchConfig has search and ranking options.
type SearchConfig struct {
	MinQuery     int `toml:"min_query"`
	MaxResults   int `toml:"max_results"`
	RelatedLimit int `toml:"related_limit"`
	CacheSize    int `toml:"cache_size"`
}

// DatasetConfig says where the term data comes from.
// URL takes precedence over Path when both are set.
type DatasetConfig struct {
	Path            string `toml:"path"`
	URL             string `toml:"url"`
	MaxRetries      int    `toml:"max_retries"`
	FetchTimeoutSec int    `toml:"fetch_timeout_sec"`
}

// HTTPConfig holds HTTP API options.
type HTTPConfig struct {
	Addr         string   `toml:"addr"`
	RatePerSec   float64  `toml:"rate_per_sec"`
	Burst        int      `toml:"burst"`
	AllowOrigins []string `toml:"allow_origins"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int `toml:"default_limit"`
}

// Source returns the dataset location to load.
func (d DatasetConfig) Source() string {
	if d.URL != "" {
		return d.URL
	}
	return d.Path
}

// FetchTimeout returns the per-attempt fetch timeout.
func (d DatasetConfig) FetchTimeout() time.Duration {
	return time.Duration(d.FetchTimeoutSec) * time.Second
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/hposerve
// 2. ~/Library/Application Support/hposerve (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "hposerve")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "hposerve")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, FileName), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from the -config flag
// 2. Default path: [UserConfigDir]/hposerve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			MinQuery:     2,
			MaxResults:   50,
			RelatedLimit: 15,
			CacheSize:    512,
		},
		Dataset: DatasetConfig{
			Path:            utils.DefaultDataFile,
			MaxRetries:      3,
			FetchTimeoutSec: 30,
		},
		HTTP: HTTPConfig{
			Addr:         "127.0.0.1:8080",
			RatePerSec:   20,
			Burst:        40,
			AllowOrigins: []string{"*"},
		},
		CLI: CliConfig{
			DefaultLimit: 20,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)
	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file. Keys missing from the file keep their
// defaults; a file that fails to decode is recovered section by section.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	config.sanitize()
	return config, nil
}

// tryPartialParse keeps every well-typed key and defaults the rest
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "search"); ok {
		extractSearchConfig(section, &config.Search)
	}
	if section, ok := utils.ExtractSection(tempConfig, "dataset"); ok {
		extractDatasetConfig(section, &config.Dataset)
	}
	if section, ok := utils.ExtractSection(tempConfig, "http"); ok {
		extractHTTPConfig(section, &config.HTTP)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	config.sanitize()
	return config, nil
}

func extractSearchConfig(data map[string]any, search *SearchConfig) {
	if val, ok := utils.ExtractInt64(data, "min_query"); ok {
		search.MinQuery = val
	}
	if val, ok := utils.ExtractInt64(data, "max_results"); ok {
		search.MaxResults = val
	}
	if val, ok := utils.ExtractInt64(data, "related_limit"); ok {
		search.RelatedLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_size"); ok {
		search.CacheSize = val
	}
}

func extractDatasetConfig(data map[string]any, ds *DatasetConfig) {
	if val, ok := utils.ExtractString(data, "path"); ok {
		ds.Path = val
	}
	if val, ok := utils.ExtractString(data, "url"); ok {
		ds.URL = val
	}
	if val, ok := utils.ExtractInt64(data, "max_retries"); ok {
		ds.MaxRetries = val
	}
	if val, ok := utils.ExtractInt64(data, "fetch_timeout_sec"); ok {
		ds.FetchTimeoutSec = val
	}
}

func extractHTTPConfig(data map[string]any, h *HTTPConfig) {
	if val, ok := utils.ExtractString(data, "addr"); ok {
		h.Addr = val
	}
	if val, ok := utils.ExtractFloat(data, "rate_per_sec"); ok {
		h.RatePerSec = val
	}
	if val, ok := utils.ExtractInt64(data, "burst"); ok {
		h.Burst = val
	}
	if val, ok := utils.ExtractStrings(data, "allow_origins"); ok {
		h.AllowOrigins = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
}

// sanitize resets out of range values to their defaults.
func (c *Config) sanitize() {
	def := DefaultConfig()
	if c.Search.MinQuery < 1 {
		log.Warnf("search.min_query %d out of range, using %d", c.Search.MinQuery, def.Search.MinQuery)
		c.Search.MinQuery = def.Search.MinQuery
	}
	if c.Search.MaxResults < 1 {
		log.Warnf("search.max_results %d out of range, using %d", c.Search.MaxResults, def.Search.MaxResults)
		c.Search.MaxResults = def.Search.MaxResults
	}
	if c.Search.RelatedLimit < 1 {
		c.Search.RelatedLimit = def.Search.RelatedLimit
	}
	if c.Search.CacheSize < 0 {
		c.Search.CacheSize = 0
	}
	if c.Dataset.MaxRetries < 1 {
		c.Dataset.MaxRetries = def.Dataset.MaxRetries
	}
	if c.Dataset.FetchTimeoutSec < 1 {
		c.Dataset.FetchTimeoutSec = def.Dataset.FetchTimeoutSec
	}
	if c.HTTP.RatePerSec < 0 {
		c.HTTP.RatePerSec = 0
	}
	if c.HTTP.Burst < 1 {
		c.HTTP.Burst = 1
	}
	if c.CLI.DefaultLimit < 1 {
		c.CLI.DefaultLimit = def.CLI.DefaultLimit
	}
}

// RebuildConfigFile force creates a new config.toml at path, or at the
// default location when path is empty.
func RebuildConfigFile(path string) (string, error) {
	if path == "" {
		defaultPath, err := GetDefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return "", err
	}
	return path, utils.SaveTOMLFile(DefaultConfig(), path)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes the search values and saves to file
func (c *Config) Update(configPath string, maxResults, relatedLimit, minQuery *int) error {
	search := &c.Search
	if maxResults != nil {
		search.MaxResults = *maxResults
	}
	if relatedLimit != nil {
		search.RelatedLimit = *relatedLimit
	}
	if minQuery != nil {
		search.MinQuery = *minQuery
	}
	c.sanitize()
	return SaveConfig(c, configPath)
}
