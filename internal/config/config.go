package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config represents the application configuration. The COMMERCELENS_ env
// prefix is applied once, via env.Options in LoadWithOverrides.
type Config struct {
	Database DatabaseConfig `json:"database"`
	Archive  ArchiveConfig  `json:"archive"`
	LLM      LLMConfig      `json:"llm"`
	Prompt   PromptConfig   `json:"prompt"`
	Metrics  MetricsConfig  `json:"metrics"`
	Logging  LoggingConfig  `json:"logging"`
}

// DatabaseConfig represents the embedded DuckDB configuration
type DatabaseConfig struct {
	Path            string `json:"path"              env:"DB_PATH"              envDefault:"~/.local/share/commercelens/commercelens.db"`
	MaxConnections  int    `json:"max_connections"   env:"DB_MAX_CONNECTIONS"   envDefault:"10"`
	MaxIdleConns    int    `json:"max_idle_conns"    env:"DB_MAX_IDLE_CONNS"    envDefault:"5"`
	ConnMaxLifetime string `json:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	QueryTimeout    string `json:"query_timeout"     env:"DB_QUERY_TIMEOUT"     envDefault:"30s"`
}

// ArchiveConfig locates the CSV dataset on disk
type ArchiveConfig struct {
	Dir string `json:"dir" env:"ARCHIVE_DIR" envDefault:"archive"`
}

// LLMConfig represents language model provider configuration
type LLMConfig struct {
	Provider string `json:"provider" env:"LLM_PROVIDER" envDefault:"openai"` // openai, anthropic, ollama
	Model    string `json:"model"    env:"LLM_MODEL"    envDefault:"gpt-4o"`
	APIKey   string `json:"api_key"  env:"LLM_API_KEY"`
	BaseURL  string `json:"base_url" env:"LLM_BASE_URL"`
	Timeout  string `json:"timeout"  env:"LLM_TIMEOUT"  envDefault:"60s"`
}

// PromptConfig controls how the schema system prompt is built
type PromptConfig struct {
	MaxChars     int    `json:"max_chars"      env:"PROMPT_MAX_CHARS"      envDefault:"4000"`
	SampleRows   int    `json:"sample_rows"    env:"PROMPT_SAMPLE_ROWS"    envDefault:"3"`
	IncludeTypes bool   `json:"include_types"  env:"PROMPT_INCLUDE_TYPES"  envDefault:"true"`
	Language     string `json:"language"       env:"PROMPT_LANGUAGE"       envDefault:"en"` // en, fa
	CacheDir     string `json:"cache_dir"      env:"PROMPT_CACHE_DIR"      envDefault:"~/.cache/commercelens/prompts"`
	CacheTTL     string `json:"cache_ttl"      env:"PROMPT_CACHE_TTL"      envDefault:"168h"`
}

// MetricsConfig controls the optional Prometheus listener
type MetricsConfig struct {
	Enabled bool `json:"enabled" env:"METRICS_ENABLED" envDefault:"false"`
	Port    int  `json:"port"    env:"METRICS_PORT"    envDefault:"8000"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"  env:"LOG_LEVEL"  envDefault:"info"`   // debug, info, warn, error
	Format string `json:"format" env:"LOG_FORMAT" envDefault:"text"`   // text, json
	Output string `json:"output" env:"LOG_OUTPUT" envDefault:"stderr"` // stdout, stderr, file
	File   string `json:"file"   env:"LOG_FILE"   envDefault:"~/.local/share/commercelens/logs/app.log"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	return LoadWithOverrides(nil)
}

// LoadWithOverrides loads configuration with optional command-line flag overrides
func LoadWithOverrides(flagOverrides map[string]interface{}) (*Config, error) {
	config := &Config{}

	// Load from config file if it exists
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Apply environment variable overrides (also sets defaults)
	if err := env.ParseWithOptions(config, env.Options{
		Prefix: "COMMERCELENS_",
	}); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if flagOverrides != nil {
		applyFlagOverrides(config, flagOverrides)
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	config.ExpandAllPaths()

	return config, nil
}

// loadFromFile loads configuration from a JSON file
func loadFromFile(config *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fileConfig Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeConfigs(config, &fileConfig)

	return nil
}

// applyFlagOverrides applies command-line flag overrides to configuration
func applyFlagOverrides(config *Config, overrides map[string]interface{}) {
	for key, value := range overrides {
		switch key {
		case "db-path":
			if str, ok := value.(string); ok && str != "" {
				config.Database.Path = str
			}
		case "archive":
			if str, ok := value.(string); ok && str != "" {
				config.Archive.Dir = str
			}
		case "log-level":
			if str, ok := value.(string); ok && str != "" {
				config.Logging.Level = str
			}
		case "provider":
			if str, ok := value.(string); ok && str != "" {
				config.LLM.Provider = str
			}
		case "model":
			if str, ok := value.(string); ok && str != "" {
				config.LLM.Model = str
			}
		case "language":
			if str, ok := value.(string); ok && str != "" {
				config.Prompt.Language = str
			}
		}
	}
}

// mergeConfigs merges source configuration into target configuration
func mergeConfigs(target, source *Config) {
	var mergeValues func(t, s reflect.Value)
	mergeValues = func(t, s reflect.Value) {
		if t.Kind() != s.Kind() {
			return
		}

		if t.Kind() == reflect.Struct {
			for i := 0; i < s.NumField(); i++ {
				mergeValues(t.Field(i), s.Field(i))
			}
		} else if s.Kind() == reflect.Bool {
			t.Set(s)
		} else if !s.IsZero() {
			t.Set(s)
		}
	}

	mergeValues(reflect.ValueOf(target).Elem(), reflect.ValueOf(source).Elem())
}

// validate validates the configuration for common errors
func validate(config *Config) error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf(
			"invalid log level: %s (must be debug, info, warn, or error)",
			config.Logging.Level,
		)
	}

	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[strings.ToLower(config.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", config.Logging.Format)
	}

	validLogOutputs := map[string]bool{"stdout": true, "stderr": true, "file": true}
	if !validLogOutputs[strings.ToLower(config.Logging.Output)] {
		return fmt.Errorf(
			"invalid log output: %s (must be stdout, stderr, or file)",
			config.Logging.Output,
		)
	}

	validProviders := map[string]bool{"openai": true, "anthropic": true, "ollama": true}
	if !validProviders[strings.ToLower(config.LLM.Provider)] {
		return fmt.Errorf(
			"invalid LLM provider: %s (must be openai, anthropic, or ollama)",
			config.LLM.Provider,
		)
	}

	validLanguages := map[string]bool{"en": true, "fa": true}
	if !validLanguages[strings.ToLower(config.Prompt.Language)] {
		return fmt.Errorf("invalid prompt language: %s (must be en or fa)", config.Prompt.Language)
	}

	if config.Prompt.MaxChars <= 0 {
		return fmt.Errorf("prompt max chars must be positive: %d", config.Prompt.MaxChars)
	}

	if config.Prompt.SampleRows < 0 {
		return fmt.Errorf("prompt sample rows must not be negative: %d", config.Prompt.SampleRows)
	}

	for _, d := range []struct {
		name  string
		value string
	}{
		{"database query timeout", config.Database.QueryTimeout},
		{"database conn max lifetime", config.Database.ConnMaxLifetime},
		{"llm timeout", config.LLM.Timeout},
		{"prompt cache ttl", config.Prompt.CacheTTL},
	} {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("invalid %s: %s", d.name, d.value)
		}
	}

	if config.Database.MaxConnections <= 0 {
		return fmt.Errorf(
			"database max connections must be positive: %d",
			config.Database.MaxConnections,
		)
	}

	return nil
}

// QueryTimeoutDuration returns the parsed database query timeout
func (c *Config) QueryTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Database.QueryTimeout)
	if err != nil {
		return 30 * time.Second
	}

	return d
}

// LLMTimeoutDuration returns the parsed LLM request timeout
func (c *Config) LLMTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 60 * time.Second
	}

	return d
}

// CacheTTLDuration returns the parsed prompt cache TTL
func (c *Config) CacheTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.Prompt.CacheTTL)
	if err != nil {
		return 7 * 24 * time.Hour
	}

	return d
}

// Save saves configuration to file
func Save(config *Config) error {
	configPath := getConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// getConfigPath returns the path to the configuration file
func getConfigPath() string {
	if configPath := os.Getenv("COMMERCELENS_CONFIG"); configPath != "" {
		return expandPath(configPath)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}

	return filepath.Join(homeDir, ".config", "commercelens", "config.json")
}

// expandPath expands ~ to home directory in file paths
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// ExpandAllPaths expands all paths in the configuration
func (c *Config) ExpandAllPaths() {
	c.Database.Path = expandPath(c.Database.Path)
	c.Archive.Dir = expandPath(c.Archive.Dir)
	c.Logging.File = expandPath(c.Logging.File)
	c.Prompt.CacheDir = expandPath(c.Prompt.CacheDir)
}
