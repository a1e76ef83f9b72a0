package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Environment overrides.
const (
	EnvConfigPath = "PROFILE_EXTRACT_CONFIG"
	EnvAPIKey     = "PROFILE_EXTRACT_API_KEY"
	EnvBaseURL    = "PROFILE_EXTRACT_BASE_URL"
	EnvLogLevel   = "PROFILE_EXTRACT_LOG_LEVEL"
)

// Scraper modes.
const (
	ScraperSimulated = "simulated"
	ScraperRemote    = "remote"
)

type Config struct {
	// API server
	API struct {
		Host   string `toml:"host"`
		Port   int    `toml:"port"`
		APIKey string `toml:"api_key"` // empty disables auth
	} `toml:"api"`

	// CLI
	CLI struct {
		BaseURL  string `toml:"base_url"` // API server used by "remote" commands
		APIKey   string `toml:"api_key"`
		LogLevel string `toml:"log_level"`
		LogFile  string `toml:"log_file"` // empty means tmp/cli-<timestamp>.log
	} `toml:"cli"`

	// Batch coordinator
	Batch struct {
		MaxConcurrent       int     `toml:"max_concurrent"`
		PerItemTimeoutMS    int     `toml:"per_item_timeout_ms"`
		RateLimit           float64 `toml:"rate_limit"` // item starts per second, 0 = unlimited
		RateBurst           int     `toml:"rate_burst"`
		InteractiveMaxItems int     `toml:"interactive_max_items"`
		BulkMaxItems        int     `toml:"bulk_max_items"`
		MaxRetries          int     `toml:"max_retries"`
		RetryBackoffMS      int     `toml:"retry_backoff_ms"`
	} `toml:"batch"`

	// Item processor
	Processor struct {
		SuccessProbability float64 `toml:"success_probability"`
		ConfidenceMin      float64 `toml:"confidence_min"`
		ConfidenceMax      float64 `toml:"confidence_max"`
		MinStageDelayMS    int     `toml:"min_stage_delay_ms"`
		MaxStageDelayMS    int     `toml:"max_stage_delay_ms"`
		Seed               uint64  `toml:"seed"` // 0 = random
	} `toml:"processor"`

	// Scraper
	Scraper struct {
		Mode           string `toml:"mode"`     // simulated or remote
		BaseURL        string `toml:"base_url"` // Base URL for scraper service
		TimeoutSeconds int    `toml:"timeout_seconds"`
	} `toml:"scraper"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.API.Host = "0.0.0.0"
	cfg.API.Port = 8080
	cfg.CLI.BaseURL = "http://localhost:8080"
	cfg.CLI.LogLevel = "info"
	cfg.Batch.MaxConcurrent = 1
	cfg.Batch.PerItemTimeoutMS = 30000
	cfg.Batch.RateBurst = 1
	cfg.Batch.InteractiveMaxItems = 5
	cfg.Batch.BulkMaxItems = 1000
	cfg.Batch.MaxRetries = 2
	cfg.Batch.RetryBackoffMS = 200
	cfg.Processor.SuccessProbability = 0.9
	cfg.Processor.ConfidenceMin = 0.6
	cfg.Processor.ConfidenceMax = 1.0
	cfg.Processor.MinStageDelayMS = 500
	cfg.Processor.MaxStageDelayMS = 2000
	cfg.Scraper.Mode = ScraperSimulated
	cfg.Scraper.BaseURL = "http://localhost:3000"
	cfg.Scraper.TimeoutSeconds = 30
	return cfg
}

// PerItemTimeout returns the configured item deadline.
func (c *Config) PerItemTimeout() time.Duration {
	return time.Duration(c.Batch.PerItemTimeoutMS) * time.Millisecond
}

// RetryBackoff returns the initial retry delay.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Batch.RetryBackoffMS) * time.Millisecond
}

// StageDelays returns the simulated per-stage delay bounds.
func (c *Config) StageDelays() (time.Duration, time.Duration) {
	return time.Duration(c.Processor.MinStageDelayMS) * time.Millisecond,
		time.Duration(c.Processor.MaxStageDelayMS) * time.Millisecond
}

// Validate rejects settings the processor and coordinator cannot honor.
func (c *Config) Validate() error {
	var errs []error
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port %d out of range", c.API.Port))
	}
	if c.Batch.MaxConcurrent < 1 {
		errs = append(errs, errors.New("batch.max_concurrent must be at least 1"))
	}
	if c.Batch.PerItemTimeoutMS <= 0 {
		errs = append(errs, errors.New("batch.per_item_timeout_ms must be positive"))
	}
	if c.Batch.RateLimit < 0 {
		errs = append(errs, errors.New("batch.rate_limit must not be negative"))
	}
	if c.Batch.InteractiveMaxItems < 1 || c.Batch.BulkMaxItems < 1 {
		errs = append(errs, errors.New("batch item limits must be positive"))
	}
	if c.Batch.MaxRetries < 0 {
		errs = append(errs, errors.New("batch.max_retries must not be negative"))
	}
	p := c.Processor
	if p.SuccessProbability < 0 || p.SuccessProbability > 1 {
		errs = append(errs, fmt.Errorf("processor.success_probability %v outside [0,1]", p.SuccessProbability))
	}
	if p.ConfidenceMin < 0 || p.ConfidenceMax > 1 || p.ConfidenceMin > p.ConfidenceMax {
		errs = append(errs, fmt.Errorf("processor confidence range [%v, %v] invalid", p.ConfidenceMin, p.ConfidenceMax))
	}
	if p.MinStageDelayMS < 0 || p.MinStageDelayMS > p.MaxStageDelayMS {
		errs = append(errs, fmt.Errorf("processor stage delay range [%d, %d] invalid", p.MinStageDelayMS, p.MaxStageDelayMS))
	}
	if c.Scraper.Mode != ScraperSimulated && c.Scraper.Mode != ScraperRemote {
		errs = append(errs, fmt.Errorf("scraper.mode %q must be %q or %q", c.Scraper.Mode, ScraperSimulated, ScraperRemote))
	}
	return errors.Join(errs...)
}

// ConfigPath returns the path to the config file
func ConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	configDir := filepath.Join(homeDir, ".config", "profile-extract")
	return filepath.Join(configDir, "config.toml"), nil
}

// Load reads configuration from ConfigPath.
// Creates the file with defaults if it doesn't exist
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads configuration from path, creating it with defaults when
// missing. Environment overrides are applied after the file.
func LoadFrom(configPath string) (*Config, error) {
	configPath, err := expandHome(configPath)
	if err != nil {
		return nil, err
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := SaveTo(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		applyEnv(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

// mergeDefaults fills values a partial file leaves unset. Probabilities and
// rate limits are left alone since zero is meaningful for them.
func mergeDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.API.Host == "" {
		cfg.API.Host = def.API.Host
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = def.API.Port
	}
	if cfg.CLI.BaseURL == "" {
		cfg.CLI.BaseURL = def.CLI.BaseURL
	}
	if cfg.CLI.LogLevel == "" {
		cfg.CLI.LogLevel = def.CLI.LogLevel
	}
	if cfg.Batch.MaxConcurrent == 0 {
		cfg.Batch.MaxConcurrent = def.Batch.MaxConcurrent
	}
	if cfg.Batch.PerItemTimeoutMS == 0 {
		cfg.Batch.PerItemTimeoutMS = def.Batch.PerItemTimeoutMS
	}
	if cfg.Batch.RateBurst == 0 {
		cfg.Batch.RateBurst = def.Batch.RateBurst
	}
	if cfg.Batch.InteractiveMaxItems == 0 {
		cfg.Batch.InteractiveMaxItems = def.Batch.InteractiveMaxItems
	}
	if cfg.Batch.BulkMaxItems == 0 {
		cfg.Batch.BulkMaxItems = def.Batch.BulkMaxItems
	}
	if cfg.Batch.RetryBackoffMS == 0 {
		cfg.Batch.RetryBackoffMS = def.Batch.RetryBackoffMS
	}
	if cfg.Processor.ConfidenceMin == 0 && cfg.Processor.ConfidenceMax == 0 {
		cfg.Processor.ConfidenceMin = def.Processor.ConfidenceMin
		cfg.Processor.ConfidenceMax = def.Processor.ConfidenceMax
	}
	if cfg.Processor.MinStageDelayMS == 0 && cfg.Processor.MaxStageDelayMS == 0 {
		cfg.Processor.MinStageDelayMS = def.Processor.MinStageDelayMS
		cfg.Processor.MaxStageDelayMS = def.Processor.MaxStageDelayMS
	}
	if cfg.Scraper.Mode == "" {
		cfg.Scraper.Mode = def.Scraper.Mode
	}
	if cfg.Scraper.BaseURL == "" {
		cfg.Scraper.BaseURL = def.Scraper.BaseURL
	}
	if cfg.Scraper.TimeoutSeconds == 0 {
		cfg.Scraper.TimeoutSeconds = def.Scraper.TimeoutSeconds
	}
}

// Override with environment variables if set (useful for Docker)
func applyEnv(cfg *Config) {
	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.API.APIKey = key
		cfg.CLI.APIKey = key
	}
	if baseURL := os.Getenv(EnvBaseURL); baseURL != "" {
		cfg.CLI.BaseURL = baseURL
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.CLI.LogLevel = level
	}
}

// Save writes the configuration to the config file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(configPath, cfg)
}

// SaveTo writes cfg as TOML to path.
func SaveTo(configPath string, cfg *Config) error {
	configPath, err := expandHome(configPath)
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func expandHome(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return strings.Replace(p, "~", homeDir, 1), nil
}

// Set assigns one value addressed as "section.key". The result is validated
// before it is kept.
func (c *Config) Set(keyPath, value string) error {
	section, key, ok := strings.Cut(keyPath, ".")
	if !ok || section == "" || key == "" {
		return fmt.Errorf("invalid key format: expected 'section.key'")
	}

	next := *c
	if err := next.set(section, key, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func (c *Config) set(section, key, value string) error {
	switch section {
	case "api":
		switch key {
		case "host":
			c.API.Host = value
		case "port":
			return setInt(&c.API.Port, key, value)
		case "api_key":
			c.API.APIKey = value
		default:
			return fmt.Errorf("unknown api key: %s", key)
		}
	case "cli":
		switch key {
		case "base_url":
			c.CLI.BaseURL = value
		case "api_key":
			c.CLI.APIKey = value
		case "log_level":
			c.CLI.LogLevel = value
		case "log_file":
			c.CLI.LogFile = value
		default:
			return fmt.Errorf("unknown cli key: %s", key)
		}
	case "batch":
		switch key {
		case "max_concurrent":
			return setInt(&c.Batch.MaxConcurrent, key, value)
		case "per_item_timeout_ms":
			return setInt(&c.Batch.PerItemTimeoutMS, key, value)
		case "rate_limit":
			return setFloat(&c.Batch.RateLimit, key, value)
		case "rate_burst":
			return setInt(&c.Batch.RateBurst, key, value)
		case "interactive_max_items":
			return setInt(&c.Batch.InteractiveMaxItems, key, value)
		case "bulk_max_items":
			return setInt(&c.Batch.BulkMaxItems, key, value)
		case "max_retries":
			return setInt(&c.Batch.MaxRetries, key, value)
		case "retry_backoff_ms":
			return setInt(&c.Batch.RetryBackoffMS, key, value)
		default:
			return fmt.Errorf("unknown batch key: %s", key)
		}
	case "processor":
		switch key {
		case "success_probability":
			return setFloat(&c.Processor.SuccessProbability, key, value)
		case "confidence_min":
			return setFloat(&c.Processor.ConfidenceMin, key, value)
		case "confidence_max":
			return setFloat(&c.Processor.ConfidenceMax, key, value)
		case "min_stage_delay_ms":
			return setInt(&c.Processor.MinStageDelayMS, key, value)
		case "max_stage_delay_ms":
			return setInt(&c.Processor.MaxStageDelayMS, key, value)
		case "seed":
			seed, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid seed value: %s", value)
			}
			c.Processor.Seed = seed
		default:
			return fmt.Errorf("unknown processor key: %s", key)
		}
	case "scraper":
		switch key {
		case "mode":
			c.Scraper.Mode = value
		case "base_url":
			c.Scraper.BaseURL = value
		case "timeout_seconds":
			return setInt(&c.Scraper.TimeoutSeconds, key, value)
		default:
			return fmt.Errorf("unknown scraper key: %s", key)
		}
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid %s value: %s", key, value)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key, value string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("invalid %s value: %s", key, value)
	}
	*dst = f
	return nil
}
