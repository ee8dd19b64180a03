// Package config loads settings from .env, an optional TOML file and the environment,
// in that order of precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const defaultConfigFile = "resumefolio.toml"

const (
	ProviderGemini   = "gemini"
	ProviderDeepSeek = "deepseek"
)

type Config struct {
	LLM      LLMConfig      `toml:"llm"`
	Paths    PathsConfig    `toml:"paths"`
	Database DatabaseConfig `toml:"database"`
	RabbitMQ RabbitMQConfig `toml:"rabbitmq"`
	R2       R2Config       `toml:"r2"`
	Worker   WorkerConfig   `toml:"worker"`
}

type LLMConfig struct {
	Provider           string `toml:"provider"`
	GoogleAPIKey       string `toml:"google_api_key"`
	DeepSeekAPIKey     string `toml:"deepseek_api_key"`
	BaseURL            string `toml:"base_url"`
	Model              string `toml:"model"`
	MaxTokens          int    `toml:"max_tokens"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	ProgressIntervalMS int    `toml:"progress_interval_ms"`
}

type PathsConfig struct {
	OutputDir string `toml:"output_dir"`
	TempDir   string `toml:"temp_dir"`
	LogDir    string `toml:"log_dir"`
}

type DatabaseConfig struct {
	URL string `toml:"url"`
}

type RabbitMQConfig struct {
	URL string `toml:"url"`
}

type R2Config struct {
	AccountID string `toml:"account_id"`
	Bucket    string `toml:"bucket"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
}

type WorkerConfig struct {
	Count int `toml:"count"`
}

// Load reads .env (best effort), applies defaults, decodes the TOML file named by
// CONFIG_FILE (or resumefolio.toml when present) and finally applies environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()

	configPath, explicit := os.LookupEnv("CONFIG_FILE")
	if !explicit || configPath == "" {
		configPath = defaultConfigFile
	}
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	} else if explicit && configPath != "" {
		return nil, fmt.Errorf("config file %s: %w", configPath, err)
	}

	overrideByEnv(cfg)
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:           ProviderGemini,
			MaxTokens:          8000,
			TimeoutSeconds:     600,
			ProgressIntervalMS: 2000,
		},
		Paths: PathsConfig{
			OutputDir: "./portfolio",
			TempDir:   "./tmp",
			LogDir:    "./logs",
		},
		Worker: WorkerConfig{
			Count: 3,
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.LLM.Provider = getEnv("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.GoogleAPIKey = getEnv("GOOGLE_API_KEY", cfg.LLM.GoogleAPIKey)
	cfg.LLM.DeepSeekAPIKey = getEnv("DEEPSEEK_API_KEY", cfg.LLM.DeepSeekAPIKey)
	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.MaxTokens = getEnvAsInt("LLM_MAX_TOKENS", cfg.LLM.MaxTokens)
	cfg.LLM.TimeoutSeconds = getEnvAsInt("LLM_TIMEOUT_SECONDS", cfg.LLM.TimeoutSeconds)
	cfg.LLM.ProgressIntervalMS = getEnvAsInt("LLM_PROGRESS_INTERVAL_MS", cfg.LLM.ProgressIntervalMS)

	cfg.Paths.OutputDir = getEnv("PORTFOLIO_OUTPUT_DIR", cfg.Paths.OutputDir)
	cfg.Paths.TempDir = getEnv("PORTFOLIO_TEMP_DIR", cfg.Paths.TempDir)
	cfg.Paths.LogDir = getEnv("PORTFOLIO_LOG_DIR", cfg.Paths.LogDir)

	cfg.Database.URL = getEnv("DB_URL", cfg.Database.URL)
	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)

	cfg.R2.AccountID = getEnv("R2_ACCOUNT_ID", cfg.R2.AccountID)
	cfg.R2.Bucket = getEnv("R2_BUCKET", cfg.R2.Bucket)
	cfg.R2.AccessKey = getEnv("R2_ACCESS_KEY", cfg.R2.AccessKey)
	cfg.R2.SecretKey = getEnv("R2_SECRET_KEY", cfg.R2.SecretKey)

	cfg.Worker.Count = getEnvAsInt("WORKER_COUNT", cfg.Worker.Count)
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

func (c *Config) ProgressInterval() time.Duration {
	return time.Duration(c.LLM.ProgressIntervalMS) * time.Millisecond
}

// ValidateLLM reports the credential missing for the selected provider.
func (c *Config) ValidateLLM() error {
	switch c.LLM.Provider {
	case ProviderGemini:
		if c.LLM.GoogleAPIKey == "" {
			return errors.New("empty GOOGLE_API_KEY in environment")
		}
	case ProviderDeepSeek:
		if c.LLM.DeepSeekAPIKey == "" {
			return errors.New("empty DEEPSEEK_API_KEY in environment")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	return nil
}

func (c *Config) ValidateR2() error {
	return requireAll(
		"R2_ACCOUNT_ID", c.R2.AccountID,
		"R2_BUCKET", c.R2.Bucket,
		"R2_ACCESS_KEY", c.R2.AccessKey,
		"R2_SECRET_KEY", c.R2.SecretKey,
	)
}

func (c *Config) ValidateDatabase() error {
	return requireAll("DB_URL", c.Database.URL)
}

// ValidateWorker checks everything the queue worker needs.
func (c *Config) ValidateWorker() error {
	if err := c.ValidateLLM(); err != nil {
		return err
	}
	if err := requireAll("DB_URL", c.Database.URL, "RABBITMQ_URL", c.RabbitMQ.URL); err != nil {
		return err
	}
	if err := c.ValidateR2(); err != nil {
		return err
	}
	if c.Worker.Count < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1, got %d", c.Worker.Count)
	}
	return nil
}

// requireAll takes name/value pairs and reports every empty value.
func requireAll(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("empty %s in environment", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
