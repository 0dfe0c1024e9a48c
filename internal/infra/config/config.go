package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultEndpoint       = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	DefaultRetryInterval  = 600 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultCycleTimeout   = 2 * time.Minute
	DefaultLogFile        = "main.log"
)

// AppConfig holds all configuration for the application.
// It is built once in main and handed to constructors; nothing reads it globally.
type AppConfig struct {
	PracticumToken      string
	TelegramToken       string
	TelegramChatID      int64
	Endpoint            string
	RetryInterval       time.Duration
	RequestTimeout      time.Duration
	CycleTimeout        time.Duration
	LogLevel            string
	Environment         string
	LogFile             string
	DedupFailureNotices bool
}

// fileConfig is the optional YAML file. Secrets are never read from it.
type fileConfig struct {
	Endpoint            string `yaml:"endpoint"`
	RetryIntervalSecs   int    `yaml:"retry_interval_secs"`
	RequestTimeoutSecs  int    `yaml:"request_timeout_secs"`
	CycleTimeoutSecs    int    `yaml:"cycle_timeout_secs"`
	LogLevel            string `yaml:"log_level"`
	Environment         string `yaml:"environment"`
	LogFile             string `yaml:"log_file"`
	DedupFailureNotices bool   `yaml:"dedup_failure_notices"`
}

// Load reads configuration from a .env file (if present), an optional YAML file
// named by HOMEWORK_BOT_CONFIG and environment variables, in that order of precedence
// from lowest to highest.
// Missing tokens are not an error here; see CheckTokens.
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	if path := os.Getenv("HOMEWORK_BOT_CONFIG"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnvironment(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// CheckTokens reports whether every credential the bot needs is set.
func (c *AppConfig) CheckTokens() bool {
	return c.PracticumToken != "" && c.TelegramToken != "" && c.TelegramChatID != 0
}

// MissingTokens lists the environment variables CheckTokens found empty.
func (c *AppConfig) MissingTokens() []string {
	var missing []string
	if c.PracticumToken == "" {
		missing = append(missing, "PRACTICUM_TOKEN")
	}
	if c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_TOKEN")
	}
	if c.TelegramChatID == 0 {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	return missing
}

func loadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	cfg.Endpoint = fc.Endpoint
	cfg.RetryInterval = time.Duration(fc.RetryIntervalSecs) * time.Second
	cfg.RequestTimeout = time.Duration(fc.RequestTimeoutSecs) * time.Second
	cfg.CycleTimeout = time.Duration(fc.CycleTimeoutSecs) * time.Second
	cfg.LogLevel = fc.LogLevel
	cfg.Environment = fc.Environment
	cfg.LogFile = fc.LogFile
	cfg.DedupFailureNotices = fc.DedupFailureNotices
	return nil
}

func applyEnvironment(cfg *AppConfig) error {
	cfg.PracticumToken = os.Getenv("PRACTICUM_TOKEN")
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")

	if chatIDStr := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); chatIDStr != "" {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = chatID
	}

	if v := os.Getenv("PRACTICUM_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	var err error
	if cfg.RetryInterval, err = envSeconds("RETRY_INTERVAL_SECS", cfg.RetryInterval); err != nil {
		return err
	}
	if cfg.RequestTimeout, err = envSeconds("REQUEST_TIMEOUT_SECS", cfg.RequestTimeout); err != nil {
		return err
	}
	if cfg.CycleTimeout, err = envSeconds("CYCLE_TIMEOUT_SECS", cfg.CycleTimeout); err != nil {
		return err
	}

	if v := os.Getenv("DEDUP_FAILURE_NOTICES"); v != "" {
		dedup, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEDUP_FAILURE_NOTICES: %w", err)
		}
		cfg.DedupFailureNotices = dedup
	}
	return nil
}

func envSeconds(key string, current time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return current, nil
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(secs) * time.Second, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.CycleTimeout == 0 {
		cfg.CycleTimeout = DefaultCycleTimeout
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(cfg.Environment)
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	if cfg.LogFile == "" {
		cfg.LogFile = DefaultLogFile
	}
}

func validate(cfg *AppConfig) error {
	if cfg.RetryInterval < time.Second {
		return fmt.Errorf("retry interval must be at least 1s, got %s", cfg.RetryInterval)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", cfg.RequestTimeout)
	}
	if cfg.CycleTimeout < cfg.RequestTimeout {
		return fmt.Errorf("cycle timeout %s is shorter than request timeout %s", cfg.CycleTimeout, cfg.RequestTimeout)
	}
	return nil
}
