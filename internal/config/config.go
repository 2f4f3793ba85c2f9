package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	TransportREST = "rest"
	TransportSDK  = "sdk"
)

type Config struct {
	// Server
	Port string `yaml:"port"`
	Env  string `yaml:"env"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// HTTP boundary
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	ServiceAPIKey      string   `yaml:"service_api_key"`

	// Gemini AI
	GeminiAPIKey       string        `yaml:"gemini_api_key"`
	GeminiAPIURL       string        `yaml:"gemini_api_url"`
	GeminiAPIVersion   string        `yaml:"gemini_api_version"`
	GeminiModel        string        `yaml:"gemini_model"`
	GeminiTransport    string        `yaml:"gemini_transport"`
	GeminiTimeout      time.Duration `yaml:"gemini_timeout"`
	GeminiMaxRetries   int           `yaml:"gemini_max_retries"`
	GeminiRetryBackoff time.Duration `yaml:"gemini_retry_backoff"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		Port:               "8080",
		Env:                "development",
		LogLevel:           "info",
		LogFormat:          "json",
		CORSAllowedOrigins: []string{"*"},
		GeminiAPIURL:       "https://generativelanguage.googleapis.com",
		GeminiAPIVersion:   "v1beta",
		GeminiModel:        "gemini-1.5-flash",
		GeminiTransport:    TransportREST,
		GeminiTimeout:      30 * time.Second,
		GeminiMaxRetries:   0,
		GeminiRetryBackoff: time.Second,
	}
}

// Load reads the YAML file named by CONFIG_FILE (if any), then .env, then
// the process environment. Later layers win.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file layer.
func LoadFile(path string) (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	cfg := Defaults()
	if path != "" {
		if err := mergeYAML(cfg, path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.CORSAllowedOrigins = getEnvAsListOrDefault("CORS_ALLOWED_ORIGINS", cfg.CORSAllowedOrigins)
	cfg.ServiceAPIKey = getEnvOrDefault("SERVICE_API_KEY", cfg.ServiceAPIKey)
	cfg.GeminiAPIKey = getEnvOrDefault("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiAPIURL = strings.TrimRight(getEnvOrDefault("GEMINI_API_URL", cfg.GeminiAPIURL), "/")
	cfg.GeminiAPIVersion = getEnvOrDefault("GEMINI_API_VERSION", cfg.GeminiAPIVersion)
	cfg.GeminiModel = getEnvOrDefault("GEMINI_MODEL", cfg.GeminiModel)
	cfg.GeminiTransport = strings.ToLower(getEnvOrDefault("GEMINI_TRANSPORT", cfg.GeminiTransport))
	cfg.GeminiTimeout = getEnvAsDurationOrDefault("GEMINI_TIMEOUT", cfg.GeminiTimeout)
	cfg.GeminiMaxRetries = getEnvAsIntOrDefault("GEMINI_MAX_RETRIES", cfg.GeminiMaxRetries)
	cfg.GeminiRetryBackoff = getEnvAsDurationOrDefault("GEMINI_RETRY_BACKOFF", cfg.GeminiRetryBackoff)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		return fmt.Errorf("required setting GEMINI_API_KEY is not set")
	}
	switch c.GeminiTransport {
	case TransportREST, TransportSDK:
	default:
		return fmt.Errorf("unknown GEMINI_TRANSPORT %q (want %q or %q)", c.GeminiTransport, TransportREST, TransportSDK)
	}
	if c.GeminiMaxRetries < 0 {
		return fmt.Errorf("GEMINI_MAX_RETRIES must not be negative")
	}
	if c.GeminiRetryBackoff < 0 {
		return fmt.Errorf("GEMINI_RETRY_BACKOFF must not be negative")
	}
	if c.GeminiTimeout < 0 {
		return fmt.Errorf("GEMINI_TIMEOUT must not be negative")
	}
	return nil
}

// Redacted returns a copy safe to print or log.
func (c *Config) Redacted() Config {
	out := *c
	out.GeminiAPIKey = redact(out.GeminiAPIKey)
	out.ServiceAPIKey = redact(out.ServiceAPIKey)
	return out
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}

func mergeYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
