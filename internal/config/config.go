package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI    = "openai"
	ProviderLangChain = "langchain"
	ProviderHunyuan   = "hunyuan"
)

// Config holds all environment backed configuration.
type Config struct {
	// HTTP Server
	HTTPPort int    `env:"HTTP_PORT" envDefault:"8080"`
	GinMode  string `env:"GIN_MODE" envDefault:"release"`

	// Database
	DBDriver    string `env:"DB_DRIVER" envDefault:"mysql"`
	DatabaseDSN string `env:"DATABASE_DSN"`
	MySQLDSN    string `env:"MYSQL_DSN"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	// Completion service
	LLMProvider    string  `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMModel       string  `env:"LLM_MODEL" envDefault:"gpt-4"`
	LLMTemperature float64 `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	OpenAIAPIKey   string  `env:"OPENAI_API_KEY"`
	OpenAIBaseURL  string  `env:"OPENAI_BASE_URL"`

	// Hunyuan
	TencentSecretID  string `env:"TENCENTCLOUD_SECRETID"`
	TencentSecretKey string `env:"TENCENTCLOUD_SECRETKEY"`
	HunyuanEndpoint  string `env:"HUNYUAN_ENDPOINT" envDefault:"hunyuan.ap-guangzhou.tencentcloudapi.com"`
	HunyuanRegion    string `env:"HUNYUAN_REGION"`
	HunyuanScheme    string `env:"HUNYUAN_SCHEME" envDefault:"HTTPS"`

	// Auth
	JWTSecret string `env:"JWT_SECRET,notEmpty"`

	// Coach context
	CoachRecentLimit int `env:"COACH_RECENT_LIMIT" envDefault:"3"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

// Load reads an optional .env file, parses environment variables into Config
// and performs minimal validation.
func Load() (*Config, error) {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DSN() == "" {
		return errors.New("DATABASE_DSN (or MYSQL_DSN) must be provided")
	}

	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderLangChain:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY must be provided")
		}
	case ProviderHunyuan:
		if c.TencentSecretID == "" || c.TencentSecretKey == "" {
			return errors.New("TENCENTCLOUD_SECRETID and TENCENTCLOUD_SECRETKEY must be provided")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.CoachRecentLimit <= 0 {
		c.CoachRecentLimit = 3
	}
	return nil
}

// DSN returns the connection string for the configured driver. MYSQL_DSN is
// honoured for the mysql driver when DATABASE_DSN is unset.
func (c *Config) DSN() string {
	if c.DatabaseDSN != "" {
		return c.DatabaseDSN
	}
	if c.DBDriver == "mysql" {
		return c.MySQLDSN
	}
	return ""
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
