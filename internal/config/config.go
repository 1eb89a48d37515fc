package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                 string   `mapstructure:"PORT"`
	Env                  string   `mapstructure:"ENV"`
	CORSOrigins          []string `mapstructure:"CORS_ORIGINS"`
	GeminiAPIKey         string   `mapstructure:"GEMINI_API_KEY"`
	GeminiModel          string   `mapstructure:"GEMINI_MODEL"`
	GeminiBaseURL        string   `mapstructure:"GEMINI_BASE_URL"`
	GeminiTimeoutSeconds int      `mapstructure:"GEMINI_TIMEOUT_SECONDS"`
	Neo4jURI             string   `mapstructure:"NEO4J_URI"`
	Neo4jUsername        string   `mapstructure:"NEO4J_USERNAME"`
	Neo4jPassword        string   `mapstructure:"NEO4J_PASSWORD"`
	LedgerWriteDelayMS   int      `mapstructure:"LEDGER_WRITE_DELAY_MS"`
	RateLimitRPS         float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst       int      `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit            string   `mapstructure:"BODY_LIMIT"`
	AnalysisBodyLimit    string   `mapstructure:"ANALYSIS_BODY_LIMIT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	v.SetDefault("GEMINI_TIMEOUT_SECONDS", 120)
	v.SetDefault("LEDGER_WRITE_DELAY_MS", 150)
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("ANALYSIS_BODY_LIMIT", "10M")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("GEMINI_API_KEY")
	v.BindEnv("GEMINI_MODEL")
	v.BindEnv("GEMINI_BASE_URL")
	v.BindEnv("GEMINI_TIMEOUT_SECONDS")
	v.BindEnv("NEO4J_URI")
	v.BindEnv("NEO4J_USERNAME")
	v.BindEnv("NEO4J_PASSWORD")
	v.BindEnv("LEDGER_WRITE_DELAY_MS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("BODY_LIMIT")
	v.BindEnv("ANALYSIS_BODY_LIMIT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.Neo4jURI == "" {
		log.Println("WARNING: NEO4J_URI not set; graph persistence runs in degraded in-memory mode.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. The generative
// model key is required in every mode because analysis submission cannot
// work without it. Graph settings are deliberately not validated: a missing
// or unreachable graph database selects the degraded in-memory store.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.GeminiTimeoutSeconds <= 0 {
		return fmt.Errorf("GEMINI_TIMEOUT_SECONDS must be positive, got %d", c.GeminiTimeoutSeconds)
	}
	if c.LedgerWriteDelayMS < 0 {
		return fmt.Errorf("LEDGER_WRITE_DELAY_MS must not be negative, got %d", c.LedgerWriteDelayMS)
	}
	if c.Neo4jURI != "" && c.Neo4jUsername == "" {
		return fmt.Errorf("NEO4J_USERNAME is required when NEO4J_URI is set")
	}
	return nil
}
