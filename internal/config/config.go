// Package config loads runtime settings from the environment, with optional
// .env file support for local development.
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the service.
type Config struct {
	Port        string
	AllowOrigin string

	PerplexityAPIKey string
	PerplexityAPIURL string
	PerplexityModel  string
	UpstreamTimeout  time.Duration

	PromptsPath string
	DBPath      string

	RateLimitRPS   float64
	RateLimitBurst int
	HistoryLimit   int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	SheetsSpreadsheetID string
	SheetsClientEmail   string
	SheetsPrivateKey    string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOW_ORIGIN", "*")
	v.SetDefault("PERPLEXITY_API_URL", "https://api.perplexity.ai/chat/completions")
	v.SetDefault("PERPLEXITY_MODEL", "sonar-pro")
	v.SetDefault("UPSTREAM_TIMEOUT", "90s")
	v.SetDefault("PROMPTS_PATH", "docs/prompts.md")
	v.SetDefault("DB_PATH", "data/history.db")
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("HISTORY_LIMIT", 100)
	v.SetDefault("HTTP_READ_TIMEOUT", "30s")
	v.SetDefault("HTTP_WRITE_TIMEOUT", "120s")
	v.SetDefault("HTTP_IDLE_TIMEOUT", "120s")

	return &Config{
		Port:        v.GetString("PORT"),
		AllowOrigin: v.GetString("ALLOW_ORIGIN"),

		PerplexityAPIKey: v.GetString("PERPLEXITY_API_KEY"),
		PerplexityAPIURL: v.GetString("PERPLEXITY_API_URL"),
		PerplexityModel:  v.GetString("PERPLEXITY_MODEL"),
		UpstreamTimeout:  v.GetDuration("UPSTREAM_TIMEOUT"),

		PromptsPath: v.GetString("PROMPTS_PATH"),
		DBPath:      v.GetString("DB_PATH"),

		RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
		HistoryLimit:   v.GetInt("HISTORY_LIMIT"),

		ReadTimeout:  v.GetDuration("HTTP_READ_TIMEOUT"),
		WriteTimeout: v.GetDuration("HTTP_WRITE_TIMEOUT"),
		IdleTimeout:  v.GetDuration("HTTP_IDLE_TIMEOUT"),

		SheetsSpreadsheetID: v.GetString("GOOGLE_SHEETS_SPREADSHEET_ID"),
		SheetsClientEmail:   v.GetString("GOOGLE_SHEETS_CLIENT_EMAIL"),
		SheetsPrivateKey:    v.GetString("GOOGLE_SHEETS_PRIVATE_KEY"),
	}
}
