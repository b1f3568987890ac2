package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is populated from STITCHKART_* environment variables; a .env
// file in the working directory is honored for local development.
type Config struct {
	Env   string `default:"development"`
	Port  string `default:"8081"`
	DBDSN string `envconfig:"DB_DSN" default:"stitchkart.db"`

	Vendor    VendorConfig
	Responder ResponderConfig
	Redis     RedisConfig
}

// VendorConfig describes the paid marketplace search API.
type VendorConfig struct {
	BaseURL        string `split_words:"true" default:"https://real-time-product-search.p.rapidapi.com/search"`
	APIKey         string `split_words:"true"`
	APIHost        string `split_words:"true" default:"real-time-product-search.p.rapidapi.com"`
	SourceName     string `split_words:"true" default:"rapidapi"`
	MonthlyLimit   int    `split_words:"true" default:"100"`
	TimeoutSeconds int    `split_words:"true" default:"5"`
}

// ResponderConfig selects and configures the prose generator. An empty
// Gemini key means the deterministic template responder.
type ResponderConfig struct {
	GeminiAPIKey string `split_words:"true"`
	GeminiModel  string `split_words:"true" default:"gemini-2.0-flash"`
}

// RedisConfig is optional; when URL is empty, chat history falls back to
// SQLite.
type RedisConfig struct {
	URL             string
	HistoryTTLHours int `split_words:"true" default:"24"`
}

func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("stitchkart", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
