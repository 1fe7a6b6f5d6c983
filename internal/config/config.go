// Package config loads runtime configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime setting. Defaults suit local development;
// production deployments set the environment explicitly.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN"`

	// Comma-separated Gemini API keys, rotated across calls.
	GeminiKeys  string `envconfig:"GEMINI_KEYS"`
	GeminiModel string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`

	MongoURI      string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGODB_DATABASE" default:"speechbot"`

	DailyLimit     int           `envconfig:"DAILY_LIMIT" default:"19"`
	UsageWindow    time.Duration `envconfig:"USAGE_WINDOW" default:"24h"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"120s"`

	MaxMessageChunk int   `envconfig:"MAX_MESSAGE_CHUNK" default:"4095"`
	MaxUploadMB     int64 `envconfig:"MAX_UPLOAD_MB" default:"20"`

	DownloadsDir string `envconfig:"DOWNLOADS_DIR" default:"downloads"`
	WebPort      string `envconfig:"WEB_PORT" default:"8080"`
}

// Load reads configuration from the environment. A missing .env file
// is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	return &cfg, nil
}

// Keys returns the configured API keys split and trimmed.
func (c *Config) Keys() []string {
	var keys []string
	for _, k := range strings.Split(c.GeminiKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// MaxUploadBytes converts the upload cap to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
