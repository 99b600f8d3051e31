package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// Server settings
	ServerPort      string        `env:"SERVER_PORT"      envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT"     envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"    envDefault:"35m"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT"     envDefault:"60s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT"  envDefault:"35m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	Debug           bool          `env:"DEBUG"            envDefault:"false"`
	Version         string        `env:"VERSION"          envDefault:"1.0.0"`

	// Shared secret for /api routes. Empty disables the check.
	APIKey string `env:"API_KEY"`

	Log       LogConfig       `envPrefix:"LOG_"`
	CORS      CORSConfig      `envPrefix:"CORS_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Indexer   IndexerConfig   `envPrefix:"VIDEO_INDEXER_"`
	OpenAI    OpenAIConfig    `envPrefix:"OPENAI_"`
	Archive   ArchiveConfig   `envPrefix:"ARCHIVE_"`
}

type LogConfig struct {
	Level      string `env:"LEVEL"        envDefault:"info"`
	Format     string `env:"FORMAT"       envDefault:"json"`
	Dir        string `env:"DIR"`
	MaxSizeMB  int    `env:"MAX_SIZE_MB"  envDefault:"10"`
	MaxBackups int    `env:"MAX_BACKUPS"  envDefault:"3"`
	MaxAgeDays int    `env:"MAX_AGE_DAYS" envDefault:"28"`
	Compress   bool   `env:"COMPRESS"     envDefault:"true"`
}

type CORSConfig struct {
	Enabled          bool     `env:"ENABLED"           envDefault:"true"`
	AllowedOrigins   []string `env:"ALLOWED_ORIGINS"   envDefault:"*"`
	AllowedMethods   []string `env:"ALLOWED_METHODS"   envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"ALLOWED_HEADERS"   envDefault:"Content-Type,X-API-Key,X-Request-ID"`
	ExposedHeaders   []string `env:"EXPOSED_HEADERS"`
	AllowCredentials bool     `env:"ALLOW_CREDENTIALS" envDefault:"false"`
	MaxAge           int      `env:"MAX_AGE"           envDefault:"86400"`
}

type RateLimitConfig struct {
	Enabled           bool `env:"ENABLED" envDefault:"false"`
	RequestsPerMinute int  `env:"RPM"     envDefault:"60"`
	BurstSize         int  `env:"BURST"   envDefault:"10"`
}

// IndexerConfig holds the Video Indexer account settings.
type IndexerConfig struct {
	APIURL          string        `env:"API_URL"          envDefault:"https://api.videoindexer.ai"`
	SubscriptionKey string        `env:"SUBSCRIPTION_KEY"`
	AccountID       string        `env:"ACCOUNT_ID"`
	Location        string        `env:"LOCATION"`
	Language        string        `env:"LANGUAGE"         envDefault:"id-ID"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT"     envDefault:"30s"`
	PollInterval    time.Duration `env:"POLL_INTERVAL"    envDefault:"60s"`
	PollTimeout     time.Duration `env:"POLL_TIMEOUT"     envDefault:"30m"`
}

// OpenAIConfig points at any OpenAI-compatible chat completion endpoint.
type OpenAIConfig struct {
	BaseURL     string        `env:"BASE_URL"`
	APIKey      string        `env:"API_KEY"`
	Model       string        `env:"MODEL"       envDefault:"gpt-3.5-turbo"`
	Temperature float64       `env:"TEMPERATURE" envDefault:"1.0"`
	Timeout     time.Duration `env:"TIMEOUT"     envDefault:"2m"`
}

// ArchiveConfig enables the S3-compatible transcript archive when Bucket is set.
type ArchiveConfig struct {
	Bucket    string `env:"BUCKET"`
	Region    string `env:"REGION"     envDefault:"us-east-1"`
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Prefix    string `env:"PREFIX"     envDefault:"transcripts/"`
}

func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != ""
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "failed to load .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse builds a config from the given variables only, ignoring the process
// environment.
func Parse(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validateServer(c); err != nil {
		return err
	}

	if err := validateIndexer(&c.Indexer); err != nil {
		return err
	}

	if err := validateOpenAI(&c.OpenAI); err != nil {
		return err
	}

	if c.RequestTimeout < c.Indexer.PollTimeout || c.WriteTimeout < c.Indexer.PollTimeout {
		logrus.WithFields(logrus.Fields{
			"request_timeout": c.RequestTimeout,
			"write_timeout":   c.WriteTimeout,
			"poll_timeout":    c.Indexer.PollTimeout,
		}).Warn("Server timeouts are shorter than the indexing poll timeout")
	}

	return nil
}

func validateServer(c *Config) error {
	if c.ServerPort == "" {
		return errors.New("server port is required")
	}
	if c.ReadTimeout <= 0 {
		return errors.New("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("write timeout must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return errors.New("rate limit must be positive when enabled")
	}
	return nil
}

func validateIndexer(c *IndexerConfig) error {
	switch {
	case c.SubscriptionKey == "":
		return errors.New("video indexer subscription key is required")
	case c.AccountID == "":
		return errors.New("video indexer account id is required")
	case c.Location == "":
		return errors.New("video indexer location is required")
	case c.APIURL == "":
		return errors.New("video indexer api url is required")
	}

	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.PollTimeout < c.PollInterval {
		return errors.Errorf("poll timeout %s must not be shorter than poll interval %s", c.PollTimeout, c.PollInterval)
	}
	return nil
}

func validateOpenAI(c *OpenAIConfig) error {
	if c.APIKey == "" {
		return errors.New("openai api key is required")
	}
	if c.Model == "" {
		return errors.New("openai model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.Errorf("openai temperature %v out of range [0, 2]", c.Temperature)
	}
	return nil
}
