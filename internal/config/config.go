// Package config provides configuration management for the digest tool.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Listing backends.
const (
	BackendYTDLP = "ytdlp"
	BackendAPI   = "api"
)

// Summarizer providers.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// GeminiOpenAIBaseURL is the OpenAI-compatible endpoint of the Gemini API.
const GeminiOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// Config holds all configuration for the application.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	Listing    ListingConfig
	YtDlp      YtDlpConfig
	Transcript TranscriptConfig
	Summarizer SummarizerConfig
	SMTP       SMTPConfig
	Email      EmailConfig
	Database   DatabaseConfig
	RabbitMQ   RabbitMQConfig
	Metrics    MetricsConfig
	Server     ServerConfig
	Logging    LoggingConfig
}

// ListingConfig controls how channel uploads are enumerated.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ListingConfig struct {
	Backend string
	// MaxVideos caps the number of records a single enumeration returns.
	MaxVideos int
	// ExclusiveBefore moves the before bound one day earlier so it excludes
	// the given day instead of including it.
	ExclusiveBefore bool
	YouTubeAPIKey   string
	Timeout         time.Duration
	// QuotaDailyLimit and QuotaThresholdPercent bound Data API usage for the
	// api backend.
	QuotaDailyLimit       int
	QuotaThresholdPercent int
}

// YtDlpConfig locates the yt-dlp binary.
type YtDlpConfig struct {
	// Executable is an explicit yt-dlp path. Empty resolves PATH or installs a
	// build into the user cache.
	Executable string
}

// TranscriptConfig controls subtitle retrieval.
type TranscriptConfig struct {
	Languages []string
	// RequestInterval spaces consecutive subtitle requests within one run.
	RequestInterval time.Duration
	Timeout         time.Duration
}

// SummarizerConfig configures the LLM used to summarize transcripts.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type SummarizerConfig struct {
	Provider        string
	BaseURL         string
	APIKey          string
	Model           string
	MaxOutputTokens int
	MaxInputChars   int
	Language        string
	Timeout         time.Duration
}

// SMTPConfig contains outgoing mail server settings.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	UseTLS   bool
}

// EmailConfig contains digest delivery settings.
type EmailConfig struct {
	To string
}

// DatabaseConfig contains database connection configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Enabled        bool
	Host           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// RabbitMQConfig contains RabbitMQ connection and queue configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RabbitMQConfig struct {
	Enabled    bool
	Host       string
	User       string
	Password   string
	Exchange   string
	Queue      string
	RoutingKey string
	Port       int
}

// MetricsConfig configures Prometheus export.
type MetricsConfig struct {
	PushGatewayURL string
	Job            string
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	APIKeys         []string
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.SetEnvPrefix("DIGEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindLegacyEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// bindLegacyEnv accepts the unprefixed variable names the tool has always
// documented (GEMINI_API_KEY, SMTP_HOST, ...). Prefixed names win.
func bindLegacyEnv() {
	legacy := map[string]string{
		"summarizer.apikey":     "GEMINI_API_KEY",
		"summarizer.model":      "GEMINI_MODEL",
		"smtp.host":             "SMTP_HOST",
		"smtp.port":             "SMTP_PORT",
		"smtp.user":             "SMTP_USER",
		"smtp.password":         "SMTP_PASSWORD",
		"email.to":              "TO_EMAIL",
		"listing.youtubeapikey": "YOUTUBE_API_KEY",
	}
	for key, env := range legacy {
		prefixed := "DIGEST_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = viper.BindEnv(key, prefixed, env)
	}
}

func setDefaults() {
	// Listing
	viper.SetDefault("listing.backend", BackendYTDLP)
	viper.SetDefault("listing.maxvideos", 10)
	viper.SetDefault("listing.exclusivebefore", false)
	viper.SetDefault("listing.youtubeapikey", "")
	viper.SetDefault("listing.timeout", 2*time.Minute)
	viper.SetDefault("listing.quotadailylimit", 10000)
	viper.SetDefault("listing.quotathresholdpercent", 90)

	// yt-dlp
	viper.SetDefault("ytdlp.executable", "")

	// Transcript
	viper.SetDefault("transcript.languages", []string{"zh-Hans", "zh-Hant", "en", "en-US", "en-GB"})
	viper.SetDefault("transcript.requestinterval", 2*time.Second)
	viper.SetDefault("transcript.timeout", 3*time.Minute)

	// Summarizer
	viper.SetDefault("summarizer.provider", ProviderOpenAI)
	viper.SetDefault("summarizer.baseurl", GeminiOpenAIBaseURL)
	viper.SetDefault("summarizer.apikey", "")
	viper.SetDefault("summarizer.model", "gemini-2.0-flash")
	viper.SetDefault("summarizer.maxoutputtokens", 8192)
	viper.SetDefault("summarizer.maxinputchars", 500000)
	viper.SetDefault("summarizer.language", "Chinese")
	viper.SetDefault("summarizer.timeout", 5*time.Minute)

	// SMTP
	viper.SetDefault("smtp.host", "")
	viper.SetDefault("smtp.port", 465)
	viper.SetDefault("smtp.user", "")
	viper.SetDefault("smtp.password", "")
	viper.SetDefault("smtp.usetls", true)

	// Email
	viper.SetDefault("email.to", "")

	// Database
	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "youtube_digest")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 2)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// RabbitMQ
	viper.SetDefault("rabbitmq.enabled", false)
	viper.SetDefault("rabbitmq.host", "localhost")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.user", "guest")
	viper.SetDefault("rabbitmq.password", "guest")
	viper.SetDefault("rabbitmq.exchange", "youtube.digests")
	viper.SetDefault("rabbitmq.queue", "youtube.digests.completed")
	viper.SetDefault("rabbitmq.routingkey", "digest.completed")

	// Metrics
	viper.SetDefault("metrics.pushgatewayurl", "")
	viper.SetDefault("metrics.job", "youtube_digest")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)
	viper.SetDefault("server.apikeys", []string{})

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}

// Validate checks values that have a closed set of options.
func (c *Config) Validate() error {
	switch c.Listing.Backend {
	case BackendYTDLP:
	case BackendAPI:
		if c.Listing.YouTubeAPIKey == "" {
			return fmt.Errorf("listing backend %q requires listing.youtubeapikey", BackendAPI)
		}
	default:
		return fmt.Errorf("unknown listing backend %q", c.Listing.Backend)
	}

	switch c.Summarizer.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("unknown summarizer provider %q", c.Summarizer.Provider)
	}

	if c.Listing.MaxVideos < 0 {
		return fmt.Errorf("listing.maxvideos must not be negative, got %d", c.Listing.MaxVideos)
	}

	return nil
}
