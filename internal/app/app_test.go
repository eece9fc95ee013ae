package app

import (
	"context"
	"testing"

	"github.com/ad-tracker/youtube-digest-go/internal/config"
	"github.com/ad-tracker/youtube-digest-go/internal/service/ollama"
	"github.com/ad-tracker/youtube-digest-go/internal/service/openai"
	"github.com/ad-tracker/youtube-digest-go/internal/service/summarizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *config.Config {
	return &config.Config{
		Listing: config.ListingConfig{Backend: config.BackendYTDLP, MaxVideos: 10},
		Summarizer: config.SummarizerConfig{
			Provider: config.ProviderOpenAI,
			BaseURL:  config.GeminiOpenAIBaseURL,
			APIKey:   "key",
			Model:    "gemini-2.0-flash",
		},
		SMTP: config.SMTPConfig{Host: "smtp.example.com", Port: 465, UseTLS: true},
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("wires the pipeline without optional backends", func(t *testing.T) {
		a, err := New(ctx, baseConfig(), Options{})
		require.NoError(t, err)
		defer a.Close()

		assert.NotNil(t, a.Service)
		assert.NotNil(t, a.Metrics)
		assert.Nil(t, a.Repo)
		assert.Nil(t, a.Publisher)
		assert.Nil(t, a.Quota)
	})

	t.Run("api backend", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Listing.Backend = config.BackendAPI
		cfg.Listing.YouTubeAPIKey = "yt-key"
		cfg.Listing.QuotaDailyLimit = 5000
		cfg.Listing.QuotaThresholdPercent = 80

		a, err := New(ctx, cfg, Options{})
		require.NoError(t, err)
		defer a.Close()

		require.NotNil(t, a.Quota)
		assert.Equal(t, 5000, a.Quota.GetQuotaInfo().QuotaLimit)
		assert.Equal(t, 4000, a.Quota.GetQuotaInfo().QuotaRemaining)
	})

	t.Run("missing summarizer key", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Summarizer.APIKey = ""

		_, err := New(ctx, cfg, Options{})
		assert.ErrorIs(t, err, summarizer.ErrMissingAPIKey)
	})

	t.Run("invalid configuration", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Listing.Backend = "rss"

		_, err := New(ctx, cfg, Options{})
		assert.Error(t, err)
	})
}

func TestNewCompleter(t *testing.T) {
	t.Run("openai provider", func(t *testing.T) {
		llm, err := newCompleter(baseConfig().Summarizer, "")
		require.NoError(t, err)
		assert.IsType(t, &openai.Client{}, llm)
	})

	t.Run("ollama needs no key", func(t *testing.T) {
		cfg := baseConfig().Summarizer
		cfg.Provider = config.ProviderOllama
		cfg.APIKey = ""

		llm, err := newCompleter(cfg, "llama3:8b")
		require.NoError(t, err)
		assert.IsType(t, &ollama.Client{}, llm)
	})
}

func TestPushMetrics_NoGateway(t *testing.T) {
	a, err := New(context.Background(), baseConfig(), Options{})
	require.NoError(t, err)
	defer a.Close()

	// No gateway configured: must return without touching the network.
	a.PushMetrics(context.Background())
}
