// Package app assembles a DigestService and its optional history and event
// backends from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/ad-tracker/youtube-digest-go/internal/channel"
	"github.com/ad-tracker/youtube-digest-go/internal/config"
	"github.com/ad-tracker/youtube-digest-go/internal/db"
	"github.com/ad-tracker/youtube-digest-go/internal/metrics"
	"github.com/ad-tracker/youtube-digest-go/internal/repository"
	"github.com/ad-tracker/youtube-digest-go/internal/service"
	"github.com/ad-tracker/youtube-digest-go/internal/service/mailer"
	"github.com/ad-tracker/youtube-digest-go/internal/service/ollama"
	"github.com/ad-tracker/youtube-digest-go/internal/service/openai"
	"github.com/ad-tracker/youtube-digest-go/internal/service/quota"
	"github.com/ad-tracker/youtube-digest-go/internal/service/summarizer"
	"github.com/ad-tracker/youtube-digest-go/internal/service/youtube"
	"github.com/ad-tracker/youtube-digest-go/internal/service/ytdlp"
	"github.com/ad-tracker/youtube-digest-go/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	// youtubeMaxResults caps one Data API listing. search.list stops paging at
	// about 500 results.
	youtubeMaxResults = 500

	defaultOllamaURL = "http://localhost:11434"
)

// Options are per-process overrides on top of the loaded configuration.
type Options struct {
	// Model replaces summarizer.model when set.
	Model    string
	Progress service.ProgressFunc
}

// App holds the wired pipeline. Repo and Publisher are nil when their
// backend is disabled.
type App struct {
	Config    *config.Config
	Metrics   *metrics.Metrics
	Service   *service.DigestService
	Repo      *repository.Repository
	Publisher *service.MessagePublisher
	// Quota is set with the api listing backend.
	Quota *quota.Manager

	pool *pgxpool.Pool
}

// New wires every component described by cfg. Database and RabbitMQ
// failures are fatal only when the backend is enabled.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	llm, err := newCompleter(cfg.Summarizer, opts.Model)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Metrics: metrics.New(),
	}

	ytd := ytdlp.NewClient(ytdlp.Config{
		Executable:      cfg.YtDlp.Executable,
		ListingTimeout:  cfg.Listing.Timeout,
		SubtitleTimeout: cfg.Transcript.Timeout,
	})

	var listing channel.ListingFetcher = ytd
	if cfg.Listing.Backend == config.BackendAPI {
		yt, err := youtube.NewClient(ctx, cfg.Listing.YouTubeAPIKey, youtubeMaxResults)
		if err != nil {
			return nil, fmt.Errorf("failed to create YouTube API client: %w", err)
		}
		a.Quota = quota.NewManager(cfg.Listing.QuotaDailyLimit, cfg.Listing.QuotaThresholdPercent)
		yt.SetQuotaManager(a.Quota)
		listing = yt
	}

	digestOpts := service.DigestOptions{
		Languages:       cfg.Transcript.Languages,
		RequestInterval: cfg.Transcript.RequestInterval,
		Metrics:         a.Metrics,
		Progress:        opts.Progress,
	}

	if cfg.Database.Enabled {
		pool, err := db.NewPool(ctx, db.FromSettings(cfg.Database))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.pool = pool
		a.Repo = repository.New(pool)
		digestOpts.Store = a.Repo
		logger.L().Info("Digest history enabled",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Name),
		)
	}

	if cfg.RabbitMQ.Enabled {
		publisher, err := service.NewMessagePublisher(&cfg.RabbitMQ)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize message publisher: %w", err)
		}
		a.Publisher = publisher
		digestOpts.Publisher = publisher
	}

	a.Service = service.NewDigestService(
		channel.NewEnumerator(listing, a.Metrics, cfg.Listing.ExclusiveBefore),
		channel.NewTranscriptRetriever(ytd, a.Metrics, ""),
		summarizer.New(llm, summarizer.Options{
			Language:        cfg.Summarizer.Language,
			MaxInputChars:   cfg.Summarizer.MaxInputChars,
			MaxOutputTokens: cfg.Summarizer.MaxOutputTokens,
		}),
		mailer.NewSender(mailer.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			UseTLS:   cfg.SMTP.UseTLS,
		}),
		digestOpts,
	)

	return a, nil
}

// PushMetrics sends the collected metrics to the configured Pushgateway.
// It is a no-op when no gateway is configured.
func (a *App) PushMetrics(ctx context.Context) {
	url := a.Config.Metrics.PushGatewayURL
	if url == "" {
		return
	}
	if err := a.Metrics.Push(ctx, url, a.Config.Metrics.Job); err != nil {
		logger.L().Warn("Failed to push metrics", zap.Error(err), zap.String("gateway", url))
	}
}

// Close releases the database pool and the broker connection.
func (a *App) Close() {
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			logger.L().Warn("Failed to close message publisher", zap.Error(err))
		}
	}
	db.Close(a.pool)
}

func newCompleter(cfg config.SummarizerConfig, modelOverride string) (summarizer.Completer, error) {
	model := cfg.Model
	if modelOverride != "" {
		model = modelOverride
	}

	switch cfg.Provider {
	case config.ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" || baseURL == config.GeminiOpenAIBaseURL {
			baseURL = defaultOllamaURL
		}
		return ollama.NewClient(ollama.Config{
			BaseURL: baseURL,
			Model:   model,
			APIKey:  cfg.APIKey,
			Timeout: cfg.Timeout,
		}), nil
	default:
		if cfg.APIKey == "" {
			return nil, summarizer.ErrMissingAPIKey
		}
		return openai.NewClient(openai.Config{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   model,
			Timeout: cfg.Timeout,
		}), nil
	}
}
