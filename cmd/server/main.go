// Command server exposes digest runs and their history over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ad-tracker/youtube-digest-go/internal/app"
	"github.com/ad-tracker/youtube-digest-go/internal/config"
	"github.com/ad-tracker/youtube-digest-go/internal/handler"
	"github.com/ad-tracker/youtube-digest-go/internal/middleware"
	"github.com/ad-tracker/youtube-digest-go/internal/service/ytdlp"
	"github.com/ad-tracker/youtube-digest-go/internal/validation"
	"github.com/ad-tracker/youtube-digest-go/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxVideosPerRequest bounds max_videos on API requests.
const maxVideosPerRequest = 50

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		logger.L().Fatal("Failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	if err := ytdlp.EnsureInstalled(ctx, cfg.YtDlp.Executable); err != nil {
		logger.L().Fatal("yt-dlp is not available", zap.Error(err))
	}

	auth := middleware.NewAPIKeyAuth(cfg.Server.APIKeys)
	if !auth.Enabled() {
		logger.L().Warn("No API keys configured - digest endpoints will reject all requests",
			zap.String("env_var", "DIGEST_SERVER_APIKEYS"),
		)
	}

	router := newRouter(a, auth, validation.New(cfg.Listing.MaxVideos, maxVideosPerRequest, cfg.Email.To))

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.L().Info("Server starting", zap.Int("port", cfg.Server.Port))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.L().Error("Server error", zap.Error(err))
			os.Exit(1)
		}
	case sig := <-shutdown:
		logger.L().Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.L().Error("Graceful shutdown failed", zap.Error(err))
			if err := server.Close(); err != nil {
				logger.L().Error("Failed to close server", zap.Error(err))
			}
			os.Exit(1)
		}

		logger.L().Info("Server stopped gracefully")
	}
}

func newRouter(a *app.App, auth *middleware.APIKeyAuth, v *validation.Validator) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	// Disabled backends must stay untyped nil interfaces.
	var (
		pinger   handler.Pinger
		reporter handler.HealthReporter
		history  handler.HistoryReader
	)
	if a.Repo != nil {
		pinger = a.Repo
		history = a.Repo
	}
	if a.Publisher != nil {
		reporter = a.Publisher
	}
	health := handler.NewHealthHandler(pinger, reporter)
	if a.Quota != nil {
		health.SetQuotaReporter(a.Quota)
	}
	digests := handler.NewDigestHandler(a.Service, history, v)

	router.GET("/health/live", health.LivenessProbe)
	router.GET("/health/ready", health.ReadinessProbe)
	router.GET("/metrics", gin.WrapH(a.Metrics.Handler()))

	api := router.Group("/api/v1", auth.Middleware())
	api.POST("/digests", digests.CreateDigest)
	api.GET("/digests", digests.ListDigests)
	api.GET("/digests/:id", digests.GetDigest)
	api.GET("/videos/:videoId/summaries", digests.ListVideoSummaries)

	return router
}

// requestLogger logs each request once it has been served.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.L().Info("Request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("remote_addr", c.ClientIP()),
		)
	}
}
