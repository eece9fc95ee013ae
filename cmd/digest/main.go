// Command digest summarizes the recent uploads of a YouTube channel and
// emails the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/ad-tracker/youtube-digest-go/internal/app"
	"github.com/ad-tracker/youtube-digest-go/internal/config"
	"github.com/ad-tracker/youtube-digest-go/internal/models"
	"github.com/ad-tracker/youtube-digest-go/internal/service/summarizer"
	"github.com/ad-tracker/youtube-digest-go/internal/service/ytdlp"
	"github.com/ad-tracker/youtube-digest-go/internal/validation"
	"github.com/ad-tracker/youtube-digest-go/pkg/logger"
	"go.uber.org/zap"
)

const titlePreviewRunes = 50

// cliOptions is the parsed command line.
type cliOptions struct {
	request *models.DigestRequest
	model   string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	opts, err := parseArgs(args, cfg, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{
		Model:    opts.model,
		Progress: progressPrinter(stdout),
	})
	if err != nil {
		if errors.Is(err, summarizer.ErrMissingAPIKey) {
			fmt.Fprintln(stderr, "error: set GEMINI_API_KEY or DIGEST_SUMMARIZER_APIKEY")
		} else {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
		return 1
	}
	defer a.Close()
	defer a.PushMetrics(context.WithoutCancel(ctx))

	if err := ytdlp.EnsureInstalled(ctx, cfg.YtDlp.Executable); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, "fetching channel video list...")
	digest, err := a.Service.Run(ctx, opts.request)
	if err != nil {
		logger.L().Error("Digest run failed", zap.Error(err))
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	switch {
	case digest.Status == models.DigestStatusEmpty:
		fmt.Fprintln(stdout, "no videos found, check the channel URL and date range")
	case opts.request.NoEmail:
		printSummaries(stdout, digest.Summaries)
	default:
		fmt.Fprintf(stdout, "\nsent to %s\n", opts.request.ToEmail)
	}
	return 0
}

// parseArgs reads flags on top of cfg and validates the resulting request.
func parseArgs(args []string, cfg *config.Config, stderr io.Writer) (*cliOptions, error) {
	fs := flag.NewFlagSet("digest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: digest [flags] <channel-url>")
		fs.PrintDefaults()
	}

	var (
		dto   models.DigestRequestDTO
		model string
	)
	fs.StringVar(&dto.ToEmail, "to-email", cfg.Email.To, "Recipient address (or TO_EMAIL)")
	fs.StringVar(&dto.DateAfter, "date-after", "", "Only videos published on or after this date (YYYYMMDD or YYYY-MM-DD)")
	fs.StringVar(&dto.DateBefore, "date-before", "", "Only videos published on or before this date (YYYYMMDD or YYYY-MM-DD)")
	fs.IntVar(&dto.MaxVideos, "max-videos", cfg.Listing.MaxVideos, "Maximum number of videos to summarize")
	fs.BoolVar(&dto.NoEmail, "no-email", false, "Print summaries instead of sending email")
	fs.StringVar(&model, "model", cfg.Summarizer.Model, "Summarization model")

	// Allow flags after the channel URL as well as before it.
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}

	if len(positional) != 1 {
		fs.Usage()
		return nil, fmt.Errorf("exactly one channel URL is required, got %d", len(positional))
	}
	dto.ChannelURL = positional[0]

	if dto.MaxVideos <= 0 {
		return nil, fmt.Errorf("-max-videos must be positive, got %d", dto.MaxVideos)
	}

	req, err := validation.New(cfg.Listing.MaxVideos, 0, "").ValidateDigestRequest(&dto)
	if err != nil {
		if !dto.NoEmail && strings.TrimSpace(dto.ToEmail) == "" {
			return nil, fmt.Errorf("set -to-email or the TO_EMAIL environment variable")
		}
		return nil, err
	}

	return &cliOptions{request: req, model: model}, nil
}

func progressPrinter(w io.Writer) func(index, total int, s *models.VideoSummary) {
	return func(index, total int, s *models.VideoSummary) {
		if index == 1 {
			fmt.Fprintf(w, "found %d videos, summarizing one by one...\n", total)
		}
		fmt.Fprintf(w, "  [%d/%d] %s...\n", index, total, preview(s.Video.Title))
		if s.Failed {
			fmt.Fprintf(w, "      failed: %s\n", s.Error)
			return
		}
		fmt.Fprintf(w, "      done, about %d characters\n", utf8.RuneCountInString(s.Summary))
	}
}

func printSummaries(w io.Writer, items []models.VideoSummary) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 60))
	for _, item := range items {
		fmt.Fprintf(w, "\n【%s】\n%s\n%s\n\n", item.Video.Title, item.Video.URL, item.Summary)
	}
}

func preview(title string) string {
	if utf8.RuneCountInString(title) <= titlePreviewRunes {
		return title
	}
	return string([]rune(title)[:titlePreviewRunes])
}
