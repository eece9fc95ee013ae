package channel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ad-tracker/youtube-digest-go/internal/metrics"
	"github.com/ad-tracker/youtube-digest-go/internal/parser"
	"github.com/ad-tracker/youtube-digest-go/pkg/logger"
	"go.uber.org/zap"
)

const subtitleFormat = "vtt"

// DefaultLanguages returns the caption language preference used when the
// caller passes none: simplified and traditional Chinese, then English.
func DefaultLanguages() []string {
	return []string{"zh-Hans", "zh-Hant", "en", "en-US", "en-GB"}
}

// TranscriptRetriever downloads the caption tracks of a single video and
// flattens them into plain text.
type TranscriptRetriever struct {
	fetcher SubtitleFetcher
	metrics *metrics.Metrics
	// tempRoot is where scratch directories are created; empty means os.TempDir.
	tempRoot string
}

// NewTranscriptRetriever creates a TranscriptRetriever.
func NewTranscriptRetriever(fetcher SubtitleFetcher, m *metrics.Metrics, tempRoot string) *TranscriptRetriever {
	return &TranscriptRetriever{
		fetcher:  fetcher,
		metrics:  m,
		tempRoot: tempRoot,
	}
}

// Retrieve returns the caption text of videoURL. A video without captions
// yields "" and a nil error; an error means the download itself failed.
func (r *TranscriptRetriever) Retrieve(ctx context.Context, videoURL string, languages []string) (string, error) {
	if len(languages) == 0 {
		languages = DefaultLanguages()
	}

	dir, err := os.MkdirTemp(r.tempRoot, "subs-*")
	if err != nil {
		return "", fmt.Errorf("create scratch directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logger.L().Warn("Failed to remove subtitle scratch directory",
				zap.String("dir", dir),
				zap.Error(rmErr),
			)
		}
	}()

	info, err := r.fetcher.FetchSubtitles(ctx, SubtitleRequest{
		URL:            videoURL,
		Languages:      languages,
		Format:         subtitleFormat,
		OutputTemplate: filepath.Join(dir, "%(id)s"),
	})
	if err != nil {
		r.metrics.Transcript(metrics.OutcomeFailed)
		return "", fmt.Errorf("fetch subtitles for %s: %w", videoURL, err)
	}
	if info == nil {
		r.metrics.Transcript(metrics.OutcomeEmpty)
		return "", nil
	}

	text, files, err := readTranscript(dir)
	if err != nil {
		r.metrics.Transcript(metrics.OutcomeFailed)
		return "", err
	}

	outcome := metrics.OutcomeOK
	if text == "" {
		outcome = metrics.OutcomeEmpty
	}
	r.metrics.Transcript(outcome)

	logger.L().Debug("Transcript retrieved",
		zap.String("url", videoURL),
		zap.String("videoId", info.ID),
		zap.Int("files", files),
		zap.Int("chars", len(text)),
	)

	return text, nil
}

// readTranscript parses every caption file in dir in lexical order.
func readTranscript(dir string) (string, int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*."+subtitleFormat))
	if err != nil {
		return "", 0, fmt.Errorf("scan subtitle files: %w", err)
	}
	if len(paths) == 0 {
		return "", 0, nil
	}

	var lines []string
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return "", 0, fmt.Errorf("read subtitle file %s: %w", filepath.Base(p), err)
		}
		lines = append(lines, parser.ParseVTT(raw)...)
	}

	return parser.JoinTranscript(lines), len(paths), nil
}
