// Package service provides the business logic of a digest run.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ad-tracker/youtube-digest-go/internal/metrics"
	"github.com/ad-tracker/youtube-digest-go/internal/models"
	"github.com/ad-tracker/youtube-digest-go/internal/service/mailer"
	"github.com/ad-tracker/youtube-digest-go/internal/service/summarizer"
	"github.com/ad-tracker/youtube-digest-go/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// VideoEnumerator lists the candidate videos of a channel.
type VideoEnumerator interface {
	Enumerate(ctx context.Context, channelRef string, dates models.DateRange, maxVideos int) []models.VideoRecord
}

// TranscriptSource returns the caption text of one video.
type TranscriptSource interface {
	Retrieve(ctx context.Context, videoURL string, languages []string) (string, error)
}

// VideoSummarizer summarizes a transcript.
type VideoSummarizer interface {
	Summarize(ctx context.Context, transcript, title string) (string, error)
}

// Mailer delivers the rendered digest.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// DigestStore persists run history.
type DigestStore interface {
	CreateDigestRun(ctx context.Context, run *models.DigestRun) error
	AddVideoSummary(ctx context.Context, runID uuid.UUID, summary *models.VideoSummary) error
	FinishDigestRun(ctx context.Context, run *models.DigestRun) error
}

// EventPublisher announces finished runs.
type EventPublisher interface {
	PublishDigestCompleted(ctx context.Context, event *models.DigestCompletedEvent) error
}

// ProgressFunc is called after each video has been processed.
type ProgressFunc func(index, total int, summary *models.VideoSummary)

// DigestOptions configures a DigestService. Store, Publisher, Metrics and
// Progress are optional.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DigestOptions struct {
	Languages       []string
	RequestInterval time.Duration
	Store           DigestStore
	Publisher       EventPublisher
	Metrics         *metrics.Metrics
	Progress        ProgressFunc
}

// DigestService runs the enumerate, summarize, deliver pipeline.
type DigestService struct {
	enumerator  VideoEnumerator
	transcripts TranscriptSource
	summarizer  VideoSummarizer
	mailer      Mailer
	opts        DigestOptions
	limiter     *rate.Limiter
	now         func() time.Time
}

// NewDigestService creates a new DigestService instance.
func NewDigestService(enumerator VideoEnumerator, transcripts TranscriptSource, sum VideoSummarizer, m Mailer, opts DigestOptions) *DigestService {
	limit := rate.Inf
	if opts.RequestInterval > 0 {
		limit = rate.Every(opts.RequestInterval)
	}

	return &DigestService{
		enumerator:  enumerator,
		transcripts: transcripts,
		summarizer:  sum,
		mailer:      m,
		opts:        opts,
		limiter:     rate.NewLimiter(limit, 1),
		now:         time.Now,
	}
}

// Run executes one digest. Videos are processed strictly one after another;
// a failing video gets a placeholder summary and the run continues. A run
// with no videos ends with status EMPTY and sends nothing.
func (s *DigestService) Run(ctx context.Context, req *models.DigestRequest) (*models.DigestRun, error) {
	started := s.now()
	run := &models.DigestRun{
		ID:         uuid.New(),
		ChannelURL: req.ChannelURL,
		DateAfter:  req.Dates.After,
		DateBefore: req.Dates.Before,
		MaxVideos:  req.MaxVideos,
		Status:     models.DigestStatusRunning,
		StartedAt:  started,
	}

	if s.opts.Store != nil {
		if err := s.opts.Store.CreateDigestRun(ctx, run); err != nil {
			logger.L().Error("Failed to persist digest run",
				zap.Error(err),
				zap.String("runId", run.ID.String()),
			)
		}
	}

	logger.L().Info("Digest run started",
		zap.String("runId", run.ID.String()),
		zap.String("channel", req.ChannelURL),
		zap.String("dateAfter", req.Dates.After),
		zap.String("dateBefore", req.Dates.Before),
		zap.Int("maxVideos", req.MaxVideos),
	)

	videos := s.enumerator.Enumerate(ctx, req.ChannelURL, req.Dates, req.MaxVideos)
	if len(videos) == 0 {
		run.ChannelName = mailer.DefaultChannelName
		return run, s.finish(ctx, run, models.DigestStatusEmpty, nil)
	}
	run.ChannelName = videos[0].ChannelName

	for i, v := range videos {
		if i > 0 {
			if err := s.limiter.Wait(ctx); err != nil {
				return run, s.finish(ctx, run, models.DigestStatusFailed, &ProcessingError{Message: "digest run interrupted", Cause: err})
			}
		} else {
			s.limiter.Allow()
		}

		item := s.processVideo(ctx, v)
		run.Summaries = append(run.Summaries, *item)
		run.VideoCount++
		if item.Failed {
			run.FailedCount++
		}

		if s.opts.Store != nil {
			if err := s.opts.Store.AddVideoSummary(ctx, run.ID, item); err != nil {
				logger.L().Error("Failed to persist video summary",
					zap.Error(err),
					zap.String("runId", run.ID.String()),
					zap.String("videoId", v.ID),
				)
			}
		}
		if s.opts.Progress != nil {
			s.opts.Progress(i+1, len(videos), item)
		}
	}

	if !req.NoEmail {
		if err := s.deliver(ctx, run, req.ToEmail); err != nil {
			return run, s.finish(ctx, run, models.DigestStatusFailed, err)
		}
	}

	return run, s.finish(ctx, run, models.DigestStatusCompleted, nil)
}

// SummarizeVideo fetches the transcript of v and summarizes it.
func (s *DigestService) SummarizeVideo(ctx context.Context, v models.VideoRecord) (string, error) {
	transcript, err := s.transcripts.Retrieve(ctx, v.URL, s.opts.Languages)
	if err != nil {
		return "", err
	}

	out, err := s.summarizer.Summarize(ctx, transcript, v.Title)
	if err != nil {
		return "", err
	}
	return out, nil
}

func (s *DigestService) processVideo(ctx context.Context, v models.VideoRecord) *models.VideoSummary {
	item := &models.VideoSummary{Video: v}

	summary, err := s.SummarizeVideo(ctx, v)
	switch {
	case err != nil:
		logger.L().Warn("Video summary failed",
			zap.Error(err),
			zap.String("videoId", v.ID),
			zap.String("title", v.Title),
		)
		item.Summary = fmt.Sprintf("(summary failed: %v)", err)
		item.Failed = true
		item.Error = err.Error()
		s.opts.Metrics.Summary(metrics.OutcomeFailed)
	case summary == summarizer.NoTranscriptPlaceholder || summary == summarizer.EmptyOutputPlaceholder:
		item.Summary = summary
		s.opts.Metrics.Summary(metrics.OutcomePlaceholder)
	default:
		item.Summary = summary
		s.opts.Metrics.Summary(metrics.OutcomeOK)
	}
	item.CreatedAt = s.now()

	return item
}

func (s *DigestService) deliver(ctx context.Context, run *models.DigestRun, to string) error {
	body, err := mailer.RenderHTML(run.ChannelName, run.Summaries)
	if err != nil {
		return &ProcessingError{Message: "failed to render digest", Cause: err}
	}

	if err := s.mailer.Send(ctx, to, mailer.Subject(run.ChannelName, s.now()), body); err != nil {
		return &ProcessingError{Message: "failed to send digest email", Cause: err}
	}

	run.EmailSentTo = &to
	return nil
}

// finish records the final state, publishes the completion event and returns
// cause unchanged.
func (s *DigestService) finish(ctx context.Context, run *models.DigestRun, status models.DigestStatus, cause error) error {
	finished := s.now()
	run.Status = status
	run.FinishedAt = &finished
	if cause != nil {
		msg := cause.Error()
		run.ErrorMessage = &msg
	}

	// Bookkeeping must not be skipped when the run was cancelled.
	bg := context.WithoutCancel(ctx)

	if s.opts.Store != nil {
		if err := s.opts.Store.FinishDigestRun(bg, run); err != nil {
			logger.L().Error("Failed to update digest run",
				zap.Error(err),
				zap.String("runId", run.ID.String()),
			)
		}
	}

	if s.opts.Publisher != nil {
		if err := s.opts.Publisher.PublishDigestCompleted(bg, completedEvent(run)); err != nil {
			logger.L().Error("Failed to publish digest event",
				zap.Error(err),
				zap.String("runId", run.ID.String()),
			)
		}
	}

	s.opts.Metrics.RunFinished(string(status), finished.Sub(run.StartedAt))

	logger.L().Info("Digest run finished",
		zap.String("runId", run.ID.String()),
		zap.String("channel", run.ChannelName),
		zap.String("status", string(status)),
		zap.Int("videos", run.VideoCount),
		zap.Int("failed", run.FailedCount),
		zap.Duration("elapsed", finished.Sub(run.StartedAt)),
	)

	return cause
}

func completedEvent(run *models.DigestRun) *models.DigestCompletedEvent {
	ids := make([]string, 0, len(run.Summaries))
	for _, s := range run.Summaries {
		ids = append(ids, s.Video.ID)
	}
	completed := time.Now()
	if run.FinishedAt != nil {
		completed = *run.FinishedAt
	}

	return &models.DigestCompletedEvent{
		ID:          uuid.New(),
		RunID:       run.ID,
		ChannelURL:  run.ChannelURL,
		ChannelName: run.ChannelName,
		Status:      run.Status,
		VideoIDs:    ids,
		FailedCount: run.FailedCount,
		CompletedAt: completed,
	}
}
