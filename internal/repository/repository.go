// Package repository persists digest run history in PostgreSQL.
package repository

import (
	"context"
	"fmt"

	"github.com/ad-tracker/youtube-digest-go/internal/db"
	"github.com/ad-tracker/youtube-digest-go/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Repository handles all database operations for digest history.
type Repository struct {
	db *pgxpool.Pool
}

// New creates a new Repository instance with the provided database connection pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// DigestRun methods

// CreateDigestRun inserts a run in its initial state.
func (r *Repository) CreateDigestRun(ctx context.Context, run *models.DigestRun) error {
	query := `
		INSERT INTO digest_runs
		(id, channel_url, channel_name, date_after, date_before, max_videos, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		run.ID, run.ChannelURL, run.ChannelName, run.DateAfter, run.DateBefore,
		run.MaxVideos, run.Status, run.StartedAt,
	)
	return db.WrapError(err, "create digest run")
}

// FinishDigestRun stores the final status and counters of run.
func (r *Repository) FinishDigestRun(ctx context.Context, run *models.DigestRun) error {
	query := `
		UPDATE digest_runs
		SET channel_name = $2, status = $3, video_count = $4, failed_count = $5,
		    email_sent_to = $6, error_message = $7, finished_at = $8
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		run.ID, run.ChannelName, run.Status, run.VideoCount, run.FailedCount,
		run.EmailSentTo, run.ErrorMessage, run.FinishedAt,
	)
	if err != nil {
		return db.WrapError(err, "finish digest run")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finish digest run: %w", db.ErrNotFound)
	}
	return nil
}

// GetDigestRun retrieves a run together with its summaries in processing order.
func (r *Repository) GetDigestRun(ctx context.Context, id uuid.UUID) (*models.DigestRun, error) {
	query := `
		SELECT id, channel_url, channel_name, date_after, date_before, max_videos, status,
		       video_count, failed_count, email_sent_to, error_message, started_at, finished_at
		FROM digest_runs
		WHERE id = $1
	`
	run, err := scanRun(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, db.WrapError(err, "get digest run")
	}

	rows, err := r.db.Query(ctx, summaryColumns+` WHERE run_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, db.WrapError(err, "get digest run summaries")
	}
	defer rows.Close()

	run.Summaries, err = scanSummaries(rows)
	if err != nil {
		return nil, db.WrapError(err, "get digest run summaries")
	}
	return run, nil
}

// ListDigestRuns returns runs newest first, without their summaries.
func (r *Repository) ListDigestRuns(ctx context.Context, limit, offset int) ([]models.DigestRun, error) {
	limit, offset = NormalizePage(limit, offset)
	query := `
		SELECT id, channel_url, channel_name, date_after, date_before, max_videos, status,
		       video_count, failed_count, email_sent_to, error_message, started_at, finished_at
		FROM digest_runs
		ORDER BY started_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, db.WrapError(err, "list digest runs")
	}
	defer rows.Close()

	runs := []models.DigestRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, db.WrapError(err, "scan digest run")
		}
		runs = append(runs, *run)
	}
	return runs, db.WrapError(rows.Err(), "list digest runs")
}

// VideoSummary methods

const summaryColumns = `
		SELECT video_id, title, video_url, upload_date, duration_seconds, channel_name,
		       summary, failed, error_message, created_at
		FROM video_summaries`

// AddVideoSummary appends one processed video to a run.
func (r *Repository) AddVideoSummary(ctx context.Context, runID uuid.UUID, s *models.VideoSummary) error {
	query := `
		INSERT INTO video_summaries
		(run_id, video_id, title, video_url, upload_date, duration_seconds, channel_name,
		 summary, failed, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		runID, s.Video.ID, s.Video.Title, s.Video.URL, nullIfEmpty(s.Video.UploadDate),
		s.Video.Duration, s.Video.ChannelName, s.Summary, s.Failed, nullIfEmpty(s.Error),
		s.CreatedAt,
	)
	return db.WrapError(err, "add video summary")
}

// ListSummariesByVideo returns every summary stored for a video, newest first.
func (r *Repository) ListSummariesByVideo(ctx context.Context, videoID string, limit int) ([]models.VideoSummary, error) {
	limit, _ = NormalizePage(limit, 0)
	rows, err := r.db.Query(ctx, summaryColumns+` WHERE video_id = $1 ORDER BY created_at DESC LIMIT $2`, videoID, limit)
	if err != nil {
		return nil, db.WrapError(err, "list summaries by video")
	}
	defer rows.Close()

	out, err := scanSummaries(rows)
	return out, db.WrapError(err, "list summaries by video")
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func scanRun(row pgx.Row) (*models.DigestRun, error) {
	var run models.DigestRun
	err := row.Scan(
		&run.ID, &run.ChannelURL, &run.ChannelName, &run.DateAfter, &run.DateBefore,
		&run.MaxVideos, &run.Status, &run.VideoCount, &run.FailedCount,
		&run.EmailSentTo, &run.ErrorMessage, &run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func scanSummaries(rows pgx.Rows) ([]models.VideoSummary, error) {
	out := []models.VideoSummary{}
	for rows.Next() {
		var (
			s          models.VideoSummary
			uploadDate *string
			errMsg     *string
		)
		if err := rows.Scan(
			&s.Video.ID, &s.Video.Title, &s.Video.URL, &uploadDate, &s.Video.Duration,
			&s.Video.ChannelName, &s.Summary, &s.Failed, &errMsg, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		if uploadDate != nil {
			s.Video.UploadDate = *uploadDate
		}
		if errMsg != nil {
			s.Error = *errMsg
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// NormalizePage clamps pagination parameters to the bounds the list queries use.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
