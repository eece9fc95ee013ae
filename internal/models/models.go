// Package models contains the data models and DTOs shared by the digest pipeline.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Placeholder values used when the listing service leaves a field empty.
const (
	UnknownTitle   = "(no title)"
	UnknownChannel = "(unknown channel)"
)

// ErrInvalidDate is returned when a date is neither YYYYMMDD nor YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date, expected YYYYMMDD or YYYY-MM-DD")

// VideoRecord describes one candidate video found on a channel.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type VideoRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	UploadDate  string `json:"upload_date"`
	Duration    *int   `json:"duration,omitempty"`
	ChannelName string `json:"channel_name"`
}

// DateRange bounds an enumeration by upload date. Both values are YYYYMMDD
// strings; an empty value means unbounded on that side.
type DateRange struct {
	After  string `json:"date_after,omitempty"`
	Before string `json:"date_before,omitempty"`
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.After == "" && r.Before == ""
}

// ParseDate normalizes a user supplied date to YYYYMMDD. The date must exist
// on the calendar. An empty input yields an empty result.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, layout := range []string{"20060102", "2006-01-02"} {
		if len(s) != len(layout) {
			continue
		}
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("20060102"), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// DigestStatus represents the lifecycle state of a digest run.
type DigestStatus string

// DigestStatus constants define the possible states of a digest run.
const (
	DigestStatusRunning   DigestStatus = "RUNNING"
	DigestStatusCompleted DigestStatus = "COMPLETED"
	DigestStatusEmpty     DigestStatus = "EMPTY"
	DigestStatusFailed    DigestStatus = "FAILED"
)

// VideoSummary is the pipeline output for one video.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type VideoSummary struct {
	Video     VideoRecord `json:"video"`
	Summary   string      `json:"summary"`
	Failed    bool        `json:"failed"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// DigestRun records one execution of the pipeline for a channel.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DigestRun struct {
	ID           uuid.UUID      `json:"id"`
	ChannelURL   string         `json:"channel_url"`
	ChannelName  string         `json:"channel_name"`
	DateAfter    string         `json:"date_after,omitempty"`
	DateBefore   string         `json:"date_before,omitempty"`
	MaxVideos    int            `json:"max_videos"`
	Status       DigestStatus   `json:"status"`
	VideoCount   int            `json:"video_count"`
	FailedCount  int            `json:"failed_count"`
	EmailSentTo  *string        `json:"email_sent_to,omitempty"`
	ErrorMessage *string        `json:"error_message,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
	Summaries    []VideoSummary `json:"summaries,omitempty"`
}

// DigestCompletedEvent is published once a run has finished.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DigestCompletedEvent struct {
	ID          uuid.UUID    `json:"id"`
	RunID       uuid.UUID    `json:"run_id"`
	ChannelURL  string       `json:"channel_url"`
	ChannelName string       `json:"channel_name"`
	Status      DigestStatus `json:"status"`
	VideoIDs    []string     `json:"video_ids"`
	FailedCount int          `json:"failed_count"`
	CompletedAt time.Time    `json:"completed_at"`
}

// DigestRequest is a validated request to run the pipeline once.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DigestRequest struct {
	ChannelURL string
	Dates      DateRange
	MaxVideos  int
	ToEmail    string
	NoEmail    bool
}

// DigestRequestDTO is the body of a digest trigger request.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DigestRequestDTO struct {
	ChannelURL string `json:"channel_url" binding:"required,max=512"`
	DateAfter  string `json:"date_after"`
	DateBefore string `json:"date_before"`
	MaxVideos  int    `json:"max_videos" binding:"gte=0,lte=200"`
	ToEmail    string `json:"to_email" binding:"omitempty,email"`
	NoEmail    bool   `json:"no_email"`
}

// ErrorResponse represents an error response.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}
