package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ad-tracker/youtube-digest-go/internal/db"
	"github.com/ad-tracker/youtube-digest-go/internal/models"
	"github.com/ad-tracker/youtube-digest-go/internal/repository"
	"github.com/ad-tracker/youtube-digest-go/internal/service"
	"github.com/ad-tracker/youtube-digest-go/internal/validation"
	"github.com/ad-tracker/youtube-digest-go/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DigestRunner executes a digest run.
type DigestRunner interface {
	Run(ctx context.Context, req *models.DigestRequest) (*models.DigestRun, error)
}

// HistoryReader reads stored digest runs.
type HistoryReader interface {
	GetDigestRun(ctx context.Context, id uuid.UUID) (*models.DigestRun, error)
	ListDigestRuns(ctx context.Context, limit, offset int) ([]models.DigestRun, error)
	ListSummariesByVideo(ctx context.Context, videoID string, limit int) ([]models.VideoSummary, error)
}

// DigestHandler serves the digest API.
type DigestHandler struct {
	runner    DigestRunner
	history   HistoryReader
	validator *validation.Validator
}

// NewDigestHandler creates a new DigestHandler. history may be nil when the
// database is disabled; the read endpoints then answer 503.
func NewDigestHandler(runner DigestRunner, history HistoryReader, validator *validation.Validator) *DigestHandler {
	return &DigestHandler{
		runner:    runner,
		history:   history,
		validator: validator,
	}
}

// CreateDigest runs a digest synchronously and returns the finished run.
func (h *DigestHandler) CreateDigest(c *gin.Context) {
	var dto models.DigestRequestDTO

	if err := c.ShouldBindJSON(&dto); err != nil {
		h.handleError(c, &service.ValidationError{Message: "Invalid request payload: " + err.Error()})
		return
	}

	req, err := h.validator.ValidateDigestRequest(&dto)
	if err != nil {
		h.handleError(c, &service.ValidationError{Message: err.Error()})
		return
	}

	logger.L().Info("Digest requested",
		zap.String("channel", req.ChannelURL),
		zap.String("dateAfter", req.Dates.After),
		zap.String("dateBefore", req.Dates.Before),
		zap.Int("maxVideos", req.MaxVideos),
		zap.Bool("noEmail", req.NoEmail),
	)

	run, err := h.runner.Run(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

// ListDigests returns stored runs, newest first.
func (h *DigestHandler) ListDigests(c *gin.Context) {
	if !h.historyEnabled(c) {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, offset = repository.NormalizePage(limit, offset)

	runs, err := h.history.ListDigestRuns(c.Request.Context(), limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  runs,
		"limit":  limit,
		"offset": offset,
	})
}

// GetDigest returns a stored run with its summaries.
func (h *DigestHandler) GetDigest(c *gin.Context) {
	if !h.historyEnabled(c) {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.handleError(c, &service.ValidationError{Message: "invalid digest id"})
		return
	}

	run, err := h.history.GetDigestRun(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

// ListVideoSummaries returns every stored summary of one video.
func (h *DigestHandler) ListVideoSummaries(c *gin.Context) {
	if !h.historyEnabled(c) {
		return
	}

	videoID := c.Param("videoId")
	if !validation.IsValidVideoID(videoID) {
		h.handleError(c, &service.ValidationError{Message: "invalid video id"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	summaries, err := h.history.ListSummariesByVideo(c.Request.Context(), videoID, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"videoId": videoID,
		"items":   summaries,
	})
}

func (h *DigestHandler) historyEnabled(c *gin.Context) bool {
	if h.history != nil {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
		Status:    http.StatusServiceUnavailable,
		Error:     "Service Unavailable",
		Message:   "digest history is disabled",
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
	return false
}

func (h *DigestHandler) handleError(c *gin.Context, err error) {
	var (
		validationErr *service.ValidationError
		processingErr *service.ProcessingError
	)

	switch {
	case errors.As(err, &validationErr):
		logger.L().Warn("Validation error",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		h.respond(c, http.StatusBadRequest, "Bad Request", err.Error())
	case db.IsNotFound(err):
		h.respond(c, http.StatusNotFound, "Not Found", "digest not found")
	case errors.As(err, &processingErr):
		logger.L().Error("Processing error",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		h.respond(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
	default:
		logger.L().Error("Unexpected error",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		h.respond(c, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred")
	}
}

func (h *DigestHandler) respond(c *gin.Context, status int, title, message string) {
	c.JSON(status, models.ErrorResponse{
		Status:    status,
		Error:     title,
		Message:   message,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}
