// Package validation checks digest requests coming from the CLI and the API.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ad-tracker/youtube-digest-go/internal/models"
)

// videoIDRegex matches the shape of a YouTube video id.
var videoIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// Validator normalizes digest requests and fills in configured defaults.
type Validator struct {
	defaultMaxVideos int
	maxVideosLimit   int
	defaultRecipient string
}

// New creates a Validator. maxVideosLimit of zero disables the upper bound.
func New(defaultMaxVideos, maxVideosLimit int, defaultRecipient string) *Validator {
	return &Validator{
		defaultMaxVideos: defaultMaxVideos,
		maxVideosLimit:   maxVideosLimit,
		defaultRecipient: defaultRecipient,
	}
}

// ValidateDigestRequest turns a request DTO into a DigestRequest.
func (v *Validator) ValidateDigestRequest(dto *models.DigestRequestDTO) (*models.DigestRequest, error) {
	channelURL := strings.TrimSpace(dto.ChannelURL)
	if channelURL == "" {
		return nil, fmt.Errorf("channel_url is required")
	}

	after, err := models.ParseDate(dto.DateAfter)
	if err != nil {
		return nil, fmt.Errorf("date_after: %w", err)
	}
	before, err := models.ParseDate(dto.DateBefore)
	if err != nil {
		return nil, fmt.Errorf("date_before: %w", err)
	}
	if after != "" && before != "" && after > before {
		return nil, fmt.Errorf("date_after %s is later than date_before %s", after, before)
	}

	maxVideos := dto.MaxVideos
	if maxVideos == 0 {
		maxVideos = v.defaultMaxVideos
	}
	if maxVideos <= 0 {
		return nil, fmt.Errorf("max_videos must be positive, got %d", maxVideos)
	}
	if v.maxVideosLimit > 0 && maxVideos > v.maxVideosLimit {
		return nil, fmt.Errorf("max_videos %d exceeds the limit of %d", maxVideos, v.maxVideosLimit)
	}

	to := strings.TrimSpace(dto.ToEmail)
	if to == "" {
		to = v.defaultRecipient
	}
	if !dto.NoEmail && to == "" {
		return nil, fmt.Errorf("a recipient is required unless no_email is set")
	}

	return &models.DigestRequest{
		ChannelURL: channelURL,
		Dates:      models.DateRange{After: after, Before: before},
		MaxVideos:  maxVideos,
		ToEmail:    to,
		NoEmail:    dto.NoEmail,
	}, nil
}

// IsValidVideoID reports whether id has the shape of a YouTube video id.
func IsValidVideoID(id string) bool {
	return videoIDRegex.MatchString(id)
}
