package channel

import (
	"context"
	"strings"
	"time"

	"github.com/ad-tracker/youtube-digest-go/internal/metrics"
	"github.com/ad-tracker/youtube-digest-go/internal/models"
	"github.com/ad-tracker/youtube-digest-go/pkg/logger"
	"go.uber.org/zap"
)

const (
	videoIDLength   = 11
	channelIDPrefix = "UC"
	watchURLPrefix  = "https://www.youtube.com/watch?v="
)

// Enumerator lists the recent videos of a channel.
type Enumerator struct {
	fetcher         ListingFetcher
	metrics         *metrics.Metrics
	exclusiveBefore bool
}

// NewEnumerator creates an Enumerator. With exclusiveBefore the before bound
// of every query is moved one day earlier.
func NewEnumerator(fetcher ListingFetcher, m *metrics.Metrics, exclusiveBefore bool) *Enumerator {
	return &Enumerator{
		fetcher:         fetcher,
		metrics:         m,
		exclusiveBefore: exclusiveBefore,
	}
}

// Enumerate returns at most maxVideos records, newest first as listed by the
// platform. A listing that cannot be resolved yields an empty result, the same
// as a channel with no uploads in range.
func (e *Enumerator) Enumerate(ctx context.Context, channelRef string, dates models.DateRange, maxVideos int) []models.VideoRecord {
	listingURL := NormalizeChannelURL(channelRef)
	query := e.queryRange(dates)

	listing, err := e.fetcher.FetchListing(ctx, listingURL, query, maxVideos)
	if err == nil && listing == nil {
		err = ErrNoListing
	}
	if err != nil {
		e.metrics.ListingFailed()
		logger.L().Warn("Channel listing not resolved",
			zap.String("url", listingURL),
			zap.String("dateAfter", query.After),
			zap.String("dateBefore", query.Before),
			zap.Error(err),
		)
		return []models.VideoRecord{}
	}

	channelName := listing.Channel
	if channelName == "" {
		channelName = listing.Uploader
	}
	if channelName == "" {
		channelName = models.UnknownChannel
	}

	out := make([]models.VideoRecord, 0, max(0, min(maxVideos, len(listing.Entries))))
	seen := make(map[string]struct{})

	for _, entry := range listing.Entries {
		if len(out) >= maxVideos {
			break
		}
		if entry == nil {
			continue
		}

		id := entryID(entry)
		if reason := e.reject(id, seen); reason != "" {
			e.metrics.EntryRejected(reason)
			logger.L().Debug("Skipping listing entry",
				zap.String("id", id),
				zap.String("reason", reason),
			)
			continue
		}
		seen[id] = struct{}{}

		title := entry.Title
		if title == "" {
			title = models.UnknownTitle
		}

		out = append(out, models.VideoRecord{
			ID:          id,
			Title:       title,
			URL:         watchURLPrefix + id,
			UploadDate:  entry.UploadDate,
			Duration:    seconds(entry.Duration),
			ChannelName: channelName,
		})
		e.metrics.VideoAccepted()
	}

	logger.L().Info("Channel enumerated",
		zap.String("url", listingURL),
		zap.String("channel", channelName),
		zap.Int("entries", len(listing.Entries)),
		zap.Int("accepted", len(out)),
	)

	return out
}

func (e *Enumerator) queryRange(dates models.DateRange) models.DateRange {
	if !e.exclusiveBefore || dates.Before == "" {
		return dates
	}
	t, err := time.Parse("20060102", dates.Before)
	if err != nil {
		return dates
	}
	dates.Before = t.AddDate(0, 0, -1).Format("20060102")
	return dates
}

func (e *Enumerator) reject(id string, seen map[string]struct{}) string {
	if id == "" {
		return metrics.RejectEmptyID
	}
	if _, dup := seen[id]; dup {
		return metrics.RejectDuplicate
	}
	if len(id) != videoIDLength {
		return metrics.RejectLength
	}
	if strings.HasPrefix(id, channelIDPrefix) {
		return metrics.RejectChannelID
	}
	return ""
}

// entryID prefers the explicit id and otherwise takes the v= query value of
// the entry URL.
func entryID(entry *ListingEntry) string {
	if entry.ID != "" {
		return entry.ID
	}
	u := entry.URL
	if i := strings.LastIndex(u, "?v="); i >= 0 {
		u = u[i+len("?v="):]
	}
	if i := strings.Index(u, "&"); i >= 0 {
		u = u[:i]
	}
	return u
}

func seconds(d *float64) *int {
	if d == nil {
		return nil
	}
	s := int(*d)
	return &s
}
