package channel

import (
	"context"
	"errors"

	"github.com/ad-tracker/youtube-digest-go/internal/models"
)

// ErrNoListing is reported when a fetcher returns neither a listing nor an error.
var ErrNoListing = errors.New("listing service returned no data")

// Listing is the flat, metadata-only view of a channel tab.
type Listing struct {
	Channel  string
	Uploader string
	Entries  []*ListingEntry
}

// ListingEntry is one raw row of a Listing. Rows may describe playlists or the
// channel itself; the Enumerator filters those out.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ListingEntry struct {
	ID         string
	URL        string
	Title      string
	UploadDate string
	Duration   *float64
}

// ListingFetcher performs a single flat listing query. Date filtering is done
// by the service. A nil Listing with a nil error means nothing was resolved.
//
// limit is the number of distinct video entries the caller will use. Paged
// backends stop once they hold that many; zero or less means no limit.
type ListingFetcher interface {
	FetchListing(ctx context.Context, listingURL string, dates models.DateRange, limit int) (*Listing, error)
}

// SubtitleRequest asks for caption tracks only, no media.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type SubtitleRequest struct {
	URL       string
	Languages []string
	Format    string
	// OutputTemplate is a yt-dlp output template; files land next to it.
	OutputTemplate string
}

// SubtitleInfo is what the subtitle service reports about the video.
type SubtitleInfo struct {
	ID    string
	Title string
}

// SubtitleFetcher writes zero or more caption files as described by req. A nil
// info with a nil error means the service returned nothing for the video.
type SubtitleFetcher interface {
	FetchSubtitles(ctx context.Context, req SubtitleRequest) (*SubtitleInfo, error)
}
