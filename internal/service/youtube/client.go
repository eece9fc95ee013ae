// Package youtube lists channel uploads through the YouTube Data API v3.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/ad-tracker/youtube-digest-go/internal/channel"
	"github.com/ad-tracker/youtube-digest-go/internal/models"
	"github.com/ad-tracker/youtube-digest-go/internal/service/quota"
	"github.com/ad-tracker/youtube-digest-go/pkg/logger"
	"go.uber.org/zap"
)

const (
	searchPageSize = 50
	// search.list costs 100 units per page, channels.list costs 1.
	searchQuotaCost  = 100
	channelQuotaCost = 1
)

// ErrUnsupportedURL is returned for listing URLs that do not name a channel.
var ErrUnsupportedURL = errors.New("listing URL does not identify a channel")

// Client wraps the YouTube Data API v3 client.
type Client struct {
	service    *youtube.Service
	maxResults int
	quota      *quota.Manager
}

// NewClient creates a new YouTube API client. maxResults is a hard ceiling on
// the search results collected for one listing.
func NewClient(ctx context.Context, apiKey string, maxResults int, opts ...option.ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	if maxResults <= 0 {
		maxResults = searchPageSize
	}

	return &Client{
		service:    service,
		maxResults: maxResults,
	}, nil
}

// SetQuotaManager makes every API call reserve its cost first. Calls fail
// with quota.ErrQuotaExhausted once the daily threshold is reached.
func (c *Client) SetQuotaManager(m *quota.Manager) {
	c.quota = m
}

func (c *Client) reserve(method string, cost int) error {
	if c.quota == nil {
		return nil
	}
	return c.quota.Reserve(cost, method)
}

// channelRef is the channel part of a listing URL.
type channelRef struct {
	handle   string
	id       string
	username string
}

// parseChannelRef understands /@handle, /channel/UC..., /user/name and /c/name.
func parseChannelRef(listingURL string) (channelRef, error) {
	u, err := url.Parse(listingURL)
	if err != nil {
		return channelRef{}, fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return channelRef{}, ErrUnsupportedURL
	}

	switch {
	case strings.HasPrefix(parts[0], "@"):
		return channelRef{handle: parts[0]}, nil
	case parts[0] == "channel" && len(parts) > 1:
		return channelRef{id: parts[1]}, nil
	case (parts[0] == "user" || parts[0] == "c") && len(parts) > 1:
		return channelRef{username: parts[1]}, nil
	}
	return channelRef{}, fmt.Errorf("%w: %s", ErrUnsupportedURL, listingURL)
}

// resolveChannel returns the channel id and title.
func (c *Client) resolveChannel(ctx context.Context, ref channelRef) (string, string, error) {
	call := c.service.Channels.List([]string{"id", "snippet"}).Context(ctx)
	switch {
	case ref.handle != "":
		call = call.ForHandle(ref.handle)
	case ref.id != "":
		call = call.Id(ref.id)
	default:
		call = call.ForUsername(ref.username)
	}

	if err := c.reserve("channels.list", channelQuotaCost); err != nil {
		return "", "", err
	}
	resp, err := call.Do()
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve channel: %w", err)
	}
	c.logAPICall("channels.list", channelQuotaCost, len(resp.Items))

	if len(resp.Items) == 0 {
		return "", "", nil
	}
	item := resp.Items[0]
	title := ""
	if item.Snippet != nil {
		title = item.Snippet.Title
	}
	return item.Id, title, nil
}

// FetchListing searches the channel's uploads newest first, filtered by
// publish date on the API side. An unknown channel yields a nil Listing.
//
// Each search.list page costs searchQuotaCost, so paging stops as soon as the
// listing holds limit distinct videos. Pages are always requested at full size
// since a short page costs the same.
func (c *Client) FetchListing(ctx context.Context, listingURL string, dates models.DateRange, limit int) (*channel.Listing, error) {
	ref, err := parseChannelRef(listingURL)
	if err != nil {
		return nil, err
	}

	channelID, title, err := c.resolveChannel(ctx, ref)
	if err != nil {
		return nil, err
	}
	if channelID == "" {
		return nil, nil
	}

	after, before, err := publishedWindow(dates)
	if err != nil {
		return nil, err
	}

	want := c.maxResults
	if limit > 0 {
		want = min(limit, c.maxResults)
	}

	listing := &channel.Listing{Channel: title}
	seen := make(map[string]struct{})
	pageToken := ""
	for len(seen) < want && len(listing.Entries) < c.maxResults {
		call := c.service.Search.List([]string{"snippet"}).
			ChannelId(channelID).
			Type("video").
			Order("date").
			MaxResults(searchPageSize).
			Context(ctx)
		if after != "" {
			call = call.PublishedAfter(after)
		}
		if before != "" {
			call = call.PublishedBefore(before)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		if err := c.reserve("search.list", searchQuotaCost); err != nil {
			return nil, err
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to search channel uploads: %w", err)
		}
		c.logAPICall("search.list", searchQuotaCost, len(resp.Items))

		for _, item := range resp.Items {
			entry := searchResultEntry(item)
			listing.Entries = append(listing.Entries, entry)
			if entry != nil {
				seen[entry.ID] = struct{}{}
			}
		}

		if resp.NextPageToken == "" || len(resp.Items) == 0 {
			break
		}
		pageToken = resp.NextPageToken
	}

	return listing, nil
}

func searchResultEntry(item *youtube.SearchResult) *channel.ListingEntry {
	if item == nil || item.Id == nil || item.Id.VideoId == "" {
		return nil
	}
	entry := &channel.ListingEntry{
		ID:  item.Id.VideoId,
		URL: "https://www.youtube.com/watch?v=" + item.Id.VideoId,
	}
	if item.Snippet != nil {
		entry.Title = html.UnescapeString(item.Snippet.Title)
		if t, err := parseYouTubeTime(item.Snippet.PublishedAt); err == nil {
			entry.UploadDate = t.Format("20060102")
		}
	}
	return entry
}

// publishedWindow converts inclusive YYYYMMDD bounds to the RFC 3339 instants
// search.list expects: the start of After and the start of the day after Before.
func publishedWindow(dates models.DateRange) (string, string, error) {
	var after, before string
	if dates.After != "" {
		t, err := time.Parse("20060102", dates.After)
		if err != nil {
			return "", "", fmt.Errorf("invalid date_after %q: %w", dates.After, err)
		}
		after = t.UTC().Format(time.RFC3339)
	}
	if dates.Before != "" {
		t, err := time.Parse("20060102", dates.Before)
		if err != nil {
			return "", "", fmt.Errorf("invalid date_before %q: %w", dates.Before, err)
		}
		before = t.AddDate(0, 0, 1).UTC().Format(time.RFC3339)
	}
	return after, before, nil
}

func parseYouTubeTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func (c *Client) logAPICall(method string, quotaCost int, items int) {
	logger.L().Debug("YouTube API call",
		zap.String("method", method),
		zap.Int("items", items),
		zap.Int("quotaCost", quotaCost),
	)
}
