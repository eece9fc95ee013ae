// Package ytdlp implements channel listing and caption download on top of the
// yt-dlp command line tool.
package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ad-tracker/youtube-digest-go/internal/channel"
	"github.com/ad-tracker/youtube-digest-go/internal/models"
	"github.com/ad-tracker/youtube-digest-go/pkg/logger"
	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"
)

// Config holds the settings for the yt-dlp client.
type Config struct {
	// Executable overrides the yt-dlp binary; empty uses PATH or the cached install.
	Executable string
	// ListingTimeout and SubtitleTimeout bound one invocation each; zero means no limit.
	ListingTimeout  time.Duration
	SubtitleTimeout time.Duration
}

// Client satisfies channel.ListingFetcher and channel.SubtitleFetcher.
type Client struct {
	config Config
}

// NewClient creates a new yt-dlp client.
func NewClient(cfg Config) *Client {
	return &Client{config: cfg}
}

// EnsureInstalled downloads a yt-dlp build into the user cache when none is
// available. An explicit executable is used as is.
func EnsureInstalled(ctx context.Context, executable string) error {
	if executable != "" {
		return nil
	}
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("install yt-dlp: %w", err)
	}
	return nil
}

func (c *Client) command() *ytdlp.Command {
	cmd := ytdlp.New().Quiet().NoWarnings()
	if c.config.Executable != "" {
		cmd = cmd.SetExecutable(c.config.Executable)
	}
	return cmd
}

// listingCommand asks for one flat JSON document of the tab. Unset bounds are
// left to yt-dlp.
func (c *Client) listingCommand(dates models.DateRange) *ytdlp.Command {
	cmd := c.command().FlatPlaylist().DumpSingleJSON()
	if dates.After != "" {
		cmd = cmd.DateAfter(dates.After)
	}
	if dates.Before != "" {
		cmd = cmd.DateBefore(dates.Before)
	}
	return cmd
}

// subtitleCommand downloads caption tracks only and prints the info dict.
func (c *Client) subtitleCommand(req channel.SubtitleRequest) *ytdlp.Command {
	return c.command().
		SkipDownload().
		WriteSubs().
		WriteAutoSubs().
		SubLangs(strings.Join(req.Languages, ",")).
		SubFormat(req.Format).
		Output(req.OutputTemplate).
		DumpJSON().
		NoSimulate()
}

// FetchListing runs a flat, metadata-only extraction of listingURL. yt-dlp
// has no cheap way to stop early under a date filter, so limit is not used.
func (c *Client) FetchListing(ctx context.Context, listingURL string, dates models.DateRange, _ int) (*channel.Listing, error) {
	ctx, cancel := withTimeout(ctx, c.config.ListingTimeout)
	defer cancel()

	res, err := c.listingCommand(dates).Run(ctx, listingURL)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp listing %s: %w%s", listingURL, err, stderrHint(res))
	}

	info, err := singleInfo(res)
	if err != nil {
		return nil, fmt.Errorf("decode yt-dlp listing: %w", err)
	}
	return listingFromInfo(info), nil
}

// FetchSubtitles downloads caption tracks only and reports the video's info.
func (c *Client) FetchSubtitles(ctx context.Context, req channel.SubtitleRequest) (*channel.SubtitleInfo, error) {
	ctx, cancel := withTimeout(ctx, c.config.SubtitleTimeout)
	defer cancel()

	res, err := c.subtitleCommand(req).Run(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp subtitles %s: %w%s", req.URL, err, stderrHint(res))
	}

	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("decode yt-dlp info: %w", err)
	}
	if len(infos) == 0 {
		logger.L().Debug("yt-dlp returned no info", zap.String("url", req.URL))
		return nil, nil
	}
	return subtitleInfoFrom(infos[0]), nil
}

// singleInfo returns the document printed by --dump-single-json. go-ytdlp only
// tags --dump-json lines in OutputLogs, so stdout goes through its parser here.
func singleInfo(res *ytdlp.Result) (*ytdlp.ExtractedInfo, error) {
	out := strings.TrimSpace(res.Stdout)
	if out == "" || out == "null" {
		return nil, nil
	}
	raw := json.RawMessage(out)
	return ytdlp.ParseExtractedInfo(&raw)
}

func listingFromInfo(info *ytdlp.ExtractedInfo) *channel.Listing {
	if info == nil {
		return nil
	}
	listing := &channel.Listing{
		Channel:  deref(info.Channel),
		Uploader: deref(info.Uploader),
		Entries:  make([]*channel.ListingEntry, 0, len(info.Entries)),
	}
	for _, e := range info.Entries {
		if e == nil {
			listing.Entries = append(listing.Entries, nil)
			continue
		}
		listing.Entries = append(listing.Entries, &channel.ListingEntry{
			ID:         e.ID,
			URL:        deref(e.URL),
			Title:      deref(e.Title),
			UploadDate: deref(e.UploadDate),
			Duration:   e.Duration,
		})
	}
	return listing
}

func subtitleInfoFrom(info *ytdlp.ExtractedInfo) *channel.SubtitleInfo {
	return &channel.SubtitleInfo{
		ID:    info.ID,
		Title: deref(info.Title),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func stderrHint(res *ytdlp.Result) string {
	if res == nil {
		return ""
	}
	msg := strings.TrimSpace(res.Stderr)
	if msg == "" {
		return ""
	}
	if i := strings.LastIndex(msg, "\n"); i >= 0 {
		msg = msg[i+1:]
	}
	return " (" + msg + ")"
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
