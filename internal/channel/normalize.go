// Package channel turns a loosely specified YouTube channel reference into a
// list of recent videos and fetches the caption text of each one.
package channel

import (
	"strings"
)

const youtubeBase = "https://www.youtube.com/"

// listingSegments mark URLs that already point at a video listing tab.
var listingSegments = []string{"/videos", "/streams", "/playlist"}

// NormalizeChannelURL maps a handle, path or channel URL to the URL of its
// video listing. It never fails; a malformed reference is passed through and
// surfaces later as an empty listing.
func NormalizeChannelURL(raw string) string {
	u := strings.TrimSpace(raw)

	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = youtubeBase + strings.TrimLeft(u, "/")
	}

	for _, seg := range listingSegments {
		if strings.Contains(u, seg) {
			return u
		}
	}
	return strings.TrimRight(u, "/") + "/videos"
}
