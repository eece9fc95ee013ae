package channel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeChannelURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bare handle", input: "@Foo", want: "https://www.youtube.com/@Foo/videos"},
		{name: "handle with leading slash", input: "/@Foo", want: "https://www.youtube.com/@Foo/videos"},
		{name: "many leading slashes", input: "///@Foo", want: "https://www.youtube.com/@Foo/videos"},
		{name: "channel path", input: "channel/UCuAXFkgsw1L7xaCfnd5JJOw", want: "https://www.youtube.com/channel/UCuAXFkgsw1L7xaCfnd5JJOw/videos"},
		{name: "surrounding whitespace", input: "  @Foo \n", want: "https://www.youtube.com/@Foo/videos"},
		{name: "full url", input: "https://www.youtube.com/@Foo", want: "https://www.youtube.com/@Foo/videos"},
		{name: "full url trailing slashes", input: "https://www.youtube.com/@Foo//", want: "https://www.youtube.com/@Foo/videos"},
		{name: "http scheme kept", input: "http://youtube.com/@Foo", want: "http://youtube.com/@Foo/videos"},
		{name: "already videos", input: "https://www.youtube.com/@Foo/videos", want: "https://www.youtube.com/@Foo/videos"},
		{name: "streams tab", input: "https://www.youtube.com/@Foo/streams", want: "https://www.youtube.com/@Foo/streams"},
		{name: "playlist url", input: "https://www.youtube.com/playlist?list=PL123", want: "https://www.youtube.com/playlist?list=PL123"},
		{name: "segment anywhere counts", input: "@Foo/videos/extra/", want: "https://www.youtube.com/@Foo/videos/extra/"},
		{name: "relative videos tab", input: "@Foo/videos", want: "https://www.youtube.com/@Foo/videos"},
		{name: "uppercase scheme is not a scheme", input: "HTTPS://x", want: "https://www.youtube.com/HTTPS://x/videos"},
		{name: "empty input", input: "", want: "https://www.youtube.com/videos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeChannelURL(tt.input))
		})
	}
}

func TestNormalizeChannelURL_Properties(t *testing.T) {
	t.Parallel()

	inputs := []string{"@a", "c/name", "/user/x", "channel/UC1/streams", "x/playlist", " @b/ "}
	for _, in := range inputs {
		got := NormalizeChannelURL(in)
		assert.True(t, strings.HasPrefix(got, youtubeBase), "scheme-less %q produced %q", in, got)
		assert.Equal(t, got, NormalizeChannelURL(got), "normalizing %q twice changed the result", in)
	}

	for _, in := range []string{"https://www.youtube.com/@a/videos", "https://www.youtube.com/@a/streams/", "https://m.youtube.com/playlist?list=1"} {
		assert.Equal(t, in, NormalizeChannelURL(in))
	}
}
