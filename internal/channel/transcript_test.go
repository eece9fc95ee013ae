package channel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSubtitleFetcher writes the configured files next to the output template
// the way yt-dlp names caption tracks (<id>.<lang>.vtt).
type fakeSubtitleFetcher struct {
	files   map[string]string
	info    *SubtitleInfo
	err     error
	lastReq SubtitleRequest
	dir     string
}

func (f *fakeSubtitleFetcher) FetchSubtitles(_ context.Context, req SubtitleRequest) (*SubtitleInfo, error) {
	f.lastReq = req
	f.dir = filepath.Dir(req.OutputTemplate)
	for name, content := range f.files {
		if err := os.WriteFile(filepath.Join(f.dir, name), []byte(content), 0o600); err != nil {
			return nil, err
		}
	}
	return f.info, f.err
}

const sampleVTT = "WEBVTT\n\n1\n00:00:01.000 --> 00:00:02.000\nHello world\n\n2\n00:00:02.000 --> 00:00:03.000\nGoodbye"

func TestTranscriptRetriever_Retrieve(t *testing.T) {
	info := &SubtitleInfo{ID: "dQw4w9WgXcQ"}

	tests := []struct {
		name    string
		fetcher *fakeSubtitleFetcher
		want    string
		wantErr bool
	}{
		{
			name:    "single track",
			fetcher: &fakeSubtitleFetcher{info: info, files: map[string]string{"dQw4w9WgXcQ.en.vtt": sampleVTT}},
			want:    "Hello world\nGoodbye",
		},
		{
			name: "all tracks concatenated in lexical order",
			fetcher: &fakeSubtitleFetcher{info: info, files: map[string]string{
				"dQw4w9WgXcQ.zh-Hans.vtt": "WEBVTT\n\n00:00:00.000 --> 00:00:01.000\n你好",
				"dQw4w9WgXcQ.en.vtt":      "WEBVTT\n\n00:00:00.000 --> 00:00:01.000\nhello",
			}},
			want: "hello\n你好",
		},
		{
			name: "non-caption files ignored",
			fetcher: &fakeSubtitleFetcher{info: info, files: map[string]string{
				"dQw4w9WgXcQ.en.vtt":  sampleVTT,
				"dQw4w9WgXcQ.en.srt":  "1\n00:00:01,000 --> 00:00:02,000\nsrt text",
				"dQw4w9WgXcQ.info.js": "{}",
			}},
			want: "Hello world\nGoodbye",
		},
		{
			name:    "no files produced",
			fetcher: &fakeSubtitleFetcher{info: info},
			want:    "",
		},
		{
			name:    "no info returned",
			fetcher: &fakeSubtitleFetcher{files: map[string]string{"x.en.vtt": sampleVTT}},
			want:    "",
		},
		{
			name:    "structure only",
			fetcher: &fakeSubtitleFetcher{info: info, files: map[string]string{"a.vtt": "WEBVTT\n\n1\n"}},
			want:    "",
		},
		{
			name:    "fetch failure is returned",
			fetcher: &fakeSubtitleFetcher{err: errors.New("HTTP Error 429")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			r := NewTranscriptRetriever(tt.fetcher, nil, root)

			got, err := r.Retrieve(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ", []string{"en"})
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "HTTP Error 429")
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			_, statErr := os.Stat(tt.fetcher.dir)
			assert.True(t, os.IsNotExist(statErr), "scratch directory %s was not removed", tt.fetcher.dir)

			left, _ := os.ReadDir(root)
			assert.Empty(t, left)
		})
	}
}

func TestTranscriptRetriever_Request(t *testing.T) {
	f := &fakeSubtitleFetcher{info: &SubtitleInfo{ID: "abc"}}
	r := NewTranscriptRetriever(f, nil, t.TempDir())

	_, err := r.Retrieve(context.Background(), "https://www.youtube.com/watch?v=abc", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://www.youtube.com/watch?v=abc", f.lastReq.URL)
	assert.Equal(t, DefaultLanguages(), f.lastReq.Languages)
	assert.Equal(t, "vtt", f.lastReq.Format)
	assert.Equal(t, "%(id)s", filepath.Base(f.lastReq.OutputTemplate))
}

func TestTranscriptRetriever_PrivateScratchPerCall(t *testing.T) {
	f := &fakeSubtitleFetcher{info: &SubtitleInfo{ID: "abc"}, files: map[string]string{"abc.en.vtt": sampleVTT}}
	r := NewTranscriptRetriever(f, nil, t.TempDir())

	_, err := r.Retrieve(context.Background(), "u1", []string{"en"})
	require.NoError(t, err)
	first := f.dir

	_, err = r.Retrieve(context.Background(), "u2", []string{"en"})
	require.NoError(t, err)

	assert.NotEqual(t, first, f.dir)
}
