// Package summarizer turns a video transcript into a short written digest
// using a large language model.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ad-tracker/youtube-digest-go/pkg/logger"
	"go.uber.org/zap"
)

// Placeholder summaries. They are returned as normal results, not errors.
const (
	NoTranscriptPlaceholder = "(no subtitles available, cannot summarize)"
	EmptyOutputPlaceholder  = "(model returned no usable content, it may have been filtered)"
)

// ErrMissingAPIKey is returned when a hosted provider is configured without a key.
var ErrMissingAPIKey = errors.New("summarizer API key is not configured")

// Completer sends a single prompt to a model and returns its text output.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Options tunes prompt construction.
type Options struct {
	// Language the summary is written in, e.g. "Chinese" or "English".
	Language string
	// MaxInputChars truncates the transcript, counted in characters.
	MaxInputChars   int
	MaxOutputTokens int
}

// Summarizer builds the summary prompt and post-processes model output.
type Summarizer struct {
	llm  Completer
	opts Options
}

// New creates a Summarizer.
func New(llm Completer, opts Options) *Summarizer {
	if opts.Language == "" {
		opts.Language = "Chinese"
	}
	return &Summarizer{llm: llm, opts: opts}
}

// Summarize returns a 300-800 word summary of transcript. An empty transcript
// returns NoTranscriptPlaceholder without contacting the model.
func (s *Summarizer) Summarize(ctx context.Context, transcript, title string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return NoTranscriptPlaceholder, nil
	}

	prompt := BuildPrompt(truncateRunes(transcript, s.opts.MaxInputChars), title, s.opts.Language)

	out, err := s.llm.Complete(ctx, prompt, s.opts.MaxOutputTokens)
	if err != nil {
		return "", fmt.Errorf("summarize %q: %w", title, err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		logger.L().Warn("Model returned empty summary", zap.String("title", title))
		return EmptyOutputPlaceholder, nil
	}
	return out, nil
}

// BuildPrompt renders the summary instruction for one video.
func BuildPrompt(transcript, title, language string) string {
	return fmt.Sprintf(`You are a video content summarization assistant. Based on the subtitles or transcript of the video below, write a concise, well-organized summary in %[3]s.

Video title: %[1]s

Requirements:
1. Cover the main content and viewpoints of the video;
2. Use bullet points or short paragraphs so it is easy to read;
3. Keep it between 300 and 800 words;
4. If the transcript is in another language, still write the summary in %[3]s.

Subtitles / transcript:
---
%[2]s
---
Output the summary directly, without repeating the title or adding extra remarks.`, title, transcript, language)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
