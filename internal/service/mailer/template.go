// Package mailer renders digest emails and delivers them over SMTP.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/ad-tracker/youtube-digest-go/internal/models"
)

// DefaultChannelName is used in the subject when no channel name is known.
const DefaultChannelName = "YouTube channel"

var digestTemplate = template.Must(template.New("digest").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"dateOrUnknown": func(d string) string {
		if d == "" {
			return "unknown"
		}
		return d
	},
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; max-width: 720px; margin: 0 auto;">
  <h2>YouTube video summaries - {{.Channel}}</h2>
  <p>{{len .Items}} video(s), AI generated summaries below.</p>
{{- range $i, $s := .Items}}
  <div style="margin-bottom: 1.5em; padding: 1em; border: 1px solid #eee; border-radius: 8px;">
    <h3 style="margin-top: 0;">{{inc $i}}. <a href="{{$s.Video.URL}}">{{$s.Video.Title}}</a></h3>
    <p style="color: #666; font-size: 0.9em;">Published: {{dateOrUnknown $s.Video.UploadDate}} | Link: <a href="{{$s.Video.URL}}">{{$s.Video.URL}}</a></p>
    <div style="white-space: pre-wrap; line-height: 1.6;">{{$s.Summary}}</div>
  </div>
{{- end}}
</body>
</html>
`))

// Subject returns the digest subject line for channel at time now.
func Subject(channel string, now time.Time) string {
	if channel == "" {
		channel = DefaultChannelName
	}
	return fmt.Sprintf("YouTube video summaries - %s - %s", channel, now.Format("2006-01-02 15:04"))
}

// RenderHTML renders the digest body. All values are HTML escaped.
func RenderHTML(channel string, items []models.VideoSummary) (string, error) {
	if channel == "" {
		channel = DefaultChannelName
	}

	var buf bytes.Buffer
	err := digestTemplate.Execute(&buf, struct {
		Channel string
		Items   []models.VideoSummary
	}{Channel: channel, Items: items})
	if err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}
