package validation

import (
	"strings"
	"testing"

	"github.com/ad-tracker/youtube-digest-go/internal/models"
)

func TestValidator_ValidateDigestRequest(t *testing.T) {
	v := New(10, 50, "default@example.com")

	tests := []struct {
		name    string
		dto     models.DigestRequestDTO
		want    *models.DigestRequest
		wantErr string
	}{
		{
			name: "defaults applied",
			dto:  models.DigestRequestDTO{ChannelURL: " @Foo "},
			want: &models.DigestRequest{ChannelURL: "@Foo", MaxVideos: 10, ToEmail: "default@example.com"},
		},
		{
			name: "dates normalized",
			dto:  models.DigestRequestDTO{ChannelURL: "@Foo", DateAfter: "2025-01-10", DateBefore: "20250131", MaxVideos: 5, ToEmail: "me@example.com"},
			want: &models.DigestRequest{
				ChannelURL: "@Foo",
				Dates:      models.DateRange{After: "20250110", Before: "20250131"},
				MaxVideos:  5,
				ToEmail:    "me@example.com",
			},
		},
		{
			name: "same day range",
			dto:  models.DigestRequestDTO{ChannelURL: "@Foo", DateAfter: "20250110", DateBefore: "2025-01-10", NoEmail: true},
			want: &models.DigestRequest{
				ChannelURL: "@Foo",
				Dates:      models.DateRange{After: "20250110", Before: "20250110"},
				MaxVideos:  10,
				ToEmail:    "default@example.com",
				NoEmail:    true,
			},
		},
		{name: "missing channel", dto: models.DigestRequestDTO{ChannelURL: "  "}, wantErr: "channel_url is required"},
		{name: "bad after", dto: models.DigestRequestDTO{ChannelURL: "@Foo", DateAfter: "01/10/2025"}, wantErr: "date_after"},
		{name: "bad before", dto: models.DigestRequestDTO{ChannelURL: "@Foo", DateBefore: "2025-02-30"}, wantErr: "date_before"},
		{name: "inverted range", dto: models.DigestRequestDTO{ChannelURL: "@Foo", DateAfter: "20250201", DateBefore: "20250101"}, wantErr: "later than"},
		{name: "negative max", dto: models.DigestRequestDTO{ChannelURL: "@Foo", MaxVideos: -3}, wantErr: "must be positive"},
		{name: "above limit", dto: models.DigestRequestDTO{ChannelURL: "@Foo", MaxVideos: 51}, wantErr: "exceeds the limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.ValidateDigestRequest(&tt.dto)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ValidateDigestRequest() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateDigestRequest() unexpected error: %v", err)
			}
			if *got != *tt.want {
				t.Errorf("ValidateDigestRequest() = %+v, want %+v", *got, *tt.want)
			}
		})
	}
}

func TestValidator_RecipientRequired(t *testing.T) {
	v := New(10, 0, "")

	if _, err := v.ValidateDigestRequest(&models.DigestRequestDTO{ChannelURL: "@Foo"}); err == nil {
		t.Error("expected error without recipient")
	}

	got, err := v.ValidateDigestRequest(&models.DigestRequestDTO{ChannelURL: "@Foo", NoEmail: true, MaxVideos: 500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.MaxVideos != 500 {
		t.Errorf("MaxVideos = %d, want 500 with no limit", got.MaxVideos)
	}
}

func TestIsValidVideoID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"dQw4w9WgXcQ", true},
		{"a-b_c123456", true},
		{"short", false},
		{"dQw4w9WgXcQQ", false},
		{"dQw4w9WgXc!", false},
	}

	for _, tt := range tests {
		if got := IsValidVideoID(tt.id); got != tt.want {
			t.Errorf("IsValidVideoID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
