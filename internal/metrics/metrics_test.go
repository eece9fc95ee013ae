package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.VideoAccepted()
	m.VideoAccepted()
	m.EntryRejected(RejectDuplicate)
	m.EntryRejected(RejectChannelID)
	m.EntryRejected(RejectChannelID)
	m.ListingFailed()
	m.Transcript(OutcomeEmpty)
	m.Summary(OutcomePlaceholder)
	m.RunFinished("COMPLETED", 3*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.videosEnumerated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.entriesRejected.WithLabelValues(RejectDuplicate)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.entriesRejected.WithLabelValues(RejectChannelID)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.listingFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transcripts.WithLabelValues(OutcomeEmpty)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.summaries.WithLabelValues(OutcomePlaceholder)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("COMPLETED")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.VideoAccepted()
		m.EntryRejected(RejectLength)
		m.ListingFailed()
		m.Transcript(OutcomeOK)
		m.Summary(OutcomeOK)
		m.RunFinished("FAILED", time.Second)
	})
	assert.NoError(t, m.Push(context.Background(), "http://unused", "job"))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.VideoAccepted()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "youtube_digest_videos_enumerated_total 1")
}

func TestMetrics_Push(t *testing.T) {
	var gotPath, gotMethod string
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer gw.Close()

	m := New()
	m.VideoAccepted()

	require.NoError(t, m.Push(context.Background(), gw.URL, "digest"))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/metrics/job/digest", gotPath)
}

func TestMetrics_PushWithoutGateway(t *testing.T) {
	assert.NoError(t, New().Push(context.Background(), "", "digest"))
}
