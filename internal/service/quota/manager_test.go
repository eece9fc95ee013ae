package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(limit, threshold int, now *time.Time) *Manager {
	m := NewManager(limit, threshold)
	m.loc = time.UTC
	m.now = func() time.Time { return *now }
	return m
}

func TestNewManager_Defaults(t *testing.T) {
	m := NewManager(0, 150)

	assert.Equal(t, DefaultDailyLimit, m.dailyLimit)
	assert.Equal(t, 90, m.thresholdPercent)
}

func TestManager_Reserve(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	m := newTestManager(1000, 50, &now)

	require.NoError(t, m.Reserve(1, "channels.list"))
	require.NoError(t, m.Reserve(100, "search.list"))

	info := m.GetQuotaInfo()
	assert.Equal(t, "2025-01-10", info.Date)
	assert.Equal(t, 101, info.QuotaUsed)
	assert.Equal(t, 399, info.QuotaRemaining)

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Reserve(100, "search.list"))
	}

	err := m.Reserve(100, "search.list")
	assert.ErrorIs(t, err, ErrQuotaExhausted)
	assert.Equal(t, 401, m.GetQuotaInfo().QuotaUsed, "rejected reservations are not recorded")

	require.NoError(t, m.Reserve(99, "channels.list"))
	assert.True(t, m.IsQuotaExhausted())
}

func TestManager_DailyReset(t *testing.T) {
	now := time.Date(2025, 1, 10, 23, 0, 0, 0, time.UTC)
	m := newTestManager(100, 100, &now)

	require.NoError(t, m.Reserve(100, "search.list"))
	assert.True(t, m.IsQuotaExhausted())

	now = now.Add(2 * time.Hour)

	info := m.GetQuotaInfo()
	assert.Equal(t, "2025-01-11", info.Date)
	assert.Equal(t, 0, info.QuotaUsed)
	assert.NoError(t, m.Reserve(100, "search.list"))
}
