// Package quota tracks YouTube Data API quota spent by this process.
package quota

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ad-tracker/youtube-digest-go/pkg/logger"
	"go.uber.org/zap"
)

const (
	// DefaultDailyLimit is the YouTube API v3 default project quota.
	DefaultDailyLimit       = 10000
	defaultThresholdPercent = 90
)

// ErrQuotaExhausted is returned when an operation would cross the threshold.
var ErrQuotaExhausted = errors.New("YouTube API quota threshold reached")

// Info is a snapshot of today's usage.
type Info struct {
	Date           string `json:"date"`
	QuotaUsed      int    `json:"quota_used"`
	QuotaLimit     int    `json:"quota_limit"`
	QuotaRemaining int    `json:"quota_remaining"`
}

// Manager handles YouTube API quota management. Usage resets when the
// calendar day changes in Pacific time, matching the API's reset.
type Manager struct {
	mu               sync.Mutex
	dailyLimit       int
	thresholdPercent int // Stop processing when this % of quota is used
	day              string
	used             int
	now              func() time.Time
	loc              *time.Location
}

// NewManager creates a new quota manager.
func NewManager(dailyLimit int, thresholdPercent int) *Manager {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}
	if thresholdPercent <= 0 || thresholdPercent > 100 {
		thresholdPercent = defaultThresholdPercent
	}

	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		loc = time.UTC
	}

	return &Manager{
		dailyLimit:       dailyLimit,
		thresholdPercent: thresholdPercent,
		now:              time.Now,
		loc:              loc,
	}
}

// Reserve checks that requiredQuota fits under the threshold and records it.
func (m *Manager) Reserve(requiredQuota int, operationType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rollover()
	threshold := m.threshold()

	if m.used+requiredQuota > threshold {
		logger.L().Warn("YouTube API quota threshold reached",
			zap.String("operation", operationType),
			zap.Int("required", requiredQuota),
			zap.Int("used", m.used),
			zap.Int("threshold", threshold),
		)
		return fmt.Errorf("%w: %s needs %d, %d of %d used", ErrQuotaExhausted, operationType, requiredQuota, m.used, threshold)
	}

	m.used += requiredQuota
	logger.L().Debug("YouTube API quota used",
		zap.String("operation", operationType),
		zap.Int("cost", requiredQuota),
		zap.Int("used", m.used),
		zap.Int("limit", m.dailyLimit),
	)
	return nil
}

// GetQuotaInfo returns current quota information.
func (m *Manager) GetQuotaInfo() Info {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rollover()
	return Info{
		Date:           m.day,
		QuotaUsed:      m.used,
		QuotaLimit:     m.dailyLimit,
		QuotaRemaining: max(0, m.threshold()-m.used),
	}
}

// IsQuotaExhausted reports whether the threshold has been reached.
func (m *Manager) IsQuotaExhausted() bool {
	info := m.GetQuotaInfo()
	return info.QuotaRemaining == 0
}

func (m *Manager) threshold() int {
	return (m.dailyLimit * m.thresholdPercent) / 100
}

func (m *Manager) rollover() {
	today := m.now().In(m.loc).Format("2006-01-02")
	if today != m.day {
		m.day = today
		m.used = 0
	}
}
