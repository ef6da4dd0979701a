package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MarketplaceChecker is the probe surface the monitor needs.
type MarketplaceChecker interface {
	Healthy(ctx context.Context) bool
}

// HealthSnapshot is the result of the most recent marketplace probe.
type HealthSnapshot struct {
	Online    bool      `json:"online"`
	CheckedAt time.Time `json:"checked_at"`
	Checks    int64     `json:"checks"`
}

// HealthMonitor tracks periodic marketplace health probes and logs
// transitions between online and offline.
type HealthMonitor struct {
	mu     sync.RWMutex
	last   HealthSnapshot
	logger *slog.Logger
}

// NewHealthMonitor creates a monitor with no recorded checks.
func NewHealthMonitor(logger *slog.Logger) *HealthMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthMonitor{logger: logger}
}

// Check probes the marketplace and records the result.
func (m *HealthMonitor) Check(ctx context.Context, checker MarketplaceChecker) {
	online := checker.Healthy(ctx)
	m.record(online)
}

func (m *HealthMonitor) record(online bool) {
	m.mu.Lock()
	prev := m.last
	m.last = HealthSnapshot{
		Online:    online,
		CheckedAt: time.Now(),
		Checks:    prev.Checks + 1,
	}
	m.mu.Unlock()

	if prev.Checks > 0 && prev.Online == online {
		m.logger.Debug("marketplace health check", slog.Bool("online", online))
		return
	}
	if online {
		m.logger.Info("marketplace connection is online")
	} else {
		m.logger.Warn("marketplace connection is offline")
	}
}

// Snapshot returns the latest recorded check. Checks is zero when no
// probe has run yet.
func (m *HealthMonitor) Snapshot() HealthSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}
