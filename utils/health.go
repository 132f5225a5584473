package utils

import (
	"context"
	"sync"
	"time"
)

// HealthProbe reports whether one dependency is usable.
type HealthProbe func(ctx context.Context) error

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Checks    map[string]bool `json:"checks"`
	CheckedAt time.Time       `json:"checkedAt"`
}

// Healthy reports whether every probe passed on the last run.
func (h HealthStatus) Healthy() bool {
	for _, ok := range h.Checks {
		if !ok {
			return false
		}
	}
	return true
}

var (
	currentHealth HealthStatus
	healthMu      sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	healthMu.RLock()
	defer healthMu.RUnlock()
	checks := make(map[string]bool, len(currentHealth.Checks))
	for k, v := range currentHealth.Checks {
		checks[k] = v
	}
	return HealthStatus{Checks: checks, CheckedAt: currentHealth.CheckedAt}
}

// RunHealthChecks runs every probe once and stores the result.
func RunHealthChecks(ctx context.Context, probes map[string]HealthProbe) HealthStatus {
	checks := make(map[string]bool, len(probes))
	for name, probe := range probes {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		checks[name] = probe(pctx) == nil
		cancel()
	}
	status := HealthStatus{Checks: checks, CheckedAt: time.Now()}

	healthMu.Lock()
	currentHealth = status
	healthMu.Unlock()
	return status
}

// StartHealthMonitor performs periodic health checks and updates in-memory
// state until ctx is done.
func StartHealthMonitor(ctx context.Context, interval time.Duration, probes map[string]HealthProbe) {
	RunHealthChecks(ctx, probes)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				RunHealthChecks(ctx, probes)
			}
		}
	}()
}
