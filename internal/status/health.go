package status

import (
	"sync"
	"time"

	"github.com/craftpanel/backend/internal/logging"
	"github.com/craftpanel/backend/internal/metrics"
	"go.uber.org/zap"
)

type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusDegraded HealthStatus = "degraded"
	StatusFailed   HealthStatus = "failed"
)

// Refresh steps, in execution order.
const (
	StepList   = "list"
	StepTPS    = "tps"
	StepAddons = "addons"
	StepUptime = "uptime"
)

var steps = []string{StepList, StepTPS, StepAddons, StepUptime}

// StepHealth is a point-in-time copy of one step's failure tracking.
type StepHealth struct {
	Step                string       `json:"step"`
	Status              HealthStatus `json:"status"`
	ConsecutiveFailures int          `json:"consecutiveFailures"`
	LastError           string       `json:"lastError,omitempty"`
	LastFailure         *time.Time   `json:"lastFailure,omitempty"`
}

// stepHealth tracks consecutive failures for a single refresh step.
// Fields are protected by mu because Refresh writes them while Health reads
// them from HTTP handlers.
type stepHealth struct {
	mu                sync.Mutex
	failures          int
	lastErr           string
	lastFail          time.Time
	lastEmittedStatus HealthStatus
}

func newStepHealth() *stepHealth {
	return &stepHealth{lastEmittedStatus: StatusHealthy}
}

// recordSuccess clears the failure count and reports whether the step just
// recovered.
func (h *stepHealth) recordSuccess() (recovered bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures = 0
	h.lastErr = ""
	recovered = h.lastEmittedStatus != StatusHealthy
	h.lastEmittedStatus = StatusHealthy
	return recovered
}

// recordFailure counts a failure and returns the new status and whether it
// differs from the last one reported.
func (h *stepHealth) recordFailure(err error, threshold int) (status HealthStatus, changed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures++
	h.lastErr = err.Error()
	h.lastFail = time.Now()
	status = h.statusLocked(threshold)
	changed = status != h.lastEmittedStatus
	h.lastEmittedStatus = status
	return status, changed
}

// statusLocked computes health status. Caller must hold h.mu.
func (h *stepHealth) statusLocked(threshold int) HealthStatus {
	switch {
	case h.failures == 0:
		return StatusHealthy
	case h.failures >= threshold:
		return StatusFailed
	default:
		return StatusDegraded
	}
}

func (h *stepHealth) snapshot(step string, threshold int) StepHealth {
	h.mu.Lock()
	defer h.mu.Unlock()
	sh := StepHealth{
		Step:                step,
		Status:              h.statusLocked(threshold),
		ConsecutiveFailures: h.failures,
		LastError:           h.lastErr,
	}
	if !h.lastFail.IsZero() {
		t := h.lastFail
		sh.LastFailure = &t
	}
	return sh
}

type healthTracker struct {
	threshold int
	steps     map[string]*stepHealth
}

func newHealthTracker(threshold int) *healthTracker {
	if threshold <= 0 {
		threshold = 3
	}
	t := &healthTracker{
		threshold: threshold,
		steps:     make(map[string]*stepHealth, len(steps)),
	}
	for _, s := range steps {
		t.steps[s] = newStepHealth()
	}
	return t
}

// ok records a successful step, logging only a recovery.
func (t *healthTracker) ok(step string) {
	if t.steps[step].recordSuccess() {
		logging.L().Info("refresh step recovered", zap.String("step", step))
	}
}

// fail records a failed step, logging only on a status transition so a dead
// server does not produce a line per tick.
func (t *healthTracker) fail(step string, err error) {
	metrics.RecordStepFailure(step)
	status, changed := t.steps[step].recordFailure(err, t.threshold)
	if !changed {
		logging.L().Debug("refresh step failed", zap.String("step", step), zap.Error(err))
		return
	}
	logging.L().Warn("refresh step "+string(status),
		zap.String("step", step),
		zap.Error(err),
	)
}

func (t *healthTracker) snapshot() []StepHealth {
	out := make([]StepHealth, 0, len(steps))
	for _, s := range steps {
		out = append(out, t.steps[s].snapshot(s, t.threshold))
	}
	return out
}
