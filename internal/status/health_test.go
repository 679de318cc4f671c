package status

import (
	"fmt"
	"testing"

	"github.com/craftpanel/backend/internal/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStepHealthFailureTracking(t *testing.T) {
	h := newStepHealth()

	if h.statusLocked(3) != StatusHealthy {
		t.Fatal("new step should be healthy")
	}

	status, changed := h.recordFailure(fmt.Errorf("connection refused"), 3)
	if status != StatusDegraded || !changed {
		t.Errorf("first failure = (%s, %v), want (degraded, true)", status, changed)
	}
	status, changed = h.recordFailure(fmt.Errorf("timeout"), 3)
	if status != StatusDegraded || changed {
		t.Errorf("second failure = (%s, %v), want (degraded, false)", status, changed)
	}
	status, changed = h.recordFailure(fmt.Errorf("still broken"), 3)
	if status != StatusFailed || !changed {
		t.Errorf("third failure = (%s, %v), want (failed, true)", status, changed)
	}

	snap := h.snapshot(StepList, 3)
	if snap.LastError != "still broken" || snap.ConsecutiveFailures != 3 || snap.LastFailure == nil {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestStepHealthRecovery(t *testing.T) {
	h := newStepHealth()
	for i := 0; i < 5; i++ {
		h.recordFailure(fmt.Errorf("fail %d", i), 3)
	}

	if !h.recordSuccess() {
		t.Error("success after failures should report a recovery")
	}
	if h.recordSuccess() {
		t.Error("second success should not report a recovery")
	}
	snap := h.snapshot(StepTPS, 3)
	if snap.Status != StatusHealthy || snap.ConsecutiveFailures != 0 || snap.LastError != "" {
		t.Errorf("snapshot after recovery = %+v", snap)
	}
	if snap.LastFailure == nil {
		t.Error("recovery should keep the last failure time")
	}
}

func TestHealthTrackerLogsTransitionsOnly(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logging.Set(zap.New(core))
	t.Cleanup(func() { logging.Set(nil) })

	tr := newHealthTracker(2)
	for i := 0; i < 5; i++ {
		tr.fail(StepTPS, fmt.Errorf("no match"))
	}
	tr.ok(StepTPS)

	var messages []string
	for _, e := range logs.All() {
		messages = append(messages, e.Message)
	}
	want := []string{"refresh step degraded", "refresh step failed", "refresh step recovered"}
	if fmt.Sprint(messages) != fmt.Sprint(want) {
		t.Errorf("log messages = %v, want %v", messages, want)
	}
}

func TestHealthTrackerDefaultThreshold(t *testing.T) {
	tr := newHealthTracker(0)
	if tr.threshold != 3 {
		t.Errorf("threshold = %d, want 3", tr.threshold)
	}
	if got := len(tr.snapshot()); got != len(steps) {
		t.Errorf("snapshot has %d steps, want %d", got, len(steps))
	}
}
