package status

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/craftpanel/backend/internal/logging"
	"github.com/craftpanel/backend/internal/metrics"
	"go.uber.org/zap"
)

// ErrNoMatch marks a response that did not have the expected shape.
var ErrNoMatch = errors.New("status: unexpected response")

// Console is the remote console the refresher polls.
type Console interface {
	Execute(ctx context.Context, command string) (string, error)
	Reset()
}

// Publisher receives every snapshot the refresher publishes.
type Publisher interface {
	Publish(Snapshot)
}

type Options struct {
	// ModsPath is the addon directory.
	ModsPath string
	// ServerPath is the server installation holding server.properties.
	ServerPath     string
	AddonExtension string
	ProcessMatch   string
	Interval       time.Duration
	// FailureThreshold is the consecutive failure count at which a step is
	// reported as failed.
	FailureThreshold int
	Publisher        Publisher
}

// Refresher polls the console for status and publishes immutable snapshots.
type Refresher struct {
	console Console
	opts    Options
	health  *healthTracker
	uptime  func(ctx context.Context, match string) (int64, error)

	refreshMu sync.Mutex // one refresh cycle at a time
	current   atomic.Pointer[Snapshot]
}

func New(console Console, opts Options) *Refresher {
	if opts.AddonExtension == "" {
		opts.AddonExtension = ".jar"
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	r := &Refresher{
		console: console,
		opts:    opts,
		health:  newHealthTracker(opts.FailureThreshold),
		uptime:  processUptime,
	}
	initial := initialSnapshot()
	r.current.Store(&initial)
	return r
}

// Last returns the most recently published snapshot without waiting for a
// refresh in progress.
func (r *Refresher) Last() Snapshot {
	return *r.current.Load()
}

// Health returns per-step failure tracking.
func (r *Refresher) Health() []StepHealth {
	return r.health.snapshot()
}

// Start refreshes once, then on every interval until ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	logging.L().Info("status refresher started", zap.Duration("interval", r.opts.Interval))

	r.safeRefresh(ctx)

	for {
		select {
		case <-ctx.Done():
			logging.L().Info("status refresher stopped")
			return
		case <-ticker.C:
			r.safeRefresh(ctx)
		}
	}
}

// safeRefresh keeps the ticker loop alive if a refresh panics.
func (r *Refresher) safeRefresh(ctx context.Context) {
	defer func() {
		if v := recover(); v != nil {
			r.console.Reset()
			r.health.fail(StepList, fmt.Errorf("panic during refresh: %v", v))
		}
	}()
	r.Refresh(ctx)
}

// Refresh runs one status cycle and returns the snapshot that is current
// afterwards. Failures never escape: a console fault on the list command
// leaves the previous snapshot in place, every other step falls back to its
// default or previous value.
func (r *Refresher) Refresh(ctx context.Context) Snapshot {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	start := time.Now()
	defer func() { metrics.ObserveRefresh(time.Since(start)) }()

	prev := r.Last()
	next := prev

	resp, err := r.exec(ctx, "list")
	if err != nil {
		r.health.fail(StepList, err)
		r.console.Reset()
		return prev
	}
	if online, slots, ok := ParsePlayers(resp); ok {
		next.Players, next.MaxPlayers = online, slots
		r.health.ok(StepList)
	} else {
		r.health.fail(StepList, fmt.Errorf("%w: list: %q", ErrNoMatch, resp))
		next.MaxPlayers = r.ResolveMaxPlayers(ctx)
	}

	next.TPS = r.tickRate(ctx)

	if addons, err := ScanAddons(r.opts.ModsPath, r.opts.AddonExtension); err != nil {
		r.health.fail(StepAddons, err)
	} else {
		next.Mods = addons
		r.health.ok(StepAddons)
	}

	if r.opts.ProcessMatch != "" {
		up, err := r.uptime(ctx, r.opts.ProcessMatch)
		if err != nil {
			r.health.fail(StepUptime, err)
		} else {
			r.health.ok(StepUptime)
		}
		next.Uptime = up
	}

	next.UpdatedAt = time.Now()
	r.publish(next)
	return next
}

func (r *Refresher) tickRate(ctx context.Context) float64 {
	resp, err := r.exec(ctx, "tps")
	if err != nil {
		r.health.fail(StepTPS, err)
		return DefaultTPS
	}
	tps, ok := ParseTPS(resp)
	if !ok {
		r.health.fail(StepTPS, fmt.Errorf("%w: tps: %q", ErrNoMatch, resp))
		return DefaultTPS
	}
	r.health.ok(StepTPS)
	return tps
}

// ResolveMaxPlayers prefers max-players from server.properties, then the
// slot count in a list response, then DefaultMaxPlayers.
func (r *Refresher) ResolveMaxPlayers(ctx context.Context) int {
	path := filepath.Join(r.opts.ServerPath, "server.properties")
	if f, err := os.Open(path); err == nil {
		n, ok := ParseMaxPlayersProperty(f)
		f.Close()
		if ok {
			return n
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		logging.L().Warn("reading server.properties", zap.String("path", path), zap.Error(err))
	}

	resp, err := r.exec(ctx, "list")
	if err != nil {
		logging.L().Debug("list for max players failed", zap.Error(err))
		return DefaultMaxPlayers
	}
	if n, ok := ParseSlots(resp); ok {
		return n
	}
	return DefaultMaxPlayers
}

func (r *Refresher) exec(ctx context.Context, command string) (string, error) {
	resp, err := r.console.Execute(ctx, command)
	metrics.RecordCommand(metrics.SourceRefresh, err)
	return resp, err
}

func (r *Refresher) publish(s Snapshot) {
	r.current.Store(&s)
	metrics.SetStatus(s.Players, s.MaxPlayers, s.TPS, len(s.Mods))
	if r.opts.Publisher != nil {
		r.opts.Publisher.Publish(s)
	}
}
