package discovery

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nerrad567/genlink-bridge/internal/device"
	"github.com/nerrad567/genlink-bridge/internal/generator"
)

// Default timings.
const (
	DefaultInterval     = 60 * time.Second
	DefaultFetchTimeout = 30 * time.Second
)

// Fetcher returns the current status of every device on the vendor account.
type Fetcher interface {
	FetchDevices(ctx context.Context) ([]generator.RawStatus, error)
}

// Persister stores handles so their identity survives a restart.
type Persister interface {
	PersistRegistrySnapshot(ctx context.Context, handles []*device.Handle) error
}

// Registry is the subset of *device.Registry the loop drives.
type Registry interface {
	Upsert(ctx context.Context, raw generator.RawStatus) (device.UpsertResult, error)
	Len() int
}

// Logger defines the logging interface used by the Loop.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config holds loop timings. Zero values take the defaults.
type Config struct {
	// Interval is the delay between the end of one cycle and the start of the next.
	Interval time.Duration

	// FetchTimeout bounds a single fetch.
	FetchTimeout time.Duration
}

// Loop drives discovery cycles.
type Loop struct {
	registry  Registry
	fetcher   Fetcher
	persister Persister

	interval     time.Duration
	fetchTimeout time.Duration

	guard *semaphore.Weighted
	state atomic.Int32

	reportMu   sync.RWMutex
	lastReport CycleReport
	hasReport  bool

	onCycle func(CycleReport)
	logger  Logger
}

// NewLoop creates a loop over registry and fetcher.
func NewLoop(registry Registry, fetcher Fetcher, cfg Config) *Loop {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}

	return &Loop{
		registry:     registry,
		fetcher:      fetcher,
		interval:     interval,
		fetchTimeout: fetchTimeout,
		guard:        semaphore.NewWeighted(1),
		logger:       noopLogger{},
	}
}

// SetLogger sets the logger for the loop.
func (l *Loop) SetLogger(logger Logger) {
	l.logger = logger
}

// SetPersister sets where created and changed handles are stored after each cycle.
func (l *Loop) SetPersister(p Persister) {
	l.persister = p
}

// SetOnCycle registers a callback invoked after every completed cycle.
// Must be called before Run.
func (l *Loop) SetOnCycle(fn func(CycleReport)) {
	l.onCycle = fn
}

// State returns the current loop state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// LastReport returns the most recent cycle report, if any cycle has completed.
func (l *Loop) LastReport() (CycleReport, bool) {
	l.reportMu.RLock()
	defer l.reportMu.RUnlock()
	return l.lastReport, l.hasReport
}

// Interval returns the configured delay between cycles.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Tick runs one discovery cycle.
//
// It returns ErrCycleInProgress without fetching when another cycle holds
// the guard. A fetch failure leaves the registry untouched and is returned
// wrapped in ErrFetchFailed. Per-device failures are logged and counted in
// the report but do not fail the cycle.
func (l *Loop) Tick(ctx context.Context) (CycleReport, error) {
	if !l.guard.TryAcquire(1) {
		l.logger.Info("discovery cycle still running, tick dropped")
		return CycleReport{}, ErrCycleInProgress
	}
	defer l.guard.Release(1)

	l.state.Store(int32(StatePolling))
	report := l.cycle(ctx)
	l.state.Store(int32(StateIdle))

	l.reportMu.Lock()
	l.lastReport = report
	l.hasReport = true
	l.reportMu.Unlock()

	// onCycle sees Idle and the new LastReport; the guard is still held.
	if l.onCycle != nil {
		l.onCycle(report)
	}

	return report, report.Err
}

// Run waits for ready, then drives cycles until ctx is cancelled.
//
// If the registry is empty once ready fires, the first cycle runs at once.
// Otherwise the first cycle waits one interval. After each cycle the timer
// is re-armed for the full interval. A nil ready channel is treated as
// already closed.
func (l *Loop) Run(ctx context.Context, ready <-chan struct{}) error {
	if ready != nil {
		select {
		case <-ctx.Done():
			return nil
		case <-ready:
		}
	}

	l.logger.Info("discovery loop started",
		"interval", l.interval.String(),
		"known_devices", l.registry.Len())

	if l.registry.Len() == 0 {
		l.runOnce(ctx)
	}

	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("discovery loop stopped")
			return nil
		case <-timer.C:
			l.runOnce(ctx)
			timer.Reset(l.interval)
		}
	}
}

func (l *Loop) runOnce(ctx context.Context) {
	report, err := l.Tick(ctx)
	if err != nil {
		// Tick has already logged the details.
		return
	}
	l.logger.Debug("discovery cycle complete",
		"fetched", report.Fetched,
		"created", report.Created,
		"changed", report.Changed,
		"failed", report.Failed,
		"duration", report.Duration().String())
}

// cycle performs one fetch and merge. It never panics.
func (l *Loop) cycle(ctx context.Context) (report CycleReport) {
	report.StartedAt = time.Now()

	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("discovery cycle panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
			report.Err = fmt.Errorf("%w: %v", ErrCyclePanicked, r)
		}
		report.FinishedAt = time.Now()
	}()

	payloads, err := l.fetch(ctx)
	if err != nil {
		l.logger.Warn("device fetch failed", "error", err)
		report.Err = fmt.Errorf("%w: %w", ErrFetchFailed, err)
		return report
	}
	report.Fetched = len(payloads)

	var dirty []*device.Handle
	for _, raw := range payloads {
		if ctx.Err() != nil {
			report.Err = ctx.Err()
			break
		}

		res, err := l.registry.Upsert(ctx, raw)
		if err != nil {
			report.Failed++
			l.logger.Warn("device update failed",
				"vendor_id", raw.VendorID,
				"error", err)
		}
		if res.Created {
			report.Created++
		}
		if res.Changed {
			report.Changed++
		}
		if res.Handle != nil && (res.Created || res.Changed) {
			dirty = append(dirty, res.Handle)
		}
	}

	report.Persisted = l.persist(ctx, dirty)
	return report
}

func (l *Loop) fetch(ctx context.Context) ([]generator.RawStatus, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, l.fetchTimeout)
	defer cancel()
	return l.fetcher.FetchDevices(fetchCtx)
}

// persist hands dirty handles to the persister and returns how many were stored.
func (l *Loop) persist(ctx context.Context, dirty []*device.Handle) int {
	if l.persister == nil || len(dirty) == 0 {
		return 0
	}
	if err := l.persister.PersistRegistrySnapshot(ctx, dirty); err != nil {
		l.logger.Error("persisting registry snapshot failed",
			"devices", len(dirty),
			"error", err)
		return 0
	}
	return len(dirty)
}
