package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/genlink-bridge/internal/discovery"
	"github.com/nerrad567/genlink-bridge/internal/infrastructure/mqtt"
)

// defaultHealthInterval is how often the summary is refreshed between cycles.
const defaultHealthInterval = 5 * time.Minute

// HealthPublisher is the interface for publishing the bridge summary.
type HealthPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// LoopStatus exposes the discovery loop's progress to the reporter.
type LoopStatus interface {
	State() discovery.State
	LastReport() (discovery.CycleReport, bool)
}

// DeviceCounter reports how many devices the bridge manages.
type DeviceCounter interface {
	Len() int
}

// HealthReporterConfig holds configuration for the health reporter.
type HealthReporterConfig struct {
	// BridgeID names the bridge in summaries. Usually the site ID.
	BridgeID string

	Version string

	// Interval is how often to republish between cycles. Default: 5 minutes.
	Interval time.Duration

	Topics    mqtt.Topics
	QoS       byte
	Publisher HealthPublisher
	Loop      LoopStatus
	Devices   DeviceCounter
}

// HealthReporter publishes the retained bridge summary after every discovery
// cycle and on a slow timer in between.
type HealthReporter struct {
	bridgeID  string
	version   string
	startTime time.Time
	interval  time.Duration
	topic     string
	qos       byte
	publisher HealthPublisher
	loop      LoopStatus
	devices   DeviceCounter

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// NewHealthReporter creates a new health reporter. Call Start to begin reporting.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultHealthInterval
	}

	return &HealthReporter{
		bridgeID:  cfg.BridgeID,
		version:   cfg.Version,
		startTime: time.Now(),
		interval:  interval,
		topic:     cfg.Topics.BridgeSummary(),
		qos:       cfg.QoS,
		publisher: cfg.Publisher,
		loop:      cfg.Loop,
		devices:   cfg.Devices,
		done:      make(chan struct{}),
	}
}

// SetLogger sets the logger for this reporter.
func (h *HealthReporter) SetLogger(logger Logger) {
	h.loggerMu.Lock()
	h.logger = logger
	h.loggerMu.Unlock()
}

// Start begins periodic reporting until ctx is cancelled or Stop is called.
func (h *HealthReporter) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.reportLoop(ctx)
}

// Stop ends reporting and publishes a final "stopping" summary.
// Safe to call multiple times.
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		//nolint:errcheck // Best-effort during shutdown
		h.publishStatus(HealthStopping, "bridge stopping")
	})
}

// OnCycle publishes a summary for a finished cycle.
// It matches the discovery.Loop.SetOnCycle callback signature.
func (h *HealthReporter) OnCycle(report discovery.CycleReport) {
	status, reason := h.statusFor(report, true)
	if err := h.publishStatus(status, reason); err != nil {
		h.logError("failed to publish cycle summary", err)
	}
}

// PublishNow publishes the current summary immediately.
func (h *HealthReporter) PublishNow() error {
	status, reason := h.determineStatus()
	return h.publishStatus(status, reason)
}

func (h *HealthReporter) reportLoop(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	if err := h.PublishNow(); err != nil {
		h.logError("failed to publish initial summary", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			if err := h.PublishNow(); err != nil {
				h.logError("failed to publish summary", err)
			}
		}
	}
}

func (h *HealthReporter) determineStatus() (HealthStatus, string) {
	var (
		report discovery.CycleReport
		ok     bool
	)
	if h.loop != nil {
		report, ok = h.loop.LastReport()
	}
	return h.statusFor(report, ok)
}

func (h *HealthReporter) statusFor(report discovery.CycleReport, hasReport bool) (HealthStatus, string) {
	if h.publisher == nil || !h.publisher.IsConnected() {
		return HealthDegraded, "MQTT disconnected"
	}
	if !hasReport {
		return HealthStarting, "waiting for first discovery cycle"
	}
	if report.Err != nil {
		return HealthDegraded, "last discovery cycle failed"
	}
	if report.Failed > 0 {
		return HealthDegraded, fmt.Sprintf("%d device(s) failed to publish", report.Failed)
	}
	return HealthHealthy, ""
}

func (h *HealthReporter) publishStatus(status HealthStatus, reason string) error {
	if h.publisher == nil {
		return nil
	}

	deviceCount := 0
	if h.devices != nil {
		deviceCount = h.devices.Len()
	}

	msg := NewHealthMessage(h.bridgeID, h.version, status, deviceCount, h.startTime)
	msg.Reason = reason
	if h.loop != nil {
		msg.LoopState = h.loop.State().String()
		if report, ok := h.loop.LastReport(); ok {
			msg.LastCycle = NewCycleSummary(report)
		}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return h.publisher.Publish(h.topic, payload, h.qos, true)
}

func (h *HealthReporter) logError(msg string, err error) {
	h.loggerMu.RLock()
	logger := h.logger
	h.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
