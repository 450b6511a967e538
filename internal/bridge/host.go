package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/genlink-bridge/internal/device"
	"github.com/nerrad567/genlink-bridge/internal/generator"
	"github.com/nerrad567/genlink-bridge/internal/infrastructure/mqtt"
)

// Publisher is the subset of the MQTT client the bridge uses.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// Logger defines the logging interface used by the bridge.
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

// HostConfig holds presentation settings.
type HostConfig struct {
	// Topics carries both the bridge prefix and the discovery prefix.
	Topics mqtt.Topics

	// QoS is used for every publish and subscription.
	QoS byte

	// Manufacturer is shown on every Home Assistant device.
	Manufacturer string

	// Version is the bridge version, published as the discovery origin.
	Version string
}

// Presentation is the host's record for one announced device.
// The registry stores it as an opaque device.PresentationHandle.
type Presentation struct {
	id   string
	name string

	// Guarded by Host.mu. announced is nil until the first UpdateAttributes.
	announced *deviceKey
	attrs     *generator.Attributes
}

// ID returns the device ID the presentation was created for.
func (p *Presentation) ID() string {
	return p.id
}

// Host implements device.Host on top of MQTT with Home Assistant discovery.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Host struct {
	pub          Publisher
	topics       mqtt.Topics
	qos          byte
	manufacturer string
	version      string

	mu            sync.Mutex
	presentations map[string]*Presentation

	logger Logger
}

var _ device.Host = (*Host)(nil)

// NewHost creates a presentation host publishing through pub.
func NewHost(pub Publisher, cfg HostConfig) *Host {
	return &Host{
		pub:           pub,
		topics:        cfg.Topics,
		qos:           cfg.QoS,
		manufacturer:  cfg.Manufacturer,
		version:       cfg.Version,
		presentations: make(map[string]*Presentation),
		logger:        noopLogger{},
	}
}

// SetLogger sets the logger for the host.
func (h *Host) SetLogger(logger Logger) {
	h.logger = logger
}

// Start subscribes to device set topics and to Home Assistant's status topic.
func (h *Host) Start(_ context.Context) error {
	if err := h.pub.Subscribe(h.topics.AllDeviceSets(), h.qos, h.handleSet); err != nil {
		return fmt.Errorf("subscribing to set topics: %w", err)
	}
	if err := h.pub.Subscribe(h.topics.DiscoveryStatus(), h.qos, h.handleDiscoveryStatus); err != nil {
		return fmt.Errorf("subscribing to discovery status: %w", err)
	}
	return nil
}

// Stop removes the host's subscriptions.
func (h *Host) Stop() error {
	return errors.Join(
		h.pub.Unsubscribe(h.topics.AllDeviceSets()),
		h.pub.Unsubscribe(h.topics.DiscoveryStatus()),
	)
}

// CreatePresentation registers a device and returns its presentation.
//
// Nothing is published: the entities are announced by the first
// UpdateAttributes, once model, serial and firmware are known. It is
// idempotent per id, so a restored registry handle gets the existing
// presentation back.
func (h *Host) CreatePresentation(ctx context.Context, id, name string) (device.PresentationHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if p, ok := h.presentations[id]; ok {
		return p, nil
	}

	p := &Presentation{id: id, name: name}
	h.presentations[id] = p

	h.logger.Debug("device registered", "device_id", id, "name", name)
	return p, nil
}

// UpdateAttributes publishes a device's state and availability.
//
// The discovery configs are published first on the initial call and again
// whenever the display name, model, serial or firmware change. A failed
// announce returns ErrAnnounceFailed and is retried by the next call.
func (h *Host) UpdateAttributes(ctx context.Context, ph device.PresentationHandle, attrs generator.Attributes) error {
	p, ok := ph.(*Presentation)
	if !ok || p == nil {
		return fmt.Errorf("%w: %T", ErrInvalidPresentation, ph)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if key := deviceKeyFor(p.name, &attrs); p.announced == nil || key != *p.announced {
		if err := h.announce(p.id, key); err != nil {
			return err
		}
		if p.announced == nil {
			h.logger.Info("device announced", "device_id", p.id, "name", key.name)
		}
		p.announced = &key
	}

	if err := h.publishState(p.id, attrs); err != nil {
		return err
	}

	stored := attrs
	p.attrs = &stored
	return nil
}

// Reannounce republishes discovery configs and last known state for every
// announced presentation. It runs when Home Assistant comes back online.
func (h *Host) Reannounce(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]string, 0, len(h.presentations))
	for id := range h.presentations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := h.presentations[id]
		if p.announced == nil {
			continue
		}
		if err := h.announce(id, *p.announced); err != nil {
			errs = append(errs, err)
			continue
		}
		if p.attrs != nil {
			if err := h.publishState(id, *p.attrs); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of registered devices.
func (h *Host) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.presentations)
}

// announce publishes every discovery config for a device. Caller holds h.mu.
func (h *Host) announce(id string, key deviceKey) error {
	for _, dc := range h.entityConfigs(id, key) {
		payload, err := json.Marshal(dc.config)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrAnnounceFailed, dc.topic, err)
		}
		if err := h.pub.Publish(dc.topic, payload, h.qos, true); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrAnnounceFailed, dc.topic, err)
		}
	}
	return nil
}

// publishState publishes the state payload and the availability marker.
// Caller holds h.mu.
func (h *Host) publishState(id string, attrs generator.Attributes) error {
	payload, err := json.Marshal(NewStateMessage(id, attrs))
	if err != nil {
		return fmt.Errorf("encoding state for %s: %w", id, err)
	}
	if err := h.pub.Publish(h.topics.DeviceState(id), payload, h.qos, true); err != nil {
		return fmt.Errorf("publishing state for %s: %w", id, err)
	}

	availability := mqtt.PayloadOffline
	if attrs.Reachable {
		availability = mqtt.PayloadOnline
	}
	if err := h.pub.Publish(h.topics.DeviceAvailability(id), []byte(availability), h.qos, true); err != nil {
		return fmt.Errorf("publishing availability for %s: %w", id, err)
	}
	return nil
}

// handleSet rejects a set request and republishes the current state so the
// Home Assistant switch snaps back to the real value.
func (h *Host) handleSet(topic string, payload []byte) error {
	id, component, ok := h.topics.ParseDeviceSet(topic)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, topic)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.presentations[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, id)
	}

	if p.attrs != nil {
		if err := h.publishState(id, *p.attrs); err != nil {
			h.logger.Warn("failed to republish state after rejected set", "device_id", id, "error", err)
		}
	}

	return fmt.Errorf("%w: %s %s %q", ErrReadOnly, id, component, payload)
}

func (h *Host) handleDiscoveryStatus(_ string, payload []byte) error {
	if string(payload) != mqtt.PayloadOnline {
		return nil
	}
	h.logger.Info("Home Assistant online, re-announcing devices")
	return h.Reannounce(context.Background())
}
