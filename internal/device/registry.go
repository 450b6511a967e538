package device

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/genlink-bridge/internal/generator"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry tracks every generator the bridge has seen, keyed by derived ID.
// Devices are never removed.
//
// All public methods are thread-safe. Upserts are serialised so host calls
// for one payload never interleave with another's.
type Registry struct {
	host Host

	handles   map[string]*Handle
	handlesMu sync.RWMutex // Protects handles

	upsertMu sync.Mutex // Serialises Upsert
	logger   Logger
}

// NewRegistry creates an empty registry that publishes through host.
func NewRegistry(host Host) *Registry {
	return &Registry{
		host:    host,
		handles: make(map[string]*Handle),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Restore seeds the registry with handles persisted by a previous run.
// It makes no host calls. Every restored handle is marked NeedsRefresh so its
// first sighting publishes even if nothing changed while the bridge was down.
func (r *Registry) Restore(handles []*Handle) {
	r.handlesMu.Lock()
	defer r.handlesMu.Unlock()

	for _, h := range handles {
		if h == nil || !validVendorID(h.VendorID) {
			continue
		}
		c := h.Clone()
		if c.ID == "" {
			c.ID = DeriveID(c.VendorID)
		}
		c.NeedsRefresh = true
		r.handles[c.ID] = c
	}

	r.logger.Info("device registry restored", "count", len(r.handles))
}

// Lookup returns a copy of the handle with the given ID.
func (r *Registry) Lookup(id string) (*Handle, bool) {
	r.handlesMu.RLock()
	defer r.handlesMu.RUnlock()

	h, ok := r.handles[id]
	if !ok {
		return nil, false
	}
	return h.Clone(), true
}

// Handles returns copies of all handles ordered by ID.
func (r *Registry) Handles() []*Handle {
	r.handlesMu.RLock()
	defer r.handlesMu.RUnlock()

	out := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of known devices.
func (r *Registry) Len() int {
	r.handlesMu.RLock()
	defer r.handlesMu.RUnlock()
	return len(r.handles)
}

// Upsert merges one raw payload into the registry.
//
// An unknown device gets a presentation and a forced first publish. A known
// device stores the payload and publishes only when generator.HasChanged (or
// NeedsRefresh) says so. Stored attributes advance only after a successful
// publish, so a failed publish is retried on the next call.
//
// On ErrPublishFailed the returned result is still populated. On
// ErrPresentationFailed for a new device the registry is left unchanged.
func (r *Registry) Upsert(ctx context.Context, raw generator.RawStatus) (UpsertResult, error) {
	if !validVendorID(raw.VendorID) {
		return UpsertResult{}, fmt.Errorf("%w: %q", ErrInvalidVendorID, raw.VendorID)
	}

	r.upsertMu.Lock()
	defer r.upsertMu.Unlock()

	id := DeriveID(raw.VendorID)

	r.handlesMu.RLock()
	existing, ok := r.handles[id]
	r.handlesMu.RUnlock()

	if !ok {
		return r.create(ctx, id, raw)
	}
	return r.update(ctx, existing, raw)
}

func (r *Registry) create(ctx context.Context, id string, raw generator.RawStatus) (UpsertResult, error) {
	attrs := generator.Translate(raw)

	p, err := r.host.CreatePresentation(ctx, id, raw.Name)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("%w: %s: %w", ErrPresentationFailed, id, err)
	}

	h := &Handle{
		ID:           id,
		VendorID:     raw.VendorID,
		Latest:       raw,
		Presentation: p,
		NeedsRefresh: true,
	}

	r.handlesMu.Lock()
	r.handles[id] = h
	r.handlesMu.Unlock()

	r.logger.Info("generator discovered", "device_id", id, "vendor_id", raw.VendorID, "name", raw.Name)

	res := UpsertResult{Created: true}
	err = r.publish(ctx, h, attrs)
	res.Handle = r.snapshot(h)
	return res, err
}

func (r *Registry) update(ctx context.Context, h *Handle, raw generator.RawStatus) (UpsertResult, error) {
	r.handlesMu.Lock()
	h.Latest = raw
	r.handlesMu.Unlock()

	if h.Presentation == nil {
		p, err := r.host.CreatePresentation(ctx, h.ID, raw.Name)
		if err != nil {
			return UpsertResult{Handle: r.snapshot(h)}, fmt.Errorf("%w: %s: %w", ErrPresentationFailed, h.ID, err)
		}
		r.handlesMu.Lock()
		h.Presentation = p
		r.handlesMu.Unlock()
	}

	attrs := generator.Translate(raw)
	if !h.NeedsRefresh && !generator.HasChanged(h.Attributes, attrs) {
		return UpsertResult{Handle: r.snapshot(h)}, nil
	}

	err := r.publish(ctx, h, attrs)
	return UpsertResult{Handle: r.snapshot(h), Changed: err == nil}, err
}

// publish pushes attrs to the host and records them on success.
func (r *Registry) publish(ctx context.Context, h *Handle, attrs generator.Attributes) error {
	if err := r.host.UpdateAttributes(ctx, h.Presentation, attrs); err != nil {
		r.logger.Warn("attribute publish failed", "device_id", h.ID, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, h.ID, err)
	}

	r.handlesMu.Lock()
	h.Attributes = &attrs
	h.NeedsRefresh = false
	r.handlesMu.Unlock()

	r.logger.Debug("attributes published", "device_id", h.ID, "status", attrs.Status)
	return nil
}

func (r *Registry) snapshot(h *Handle) *Handle {
	r.handlesMu.RLock()
	defer r.handlesMu.RUnlock()
	return h.Clone()
}
