package device

import (
	"context"

	"github.com/nerrad567/genlink-bridge/internal/generator"
)

// PresentationHandle is the host's reference to a device's user-facing
// presentation. The registry stores it but never inspects it.
type PresentationHandle any

// Host creates presentations and publishes attributes on behalf of the registry.
//
// Implementations must make CreatePresentation idempotent per id: a handle
// restored after a restart has no presentation reference, and the registry
// asks for one again on its first sighting.
type Host interface {
	// CreatePresentation registers the user-facing presentation for a device.
	CreatePresentation(ctx context.Context, id, name string) (PresentationHandle, error)

	// UpdateAttributes publishes a device's current attributes.
	UpdateAttributes(ctx context.Context, p PresentationHandle, attrs generator.Attributes) error
}

// Handle is the registry's record for one generator.
type Handle struct {
	// ID is derived from VendorID once and never recomputed.
	ID       string
	VendorID string

	// Latest is the most recent raw payload.
	Latest generator.RawStatus

	// Attributes is the last successfully published translation.
	// Nil until the first publish.
	Attributes *generator.Attributes

	Presentation PresentationHandle

	// NeedsRefresh forces the next sighting to publish regardless of change.
	NeedsRefresh bool
}

// Name returns the display name from the latest payload.
func (h *Handle) Name() string {
	return h.Latest.Name
}

// Clone returns a copy that shares no mutable state with h.
func (h *Handle) Clone() *Handle {
	c := *h
	if h.Attributes != nil {
		attrs := *h.Attributes
		c.Attributes = &attrs
	}
	if h.Latest.Flags != nil {
		flags := *h.Latest.Flags
		c.Latest.Flags = &flags
	}
	if h.Latest.Code != nil {
		code := *h.Latest.Code
		c.Latest.Code = &code
	}
	return &c
}

// UpsertResult describes what Upsert did with a payload.
type UpsertResult struct {
	Handle *Handle

	// Created is true when the payload introduced a new device.
	Created bool

	// Changed is true when attributes were published for an existing device.
	Changed bool
}
