package bridge

import "errors"

// Domain errors for the bridge package.
var (
	// ErrReadOnly is returned for every set request; generators are mirrored, never controlled.
	ErrReadOnly = errors.New("bridge: device is read-only")

	// ErrUnknownDevice is returned for a set request naming a device with no presentation.
	ErrUnknownDevice = errors.New("bridge: unknown device")

	// ErrInvalidPresentation is returned when UpdateAttributes receives a handle
	// this host did not create.
	ErrInvalidPresentation = errors.New("bridge: invalid presentation handle")

	// ErrAnnounceFailed is returned when a discovery config could not be published.
	ErrAnnounceFailed = errors.New("bridge: discovery announce failed")
)
