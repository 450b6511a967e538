package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrPublishFailed) {
//	    // the update is retried on the next cycle
//	}
var (
	// ErrPresentationFailed is returned when the host could not create a
	// presentation for a newly discovered device. The registry is left unchanged.
	ErrPresentationFailed = errors.New("device: presentation failed")

	// ErrPublishFailed is returned when the host rejected an attribute update.
	ErrPublishFailed = errors.New("device: publish failed")

	// ErrInvalidVendorID is returned when a payload carries an empty vendor id.
	ErrInvalidVendorID = errors.New("device: invalid vendor id")

	// ErrDeviceNotFound is returned when a persisted device does not exist.
	ErrDeviceNotFound = errors.New("device: not found")
)
