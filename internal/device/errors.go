package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, device.ErrInvalidPlatformState) {
//	    // unrecognised device-change kind
//	}
var (
	// ErrInvalidPlatformState is returned for a device-change kind the
	// registry does not recognise.
	ErrInvalidPlatformState = errors.New("device: invalid platform state")

	// ErrInvalidDevice is returned when a device name or value is not part
	// of the closed device set.
	ErrInvalidDevice = errors.New("device: invalid device")

	// ErrNotConnected is returned when switching to a device that is not
	// connected.
	ErrNotConnected = errors.New("device: not connected")

	// ErrPreferenceNotFound is returned when no preference has been stored.
	ErrPreferenceNotFound = errors.New("device: preference not found")
)
