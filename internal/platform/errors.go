package platform

import "errors"

var (
	// ErrInvalidMessage is returned for bridge payloads that cannot be decoded.
	ErrInvalidMessage = errors.New("platform: invalid bridge message")

	// ErrBridgeUnavailable is returned when the bridge connection is down.
	ErrBridgeUnavailable = errors.New("platform: bridge unavailable")
)
