package device

import (
	"fmt"
	"strings"
)

// Device is a classified input source. The set is closed.
type Device int

// Known devices. None means "no device".
const (
	None Device = iota
	MouseKeyboard
	Gamepad
	Joystick
	Touch
)

var deviceNames = [...]string{
	None:          "none",
	MouseKeyboard: "mouse_keyboard",
	Gamepad:       "gamepad",
	Joystick:      "joystick",
	Touch:         "touch",
}

// AllDevices returns every real device, excluding None.
func AllDevices() []Device {
	return []Device{MouseKeyboard, Gamepad, Joystick, Touch}
}

// Valid reports whether d is part of the closed set.
func (d Device) Valid() bool {
	return d >= None && int(d) < len(deviceNames)
}

func (d Device) String() string {
	if !d.Valid() {
		return fmt.Sprintf("device(%d)", int(d))
	}
	return deviceNames[d]
}

// ParseDevice converts a device name into a Device.
func ParseDevice(s string) (Device, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d, name := range deviceNames {
		if name == s {
			return Device(d), nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrInvalidDevice, s)
}

// MarshalText implements encoding.TextMarshaler.
func (d Device) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDevice, int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Device) UnmarshalText(text []byte) error {
	v, err := ParseDevice(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ChangeKind is a device-change notification kind reported by the platform.
type ChangeKind string

// Change kinds.
const (
	ChangeAdded                ChangeKind = "added"
	ChangeRemoved              ChangeKind = "removed"
	ChangeDisconnected         ChangeKind = "disconnected"
	ChangeReconnected          ChangeKind = "reconnected"
	ChangeEnabled              ChangeKind = "enabled"
	ChangeDisabled             ChangeKind = "disabled"
	ChangeUsageChanged         ChangeKind = "usage_changed"
	ChangeConfigurationChanged ChangeKind = "configuration_changed"
	ChangeSoftReset            ChangeKind = "soft_reset"
	ChangeHardReset            ChangeKind = "hard_reset"
	ChangeDestroyed            ChangeKind = "destroyed"
)

type membership int

const (
	keep membership = iota
	add
	remove
)

// membership maps a change kind to its effect on the connected set.
func (k ChangeKind) membership() (membership, error) {
	switch k {
	case ChangeAdded, ChangeReconnected:
		return add, nil
	case ChangeRemoved, ChangeDisconnected, ChangeDisabled, ChangeDestroyed:
		return remove, nil
	case ChangeEnabled, ChangeUsageChanged, ChangeConfigurationChanged, ChangeSoftReset, ChangeHardReset:
		return keep, nil
	default:
		return keep, fmt.Errorf("%w: change kind %q", ErrInvalidPlatformState, string(k))
	}
}

// Handle is an opaque platform device handle.
type Handle struct {
	// ID identifies one physical device instance. Two gamepads share a
	// Device but have different IDs.
	ID string `json:"id"`

	// Class is the platform's device class tag, e.g. "Keyboard" or
	// "XInputController".
	Class string `json:"class"`

	Product string `json:"product,omitempty"`
}

func (h Handle) key() string {
	if h.ID != "" {
		return h.ID
	}
	return h.Class
}

// Change describes the outcome of one device-change event.
type Change struct {
	Handle    Handle     `json:"handle"`
	Device    Device     `json:"device"`
	Kind      ChangeKind `json:"kind"`
	Connected []Device   `json:"connected"`
	Active    Device     `json:"active"`

	// MembershipChanged is set when the device joined or left the
	// connected set.
	MembershipChanged bool `json:"membership_changed"`
	ActiveChanged     bool `json:"active_changed"`
}
