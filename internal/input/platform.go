package input

import (
	"context"

	"github.com/nerrad567/gray-logic-input/internal/device"
	"github.com/nerrad567/gray-logic-input/internal/override"
)

// DeviceChangeFunc receives asynchronous device-change notifications.
type DeviceChangeFunc = func(h device.Handle, kind device.ChangeKind)

// Platform is the external device/action provider. The core never polls
// hardware itself; it reads action state and pushes binding overrides
// through this interface.
type Platform interface {
	override.Committer

	// Devices enumerates the currently connected device handles.
	Devices(ctx context.Context) ([]device.Handle, error)

	// WatchDevices registers fn for device-change notifications until the
	// returned function is called.
	WatchDevices(fn DeviceChangeFunc) (stop func())

	// Value returns the current value of an action. ok is false when the
	// platform has no value for it.
	Value(mapName, action string) (v any, ok bool)

	// Pressed reports the pressed state of a button action.
	Pressed(mapName, action string) bool
}
