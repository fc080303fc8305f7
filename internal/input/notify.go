package input

import (
	"time"

	"github.com/nerrad567/gray-logic-input/internal/device"
)

// BindingEvent describes an applied override change.
type BindingEvent struct {
	Map     string    `json:"map"`
	Action  string    `json:"action"`
	Index   int       `json:"index"`
	Bind    string    `json:"bind"`
	Path    string    `json:"path"`
	Display string    `json:"display"`
	Reset   bool      `json:"reset"`
	Source  string    `json:"source"`
	At      time.Time `json:"at"`
}

// Notifier receives the outward notifications of the handler. Calls are
// made synchronously from the goroutine that caused them; implementations
// must not block.
type Notifier interface {
	// DevicesUpdated carries the full connected set and the active device.
	DevicesUpdated(devices []device.Device, active device.Device)

	// DeviceStatusChanged carries one device-change event.
	DeviceStatusChanged(d device.Device, kind device.ChangeKind)

	// BindingOverridden carries one applied override change.
	BindingOverridden(ev BindingEvent)

	// InputsReady fires once, when the handler reaches Ready.
	InputsReady()
}

// Notifiers fans notifications out to several sinks in order.
type Notifiers []Notifier

func (ns Notifiers) DevicesUpdated(devices []device.Device, active device.Device) {
	for _, n := range ns {
		n.DevicesUpdated(devices, active)
	}
}

func (ns Notifiers) DeviceStatusChanged(d device.Device, kind device.ChangeKind) {
	for _, n := range ns {
		n.DeviceStatusChanged(d, kind)
	}
}

func (ns Notifiers) BindingOverridden(ev BindingEvent) {
	for _, n := range ns {
		n.BindingOverridden(ev)
	}
}

func (ns Notifiers) InputsReady() {
	for _, n := range ns {
		n.InputsReady()
	}
}

type nopNotifier struct{}

func (nopNotifier) DevicesUpdated([]device.Device, device.Device)        {}
func (nopNotifier) DeviceStatusChanged(device.Device, device.ChangeKind) {}
func (nopNotifier) BindingOverridden(BindingEvent)                       {}
func (nopNotifier) InputsReady()                                         {}
