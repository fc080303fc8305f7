package notify

import (
	"time"

	"github.com/nerrad567/gray-logic-input/internal/device"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-input/internal/input"
)

// Logger defines the logging interface used by the sinks.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Publisher publishes JSON payloads. *mqtt.Client satisfies it.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// DevicesPayload is published (retained) on every devices-updated event.
type DevicesPayload struct {
	Devices   []device.Device `json:"devices"`
	Active    device.Device   `json:"active"`
	Timestamp time.Time       `json:"timestamp"`
}

// DeviceStatusPayload is published for one device-change event.
type DeviceStatusPayload struct {
	Device    device.Device     `json:"device"`
	Kind      device.ChangeKind `json:"kind"`
	Timestamp time.Time         `json:"timestamp"`
}

// ReadyPayload is published (retained) once inputs are ready.
type ReadyPayload struct {
	Ready     bool      `json:"ready"`
	Timestamp time.Time `json:"timestamp"`
}

// MQTT publishes handler notifications under graylogic/input/core.
type MQTT struct {
	pub    Publisher
	logger Logger
	now    func() time.Time
}

var _ input.Notifier = (*MQTT)(nil)

// NewMQTT returns an MQTT sink over pub.
func NewMQTT(pub Publisher) *MQTT {
	return &MQTT{pub: pub, logger: noopLogger{}, now: time.Now}
}

// SetLogger sets the logger for publish failures.
func (m *MQTT) SetLogger(logger Logger) {
	m.logger = logger
}

func (m *MQTT) publish(topic string, v any, retained bool) {
	if err := m.pub.PublishJSON(topic, v, retained); err != nil {
		m.logger.Warn("publishing input notification", "topic", topic, "error", err)
	}
}

// DevicesUpdated implements input.Notifier.
func (m *MQTT) DevicesUpdated(devices []device.Device, active device.Device) {
	if devices == nil {
		devices = []device.Device{}
	}
	m.publish(mqtt.Topics{}.CoreDevices(), DevicesPayload{
		Devices:   devices,
		Active:    active,
		Timestamp: m.now().UTC(),
	}, true)
}

// DeviceStatusChanged implements input.Notifier.
func (m *MQTT) DeviceStatusChanged(d device.Device, kind device.ChangeKind) {
	m.publish(mqtt.Topics{}.CoreDeviceStatus(d.String()), DeviceStatusPayload{
		Device:    d,
		Kind:      kind,
		Timestamp: m.now().UTC(),
	}, false)
}

// BindingOverridden implements input.Notifier.
func (m *MQTT) BindingOverridden(ev input.BindingEvent) {
	m.publish(mqtt.Topics{}.CoreBinding(ev.Map, ev.Action), ev, false)
}

// InputsReady implements input.Notifier.
func (m *MQTT) InputsReady() {
	m.publish(mqtt.Topics{}.CoreReady(), ReadyPayload{Ready: true, Timestamp: m.now().UTC()}, true)
}
