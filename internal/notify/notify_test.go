package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-input/internal/device"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-input/internal/input"
)

type message struct {
	topic    string
	payload  string
	retained bool
}

type fakePublisher struct {
	messages []message
	err      error
}

func (p *fakePublisher) PublishJSON(topic string, v any, retained bool) error {
	if p.err != nil {
		return p.err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.messages = append(p.messages, message{topic, string(data), retained})
	return nil
}

type warnLogger struct{ warns int }

func (l *warnLogger) Warn(string, ...any) { l.warns++ }

var fixedTime = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func newTestMQTT(pub Publisher) *MQTT {
	m := NewMQTT(pub)
	m.now = func() time.Time { return fixedTime }
	return m
}

func TestMQTTNotifications(t *testing.T) {
	ts := `"timestamp":"2026-10-17T12:00:00Z"`
	tests := []struct {
		name string
		emit func(m *MQTT)
		want message
	}{
		{
			name: "devices updated",
			emit: func(m *MQTT) {
				m.DevicesUpdated([]device.Device{device.MouseKeyboard, device.Gamepad}, device.Gamepad)
			},
			want: message{
				mqtt.Topics{}.CoreDevices(),
				`{"devices":["mouse_keyboard","gamepad"],"active":"gamepad",` + ts + `}`,
				true,
			},
		},
		{
			name: "devices updated empty",
			emit: func(m *MQTT) { m.DevicesUpdated(nil, device.None) },
			want: message{mqtt.Topics{}.CoreDevices(), `{"devices":[],"active":"none",` + ts + `}`, true},
		},
		{
			name: "device status",
			emit: func(m *MQTT) { m.DeviceStatusChanged(device.Joystick, device.ChangeRemoved) },
			want: message{
				"graylogic/input/core/device/joystick/status",
				`{"device":"joystick","kind":"removed",` + ts + `}`,
				false,
			},
		},
		{
			name: "inputs ready",
			emit: func(m *MQTT) { m.InputsReady() },
			want: message{mqtt.Topics{}.CoreReady(), `{"ready":true,` + ts + `}`, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			tt.emit(newTestMQTT(pub))
			if len(pub.messages) != 1 {
				t.Fatalf("published %d messages, want 1", len(pub.messages))
			}
			if pub.messages[0] != tt.want {
				t.Errorf("message = %+v\nwant      %+v", pub.messages[0], tt.want)
			}
		})
	}
}

func TestMQTTBindingOverridden(t *testing.T) {
	pub := &fakePublisher{}
	m := newTestMQTT(pub)

	m.BindingOverridden(input.BindingEvent{
		Map: "Player", Action: "Jump", Index: 0,
		Bind: "Keyboard.Space", Path: "<Keyboard>/Space", Display: "Space",
		Source: "api", At: fixedTime,
	})

	if len(pub.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.messages))
	}
	msg := pub.messages[0]
	if msg.topic != "graylogic/input/core/binding/Player/Jump" || msg.retained {
		t.Errorf("topic = %q retained = %v", msg.topic, msg.retained)
	}
	var ev input.BindingEvent
	if err := json.Unmarshal([]byte(msg.payload), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Path != "<Keyboard>/Space" || ev.Display != "Space" || ev.Source != "api" {
		t.Errorf("event = %+v", ev)
	}
}

func TestMQTTPublishFailureIsLogged(t *testing.T) {
	pub := &fakePublisher{err: mqtt.ErrNotConnected}
	logger := &warnLogger{}
	m := newTestMQTT(pub)
	m.SetLogger(logger)

	m.InputsReady()
	m.DeviceStatusChanged(device.Gamepad, device.ChangeAdded)

	if logger.warns != 2 {
		t.Errorf("warns = %d, want 2", logger.warns)
	}
}

type point struct {
	measurement string
	tags        map[string]string
	fields      map[string]any
}

type fakeWriter struct{ points []point }

func (w *fakeWriter) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	w.points = append(w.points, point{measurement, tags, fields})
}

func TestInfluxPoints(t *testing.T) {
	w := &fakeWriter{}
	var n input.Notifier = NewInflux(w, "site-001")

	n.DevicesUpdated([]device.Device{device.MouseKeyboard, device.Gamepad}, device.MouseKeyboard)
	n.DeviceStatusChanged(device.Gamepad, device.ChangeAdded)
	n.BindingOverridden(input.BindingEvent{Map: "Player", Action: "Jump", Index: 2, Bind: "null", Source: "file"})
	n.InputsReady()

	if len(w.points) != 4 {
		t.Fatalf("points = %d, want 4", len(w.points))
	}

	checks := []struct {
		i           int
		measurement string
		tag, value  string
		field       string
		fieldValue  any
	}{
		{0, MeasurementDevices, "active", "mouse_keyboard", "connected", 2},
		{1, MeasurementDeviceStatus, "kind", "added", "count", 1},
		{2, MeasurementBindingChanges, "index", "2", "bind", "null"},
		{3, MeasurementReady, "site", "site-001", "ready", true},
	}
	for _, c := range checks {
		p := w.points[c.i]
		if p.measurement != c.measurement {
			t.Errorf("point %d measurement = %q, want %q", c.i, p.measurement, c.measurement)
		}
		if p.tags[c.tag] != c.value {
			t.Errorf("point %d tag %s = %q, want %q", c.i, c.tag, p.tags[c.tag], c.value)
		}
		if p.tags["site"] != "site-001" {
			t.Errorf("point %d missing site tag", c.i)
		}
		if p.fields[c.field] != c.fieldValue {
			t.Errorf("point %d field %s = %v, want %v", c.i, c.field, p.fields[c.field], c.fieldValue)
		}
	}
}

func TestNotifiersFanOut(t *testing.T) {
	pub := &fakePublisher{}
	w := &fakeWriter{}
	fan := input.Notifiers{newTestMQTT(pub), NewInflux(w, "s")}

	fan.InputsReady()

	if len(pub.messages) != 1 || len(w.points) != 1 {
		t.Errorf("messages = %d, points = %d; want 1 each", len(pub.messages), len(w.points))
	}
}
