package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/nerrad567/gray-logic-input/internal/device"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/mqtt"
)

// pressThreshold is the value at which an analogue action counts as
// pressed when the bridge does not say.
const pressThreshold = 0.5

// Conn is the part of the MQTT client the bus needs. *mqtt.Client
// satisfies it.
type Conn interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	PublishJSON(topic string, v any, retained bool) error
}

// Logger defines the logging interface used by the Bus.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// DevicesMessage is the retained device list published by the bridge.
type DevicesMessage struct {
	Devices []device.Handle `json:"devices"`
}

// DeviceChangeMessage is one device-change event from the bridge.
type DeviceChangeMessage struct {
	Device device.Handle     `json:"device"`
	Kind   device.ChangeKind `json:"kind"`
}

// ActionMessage carries the current state of one action.
type ActionMessage struct {
	Value   any   `json:"value"`
	Pressed *bool `json:"pressed,omitempty"`
}

// OverrideMessage is pushed to the bridge for every binding override. An
// empty Path unbinds the control.
type OverrideMessage struct {
	Map    string `json:"map"`
	Action string `json:"action"`
	Index  int    `json:"index"`
	Path   string `json:"path"`
}

// Bus is a platform fed by an external input bridge over MQTT. Bridge
// state is mirrored into the embedded Memory; overrides are published to
// the bridge before they are recorded.
type Bus struct {
	*Memory

	conn   Conn
	qos    byte
	logger Logger

	synced     chan struct{}
	syncedOnce sync.Once

	mu     sync.Mutex
	topics []string
}

// NewBus returns a Bus over conn. Call Start to subscribe.
func NewBus(conn Conn, qos byte) *Bus {
	return &Bus{
		Memory: NewMemory(),
		conn:   conn,
		qos:    qos,
		logger: noopLogger{},
		synced: make(chan struct{}),
	}
}

// SetLogger sets the logger for bridge message problems.
func (b *Bus) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	b.logger = logger
}

// Start subscribes to the bridge topics.
func (b *Bus) Start() error {
	topics := mqtt.Topics{}
	subs := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{topics.BridgeDevices(), b.handleDevices},
		{topics.BridgeDeviceChange(), b.handleDeviceChange},
		{topics.AllBridgeActions(), b.handleAction},
	}

	for _, s := range subs {
		if err := b.conn.Subscribe(s.topic, b.qos, s.handler); err != nil {
			b.Stop()
			return fmt.Errorf("subscribing to %s: %w", s.topic, err)
		}
		b.mu.Lock()
		b.topics = append(b.topics, s.topic)
		b.mu.Unlock()
	}
	return nil
}

// Stop drops the bridge subscriptions.
func (b *Bus) Stop() {
	b.mu.Lock()
	topics := b.topics
	b.topics = nil
	b.mu.Unlock()

	for _, t := range topics {
		if err := b.conn.Unsubscribe(t); err != nil {
			b.logger.Warn("unsubscribing bridge topic", "topic", t, "error", err)
		}
	}
}

// Devices waits for the bridge's first device list, then returns the
// mirrored set.
func (b *Bus) Devices(ctx context.Context) ([]device.Handle, error) {
	select {
	case <-b.synced:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for bridge device list: %w", ctx.Err())
	}
	return b.Memory.Devices(ctx)
}

// ApplyBindingOverride publishes the override to the bridge and records it.
func (b *Bus) ApplyBindingOverride(mapName, action string, index int, path string) error {
	msg := OverrideMessage{Map: mapName, Action: action, Index: index, Path: path}
	if err := b.conn.PublishJSON(mqtt.Topics{}.BridgeOverride(), msg, false); err != nil {
		return fmt.Errorf("%w: %w", ErrBridgeUnavailable, err)
	}
	return b.Memory.ApplyBindingOverride(mapName, action, index, path)
}

func (b *Bus) handleDevices(_ string, payload []byte) error {
	var msg DevicesMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: devices: %w", ErrInvalidMessage, err)
	}
	added, removed := b.SetDevices(msg.Devices)
	b.syncedOnce.Do(func() { close(b.synced) })
	b.logger.Debug("bridge device list received",
		"count", len(msg.Devices), "added", len(added), "removed", len(removed))

	// A retained list can arrive again after a bridge restart.
	for _, h := range removed {
		b.Emit(h, device.ChangeRemoved)
	}
	for _, h := range added {
		b.Emit(h, device.ChangeAdded)
	}
	return nil
}

func (b *Bus) handleDeviceChange(_ string, payload []byte) error {
	var msg DeviceChangeMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: device change: %w", ErrInvalidMessage, err)
	}
	if msg.Kind == "" {
		return fmt.Errorf("%w: device change without kind", ErrInvalidMessage)
	}

	switch msg.Kind {
	case device.ChangeAdded, device.ChangeReconnected:
		b.addHandle(msg.Device)
	case device.ChangeRemoved, device.ChangeDisconnected, device.ChangeDisabled, device.ChangeDestroyed:
		b.removeHandle(msg.Device)
	}
	// Unknown kinds still reach the watchers, which reject them.
	b.Emit(msg.Device, msg.Kind)
	return nil
}

func (b *Bus) handleAction(topic string, payload []byte) error {
	mapName, action, ok := parseActionTopic(topic)
	if !ok {
		return fmt.Errorf("%w: action topic %q", ErrInvalidMessage, topic)
	}

	var msg ActionMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: action %s/%s: %w", ErrInvalidMessage, mapName, action, err)
	}

	if msg.Value == nil {
		b.ClearValue(mapName, action)
	} else {
		b.SetValue(mapName, action, msg.Value)
	}

	pressed := false
	switch v := msg.Value.(type) {
	case bool:
		pressed = v
	case float64:
		pressed = v >= pressThreshold
	}
	if msg.Pressed != nil {
		pressed = *msg.Pressed
	}
	b.SetPressed(mapName, action, pressed)
	return nil
}

// parseActionTopic extracts map and action from
// graylogic/input/bridge/action/{map}/{action}.
func parseActionTopic(topic string) (mapName, action string, ok bool) {
	rest, found := strings.CutPrefix(topic, mqtt.TopicPrefixBridge+"/action/")
	if !found {
		return "", "", false
	}
	mapName, action, ok = strings.Cut(rest, "/")
	if !ok || mapName == "" || action == "" || strings.Contains(action, "/") {
		return "", "", false
	}
	return mapName, action, true
}
