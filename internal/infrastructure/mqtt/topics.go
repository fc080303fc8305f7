package mqtt

import "fmt"

// Topic prefixes for the input core.
//
// The input bridge (the process that owns the physical devices) publishes
// under graylogic/input/bridge; the core publishes its notifications under
// graylogic/input/core.
const (
	// TopicPrefix is the base of every input topic.
	TopicPrefix = "graylogic/input"

	// TopicPrefixBridge is the base for topics exchanged with the input bridge.
	TopicPrefixBridge = TopicPrefix + "/bridge"

	// TopicPrefixCore is the base for core notifications.
	TopicPrefixCore = TopicPrefix + "/core"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = TopicPrefix + "/system"
)

// Topics provides builders for input MQTT topics.
//
//	topic := mqtt.Topics{}.BridgeAction("Player", "Jump")
//	// Returns: "graylogic/input/bridge/action/Player/Jump"
type Topics struct{}

// =============================================================================
// Bridge Topics
// =============================================================================

// BridgeDevices returns the retained topic carrying the bridge's full list
// of connected device handles.
//
// Example: graylogic/input/bridge/devices
func (Topics) BridgeDevices() string {
	return fmt.Sprintf("%s/devices", TopicPrefixBridge)
}

// BridgeDeviceChange returns the topic for single device-change events.
//
// Example: graylogic/input/bridge/device
func (Topics) BridgeDeviceChange() string {
	return fmt.Sprintf("%s/device", TopicPrefixBridge)
}

// BridgeAction returns the topic carrying the current value of one action.
//
// Example: graylogic/input/bridge/action/Player/Jump
func (Topics) BridgeAction(mapName, action string) string {
	return fmt.Sprintf("%s/action/%s/%s", TopicPrefixBridge, mapName, action)
}

// BridgeOverride returns the topic the core pushes binding overrides to.
//
// Example: graylogic/input/bridge/override
func (Topics) BridgeOverride() string {
	return fmt.Sprintf("%s/override", TopicPrefixBridge)
}

// =============================================================================
// Core Topics
// =============================================================================

// CoreDevices returns the retained topic with the connected set and the
// active device.
//
// Example: graylogic/input/core/devices
func (Topics) CoreDevices() string {
	return fmt.Sprintf("%s/devices", TopicPrefixCore)
}

// CoreDeviceStatus returns the topic for one device's status change.
//
// Example: graylogic/input/core/device/gamepad/status
func (Topics) CoreDeviceStatus(device string) string {
	return fmt.Sprintf("%s/device/%s/status", TopicPrefixCore, device)
}

// CoreBinding returns the topic for applied binding overrides.
//
// Example: graylogic/input/core/binding/Player/Jump
func (Topics) CoreBinding(mapName, action string) string {
	return fmt.Sprintf("%s/binding/%s/%s", TopicPrefixCore, mapName, action)
}

// CoreReady returns the retained topic set once inputs are ready.
//
// Example: graylogic/input/core/ready
func (Topics) CoreReady() string {
	return fmt.Sprintf("%s/ready", TopicPrefixCore)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the online/offline status topic.
//
// Example: graylogic/input/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllBridgeActions matches every action value topic.
//
// Pattern: graylogic/input/bridge/action/+/+
func (Topics) AllBridgeActions() string {
	return fmt.Sprintf("%s/action/+/+", TopicPrefixBridge)
}

// AllCoreBindings matches every binding notification.
//
// Pattern: graylogic/input/core/binding/+/+
func (Topics) AllCoreBindings() string {
	return fmt.Sprintf("%s/binding/+/+", TopicPrefixCore)
}

// AllTopics matches every input topic.
//
// Pattern: graylogic/input/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
