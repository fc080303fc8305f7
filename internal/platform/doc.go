// Package platform provides the device/action providers the input handler
// runs against.
//
// Memory is an in-process provider: tests, tools and the development mode
// of the service drive it directly. Bus mirrors an external input bridge
// over MQTT, keeping the bridge's device list and action values in a
// Memory and forwarding binding overrides back to the bridge.
package platform
