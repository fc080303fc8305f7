// Package notify carries the input handler's notifications to the outside
// world: MQTT topics for other services and InfluxDB points for history.
// Both sinks implement input.Notifier and never block the caller on a
// failed delivery; failures are logged.
package notify
