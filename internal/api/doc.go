// Package api implements the HTTP REST API and WebSocket server for the
// input core.
//
// This package provides:
//   - REST endpoints for lifecycle state, devices, the action model and
//     binding overrides
//   - WebSocket hub that relays handler notifications in real time
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
// The API server sits between a rebinding UI and the input handler. Rebind
// and reset requests go straight to the handler, which pushes them onto the
// platform and persists the override file. The Hub implements
// input.Notifier, so device changes, applied overrides and the ready event
// reach every subscribed WebSocket client as they happen.
//
// # WebSocket protocol
//
// Clients send {"type":"subscribe","id":"1","channels":["devices.updated"]}
// and receive events as {"type":"event","channel":...,"payload":...}. The
// devices.updated and inputs.ready channels are retained: a new subscriber
// gets their latest event straight after the acknowledgement.
//
// # Readiness
//
// Read endpoints answer at any point of the lifecycle. Mutating endpoints
// return 503 until the handler reaches Ready.
package api
