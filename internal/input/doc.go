// Package input is the orchestrator of the input core.
//
// A Handler builds the live binding model from the schema, discovers the
// connected devices, applies the persisted overrides and then exposes the
// read API. Start-up is two-phase:
//
//	New(...)         validate options (no I/O)
//	Initialise(ctx)  Building → DeviceDiscovery → OverridesApplied → Ready
//
// Device discovery and the override file load run concurrently. Overrides
// are applied only after discovery has published its "devices updated"
// notification, so observers always see devices before bindings. The
// states are linear and terminal; Ready is observable through State and
// the Ready channel.
//
// Reads issued before Ready return the zero value of their type instead of
// an error, so per-frame callers need no start-up special case:
//
//	jump, err := h.ReadButtonOnce(owner, "Jump", "Player")
//	move := input.ReadTyped[float64](h, "Move", "Player")
//
// The Handler is an explicitly constructed value passed to its consumers;
// there is no package-level instance.
package input
