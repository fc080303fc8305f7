package input

// State is the handler lifecycle state. States only move forward.
type State int32

// Lifecycle states in order.
const (
	StateUninitialized State = iota
	StateBuilding
	StateDeviceDiscovery
	StateOverridesApplied
	StateReady
)

var stateNames = [...]string{
	StateUninitialized:    "uninitialized",
	StateBuilding:         "building",
	StateDeviceDiscovery:  "device_discovery",
	StateOverridesApplied: "overrides_applied",
	StateReady:            "ready",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
