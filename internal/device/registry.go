package device

import (
	"fmt"
	"slices"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry tracks connected devices and the active device.
//
// A device stays connected while at least one of its handles is connected,
// so unplugging one of two gamepads keeps Gamepad in the set.
//
// All public methods are thread-safe. Device-change events are serialised.
type Registry struct {
	mu         sync.RWMutex
	classifier *Classifier
	order      []Device                       // connected devices, insertion order
	handles    map[Device]map[string]struct{} // connected handle keys per device
	active     Device
	preferred  Device
	fallback   Device
	logger     Logger
}

// NewRegistry creates a registry. fallback is the configured default device
// used when no preference is connected; None disables it.
func NewRegistry(classifier *Classifier, fallback Device) *Registry {
	if classifier == nil {
		classifier = NewClassifier()
	}
	return &Registry{
		classifier: classifier,
		handles:    make(map[Device]map[string]struct{}),
		fallback:   fallback,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetPreferred records the remembered user preference. It takes part in
// the next resolution of the active device.
func (r *Registry) SetPreferred(d Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preferred = d
}

// SetFallback sets the configured default device.
func (r *Registry) SetFallback(d Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = d
}

// Preferred returns the remembered user preference.
func (r *Registry) Preferred() Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.preferred
}

// HandleChange applies one device-change event.
//
// It proceeds as follows:
//  1. Maps the kind to a membership change. Added and Reconnected add the
//     device; Removed, Disconnected, Disabled and Destroyed remove it; the
//     other known kinds change nothing
//  2. Classifies the handle. Handles of unknown class are ignored
//  3. Updates the connected set and resolves the active device if none
//     is active yet
//
// Parameters:
//   - h: The platform handle the event is about
//   - kind: The platform's change kind
//
// Returns:
//   - Change: What changed, for the caller to publish
//   - error: ErrInvalidPlatformState for an unrecognised kind, with the
//     state left untouched
func (r *Registry) HandleChange(h Handle, kind ChangeKind) (Change, error) {
	op, err := kind.membership()
	if err != nil {
		r.logger.Error("unrecognised device change", "kind", string(kind), "class", h.Class, "id", h.ID)
		return Change{}, err
	}

	d := r.classifier.Classify(h)

	r.mu.Lock()
	defer r.mu.Unlock()

	change := Change{Handle: h, Device: d, Kind: kind}
	if d == None {
		r.logger.Debug("ignoring unclassified device", "class", h.Class, "id", h.ID)
	} else {
		switch op {
		case add:
			change.MembershipChanged = r.addLocked(d, h.key())
		case remove:
			change.MembershipChanged = r.removeLocked(d, h.key())
		case keep:
		}
	}

	prev := r.active
	r.resolveLocked()
	change.Active = r.active
	change.ActiveChanged = prev != r.active
	change.Connected = slices.Clone(r.order)

	if change.ActiveChanged {
		r.logger.Info("active device resolved", "device", r.active.String())
	}
	return change, nil
}

func (r *Registry) addLocked(d Device, key string) bool {
	set, ok := r.handles[d]
	if !ok {
		set = make(map[string]struct{})
		r.handles[d] = set
	}
	set[key] = struct{}{}
	if slices.Contains(r.order, d) {
		return false
	}
	r.order = append(r.order, d)
	return true
}

func (r *Registry) removeLocked(d Device, key string) bool {
	set, ok := r.handles[d]
	if !ok {
		return false
	}
	delete(set, key)
	if len(set) > 0 {
		return false
	}
	delete(r.handles, d)
	r.order = slices.DeleteFunc(r.order, func(c Device) bool { return c == d })
	return true
}

// Sync adds every handle from an initial enumeration and then resolves the
// active device once, so the priority order applies across the whole set
// rather than to whichever device happened to be reported first.
func (r *Registry) Sync(handles []Handle) Change {
	r.mu.Lock()
	defer r.mu.Unlock()

	change := Change{Kind: ChangeAdded}
	for _, h := range handles {
		d := r.classifier.Classify(h)
		if d == None {
			r.logger.Debug("ignoring unclassified device", "class", h.Class, "id", h.ID)
			continue
		}
		if r.addLocked(d, h.key()) {
			change.MembershipChanged = true
		}
	}

	prev := r.active
	r.resolveLocked()
	change.Active = r.active
	change.ActiveChanged = prev != r.active
	change.Connected = slices.Clone(r.order)
	if change.ActiveChanged {
		r.logger.Info("active device resolved", "device", r.active.String())
	}
	return change
}

// resolveLocked picks the active device while none is resolved.
func (r *Registry) resolveLocked() {
	if r.active != None {
		return
	}
	switch {
	case r.preferred != None && slices.Contains(r.order, r.preferred):
		r.active = r.preferred
	case r.fallback != None && slices.Contains(r.order, r.fallback):
		r.active = r.fallback
	case len(r.order) > 0:
		r.active = r.order[0]
	}
}

// Switch makes d the active device. d must be connected.
func (r *Registry) Switch(d Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.order, d) {
		return fmt.Errorf("%w: %s", ErrNotConnected, d)
	}
	if r.active != d {
		r.logger.Info("active device switched", "from", r.active.String(), "to", d.String())
	}
	r.active = d
	return nil
}

// Active returns the active device, None until one resolves.
func (r *Registry) Active() Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Connected returns the connected devices in connection order.
func (r *Registry) Connected() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// IsConnected reports whether d is connected.
func (r *Registry) IsConnected(d Device) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Contains(r.order, d)
}

// Stats holds registry statistics.
type Stats struct {
	Connected int            `json:"connected"`
	Handles   map[string]int `json:"handles"`
	Active    Device         `json:"active"`
	Preferred Device         `json:"preferred"`
}

// GetStats returns handle counts per connected device.
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Stats{
		Connected: len(r.order),
		Handles:   make(map[string]int, len(r.handles)),
		Active:    r.active,
		Preferred: r.preferred,
	}
	for d, set := range r.handles {
		s.Handles[d.String()] = len(set)
	}
	return s
}
