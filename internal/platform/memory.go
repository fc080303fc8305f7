package platform

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/nerrad567/gray-logic-input/internal/device"
)

// DeviceChangeFunc receives device-change notifications.
type DeviceChangeFunc = func(h device.Handle, kind device.ChangeKind)

type actionKey struct {
	mapName string
	action  string
}

// OverrideKey identifies one pushed binding override.
type OverrideKey struct {
	Map    string
	Action string
	Index  int
}

// Memory is a thread-safe in-process platform. Device changes made through
// Connect, Disconnect and Emit are delivered synchronously to every watcher.
type Memory struct {
	mu sync.RWMutex

	handles []device.Handle
	values  map[actionKey]any
	pressed map[actionKey]bool

	overrides map[OverrideKey]string
	commits   int
	commitErr error

	devicesErr   error
	blockDevices bool

	watchers map[int]DeviceChangeFunc
	nextID   int
}

// NewMemory returns a Memory with the given devices already connected.
func NewMemory(handles ...device.Handle) *Memory {
	return &Memory{
		handles:   slices.Clone(handles),
		values:    make(map[actionKey]any),
		pressed:   make(map[actionKey]bool),
		overrides: make(map[OverrideKey]string),
		watchers:  make(map[int]DeviceChangeFunc),
	}
}

func handleKey(h device.Handle) string {
	if h.ID != "" {
		return h.ID
	}
	return h.Class
}

// Devices returns the connected handles. With BlockDevices set it waits for
// ctx instead.
func (m *Memory) Devices(ctx context.Context) ([]device.Handle, error) {
	m.mu.RLock()
	block, err := m.blockDevices, m.devicesErr
	handles := slices.Clone(m.handles)
	m.mu.RUnlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return handles, nil
}

// WatchDevices registers fn until the returned stop function is called.
func (m *Memory) WatchDevices(fn DeviceChangeFunc) (stop func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.watchers[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.watchers, id)
			m.mu.Unlock()
		})
	}
}

// Connect adds a device and notifies watchers with ChangeAdded.
func (m *Memory) Connect(h device.Handle) {
	m.addHandle(h)
	m.Emit(h, device.ChangeAdded)
}

// Disconnect removes a device and notifies watchers with ChangeRemoved.
func (m *Memory) Disconnect(h device.Handle) {
	m.removeHandle(h)
	m.Emit(h, device.ChangeRemoved)
}

func (m *Memory) addHandle(h device.Handle) {
	key := handleKey(h)
	m.mu.Lock()
	defer m.mu.Unlock()
	if slices.ContainsFunc(m.handles, func(c device.Handle) bool { return handleKey(c) == key }) {
		return
	}
	m.handles = append(m.handles, h)
}

func (m *Memory) removeHandle(h device.Handle) {
	key := handleKey(h)
	m.mu.Lock()
	m.handles = slices.DeleteFunc(m.handles, func(c device.Handle) bool {
		return handleKey(c) == key
	})
	m.mu.Unlock()
}

// SetDevices replaces the connected set without notifying watchers. It
// returns the handles that were not connected before and the ones that are
// gone, both keyed by handle ID.
func (m *Memory) SetDevices(handles []device.Handle) (added, removed []device.Handle) {
	next := make(map[string]bool, len(handles))
	for _, h := range handles {
		next[handleKey(h)] = true
	}

	m.mu.Lock()
	prev := make(map[string]bool, len(m.handles))
	for _, h := range m.handles {
		prev[handleKey(h)] = true
		if !next[handleKey(h)] {
			removed = append(removed, h)
		}
	}
	m.handles = slices.Clone(handles)
	m.mu.Unlock()

	for _, h := range handles {
		if !prev[handleKey(h)] {
			added = append(added, h)
		}
	}
	return added, removed
}

// Emit delivers a raw device-change event to every watcher.
func (m *Memory) Emit(h device.Handle, kind device.ChangeKind) {
	m.mu.RLock()
	fns := slices.Collect(maps.Values(m.watchers))
	m.mu.RUnlock()

	for _, fn := range fns {
		fn(h, kind)
	}
}

// Watchers returns the number of registered watchers.
func (m *Memory) Watchers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.watchers)
}

// SetValue sets the value reported for an action.
func (m *Memory) SetValue(mapName, action string, v any) {
	m.mu.Lock()
	m.values[actionKey{mapName, action}] = v
	m.mu.Unlock()
}

// ClearValue removes an action's value.
func (m *Memory) ClearValue(mapName, action string) {
	m.mu.Lock()
	delete(m.values, actionKey{mapName, action})
	m.mu.Unlock()
}

// SetPressed sets the pressed state of a button action.
func (m *Memory) SetPressed(mapName, action string, pressed bool) {
	m.mu.Lock()
	m.pressed[actionKey{mapName, action}] = pressed
	m.mu.Unlock()
}

// Value implements input.Platform.
func (m *Memory) Value(mapName, action string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[actionKey{mapName, action}]
	return v, ok
}

// Pressed implements input.Platform.
func (m *Memory) Pressed(mapName, action string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pressed[actionKey{mapName, action}]
}

// ApplyBindingOverride records the override. It fails with the error set by
// FailCommits, without recording anything.
func (m *Memory) ApplyBindingOverride(mapName, action string, index int, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitErr != nil {
		return m.commitErr
	}
	m.overrides[OverrideKey{Map: mapName, Action: action, Index: index}] = path
	m.commits++
	return nil
}

// Override returns the last path pushed for a binding part.
func (m *Memory) Override(mapName, action string, index int) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.overrides[OverrideKey{Map: mapName, Action: action, Index: index}]
	return p, ok
}

// Overrides returns a copy of every pushed override.
func (m *Memory) Overrides() map[OverrideKey]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.overrides)
}

// Commits returns the number of successful ApplyBindingOverride calls.
func (m *Memory) Commits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commits
}

// FailCommits makes ApplyBindingOverride return err; nil clears it.
func (m *Memory) FailCommits(err error) {
	m.mu.Lock()
	m.commitErr = err
	m.mu.Unlock()
}

// FailDevices makes Devices return err; nil clears it.
func (m *Memory) FailDevices(err error) {
	m.mu.Lock()
	m.devicesErr = err
	m.mu.Unlock()
}

// BlockDevices makes Devices wait for its context to end.
func (m *Memory) BlockDevices(block bool) {
	m.mu.Lock()
	m.blockDevices = block
	m.mu.Unlock()
}
