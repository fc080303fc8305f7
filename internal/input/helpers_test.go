package input

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-input/internal/binding"
	"github.com/nerrad567/gray-logic-input/internal/device"
	"github.com/nerrad567/gray-logic-input/internal/override"
	"github.com/nerrad567/gray-logic-input/internal/platform"
)

const testSchemaYAML = `
maps:
  - name: Player
    actions:
      - name: Jump
        kind: button
        bindings:
          - path: <Keyboard>/w
            groups: Keyboard&Mouse
          - path: <Gamepad>/buttonSouth
            groups: Gamepad
      - name: Move
        kind: value
        bindings:
          - path: 2DVector
            composite: true
          - path: <Keyboard>/w
            name: up
            part_of_composite: true
          - path: <Keyboard>/s
            name: down
            part_of_composite: true
  - name: UI
    actions:
      - name: Submit
        kind: button
        interactions: [NotRebindable]
        bindings:
          - path: <Keyboard>/enter
      - name: Jump
        kind: button
        bindings:
          - path: <Keyboard>/j
`

const jumpOverrideYAML = `
actions:
  - name: Jump
    map: Player
    bindings:
      - index: 0
        bind: Keyboard.Space
`

var (
	keyboard = device.Handle{ID: "kbd-0", Class: "Keyboard"}
	mouse    = device.Handle{ID: "mouse-0", Class: "Mouse"}
	pad      = device.Handle{ID: "pad-0", Class: "XInputController"}
	stick    = device.Handle{ID: "stick-0", Class: "Joystick"}
)

type notification struct {
	name   string
	state  State
	active device.Device
	kind   device.ChangeKind
	event  BindingEvent
}

// recorder captures notifications together with the handler state at the
// time each one fired.
type recorder struct {
	mu     sync.Mutex
	h      *Handler
	events []notification
}

func (r *recorder) add(n notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.h != nil {
		n.state = r.h.State()
	}
	r.events = append(r.events, n)
}

func (r *recorder) DevicesUpdated(_ []device.Device, active device.Device) {
	r.add(notification{name: "devices", active: active})
}

func (r *recorder) DeviceStatusChanged(d device.Device, kind device.ChangeKind) {
	r.add(notification{name: "status", active: d, kind: kind})
}

func (r *recorder) BindingOverridden(ev BindingEvent) {
	r.add(notification{name: "binding", event: ev})
}

func (r *recorder) InputsReady() {
	r.add(notification{name: "ready"})
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.name)
	}
	return out
}

func (r *recorder) last(name string) (notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].name == name {
			return r.events[i], true
		}
	}
	return notification{}, false
}

type fakePrefs struct {
	mu      sync.Mutex
	d       device.Device
	has     bool
	saveErr error
}

func (p *fakePrefs) LoadPreferred(context.Context) (device.Device, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.has {
		return device.None, device.ErrPreferenceNotFound
	}
	return p.d, nil
}

func (p *fakePrefs) SavePreferred(_ context.Context, d device.Device) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saveErr != nil {
		return p.saveErr
	}
	p.d, p.has = d, true
	return nil
}

type historyEntry struct {
	change override.Change
	source string
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []historyEntry
}

func (f *fakeHistory) Record(_ context.Context, ch override.Change, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, historyEntry{ch, source})
	return nil
}

func (f *fakeHistory) Recent(context.Context, int) ([]override.HistoryEntry, error) {
	return nil, nil
}

type fixture struct {
	h        *Handler
	mem      *platform.Memory
	rec      *recorder
	prefs    *fakePrefs
	history  *fakeHistory
	override string
}

// newFixture builds an uninitialised handler over a Memory platform. The
// override file lives in a temp dir and holds overrides when non-empty.
func newFixture(t *testing.T, overrides string, mutate func(o *Options), handles ...device.Handle) *fixture {
	t.Helper()

	schema, err := binding.ParseSchema([]byte(testSchemaYAML))
	if err != nil {
		t.Fatalf("ParseSchema() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "overrides.yaml")
	if overrides != "" {
		if err := os.WriteFile(path, []byte(overrides), 0o600); err != nil {
			t.Fatalf("writing overrides: %v", err)
		}
	}

	f := &fixture{
		mem:      platform.NewMemory(handles...),
		rec:      &recorder{},
		prefs:    &fakePrefs{},
		history:  &fakeHistory{},
		override: path,
	}
	opts := Options{
		Schema:        schema,
		Platform:      f.mem,
		Store:         override.NewStore(path),
		Preferences:   f.prefs,
		History:       f.history,
		DefaultDevice: device.MouseKeyboard,
		Notifier:      f.rec,
	}
	if mutate != nil {
		mutate(&opts)
	}

	h, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	f.h = h
	f.rec.h = h
	t.Cleanup(h.Close)
	return f
}

// readyFixture is newFixture followed by a successful Initialise.
func readyFixture(t *testing.T, overrides string, handles ...device.Handle) *fixture {
	t.Helper()
	f := newFixture(t, overrides, nil, handles...)
	if err := f.h.Initialise(context.Background()); err != nil {
		t.Fatalf("Initialise() error = %v", err)
	}
	return f
}
