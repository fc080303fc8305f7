package input

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-input/internal/binding"
	"github.com/nerrad567/gray-logic-input/internal/device"
	"github.com/nerrad567/gray-logic-input/internal/override"
	"github.com/nerrad567/gray-logic-input/internal/platform"
)

func TestNewValidation(t *testing.T) {
	schema := &binding.Schema{}
	tests := []struct {
		name string
		opts Options
	}{
		{"missing schema", Options{Platform: platform.NewMemory()}},
		{"missing platform", Options{Schema: schema}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("New() error = %v, want ErrInvalidOptions", err)
			}
		})
	}
}

func TestInitialiseReachesReady(t *testing.T) {
	f := newFixture(t, jumpOverrideYAML, nil, keyboard)

	if f.h.State() != StateUninitialized {
		t.Fatalf("State() = %v, want uninitialized", f.h.State())
	}
	select {
	case <-f.h.Ready():
		t.Fatal("Ready() closed before Initialise")
	default:
	}

	if err := f.h.Initialise(context.Background()); err != nil {
		t.Fatalf("Initialise() error = %v", err)
	}

	if f.h.State() != StateReady {
		t.Errorf("State() = %v, want ready", f.h.State())
	}
	select {
	case <-f.h.Ready():
	default:
		t.Error("Ready() not closed after Initialise")
	}

	// Devices are reported before any override applies, and readiness last.
	if got, want := f.rec.names(), []string{"devices", "binding", "ready"}; !slices.Equal(got, want) {
		t.Errorf("notifications = %v, want %v", got, want)
	}
	devices, _ := f.rec.last("devices")
	if devices.state != StateDeviceDiscovery {
		t.Errorf("devices updated in state %v, want device_discovery", devices.state)
	}
	ready, _ := f.rec.last("ready")
	if ready.state != StateReady {
		t.Errorf("inputs ready in state %v, want ready", ready.state)
	}
}

func TestInitialiseTwice(t *testing.T) {
	f := readyFixture(t, "", keyboard)

	if err := f.h.Initialise(context.Background()); !errors.Is(err, ErrAlreadyInitialised) {
		t.Errorf("second Initialise() error = %v, want ErrAlreadyInitialised", err)
	}
}

func TestInitialiseAppliesOverrideFile(t *testing.T) {
	f := readyFixture(t, jumpOverrideYAML, keyboard)

	part, err := f.h.Part("Player", "Jump", 0)
	if err != nil {
		t.Fatalf("Part() error = %v", err)
	}
	if part.OverridePath != "<Keyboard>/Space" {
		t.Errorf("OverridePath = %q, want <Keyboard>/Space", part.OverridePath)
	}
	if part.DisplayLabel != "Space" {
		t.Errorf("DisplayLabel = %q, want Space", part.DisplayLabel)
	}
	if p, ok := f.mem.Override("Player", "Jump", 0); !ok || p != "<Keyboard>/Space" {
		t.Errorf("platform override = %q, %v", p, ok)
	}
	if f.mem.Commits() != 1 {
		t.Errorf("Commits() = %d, want 1", f.mem.Commits())
	}

	ev, _ := f.rec.last("binding")
	if ev.event.Source != override.SourceFile || ev.event.Display != "Space" {
		t.Errorf("binding event = %+v", ev.event)
	}
	if len(f.history.entries) != 1 || f.history.entries[0].source != override.SourceFile {
		t.Errorf("history = %+v", f.history.entries)
	}
}

func TestInitialiseWithBrokenOverrideFile(t *testing.T) {
	f := readyFixture(t, "actions: [not: valid", keyboard)

	if !f.h.IsReady() {
		t.Fatal("handler not ready after a broken override file")
	}
	if f.mem.Commits() != 0 {
		t.Errorf("Commits() = %d, want 0", f.mem.Commits())
	}
}

func TestInitialiseScopedRecordErrors(t *testing.T) {
	f := readyFixture(t, `
actions:
  - name: Jump
    map: Player
    bindings:
      - index: zero
        bind: Keyboard.Space
      - index: 1
        bind: Gamepad.buttonEast
  - name: Submit
    map: UI
    bindings:
      - index: 0
        bind: Keyboard.Space
  - name: Missing
    map: Player
    bindings:
      - index: 0
        bind: Keyboard.Space
`, keyboard)

	part, _ := f.h.Part("Player", "Jump", 1)
	if part.OverridePath != "<Gamepad>/buttonEast" {
		t.Errorf("valid record not applied: OverridePath = %q", part.OverridePath)
	}
	submit, _ := f.h.Part("UI", "Submit", 0)
	if submit.HasOverride {
		t.Error("not-rebindable part was overridden")
	}
	if f.mem.Commits() != 1 {
		t.Errorf("Commits() = %d, want 1", f.mem.Commits())
	}
}

func TestDiscoveryTimeout(t *testing.T) {
	f := newFixture(t, jumpOverrideYAML, func(o *Options) {
		o.DiscoveryTimeout = 20 * time.Millisecond
	}, keyboard)
	f.mem.BlockDevices(true)

	err := f.h.Initialise(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Initialise() error = %v, want DeadlineExceeded", err)
	}
	if f.h.State() != StateDeviceDiscovery {
		t.Errorf("State() = %v, want device_discovery", f.h.State())
	}
	if f.mem.Commits() != 0 {
		t.Errorf("overrides applied after failed discovery: %d commits", f.mem.Commits())
	}

	// Reads keep returning zero values.
	f.mem.SetPressed("Player", "Jump", true)
	if pressed, err := f.h.ReadButton("Jump", "Player"); pressed || err != nil {
		t.Errorf("ReadButton() = %v, %v; want false, nil", pressed, err)
	}
	if !errors.Is(f.h.Initialise(context.Background()), ErrAlreadyInitialised) {
		t.Error("Initialise() after failed discovery should not restart")
	}
}

func TestDiscoveryCancelled(t *testing.T) {
	f := newFixture(t, "", nil, keyboard)
	f.mem.BlockDevices(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.h.Initialise(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Initialise() error = %v, want Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Initialise() did not return after cancel")
	}
	if f.h.IsReady() {
		t.Error("IsReady() = true after cancelled discovery")
	}
}

func TestDiscoveryFailure(t *testing.T) {
	f := newFixture(t, "", nil, keyboard)
	boom := errors.New("bridge gone")
	f.mem.FailDevices(boom)

	if err := f.h.Initialise(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Initialise() error = %v, want %v", err, boom)
	}
}

func TestActiveDeviceResolution(t *testing.T) {
	tests := []struct {
		name      string
		preferred device.Device
		fallback  device.Device
		handles   []device.Handle
		want      device.Device
	}{
		{"preference wins", device.Joystick, device.Gamepad, []device.Handle{keyboard, pad, stick}, device.Joystick},
		{"fallback when preference absent", device.Joystick, device.Gamepad, []device.Handle{keyboard, pad}, device.Gamepad},
		{"first connected otherwise", device.Touch, device.Joystick, []device.Handle{pad, keyboard}, device.Gamepad},
		{"none connected", device.None, device.Gamepad, nil, device.None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "", func(o *Options) { o.DefaultDevice = tt.fallback }, tt.handles...)
			if tt.preferred != device.None {
				f.prefs.d, f.prefs.has = tt.preferred, true
			}
			if err := f.h.Initialise(context.Background()); err != nil {
				t.Fatalf("Initialise() error = %v", err)
			}
			if got := f.h.ActiveDevice(); got != tt.want {
				t.Errorf("ActiveDevice() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeviceChangesAfterReady(t *testing.T) {
	f := readyFixture(t, "", keyboard, mouse)

	if got := f.h.ConnectedDevices(); !slices.Equal(got, []device.Device{device.MouseKeyboard}) {
		t.Fatalf("ConnectedDevices() = %v", got)
	}

	f.mem.Connect(pad)

	status, ok := f.rec.last("status")
	if !ok || status.active != device.Gamepad || status.kind != device.ChangeAdded {
		t.Errorf("status notification = %+v, %v", status, ok)
	}
	if got := f.h.ConnectedDevices(); !slices.Equal(got, []device.Device{device.MouseKeyboard, device.Gamepad}) {
		t.Errorf("ConnectedDevices() = %v", got)
	}
	// Active stays on the first resolved device.
	if f.h.ActiveDevice() != device.MouseKeyboard {
		t.Errorf("ActiveDevice() = %v, want mouse_keyboard", f.h.ActiveDevice())
	}

	// Dropping one of two keyboard-class handles keeps the device connected.
	before := len(f.rec.names())
	f.mem.Disconnect(mouse)
	if f.h.DeviceStats().Handles["mouse_keyboard"] != 1 {
		t.Errorf("stats = %+v", f.h.DeviceStats())
	}
	if got := f.rec.names()[before:]; !slices.Equal(got, []string{"status"}) {
		t.Errorf("notifications after partial disconnect = %v, want [status]", got)
	}
}

func TestHandleDeviceChangeInvalidKind(t *testing.T) {
	f := readyFixture(t, "", keyboard)

	_, err := f.h.HandleDeviceChange(pad, device.ChangeKind("exploded"))
	if !errors.Is(err, device.ErrInvalidPlatformState) {
		t.Errorf("HandleDeviceChange() error = %v, want ErrInvalidPlatformState", err)
	}
	if f.h.DeviceStats().Connected != 1 {
		t.Errorf("invalid change altered the registry: %+v", f.h.DeviceStats())
	}
}

func TestSetPreferredDevice(t *testing.T) {
	f := readyFixture(t, "", keyboard, pad)

	if err := f.h.SetPreferredDevice(context.Background(), device.Gamepad); err != nil {
		t.Fatalf("SetPreferredDevice() error = %v", err)
	}
	if f.h.ActiveDevice() != device.Gamepad {
		t.Errorf("ActiveDevice() = %v, want gamepad", f.h.ActiveDevice())
	}
	if !f.prefs.has || f.prefs.d != device.Gamepad {
		t.Errorf("preference not saved: %+v", f.prefs)
	}
	if n, _ := f.rec.last("devices"); n.active != device.Gamepad {
		t.Errorf("devices notification active = %v, want gamepad", n.active)
	}

	// A disconnected preference is stored but does not switch.
	if err := f.h.SetPreferredDevice(context.Background(), device.Joystick); err != nil {
		t.Fatalf("SetPreferredDevice(joystick) error = %v", err)
	}
	if f.h.ActiveDevice() != device.Gamepad {
		t.Errorf("ActiveDevice() = %v, want gamepad", f.h.ActiveDevice())
	}

	if err := f.h.SetPreferredDevice(context.Background(), device.None); !errors.Is(err, device.ErrInvalidDevice) {
		t.Errorf("SetPreferredDevice(None) error = %v, want ErrInvalidDevice", err)
	}

	boom := errors.New("disk full")
	f.prefs.saveErr = boom
	if err := f.h.SetPreferredDevice(context.Background(), device.MouseKeyboard); !errors.Is(err, boom) {
		t.Errorf("SetPreferredDevice() error = %v, want %v", err, boom)
	}
	if f.h.ActiveDevice() != device.Gamepad {
		t.Error("failed save still switched the active device")
	}
}

func TestCloseStopsWatching(t *testing.T) {
	f := readyFixture(t, "", keyboard)

	if f.mem.Watchers() != 1 {
		t.Fatalf("Watchers() = %d, want 1", f.mem.Watchers())
	}
	f.h.Close()
	f.h.Close()
	if f.mem.Watchers() != 0 {
		t.Errorf("Watchers() after Close = %d, want 0", f.mem.Watchers())
	}
}

func TestNewOwnerIDUnique(t *testing.T) {
	f := newFixture(t, "", nil)
	a, b := f.h.NewOwnerID(), f.h.NewOwnerID()
	if a == "" || a == b {
		t.Errorf("NewOwnerID() = %q, %q", a, b)
	}
}

func TestNotifiersFanOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	ns := Notifiers{a, b}

	ns.DevicesUpdated(nil, device.Gamepad)
	ns.DeviceStatusChanged(device.Gamepad, device.ChangeAdded)
	ns.BindingOverridden(BindingEvent{Action: "Jump"})
	ns.InputsReady()

	want := []string{"devices", "status", "binding", "ready"}
	for i, r := range []*recorder{a, b} {
		if got := r.names(); !slices.Equal(got, want) {
			t.Errorf("notifier %d got %v, want %v", i, got, want)
		}
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateUninitialized, "uninitialized"},
		{StateBuilding, "building"},
		{StateDeviceDiscovery, "device_discovery"},
		{StateOverridesApplied, "overrides_applied"},
		{StateReady, "ready"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
