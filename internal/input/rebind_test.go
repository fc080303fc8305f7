package input

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-input/internal/binding"
	"github.com/nerrad567/gray-logic-input/internal/override"
)

func TestRebindPersists(t *testing.T) {
	f := readyFixture(t, "", keyboard)
	ctx := context.Background()

	ch, changed, err := f.h.Rebind(ctx, "Player", "Move", 1, "Keyboard.upArrow")
	if err != nil || !changed {
		t.Fatalf("Rebind() = %v, %v", changed, err)
	}
	if ch.InternalPath != "<Keyboard>/upArrow" || ch.Display != "Up Arrow" {
		t.Errorf("change = %+v", ch)
	}

	part, _ := f.h.Part("Player", "Move", 1)
	if part.EffectivePath() != "<Keyboard>/upArrow" {
		t.Errorf("EffectivePath() = %q", part.EffectivePath())
	}
	if p, _ := f.mem.Override("Player", "Move", 1); p != "<Keyboard>/upArrow" {
		t.Errorf("platform override = %q", p)
	}

	records, recErrs, err := override.NewStore(f.override).Load()
	if err != nil || len(recErrs) != 0 {
		t.Fatalf("Load() = %v, %v", recErrs, err)
	}
	want := override.Record{Action: "Move", Map: "Player", Index: 1, Bind: "Keyboard.upArrow"}
	if len(records) != 1 || records[0] != want {
		t.Errorf("persisted records = %+v, want [%+v]", records, want)
	}

	ev, _ := f.rec.last("binding")
	if ev.event.Source != override.SourceAPI || ev.event.Index != 1 {
		t.Errorf("binding event = %+v", ev.event)
	}
	if got := f.h.Overrides(); len(got) != 1 || got[0] != want {
		t.Errorf("Overrides() = %+v", got)
	}
}

func TestRebindSameBindIsNoop(t *testing.T) {
	f := readyFixture(t, "", keyboard)

	_, changed, err := f.h.Rebind(context.Background(), "Player", "Jump", 0, "Keyboard.w")
	if err != nil || changed {
		t.Errorf("Rebind() = %v, %v; want false, nil", changed, err)
	}
	if f.mem.Commits() != 0 {
		t.Errorf("Commits() = %d, want 0", f.mem.Commits())
	}
	if _, err := os.Stat(f.override); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("override file written for a no-op: %v", err)
	}
}

func TestRebindUnbind(t *testing.T) {
	f := readyFixture(t, "", keyboard)

	ch, changed, err := f.h.Rebind(context.Background(), "Player", "Jump", 1, binding.NullBinding)
	if err != nil || !changed {
		t.Fatalf("Rebind(null) = %v, %v", changed, err)
	}
	if !ch.Unbind || ch.Display != binding.UnboundLabel {
		t.Errorf("change = %+v", ch)
	}

	part, _ := f.h.Part("Player", "Jump", 1)
	if !part.IsUnbound() || part.DisplayLabel != "None" {
		t.Errorf("part = %+v", part)
	}
	if p, ok := f.mem.Override("Player", "Jump", 1); !ok || p != "" {
		t.Errorf("platform override = %q, %v; want empty path", p, ok)
	}

	records, _, _ := override.NewStore(f.override).Load()
	if len(records) != 1 || !records[0].Unbind() {
		t.Errorf("persisted records = %+v", records)
	}
}

func TestRebindErrors(t *testing.T) {
	f := readyFixture(t, "", keyboard)
	ctx := context.Background()

	tests := []struct {
		name    string
		mapName string
		action  string
		index   int
		bind    string
		wantErr error
	}{
		{"not rebindable", "UI", "Submit", 0, "Keyboard.Space", override.ErrNotRebindable},
		{"empty bind", "Player", "Jump", 0, "  ", override.ErrConfiguration},
		{"trailing dot", "Player", "Jump", 0, "Keyboard.", override.ErrConfiguration},
		{"empty segment", "Player", "Jump", 0, "a..b", override.ErrConfiguration},
		{"internal syntax", "Player", "Jump", 0, "<Keyboard>/Space", override.ErrConfiguration},
		{"missing part", "Player", "Jump", 7, "Keyboard.Space", binding.ErrPartNotFound},
		{"missing action", "Player", "Crouch", 0, "Keyboard.Space", binding.ErrActionNotFound},
		{"missing map", "Vehicle", "Jump", 0, "Keyboard.Space", binding.ErrMapNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, changed, err := f.h.Rebind(ctx, tt.mapName, tt.action, tt.index, tt.bind)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Rebind() error = %v, want %v", err, tt.wantErr)
			}
			if changed {
				t.Error("Rebind() reported a change on error")
			}
		})
	}
	if f.mem.Commits() != 0 {
		t.Errorf("Commits() = %d, want 0", f.mem.Commits())
	}
}

func TestRebindNotReady(t *testing.T) {
	f := newFixture(t, "", nil, keyboard)

	if _, _, err := f.h.Rebind(context.Background(), "Player", "Jump", 0, "Keyboard.Space"); !errors.Is(err, ErrNotReady) {
		t.Errorf("Rebind() error = %v, want ErrNotReady", err)
	}
	if _, err := f.h.ReloadOverrides(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("ReloadOverrides() error = %v, want ErrNotReady", err)
	}
}

func TestRebindCommitFailure(t *testing.T) {
	f := readyFixture(t, "", keyboard)
	boom := errors.New("platform rejected")
	f.mem.FailCommits(boom)

	_, changed, err := f.h.Rebind(context.Background(), "Player", "Jump", 0, "Keyboard.Space")
	if !errors.Is(err, boom) || changed {
		t.Fatalf("Rebind() = %v, %v; want false, %v", changed, err, boom)
	}

	part, _ := f.h.Part("Player", "Jump", 0)
	if part.HasOverride || part.EffectivePath() != "<Keyboard>/w" {
		t.Errorf("part changed after failed commit: %+v", part)
	}
	if _, ok := f.rec.last("binding"); ok {
		t.Error("binding notification sent for a failed commit")
	}
}

func TestRebindSaveFailure(t *testing.T) {
	f := readyFixture(t, "", keyboard)

	// A directory in place of the file makes the rename fail.
	if err := os.MkdirAll(filepath.Join(f.override, "blocker"), 0o750); err != nil {
		t.Fatal(err)
	}

	_, changed, err := f.h.Rebind(context.Background(), "Player", "Jump", 0, "Keyboard.Space")
	if err == nil {
		t.Fatal("Rebind() error = nil, want save error")
	}
	if !changed {
		t.Error("Rebind() changed = false; the live binding did change")
	}
	if part, _ := f.h.Part("Player", "Jump", 0); part.OverridePath != "<Keyboard>/Space" {
		t.Errorf("OverridePath = %q", part.OverridePath)
	}
	if _, ok := f.rec.last("binding"); !ok {
		t.Error("binding notification missing after save failure")
	}
}

func TestResetBinding(t *testing.T) {
	f := readyFixture(t, jumpOverrideYAML, keyboard)
	ctx := context.Background()

	ch, changed, err := f.h.ResetBinding(ctx, "Player", "Jump", 0)
	if err != nil || !changed {
		t.Fatalf("ResetBinding() = %v, %v", changed, err)
	}
	if !ch.Reset || ch.InternalPath != "<Keyboard>/w" {
		t.Errorf("change = %+v", ch)
	}

	part, _ := f.h.Part("Player", "Jump", 0)
	if part.HasOverride || part.DisplayLabel != "W" {
		t.Errorf("part = %+v", part)
	}
	if p, _ := f.mem.Override("Player", "Jump", 0); p != "<Keyboard>/w" {
		t.Errorf("platform override = %q, want the schema path", p)
	}
	if records, _, _ := override.NewStore(f.override).Load(); len(records) != 0 {
		t.Errorf("persisted records = %+v, want none", records)
	}

	// A second reset has nothing to drop.
	if _, changed, err := f.h.ResetBinding(ctx, "Player", "Jump", 0); changed || err != nil {
		t.Errorf("second ResetBinding() = %v, %v; want false, nil", changed, err)
	}
}

func TestReloadOverridesIdempotent(t *testing.T) {
	f := readyFixture(t, jumpOverrideYAML, keyboard)
	commits := f.mem.Commits()

	res, err := f.h.ReloadOverrides(context.Background())
	if err != nil {
		t.Fatalf("ReloadOverrides() error = %v", err)
	}
	if len(res.Applied) != 0 || res.Skipped != 1 {
		t.Errorf("result = %d applied, %d skipped; want 0, 1", len(res.Applied), res.Skipped)
	}
	if f.mem.Commits() != commits {
		t.Errorf("Commits() = %d, want %d", f.mem.Commits(), commits)
	}
}

func TestReloadOverridesReconciles(t *testing.T) {
	f := readyFixture(t, jumpOverrideYAML, keyboard)

	// Replace the file: Jump[0] is gone, Move[2] is new.
	next := `
actions:
  - name: Move
    map: Player
    bindings:
      - index: 2
        bind: Keyboard.downArrow
`
	if err := os.WriteFile(f.override, []byte(next), 0o600); err != nil {
		t.Fatal(err)
	}

	res, err := f.h.ReloadOverrides(context.Background())
	if err != nil {
		t.Fatalf("ReloadOverrides() error = %v", err)
	}
	if len(res.Applied) != 2 {
		t.Fatalf("Applied = %+v, want 2 changes", res.Applied)
	}

	jump, _ := f.h.Part("Player", "Jump", 0)
	if jump.HasOverride {
		t.Errorf("removed record still applied: %+v", jump)
	}
	move, _ := f.h.Part("Player", "Move", 2)
	if move.OverridePath != "<Keyboard>/downArrow" {
		t.Errorf("Move[2] OverridePath = %q", move.OverridePath)
	}
	if len(f.history.entries) != 3 {
		t.Errorf("history entries = %d, want 3", len(f.history.entries))
	}
}

func TestReloadOverridesBrokenFile(t *testing.T) {
	f := readyFixture(t, jumpOverrideYAML, keyboard)

	if err := os.WriteFile(f.override, []byte("actions: [oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := f.h.ReloadOverrides(context.Background()); !errors.Is(err, override.ErrConfiguration) {
		t.Errorf("ReloadOverrides() error = %v, want ErrConfiguration", err)
	}
	// The live model is untouched.
	if part, _ := f.h.Part("Player", "Jump", 0); part.OverridePath != "<Keyboard>/Space" {
		t.Errorf("OverridePath = %q", part.OverridePath)
	}
}

func TestSchemaAccessors(t *testing.T) {
	f := readyFixture(t, "", keyboard)

	if got := f.h.MapNames(); len(got) != 2 || got[0] != "Player" || got[1] != "UI" {
		t.Errorf("MapNames() = %v", got)
	}
	if got := len(f.h.Actions()); got != 4 {
		t.Errorf("len(Actions()) = %d, want 4", got)
	}

	a, err := f.h.Action("Player", "Jump")
	if err != nil {
		t.Fatalf("Action() error = %v", err)
	}
	// Copies do not alias the live model.
	p, _ := a.Part(0)
	p.SetOverride("<Keyboard>/x", "X")
	if live, _ := f.h.Part("Player", "Jump", 0); live.HasOverride {
		t.Error("mutating a copied action changed the live part")
	}
}

// gatedPlatform holds the first armed commit until release is closed.
type gatedPlatform struct {
	Platform
	armed   atomic.Bool
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedPlatform) ApplyBindingOverride(mapName, action string, index int, path string) error {
	if g.armed.Load() {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	return g.Platform.ApplyBindingOverride(mapName, action, index, path)
}

func TestReloadDuringRebindKeepsOverride(t *testing.T) {
	gate := &gatedPlatform{entered: make(chan struct{}), release: make(chan struct{})}
	f := newFixture(t, "", func(o *Options) {
		gate.Platform = o.Platform
		o.Platform = gate
	}, keyboard)
	ctx := context.Background()
	if err := f.h.Initialise(ctx); err != nil {
		t.Fatalf("Initialise() error = %v", err)
	}
	gate.armed.Store(true)

	rebindErr := make(chan error, 1)
	go func() {
		_, _, err := f.h.Rebind(ctx, "Player", "Jump", 0, "Keyboard.Space")
		rebindErr <- err
	}()
	<-gate.entered

	reloadErr := make(chan error, 1)
	go func() {
		_, err := f.h.ReloadOverrides(ctx)
		reloadErr <- err
	}()
	// Give the reload time to reach the file before the commit finishes.
	time.Sleep(50 * time.Millisecond)
	close(gate.release)

	if err := <-rebindErr; err != nil {
		t.Fatalf("Rebind() error = %v", err)
	}
	if err := <-reloadErr; err != nil {
		t.Fatalf("ReloadOverrides() error = %v", err)
	}

	part, err := f.h.Part("Player", "Jump", 0)
	if err != nil {
		t.Fatalf("Part() error = %v", err)
	}
	if part.EffectivePath() != "<Keyboard>/Space" {
		t.Errorf("live path = %q, want <Keyboard>/Space", part.EffectivePath())
	}
	if p, _ := f.mem.Override("Player", "Jump", 0); p != "<Keyboard>/Space" {
		t.Errorf("platform override = %q, want <Keyboard>/Space", p)
	}
	records, _, err := override.NewStore(f.override).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 1 || records[0].Bind != "Keyboard.Space" {
		t.Errorf("file records = %+v", records)
	}
}
