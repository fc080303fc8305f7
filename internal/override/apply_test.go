package override

import (
	"errors"
	"testing"

	"github.com/nerrad567/gray-logic-input/internal/binding"
)

type commit struct {
	mapName string
	action  string
	index   int
	path    string
}

type fakeCommitter struct {
	commits []commit
	err     error
}

func (f *fakeCommitter) ApplyBindingOverride(mapName, action string, index int, path string) error {
	if f.err != nil {
		return f.err
	}
	f.commits = append(f.commits, commit{mapName, action, index, path})
	return nil
}

func testSchemes(t *testing.T) *binding.Schemes {
	t.Helper()
	schema := &binding.Schema{Maps: []binding.MapDef{{
		Name: "Player",
		Actions: []binding.ActionDef{
			{Name: "Jump", Kind: binding.KindButton, Bindings: []binding.RawBinding{
				{Path: "<Keyboard>/W"},
				{Path: "<Gamepad>/buttonSouth"},
			}},
			{Name: "Pause", Kind: binding.KindButton, Bindings: []binding.RawBinding{
				{Path: "<Keyboard>/escape", Interactions: []string{binding.TagNotRebindable}},
			}},
		},
	}}}
	s, err := binding.Build(schema)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return s
}

func TestApplyJumpScenario(t *testing.T) {
	s := testSchemes(t)
	c := &fakeCommitter{}

	res := Apply(s, c, []Record{{Action: "Jump", Map: "Player", Index: 0, Bind: "Keyboard.Space"}})
	if len(res.Errors) != 0 {
		t.Fatalf("Apply() errors = %v", res.Errors)
	}

	p, err := s.Part("Player", "Jump", 0)
	if err != nil {
		t.Fatal(err)
	}
	if p.OverridePath != "<Keyboard>/Space" {
		t.Errorf("OverridePath = %q, want %q", p.OverridePath, "<Keyboard>/Space")
	}
	if p.DisplayLabel != "Space" {
		t.Errorf("DisplayLabel = %q, want %q", p.DisplayLabel, "Space")
	}
	if len(c.commits) != 1 || c.commits[0] != (commit{"Player", "Jump", 0, "<Keyboard>/Space"}) {
		t.Errorf("commits = %+v", c.commits)
	}
}

func TestApplyIdempotent(t *testing.T) {
	s := testSchemes(t)
	c := &fakeCommitter{}
	records := []Record{
		{Action: "Jump", Map: "Player", Index: 0, Bind: "Keyboard.Space"},
		{Action: "Jump", Map: "Player", Index: 1, Bind: "null"},
	}

	Apply(s, c, records)
	first, _ := s.Part("Player", "Jump", 0)
	snapshot := *first.Clone()

	res := Apply(s, c, records)
	if len(c.commits) != 2 {
		t.Errorf("commits = %d after repeat, want 2", len(c.commits))
	}
	if res.Skipped != 2 || len(res.Applied) != 0 {
		t.Errorf("repeat result = %+v, want 2 skipped", res)
	}

	again, _ := s.Part("Player", "Jump", 0)
	if again.OverridePath != snapshot.OverridePath || again.DisplayLabel != snapshot.DisplayLabel {
		t.Errorf("part changed on repeat: %+v vs %+v", again, snapshot)
	}

	unbound, _ := s.Part("Player", "Jump", 1)
	if !unbound.IsUnbound() || unbound.DisplayLabel != binding.UnboundLabel {
		t.Errorf("unbound part = %+v", unbound)
	}
}

func TestApplyMatchingSchemaPathIsNoop(t *testing.T) {
	s := testSchemes(t)
	c := &fakeCommitter{}

	res := Apply(s, c, []Record{{Action: "Jump", Map: "Player", Index: 0, Bind: "Keyboard.W"}})
	if res.Skipped != 1 || len(c.commits) != 0 {
		t.Errorf("result = %+v commits = %d, want skip", res, len(c.commits))
	}
}

func TestApplyErrorsAreScoped(t *testing.T) {
	s := testSchemes(t)
	c := &fakeCommitter{}

	res := Apply(s, c, []Record{
		{Action: "Fly", Map: "Player", Index: 0, Bind: "Keyboard.F"},
		{Action: "Jump", Map: "Player", Index: 9, Bind: "Keyboard.F"},
		{Action: "Pause", Map: "Player", Index: 0, Bind: "Keyboard.P"},
		{Action: "Jump", Map: "", Index: 1, Bind: "Gamepad.buttonEast"},
	})

	if len(res.Errors) != 3 {
		t.Fatalf("errors = %v, want 3", res.Errors)
	}
	if !errors.Is(res.Errors[0], ErrConfiguration) || !errors.Is(res.Errors[0], binding.ErrActionNotFound) {
		t.Errorf("errors[0] = %v", res.Errors[0])
	}
	if !errors.Is(res.Errors[1], ErrConfiguration) || !errors.Is(res.Errors[1], binding.ErrPartNotFound) {
		t.Errorf("errors[1] = %v", res.Errors[1])
	}
	if !errors.Is(res.Errors[2], ErrNotRebindable) {
		t.Errorf("errors[2] = %v", res.Errors[2])
	}

	if len(res.Applied) != 1 || res.Applied[0].Record.Map != "Player" {
		t.Errorf("applied = %+v, want the record with an empty map resolved to Player", res.Applied)
	}
}

func TestCommitFailureLeavesPartUntouched(t *testing.T) {
	s := testSchemes(t)
	boom := errors.New("platform offline")
	c := &fakeCommitter{err: boom}

	res := Apply(s, c, []Record{{Action: "Jump", Map: "Player", Index: 0, Bind: "Keyboard.Space"}})
	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], boom) {
		t.Fatalf("errors = %v", res.Errors)
	}
	p, _ := s.Part("Player", "Jump", 0)
	if p.HasOverride {
		t.Error("part updated although the platform push failed")
	}
}

func TestReconcile(t *testing.T) {
	s := testSchemes(t)
	c := &fakeCommitter{}

	Apply(s, c, []Record{
		{Action: "Jump", Map: "Player", Index: 0, Bind: "Keyboard.Space"},
		{Action: "Jump", Map: "Player", Index: 1, Bind: "Gamepad.buttonEast"},
	})

	res := Reconcile(s, c, []Record{{Action: "Jump", Map: "Player", Index: 0, Bind: "Keyboard.Space"}})
	if len(res.Errors) != 0 {
		t.Fatalf("Reconcile() errors = %v", res.Errors)
	}
	if len(res.Applied) != 1 || !res.Applied[0].Reset {
		t.Fatalf("Reconcile() applied = %+v, want one reset", res.Applied)
	}

	p1, _ := s.Part("Player", "Jump", 1)
	if p1.HasOverride || p1.DisplayLabel != "Button South" {
		t.Errorf("part 1 = %+v, want schema binding restored", p1)
	}
	last := c.commits[len(c.commits)-1]
	if last.path != "<Gamepad>/buttonSouth" {
		t.Errorf("reset pushed %q, want schema path", last.path)
	}

	got := Collect(s)
	if len(got) != 1 || got[0] != (Record{Action: "Jump", Map: "Player", Index: 0, Bind: "Keyboard.Space"}) {
		t.Errorf("Collect() = %+v", got)
	}
}

func TestPlan(t *testing.T) {
	p := binding.NewPart("Jump", binding.RawBinding{Path: "<Keyboard>/W"}, 0, false)

	ch, ok := Plan(p, Record{Action: "Jump", Map: "Player", Bind: "Keyboard.leftShift"})
	if !ok {
		t.Fatal("Plan() = no change")
	}
	if ch.InternalPath != "<Keyboard>/leftShift" || ch.Display != "Left Shift" || ch.Unbind {
		t.Errorf("Plan() = %+v", ch)
	}
	if p.HasOverride {
		t.Error("Plan() must not mutate the part")
	}

	if _, ok := PlanReset("Player", p); ok {
		t.Error("PlanReset() on a part without override should be a no-op")
	}
}
