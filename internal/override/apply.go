package override

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/nerrad567/gray-logic-input/internal/binding"
)

// Committer pushes a binding override onto the externally owned action.
// An empty path unbinds the control.
type Committer interface {
	ApplyBindingOverride(mapName, action string, index int, path string) error
}

// Change is the computed new state of one part.
type Change struct {
	Record       Record `json:"record"`
	InternalPath string `json:"internal_path"`
	Display      string `json:"display"`
	Unbind       bool   `json:"unbind"`
	// Reset restores the schema path instead of setting an override.
	Reset bool `json:"reset"`
}

// Plan computes the change a record makes to a part. It returns false when
// the part's effective path already matches the record.
func Plan(part *binding.CompositePart, rec Record) (Change, bool) {
	if binding.PrettyPath(part.EffectivePath()) == rec.Bind {
		return Change{}, false
	}

	ch := Change{Record: rec}
	if rec.Unbind() {
		ch.Unbind = true
		ch.Display = binding.UnboundLabel
		return ch, true
	}
	ch.InternalPath = binding.ToInternal(rec.Bind)
	ch.Display = binding.ToDisplay(ch.InternalPath)
	return ch, true
}

// PlanReset computes the change that drops a part's override. It returns
// false when the part has none.
func PlanReset(mapName string, part *binding.CompositePart) (Change, bool) {
	if !part.HasOverride {
		return Change{}, false
	}
	return Change{
		Record: Record{
			Action: part.ActionName,
			Map:    mapName,
			Index:  part.BindingIndex,
			Bind:   binding.PrettyPath(part.OriginalPath),
		},
		InternalPath: part.OriginalPath,
		Display:      binding.ToDisplay(part.OriginalPath),
		Reset:        true,
	}, true
}

// Commit pushes the change to the platform and, only once that succeeds,
// mirrors it into the part. Callers serialize Commit with readers of the
// part so neither write is observed alone.
func Commit(c Committer, mapName string, part *binding.CompositePart, ch Change) error {
	if err := c.ApplyBindingOverride(mapName, part.ActionName, part.BindingIndex, ch.InternalPath); err != nil {
		return fmt.Errorf("pushing override for %s/%s[%d]: %w", mapName, part.ActionName, part.BindingIndex, err)
	}
	if ch.Reset {
		part.ClearOverride()
		return nil
	}
	part.SetOverride(ch.InternalPath, ch.Display)
	return nil
}

// Result summarises one pass over a set of records.
type Result struct {
	Applied []Change
	Skipped int
	Errors  []error
}

// Apply applies records to the live model. Each failure is scoped to its
// record; the rest still apply.
func Apply(schemes *binding.Schemes, c Committer, records []Record) Result {
	var res Result
	applyRecords(schemes, c, records, &res)
	return res
}

// Reconcile applies records and resets every overridden part the records no
// longer mention, so the live model ends up matching the file exactly.
func Reconcile(schemes *binding.Schemes, c Committer, records []Record) Result {
	var res Result
	seen := applyRecords(schemes, c, records, &res)

	schemes.Each(func(a *binding.ActionBinding, p *binding.CompositePart) {
		if seen[p] {
			return
		}
		ch, ok := PlanReset(a.Map, p)
		if !ok {
			return
		}
		if err := Commit(c, a.Map, p, ch); err != nil {
			res.Errors = append(res.Errors, recordError(ch.Record, err))
			return
		}
		res.Applied = append(res.Applied, ch)
	})
	return res
}

func applyRecords(schemes *binding.Schemes, c Committer, records []Record, res *Result) map[*binding.CompositePart]bool {
	seen := make(map[*binding.CompositePart]bool, len(records))
	for _, rec := range records {
		a, err := schemes.Find(rec.Action, rec.Map)
		if err != nil {
			res.Errors = append(res.Errors, recordError(rec, fmt.Errorf("%w: %w", ErrConfiguration, err)))
			continue
		}
		part, ok := a.Part(rec.Index)
		if !ok {
			res.Errors = append(res.Errors, recordError(rec,
				fmt.Errorf("%w: %w", ErrConfiguration, binding.ErrPartNotFound)))
			continue
		}
		seen[part] = true
		if part.NotRebindable {
			res.Errors = append(res.Errors, recordError(rec, ErrNotRebindable))
			continue
		}

		rec.Map = a.Map
		ch, ok := Plan(part, rec)
		if !ok {
			res.Skipped++
			continue
		}
		if err := Commit(c, a.Map, part, ch); err != nil {
			res.Errors = append(res.Errors, recordError(rec, err))
			continue
		}
		res.Applied = append(res.Applied, ch)
	}
	return seen
}

func recordError(rec Record, err error) error {
	var re *RecordError
	if errors.As(err, &re) {
		return err
	}
	return &RecordError{Action: rec.Action, Map: rec.Map, Index: strconv.Itoa(rec.Index), Err: err}
}

// Collect exports every live override as a record, in schema order.
func Collect(schemes *binding.Schemes) []Record {
	var out []Record
	schemes.Each(func(a *binding.ActionBinding, p *binding.CompositePart) {
		if !p.HasOverride {
			return
		}
		out = append(out, Record{
			Action: a.Name,
			Map:    a.Map,
			Index:  p.BindingIndex,
			Bind:   binding.PrettyPath(p.OverridePath),
		})
	})
	return out
}
