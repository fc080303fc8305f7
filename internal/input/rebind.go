package input

import (
	"context"
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-input/internal/binding"
	"github.com/nerrad567/gray-logic-input/internal/override"
)

// Rebind overrides one binding part and persists the full override set.
// bind is a dotted path ("Keyboard.Space") or "null" to unbind. It reports
// false when the part already has that binding, in which case nothing is
// pushed or written.
func (h *Handler) Rebind(ctx context.Context, mapName, action string, index int, bind string) (override.Change, bool, error) {
	bind = strings.TrimSpace(bind)
	if err := override.ValidateBind(bind); err != nil {
		return override.Change{}, false, err
	}

	return h.mutate(ctx, mapName, action, index, func(a *binding.ActionBinding, p *binding.CompositePart) (override.Change, bool) {
		return override.Plan(p, override.Record{Action: a.Name, Map: a.Map, Index: index, Bind: bind})
	})
}

// ResetBinding drops the override of one binding part, restoring its
// schema path, and persists the remaining overrides.
func (h *Handler) ResetBinding(ctx context.Context, mapName, action string, index int) (override.Change, bool, error) {
	return h.mutate(ctx, mapName, action, index, func(a *binding.ActionBinding, p *binding.CompositePart) (override.Change, bool) {
		return override.PlanReset(a.Map, p)
	})
}

type planFunc func(a *binding.ActionBinding, p *binding.CompositePart) (override.Change, bool)

func (h *Handler) mutate(ctx context.Context, mapName, action string, index int, plan planFunc) (override.Change, bool, error) {
	if !h.IsReady() {
		return override.Change{}, false, ErrNotReady
	}

	h.saveMu.Lock()
	defer h.saveMu.Unlock()

	h.mu.Lock()
	a, err := h.schemes.Find(action, mapName)
	if err != nil {
		h.mu.Unlock()
		return override.Change{}, false, err
	}
	part, ok := a.Part(index)
	if !ok {
		h.mu.Unlock()
		return override.Change{}, false, fmt.Errorf("%w: %s/%s[%d]", binding.ErrPartNotFound, a.Map, a.Name, index)
	}
	if part.NotRebindable {
		h.mu.Unlock()
		return override.Change{}, false, fmt.Errorf("%w: %s/%s[%d]", override.ErrNotRebindable, a.Map, a.Name, index)
	}

	ch, changed := plan(a, part)
	if !changed {
		h.mu.Unlock()
		return ch, false, nil
	}
	if err := override.Commit(h.platform, a.Map, part, ch); err != nil {
		h.mu.Unlock()
		return override.Change{}, false, err
	}
	records := override.Collect(h.schemes)
	h.mu.Unlock()

	if err := h.store.Save(records); err != nil {
		// The live binding already changed; the file catches up on the
		// next successful save.
		h.logger.Error("saving overrides", "path", h.store.Path(), "error", err)
		h.publishChange(ctx, ch, override.SourceAPI)
		return ch, true, err
	}
	h.publishChange(ctx, ch, override.SourceAPI)
	return ch, true, nil
}

// ReloadOverrides re-reads the override file and reconciles the live model
// with it: new or changed records apply, parts no longer in the file go
// back to their schema path, unchanged records commit nothing.
func (h *Handler) ReloadOverrides(ctx context.Context) (override.Result, error) {
	if !h.IsReady() {
		return override.Result{}, ErrNotReady
	}

	// Serialised with Rebind and ResetBinding so a reload never reconciles
	// against a file read before their save landed.
	h.saveMu.Lock()
	defer h.saveMu.Unlock()

	records, recErrs, err := h.store.Load()
	if err != nil {
		return override.Result{}, err
	}

	h.mu.Lock()
	res := override.Reconcile(h.schemes, h.platform, records)
	h.mu.Unlock()

	res.Errors = append(recErrs, res.Errors...)
	h.reportResult(ctx, res, override.SourceFile)
	if len(res.Applied) > 0 {
		h.logger.Info("overrides reloaded", "applied", len(res.Applied), "skipped", res.Skipped)
	}
	return res, nil
}

// Overrides returns the live overrides as records.
func (h *Handler) Overrides() []override.Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.schemes == nil {
		return nil
	}
	return override.Collect(h.schemes)
}

// Actions returns a copy of every action, in schema order. It is empty
// before the model is built.
func (h *Handler) Actions() []*binding.ActionBinding {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.schemes == nil {
		return nil
	}
	var out []*binding.ActionBinding
	for _, s := range h.schemes.All() {
		for _, a := range s.Actions() {
			out = append(out, a.Clone())
		}
	}
	return out
}

// MapNames returns the action map names in schema order.
func (h *Handler) MapNames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.schemes == nil {
		return nil
	}
	names := make([]string, 0, len(h.schemes.All()))
	for _, s := range h.schemes.All() {
		names = append(names, s.Name)
	}
	return names
}

// Action returns a copy of one action.
func (h *Handler) Action(mapName, action string) (*binding.ActionBinding, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.schemes == nil {
		return nil, ErrNotReady
	}
	a, err := h.schemes.Find(action, mapName)
	if err != nil {
		return nil, err
	}
	return a.Clone(), nil
}

// Part returns a copy of one binding part.
func (h *Handler) Part(mapName, action string, index int) (*binding.CompositePart, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.schemes == nil {
		return nil, ErrNotReady
	}
	p, err := h.schemes.Part(mapName, action, index)
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}
