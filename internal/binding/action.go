package binding

import "fmt"

// BindingList is an ordered group of one or more parts. A simple binding
// has exactly one part; a composite groups the parts that follow its marker.
type BindingList struct {
	// Composite is the composite type ("2DVector", "ButtonWithOneModifier")
	// when the list was built from a composite marker, else empty.
	Composite string           `json:"composite,omitempty"`
	Parts     []*CompositePart `json:"parts"`
}

// IsComposite reports whether the list was built from a composite marker.
func (l BindingList) IsComposite() bool {
	return l.Composite != ""
}

// Len returns the number of parts.
func (l BindingList) Len() int {
	return len(l.Parts)
}

// Clone returns a copy with cloned parts.
func (l BindingList) Clone() BindingList {
	cpy := BindingList{Composite: l.Composite, Parts: make([]*CompositePart, len(l.Parts))}
	for i, p := range l.Parts {
		cpy.Parts[i] = p.Clone()
	}
	return cpy
}

// ActionBinding is the live model of one declared action.
type ActionBinding struct {
	Name          string        `json:"name"`
	Map           string        `json:"map"`
	Kind          Kind          `json:"kind"`
	NotRebindable bool          `json:"not_rebindable"`
	Lists         []BindingList `json:"bindings"`

	parts map[int]*CompositePart
}

// NewActionBinding builds the action's binding lists from its schema
// declaration.
func NewActionBinding(mapName string, def ActionDef) (*ActionBinding, error) {
	notRebindable := def.HasTag(TagNotRebindable)
	lists, err := GroupBindings(def.Name, def.Bindings, notRebindable)
	if err != nil {
		return nil, fmt.Errorf("map %q: %w", mapName, err)
	}

	a := &ActionBinding{
		Name:          def.Name,
		Map:           mapName,
		Kind:          def.Kind,
		NotRebindable: notRebindable,
		Lists:         lists,
	}
	a.index()
	return a, nil
}

// GroupBindings scans a flat binding sequence and groups composite parts
// under their marker.
//
// A composite marker consumes every immediately following part-of-composite
// entry and yields one list; any other entry yields a one-part list. A
// part-of-composite entry with no marker before it is kept as a standalone
// binding. A marker with no parts is an error.
func GroupBindings(action string, raws []RawBinding, actionNotRebindable bool) ([]BindingList, error) {
	newPart := func(i int) *CompositePart {
		forced := actionNotRebindable || raws[i].HasTag(TagNotRebindable)
		return NewPart(action, raws[i], i, forced)
	}

	lists := make([]BindingList, 0, len(raws))
	for i := 0; i < len(raws); i++ {
		if !raws[i].Composite {
			lists = append(lists, BindingList{Parts: []*CompositePart{newPart(i)}})
			continue
		}

		list := BindingList{Composite: raws[i].Path}
		j := i + 1
		for ; j < len(raws) && raws[j].PartOfComposite; j++ {
			list.Parts = append(list.Parts, newPart(j))
		}
		if len(list.Parts) == 0 {
			return nil, fmt.Errorf("%w: action %q binding %d (%s)", ErrEmptyComposite, action, i, raws[i].Path)
		}
		lists = append(lists, list)
		i = j - 1
	}
	return lists, nil
}

func (a *ActionBinding) index() {
	a.parts = make(map[int]*CompositePart)
	for _, l := range a.Lists {
		for _, p := range l.Parts {
			a.parts[p.BindingIndex] = p
		}
	}
}

// Part returns the live part at the flat binding index.
func (a *ActionBinding) Part(index int) (*CompositePart, bool) {
	p, ok := a.parts[index]
	return p, ok
}

// Parts returns the live parts in binding order.
func (a *ActionBinding) Parts() []*CompositePart {
	var out []*CompositePart
	for _, l := range a.Lists {
		out = append(out, l.Parts...)
	}
	return out
}

// IsButton reports whether the action is declared as a button.
func (a *ActionBinding) IsButton() bool {
	return a.Kind == KindButton
}

// Clone returns a deep copy that shares no parts with the live model.
func (a *ActionBinding) Clone() *ActionBinding {
	if a == nil {
		return nil
	}
	cpy := &ActionBinding{
		Name:          a.Name,
		Map:           a.Map,
		Kind:          a.Kind,
		NotRebindable: a.NotRebindable,
		Lists:         make([]BindingList, len(a.Lists)),
	}
	for i, l := range a.Lists {
		cpy.Lists[i] = l.Clone()
	}
	cpy.index()
	return cpy
}
