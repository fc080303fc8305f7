package binding

// CompositePart is one physical binding slot of an action.
//
// A part built from the schema only has an original path. Applying an
// override sets OverridePath (possibly to "" for an explicit unbind) and
// the display label; the override then supersedes the original path for
// every lookup.
type CompositePart struct {
	ActionName    string   `json:"action"`
	OriginalPath  string   `json:"original_path"`
	OverridePath  string   `json:"override_path,omitempty"`
	HasOverride   bool     `json:"has_override"`
	DisplayLabel  string   `json:"display_label"`
	PartLabel     string   `json:"part_label,omitempty"`
	GroupTags     []string `json:"group_tags,omitempty"`
	NotRebindable bool     `json:"not_rebindable"`
	BindingIndex  int      `json:"binding_index"`
}

// NewPart builds a part from a raw schema binding. index is the binding's
// position in the action's flat binding sequence.
func NewPart(action string, raw RawBinding, index int, forcedNotRebindable bool) *CompositePart {
	return &CompositePart{
		ActionName:    action,
		OriginalPath:  raw.Path,
		DisplayLabel:  ToDisplay(raw.Path),
		PartLabel:     raw.Name,
		GroupTags:     raw.GroupTags(),
		NotRebindable: forcedNotRebindable,
		BindingIndex:  index,
	}
}

// Clone returns an independent copy of the part.
func (p *CompositePart) Clone() *CompositePart {
	if p == nil {
		return nil
	}
	cpy := *p
	if p.GroupTags != nil {
		cpy.GroupTags = make([]string, len(p.GroupTags))
		copy(cpy.GroupTags, p.GroupTags)
	}
	return &cpy
}

// EffectivePath returns the override path when one is set, else the
// original schema path.
func (p *CompositePart) EffectivePath() string {
	if p.HasOverride {
		return p.OverridePath
	}
	return p.OriginalPath
}

// IsUnbound reports whether the part is explicitly unbound.
func (p *CompositePart) IsUnbound() bool {
	return p.HasOverride && p.OverridePath == ""
}

// SetOverride records an override path and its display label.
func (p *CompositePart) SetOverride(internal, display string) {
	p.OverridePath = internal
	p.HasOverride = true
	p.DisplayLabel = display
}

// ClearOverride restores the original path and label.
func (p *CompositePart) ClearOverride() {
	p.OverridePath = ""
	p.HasOverride = false
	p.DisplayLabel = ToDisplay(p.OriginalPath)
}
