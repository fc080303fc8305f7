package binding

import "fmt"

// ActionScheme is the set of actions of one action map.
type ActionScheme struct {
	Name string

	actions []*ActionBinding
	byName  map[string]*ActionBinding
}

// NewScheme builds every action of an action map.
func NewScheme(def MapDef) (*ActionScheme, error) {
	s := &ActionScheme{
		Name:    def.Name,
		actions: make([]*ActionBinding, 0, len(def.Actions)),
		byName:  make(map[string]*ActionBinding, len(def.Actions)),
	}
	for _, a := range def.Actions {
		ab, err := NewActionBinding(def.Name, a)
		if err != nil {
			return nil, err
		}
		s.actions = append(s.actions, ab)
		s.byName[ab.Name] = ab
	}
	return s, nil
}

// Action returns the live action binding by name.
func (s *ActionScheme) Action(name string) (*ActionBinding, bool) {
	a, ok := s.byName[name]
	return a, ok
}

// Actions returns the live actions in schema order.
func (s *ActionScheme) Actions() []*ActionBinding {
	return s.actions
}

// Schemes is the full live model: every action scheme in schema order.
type Schemes struct {
	list   []*ActionScheme
	byName map[string]*ActionScheme
}

// Build constructs the live model from a schema.
func Build(schema *Schema) (*Schemes, error) {
	out := &Schemes{
		list:   make([]*ActionScheme, 0, len(schema.Maps)),
		byName: make(map[string]*ActionScheme, len(schema.Maps)),
	}
	for _, m := range schema.Maps {
		s, err := NewScheme(m)
		if err != nil {
			return nil, err
		}
		out.list = append(out.list, s)
		out.byName[s.Name] = s
	}
	return out, nil
}

// Scheme returns a scheme by action-map name.
func (s *Schemes) Scheme(name string) (*ActionScheme, bool) {
	sc, ok := s.byName[name]
	return sc, ok
}

// All returns the schemes in schema order.
func (s *Schemes) All() []*ActionScheme {
	return s.list
}

// Find locates an action. An empty map name searches every scheme in
// schema order and returns the first match.
func (s *Schemes) Find(action, mapName string) (*ActionBinding, error) {
	if mapName != "" {
		sc, ok := s.byName[mapName]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMapNotFound, mapName)
		}
		a, ok := sc.Action(action)
		if !ok {
			return nil, fmt.Errorf("%w: %q in map %q", ErrActionNotFound, action, mapName)
		}
		return a, nil
	}
	for _, sc := range s.list {
		if a, ok := sc.Action(action); ok {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrActionNotFound, action)
}

// Part locates a live part by its composite key.
func (s *Schemes) Part(mapName, action string, index int) (*CompositePart, error) {
	a, err := s.Find(action, mapName)
	if err != nil {
		return nil, err
	}
	p, ok := a.Part(index)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s[%d]", ErrPartNotFound, a.Map, action, index)
	}
	return p, nil
}

// Each calls fn for every live part, in schema order.
func (s *Schemes) Each(fn func(a *ActionBinding, p *CompositePart)) {
	for _, sc := range s.list {
		for _, a := range sc.actions {
			for _, p := range a.Parts() {
				fn(a, p)
			}
		}
	}
}
