package binding

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is the declared value kind of an action.
type Kind string

// Supported action kinds.
const (
	// KindButton actions report a pressed/released state.
	KindButton Kind = "button"

	// KindValue actions report an arbitrary value (axis, vector, ...).
	KindValue Kind = "value"
)

// TagNotRebindable is the interaction tag that marks an action, or a single
// binding of an action, as not rebindable by the player.
const TagNotRebindable = "NotRebindable"

// groupSeparator splits the group-tag string of a raw binding.
const groupSeparator = ";"

// Schema is the immutable input schema: every action map, its actions and
// their raw binding sequences.
type Schema struct {
	Maps []MapDef `yaml:"maps"`
}

// MapDef declares one action map.
type MapDef struct {
	Name    string      `yaml:"name"`
	Actions []ActionDef `yaml:"actions"`
}

// ActionDef declares one action and its flat binding sequence.
type ActionDef struct {
	Name         string       `yaml:"name"`
	Kind         Kind         `yaml:"kind"`
	Interactions []string     `yaml:"interactions,omitempty"`
	Bindings     []RawBinding `yaml:"bindings"`
}

// RawBinding is one entry in an action's flat binding sequence.
//
// A composite marker (Composite=true) carries the composite type in Path,
// e.g. "2DVector". The entries that immediately follow it with
// PartOfComposite=true are its parts.
type RawBinding struct {
	Path            string   `yaml:"path"`
	Groups          string   `yaml:"groups,omitempty"`
	Name            string   `yaml:"name,omitempty"`
	Composite       bool     `yaml:"composite,omitempty"`
	PartOfComposite bool     `yaml:"part_of_composite,omitempty"`
	Interactions    []string `yaml:"interactions,omitempty"`
}

// GroupTags splits the raw group-tag string into its tags.
func (r RawBinding) GroupTags() []string {
	if strings.TrimSpace(r.Groups) == "" {
		return nil
	}
	var tags []string
	for _, g := range strings.Split(r.Groups, groupSeparator) {
		if g = strings.TrimSpace(g); g != "" {
			tags = append(tags, g)
		}
	}
	return tags
}

// HasTag reports whether the binding carries the interaction tag.
func (r RawBinding) HasTag(tag string) bool {
	return hasTag(r.Interactions, tag)
}

// HasTag reports whether the action carries the interaction tag.
func (a ActionDef) HasTag(tag string) bool {
	return hasTag(a.Interactions, tag)
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(strings.TrimSpace(t), tag) {
			return true
		}
	}
	return false
}

// LoadSchema reads and validates a schema file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return ParseSchema(data)
}

// ParseSchema parses and validates schema YAML.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks names, uniqueness and action kinds.
func (s *Schema) Validate() error {
	var errs []string
	maps := make(map[string]bool, len(s.Maps))
	for i, m := range s.Maps {
		if m.Name == "" {
			errs = append(errs, fmt.Sprintf("maps[%d]: name is required", i))
			continue
		}
		if maps[m.Name] {
			errs = append(errs, fmt.Sprintf("map %q: duplicate name", m.Name))
		}
		maps[m.Name] = true

		actions := make(map[string]bool, len(m.Actions))
		for j, a := range m.Actions {
			if a.Name == "" {
				errs = append(errs, fmt.Sprintf("map %q actions[%d]: name is required", m.Name, j))
				continue
			}
			if actions[a.Name] {
				errs = append(errs, fmt.Sprintf("map %q action %q: duplicate name", m.Name, a.Name))
			}
			actions[a.Name] = true

			switch a.Kind {
			case KindButton, KindValue:
			default:
				errs = append(errs, fmt.Sprintf("map %q action %q: unknown kind %q", m.Name, a.Name, a.Kind))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSchema, strings.Join(errs, "; "))
	}
	return nil
}
