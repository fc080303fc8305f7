// Package binding holds the live model of action schemes built from the
// static input schema.
//
// The model is built once at startup and lives for the whole process:
//
//	Schema (YAML, immutable)
//	    │
//	    ▼
//	Schemes ──▶ ActionScheme (one per action map, e.g. "Player", "UI")
//	                 │
//	                 ▼
//	            ActionBinding (one per declared action, e.g. "Jump")
//	                 │
//	                 ▼
//	            BindingList (1 part = simple binding, >1 = composite)
//	                 │
//	                 ▼
//	            CompositePart (one physical control slot)
//
// Overrides mutate CompositePart fields in place after construction. The
// package does not lock anything itself: the owner of a Schemes value
// (the input handler) serializes writes and hands out clones to readers.
//
// # Paths
//
// Control paths exist in two syntaxes. The internal syntax used by the
// platform is "<Device>/control/sub", e.g. "<Keyboard>/space". The override
// syntax persisted to disk is dotted, e.g. "Keyboard.space". ToInternal and
// PrettyPath convert between the two and ToDisplay produces the label shown
// to players ("Left Shift" for "<Keyboard>/leftShift").
package binding
