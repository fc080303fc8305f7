// Package override persists user-chosen binding overrides and reconciles
// them against the live binding model.
//
// The override file is a YAML tree with one node per overridden action and
// one child per overridden binding index:
//
//	actions:
//	  - name: Jump
//	    map: Player
//	    bindings:
//	      - index: 0
//	        bind: Keyboard.Space
//	      - index: 1
//	        bind: "null"
//
// "null" is an explicit unbind and is distinct from the absence of a record.
// A missing file means no overrides.
//
// Applying a record is split in two: Plan computes the new part state
// without side effects, and Commit pushes it to the platform and then
// mirrors it into the in-memory part. A record that matches the part's
// current effective path plans to nothing, so re-applying the same file
// commits zero times.
package override
