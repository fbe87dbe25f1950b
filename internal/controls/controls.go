// Package controls tracks the driving keys between frames.
package controls

import (
	"fmt"
	"strings"

	"github.com/lallassu/citydrive/internal/vehicle"
)

type Action int

const (
	ActionNone Action = iota
	ActionForward
	ActionBackward
	ActionLeft
	ActionRight
)

func (a Action) String() string {
	switch a {
	case ActionForward:
		return "forward"
	case ActionBackward:
		return "backward"
	case ActionLeft:
		return "left"
	case ActionRight:
		return "right"
	}
	return "none"
}

// State holds the instantaneous key flags. Writes come from window
// callbacks, reads from the frame loop; both run on the main thread.
type State struct {
	forward, backward, left, right bool
}

// Set records a press or release. Last write wins.
func (s *State) Set(a Action, down bool) {
	switch a {
	case ActionForward:
		s.forward = down
	case ActionBackward:
		s.backward = down
	case ActionLeft:
		s.left = down
	case ActionRight:
		s.right = down
	}
}

// Reset releases every key. Called when the window loses focus so a key
// released elsewhere does not stay held.
func (s *State) Reset() {
	*s = State{}
}

// Snapshot returns the flags as an integrator input.
func (s *State) Snapshot() vehicle.Input {
	return vehicle.Input{
		Forward:  s.forward,
		Backward: s.backward,
		Left:     s.left,
		Right:    s.right,
	}
}

// Bindings maps key names (upper-case, e.g. "W", "UP") to actions.
type Bindings map[string]Action

func DefaultBindings() Bindings {
	return Bindings{
		"W": ActionForward,
		"S": ActionBackward,
		"A": ActionLeft,
		"D": ActionRight,
	}
}

// ParseBindings builds a table from action name to key name, as found in
// the config file. Unset actions keep their default key.
func ParseBindings(byAction map[string]string) (Bindings, error) {
	keys := map[Action]string{
		ActionForward:  "W",
		ActionBackward: "S",
		ActionLeft:     "A",
		ActionRight:    "D",
	}
	for name, key := range byAction {
		a := actionByName(name)
		if a == ActionNone {
			return nil, fmt.Errorf("unknown control action %q", name)
		}
		if key == "" {
			continue
		}
		keys[a] = strings.ToUpper(key)
	}

	b := make(Bindings, len(keys))
	for a, key := range keys {
		if prev, ok := b[key]; ok {
			return nil, fmt.Errorf("key %q bound to both %s and %s", key, prev, a)
		}
		b[key] = a
	}
	return b, nil
}

// Lookup returns the action bound to key, or ActionNone.
func (b Bindings) Lookup(key string) Action {
	return b[strings.ToUpper(key)]
}

func actionByName(name string) Action {
	switch strings.ToLower(name) {
	case "forward":
		return ActionForward
	case "backward":
		return ActionBackward
	case "left":
		return ActionLeft
	case "right":
		return ActionRight
	}
	return ActionNone
}
