package crucible

import (
	"fmt"
	"strings"

	"github.com/algorand/go-algorand-sdk/v2/types"
)

// Action identifies the on-completion effect an application call requests.
// Values match the on-chain OnCompletion enumeration. Value 3 (clear state)
// is absent: clear-state calls never reach the approval program and are
// handled by the dedicated clear-state program instead.
type Action uint8

const (
	// NoOp is a plain application call with no lifecycle effect.
	NoOp Action = 0

	// OptIn allocates the caller's local state for the application.
	OptIn Action = 1

	// CloseOut releases the caller's local state.
	CloseOut Action = 2

	// UpdateApplication replaces the application's programs.
	UpdateApplication Action = 4

	// DeleteApplication removes the application.
	DeleteApplication Action = 5
)

// routableActions lists every action the approval program can dispatch on,
// in on-chain value order.
var routableActions = [...]Action{NoOp, OptIn, CloseOut, UpdateApplication, DeleteApplication}

const routableMask = 1<<NoOp | 1<<OptIn | 1<<CloseOut | 1<<UpdateApplication | 1<<DeleteApplication

var actionNames = map[Action]string{
	NoOp:              "NoOp",
	OptIn:             "OptIn",
	CloseOut:          "CloseOut",
	UpdateApplication: "UpdateApplication",
	DeleteApplication: "DeleteApplication",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action_%d", uint8(a))
}

// OnCompletion converts the action to the SDK's transaction enumeration.
func (a Action) OnCompletion() types.OnCompletion {
	return types.OnCompletion(a)
}

func (a Action) routable() bool {
	_, ok := actionNames[a]
	return ok
}

// Actions is a set of completion actions, one bit per on-chain value.
type Actions uint8

// ActionsOf builds a set from the given actions.
func ActionsOf(actions ...Action) Actions {
	var s Actions
	for _, a := range actions {
		s |= 1 << a
	}
	return s
}

// Has reports whether the set contains the action.
func (s Actions) Has(a Action) bool {
	return s&(1<<a) != 0
}

// List returns the routable actions in the set in on-chain value order.
func (s Actions) List() []Action {
	out := make([]Action, 0, len(routableActions))
	for _, a := range routableActions {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

// Count reports the number of routable actions in the set.
func (s Actions) Count() int {
	return len(s.List())
}

// unknown returns the bits that do not correspond to routable actions.
func (s Actions) unknown() Actions {
	return s &^ routableMask
}

func (s Actions) String() string {
	names := make([]string, 0, len(routableActions))
	for _, a := range s.List() {
		names = append(names, a.String())
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}
