package core

import (
	"fmt"
	"strings"
)

// Action is the kind of operation requested on a package
type Action string

const (
	ActionInstall Action = "install"
	ActionRemove  Action = "remove"
	ActionUpdate  Action = "update"
	ActionQuery   Action = "query"
)

// AllActions lists every supported action
var AllActions = []Action{ActionInstall, ActionRemove, ActionUpdate, ActionQuery}

// ParseAction converts a user supplied name into an Action.
// "uninstall" is accepted as an alias of remove.
func ParseAction(name string) (Action, error) {
	switch a := strings.ToLower(strings.TrimSpace(name)); a {
	case "uninstall":
		return ActionRemove, nil
	default:
		action := Action(a)
		if !action.Valid() {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedAction, name)
		}
		return action, nil
	}
}

// Valid reports whether a is one of the supported actions
func (a Action) Valid() bool {
	switch a {
	case ActionInstall, ActionRemove, ActionUpdate, ActionQuery:
		return true
	}
	return false
}

// Mutates reports whether the action changes system package state
func (a Action) Mutates() bool {
	return a == ActionInstall || a == ActionRemove || a == ActionUpdate
}

func (a Action) String() string {
	return string(a)
}
