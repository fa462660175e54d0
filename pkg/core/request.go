package core

import (
	"fmt"
	"strings"
)

// Request describes one operation on one package
type Request struct {
	ID      string      // Operation ID, assigned by the manager when empty
	Backend BackendType // Which package manager handles the request
	Action  Action      // What to do
	Package string      // Target package; may be empty only for a full update
}

// Validate checks that the request can be turned into a command
func (r *Request) Validate() error {
	if !r.Backend.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedBackend, r.Backend)
	}
	if !r.Action.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedAction, r.Action)
	}

	name := strings.TrimSpace(r.Package)
	if name == "" {
		if r.Action == ActionUpdate {
			return nil
		}
		return fmt.Errorf("%w: package name is required for %s", ErrInvalidPackage, r.Action)
	}
	// Names go straight into argv; refuse anything that looks like a flag.
	if strings.HasPrefix(name, "-") || strings.ContainsAny(name, " \t\n") {
		return fmt.Errorf("%w: %q", ErrInvalidPackage, r.Package)
	}
	return nil
}

// UpdatesAll reports whether the request upgrades every package
func (r *Request) UpdatesAll() bool {
	return r.Action == ActionUpdate && strings.TrimSpace(r.Package) == ""
}

func (r Request) String() string {
	if r.UpdatesAll() {
		return fmt.Sprintf("%s %s (all packages)", r.Backend, r.Action)
	}
	return fmt.Sprintf("%s %s %s", r.Backend, r.Action, r.Package)
}
