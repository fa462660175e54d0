// errors.go
package pkgdesk

import (
	"errors"
	"fmt"

	"github.com/arc-language/pkgdesk/pkg/core"
)

var (
	// ErrUnsupportedBackend indicates the backend identifier is not one of the supported set
	ErrUnsupportedBackend = core.ErrUnsupportedBackend

	// ErrInvalidPackage indicates the package specification is invalid
	ErrInvalidPackage = core.ErrInvalidPackage

	// ErrBackendNotAvailable indicates the backend is not enabled or not installed
	ErrBackendNotAvailable = core.ErrBackendNotAvailable

	// ErrBinaryNotFound indicates a package manager or helper binary is missing
	ErrBinaryNotFound = core.ErrBinaryNotFound

	// ErrAuthenticationDenied indicates the user refused privilege escalation
	ErrAuthenticationDenied = core.ErrAuthenticationDenied

	// ErrCancelled indicates the operation was cancelled
	ErrCancelled = core.ErrCancelled

	// ErrClosed is returned by Run after Close
	ErrClosed = errors.New("manager closed")

	// ErrUnknownOperation indicates no in-flight operation has the given ID
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrDeclined indicates the user declined a required installation
	ErrDeclined = errors.New("installation declined")
)

// Error wraps an error with additional context
type Error struct {
	Op      string // Operation that failed
	Package string // Package name if applicable
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Package, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
