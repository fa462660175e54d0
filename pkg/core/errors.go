package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedBackend indicates the backend identifier is not one of the supported set
	ErrUnsupportedBackend = errors.New("unsupported backend")

	// ErrUnsupportedAction indicates the requested action is unknown
	ErrUnsupportedAction = errors.New("unsupported action")

	// ErrInvalidPackage indicates the package name is missing or malformed
	ErrInvalidPackage = errors.New("invalid package")

	// ErrBinaryNotFound indicates an external program is not installed
	ErrBinaryNotFound = errors.New("binary not found")

	// ErrBackendNotAvailable indicates the backend is supported but disabled or missing on this system
	ErrBackendNotAvailable = errors.New("backend not available")

	// ErrAuthenticationDenied indicates privilege escalation was refused or cancelled by the user
	ErrAuthenticationDenied = errors.New("authentication denied")

	// ErrProcessCrashed indicates the external process died from a signal
	ErrProcessCrashed = errors.New("process crashed")

	// ErrCancelled indicates the operation was cancelled by the caller
	ErrCancelled = errors.New("operation cancelled")
)

// ExitError reports an external process that exited with a non-zero status
type ExitError struct {
	Command string // Program that was run
	Code    int    // Exit status
	Stderr  string // Last lines written to stderr
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Command, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// CrashError reports an external process killed by a signal it was not asked to receive
type CrashError struct {
	Command string
	Signal  string
}

func (e *CrashError) Error() string {
	return fmt.Sprintf("%s terminated by signal %s", e.Command, e.Signal)
}

// Is makes errors.Is(err, ErrProcessCrashed) match any CrashError
func (e *CrashError) Is(target error) bool {
	return target == ErrProcessCrashed
}

// ExitCode extracts the exit status from err, or -1 when err carries none
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}
