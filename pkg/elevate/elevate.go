// Package elevate wraps commands that need root in a privilege escalation helper.
package elevate

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/juju/loggo"

	"github.com/arc-language/pkgdesk/pkg/core"
	"github.com/arc-language/pkgdesk/pkg/runner"
)

var logger = loggo.GetLogger("pkgdesk.elevate")

// Mode selects the escalation helper
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModePkexec Mode = "pkexec"
	ModeSudo   Mode = "sudo"
	ModeNone   Mode = "none"
)

// pkexec exit statuses, see pkexec(1)
const (
	pkexecDismissed    = 126
	pkexecUnauthorized = 127
)

// ParseMode converts a config value into a Mode; empty means auto
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModePkexec, ModeSudo, ModeNone:
		return m, nil
	default:
		return "", fmt.Errorf("unknown elevation mode %q", s)
	}
}

// Elevator prefixes commands with the resolved helper
type Elevator struct {
	mode Mode
	path string
}

// Options configures New
type Options struct {
	Mode     Mode
	Path     string                             // Explicit helper path, skips lookup
	LookPath func(file string) (string, error) // Defaults to exec.LookPath
	Geteuid  func() int                         // Defaults to os.Geteuid
}

// New resolves the helper. In auto mode root needs no helper, otherwise
// pkexec is preferred over sudo. A helper that cannot be found is not an
// error here; Wrap reports it when a privileged command is requested.
func New(opts Options) *Elevator {
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	geteuid := opts.Geteuid
	if geteuid == nil {
		geteuid = os.Geteuid
	}

	mode := opts.Mode
	if mode == "" {
		mode = ModeAuto
	}

	if mode == ModeAuto {
		switch {
		case geteuid() == 0:
			mode = ModeNone
		case found(lookPath, "pkexec"):
			mode = ModePkexec
		default:
			mode = ModeSudo
		}
	}

	e := &Elevator{mode: mode, path: opts.Path}
	if e.path == "" && mode != ModeNone {
		if p, err := lookPath(string(mode)); err == nil {
			e.path = p
		}
	}
	logger.Debugf("privilege escalation: mode=%s helper=%q", e.mode, e.path)
	return e
}

func found(lookPath func(string) (string, error), name string) bool {
	_, err := lookPath(name)
	return err == nil
}

// Mode returns the resolved mode; never ModeAuto
func (e *Elevator) Mode() Mode {
	return e.mode
}

// Wrap returns cmd prefixed with the helper
func (e *Elevator) Wrap(cmd runner.Command) (runner.Command, error) {
	switch e.mode {
	case ModeNone:
		return cmd, nil
	case ModePkexec, ModeSudo:
	default:
		return cmd, fmt.Errorf("unknown elevation mode %q", e.mode)
	}
	if e.path == "" {
		return cmd, fmt.Errorf("%w: %s", core.ErrBinaryNotFound, e.mode)
	}

	var args []string
	if e.mode == ModeSudo {
		// Non-interactive: there is no terminal to prompt on behind the UI
		args = append(args, "-n", "--")
	}
	args = append(args, cmd.Path)
	args = append(args, cmd.Args...)

	return runner.Command{
		Path: e.path,
		Args: args,
		Env:  cmd.Env,
		Dir:  cmd.Dir,
	}, nil
}

// Classify maps helper failures onto ErrAuthenticationDenied; other errors pass through
func (e *Elevator) Classify(err error) error {
	var exitErr *core.ExitError
	if err == nil || !errors.As(err, &exitErr) {
		return err
	}

	switch e.mode {
	case ModePkexec:
		if exitErr.Code == pkexecDismissed || exitErr.Code == pkexecUnauthorized {
			return fmt.Errorf("%w: %s exited with code %d", core.ErrAuthenticationDenied, e.mode, exitErr.Code)
		}
	case ModeSudo:
		stderr := strings.ToLower(exitErr.Stderr)
		if strings.Contains(stderr, "a password is required") ||
			strings.Contains(stderr, "incorrect password") ||
			strings.Contains(stderr, "is not in the sudoers file") {
			return fmt.Errorf("%w: %s", core.ErrAuthenticationDenied, strings.TrimSpace(exitErr.Stderr))
		}
	}
	return err
}
