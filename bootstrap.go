package pkgdesk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/arc-language/pkgdesk/pkg/core"
)

// ConfirmFunc asks the user whether a missing required package may be
// installed with backend b
type ConfirmFunc func(ctx context.Context, b core.BackendType, name string) (bool, error)

// BootstrapOptions configures the initial check
type BootstrapOptions struct {
	Backend  core.BackendType // Defaults to the preferred native backend
	Required []string         // Canonical package names
	FlagFile string           // Written on success; its presence skips the check
	Confirm  ConfirmFunc      // nil approves every installation
	OnEvent  func(core.Event) // Receives the events of each installation
}

// BootstrapDone reports whether the initial check already succeeded, and when
func BootstrapDone(flagFile string) (bool, time.Time) {
	if flagFile == "" {
		return false, time.Time{}
	}
	info, err := os.Stat(flagFile)
	if err != nil {
		return false, time.Time{}
	}
	return true, info.ModTime()
}

// Bootstrap makes sure the required packages are installed, one at a time.
// The first refusal or failure aborts the check without writing the flag file.
func (m *Manager) Bootstrap(ctx context.Context, opts BootstrapOptions) error {
	if done, at := BootstrapDone(opts.FlagFile); done {
		logger.Debugf("initial check already done on %s", at.Format(time.RFC3339))
		return nil
	}

	b := opts.Backend
	if b == "" {
		b = m.preferred
	}
	src, ok := m.backends[b]
	if !ok {
		return &Error{Op: "check", Err: fmt.Errorf("%w: %q", core.ErrBackendNotAvailable, b)}
	}

	for _, name := range opts.Required {
		installed, err := src.IsInstalled(ctx, m.registry.Resolve(name, b))
		if err != nil {
			return &Error{Op: "check", Package: name, Err: err}
		}
		if installed {
			logger.Debugf("required package %s is installed", name)
			continue
		}

		if opts.Confirm != nil {
			approved, err := opts.Confirm(ctx, b, name)
			if err != nil {
				return &Error{Op: "check", Package: name, Err: err}
			}
			if !approved {
				return &Error{Op: "check", Package: name, Err: ErrDeclined}
			}
		}

		logger.Infof("installing required package %s with %s", name, b)
		op, err := m.Run(ctx, core.Request{Backend: b, Action: core.ActionInstall, Package: name})
		if err != nil {
			return err
		}
		var result *core.Result
		for ev := range op.Events() {
			if opts.OnEvent != nil {
				opts.OnEvent(ev)
			}
			if ev.Done {
				result = ev.Result
			}
		}
		if !result.Success() {
			return &Error{Op: "check", Package: name, Err: result.Err}
		}
	}

	if opts.FlagFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.FlagFile), 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	stamp := time.Now().UTC().Format(time.RFC3339) + "\n"
	if err := os.WriteFile(opts.FlagFile, []byte(stamp), 0644); err != nil {
		return fmt.Errorf("writing flag file: %w", err)
	}
	return nil
}
