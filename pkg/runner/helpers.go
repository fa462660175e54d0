// pkg/runner/helpers.go
package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/arc-language/pkgdesk/pkg/core"
)

// LookPathFunc matches exec.LookPath
type LookPathFunc func(file string) (string, error)

// Resolve returns the absolute path of file, mapping lookup failures to core.ErrBinaryNotFound.
// A nil lookPath uses exec.LookPath.
func Resolve(lookPath LookPathFunc, file string) (string, error) {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(file)
	if err != nil {
		return "", fmt.Errorf("%w: %s", core.ErrBinaryNotFound, file)
	}
	return path, nil
}

// OutputWithin runs cmd bounded by timeout; zero means no limit
func OutputWithin(ctx context.Context, r Runner, timeout time.Duration, cmd Command) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return r.Output(ctx, cmd)
}

// Succeeds reports whether cmd exits with status zero. Any non-zero exit
// is a plain false; only failures to run at all are errors.
func Succeeds(ctx context.Context, r Runner, timeout time.Duration, cmd Command) (bool, error) {
	_, err := OutputWithin(ctx, r, timeout, cmd)
	if err == nil {
		return true, nil
	}
	var exitErr *core.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, err
}
