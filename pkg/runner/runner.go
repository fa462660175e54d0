// pkg/runner/runner.go
package runner

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/juju/loggo"

	"github.com/arc-language/pkgdesk/pkg/core"
)

var logger = loggo.GetLogger("pkgdesk.runner")

const (
	// DefaultGracePeriod is how long a cancelled process group gets between SIGTERM and SIGKILL
	DefaultGracePeriod = 5 * time.Second

	// DefaultTailLines is how many stderr lines are kept for ExitError
	DefaultTailLines = 20

	// maxLineSize bounds a single output line; longer lines are dropped
	maxLineSize = 1024 * 1024
)

// Command is a program invocation
type Command struct {
	Path string   // Program, absolute or looked up on PATH
	Args []string // Arguments, not including the program itself
	Env  []string // Extra environment entries appended to the current environment
	Dir  string   // Working directory; empty means the current one
}

// Name returns the base name of the program
func (c Command) Name() string {
	return filepath.Base(c.Path)
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Line is one line of process output
type Line struct {
	Text   string
	Stream core.Stream
}

// Process is a started command
type Process interface {
	// Lines yields stdout and stderr lines as they are produced.
	// The channel is closed once both streams reach EOF and must be
	// drained before Wait can return.
	Lines() <-chan Line

	// Wait blocks until the process exits and returns the classified error
	Wait() error
}

// Runner starts external programs
type Runner interface {
	// Start launches cmd and streams its output. Cancelling ctx terminates
	// the whole process group.
	Start(ctx context.Context, cmd Command) (Process, error)

	// Output runs cmd to completion and returns its stdout. On an
	// *core.ExitError the captured stdout is still returned.
	Output(ctx context.Context, cmd Command) (string, error)
}
