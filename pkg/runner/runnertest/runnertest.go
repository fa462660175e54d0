// Package runnertest provides a scripted runner.Runner for tests.
package runnertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/arc-language/pkgdesk/pkg/core"
	"github.com/arc-language/pkgdesk/pkg/runner"
)

// Script describes how a matched command behaves
type Script struct {
	Lines    []runner.Line // Emitted in order by Start
	Output   string        // Returned by Output
	Err      error         // Returned by Wait or Output
	StartErr error         // Returned by Start or Output before anything runs

	// Release, when non-nil, holds the process open after its lines until
	// the channel is closed or the context is cancelled.
	Release chan struct{}
}

// Stdout builds stdout lines
func Stdout(lines ...string) []runner.Line {
	out := make([]runner.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, runner.Line{Text: l, Stream: core.StreamStdout})
	}
	return out
}

// Runner is a fake runner.Runner. Commands are matched against scripts by
// prefix on Key(cmd); the longest matching prefix wins.
type Runner struct {
	mu       sync.Mutex
	scripts  map[string]Script
	commands []runner.Command
	started  chan runner.Command
}

// New creates an empty fake runner; unmatched commands succeed silently
func New() *Runner {
	return &Runner{
		scripts: make(map[string]Script),
		started: make(chan runner.Command, 64),
	}
}

// On registers a script for commands whose key starts with prefix
func (r *Runner) On(prefix string, s Script) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts[prefix] = s
	return r
}

// Commands returns every command received so far
func (r *Runner) Commands() []runner.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]runner.Command(nil), r.commands...)
}

// Keys returns Key for every command received so far
func (r *Runner) Keys() []string {
	var keys []string
	for _, c := range r.Commands() {
		keys = append(keys, Key(c))
	}
	return keys
}

// Started delivers each command passed to Start, in order
func (r *Runner) Started() <-chan runner.Command {
	return r.started
}

// Key renders cmd with the base name of its program, e.g. "pkexec /usr/bin/pacman -S vim"
func Key(c runner.Command) string {
	return strings.Join(append([]string{c.Name()}, c.Args...), " ")
}

func (r *Runner) match(c runner.Command) Script {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, c)

	key := Key(c)
	best, found := "", false
	for prefix := range r.scripts {
		if strings.HasPrefix(key, prefix) && (!found || len(prefix) > len(best)) {
			best, found = prefix, true
		}
	}
	if !found {
		return Script{}
	}
	return r.scripts[best]
}

// Start implements runner.Runner
func (r *Runner) Start(ctx context.Context, c runner.Command) (runner.Process, error) {
	s := r.match(c)
	if s.StartErr != nil {
		return nil, s.StartErr
	}
	select {
	case r.started <- c:
	default:
	}

	p := &process{lines: make(chan runner.Line), done: make(chan struct{})}
	go func() {
		defer close(p.done)
		defer close(p.lines)
		for _, l := range s.Lines {
			select {
			case p.lines <- l:
			case <-ctx.Done():
				p.err = fmt.Errorf("%w: %s", core.ErrCancelled, c.Name())
				return
			}
		}
		if s.Release != nil {
			select {
			case <-s.Release:
			case <-ctx.Done():
				p.err = fmt.Errorf("%w: %s", core.ErrCancelled, c.Name())
				return
			}
		}
		p.err = s.Err
	}()
	return p, nil
}

// Output implements runner.Runner
func (r *Runner) Output(ctx context.Context, c runner.Command) (string, error) {
	s := r.match(c)
	if s.StartErr != nil {
		return "", s.StartErr
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %s", core.ErrCancelled, c.Name())
	}
	return s.Output, s.Err
}

type process struct {
	lines chan runner.Line
	done  chan struct{}
	err   error
}

func (p *process) Lines() <-chan runner.Line {
	return p.lines
}

func (p *process) Wait() error {
	<-p.done
	return p.err
}
