// pkg/runner/exec.go
package runner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/arc-language/pkgdesk/pkg/core"
)

// Exec runs commands with os/exec, each in its own process group
type Exec struct {
	GracePeriod time.Duration
	TailLines   int
}

// New creates an Exec runner with default settings
func New() *Exec {
	return &Exec{
		GracePeriod: DefaultGracePeriod,
		TailLines:   DefaultTailLines,
	}
}

// Start implements Runner
func (e *Exec) Start(ctx context.Context, c Command) (Process, error) {
	cmd := e.command(c)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}

	logger.Debugf("starting %s", c)
	if err := cmd.Start(); err != nil {
		return nil, startError(c, err)
	}

	p := &execProcess{
		ctx:   ctx,
		cmd:   cmd,
		name:  c.Name(),
		lines: make(chan Line, 64),
		tail:  newTail(e.tailLines()),
		done:  make(chan struct{}),
	}

	p.readers.Add(2)
	go p.read(stdout, core.StreamStdout)
	go p.read(stderr, core.StreamStderr)
	go func() {
		p.readers.Wait()
		close(p.lines)
	}()
	go p.watch(e.gracePeriod())

	return p, nil
}

// Output implements Runner
func (e *Exec) Output(ctx context.Context, c Command) (string, error) {
	cmd := e.command(c)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = e.gracePeriod()

	logger.Tracef("running %s", c)
	if err := cmd.Start(); err != nil {
		return "", startError(c, err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			killGroup(cmd.Process.Pid, syscall.SIGKILL)
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	return stdout.String(), classify(ctx, c.Name(), waitErr, lastLines(stderr.String(), e.tailLines()))
}

func (e *Exec) command(c Command) *exec.Cmd {
	cmd := exec.Command(c.Path, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	// Own process group so cancellation reaches every child
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	return cmd
}

func (e *Exec) gracePeriod() time.Duration {
	if e.GracePeriod <= 0 {
		return DefaultGracePeriod
	}
	return e.GracePeriod
}

func (e *Exec) tailLines() int {
	if e.TailLines <= 0 {
		return DefaultTailLines
	}
	return e.TailLines
}

type execProcess struct {
	ctx     context.Context
	cmd     *exec.Cmd
	name    string
	lines   chan Line
	tail    *tail
	readers sync.WaitGroup
	done    chan struct{}

	once sync.Once
	err  error
}

func (p *execProcess) Lines() <-chan Line {
	return p.lines
}

func (p *execProcess) Wait() error {
	p.once.Do(func() {
		// Pipes must be fully read before cmd.Wait closes them
		p.readers.Wait()
		waitErr := p.cmd.Wait()
		close(p.done)
		p.err = classify(p.ctx, p.name, waitErr, p.tail.String())
		if p.err != nil {
			logger.Debugf("%s finished: %v", p.name, p.err)
		}
	})
	return p.err
}

func (p *execProcess) read(r io.Reader, stream core.Stream) {
	defer p.readers.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	scanner.Split(ScanLines)

	for scanner.Scan() {
		text := strings.TrimRight(scanner.Text(), " \t")
		if strings.TrimSpace(text) == "" {
			continue
		}
		if stream == core.StreamStderr {
			p.tail.Add(text)
		}
		p.lines <- Line{Text: text, Stream: stream}
	}
	if err := scanner.Err(); err != nil {
		logger.Warningf("reading %s output of %s: %v", stream, p.name, err)
		// Keep draining so the child never blocks on a full pipe
		io.Copy(io.Discard, r)
	}
}

// watch terminates the process group when the context is cancelled:
// SIGTERM first, SIGKILL once the grace period expires.
func (p *execProcess) watch(grace time.Duration) {
	select {
	case <-p.ctx.Done():
	case <-p.done:
		return
	}

	pid := p.cmd.Process.Pid
	logger.Debugf("cancelling %s (pgid %d)", p.name, pid)
	killGroup(pid, syscall.SIGTERM)

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-timer.C:
		logger.Warningf("%s ignored SIGTERM, sending SIGKILL", p.name)
		killGroup(pid, syscall.SIGKILL)
	case <-p.done:
	}
}

func killGroup(pid int, sig syscall.Signal) {
	if err := syscall.Kill(-pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		// An elevated child may not accept signals from us
		logger.Debugf("signalling process group %d: %v", pid, err)
	}
}

func startError(c Command, err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", core.ErrBinaryNotFound, c.Path)
	}
	return fmt.Errorf("starting %s: %w", c.Name(), err)
}

// classify maps a Wait error onto the core error taxonomy
func classify(ctx context.Context, name string, err error, stderr string) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %s", core.ErrCancelled, name)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return &core.CrashError{Command: name, Signal: status.Signal().String()}
		}
		return &core.ExitError{Command: name, Code: exitErr.ExitCode(), Stderr: stderr}
	}
	return fmt.Errorf("waiting for %s: %w", name, err)
}

// ScanLines is a bufio.SplitFunc that splits on '\n' and on bare '\r',
// so carriage-return progress bars yield one token per redraw.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func lastLines(s string, n int) string {
	t := newTail(n)
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			t.Add(strings.TrimRight(line, "\r"))
		}
	}
	return t.String()
}

// tail keeps the last n lines written to it
type tail struct {
	mu    sync.Mutex
	n     int
	lines []string
}

func newTail(n int) *tail {
	return &tail{n: n}
}

func (t *tail) Add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.n {
		t.lines = t.lines[len(t.lines)-t.n:]
	}
}

func (t *tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}
