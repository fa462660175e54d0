package pkgdesk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/arc-language/pkgdesk/pkg/backend"
	"github.com/arc-language/pkgdesk/pkg/core"
	"github.com/arc-language/pkgdesk/pkg/progress"
)

// Operation is one in-flight request. Its events must be received until
// the channel is closed, or Wait must be called.
type Operation struct {
	ID      string
	Request core.Request
	Started time.Time

	events chan core.Event
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	seq    int
	result *core.Result
}

func newOperation(req core.Request, cancel context.CancelFunc, buffer int) *Operation {
	return &Operation{
		ID:      req.ID,
		Request: req,
		Started: time.Now(),
		events:  make(chan core.Event, buffer),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Events delivers progress events in order. The last event has Done set
// and carries the Result; the channel is closed right after it.
func (o *Operation) Events() <-chan core.Event {
	return o.events
}

// Cancel stops the operation. The process group receives SIGTERM, and
// SIGKILL if it outlives the grace period.
func (o *Operation) Cancel() {
	o.cancel()
}

// Done is closed once the operation finished
func (o *Operation) Done() <-chan struct{} {
	return o.done
}

// Wait discards events not yet received and returns the result
func (o *Operation) Wait() *core.Result {
	for range o.events {
	}
	<-o.done
	return o.Result()
}

// Result returns the final result, nil while running
func (o *Operation) Result() *core.Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// emit stamps ev and delivers it. Intermediate events are dropped once ctx
// is done so a cancelled operation never waits on a slow reader.
func (o *Operation) emit(ctx context.Context, ev core.Event) {
	o.mu.Lock()
	o.seq++
	ev.Seq = o.seq
	o.mu.Unlock()

	ev.OperationID = o.ID
	ev.Time = time.Now()
	ev.Backend = o.Request.Backend
	ev.Action = o.Request.Action
	ev.Package = o.Request.Package

	if ev.Done {
		o.events <- ev
		return
	}
	select {
	case o.events <- ev:
	case <-ctx.Done():
	}
}

func (m *Manager) execute(ctx context.Context, op *Operation, b backend.Backend) {
	defer m.wg.Done()
	defer close(op.done)
	defer close(op.events)
	defer m.forget(op.ID)
	defer op.cancel()

	parser := progress.New()
	op.emit(ctx, core.Event{Status: parser.Status()})

	err := m.perform(ctx, op, b, parser)
	result := newResult(ctx, op, err)

	status, pct := parser.Finish(result.Success())
	if !result.Success() {
		status = result.Message()
	}

	op.mu.Lock()
	op.result = result
	op.mu.Unlock()

	if result.Success() {
		logger.Infof("operation %s: %s succeeded in %s", op.ID, op.Request, result.Duration.Round(time.Millisecond))
		if op.Request.Action.Mutates() {
			m.catalog.Invalidate()
		}
	} else {
		logger.Warningf("operation %s: %s %s: %v", op.ID, op.Request, result.State, result.Err)
	}

	op.emit(ctx, core.Event{Status: status, Progress: pct, Done: true, Result: result})
}

func (m *Manager) perform(ctx context.Context, op *Operation, b backend.Backend, parser *progress.Parser) error {
	cmd, needsRoot, err := b.Command(op.Request)
	if err != nil {
		return err
	}

	if op.Request.Action.Mutates() {
		op.emit(ctx, core.Event{Status: "Waiting for " + string(b.Name()) + "..."})
		unlock, err := m.lock(ctx, lockKey(b.Name()))
		if err != nil {
			return err
		}
		defer unlock()
	}

	if needsRoot {
		if cmd, err = m.elevator.Wrap(cmd); err != nil {
			return err
		}
	}

	logger.Debugf("operation %s: running %s", op.ID, cmd)
	proc, err := m.runner.Start(ctx, cmd)
	if err != nil {
		return err
	}
	for line := range proc.Lines() {
		if strings.TrimSpace(line.Text) == "" {
			continue
		}
		logger.Tracef("operation %s [%s]: %s", op.ID, line.Stream, line.Text)
		status, pct := parser.Feed(line.Text)
		op.emit(ctx, core.Event{Status: status, Progress: pct, Line: line.Text, Stream: line.Stream})
	}

	err = proc.Wait()
	if needsRoot {
		err = m.elevator.Classify(err)
	}
	return err
}

// lock acquires the mutation lock for key unless ctx ends first
func (m *Manager) lock(ctx context.Context, key string) (func(), error) {
	acquired := make(chan struct{})
	go func() {
		m.locks.Lock(key)
		close(acquired)
	}()

	select {
	case <-acquired:
		if err := ctx.Err(); err != nil {
			m.locks.Unlock(key)
			return nil, fmt.Errorf("%w: %v", core.ErrCancelled, err)
		}
		return func() { m.locks.Unlock(key) }, nil
	case <-ctx.Done():
		go func() {
			<-acquired
			m.locks.Unlock(key)
		}()
		return nil, fmt.Errorf("%w: %v", core.ErrCancelled, ctx.Err())
	}
}

// lockKey maps backends sharing a package database onto one lock
func lockKey(b core.BackendType) string {
	if b == core.BackendYum {
		return string(core.BackendDnf)
	}
	return string(b)
}

func newResult(ctx context.Context, op *Operation, err error) *core.Result {
	result := &core.Result{
		State:    core.StateSucceeded,
		Duration: time.Since(op.Started),
	}
	if err == nil {
		return result
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("timed out: %w", err)
	}
	result.Err = &Error{Op: string(op.Request.Action), Package: op.Request.Package, Err: err}
	result.ExitCode = core.ExitCode(err)

	switch {
	case errors.Is(err, core.ErrCancelled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		result.State = core.StateCancelled
	default:
		result.State = core.StateFailed
	}
	return result
}
