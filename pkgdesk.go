// pkgdesk.go
package pkgdesk

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/im7mortal/kmutex"
	"github.com/juju/loggo"

	"github.com/arc-language/pkgdesk/pkg/backend"
	"github.com/arc-language/pkgdesk/pkg/catalog"
	"github.com/arc-language/pkgdesk/pkg/core"
	"github.com/arc-language/pkgdesk/pkg/elevate"
	"github.com/arc-language/pkgdesk/pkg/platform"
	"github.com/arc-language/pkgdesk/pkg/registry"
	"github.com/arc-language/pkgdesk/pkg/runner"
)

var logger = loggo.GetLogger("pkgdesk")

// Re-export core types for convenience
type (
	BackendType = core.BackendType
	Action      = core.Action
	Request     = core.Request
	Event       = core.Event
	Result      = core.Result
	Package     = core.Package
	Config      = core.Config
)

// Re-export core constants
const (
	BackendPacman  = core.BackendPacman
	BackendApt     = core.BackendApt
	BackendYum     = core.BackendYum
	BackendDnf     = core.BackendDnf
	BackendFlatpak = core.BackendFlatpak

	ActionInstall = core.ActionInstall
	ActionRemove  = core.ActionRemove
	ActionUpdate  = core.ActionUpdate
	ActionQuery   = core.ActionQuery
)

// DefaultEventBuffer is the capacity of an operation's event channel
const DefaultEventBuffer = 16

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return core.DefaultConfig()
}

// Options wires a Manager. Everything except Backends has a default.
type Options struct {
	Backends    []backend.Backend  // Enabled backends, in listing order
	Default     core.BackendType   // Preferred native backend
	Runner      runner.Runner      // Starts operation processes
	Elevator    *elevate.Elevator  // Wraps commands that need root
	Registry    *registry.Registry // Canonical name resolution
	Catalog     *catalog.Catalog   // Invalidated after successful mutations
	OpTimeout   time.Duration      // Zero means no limit
	EventBuffer int
}

// Manager runs package operations on the enabled backends
type Manager struct {
	backends    map[core.BackendType]backend.Backend
	order       []core.BackendType
	preferred   core.BackendType
	runner      runner.Runner
	elevator    *elevate.Elevator
	registry    *registry.Registry
	catalog     *catalog.Catalog
	timeout     time.Duration
	eventBuffer int

	// Mutations on one backend run one at a time
	locks *kmutex.Kmutex

	mu     sync.Mutex
	ops    map[string]*Operation
	closed bool
	wg     sync.WaitGroup
}

// New creates a manager for the current system from cfg
func New(cfg *Config) (*Manager, error) {
	if cfg == nil {
		cfg = core.DefaultConfig()
	}

	plat, err := platform.Detect()
	if err != nil {
		return nil, fmt.Errorf("detecting platform: %w", err)
	}
	logger.Debugf("platform: %s", plat)

	types := platform.Enabled(plat, cfg)
	if len(types) == 0 {
		return nil, fmt.Errorf("%w: no supported package manager found", core.ErrBackendNotAvailable)
	}

	preferred, err := platform.ResolveBackend(plat, cfg)
	if err != nil {
		logger.Warningf("no default backend: %v", err)
	}

	mode, err := elevate.ParseMode(cfg.Elevation.Mode)
	if err != nil {
		return nil, err
	}

	r := runner.New()
	all, err := backend.NewAll(types, backend.ConfigFrom(cfg, r))
	if err != nil {
		return nil, fmt.Errorf("initializing backends: %w", err)
	}
	backends := make([]backend.Backend, 0, len(types))
	sources := make([]core.PackageSource, 0, len(types))
	for _, t := range types {
		backends = append(backends, all[t])
		sources = append(sources, all[t])
	}

	reg := registry.New(cfg.CachePath)
	return NewManager(Options{
		Backends: backends,
		Default:  preferred,
		Runner:   r,
		Elevator: elevate.New(elevate.Options{Mode: mode, Path: cfg.Elevation.Path}),
		Registry: reg,
		Catalog: catalog.New(catalog.Options{
			Sources:  sources,
			Registry: reg,
			TTL:      cfg.Catalog.CacheTTL,
			Match:    cfg.Catalog.Match,
		}),
		OpTimeout: cfg.OpTimeout,
	})
}

// NewManager creates a manager from explicit components
func NewManager(opts Options) (*Manager, error) {
	if len(opts.Backends) == 0 {
		return nil, fmt.Errorf("%w: no backends configured", core.ErrBackendNotAvailable)
	}

	m := &Manager{
		backends:    make(map[core.BackendType]backend.Backend, len(opts.Backends)),
		preferred:   opts.Default,
		runner:      opts.Runner,
		elevator:    opts.Elevator,
		registry:    opts.Registry,
		catalog:     opts.Catalog,
		timeout:     opts.OpTimeout,
		eventBuffer: opts.EventBuffer,
		locks:       kmutex.New(),
		ops:         make(map[string]*Operation),
	}
	for _, b := range opts.Backends {
		if _, dup := m.backends[b.Name()]; dup {
			return nil, fmt.Errorf("backend %s configured twice", b.Name())
		}
		m.backends[b.Name()] = b
		m.order = append(m.order, b.Name())
	}

	if m.runner == nil {
		m.runner = runner.New()
	}
	if m.elevator == nil {
		m.elevator = elevate.New(elevate.Options{})
	}
	if m.registry == nil {
		m.registry = registry.NewFromFS(registry.Defaults())
	}
	if m.catalog == nil {
		sources := make([]core.PackageSource, 0, len(m.order))
		for _, t := range m.order {
			sources = append(sources, m.backends[t])
		}
		m.catalog = catalog.New(catalog.Options{Sources: sources, Registry: m.registry})
	}
	if m.eventBuffer <= 0 {
		m.eventBuffer = DefaultEventBuffer
	}
	if m.preferred == "" {
		for _, t := range m.order {
			if t.Native() {
				m.preferred = t
				break
			}
		}
	}
	return m, nil
}

// Run validates req and starts it in its own goroutine. Validation
// failures are returned here and no process is started; every other
// failure arrives as the final event of the operation.
func (m *Manager) Run(ctx context.Context, req core.Request) (*Operation, error) {
	if err := req.Validate(); err != nil {
		return nil, &Error{Op: string(req.Action), Package: req.Package, Err: err}
	}
	b, ok := m.backends[req.Backend]
	if !ok {
		return nil, &Error{
			Op:      string(req.Action),
			Package: req.Package,
			Err:     fmt.Errorf("%w: %s is not enabled", core.ErrBackendNotAvailable, req.Backend),
		}
	}

	if !req.UpdatesAll() {
		resolved := m.registry.Resolve(req.Package, req.Backend)
		if resolved != req.Package {
			logger.Debugf("resolved %q -> %q (%s)", req.Package, resolved, req.Backend)
			req.Package = resolved
		}
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, &Error{Op: string(req.Action), Package: req.Package, Err: ErrClosed}
	}
	if _, dup := m.ops[req.ID]; dup {
		return nil, &Error{Op: string(req.Action), Package: req.Package, Err: fmt.Errorf("operation %s already running", req.ID)}
	}

	var opCtx context.Context
	var cancel context.CancelFunc
	if m.timeout > 0 {
		opCtx, cancel = context.WithTimeout(ctx, m.timeout)
	} else {
		opCtx, cancel = context.WithCancel(ctx)
	}

	op := newOperation(req, cancel, m.eventBuffer)
	m.ops[req.ID] = op
	m.wg.Add(1)

	logger.Infof("operation %s: %s", op.ID, req)
	go m.execute(opCtx, op, b)
	return op, nil
}

// Operation returns the in-flight operation with the given ID
func (m *Manager) Operation(id string) (*Operation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.ops[id]
	return op, ok
}

// Operations returns every in-flight operation, oldest first
func (m *Manager) Operations() []*Operation {
	m.mu.Lock()
	ops := make([]*Operation, 0, len(m.ops))
	for _, op := range m.ops {
		ops = append(ops, op)
	}
	m.mu.Unlock()

	sort.Slice(ops, func(i, j int) bool { return ops[i].Started.Before(ops[j].Started) })
	return ops
}

// Cancel cancels the in-flight operation with the given ID
func (m *Manager) Cancel(id string) error {
	op, ok := m.Operation(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOperation, id)
	}
	op.Cancel()
	return nil
}

// Catalog returns the listing and search service
func (m *Manager) Catalog() *catalog.Catalog {
	return m.catalog
}

// Registry returns the canonical name registry
func (m *Manager) Registry() *registry.Registry {
	return m.registry
}

// Backends returns the enabled backends in listing order
func (m *Manager) Backends() []core.BackendType {
	return append([]core.BackendType(nil), m.order...)
}

// Backend returns the enabled backend of type t
func (m *Manager) Backend(t core.BackendType) (backend.Backend, bool) {
	b, ok := m.backends[t]
	return b, ok
}

// Default returns the preferred native backend, empty when none is enabled
func (m *Manager) Default() core.BackendType {
	return m.preferred
}

// Elevation returns the resolved privilege escalation mode
func (m *Manager) Elevation() elevate.Mode {
	return m.elevator.Mode()
}

// Close cancels every in-flight operation and waits for them to finish.
// Callers must keep draining operation events until then.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	for _, op := range m.ops {
		op.Cancel()
	}
	m.mu.Unlock()

	m.wg.Wait()
	return nil
}

func (m *Manager) forget(id string) {
	m.mu.Lock()
	delete(m.ops, id)
	m.mu.Unlock()
}
