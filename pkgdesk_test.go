package pkgdesk

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/pkgdesk/pkg/backend"
	"github.com/arc-language/pkgdesk/pkg/core"
	"github.com/arc-language/pkgdesk/pkg/elevate"
	"github.com/arc-language/pkgdesk/pkg/flatpak"
	"github.com/arc-language/pkgdesk/pkg/pacman"
	"github.com/arc-language/pkgdesk/pkg/runner"
	"github.com/arc-language/pkgdesk/pkg/runner/runnertest"
)

func fakeLookPath(file string) (string, error) {
	return "/usr/bin/" + file, nil
}

func newTestManager(t *testing.T, r *runnertest.Runner, lookPath runner.LookPathFunc, timeout time.Duration) *Manager {
	t.Helper()
	if lookPath == nil {
		lookPath = fakeLookPath
	}
	m, err := NewManager(Options{
		Backends: []backend.Backend{
			pacman.NewPackageManager(&pacman.Config{Runner: r, LookPath: lookPath}),
			flatpak.NewPackageManager(&flatpak.Config{Runner: r, LookPath: lookPath}),
		},
		Runner:    r,
		Elevator:  elevate.New(elevate.Options{Mode: elevate.ModePkexec, LookPath: fakeLookPath}),
		OpTimeout: timeout,
	})
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

// collect drains op and returns every event
func collect(t *testing.T, op *Operation) []core.Event {
	t.Helper()
	var events []core.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-op.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("operation %s did not finish", op.ID)
		}
	}
}

func final(t *testing.T, events []core.Event) *core.Result {
	t.Helper()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	require.True(t, last.Done, "last event must be final")
	require.NotNil(t, last.Result)
	return last.Result
}

func TestNewManagerRequiresBackends(t *testing.T) {
	_, err := NewManager(Options{})
	assert.ErrorIs(t, err, ErrBackendNotAvailable)
}

func TestManagerDefaults(t *testing.T) {
	m := newTestManager(t, runnertest.New(), nil, 0)
	assert.Equal(t, []core.BackendType{core.BackendPacman, core.BackendFlatpak}, m.Backends())
	assert.Equal(t, core.BackendPacman, m.Default())
	assert.Equal(t, elevate.ModePkexec, m.Elevation())

	_, ok := m.Backend(core.BackendApt)
	assert.False(t, ok)
}

func TestRunStreamsEvents(t *testing.T) {
	r := runnertest.New().On("pkexec /usr/bin/pacman -S", runnertest.Script{
		Lines: runnertest.Stdout(
			"resolving dependencies...",
			"",
			"(1/2) installing vim-runtime",
			"(2/2) installing vim",
		),
	})
	m := newTestManager(t, r, nil, 0)

	op, err := m.Run(context.Background(), core.Request{Backend: core.BackendPacman, Action: core.ActionInstall, Package: "vim"})
	require.NoError(t, err)
	assert.NotEmpty(t, op.ID)

	events := collect(t, op)
	result := final(t, events)
	assert.True(t, result.Success())
	assert.Equal(t, 0, result.ExitCode)

	assert.Equal(t, "Starting...", events[0].Status)
	last := events[len(events)-1]
	assert.Equal(t, "Completed", last.Status)
	assert.Equal(t, 100.0, last.Progress)

	var done, lines int
	var progress float64
	for i, ev := range events {
		assert.Equal(t, op.ID, ev.OperationID)
		assert.Equal(t, i+1, ev.Seq)
		assert.Equal(t, core.BackendPacman, ev.Backend)
		assert.Equal(t, "vim", ev.Package)
		assert.GreaterOrEqual(t, ev.Progress, progress, "progress never decreases")
		progress = ev.Progress
		if ev.Done {
			done++
		}
		if ev.Line != "" {
			lines++
			assert.Equal(t, core.StreamStdout, ev.Stream)
		}
	}
	assert.Equal(t, 1, done)
	assert.Equal(t, 3, lines, "blank lines are skipped")

	assert.Equal(t, []string{"pkexec /usr/bin/pacman -S --noconfirm vim"}, r.Keys())
	assert.Equal(t, result, op.Wait())

	_, running := m.Operation(op.ID)
	assert.False(t, running)
}

func TestRunKeepsRequestID(t *testing.T) {
	m := newTestManager(t, runnertest.New(), nil, 0)
	op, err := m.Run(context.Background(), core.Request{ID: "op-1", Backend: core.BackendPacman, Action: core.ActionQuery, Package: "vim"})
	require.NoError(t, err)
	assert.Equal(t, "op-1", op.ID)
	assert.True(t, op.Wait().Success())
}

func TestRunValidation(t *testing.T) {
	var tests = []struct {
		name string
		req  core.Request
		want error
	}{
		{name: "unsupported backend", req: core.Request{Backend: "brew", Action: core.ActionInstall, Package: "vim"}, want: ErrUnsupportedBackend},
		{name: "unsupported action", req: core.Request{Backend: core.BackendPacman, Action: "explode", Package: "vim"}, want: core.ErrUnsupportedAction},
		{name: "missing package", req: core.Request{Backend: core.BackendPacman, Action: core.ActionInstall}, want: ErrInvalidPackage},
		{name: "flag as package", req: core.Request{Backend: core.BackendPacman, Action: core.ActionRemove, Package: "-Rns"}, want: ErrInvalidPackage},
		{name: "backend not enabled", req: core.Request{Backend: core.BackendApt, Action: core.ActionInstall, Package: "vim"}, want: ErrBackendNotAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runnertest.New()
			m := newTestManager(t, r, nil, 0)

			op, err := m.Run(context.Background(), tt.req)
			assert.Nil(t, op)
			assert.ErrorIs(t, err, tt.want)

			var pkgErr *Error
			assert.ErrorAs(t, err, &pkgErr)
			assert.Empty(t, r.Commands(), "no process may be started")
		})
	}
}

func TestRunFailure(t *testing.T) {
	r := runnertest.New().On("pkexec /usr/bin/pacman -S", runnertest.Script{
		Lines: []runner.Line{{Text: "error: target not found: nope", Stream: core.StreamStderr}},
		Err:   &core.ExitError{Command: "pkexec", Code: 1, Stderr: "error: target not found: nope"},
	})
	m := newTestManager(t, r, nil, 0)

	op, err := m.Run(context.Background(), core.Request{Backend: core.BackendPacman, Action: core.ActionInstall, Package: "nope"})
	require.NoError(t, err)

	events := collect(t, op)
	result := final(t, events)
	assert.Equal(t, core.StateFailed, result.State)
	assert.Equal(t, 1, result.ExitCode)

	var exitErr *core.ExitError
	require.ErrorAs(t, result.Err, &exitErr)
	assert.Contains(t, exitErr.Stderr, "target not found")
	assert.True(t, strings.HasPrefix(result.Message(), "Error: install nope: "))

	assert.Equal(t, "Error: error: target not found: nope", events[len(events)-2].Status)
	assert.Equal(t, result.Message(), events[len(events)-1].Status)
}

func TestRunAuthenticationDenied(t *testing.T) {
	for _, code := range []int{126, 127} {
		r := runnertest.New().On("pkexec", runnertest.Script{
			Err: &core.ExitError{Command: "pkexec", Code: code},
		})
		m := newTestManager(t, r, nil, 0)

		op, err := m.Run(context.Background(), core.Request{Backend: core.BackendPacman, Action: core.ActionRemove, Package: "vim"})
		require.NoError(t, err)

		result := op.Wait()
		assert.Equal(t, core.StateFailed, result.State)
		assert.ErrorIs(t, result.Err, ErrAuthenticationDenied, "exit %d", code)
	}
}

func TestRunBinaryMissing(t *testing.T) {
	lookPath := func(file string) (string, error) {
		if file == pacman.Binary {
			return "", exec.ErrNotFound
		}
		return fakeLookPath(file)
	}
	r := runnertest.New()
	m := newTestManager(t, r, lookPath, 0)

	op, err := m.Run(context.Background(), core.Request{Backend: core.BackendPacman, Action: core.ActionInstall, Package: "vim"})
	require.NoError(t, err)

	result := op.Wait()
	assert.Equal(t, core.StateFailed, result.State)
	assert.ErrorIs(t, result.Err, ErrBinaryNotFound)
	assert.Equal(t, -1, result.ExitCode)
	assert.Empty(t, r.Commands())
}

func TestQueryRunsWithoutElevation(t *testing.T) {
	r := runnertest.New().On("pacman -Qi vim", runnertest.Script{Lines: runnertest.Stdout("Name : vim")})
	m := newTestManager(t, r, nil, 0)

	op, err := m.Run(context.Background(), core.Request{Backend: core.BackendPacman, Action: core.ActionQuery, Package: "vim"})
	require.NoError(t, err)
	assert.True(t, op.Wait().Success())
	assert.Equal(t, []string{"pacman -Qi vim"}, r.Keys())
}

func TestRunResolvesRegistryNames(t *testing.T) {
	r := runnertest.New()
	m := newTestManager(t, r, nil, 0)

	op, err := m.Run(context.Background(), core.Request{Backend: core.BackendFlatpak, Action: core.ActionInstall, Package: "firefox"})
	require.NoError(t, err)
	assert.Equal(t, "org.mozilla.firefox", op.Request.Package)
	assert.True(t, op.Wait().Success())

	assert.Equal(t, []string{"flatpak install -y --noninteractive flathub org.mozilla.firefox"}, r.Keys())
}

func TestUpdateAll(t *testing.T) {
	r := runnertest.New()
	m := newTestManager(t, r, nil, 0)

	op, err := m.Run(context.Background(), core.Request{Backend: core.BackendPacman, Action: core.ActionUpdate})
	require.NoError(t, err)
	assert.True(t, op.Wait().Success())
	assert.Equal(t, []string{"pkexec /usr/bin/pacman -Syu --noconfirm"}, r.Keys())
}

func TestCancel(t *testing.T) {
	r := runnertest.New().On("pkexec", runnertest.Script{
		Lines:   runnertest.Stdout("downloading vim..."),
		Release: make(chan struct{}),
	})
	m := newTestManager(t, r, nil, 0)

	op, err := m.Run(context.Background(), core.Request{Backend: core.BackendPacman, Action: core.ActionInstall, Package: "vim"})
	require.NoError(t, err)

	for ev := range op.Events() {
		if ev.Line != "" {
			break
		}
	}
	require.NoError(t, m.Cancel(op.ID))

	result := op.Wait()
	assert.Equal(t, core.StateCancelled, result.State)
	assert.ErrorIs(t, result.Err, ErrCancelled)

	assert.ErrorIs(t, m.Cancel("missing"), ErrUnknownOperation)
}

func TestTimeout(t *testing.T) {
	r := runnertest.New().On("pkexec", runnertest.Script{Release: make(chan struct{})})
	m := newTestManager(t, r, nil, 50*time.Millisecond)

	op, err := m.Run(context.Background(), core.Request{Backend: core.BackendPacman, Action: core.ActionInstall, Package: "vim"})
	require.NoError(t, err)

	result := op.Wait()
	assert.Equal(t, core.StateCancelled, result.State)
	assert.Contains(t, result.Message(), "timed out")
}

func TestMutationsSerializedPerBackend(t *testing.T) {
	release := make(chan struct{})
	r := runnertest.New().
		On("pkexec /usr/bin/pacman -S --noconfirm vim", runnertest.Script{Release: release}).
		On("flatpak install", runnertest.Script{Release: release})
	m := newTestManager(t, r, nil, 0)
	ctx := context.Background()

	first, err := m.Run(ctx, core.Request{Backend: core.BackendPacman, Action: core.ActionInstall, Package: "vim"})
	require.NoError(t, err)
	assertStarted(t, r, "pkexec /usr/bin/pacman -S --noconfirm vim")

	second, err := m.Run(ctx, core.Request{Backend: core.BackendPacman, Action: core.ActionInstall, Package: "htop"})
	require.NoError(t, err)

	// Another backend is not blocked
	other, err := m.Run(ctx, core.Request{Backend: core.BackendFlatpak, Action: core.ActionInstall, Package: "org.gimp.GIMP"})
	require.NoError(t, err)
	assertStarted(t, r, "flatpak install -y --noninteractive flathub org.gimp.GIMP")

	select {
	case c := <-r.Started():
		t.Fatalf("%s started while pacman was busy", runnertest.Key(c))
	case <-time.After(100 * time.Millisecond):
	}
	assert.Len(t, m.Operations(), 3)

	close(release)
	assert.True(t, first.Wait().Success())
	assertStarted(t, r, "pkexec /usr/bin/pacman -S --noconfirm htop")
	assert.True(t, second.Wait().Success())
	assert.True(t, other.Wait().Success())
}

func assertStarted(t *testing.T, r *runnertest.Runner, key string) {
	t.Helper()
	select {
	case c := <-r.Started():
		assert.Equal(t, key, runnertest.Key(c))
	case <-time.After(5 * time.Second):
		t.Fatalf("%s never started", key)
	}
}

func TestCatalogInvalidatedAfterMutation(t *testing.T) {
	r := runnertest.New().On("pacman -Qi", runnertest.Script{Output: "Name : vim\nVersion : 9.1-1\n"})
	m := newTestManager(t, r, nil, 0)
	ctx := context.Background()

	listings := func() int {
		n := 0
		for _, k := range r.Keys() {
			if k == "pacman -Qi" {
				n++
			}
		}
		return n
	}

	_, err := m.Catalog().Installed(ctx)
	require.NoError(t, err)
	_, err = m.Catalog().Installed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, listings())

	op, err := m.Run(ctx, core.Request{Backend: core.BackendPacman, Action: core.ActionQuery, Package: "vim"})
	require.NoError(t, err)
	op.Wait()
	_, err = m.Catalog().Installed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, listings(), "queries keep the cache")

	op, err = m.Run(ctx, core.Request{Backend: core.BackendPacman, Action: core.ActionRemove, Package: "vim"})
	require.NoError(t, err)
	op.Wait()
	_, err = m.Catalog().Installed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, listings())
}

func TestClose(t *testing.T) {
	r := runnertest.New().On("pkexec", runnertest.Script{Release: make(chan struct{})})
	m := newTestManager(t, r, nil, 0)

	op, err := m.Run(context.Background(), core.Request{Backend: core.BackendPacman, Action: core.ActionInstall, Package: "vim"})
	require.NoError(t, err)
	assertStarted(t, r, "pkexec /usr/bin/pacman -S --noconfirm vim")

	results := make(chan *core.Result, 1)
	go func() { results <- op.Wait() }()

	require.NoError(t, m.Close())
	assert.Equal(t, core.StateCancelled, (<-results).State)
	assert.Empty(t, m.Operations())

	_, err = m.Run(context.Background(), core.Request{Backend: core.BackendPacman, Action: core.ActionInstall, Package: "vim"})
	assert.ErrorIs(t, err, ErrClosed)
}
