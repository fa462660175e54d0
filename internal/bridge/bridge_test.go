package bridge

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/pkgdesk"
	"github.com/arc-language/pkgdesk/pkg/backend"
	"github.com/arc-language/pkgdesk/pkg/catalog"
	"github.com/arc-language/pkgdesk/pkg/core"
	"github.com/arc-language/pkgdesk/pkg/elevate"
	"github.com/arc-language/pkgdesk/pkg/pacman"
	"github.com/arc-language/pkgdesk/pkg/runner/runnertest"
)

type fakeService struct {
	mu        sync.Mutex
	installed []core.Package
	err       error
	requests  []core.Request
	cancelled []string
	events    []core.Event
}

func (f *fakeService) Installed(ctx context.Context) ([]core.Package, error) {
	return f.installed, f.err
}

func (f *fakeService) Updates(ctx context.Context) ([]core.Package, error) {
	return nil, f.err
}

func (f *fakeService) Explore(ctx context.Context) ([]core.Package, error) {
	return f.installed, f.err
}

func (f *fakeService) Search(ctx context.Context, term, scope string) ([]core.Package, error) {
	if _, err := catalog.ParseScope(scope); err != nil {
		return nil, err
	}
	var out []core.Package
	for _, p := range f.installed {
		if strings.Contains(p.Name, term) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeService) Start(ctx context.Context, req core.Request) (string, <-chan core.Event, error) {
	if err := req.Validate(); err != nil {
		return "", nil, err
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	ch := make(chan core.Event, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return "op-1", ch, nil
}

func (f *fakeService) Cancel(id string) error {
	if id != "op-1" {
		return errors.New("unknown operation")
	}
	f.mu.Lock()
	f.cancelled = append(f.cancelled, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeService) lastRequest() core.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newFakeService() *fakeService {
	return &fakeService{
		installed: []core.Package{
			{Name: "vim", Version: "9.1", Source: core.BackendPacman, Installed: true},
			{Name: "firefox", RawName: "org.mozilla.firefox", Source: core.BackendFlatpak, Installed: true},
		},
		events: []core.Event{
			{Status: "Starting..."},
			{Status: "Installing...", Progress: 40, Line: "Installing org.mozilla.firefox"},
			{Status: "Completed", Progress: 100, Done: true, Result: &core.Result{State: core.StateSucceeded}},
		},
	}
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, svc Service, uiDir string) (*testClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(New(Options{Service: svc, UIDir: uiDir}).Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn}, srv
}

func (c *testClient) send(msg any) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(msg))
}

func (c *testClient) recv() map[string]any {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg map[string]any
	require.NoError(c.t, c.conn.ReadJSON(&msg))
	return msg
}

func TestListings(t *testing.T) {
	var tests = []struct {
		command  string
		response string
		count    int
	}{
		{command: "getInstalled", response: "installedPackages", count: 2},
		{command: "getUpdates", response: "updatePackages", count: 0},
		{command: "getExplorePackages", response: "explorePackages", count: 2},
	}
	c, _ := dial(t, newFakeService(), "")
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			c.send(Request{Command: tt.command})
			msg := c.recv()
			assert.Equal(t, tt.response, msg["response"])
			data, ok := msg["data"].([]any)
			require.True(t, ok, "data is always a list")
			assert.Len(t, data, tt.count)
		})
	}
}

func TestListingError(t *testing.T) {
	svc := newFakeService()
	svc.err = errors.New("pacman is locked")
	c, _ := dial(t, svc, "")

	c.send(Request{Command: "getInstalled"})
	msg := c.recv()
	assert.Equal(t, "error", msg["response"])
	assert.Equal(t, "pacman is locked", msg["message"])
}

func TestBadMessagesKeepConnection(t *testing.T) {
	c, _ := dial(t, newFakeService(), "")

	require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg := c.recv()
	assert.Equal(t, "error", msg["response"])
	assert.Contains(t, msg["message"], "malformed message")

	c.send(Request{Command: "launchRockets"})
	msg = c.recv()
	assert.Equal(t, "error", msg["response"])
	assert.Contains(t, msg["message"], "launchRockets")

	c.send(Request{Command: "log", Message: "hello from the UI"})
	c.send(Request{Command: "getInstalled"})
	assert.Equal(t, "installedPackages", c.recv()["response"])
}

func TestSearch(t *testing.T) {
	c, _ := dial(t, newFakeService(), "")

	c.send(Request{Command: "search", Term: "vim", Scope: "installed"})
	assert.Equal(t, map[string]any{"response": "operationStatus", "status": "Searching for 'vim'..."}, c.recv())
	results := c.recv()
	assert.Equal(t, "searchResults", results["response"])
	assert.Len(t, results["data"], 1)
	assert.Equal(t, map[string]any{"response": "operationStatus", "status": ""}, c.recv())

	c.send(Request{Command: "search", Term: "vim", Scope: "everywhere"})
	assert.Equal(t, "operationStatus", c.recv()["response"])
	msg := c.recv()
	assert.Equal(t, "error", msg["response"])
	assert.Contains(t, msg["message"], "invalid search scope")
	assert.Equal(t, "", c.recv()["status"])
}

func TestInstall(t *testing.T) {
	svc := newFakeService()
	c, _ := dial(t, svc, "")

	c.send(Request{Command: "install", Package: &PackageRef{Name: "firefox", RawName: "org.mozilla.firefox", Source: "flatpak"}})

	for i, want := range []string{"Starting...", "Installing...", "Completed"} {
		msg := c.recv()
		assert.Equal(t, "operationProgress", msg["response"], "message %d", i)
		assert.Equal(t, want, msg["status"])
		assert.Equal(t, "org.mozilla.firefox", msg["id"])
		assert.Equal(t, "op-1", msg["operationId"])
		assert.Equal(t, "firefox", msg["name"])
		assert.Equal(t, "install", msg["command"])
	}

	done := c.recv()
	assert.Equal(t, "operationCompleted", done["response"])
	assert.Equal(t, true, done["success"])
	assert.Equal(t, "Success", done["message"])
	assert.Equal(t, float64(0), done["exitCode"])
	assert.Equal(t, "refresh", c.recv()["response"])

	assert.Equal(t, core.Request{Backend: core.BackendFlatpak, Action: core.ActionInstall, Package: "org.mozilla.firefox"}, svc.lastRequest())
}

func TestUninstallMapsToRemove(t *testing.T) {
	svc := newFakeService()
	svc.events = []core.Event{{Done: true, Result: &core.Result{State: core.StateSucceeded}}}
	c, _ := dial(t, svc, "")

	c.send(Request{Command: "uninstall", Package: &PackageRef{Name: "vim", Source: "pacman"}})
	assert.Equal(t, "uninstall", c.recv()["command"])
	assert.Equal(t, "operationCompleted", c.recv()["response"])
	assert.Equal(t, "refresh", c.recv()["response"])
	assert.Equal(t, core.ActionRemove, svc.lastRequest().Action)
}

func TestOperationRejected(t *testing.T) {
	var tests = []struct {
		name string
		ref  *PackageRef
		want string
	}{
		{name: "unknown source", ref: &PackageRef{Name: "vim", Source: "brew"}, want: "unsupported backend"},
		{name: "invalid name", ref: &PackageRef{Name: "--all", Source: "pacman"}, want: "invalid package"},
	}
	c, _ := dial(t, newFakeService(), "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.send(Request{Command: "install", Package: tt.ref})
			msg := c.recv()
			assert.Equal(t, "operationCompleted", msg["response"])
			assert.Equal(t, false, msg["success"])
			assert.Contains(t, msg["message"], tt.want)
			assert.True(t, strings.HasPrefix(msg["message"].(string), "Error: "))
		})
	}

	c.send(Request{Command: "install"})
	assert.Equal(t, "error", c.recv()["response"])
}

func TestCancel(t *testing.T) {
	svc := newFakeService()
	c, _ := dial(t, svc, "")

	c.send(Request{Command: "cancel", OperationID: "op-1"})
	assert.Equal(t, "Cancelling...", c.recv()["status"])

	c.send(Request{Command: "cancel", OperationID: "op-2"})
	assert.Contains(t, c.recv()["status"], "unknown operation")
	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Equal(t, []string{"op-1"}, svc.cancelled)
}

func TestHealthAndUI(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>store</h1>"), 0644))
	_, srv := dial(t, newFakeService(), dir)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))

	resp, err = http.Get(srv.URL + "/")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "<h1>store</h1>", string(body))
}

func TestManagerService(t *testing.T) {
	r := runnertest.New().
		On("pacman -Qi", runnertest.Script{Output: "Name            : vim\nVersion         : 9.1-1\n"}).
		On("pkexec /usr/bin/pacman -R", runnertest.Script{Lines: runnertest.Stdout("removing vim...")})
	lookPath := func(file string) (string, error) { return "/usr/bin/" + file, nil }

	m, err := pkgdesk.NewManager(pkgdesk.Options{
		Backends: []backend.Backend{pacman.NewPackageManager(&pacman.Config{Runner: r, LookPath: lookPath})},
		Runner:   r,
		Elevator: elevate.New(elevate.Options{Mode: elevate.ModePkexec, LookPath: lookPath}),
	})
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	c, _ := dial(t, NewService(m), "")

	c.send(Request{Command: "getInstalled"})
	installed := c.recv()
	require.Len(t, installed["data"], 1)
	assert.Equal(t, "vim", installed["data"].([]any)[0].(map[string]any)["name"])

	c.send(Request{Command: "uninstall", Package: &PackageRef{Name: "vim", Source: "pacman"}})
	var statuses []string
	var msg map[string]any
	for {
		msg = c.recv()
		if msg["response"] != "operationProgress" {
			break
		}
		statuses = append(statuses, msg["status"].(string))
	}
	assert.Contains(t, statuses, "Removing...")
	assert.Equal(t, "operationCompleted", msg["response"])
	assert.Equal(t, true, msg["success"])
	assert.Equal(t, "refresh", c.recv()["response"])

	c.send(Request{Command: "cancel", OperationID: "gone"})
	assert.Contains(t, c.recv()["status"], "unknown operation")
}
