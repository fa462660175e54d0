// Package bridge serves the web UI and speaks its JSON protocol over a websocket.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("pkgdesk.bridge")

const (
	// writeWait bounds a single write to the peer
	writeWait = 10 * time.Second

	// pongWait is how long the peer may stay silent
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = pongWait * 9 / 10

	maxMessageSize = 64 * 1024

	shutdownTimeout = 5 * time.Second
)

// Options configures a Server
type Options struct {
	Service Service
	UIDir   string // Served on /; nothing is served when empty
}

// Server routes /ws, /healthz and the UI assets
type Server struct {
	service  Service
	router   *mux.Router
	upgrader websocket.Upgrader

	// Request handlers still running, across every connection
	handlers sync.WaitGroup

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// New creates a server for opts
func New(opts Options) *Server {
	s := &Server{
		service: opts.Service,
		router:  mux.NewRouter(),
		conns:   make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			// The UI is loaded from this server or from a local file
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.router.HandleFunc("/healthz", s.serveHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.serveWS).Methods(http.MethodGet)
	if opts.UIDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(opts.UIDir)))
	}
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done and closes every websocket.
// Operations started by clients may still be running; see Wait.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Infof("listening on http://%s", ln.Addr())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if serveErr := <-errc; !errors.Is(serveErr, http.ErrServerClosed) {
		err = errors.Join(err, serveErr)
	}

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	return err
}

// Wait blocks until every request handler returned. Operation handlers
// return once their event stream is closed.
func (s *Server) Wait() {
	s.handlers.Wait()
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("problem initiating websocket: %v", err)
		return
	}
	logger.Debugf("client %s connected", conn.RemoteAddr())

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	c := newClient(s, conn)
	c.run()

	logger.Debugf("client %s disconnected", conn.RemoteAddr())
}
