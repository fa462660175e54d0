package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arc-language/pkgdesk/pkg/core"
)

// client is one websocket connection. The writer goroutine is the only one
// writing to the socket; handlers queue messages with send.
type client struct {
	server *Server
	conn   *websocket.Conn
	out    chan any

	// ctx is cancelled when the connection ends. Listings use it;
	// operations do not, so a disconnect never cancels an install.
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

func newClient(s *Server, conn *websocket.Conn) *client {
	ctx, cancel := context.WithCancel(context.Background())
	return &client{
		server: s,
		conn:   conn,
		out:    make(chan any, 32),
		ctx:    ctx,
		cancel: cancel,
	}
}

// run blocks until the connection is gone
func (c *client) run() {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writeLoop()
	}()

	c.readLoop()
	c.close()
	<-writerDone
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.conn.Close()
	})
}

func (c *client) readLoop() {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warningf("receive error: %v", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			logger.Warningf("malformed message %q: %v", data, err)
			c.send(failure(fmt.Errorf("malformed message: %w", err)))
			continue
		}
		logger.Debugf("received command %q", req.Command)
		c.dispatch(req)
	}
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			deadline := time.Now().Add(writeWait)
			c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, deadline); err != nil {
				// Expected when the other end goes away
				logger.Debugf("failed to write ping: %s", err)
				c.close()
				return
			}
		case msg := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.Debugf("failed to write message: %s", err)
				c.close()
				return
			}
		}
	}
}

// send queues msg for the writer; it is dropped once the connection is gone
func (c *client) send(msg any) bool {
	select {
	case c.out <- msg:
		return true
	case <-c.ctx.Done():
		return false
	}
}

// dispatch runs each request in its own goroutine
func (c *client) dispatch(req Request) {
	var handler func(Request)
	switch req.Command {
	case cmdGetInstalled:
		handler = c.listing(respInstalled, c.server.service.Installed)
	case cmdGetUpdates:
		handler = c.listing(respUpdates, c.server.service.Updates)
	case cmdGetExplore:
		handler = c.listing(respExplore, c.server.service.Explore)
	case cmdSearch:
		handler = c.search
	case cmdInstall:
		handler = c.operation(core.ActionInstall)
	case cmdUninstall:
		handler = c.operation(core.ActionRemove)
	case cmdUpdate:
		handler = c.operation(core.ActionUpdate)
	case cmdCancel:
		handler = c.cancelOperation
	case cmdLog:
		logger.Infof("ui: %s", req.Message)
		return
	default:
		logger.Warningf("unknown command %q", req.Command)
		c.send(failure(fmt.Errorf("unknown command %q", req.Command)))
		return
	}

	c.server.handlers.Add(1)
	go func() {
		defer c.server.handlers.Done()
		handler(req)
	}()
}

func (c *client) listing(response string, fetch func(context.Context) ([]core.Package, error)) func(Request) {
	return func(Request) {
		packages, err := fetch(c.ctx)
		if err != nil {
			logger.Errorf("%s: %v", response, err)
			c.send(failure(err))
			return
		}
		c.send(list(response, packages))
	}
}

func (c *client) search(req Request) {
	c.send(status(fmt.Sprintf("Searching for '%s'...", req.Term)))
	defer c.send(status(""))

	packages, err := c.server.service.Search(c.ctx, req.Term, req.Scope)
	if err != nil {
		logger.Errorf("search %q: %v", req.Term, err)
		c.send(failure(err))
		return
	}
	c.send(list(respSearch, packages))
}

func (c *client) operation(action core.Action) func(Request) {
	return func(req Request) {
		if req.Package == nil {
			c.send(failure(fmt.Errorf("%s: missing package", req.Command)))
			return
		}
		ref := req.Package
		id := ref.ID()

		fail := func(err error) {
			c.send(completedResponse{
				Response: respCompleted,
				ID:       id,
				Success:  false,
				Message:  "Error: " + err.Error(),
				ExitCode: core.ExitCode(err),
			})
		}

		b, err := core.ParseBackend(ref.Source)
		if err != nil {
			fail(err)
			return
		}

		// Operations outlive the connection
		opID, events, err := c.server.service.Start(context.Background(), core.Request{
			Backend: b,
			Action:  action,
			Package: id,
		})
		if err != nil {
			fail(err)
			return
		}

		var result *core.Result
		for ev := range events {
			if ev.Done {
				result = ev.Result
			}
			c.send(progressResponse{
				Response:    respProgress,
				ID:          id,
				OperationID: opID,
				Name:        ref.Name,
				Command:     req.Command,
				Status:      ev.Status,
				Progress:    ev.Progress,
				Line:        ev.Line,
			})
		}
		if result == nil {
			result = &core.Result{State: core.StateFailed, ExitCode: -1, Err: fmt.Errorf("operation %s ended without a result", opID)}
		}

		delivered := c.send(completedResponse{
			Response:    respCompleted,
			ID:          id,
			OperationID: opID,
			Success:     result.Success(),
			Message:     result.Message(),
			ExitCode:    result.ExitCode,
		})
		if !delivered {
			logger.Infof("operation %s finished after the client left: %s", opID, result.Message())
			return
		}
		c.send(simpleResponse{Response: respRefresh})
	}
}

func (c *client) cancelOperation(req Request) {
	if err := c.server.service.Cancel(req.OperationID); err != nil {
		c.send(status("Error: " + err.Error()))
		return
	}
	c.send(status("Cancelling..."))
}
