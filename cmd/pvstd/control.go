package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/vlanspan/pvstd/internal/management"
)

// controlListener serves the Unix-socket newline-delimited JSON protocol
// (spec §6.6) that pvstdctl speaks to the daemon: one request per line,
// one response per line, in order, per connection.
type controlListener struct {
	ln         net.Listener
	controller *management.Controller
	logger     *slog.Logger

	closeOnce sync.Once
}

// newControlListener binds the control socket, removing any stale socket
// file left behind by an unclean prior shutdown.
func newControlListener(socketPath string, controller *management.Controller, logger *slog.Logger) (*controlListener, error) {
	if err := os.Remove(socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale control socket: %w", err)
	}

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", socketPath, err)
	}

	logger.Info("control socket listening", slog.String("path", socketPath))
	return &controlListener{ln: ln, controller: controller, logger: logger}, nil
}

// Run accepts connections until ctx is cancelled or the listener is closed.
func (c *controlListener) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		c.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := c.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept on control socket: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			c.serve(conn)
		}()
	}
}

// Close shuts down the listener; idempotent since both the errgroup and
// gracefulShutdown may call it.
func (c *controlListener) Close() {
	c.closeOnce.Do(func() {
		if err := c.ln.Close(); err != nil {
			c.logger.Warn("failed to close control socket", slog.String("error", err.Error()))
		}
	})
}

// serve handles one client connection: decode a Request, dispatch it,
// encode a Response, repeat until the client disconnects or sends a
// malformed line.
func (c *controlListener) serve(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		var req management.Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			_ = enc.Encode(management.Response{OK: false, Error: fmt.Sprintf("malformed request: %v", err)})
			continue
		}

		resp := c.handle(req)
		if err := enc.Encode(resp); err != nil {
			c.logger.Debug("failed to write control response", slog.String("error", err.Error()))
			return
		}
	}
}

// handle dispatches one decoded Request to the Controller.
func (c *controlListener) handle(req management.Request) management.Response {
	switch req.Command {
	case "ping":
		return management.Response{OK: true}
	case "apply":
		if req.Message == nil {
			return management.Response{OK: false, Error: "apply requires a message"}
		}
		if err := c.controller.Submit(*req.Message); err != nil {
			return management.Response{OK: false, Error: err.Error()}
		}
		return management.Response{OK: true}
	case "snapshot":
		snap := c.controller.Snapshot()
		return management.Response{OK: true, Snapshot: &snap}
	default:
		return management.Response{OK: false, Error: fmt.Sprintf("unknown command %q", req.Command)}
	}
}
