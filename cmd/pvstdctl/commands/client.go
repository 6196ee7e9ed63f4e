// Package commands implements the pvstdctl CLI commands.
package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/vlanspan/pvstd/internal/management"
)

// dialTimeout bounds how long pvstdctl waits to connect to the daemon's
// control socket before giving up.
const dialTimeout = 5 * time.Second

// client is a one-shot connection to the control socket: one Request sent,
// one Response read, then the connection is closed. The control protocol
// is a per-connection request/response stream (cmd/pvstd's control.go
// serves many requests per connection), but pvstdctl only ever needs one
// round trip per invocation.
type client struct {
	socketPath string
}

func newClient(socketPath string) *client {
	return &client{socketPath: socketPath}
}

func (c *client) roundTrip(req management.Request) (management.Response, error) {
	var resp management.Response

	conn, err := net.DialTimeout("unix", c.socketPath, dialTimeout)
	if err != nil {
		return resp, fmt.Errorf("connect to %s: %w", c.socketPath, err)
	}
	defer conn.Close()

	line, err := json.Marshal(req)
	if err != nil {
		return resp, fmt.Errorf("marshal request: %w", err)
	}
	line = append(line, '\n')

	if _, err := conn.Write(line); err != nil {
		return resp, fmt.Errorf("write request: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return resp, fmt.Errorf("read response: %w", err)
		}
		return resp, fmt.Errorf("read response: %w", errEmptyResponse)
	}

	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return resp, fmt.Errorf("unmarshal response: %w", err)
	}
	if !resp.OK {
		return resp, fmt.Errorf("daemon rejected request: %s", resp.Error)
	}
	return resp, nil
}

// apply sends one configuration message and discards the (empty) response.
func (c *client) apply(msg management.Message) error {
	_, err := c.roundTrip(management.Request{Command: "apply", Message: &msg})
	return err
}

// snapshot requests the daemon's current read-only engine state.
func (c *client) snapshot() (management.Response, error) {
	return c.roundTrip(management.Request{Command: "snapshot"})
}

// ping checks that the control socket is up and answering.
func (c *client) ping() error {
	_, err := c.roundTrip(management.Request{Command: "ping"})
	return err
}
