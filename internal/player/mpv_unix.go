//go:build !windows

package player

import (
	"context"
	"fmt"
	"net"

	"github.com/PizzaHomicide/vplay/internal/log"
)

// Connect establishes a connection with mpv for Unix systems
func (c *IPCClient) Connect(ctx context.Context) error {
	log.Debug("Connecting to Unix socket", "path", c.socketPath)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to mpv socket: %w", err)
	}

	c.attach(conn)
	return nil
}
