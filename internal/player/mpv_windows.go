//go:build windows

package player

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/natefinch/npipe.v2"

	"github.com/PizzaHomicide/vplay/internal/log"
)

// Connect establishes a connection with mpv for Windows
func (c *IPCClient) Connect(ctx context.Context) error {
	log.Debug("Connecting to Windows named pipe", "path", c.socketPath)

	timeout := 2 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	conn, err := npipe.DialTimeout(c.socketPath, timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to mpv pipe: %w", err)
	}

	c.attach(conn)
	return nil
}
