package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PizzaHomicide/vplay/internal/log"
)

// ErrNotConnected is returned by commands sent before Connect or after the connection is gone
var ErrNotConnected = errors.New("not connected to mpv")

// IPCClient provides communication with a running mpv instance over its JSON IPC socket
type IPCClient struct {
	socketPath string

	writeMu sync.Mutex
	conn    net.Conn

	nextID  atomic.Int64
	mu      sync.Mutex
	pending map[int64]chan Event
	closed  bool

	events chan Event
}

// Event is a line received from mpv: either an asynchronous event or a reply to a command
type Event struct {
	Event     string          `json:"event,omitempty"`
	ID        int             `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	RequestID int64           `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	FileError string          `json:"file_error,omitempty"`
}

// NewIPCClient creates a new mpv IPC client
func NewIPCClient(socketPath string) *IPCClient {
	return &IPCClient{
		socketPath: socketPath,
		pending:    make(map[int64]chan Event),
		events:     make(chan Event, 100),
	}
}

// DefaultSocketPath returns the socket path used for mpv IPC communication when none is configured
func DefaultSocketPath() string {
	if path := os.Getenv("VPLAY_MPV_SOCKET"); path != "" {
		return path
	}

	name := fmt.Sprintf("vplay-mpv-%d", os.Getpid())

	switch runtime.GOOS {
	case "windows":
		// Windows uses named pipes instead of unix sockets
		return `\\.\pipe\` + name
	default:
		if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
			return filepath.Join(runtimeDir, name+".sock")
		}
		return filepath.Join(os.TempDir(), name+".sock")
	}
}

// WaitForConnection attempts to connect to mpv with retries
func (c *IPCClient) WaitForConnection(ctx context.Context, maxAttempts int, retryDelay time.Duration) error {
	log.Debug("Waiting for mpv to create socket", "socket_path", c.socketPath, "max_attempts", maxAttempts)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Check if socket file exists for unix sockets
		if runtime.GOOS != "windows" {
			if _, err := os.Stat(c.socketPath); os.IsNotExist(err) {
				log.Debug("mpv socket does not exist yet", "attempt", attempt, "path", c.socketPath)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(retryDelay):
					continue
				}
			}
		}

		err := c.Connect(ctx)
		if err == nil {
			log.Info("Successfully connected to mpv", "attempt", attempt)
			return nil
		}

		log.Debug("Failed to connect to mpv", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	return fmt.Errorf("failed to connect to mpv after %d attempts", maxAttempts)
}

// attach starts reading from an established connection
func (c *IPCClient) attach(conn net.Conn) {
	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()
	go c.readEvents(conn)
}

// Close closes the connection to mpv
func (c *IPCClient) Close() error {
	c.writeMu.Lock()
	conn := c.conn
	c.writeMu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// readEvents continuously reads from mpv, routing command replies to their waiters and everything else to Events
func (c *IPCClient) readEvents(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()

		log.Trace("Raw mpv message", "data", string(line))

		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			log.Error("Failed to unmarshal mpv message", "error", err)
			continue
		}

		if event.Event == "" {
			c.deliver(event)
			continue
		}

		log.Trace("Received mpv event", "event", event.Event, "name", event.Name)
		c.events <- event
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Error("Error reading from mpv socket", "error", err)
	}

	log.Debug("mpv event reader stopped")

	c.mu.Lock()
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()
	close(c.events)
}

func (c *IPCClient) deliver(reply Event) {
	c.mu.Lock()
	ch, ok := c.pending[reply.RequestID]
	delete(c.pending, reply.RequestID)
	c.mu.Unlock()

	if !ok {
		log.Debug("Dropping mpv reply with no waiter", "request_id", reply.RequestID)
		return
	}
	ch <- reply
}

// Events returns the channel for mpv events.  It is closed when the connection ends.
func (c *IPCClient) Events() <-chan Event {
	return c.events
}

// Command sends a positional command to mpv and waits for its reply
func (c *IPCClient) Command(ctx context.Context, args ...any) (json.RawMessage, error) {
	return c.send(ctx, args)
}

// NamedCommand sends a command using mpv's named argument form and waits for its reply
func (c *IPCClient) NamedCommand(ctx context.Context, name string, params map[string]any) (json.RawMessage, error) {
	cmd := make(map[string]any, len(params)+1)
	for k, v := range params {
		cmd[k] = v
	}
	cmd["name"] = name
	return c.send(ctx, cmd)
}

// SetProperty sets an mpv property
func (c *IPCClient) SetProperty(ctx context.Context, name string, value any) error {
	_, err := c.Command(ctx, "set_property", name, value)
	return err
}

// ObserveProperty starts observing an mpv property.  Changes arrive on Events as property-change events.
func (c *IPCClient) ObserveProperty(ctx context.Context, id int, name string) error {
	_, err := c.Command(ctx, "observe_property", id, name)
	return err
}

func (c *IPCClient) send(ctx context.Context, command any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := c.nextID.Add(1)
	reply := make(chan Event, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	c.pending[id] = reply
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}

	data, err := json.Marshal(map[string]any{
		"command":    command,
		"request_id": id,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to marshal command: %w", err)
	}
	data = append(data, '\n')

	c.writeMu.Lock()
	conn := c.conn
	if conn == nil {
		c.writeMu.Unlock()
		cancel()
		return nil, ErrNotConnected
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	_, err = conn.Write(data)
	_ = conn.SetWriteDeadline(time.Time{})
	c.writeMu.Unlock()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to send command: %w", err)
	}

	select {
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	case r, ok := <-reply:
		if !ok {
			return nil, ErrNotConnected
		}
		if r.Error != "" && r.Error != "success" {
			return nil, fmt.Errorf("mpv: %s", r.Error)
		}
		return r.Data, nil
	}
}
