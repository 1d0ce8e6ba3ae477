// Package player drives an mpv process as the playback surface.  mpv is started idle with a window, controlled over
// its JSON IPC socket, and observed through property-change events so getters never block.
package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/PizzaHomicide/vplay/internal/domain"
	"github.com/PizzaHomicide/vplay/internal/events"
	"github.com/PizzaHomicide/vplay/internal/log"
)

const (
	mediaEvent = "media"

	// pipScale is the window scale used while emulating picture-in-picture
	pipScale = 0.4
)

// observed lists the properties cached from property-change events, keyed by observer id
var observed = map[int]string{
	1: "pause",
	2: "mute",
	3: "time-pos",
	4: "duration",
	5: "demuxer-cache-time",
	6: "speed",
	7: "fullscreen",
	8: "ontop",
}

// Config configures the mpv process
type Config struct {
	// Path to the mpv binary.  Defaults to "mpv" on the PATH.
	Path string
	// Args are extra command line arguments, split with ParseArgs
	Args string
	// SocketPath is the IPC socket or pipe.  Defaults to DefaultSocketPath.
	SocketPath string
	// CommandTimeout bounds every IPC command
	CommandTimeout time.Duration
}

// state is the last known value of each observed property
type state struct {
	paused     bool
	muted      bool
	timePos    float64
	duration   float64
	cacheTime  float64
	speed      float64
	fullscreen bool
	ontop      bool
}

// MPV is a playback surface backed by an mpv process.  It implements domain.Media, domain.Element,
// domain.PictureInPicturer and domain.FormatSupporter.
type MPV struct {
	config Config
	ipc    *IPCClient
	cmd    *exec.Cmd

	mu    sync.RWMutex
	state state

	emitter events.Emitter[domain.MediaEvent]
	done    chan struct{}
}

// New creates an mpv surface.  Start launches the process.
func New(cfg Config) *MPV {
	if cfg.Path == "" {
		cfg.Path = "mpv"
	}
	if cfg.SocketPath == "" {
		cfg.SocketPath = DefaultSocketPath()
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 5 * time.Second
	}
	return &MPV{
		config: cfg,
		ipc:    NewIPCClient(cfg.SocketPath),
		state:  state{paused: true, speed: 1},
		done:   make(chan struct{}),
	}
}

// Start launches mpv idle with a window, connects to its IPC socket and starts observing playback state
func (m *MPV) Start(ctx context.Context) error {
	args := []string{
		"--no-terminal",
		"--idle=yes",
		"--force-window=yes",
		"--keep-open=yes",
		"--input-ipc-server=" + m.config.SocketPath,
	}
	if m.config.Args != "" {
		args = append(args, ParseArgs(m.config.Args)...)
	}

	log.Info("Starting mpv", "path", m.config.Path, "socket_path", m.config.SocketPath)

	cmd := exec.Command(m.config.Path, args...)
	setupPlayerProcess(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start mpv: %w", err)
	}
	m.cmd = cmd

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := m.ipc.WaitForConnection(connCtx, 20, 500*time.Millisecond); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("failed to connect to mpv: %w", err)
	}

	return m.observe(ctx)
}

// observe registers property observers and starts the event loop
func (m *MPV) observe(ctx context.Context) error {
	go m.run()

	for id := 1; id <= len(observed); id++ {
		if err := m.ipc.ObserveProperty(ctx, id, observed[id]); err != nil {
			return fmt.Errorf("observing %s: %w", observed[id], err)
		}
	}
	return nil
}

// Done is closed once the connection to mpv ends
func (m *MPV) Done() <-chan struct{} {
	return m.done
}

func (m *MPV) run() {
	defer close(m.done)

	for event := range m.ipc.Events() {
		switch event.Event {
		case "property-change":
			m.applyProperty(event.Name, event.Data)
		case "start-file":
			m.emitter.Emit(mediaEvent, domain.MediaEvent{Type: domain.MediaEventLoading})
		case "file-loaded":
			m.emitter.Emit(mediaEvent, domain.MediaEvent{Type: domain.MediaEventLoaded})
		case "end-file":
			switch event.Reason {
			case "error":
				msg := event.FileError
				if msg == "" {
					msg = "unknown error"
				}
				m.emitter.Emit(mediaEvent, domain.MediaEvent{
					Type:  domain.MediaEventError,
					Error: fmt.Errorf("mpv failed to load file: %s", msg),
				})
			case "eof":
				m.emitter.Emit(mediaEvent, domain.MediaEvent{Type: domain.MediaEventEnded})
			}
		case "shutdown":
			log.Info("mpv is shutting down")
		}
	}

	log.Debug("mpv event loop stopped")
}

func (m *MPV) applyProperty(name string, data json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch name {
	case "pause":
		m.state.paused = parseBool(data, m.state.paused)
	case "mute":
		m.state.muted = parseBool(data, m.state.muted)
	case "time-pos":
		m.state.timePos = parseFloat(data)
	case "duration":
		m.state.duration = parseFloat(data)
	case "demuxer-cache-time":
		m.state.cacheTime = parseFloat(data)
	case "speed":
		if v := parseFloat(data); v > 0 {
			m.state.speed = v
		}
	case "fullscreen":
		m.state.fullscreen = parseBool(data, m.state.fullscreen)
	case "ontop":
		m.state.ontop = parseBool(data, m.state.ontop)
	}
}

// parseFloat decodes a numeric property.  Unavailable properties are reported as null and read as zero.
func parseFloat(data json.RawMessage) float64 {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil || v == nil {
		return 0
	}
	return *v
}

func parseBool(data json.RawMessage, fallback bool) bool {
	var v *bool
	if err := json.Unmarshal(data, &v); err != nil || v == nil {
		return fallback
	}
	return *v
}

func (m *MPV) commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.config.CommandTimeout)
}

func (m *MPV) set(name string, value any, update func(*state)) error {
	ctx, cancel := m.commandContext()
	defer cancel()

	if err := m.ipc.SetProperty(ctx, name, value); err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}
	if update != nil {
		m.mu.Lock()
		update(&m.state)
		m.mu.Unlock()
	}
	return nil
}

func (m *MPV) read() state {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Paused reports whether playback is paused
func (m *MPV) Paused() bool { return m.read().paused }

// Play resumes playback
func (m *MPV) Play() error {
	return m.set("pause", false, func(s *state) { s.paused = false })
}

// Pause pauses playback
func (m *MPV) Pause() error {
	return m.set("pause", true, func(s *state) { s.paused = true })
}

// Muted reports whether audio is muted
func (m *MPV) Muted() bool { return m.read().muted }

// SetMuted mutes or unmutes audio
func (m *MPV) SetMuted(muted bool) error {
	return m.set("mute", muted, func(s *state) { s.muted = muted })
}

// CurrentTime returns the playback position in seconds
func (m *MPV) CurrentTime() float64 { return m.read().timePos }

// Seek moves playback to an absolute position in seconds
func (m *MPV) Seek(seconds float64) error {
	ctx, cancel := m.commandContext()
	defer cancel()

	if _, err := m.ipc.Command(ctx, "seek", seconds, "absolute"); err != nil {
		return fmt.Errorf("seeking to %.2f: %w", seconds, err)
	}
	m.mu.Lock()
	m.state.timePos = seconds
	m.mu.Unlock()
	return nil
}

// Duration returns the length of the source in seconds, or zero when unknown
func (m *MPV) Duration() float64 { return m.read().duration }

// BufferedEnd returns the position up to which the demuxer has cached data
func (m *MPV) BufferedEnd() float64 {
	s := m.read()
	if s.cacheTime < s.timePos {
		return s.timePos
	}
	return s.cacheTime
}

// PlaybackRate returns the current speed multiplier
func (m *MPV) PlaybackRate() float64 { return m.read().speed }

// SetPlaybackRate changes the speed multiplier
func (m *MPV) SetPlaybackRate(rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("invalid playback rate %v", rate)
	}
	return m.set("speed", rate, func(s *state) { s.speed = rate })
}

// Load replaces the current file, starting playback at start seconds
func (m *MPV) Load(ctx context.Context, url string, start float64) error {
	ctx, cancel := context.WithTimeout(ctx, m.config.CommandTimeout)
	defer cancel()

	params := map[string]any{
		"url":   url,
		"flags": "replace",
	}
	if start > 0 {
		params["options"] = map[string]string{"start": strconv.FormatFloat(start, 'f', 3, 64)}
	}

	log.Debug("Loading file in mpv", "url", url, "start", start)
	if _, err := m.ipc.NamedCommand(ctx, "loadfile", params); err != nil {
		return fmt.Errorf("loading %s: %w", url, err)
	}
	return nil
}

// Stop unloads the current file and leaves mpv idle with its window open
func (m *MPV) Stop() error {
	ctx, cancel := m.commandContext()
	defer cancel()

	if _, err := m.ipc.Command(ctx, "stop"); err != nil {
		return fmt.Errorf("stopping playback: %w", err)
	}
	m.mu.Lock()
	m.state.timePos, m.state.duration, m.state.cacheTime = 0, 0, 0
	m.mu.Unlock()
	return nil
}

// SelectVideoTrack switches the video track.  Zero lets mpv choose.
func (m *MPV) SelectVideoTrack(id int) error {
	var value any = id
	if id <= 0 {
		value = "auto"
	}
	return m.set("vid", value, nil)
}

// Subscribe registers fn for load-state notifications
func (m *MPV) Subscribe(fn func(domain.MediaEvent)) events.Subscription {
	return m.emitter.On(mediaEvent, fn)
}

// Supports reports whether mpv can play the format.  mpv demuxes HLS, DASH and progressive files natively.
func (m *MPV) Supports(f domain.Format) bool {
	return f != domain.FormatUnsupported
}

// SetFullscreen toggles the mpv window fullscreen
func (m *MPV) SetFullscreen(on bool) error {
	return m.set("fullscreen", on, func(s *state) { s.fullscreen = on })
}

// Fullscreen reports whether the mpv window is fullscreen
func (m *MPV) Fullscreen() bool { return m.read().fullscreen }

// SetPictureInPicture emulates picture-in-picture with a small always-on-top window
func (m *MPV) SetPictureInPicture(on bool) error {
	scale := 1.0
	if on {
		scale = pipScale
	}
	if err := m.set("window-scale", scale, nil); err != nil {
		return err
	}
	return m.set("ontop", on, func(s *state) { s.ontop = on })
}

// PictureInPicture reports whether the window is floating on top
func (m *MPV) PictureInPicture() bool { return m.read().ontop }

// Close quits mpv and removes its socket
func (m *MPV) Close() error {
	ctx, cancel := m.commandContext()
	defer cancel()

	if _, err := m.ipc.Command(ctx, "quit"); err != nil && !errors.Is(err, ErrNotConnected) {
		log.Debug("mpv quit command failed", "error", err)
	}
	err := m.ipc.Close()

	if m.cmd != nil && m.cmd.Process != nil {
		if werr := waitOrKill(m.cmd, 2*time.Second); werr != nil {
			log.Warn("Failed to stop mpv", "error", werr)
		}
	}

	// Remove socket file if it exists (Unix only)
	if _, statErr := os.Stat(m.config.SocketPath); statErr == nil {
		if rmErr := os.Remove(m.config.SocketPath); rmErr != nil {
			log.Warn("Failed to remove mpv socket file", "path", m.config.SocketPath, "error", rmErr)
		}
	}
	m.emitter.Clear()
	return err
}

func waitOrKill(cmd *exec.Cmd, grace time.Duration) error {
	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	select {
	case <-exited:
		return nil
	case <-time.After(grace):
		return cmd.Process.Kill()
	}
}
