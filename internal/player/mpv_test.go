package player

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PizzaHomicide/vplay/internal/domain"
	"github.com/PizzaHomicide/vplay/internal/platform"
)

// fakeServer plays the mpv side of the IPC socket
type fakeServer struct {
	conn net.Conn

	writeMu sync.Mutex
	mu      sync.Mutex
	cmds    []any
	fail    map[string]string
}

func startFakeServer(conn net.Conn) *fakeServer {
	s := &fakeServer{conn: conn, fail: make(map[string]string)}
	go s.serve()
	return s
}

func (s *fakeServer) serve() {
	scanner := bufio.NewScanner(s.conn)
	for scanner.Scan() {
		var req struct {
			Command   json.RawMessage `json:"command"`
			RequestID int64           `json:"request_id"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}

		var cmd any
		_ = json.Unmarshal(req.Command, &cmd)

		s.mu.Lock()
		s.cmds = append(s.cmds, cmd)
		errMsg, failed := s.fail[commandName(cmd)]
		s.mu.Unlock()

		if !failed {
			errMsg = "success"
		}
		s.send(fmt.Sprintf(`{"request_id":%d,"error":%q,"data":null}`, req.RequestID, errMsg))
	}
}

func commandName(cmd any) string {
	switch c := cmd.(type) {
	case []any:
		if len(c) > 0 {
			name, _ := c[0].(string)
			return name
		}
	case map[string]any:
		name, _ := c["name"].(string)
		return name
	}
	return ""
}

func (s *fakeServer) send(line string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, _ = s.conn.Write([]byte(line + "\n"))
}

func (s *fakeServer) failCommand(name, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[name] = msg
}

func (s *fakeServer) commands() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any(nil), s.cmds...)
}

func (s *fakeServer) last() any {
	cmds := s.commands()
	if len(cmds) == 0 {
		return nil
	}
	return cmds[len(cmds)-1]
}

func newTestMPV(t *testing.T) (*MPV, *fakeServer) {
	t.Helper()

	client, server := net.Pipe()
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})

	m := New(Config{
		SocketPath:     filepath.Join(t.TempDir(), "mpv.sock"),
		CommandTimeout: time.Second,
	})
	srv := startFakeServer(server)
	m.ipc.attach(client)
	require.NoError(t, m.observe(context.Background()))
	return m, srv
}

func TestObservesPlaybackProperties(t *testing.T) {
	_, srv := newTestMPV(t)

	var names []string
	for _, cmd := range srv.commands() {
		c := cmd.([]any)
		require.Equal(t, "observe_property", c[0])
		names = append(names, c[2].(string))
	}
	assert.Equal(t, []string{
		"pause", "mute", "time-pos", "duration", "demuxer-cache-time", "speed", "fullscreen", "ontop",
	}, names)
}

func TestPropertyChangesUpdateState(t *testing.T) {
	m, srv := newTestMPV(t)

	assert.True(t, m.Paused())
	assert.Equal(t, 1.0, m.PlaybackRate())

	srv.send(`{"event":"property-change","id":1,"name":"pause","data":false}`)
	srv.send(`{"event":"property-change","id":2,"name":"mute","data":true}`)
	srv.send(`{"event":"property-change","id":3,"name":"time-pos","data":12.5}`)
	srv.send(`{"event":"property-change","id":4,"name":"duration","data":100}`)
	srv.send(`{"event":"property-change","id":5,"name":"demuxer-cache-time","data":40}`)
	srv.send(`{"event":"property-change","id":6,"name":"speed","data":1.5}`)

	assert.Eventually(t, func() bool { return m.PlaybackRate() == 1.5 }, time.Second, 5*time.Millisecond)
	assert.False(t, m.Paused())
	assert.True(t, m.Muted())
	assert.Equal(t, 12.5, m.CurrentTime())
	assert.Equal(t, 100.0, m.Duration())
	assert.Equal(t, 40.0, m.BufferedEnd())

	srv.send(`{"event":"property-change","id":4,"name":"duration","data":null}`)
	assert.Eventually(t, func() bool { return m.Duration() == 0 }, time.Second, 5*time.Millisecond)
}

func TestBufferedEndNeverBehindPosition(t *testing.T) {
	m, srv := newTestMPV(t)

	srv.send(`{"event":"property-change","id":3,"name":"time-pos","data":30}`)
	srv.send(`{"event":"property-change","id":5,"name":"demuxer-cache-time","data":10}`)

	assert.Eventually(t, func() bool { return m.BufferedEnd() == 30 }, time.Second, 5*time.Millisecond)
}

func TestControlsSendCommands(t *testing.T) {
	m, srv := newTestMPV(t)

	require.NoError(t, m.Play())
	assert.Equal(t, []any{"set_property", "pause", false}, srv.last())
	assert.False(t, m.Paused())

	require.NoError(t, m.SetMuted(true))
	assert.Equal(t, []any{"set_property", "mute", true}, srv.last())
	assert.True(t, m.Muted())

	require.NoError(t, m.Seek(42))
	assert.Equal(t, []any{"seek", 42.0, "absolute"}, srv.last())
	assert.Equal(t, 42.0, m.CurrentTime())

	require.NoError(t, m.SetPlaybackRate(2))
	assert.Equal(t, []any{"set_property", "speed", 2.0}, srv.last())

	require.NoError(t, m.SetFullscreen(true))
	assert.Equal(t, []any{"set_property", "fullscreen", true}, srv.last())
	assert.True(t, m.Fullscreen())

	assert.Error(t, m.SetPlaybackRate(0))
}

func TestStopUnloadsFile(t *testing.T) {
	m, srv := newTestMPV(t)
	srv.send(`{"event":"property-change","id":3,"name":"time-pos","data":30}`)
	srv.send(`{"event":"property-change","id":4,"name":"duration","data":90}`)
	require.Eventually(t, func() bool { return m.Duration() == 90 }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Stop())
	assert.Equal(t, []any{"stop"}, srv.last())
	assert.Equal(t, 0.0, m.CurrentTime())
	assert.Equal(t, 0.0, m.Duration())
}

func TestWindowModesLeftInMPVReachDocument(t *testing.T) {
	m, srv := newTestMPV(t)
	doc := platform.NewDocument()

	require.NoError(t, doc.RequestFullscreen(m))
	require.NoError(t, doc.RequestPictureInPicture(m))
	assert.NotNil(t, doc.FullscreenElement())
	assert.NotNil(t, doc.PictureInPictureElement())

	// The user left both modes with mpv's own keys
	srv.send(`{"event":"property-change","id":7,"name":"fullscreen","data":false}`)
	srv.send(`{"event":"property-change","id":8,"name":"ontop","data":false}`)

	assert.Eventually(t, func() bool { return doc.FullscreenElement() == nil }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return doc.PictureInPictureElement() == nil }, time.Second, 5*time.Millisecond)
}

func TestLoadUsesNamedLoadfile(t *testing.T) {
	m, srv := newTestMPV(t)

	require.NoError(t, m.Load(context.Background(), "http://cdn/v/720.m3u8", 12.5))
	assert.Equal(t, map[string]any{
		"name":    "loadfile",
		"url":     "http://cdn/v/720.m3u8",
		"flags":   "replace",
		"options": map[string]any{"start": "12.500"},
	}, srv.last())

	require.NoError(t, m.Load(context.Background(), "clip.mp4", 0))
	assert.NotContains(t, srv.last(), "options")
}

func TestSelectVideoTrack(t *testing.T) {
	m, srv := newTestMPV(t)

	require.NoError(t, m.SelectVideoTrack(2))
	assert.Equal(t, []any{"set_property", "vid", 2.0}, srv.last())

	require.NoError(t, m.SelectVideoTrack(0))
	assert.Equal(t, []any{"set_property", "vid", "auto"}, srv.last())
}

func TestPictureInPicture(t *testing.T) {
	m, srv := newTestMPV(t)

	require.NoError(t, m.SetPictureInPicture(true))
	cmds := srv.commands()
	assert.Equal(t, []any{"set_property", "window-scale", pipScale}, cmds[len(cmds)-2])
	assert.Equal(t, []any{"set_property", "ontop", true}, cmds[len(cmds)-1])
	assert.True(t, m.PictureInPicture())

	require.NoError(t, m.SetPictureInPicture(false))
	assert.False(t, m.PictureInPicture())
}

func TestCommandErrorLeavesStateAlone(t *testing.T) {
	m, srv := newTestMPV(t)
	srv.failCommand("seek", "property unavailable")

	err := m.Seek(10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "property unavailable")
	assert.Equal(t, 0.0, m.CurrentTime())
}

func TestFileEventsBecomeMediaEvents(t *testing.T) {
	m, srv := newTestMPV(t)

	got := make(chan domain.MediaEvent, 10)
	m.Subscribe(func(evt domain.MediaEvent) { got <- evt })

	srv.send(`{"event":"start-file","playlist_entry_id":1}`)
	srv.send(`{"event":"file-loaded"}`)
	srv.send(`{"event":"end-file","reason":"error","file_error":"loading failed"}`)
	srv.send(`{"event":"end-file","reason":"stop"}`)
	srv.send(`{"event":"end-file","reason":"eof"}`)

	var types []domain.MediaEventType
	var loadErr error
	for i := 0; i < 4; i++ {
		select {
		case evt := <-got:
			types = append(types, evt.Type)
			if evt.Type == domain.MediaEventError {
				loadErr = evt.Error
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for media event %d", i)
		}
	}

	assert.Equal(t, []domain.MediaEventType{
		domain.MediaEventLoading, domain.MediaEventLoaded, domain.MediaEventError, domain.MediaEventEnded,
	}, types)
	require.Error(t, loadErr)
	assert.Contains(t, loadErr.Error(), "loading failed")
}

func TestCommandsFailAfterDisconnect(t *testing.T) {
	client, server := net.Pipe()
	m := New(Config{SocketPath: filepath.Join(t.TempDir(), "mpv.sock"), CommandTimeout: time.Second})
	startFakeServer(server)
	m.ipc.attach(client)
	require.NoError(t, m.observe(context.Background()))

	require.NoError(t, server.Close())

	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("event loop did not stop")
	}

	assert.ErrorIs(t, m.Play(), ErrNotConnected)
	assert.True(t, m.Paused())
	assert.NoError(t, m.Close())
}

func TestSupports(t *testing.T) {
	m := New(Config{SocketPath: "unused"})

	assert.True(t, m.Supports(domain.FormatHLS))
	assert.True(t, m.Supports(domain.FormatDASH))
	assert.True(t, m.Supports(domain.FormatProgressive))
	assert.False(t, m.Supports(domain.FormatUnsupported))
}

func TestParseArgs(t *testing.T) {
	assert.Equal(t, []string{"--fs", "--title=My Video", "--volume=50"},
		ParseArgs(`--fs "--title=My Video"  --volume=50`))
	assert.Equal(t, []string{"--title=It's here", "--sub-file="},
		ParseArgs("--title=\"It's here\"\t--sub-file=''"))
	assert.Equal(t, []string{""}, ParseArgs(`""`))
	assert.Empty(t, ParseArgs(""))
	assert.Empty(t, ParseArgs("   "))
}
