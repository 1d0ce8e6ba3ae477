package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PizzaHomicide/vplay/internal/backend"
	"github.com/PizzaHomicide/vplay/internal/domain"
	"github.com/PizzaHomicide/vplay/internal/domain/domaintest"
	"github.com/PizzaHomicide/vplay/internal/events"
	"github.com/PizzaHomicide/vplay/internal/platform"
	"github.com/PizzaHomicide/vplay/internal/stream"
	"github.com/PizzaHomicide/vplay/internal/stream/hls"
)

// stubHLSEngine records handlers so tests can push level notifications, including ones that arrive late
type stubHLSEngine struct {
	mu        sync.Mutex
	handlers  map[hls.Event][]func(hls.EventData)
	emitter   events.Emitter[hls.EventData]
	loadLevel int
}

func newStubHLSEngine() *stubHLSEngine {
	return &stubHLSEngine{handlers: make(map[hls.Event][]func(hls.EventData)), loadLevel: hls.AutoLevel}
}

func (s *stubHLSEngine) On(evt hls.Event, fn func(hls.EventData)) events.Subscription {
	s.mu.Lock()
	s.handlers[evt] = append(s.handlers[evt], fn)
	s.mu.Unlock()
	return s.emitter.On(string(evt), fn)
}

func (s *stubHLSEngine) AttachMedia(domain.Media) {}
func (s *stubHLSEngine) LoadSource(string)        {}
func (s *stubHLSEngine) SetLoadLevel(i int)       { s.loadLevel = i }
func (s *stubHLSEngine) LoadLevel() int           { return s.loadLevel }
func (s *stubHLSEngine) Destroy()                 {}

func (s *stubHLSEngine) fail(err error) {
	s.emitter.Emit(string(hls.EventError), hls.EventData{Err: err})
}

func (s *stubHLSEngine) levelLoaded(heights ...int) {
	s.emitter.Emit(string(hls.EventLevelLoaded), hls.EventData{Levels: levels(heights...)})
}

func (s *stubHLSEngine) lateLevelLoaded(heights ...int) {
	s.mu.Lock()
	fns := append([]func(hls.EventData){}, s.handlers[hls.EventLevelLoaded]...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(hls.EventData{Levels: levels(heights...)})
	}
}

func levels(heights ...int) []hls.Level {
	out := make([]hls.Level, 0, len(heights))
	for _, h := range heights {
		out = append(out, hls.Level{Bitrate: h * 4000, Width: h * 16 / 9, Height: h})
	}
	return out
}

type fixture struct {
	doc    *platform.Document
	media  *domaintest.Media
	el     *domaintest.Element
	stub   *stubHLSEngine
	engine *Engine
}

func newFixture(t *testing.T, source string) *fixture {
	t.Helper()
	f := &fixture{
		doc:   platform.NewDocument(),
		media: domaintest.NewMedia(100),
		el:    &domaintest.Element{},
		stub:  newStubHLSEngine(),
	}
	factory := backend.Factory{NewHLSEngine: func() backend.HLSEngine { return f.stub }}
	f.engine = New(source, f.doc, WithBackendFactory(factory))
	t.Cleanup(f.engine.Close)
	return f
}

func (f *fixture) bind() *fixture {
	f.engine.SetSurface(f.media, f.el)
	f.engine.Initialize(context.Background())
	return f
}

func TestControlsAreNoOpsBeforeSurfaceBound(t *testing.T) {
	f := newFixture(t, "https://cdn/master.m3u8")
	e := f.engine

	assert.NotPanics(t, func() {
		e.Initialize(context.Background())
		e.TogglePlay()
		e.ToggleMute()
		e.ToggleFullScreenMode()
		e.TogglePictureInPictureMode()
		e.SetPlaybackQuality(domain.AutoQuality)
		e.SetPlaybackQuality(4)
		e.SetPlaybackRate("2x")
		e.SkipForwardBackward(5)
		e.SeekToPercent(50)
	})
	assert.False(t, e.IsFullScreen())
	assert.Empty(t, e.GetPlaybackQuality())
	assert.False(t, e.Status().Bound)
	assert.True(t, f.media.Paused())
}

func TestSetPlaybackQualityAutoBeforeAnySnapshot(t *testing.T) {
	f := newFixture(t, "https://cdn/master.m3u8").bind()

	assert.NotPanics(t, func() { f.engine.SetPlaybackQuality(domain.AutoQuality) })
	assert.Equal(t, hls.AutoLevel, f.stub.loadLevel)
	assert.Empty(t, f.engine.GetPlaybackQuality())
}

func TestGetPlaybackQualityFollowsSnapshot(t *testing.T) {
	f := newFixture(t, "https://cdn/master.m3u8").bind()

	var changes []Change
	f.engine.Subscribe(func(c Change) { changes = append(changes, c) })

	f.stub.levelLoaded(1080, 360, 720)

	got := f.engine.GetPlaybackQuality()
	require.Len(t, got, 3)
	assert.Equal(t, []domain.QualityOption{
		{Label: "1080p", Index: 0},
		{Label: "360p", Index: 1},
		{Label: "720p", Index: 2},
	}, got)
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeQuality, changes[0].Type)
	assert.Len(t, changes[0].Levels, 3)

	f.engine.SetPlaybackQuality(2)
	assert.Equal(t, 2, f.stub.loadLevel)
}

func TestSetPlaybackRate(t *testing.T) {
	f := newFixture(t, "clip.mp4").bind()

	f.engine.SetPlaybackRate("1.5x")
	assert.Equal(t, 1.5, f.media.PlaybackRate())
	f.engine.SetPlaybackRate("Normal")
	assert.Equal(t, 1.0, f.media.PlaybackRate())
	f.engine.SetPlaybackRate("0.25x")
	assert.Equal(t, 0.25, f.media.PlaybackRate())
	f.engine.SetPlaybackRate("fast")
	assert.Equal(t, 0.25, f.media.PlaybackRate())
}

func TestParseRate(t *testing.T) {
	for label, want := range map[string]float64{"0.25x": 0.25, "0.5x": 0.5, "Normal": 1, "1.5x": 1.5, "2x": 2, ".5": 0.5} {
		got, err := ParseRate(label)
		require.NoError(t, err, label)
		assert.Equal(t, want, got, label)
	}

	for _, label := range []string{"", "x2", "normal", "0x", "-1x"} {
		_, err := ParseRate(label)
		assert.Error(t, err, label)
	}
}

func TestTogglePlayRoundTrip(t *testing.T) {
	f := newFixture(t, "clip.mp4").bind()
	require.True(t, f.media.Paused())

	f.engine.TogglePlay()
	assert.False(t, f.media.Paused())
	f.engine.TogglePlay()
	assert.True(t, f.media.Paused())
}

func TestToggleMute(t *testing.T) {
	f := newFixture(t, "clip.mp4").bind()

	f.engine.ToggleMute()
	assert.True(t, f.media.Muted())
	f.engine.ToggleMute()
	assert.False(t, f.media.Muted())
}

func TestSkipForwardBackwardRestoresPosition(t *testing.T) {
	f := newFixture(t, "clip.mp4").bind()
	require.NoError(t, f.media.Seek(42))

	f.engine.SkipForwardBackward(5)
	assert.Equal(t, 47.0, f.media.CurrentTime())
	f.engine.SkipForwardBackward(-5)
	assert.Equal(t, 42.0, f.media.CurrentTime())

	require.NoError(t, f.media.Seek(2))
	f.engine.SkipForwardBackward(-5)
	assert.Equal(t, 0.0, f.media.CurrentTime())

	f.engine.SeekToPercent(50)
	assert.Equal(t, 50.0, f.media.CurrentTime())
}

func TestFullScreenToggle(t *testing.T) {
	f := newFixture(t, "clip.mp4").bind()

	f.engine.ToggleFullScreenMode()
	assert.True(t, f.engine.IsFullScreen())
	assert.True(t, f.el.Fullscreen())

	f.engine.ToggleFullScreenMode()
	assert.False(t, f.engine.IsFullScreen())
	assert.False(t, f.el.Fullscreen())
}

func TestFullScreenPreemptedByAnotherEngine(t *testing.T) {
	f := newFixture(t, "clip.mp4").bind()
	other := New("other.mp4", f.doc)
	defer other.Close()
	otherEl := &domaintest.Element{}
	other.SetSurface(domaintest.NewMedia(10), otherEl)
	other.Initialize(context.Background())

	f.engine.ToggleFullScreenMode()
	other.ToggleFullScreenMode()

	assert.False(t, f.engine.IsFullScreen())
	assert.True(t, other.IsFullScreen())

	// Toggling again requests fullscreen rather than exiting someone else's
	f.engine.ToggleFullScreenMode()
	assert.True(t, f.engine.IsFullScreen())
}

func TestPictureInPictureExitsAnyActiveSession(t *testing.T) {
	f := newFixture(t, "clip.mp4").bind()
	other := New("other.mp4", f.doc)
	defer other.Close()
	otherMedia := domaintest.NewMedia(10)
	other.SetSurface(otherMedia, &domaintest.Element{})

	other.TogglePictureInPictureMode()
	require.True(t, otherMedia.PictureInPicture())

	f.engine.TogglePictureInPictureMode()
	assert.False(t, otherMedia.PictureInPicture())
	assert.Nil(t, f.doc.PictureInPictureElement())
	assert.False(t, f.media.PictureInPicture())

	f.engine.TogglePictureInPictureMode()
	assert.True(t, f.media.PictureInPicture())
	assert.True(t, f.engine.IsPictureInPicture())
}

func TestUnsupportedSourceDegradesToInertControls(t *testing.T) {
	f := newFixture(t, "https://cdn/clip.mkv").bind()

	st := f.engine.Status()
	assert.Equal(t, domain.FormatUnsupported, st.Format)
	assert.ErrorIs(t, st.Err, backend.ErrUnsupportedFormat)
	assert.False(t, st.Loading)
	assert.False(t, st.Bound)
	assert.Empty(t, f.media.Loads())
	assert.Empty(t, f.engine.GetPlaybackQuality())
	assert.Equal(t, domain.AutoQuality, f.engine.PlaybackQuality())

	f.engine.TogglePlay()
	f.engine.ToggleMute()
	f.engine.ToggleFullScreenMode()
	f.engine.SkipForwardBackward(5)
	assert.True(t, f.media.Paused())
	assert.False(t, f.media.Muted())
	assert.False(t, f.el.Fullscreen())
	assert.Equal(t, 0.0, f.media.CurrentTime())
}

func TestUnsupportedSourceAfterPlayingSourceLeavesSurfaceAlone(t *testing.T) {
	prev := newFixture(t, "a.mp4").bind()
	prev.engine.TogglePlay()
	require.False(t, prev.media.Paused())

	prev.engine.Close()
	assert.Equal(t, 1, prev.media.Stops())

	next := New("b.mkv", prev.doc)
	defer next.Close()
	next.SetSurface(prev.media, prev.el)
	next.Initialize(context.Background())

	st := next.Status()
	assert.Equal(t, domain.FormatUnsupported, st.Format)
	assert.ErrorIs(t, st.Err, backend.ErrUnsupportedFormat)

	next.TogglePlay()
	next.SetPlaybackRate("2x")
	next.SeekToPercent(50)
	assert.False(t, prev.media.Paused())
	assert.Equal(t, 1.0, prev.media.PlaybackRate())
	assert.Equal(t, 0.0, prev.media.CurrentTime())
	assert.Len(t, prev.media.Loads(), 1)
}

func TestCloseLeavesFullscreenAndPictureInPicture(t *testing.T) {
	prev := newFixture(t, "a.mp4").bind()
	prev.engine.ToggleFullScreenMode()
	prev.engine.TogglePictureInPictureMode()
	require.True(t, prev.el.Fullscreen())
	require.True(t, prev.media.PictureInPicture())

	prev.engine.Close()

	next := New("b.mp4", prev.doc)
	defer next.Close()
	next.SetSurface(prev.media, prev.el)
	next.Initialize(context.Background())

	assert.False(t, prev.el.Fullscreen())
	assert.False(t, prev.media.PictureInPicture())
	assert.False(t, next.IsFullScreen())
	assert.False(t, next.IsPictureInPicture())

	next.ToggleFullScreenMode()
	assert.True(t, prev.el.Fullscreen())
	assert.True(t, next.IsFullScreen())
}

func TestFullscreenLeftInPlayerWindowIsNoticed(t *testing.T) {
	f := newFixture(t, "clip.mp4").bind()
	f.engine.ToggleFullScreenMode()
	require.True(t, f.engine.IsFullScreen())

	require.NoError(t, f.el.SetFullscreen(false))
	assert.False(t, f.engine.IsFullScreen())

	f.engine.ToggleFullScreenMode()
	assert.True(t, f.el.Fullscreen())
}

func TestBackendErrorStopsLoading(t *testing.T) {
	f := newFixture(t, "https://cdn/master.m3u8").bind()
	var changes []Change
	f.engine.Subscribe(func(c Change) { changes = append(changes, c) })
	require.True(t, f.engine.Status().Loading)

	levelErr := errors.New("level 0 gone")
	f.stub.fail(levelErr)

	st := f.engine.Status()
	assert.False(t, st.Loading)
	assert.False(t, st.Ready)
	assert.ErrorIs(t, st.Err, levelErr)
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeLoadState, changes[0].Type)
}

func TestMissingManifestIsReported(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	doc := platform.NewDocument()
	media := domaintest.NewMedia(0)
	factory := backend.Factory{Fetcher: stream.Fetcher{Client: srv.Client()}}
	e := New(srv.URL+"/missing.m3u8", doc, WithBackendFactory(factory))
	defer e.Close()
	e.SetSurface(media, &domaintest.Element{})
	e.Initialize(context.Background())

	assert.Eventually(t, func() bool {
		st := e.Status()
		return !st.Loading && st.Err != nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, e.Status().Err.Error(), "404")
	assert.Empty(t, media.Loads())
}

func TestPlaybackQualityFollowsSelection(t *testing.T) {
	f := newFixture(t, "https://cdn/master.m3u8").bind()
	f.stub.levelLoaded(360, 720)
	assert.Equal(t, domain.AutoQuality, f.engine.PlaybackQuality())

	f.engine.SetPlaybackQuality(1)
	assert.Equal(t, 1, f.engine.PlaybackQuality())
	f.engine.SetPlaybackQuality(domain.AutoQuality)
	assert.Equal(t, domain.AutoQuality, f.engine.PlaybackQuality())
}

func TestBackendUnavailable(t *testing.T) {
	f := newFixture(t, "https://cdn/master.m3u8")
	f.media.Unsupport(domain.FormatHLS)
	f.bind()

	assert.ErrorIs(t, f.engine.Status().Err, backend.ErrBackendUnavailable)
	assert.NotPanics(t, func() { f.engine.SetPlaybackQuality(0) })
}

func TestSurfaceLoadErrorStopsLoading(t *testing.T) {
	f := newFixture(t, "clip.mp4").bind()
	assert.True(t, f.engine.Status().Loading)

	f.media.Emit(domain.MediaEvent{Type: domain.MediaEventLoaded})
	st := f.engine.Status()
	assert.False(t, st.Loading)
	assert.True(t, st.Ready)

	loadErr := errors.New("decode failed")
	f.media.Emit(domain.MediaEvent{Type: domain.MediaEventError, Error: loadErr})
	st = f.engine.Status()
	assert.False(t, st.Loading)
	assert.False(t, st.Ready)
	assert.ErrorIs(t, st.Err, loadErr)
	// No retry
	assert.Len(t, f.media.Loads(), 1)
}

func TestLateEventFromOldBackendDoesNotReachNewEngine(t *testing.T) {
	old := newFixture(t, "https://cdn/a/master.m3u8").bind()
	old.stub.levelLoaded(360, 720)
	require.Len(t, old.engine.GetPlaybackQuality(), 2)
	oldStub := old.stub

	old.engine.Close()

	next := newFixture(t, "https://cdn/b/master.m3u8")
	next.media, next.el, next.doc = old.media, old.el, old.doc
	next.bind()
	next.stub.levelLoaded(480)

	oldStub.levelLoaded(240, 360, 720, 1080)
	oldStub.lateLevelLoaded(240, 360, 720, 1080)

	got := next.engine.GetPlaybackQuality()
	require.Len(t, got, 1)
	assert.Equal(t, "480p", got[0].Label)
	assert.Empty(t, old.engine.GetPlaybackQuality())
	assert.Equal(t, 1, old.media.Subscribers())
}

func TestSetSurfaceOnlyOnce(t *testing.T) {
	f := newFixture(t, "clip.mp4").bind()
	f.engine.SetSurface(domaintest.NewMedia(5), &domaintest.Element{})

	f.engine.TogglePlay()
	assert.False(t, f.media.Paused())
}

func TestStatus(t *testing.T) {
	f := newFixture(t, "clip.mp4").bind()
	require.NoError(t, f.media.Seek(25))
	f.media.SetBufferedEnd(50)

	st := f.engine.Status()
	assert.True(t, st.Bound)
	assert.Equal(t, domain.FormatProgressive, st.Format)
	assert.Equal(t, 25.0, st.ProgressPercent())
	assert.Equal(t, 50.0, st.BufferPercent())
	assert.Equal(t, f.engine.ID(), st.SessionID)
	assert.Equal(t, []string{"0.25x", "0.5x", "Normal", "1.5x", "2x"}, f.engine.PlaybackRates())
}

func TestCloseIsIdempotentAndInert(t *testing.T) {
	f := newFixture(t, "clip.mp4").bind()
	f.engine.ToggleFullScreenMode()

	f.engine.Close()
	f.engine.Close()

	assert.Nil(t, f.doc.FullscreenElement())
	assert.Equal(t, 0, f.media.Subscribers())
	f.engine.TogglePlay()
	assert.True(t, f.media.Paused())
}
