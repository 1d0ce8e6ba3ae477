// Package domaintest provides in-memory playback surfaces for tests
package domaintest

import (
	"context"
	"sync"

	"github.com/PizzaHomicide/vplay/internal/domain"
	"github.com/PizzaHomicide/vplay/internal/events"
)

// Load records a call to Media.Load
type Load struct {
	URL   string
	Start float64
}

// Media is an in-memory domain.Media.  Seeks are clamped to [0, Duration] like a real media element.
type Media struct {
	mu          sync.Mutex
	paused      bool
	muted       bool
	time        float64
	duration    float64
	bufferedEnd float64
	rate        float64
	pip         bool
	videoTrack  int
	loads       []Load
	stops       int
	unsupported map[domain.Format]bool
	emitter     events.Emitter[domain.MediaEvent]
}

// NewMedia returns a paused media with the given duration
func NewMedia(duration float64) *Media {
	return &Media{paused: true, duration: duration, rate: 1}
}

func (m *Media) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *Media) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = false
	return nil
}

func (m *Media) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = true
	return nil
}

func (m *Media) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

func (m *Media) SetMuted(muted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
	return nil
}

func (m *Media) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.time
}

func (m *Media) Seek(seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.time = min(max(seconds, 0), m.duration)
	return nil
}

func (m *Media) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Media) BufferedEnd() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bufferedEnd
}

// SetBufferedEnd sets the value reported by BufferedEnd
func (m *Media) SetBufferedEnd(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bufferedEnd = seconds
}

func (m *Media) PlaybackRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rate
}

func (m *Media) SetPlaybackRate(rate float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rate = rate
	return nil
}

func (m *Media) Load(_ context.Context, url string, start float64) error {
	m.mu.Lock()
	m.loads = append(m.loads, Load{URL: url, Start: start})
	m.time = start
	m.mu.Unlock()
	m.Emit(domain.MediaEvent{Type: domain.MediaEventLoading})
	return nil
}

// Loads returns every source loaded so far
func (m *Media) Loads() []Load {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Load(nil), m.loads...)
}

// Stop unloads the source, rewinding to zero
func (m *Media) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	m.time = 0
	return nil
}

// Stops returns how many times Stop was called
func (m *Media) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

func (m *Media) SelectVideoTrack(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videoTrack = id
	return nil
}

// VideoTrack returns the last selected video track id
func (m *Media) VideoTrack() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.videoTrack
}

func (m *Media) SetPictureInPicture(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pip = on
	return nil
}

// PictureInPicture reports whether the media is floating
func (m *Media) PictureInPicture() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pip
}

// Unsupport makes Supports report false for the format
func (m *Media) Unsupport(f domain.Format) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsupported == nil {
		m.unsupported = make(map[domain.Format]bool)
	}
	m.unsupported[f] = true
}

func (m *Media) Supports(f domain.Format) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.unsupported[f]
}

func (m *Media) Subscribe(fn func(domain.MediaEvent)) events.Subscription {
	return m.emitter.On("media", fn)
}

// Emit delivers a load-state notification to subscribers
func (m *Media) Emit(evt domain.MediaEvent) {
	m.emitter.Emit("media", evt)
}

// Subscribers returns the number of live subscriptions
func (m *Media) Subscribers() int {
	return m.emitter.Count("media")
}

// Element is an in-memory domain.Element
type Element struct {
	mu         sync.Mutex
	fullscreen bool
}

func (e *Element) SetFullscreen(on bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fullscreen = on
	return nil
}

// Fullscreen reports the last requested fullscreen state
func (e *Element) Fullscreen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fullscreen
}
