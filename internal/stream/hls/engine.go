// Package hls implements an HLS adaptive engine on top of an mpv-like media output.
//
// The engine downloads and parses the multivariant playlist, tells the media to play it, and reports the variant
// list through push notifications: EventManifestParsed once the playlist is understood and EventLevelLoaded
// every time a level's media playlist has been loaded.  Selecting a level reloads that variant on the media at
// the current position; selecting -1 hands variant selection back to the media.
package hls

import (
	"context"
	"fmt"
	"sync"

	"github.com/bluenviron/gohlslib/v2/pkg/playlist"

	"github.com/PizzaHomicide/vplay/internal/domain"
	"github.com/PizzaHomicide/vplay/internal/events"
	"github.com/PizzaHomicide/vplay/internal/log"
	"github.com/PizzaHomicide/vplay/internal/stream"
)

// Event names a notification raised by the engine
type Event string

const (
	EventManifestParsed Event = "manifestParsed"
	EventLevelLoaded    Event = "levelLoaded"
	EventError          Event = "error"
)

// AutoLevel lets the media pick the variant
const AutoLevel = -1

// Level is one variant stream as listed in the multivariant playlist
type Level struct {
	Bitrate int
	Width   int
	Height  int
	URI     string
}

// EventData is the payload delivered with every notification
type EventData struct {
	Levels []Level
	Level  int
	Err    error
}

// Engine is a single-use HLS engine.  Create one per source.
type Engine struct {
	fetcher stream.Fetcher

	mu        sync.Mutex
	source    string
	media     domain.Media
	levels    []Level
	loadLevel int
	destroyed bool

	ctx     context.Context
	cancel  context.CancelFunc
	emitter events.Emitter[EventData]
}

// New creates an engine that fetches manifests with the given fetcher
func New(fetcher stream.Fetcher) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		fetcher:   fetcher,
		loadLevel: AutoLevel,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// On registers a handler for the given event
func (e *Engine) On(evt Event, fn func(EventData)) events.Subscription {
	return e.emitter.On(string(evt), fn)
}

// AttachMedia binds the media output the engine plays into
func (e *Engine) AttachMedia(m domain.Media) {
	e.mu.Lock()
	e.media = m
	e.mu.Unlock()
}

// LoadSource starts loading the playlist at url in the background
func (e *Engine) LoadSource(url string) {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.source = url
	e.mu.Unlock()

	go e.load(url)
}

// Levels returns the variants of the last parsed playlist
func (e *Engine) Levels() []Level {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Level(nil), e.levels...)
}

// LoadLevel returns the forced level, or AutoLevel
func (e *Engine) LoadLevel() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadLevel
}

// SetLoadLevel forces playback of the level at index, or returns to automatic selection with AutoLevel.
// Indices outside the current level list are ignored.
func (e *Engine) SetLoadLevel(index int) {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	if index != AutoLevel && (index < 0 || index >= len(e.levels)) {
		e.mu.Unlock()
		log.Warn("Ignoring out of range HLS level", "index", index, "levels", len(e.levels))
		return
	}

	e.loadLevel = index
	media, source := e.media, e.source
	uri := source
	if index != AutoLevel {
		uri = e.levels[index].URI
	}
	e.mu.Unlock()

	log.Info("Switching HLS level", "index", index, "uri", uri)
	if media != nil {
		if err := media.Load(e.ctx, uri, media.CurrentTime()); err != nil {
			e.fail(fmt.Errorf("failed to switch level: %w", err))
			return
		}
	}

	if index == AutoLevel {
		e.emit(EventLevelLoaded, AutoLevel)
		return
	}
	go e.loadLevelPlaylist(index, uri)
}

// Destroy stops all background work and drops every subscription
func (e *Engine) Destroy() {
	e.mu.Lock()
	e.destroyed = true
	e.media = nil
	e.mu.Unlock()

	e.cancel()
	e.emitter.Clear()
}

func (e *Engine) load(url string) {
	data, err := e.fetcher.Fetch(e.ctx, url)
	if err != nil {
		e.fail(err)
		return
	}

	levels, err := parseLevels(url, data)
	if err != nil {
		e.fail(err)
		return
	}

	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.levels = levels
	media := e.media
	e.mu.Unlock()

	e.emit(EventManifestParsed, AutoLevel)

	if media != nil {
		if err := media.Load(e.ctx, url, 0); err != nil {
			e.fail(fmt.Errorf("failed to start playback: %w", err))
			return
		}
	}

	if len(levels) > 0 {
		e.loadLevelPlaylist(0, levels[0].URI)
	}
}

// loadLevelPlaylist downloads the media playlist of a level and reports the level as loaded
func (e *Engine) loadLevelPlaylist(index int, uri string) {
	data, err := e.fetcher.Fetch(e.ctx, uri)
	if err != nil {
		e.fail(fmt.Errorf("failed to load level %d: %w", index, err))
		return
	}

	pl, err := playlist.Unmarshal(data)
	if err != nil {
		e.fail(fmt.Errorf("failed to parse level %d: %w", index, err))
		return
	}
	if _, ok := pl.(*playlist.Media); !ok {
		e.fail(fmt.Errorf("level %d is not a media playlist", index))
		return
	}

	e.emit(EventLevelLoaded, index)
}

func (e *Engine) emit(evt Event, level int) {
	if e.ctx.Err() != nil {
		return
	}
	e.emitter.Emit(string(evt), EventData{Levels: e.Levels(), Level: level})
}

func (e *Engine) fail(err error) {
	if e.ctx.Err() != nil {
		return
	}
	log.Error("HLS engine error", "error", err)
	e.emitter.Emit(string(EventError), EventData{Err: err})
}

// parseLevels decodes a playlist into its levels.  A media playlist has a single implicit level.
func parseLevels(manifestURL string, data []byte) ([]Level, error) {
	pl, err := playlist.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse playlist: %w", err)
	}

	switch pl := pl.(type) {
	case *playlist.Multivariant:
		levels := make([]Level, 0, len(pl.Variants))
		for _, v := range pl.Variants {
			uri, err := stream.Resolve(manifestURL, v.URI)
			if err != nil {
				return nil, err
			}
			width, height := parseResolution(v.Resolution)
			levels = append(levels, Level{
				Bitrate: v.Bandwidth,
				Width:   width,
				Height:  height,
				URI:     uri,
			})
		}
		return levels, nil
	case *playlist.Media:
		return []Level{{URI: manifestURL}}, nil
	default:
		return nil, fmt.Errorf("unsupported playlist type %T", pl)
	}
}

func parseResolution(res string) (int, int) {
	var w, h int
	if _, err := fmt.Sscanf(res, "%dx%d", &w, &h); err != nil {
		return 0, 0
	}
	return w, h
}
