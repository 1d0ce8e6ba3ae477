// Package dash implements a DASH adaptive engine on top of an mpv-like media output.
//
// Unlike HLS the engine is pull based: it raises EventStreamInitialized once the MPD has been parsed and playback
// has started, after which the bitrate list of each media type can be queried.
package dash

import (
	"context"
	"fmt"
	"sync"

	"github.com/PizzaHomicide/vplay/internal/domain"
	"github.com/PizzaHomicide/vplay/internal/events"
	"github.com/PizzaHomicide/vplay/internal/log"
	"github.com/PizzaHomicide/vplay/internal/stream"
)

// Event names a notification raised by the player
type Event string

const (
	EventStreamInitialized Event = "streamInitialized"
	EventError             Event = "error"
)

// MediaTypeVideo addresses the video track
const MediaTypeVideo = "video"

// AutoQuality lets the media pick the representation
const AutoQuality = -1

// BitrateInfo describes one representation of a media type
type BitrateInfo struct {
	MediaType    string
	ID           string
	Bitrate      int
	Width        int
	Height       int
	QualityIndex int
	// TrackID is the 1-based track number of the representation on the media output
	TrackID int
}

// EventData is the payload delivered with every notification
type EventData struct {
	Err error
}

// Player is a single-use DASH engine.  Create one per source.
type Player struct {
	fetcher stream.Fetcher

	mu       sync.Mutex
	media    domain.Media
	bitrates map[string][]BitrateInfo
	quality  map[string]int
	reset    bool

	ctx     context.Context
	cancel  context.CancelFunc
	emitter events.Emitter[EventData]
}

// NewPlayer creates a player that fetches manifests with the given fetcher
func NewPlayer(fetcher stream.Fetcher) *Player {
	ctx, cancel := context.WithCancel(context.Background())
	return &Player{
		fetcher: fetcher,
		quality: make(map[string]int),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// On registers a handler for the given event
func (p *Player) On(evt Event, fn func(EventData)) events.Subscription {
	return p.emitter.On(string(evt), fn)
}

// Initialize binds the media output and starts loading the MPD at url in the background
func (p *Player) Initialize(media domain.Media, url string, autoPlay bool) {
	p.mu.Lock()
	if p.reset {
		p.mu.Unlock()
		return
	}
	p.media = media
	p.mu.Unlock()

	go p.load(url, autoPlay)
}

// BitrateInfoListFor returns the representations of the given media type, lowest bitrate first
func (p *Player) BitrateInfoListFor(mediaType string) []BitrateInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]BitrateInfo(nil), p.bitrates[mediaType]...)
}

// QualityFor returns the forced quality index for the media type, or AutoQuality
func (p *Player) QualityFor(mediaType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if q, ok := p.quality[mediaType]; ok {
		return q
	}
	return AutoQuality
}

// SetQualityFor forces the representation at index for the media type, or restores automatic selection with
// AutoQuality.  Only video quality can be forced; indices outside the bitrate list are ignored.
func (p *Player) SetQualityFor(mediaType string, index int) {
	p.mu.Lock()
	if p.reset || mediaType != MediaTypeVideo {
		p.mu.Unlock()
		return
	}
	list := p.bitrates[mediaType]
	if index != AutoQuality && (index < 0 || index >= len(list)) {
		p.mu.Unlock()
		log.Warn("Ignoring out of range DASH quality", "media_type", mediaType, "index", index, "available", len(list))
		return
	}

	p.quality[mediaType] = index
	media := p.media
	track := 0
	if index != AutoQuality {
		track = list[index].TrackID
	}
	p.mu.Unlock()

	log.Info("Switching DASH quality", "media_type", mediaType, "index", index, "track", track)
	if media == nil {
		return
	}
	if err := media.SelectVideoTrack(track); err != nil {
		p.fail(fmt.Errorf("failed to select video track: %w", err))
	}
}

// Reset stops all background work and drops every subscription
func (p *Player) Reset() {
	p.mu.Lock()
	p.reset = true
	p.media = nil
	p.mu.Unlock()

	p.cancel()
	p.emitter.Clear()
}

func (p *Player) load(url string, autoPlay bool) {
	data, err := p.fetcher.Fetch(p.ctx, url)
	if err != nil {
		p.fail(err)
		return
	}

	bitrates, err := parseBitrates(data)
	if err != nil {
		p.fail(err)
		return
	}

	p.mu.Lock()
	if p.reset {
		p.mu.Unlock()
		return
	}
	p.bitrates = bitrates
	media := p.media
	p.mu.Unlock()

	if media != nil {
		if err := media.Load(p.ctx, url, 0); err != nil {
			p.fail(fmt.Errorf("failed to start playback: %w", err))
			return
		}
		if !autoPlay {
			if err := media.Pause(); err != nil {
				log.Warn("Failed to pause DASH stream after load", "error", err)
			}
		}
	}

	if p.ctx.Err() != nil {
		return
	}
	p.emitter.Emit(string(EventStreamInitialized), EventData{})
}

func (p *Player) fail(err error) {
	if p.ctx.Err() != nil {
		return
	}
	log.Error("DASH player error", "error", err)
	p.emitter.Emit(string(EventError), EventData{Err: err})
}
