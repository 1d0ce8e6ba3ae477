package backend

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"github.com/PizzaHomicide/vplay/internal/domain"
	"github.com/PizzaHomicide/vplay/internal/events"
	"github.com/PizzaHomicide/vplay/internal/log"
	"github.com/PizzaHomicide/vplay/internal/stream/hls"
)

// HLSEngine is the part of hls.Engine driven by the HLS backend
type HLSEngine interface {
	On(evt hls.Event, fn func(hls.EventData)) events.Subscription
	AttachMedia(m domain.Media)
	LoadSource(url string)
	SetLoadLevel(index int)
	LoadLevel() int
	Destroy()
}

// HLS plays sources through an HLS engine
type HLS struct {
	newEngine func() HLSEngine

	mu     sync.Mutex
	engine HLSEngine
	att    attachment
	subs   events.Group
	snap   snapshot
}

// NewHLS creates an HLS backend.  newEngine is called once, on the first attach.
func NewHLS(newEngine func() HLSEngine, cb Callbacks) *HLS {
	return &HLS{
		newEngine: newEngine,
		snap:      snapshot{cb: cb},
	}
}

func (b *HLS) Attach(_ context.Context, surface domain.Surface, source string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.snap.isDetached() {
		return ErrAlreadyAttached
	}
	already, err := b.att.claim(surface, source)
	if err != nil || already {
		return err
	}
	if !supports(surface.Media, domain.FormatHLS) {
		return ErrBackendUnavailable
	}

	engine := b.newEngine()
	b.subs.Add(
		engine.On(hls.EventManifestParsed, func(d hls.EventData) {
			log.Info("HLS stream loaded", "source", source, "levels", len(d.Levels))
		}),
		engine.On(hls.EventLevelLoaded, b.onLevelLoaded),
		engine.On(hls.EventError, func(d hls.EventData) {
			if b.snap.fail(d.Err) {
				log.Warn("HLS engine reported an error", "source", source, "error", d.Err)
			}
		}),
	)
	engine.AttachMedia(surface.Media)
	engine.LoadSource(source)
	b.engine = engine

	return nil
}

func (b *HLS) onLevelLoaded(d hls.EventData) {
	levels := lo.Map(d.Levels, func(l hls.Level, i int) domain.QualityLevel {
		return domain.QualityLevel{
			Bitrate: l.Bitrate,
			Width:   domain.IntPtr(l.Width),
			Height:  domain.IntPtr(l.Height),
			Index:   i,
		}
	})
	if b.snap.replace(levels) {
		log.Debug("HLS quality levels updated", "count", len(levels), "level", d.Level)
	}
}

func (b *HLS) CurrentQualityLevels() []domain.QualityLevel {
	return b.snap.current()
}

func (b *HLS) SelectQuality(index int) {
	b.mu.Lock()
	engine := b.engine
	b.mu.Unlock()

	if engine == nil {
		return
	}
	engine.SetLoadLevel(index)
}

func (b *HLS) CurrentQuality() int {
	b.mu.Lock()
	engine := b.engine
	b.mu.Unlock()

	if engine == nil {
		return domain.AutoQuality
	}
	return engine.LoadLevel()
}

func (b *HLS) Detach() {
	if !b.snap.detach() {
		return
	}
	b.subs.Cancel()

	b.mu.Lock()
	engine := b.engine
	media := b.att.surface.Media
	b.engine = nil
	b.mu.Unlock()

	if engine != nil {
		engine.Destroy()
		stopMedia(media)
	}
}
