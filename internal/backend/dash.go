package backend

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"github.com/PizzaHomicide/vplay/internal/domain"
	"github.com/PizzaHomicide/vplay/internal/events"
	"github.com/PizzaHomicide/vplay/internal/log"
	"github.com/PizzaHomicide/vplay/internal/stream/dash"
)

// DASHPlayer is the part of dash.Player driven by the DASH backend
type DASHPlayer interface {
	On(evt dash.Event, fn func(dash.EventData)) events.Subscription
	Initialize(media domain.Media, url string, autoPlay bool)
	BitrateInfoListFor(mediaType string) []dash.BitrateInfo
	SetQualityFor(mediaType string, index int)
	QualityFor(mediaType string) int
	Reset()
}

// DASH plays sources through a DASH player
type DASH struct {
	newPlayer func() DASHPlayer

	mu     sync.Mutex
	player DASHPlayer
	att    attachment
	subs   events.Group
	snap   snapshot
}

// NewDASH creates a DASH backend.  newPlayer is called once, on the first attach.
func NewDASH(newPlayer func() DASHPlayer, cb Callbacks) *DASH {
	return &DASH{
		newPlayer: newPlayer,
		snap:      snapshot{cb: cb},
	}
}

func (b *DASH) Attach(_ context.Context, surface domain.Surface, source string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.snap.isDetached() {
		return ErrAlreadyAttached
	}
	already, err := b.att.claim(surface, source)
	if err != nil || already {
		return err
	}
	if !supports(surface.Media, domain.FormatDASH) {
		return ErrBackendUnavailable
	}

	player := b.newPlayer()
	b.subs.Add(
		player.On(dash.EventStreamInitialized, func(dash.EventData) { b.onStreamInitialized(player) }),
		player.On(dash.EventError, func(d dash.EventData) {
			if b.snap.fail(d.Err) {
				log.Warn("DASH player reported an error", "source", source, "error", d.Err)
			}
		}),
	)
	player.Initialize(surface.Media, source, true)
	b.player = player
	log.Info("DASH stream loaded", "source", source)

	return nil
}

func (b *DASH) onStreamInitialized(player DASHPlayer) {
	infos := player.BitrateInfoListFor(dash.MediaTypeVideo)
	levels := lo.Map(infos, func(info dash.BitrateInfo, i int) domain.QualityLevel {
		return domain.QualityLevel{
			Bitrate: info.Bitrate,
			Width:   domain.IntPtr(info.Width),
			Height:  domain.IntPtr(info.Height),
			Index:   i,
		}
	})
	if b.snap.replace(levels) {
		log.Debug("DASH quality levels updated", "count", len(levels))
	}
}

func (b *DASH) CurrentQualityLevels() []domain.QualityLevel {
	return b.snap.current()
}

func (b *DASH) SelectQuality(index int) {
	b.mu.Lock()
	player := b.player
	b.mu.Unlock()

	if player == nil {
		return
	}
	player.SetQualityFor(dash.MediaTypeVideo, index)
}

func (b *DASH) CurrentQuality() int {
	b.mu.Lock()
	player := b.player
	b.mu.Unlock()

	if player == nil {
		return domain.AutoQuality
	}
	return player.QualityFor(dash.MediaTypeVideo)
}

func (b *DASH) Detach() {
	if !b.snap.detach() {
		return
	}
	b.subs.Cancel()

	b.mu.Lock()
	player := b.player
	media := b.att.surface.Media
	b.player = nil
	b.mu.Unlock()

	if player != nil {
		player.Reset()
		stopMedia(media)
	}
}
