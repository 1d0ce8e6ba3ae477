package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/PizzaHomicide/vplay/internal/domain"
	"github.com/PizzaHomicide/vplay/internal/log"
)

// Progressive plays single-file sources directly on the media output.  It never has quality levels.
type Progressive struct {
	mu       sync.Mutex
	att      attachment
	loaded   bool
	detached bool
}

func NewProgressive() *Progressive {
	return &Progressive{}
}

func (b *Progressive) Attach(ctx context.Context, surface domain.Surface, source string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.detached {
		return ErrAlreadyAttached
	}
	already, err := b.att.claim(surface, source)
	if err != nil || already {
		return err
	}

	log.Info("Loading progressive source", "source", source)
	b.loaded = true
	if err := surface.Media.Load(ctx, source, 0); err != nil {
		return fmt.Errorf("failed to load source: %w", err)
	}
	return nil
}

func (b *Progressive) CurrentQualityLevels() []domain.QualityLevel {
	return []domain.QualityLevel{}
}

func (b *Progressive) SelectQuality(int) {}

func (b *Progressive) CurrentQuality() int {
	return domain.AutoQuality
}

func (b *Progressive) Detach() {
	b.mu.Lock()
	if b.detached {
		b.mu.Unlock()
		return
	}
	b.detached = true
	media := b.att.surface.Media
	loaded := b.loaded
	b.mu.Unlock()

	if loaded {
		stopMedia(media)
	}
}
