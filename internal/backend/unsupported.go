package backend

import (
	"context"

	"github.com/PizzaHomicide/vplay/internal/domain"
)

// Unsupported stands in for sources no backend can play.  Attach reports ErrUnsupportedFormat and nothing else
// ever happens.
type Unsupported struct{}

func NewUnsupported() *Unsupported {
	return &Unsupported{}
}

func (Unsupported) Attach(context.Context, domain.Surface, string) error {
	return ErrUnsupportedFormat
}

func (Unsupported) CurrentQualityLevels() []domain.QualityLevel {
	return []domain.QualityLevel{}
}

func (Unsupported) SelectQuality(int) {}

func (Unsupported) CurrentQuality() int {
	return domain.AutoQuality
}

func (Unsupported) Detach() {}
