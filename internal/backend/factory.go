package backend

import (
	"github.com/PizzaHomicide/vplay/internal/domain"
	"github.com/PizzaHomicide/vplay/internal/log"
	"github.com/PizzaHomicide/vplay/internal/stream"
	"github.com/PizzaHomicide/vplay/internal/stream/dash"
	"github.com/PizzaHomicide/vplay/internal/stream/hls"
)

// Factory creates the backend variant matching a format
type Factory struct {
	Fetcher stream.Fetcher

	// Optional engine constructors.  The real HLS and DASH engines are used when nil.
	NewHLSEngine  func() HLSEngine
	NewDASHPlayer func() DASHPlayer
}

// New returns a fresh, unattached backend for the format
func (f Factory) New(format domain.Format, cb Callbacks) Backend {
	log.Debug("Creating streaming backend", "format", format)

	switch format {
	case domain.FormatHLS:
		newEngine := f.NewHLSEngine
		if newEngine == nil {
			newEngine = func() HLSEngine { return hls.New(f.Fetcher) }
		}
		return NewHLS(newEngine, cb)
	case domain.FormatDASH:
		newPlayer := f.NewDASHPlayer
		if newPlayer == nil {
			newPlayer = func() DASHPlayer { return dash.NewPlayer(f.Fetcher) }
		}
		return NewDASH(newPlayer, cb)
	case domain.FormatProgressive:
		return NewProgressive()
	default:
		return NewUnsupported()
	}
}
