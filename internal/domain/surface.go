package domain

import (
	"context"

	"github.com/PizzaHomicide/vplay/internal/events"
)

// MediaEventType identifies a load-state notification raised by a Media
type MediaEventType string

const (
	// MediaEventLoading is raised when a new source starts loading
	MediaEventLoading MediaEventType = "loading"
	// MediaEventLoaded is raised once the first frame of the source is available
	MediaEventLoaded MediaEventType = "loaded"
	// MediaEventError is raised when the source could not be loaded or decoded
	MediaEventError MediaEventType = "error"
	// MediaEventEnded is raised when playback reaches the end of the source
	MediaEventEnded MediaEventType = "ended"
)

// MediaEvent is a load-state notification from a Media
type MediaEvent struct {
	Type  MediaEventType
	Error error // Set when Type is MediaEventError
}

// Media is the media output handle of a playback surface.  Getters return the last known state and never block.
type Media interface {
	Paused() bool
	Play() error
	Pause() error

	Muted() bool
	SetMuted(muted bool) error

	CurrentTime() float64
	Seek(seconds float64) error
	Duration() float64
	// BufferedEnd returns the end of the last buffered range in seconds
	BufferedEnd() float64

	PlaybackRate() float64
	SetPlaybackRate(rate float64) error

	// Load replaces the current source, starting playback at the given position
	Load(ctx context.Context, url string, start float64) error
	// Stop unloads the current source
	Stop() error
	// SelectVideoTrack switches to the video track with the given 1-based id.  Zero selects automatically.
	SelectVideoTrack(id int) error

	// Subscribe registers fn for load-state notifications
	Subscribe(fn func(MediaEvent)) events.Subscription
}

// FormatSupporter is implemented by Media that can only play some formats
type FormatSupporter interface {
	Supports(f Format) bool
}

// PictureInPicturer is implemented by Media that can float into a picture-in-picture window
type PictureInPicturer interface {
	SetPictureInPicture(on bool) error
}

// PictureInPictureReporter is implemented by Media whose floating window can be closed outside the Document
type PictureInPictureReporter interface {
	PictureInPicture() bool
}

// FullscreenReporter is implemented by Elements whose fullscreen state can change outside the Document, such as
// from the player window's own key bindings
type FullscreenReporter interface {
	Fullscreen() bool
}

// Element is a layout element that can be promoted to fullscreen
type Element interface {
	SetFullscreen(on bool) error
}

// Surface is a media output together with the element containing it
type Surface struct {
	Media     Media
	Container Element
}

// Bound reports whether both halves of the surface are set
func (s Surface) Bound() bool {
	return s.Media != nil && s.Container != nil
}

// Document arbitrates the process-wide fullscreen and picture-in-picture resources shared by every player
type Document interface {
	FullscreenElement() Element
	RequestFullscreen(el Element) error
	ExitFullscreen() error

	PictureInPictureElement() Media
	RequestPictureInPicture(m Media) error
	ExitPictureInPicture() error
}
