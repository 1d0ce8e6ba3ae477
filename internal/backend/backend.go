// Package backend unifies the streaming technologies behind a single Backend contract.
//
// The HLS engine pushes level notifications, the DASH player exposes a bitrate list to pull once the stream is
// initialised, and progressive files have no levels at all.  Each variant translates its engine's style into
// wholesale replacement of a QualityLevel snapshot.
package backend

import (
	"context"
	"errors"
	"sync"

	"github.com/PizzaHomicide/vplay/internal/domain"
	"github.com/PizzaHomicide/vplay/internal/log"
)

var (
	// ErrUnsupportedFormat is reported when a source matches no known format
	ErrUnsupportedFormat = errors.New("unsupported media format")
	// ErrBackendUnavailable is reported when the media output cannot play the format
	ErrBackendUnavailable = errors.New("streaming backend unavailable")
	// ErrSurfaceUnbound is reported when attaching to a surface missing its media or container
	ErrSurfaceUnbound = errors.New("playback surface not bound")
	// ErrAlreadyAttached is reported when a backend is attached to a second surface or source
	ErrAlreadyAttached = errors.New("backend already attached")
)

// Backend is the common shape of every streaming technology
type Backend interface {
	// Attach starts loading source into the surface.  Attaching again with the same surface and source is a no-op.
	Attach(ctx context.Context, surface domain.Surface, source string) error
	// CurrentQualityLevels returns the latest snapshot, empty before the first report
	CurrentQualityLevels() []domain.QualityLevel
	// SelectQuality requests a level by its index in the latest snapshot, or domain.AutoQuality
	SelectQuality(index int)
	// CurrentQuality returns the index of the forced level, or domain.AutoQuality
	CurrentQuality() int
	// Detach releases the backend and stops whatever it loaded into the media.  Safe to call multiple times.
	Detach()
}

// LevelsFunc is notified after every snapshot replacement
type LevelsFunc func(levels []domain.QualityLevel)

// ErrorFunc is notified when the streaming engine fails after Attach returned
type ErrorFunc func(err error)

// Callbacks receives the asynchronous reports of a backend.  Nil fields are skipped.
type Callbacks struct {
	Levels LevelsFunc
	Error  ErrorFunc
}

// snapshot holds the last reported quality levels.  Levels are replaced wholesale and handed out as copies.
type snapshot struct {
	mu       sync.Mutex
	levels   []domain.QualityLevel
	detached bool
	cb       Callbacks
}

// replace swaps in a new snapshot.  Returns false, leaving the snapshot untouched, once detached.
func (s *snapshot) replace(levels []domain.QualityLevel) bool {
	s.mu.Lock()
	if s.detached {
		s.mu.Unlock()
		return false
	}
	s.levels = levels
	notify := s.cb.Levels
	s.mu.Unlock()

	if notify != nil {
		notify(append([]domain.QualityLevel(nil), levels...))
	}
	return true
}

// fail forwards an engine failure.  Returns false once detached.
func (s *snapshot) fail(err error) bool {
	s.mu.Lock()
	if s.detached {
		s.mu.Unlock()
		return false
	}
	notify := s.cb.Error
	s.mu.Unlock()

	if notify != nil {
		notify(err)
	}
	return true
}

func (s *snapshot) current() []domain.QualityLevel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.QualityLevel{}, s.levels...)
}

// detach marks the snapshot stale.  Returns true on the first call only.
func (s *snapshot) detach() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return false
	}
	s.detached = true
	s.cb = Callbacks{}
	return true
}

func (s *snapshot) isDetached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detached
}

// attachment remembers the surface/source pair a backend was attached to
type attachment struct {
	surface domain.Surface
	source  string
	set     bool
}

// claim records the pair.  It reports whether the pair was already claimed and fails for a different pair.
func (a *attachment) claim(surface domain.Surface, source string) (bool, error) {
	if !surface.Bound() {
		return false, ErrSurfaceUnbound
	}
	if a.set {
		if a.surface == surface && a.source == source {
			return true, nil
		}
		return false, ErrAlreadyAttached
	}
	a.surface, a.source, a.set = surface, source, true
	return false, nil
}

// stopMedia unloads whatever the backend loaded so the shared media does not keep playing after detach
func stopMedia(m domain.Media) {
	if m == nil {
		return
	}
	if err := m.Stop(); err != nil {
		log.Warn("Failed to stop media on detach", "error", err)
	}
}

func supports(m domain.Media, f domain.Format) bool {
	if s, ok := m.(domain.FormatSupporter); ok {
		return s.Supports(f)
	}
	return true
}
