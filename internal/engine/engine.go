// Package engine provides the playback facade: one playback surface, at most one streaming backend, and a control
// surface that behaves the same whichever streaming technology is active.
//
// Every control is a no-op until the surface is bound, and again once the source proves unplayable.  No failure is ever returned to the caller.  Failures
// are logged and reflected in Status so a UI can keep rendering a disabled control set.
package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/PizzaHomicide/vplay/internal/backend"
	"github.com/PizzaHomicide/vplay/internal/domain"
	"github.com/PizzaHomicide/vplay/internal/events"
	"github.com/PizzaHomicide/vplay/internal/log"
)

// BackendFactory creates the backend for a classified source
type BackendFactory interface {
	New(format domain.Format, cb backend.Callbacks) backend.Backend
}

// ChangeType identifies what changed in a Change notification
type ChangeType string

const (
	// ChangeQuality is raised when the backend replaces its quality snapshot
	ChangeQuality ChangeType = "quality"
	// ChangeLoadState is raised when loading starts, completes or fails
	ChangeLoadState ChangeType = "load_state"
)

// Change notifies subscribers of an engine state change
type Change struct {
	Type   ChangeType
	Levels []domain.QualityLevel // Set for ChangeQuality
}

const changeEvent = "change"

// Engine is the playback facade for a single source.  A new source needs a new Engine.
type Engine struct {
	id      string
	source  string
	doc     domain.Document
	factory BackendFactory
	logger  *log.Logger

	mu       sync.Mutex
	surface  domain.Surface
	mediaSub events.Subscription
	format   domain.Format
	backend  backend.Backend
	loading  bool
	ready    bool
	err      error
	inert    bool
	closed   bool

	changes events.Emitter[Change]
}

// Option configures an Engine
type Option func(*Engine)

// WithBackendFactory replaces the default backend factory
func WithBackendFactory(f BackendFactory) Option {
	return func(e *Engine) {
		e.factory = f
	}
}

// New creates an engine for source.  doc arbitrates fullscreen and picture-in-picture with other engines.
func New(source string, doc domain.Document, opts ...Option) *Engine {
	e := &Engine{
		id:      uuid.NewString(),
		source:  source,
		doc:     doc,
		factory: backend.Factory{},
		format:  domain.FormatUnsupported,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = log.With("session", e.id)
	return e
}

// ID returns the session id used to correlate log lines of this engine
func (e *Engine) ID() string {
	return e.id
}

// Source returns the source the engine was created for
func (e *Engine) Source() string {
	return e.source
}

// SetSurface binds the playback surface.  It must be called before Initialize and only takes effect once.
func (e *Engine) SetSurface(media domain.Media, container domain.Element) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	if e.surface.Bound() {
		e.logger.Warn("Playback surface already bound, ignoring")
		return
	}
	if media == nil || container == nil {
		e.logger.Warn("Incomplete playback surface, ignoring")
		return
	}

	e.surface = domain.Surface{Media: media, Container: container}
	e.mediaSub = media.Subscribe(e.onMediaEvent)
}

// Initialize classifies the source and attaches the matching backend to the surface.  Unrecognised sources end up
// on the unsupported backend; the failure is logged and visible through Status.
func (e *Engine) Initialize(ctx context.Context) {
	e.mu.Lock()
	if e.closed || e.backend != nil {
		e.mu.Unlock()
		return
	}
	if !e.surface.Bound() {
		e.mu.Unlock()
		e.logger.Warn("Initialize called before the playback surface was bound")
		return
	}

	format := domain.Classify(e.source)
	b := e.factory.New(format, backend.Callbacks{Levels: e.onLevels, Error: e.onBackendError})
	e.format = format
	e.backend = b
	e.loading = true
	surface := e.surface
	e.mu.Unlock()

	e.logger.Info("Initialising playback", "source", e.source, "format", format)

	err := b.Attach(ctx, surface, e.source)
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, backend.ErrUnsupportedFormat):
		e.logger.Error("Unsupported video format", "source", e.source)
	case errors.Is(err, backend.ErrBackendUnavailable):
		e.logger.Error("Streaming backend not supported by this player", "format", format)
	default:
		e.logger.Error("Failed to attach streaming backend", "format", format, "error", err)
	}

	e.mu.Lock()
	e.loading = false
	e.ready = false
	e.err = err
	// The media may still hold another engine's stream, so no control may reach it
	e.inert = errors.Is(err, backend.ErrUnsupportedFormat) || errors.Is(err, backend.ErrBackendUnavailable)
	e.mu.Unlock()
	e.changes.Emit(changeEvent, Change{Type: ChangeLoadState})
}

// Subscribe registers fn for state change notifications
func (e *Engine) Subscribe(fn func(Change)) events.Subscription {
	return e.changes.On(changeEvent, fn)
}

// Close detaches the backend and releases the surface.  The engine is inert afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	b, sub, surface := e.backend, e.mediaSub, e.surface
	e.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	if b != nil {
		b.Detach()
	}
	if r, ok := e.doc.(interface {
		Release(domain.Element, domain.Media)
	}); ok {
		r.Release(surface.Container, surface.Media)
	}
	e.changes.Clear()

	e.logger.Info("Playback engine closed")
}

func (e *Engine) onLevels(levels []domain.QualityLevel) {
	e.changes.Emit(changeEvent, Change{Type: ChangeQuality, Levels: levels})
}

// onBackendError records a failure the streaming engine reported after attach.  There is no retry.
func (e *Engine) onBackendError(err error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.loading, e.ready, e.err = false, false, err
	e.mu.Unlock()

	e.logger.Error("Streaming backend failed", "error", err)
	e.changes.Emit(changeEvent, Change{Type: ChangeLoadState})
}

func (e *Engine) onMediaEvent(evt domain.MediaEvent) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	switch evt.Type {
	case domain.MediaEventLoading:
		e.loading, e.ready = true, false
	case domain.MediaEventLoaded:
		e.loading, e.ready, e.err = false, true, nil
	case domain.MediaEventError:
		e.loading, e.ready, e.err = false, false, evt.Error
	case domain.MediaEventEnded:
		e.mu.Unlock()
		e.logger.Info("Playback ended")
		return
	}
	e.mu.Unlock()

	if evt.Type == domain.MediaEventError {
		e.logger.Error("Error loading video", "error", evt.Error)
	}
	e.changes.Emit(changeEvent, Change{Type: ChangeLoadState})
}

// bound returns the surface and backend when controls are meaningful
func (e *Engine) bound() (domain.Surface, backend.Backend, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.inert || !e.surface.Bound() {
		return domain.Surface{}, nil, false
	}
	return e.surface, e.backend, true
}
