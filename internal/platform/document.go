// Package platform provides the process-wide arbiter for fullscreen and picture-in-picture.  Only one element may
// be fullscreen and only one media may be floating at any time, regardless of how many players exist.
package platform

import (
	"errors"
	"fmt"
	"sync"

	"github.com/PizzaHomicide/vplay/internal/domain"
	"github.com/PizzaHomicide/vplay/internal/log"
)

var (
	// ErrPictureInPictureUnsupported is returned when the media cannot float
	ErrPictureInPictureUnsupported = errors.New("picture-in-picture not supported by media")
	// ErrNoElement is returned when requesting fullscreen or picture-in-picture for nothing
	ErrNoElement = errors.New("no element given")
)

// Document implements domain.Document
type Document struct {
	mu         sync.Mutex
	fullscreen domain.Element
	pip        domain.Media
}

func NewDocument() *Document {
	return &Document{}
}

// FullscreenElement returns the element currently fullscreen, if any
func (d *Document) FullscreenElement() domain.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reconcile()
	return d.fullscreen
}

// RequestFullscreen makes el the fullscreen element, pre-empting whichever element held it before
func (d *Document) RequestFullscreen(el domain.Element) error {
	if el == nil {
		return ErrNoElement
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.reconcile()

	if d.fullscreen == el {
		return nil
	}
	if prev := d.fullscreen; prev != nil {
		log.Debug("Pre-empting fullscreen element")
		if err := prev.SetFullscreen(false); err != nil {
			log.Warn("Failed to leave fullscreen on pre-empted element", "error", err)
		}
		d.fullscreen = nil
	}

	if err := el.SetFullscreen(true); err != nil {
		return fmt.Errorf("fullscreen request rejected: %w", err)
	}
	d.fullscreen = el
	return nil
}

// ExitFullscreen leaves fullscreen.  A no-op when nothing is fullscreen.
func (d *Document) ExitFullscreen() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reconcile()

	if d.fullscreen == nil {
		return nil
	}
	el := d.fullscreen
	d.fullscreen = nil
	if err := el.SetFullscreen(false); err != nil {
		return fmt.Errorf("failed to exit fullscreen: %w", err)
	}
	return nil
}

// PictureInPictureElement returns the media currently floating, if any
func (d *Document) PictureInPictureElement() domain.Media {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reconcile()
	return d.pip
}

// RequestPictureInPicture floats m, pre-empting whichever media floated before
func (d *Document) RequestPictureInPicture(m domain.Media) error {
	if m == nil {
		return ErrNoElement
	}
	floater, ok := m.(domain.PictureInPicturer)
	if !ok {
		return ErrPictureInPictureUnsupported
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.reconcile()

	if d.pip == m {
		return nil
	}
	if prev := d.pip; prev != nil {
		if p, ok := prev.(domain.PictureInPicturer); ok {
			if err := p.SetPictureInPicture(false); err != nil {
				log.Warn("Failed to leave picture-in-picture on pre-empted media", "error", err)
			}
		}
		d.pip = nil
	}

	if err := floater.SetPictureInPicture(true); err != nil {
		return fmt.Errorf("picture-in-picture request rejected: %w", err)
	}
	d.pip = m
	return nil
}

// ExitPictureInPicture ends the active picture-in-picture session, whoever owns it
func (d *Document) ExitPictureInPicture() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reconcile()

	if d.pip == nil {
		return nil
	}
	m := d.pip
	d.pip = nil
	if p, ok := m.(domain.PictureInPicturer); ok {
		if err := p.SetPictureInPicture(false); err != nil {
			return fmt.Errorf("failed to exit picture-in-picture: %w", err)
		}
	}
	return nil
}

// Release takes el and m out of fullscreen and picture-in-picture if they hold either.  Used when a player goes
// away so the next player on the same window starts from a known state.
func (d *Document) Release(el domain.Element, m domain.Media) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reconcile()

	if el != nil && d.fullscreen == el {
		d.fullscreen = nil
		if err := el.SetFullscreen(false); err != nil {
			log.Warn("Failed to leave fullscreen on release", "error", err)
		}
	}
	if m != nil && d.pip == m {
		d.pip = nil
		if p, ok := m.(domain.PictureInPicturer); ok {
			if err := p.SetPictureInPicture(false); err != nil {
				log.Warn("Failed to leave picture-in-picture on release", "error", err)
			}
		}
	}
}

// reconcile drops holders that report they left their mode on their own.  Callers hold d.mu.
func (d *Document) reconcile() {
	if r, ok := d.fullscreen.(domain.FullscreenReporter); ok && !r.Fullscreen() {
		log.Debug("Fullscreen element left fullscreen outside the document")
		d.fullscreen = nil
	}
	if r, ok := d.pip.(domain.PictureInPictureReporter); ok && !r.PictureInPicture() {
		log.Debug("Picture-in-picture media closed its window outside the document")
		d.pip = nil
	}
}
