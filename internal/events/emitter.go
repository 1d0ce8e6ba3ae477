// Package events provides typed notification emitters whose subscriptions are released through handles.
//
// Once Cancel returns, emits that start afterwards skip the handle.  An emit already running on another goroutine
// may still invoke it once, so receivers that must ignore late notifications keep their own stale flag.
package events

import (
	"sync"
	"sync/atomic"
)

// Subscription is a handle to a registered handler
type Subscription interface {
	// Cancel unregisters the handler.  Safe to call multiple times.
	Cancel()
}

type handle[T any] struct {
	name    string
	fn      func(T)
	active  atomic.Bool
	emitter *Emitter[T]
}

func (h *handle[T]) Cancel() {
	if h.active.Swap(false) {
		h.emitter.remove(h)
	}
}

// Emitter dispatches named notifications carrying a payload of type T to registered handlers.
// The zero value is ready to use.
type Emitter[T any] struct {
	mu       sync.Mutex
	handlers map[string][]*handle[T]
}

// On registers fn for notifications with the given name
func (e *Emitter[T]) On(name string, fn func(T)) Subscription {
	h := &handle[T]{name: name, fn: fn, emitter: e}
	h.active.Store(true)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[string][]*handle[T])
	}
	e.handlers[name] = append(e.handlers[name], h)
	return h
}

// Emit invokes every live handler registered for name, in registration order.  Handlers run on the calling
// goroutine and outside the emitter lock, so they may register or cancel subscriptions themselves.
func (e *Emitter[T]) Emit(name string, payload T) {
	e.mu.Lock()
	targets := append([]*handle[T](nil), e.handlers[name]...)
	e.mu.Unlock()

	for _, h := range targets {
		if h.active.Load() {
			h.fn(payload)
		}
	}
}

// Count returns the number of live handlers registered for name
func (e *Emitter[T]) Count(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers[name])
}

// Clear cancels every registered handler
func (e *Emitter[T]) Clear() {
	e.mu.Lock()
	all := e.handlers
	e.handlers = nil
	e.mu.Unlock()

	for _, hs := range all {
		for _, h := range hs {
			h.active.Store(false)
		}
	}
}

func (e *Emitter[T]) remove(target *handle[T]) {
	e.mu.Lock()
	defer e.mu.Unlock()
	hs := e.handlers[target.name]
	for i, h := range hs {
		if h == target {
			e.handlers[target.name] = append(hs[:i:i], hs[i+1:]...)
			break
		}
	}
}

// Group collects subscriptions so they can be released together
type Group struct {
	mu   sync.Mutex
	subs []Subscription
}

// Add tracks the given subscriptions
func (g *Group) Add(subs ...Subscription) {
	g.mu.Lock()
	g.subs = append(g.subs, subs...)
	g.mu.Unlock()
}

// Cancel releases every tracked subscription and forgets them
func (g *Group) Cancel() {
	g.mu.Lock()
	subs := g.subs
	g.subs = nil
	g.mu.Unlock()

	for _, s := range subs {
		s.Cancel()
	}
}
