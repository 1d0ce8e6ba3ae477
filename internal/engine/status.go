package engine

import "github.com/PizzaHomicide/vplay/internal/domain"

// Status is a point-in-time view of the engine for rendering
type Status struct {
	SessionID string
	Source    string
	Format    domain.Format
	Bound     bool

	Paused           bool
	Muted            bool
	FullScreen       bool
	PictureInPicture bool

	CurrentTime  float64
	Duration     float64
	BufferedEnd  float64
	PlaybackRate float64

	Loading bool
	Ready   bool
	Err     error
}

// ProgressPercent returns the playback position as a percentage of the duration
func (s Status) ProgressPercent() float64 {
	return percentOf(s.CurrentTime, s.Duration)
}

// BufferPercent returns the buffered end as a percentage of the duration
func (s Status) BufferPercent() float64 {
	return percentOf(s.BufferedEnd, s.Duration)
}

func percentOf(v, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return min(max(v/total*100, 0), 100)
}

// Status returns the current state of the engine and its surface
func (e *Engine) Status() Status {
	e.mu.Lock()
	st := Status{
		SessionID: e.id,
		Source:    e.source,
		Format:    e.format,
		Bound:     e.surface.Bound() && !e.closed && !e.inert,
		Loading:   e.loading,
		Ready:     e.ready,
		Err:       e.err,
	}
	e.mu.Unlock()

	if !st.Bound {
		return st
	}

	s, _, ok := e.bound()
	if !ok {
		st.Bound = false
		return st
	}
	st.Paused = s.Media.Paused()
	st.Muted = s.Media.Muted()
	st.CurrentTime = s.Media.CurrentTime()
	st.Duration = s.Media.Duration()
	st.BufferedEnd = s.Media.BufferedEnd()
	st.PlaybackRate = s.Media.PlaybackRate()
	st.FullScreen = e.doc.FullscreenElement() == s.Container
	st.PictureInPicture = e.doc.PictureInPictureElement() == s.Media
	return st
}
