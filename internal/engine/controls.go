package engine

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/PizzaHomicide/vplay/internal/domain"
)

// RateNormal is the playback-rate label for rate 1
const RateNormal = "Normal"

var playbackRates = []string{"0.25x", "0.5x", RateNormal, "1.5x", "2x"}

var leadingNumber = regexp.MustCompile(`^\s*[+-]?(\d+(\.\d*)?|\.\d+)`)

// PlaybackRates returns the playback-rate labels offered to the user, slowest first
func (e *Engine) PlaybackRates() []string {
	return append([]string(nil), playbackRates...)
}

// TogglePlay plays a paused surface and pauses a playing one
func (e *Engine) TogglePlay() {
	s, _, ok := e.bound()
	if !ok {
		return
	}

	var err error
	if s.Media.Paused() {
		err = s.Media.Play()
	} else {
		err = s.Media.Pause()
	}
	if err != nil {
		e.logger.Warn("Failed to toggle playback", "error", err)
	}
}

// ToggleMute flips the muted flag
func (e *Engine) ToggleMute() {
	s, _, ok := e.bound()
	if !ok {
		return
	}
	if err := s.Media.SetMuted(!s.Media.Muted()); err != nil {
		e.logger.Warn("Failed to toggle mute", "error", err)
	}
}

// IsFullScreen reports whether this engine's container is the document's fullscreen element
func (e *Engine) IsFullScreen() bool {
	s, _, ok := e.bound()
	if !ok {
		return false
	}
	return e.doc.FullscreenElement() == s.Container
}

// ToggleFullScreenMode leaves fullscreen when this container holds it, and requests it otherwise
func (e *Engine) ToggleFullScreenMode() {
	s, _, ok := e.bound()
	if !ok {
		return
	}

	if e.doc.FullscreenElement() == s.Container {
		if err := e.doc.ExitFullscreen(); err != nil {
			e.logger.Warn("Failed to exit fullscreen", "error", err)
		}
		return
	}
	if err := e.doc.RequestFullscreen(s.Container); err != nil {
		e.logger.Warn("Fullscreen request rejected", "error", err)
	}
}

// TogglePictureInPictureMode ends any active picture-in-picture session in the document, even one belonging to
// another engine.  Only when none is active does it request picture-in-picture for this surface.
func (e *Engine) TogglePictureInPictureMode() {
	s, _, ok := e.bound()
	if !ok {
		return
	}

	if e.doc.PictureInPictureElement() != nil {
		if err := e.doc.ExitPictureInPicture(); err != nil {
			e.logger.Warn("Failed to exit picture-in-picture", "error", err)
		}
		return
	}
	if err := e.doc.RequestPictureInPicture(s.Media); err != nil {
		e.logger.Warn("Picture-in-picture request rejected", "error", err)
	}
}

// IsPictureInPicture reports whether this engine's media is floating
func (e *Engine) IsPictureInPicture() bool {
	s, _, ok := e.bound()
	if !ok {
		return false
	}
	return e.doc.PictureInPictureElement() == s.Media
}

// QualityLevels returns the active backend's latest quality snapshot
func (e *Engine) QualityLevels() []domain.QualityLevel {
	_, b, ok := e.bound()
	if !ok || b == nil {
		return []domain.QualityLevel{}
	}
	return b.CurrentQualityLevels()
}

// GetPlaybackQuality returns the selectable quality levels labelled "{height}p", in snapshot order.  Automatic
// selection is domain.AutoQuality and carries no label here.
func (e *Engine) GetPlaybackQuality() []domain.QualityOption {
	return lo.Map(e.QualityLevels(), func(q domain.QualityLevel, _ int) domain.QualityOption {
		return domain.QualityOption{Label: q.Label(), Index: q.Index}
	})
}

// PlaybackQuality returns the index of the forced quality level, or domain.AutoQuality
func (e *Engine) PlaybackQuality() int {
	_, b, ok := e.bound()
	if !ok || b == nil {
		return domain.AutoQuality
	}
	return b.CurrentQuality()
}

// SetPlaybackQuality requests the level at index in the latest snapshot, or domain.AutoQuality
func (e *Engine) SetPlaybackQuality(index int) {
	_, b, ok := e.bound()
	if !ok || b == nil {
		return
	}
	e.logger.Info("Setting quality", "index", index)
	b.SelectQuality(index)
}

// SetPlaybackRate applies a rate label.  "Normal" is rate 1; any other label is read by its leading number, so
// "1.5x" is 1.5.  Labels without a positive leading number are ignored.
func (e *Engine) SetPlaybackRate(label string) {
	s, _, ok := e.bound()
	if !ok {
		return
	}

	rate, err := ParseRate(label)
	if err != nil {
		e.logger.Warn("Ignoring invalid playback rate", "label", label, "error", err)
		return
	}
	if err := s.Media.SetPlaybackRate(rate); err != nil {
		e.logger.Warn("Failed to set playback rate", "rate", rate, "error", err)
	}
}

// SkipForwardBackward moves the playback position by delta seconds.  The media clamps to its own bounds.
func (e *Engine) SkipForwardBackward(delta float64) {
	s, _, ok := e.bound()
	if !ok {
		return
	}
	if err := s.Media.Seek(s.Media.CurrentTime() + delta); err != nil {
		e.logger.Warn("Failed to seek", "delta", delta, "error", err)
	}
}

// SeekToPercent moves the playback position to the given percentage of the duration
func (e *Engine) SeekToPercent(percent float64) {
	s, _, ok := e.bound()
	if !ok {
		return
	}
	duration := s.Media.Duration()
	if duration <= 0 {
		return
	}
	percent = min(max(percent, 0), 100)
	if err := s.Media.Seek(duration * percent / 100); err != nil {
		e.logger.Warn("Failed to seek", "percent", percent, "error", err)
	}
}

// ParseRate converts a playback-rate label into a multiplier
func ParseRate(label string) (float64, error) {
	if label == RateNormal {
		return 1, nil
	}
	match := leadingNumber.FindString(label)
	if match == "" {
		return 0, &strconv.NumError{Func: "ParseRate", Num: label, Err: strconv.ErrSyntax}
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(match), 64)
	if err != nil {
		return 0, err
	}
	if rate <= 0 {
		return 0, &strconv.NumError{Func: "ParseRate", Num: label, Err: strconv.ErrRange}
	}
	return rate, nil
}
