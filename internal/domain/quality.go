package domain

import "fmt"

// AutoQuality is the quality index that hands level selection back to the adaptive engine
const AutoQuality = -1

// QualityLevel is one selectable bitrate/resolution variant, normalised across backends.
//
// Index is the position of the level in the snapshot it was reported in.  It is only meaningful against that
// snapshot; callers must fetch the current levels again before selecting from a list they held on to.
type QualityLevel struct {
	Bitrate int
	Width   *int
	Height  *int
	Index   int
}

// Label returns the human-readable name of the level, e.g. "720p".  Levels without a height fall back to their
// bitrate in kbps.
func (q QualityLevel) Label() string {
	if q.Height != nil {
		return fmt.Sprintf("%dp", *q.Height)
	}
	return fmt.Sprintf("%dkbps", q.Bitrate/1000)
}

// QualityOption is a quality level as offered to the user
type QualityOption struct {
	Label string
	Index int
}

// IntPtr returns a pointer to a copy of v.  Zero and negative values are treated as unknown and yield nil.
func IntPtr(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}
