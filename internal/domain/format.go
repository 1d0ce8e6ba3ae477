package domain

import "strings"

// Format is the streaming technology a source is delivered with
type Format string

const (
	FormatHLS         Format = "hls"
	FormatDASH        Format = "dash"
	FormatProgressive Format = "progressive"
	FormatUnsupported Format = "unsupported"
)

var progressiveExtensions = []string{".mp4", ".webm", ".ogg"}

// Classify maps a source URL onto the format used to play it by sniffing its suffix.  Every input maps to exactly
// one format; anything unrecognised is FormatUnsupported.
func Classify(source string) Format {
	switch {
	case strings.HasSuffix(source, ".m3u8"):
		return FormatHLS
	case strings.HasSuffix(source, ".mpd"):
		return FormatDASH
	}

	for _, ext := range progressiveExtensions {
		if strings.HasSuffix(source, ext) {
			return FormatProgressive
		}
	}

	return FormatUnsupported
}

// Adaptive reports whether the format carries multiple selectable quality levels
func (f Format) Adaptive() bool {
	return f == FormatHLS || f == FormatDASH
}
