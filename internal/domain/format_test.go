package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		source string
		want   Format
	}{
		{"https://cdn.example.com/live/master.m3u8", FormatHLS},
		{"https://cdn.example.com/vod/manifest.mpd", FormatDASH},
		{"https://cdn.example.com/clip.mp4", FormatProgressive},
		{"/videos/clip.webm", FormatProgressive},
		{"clip.ogg", FormatProgressive},
		{"https://cdn.example.com/clip.mkv", FormatUnsupported},
		{"https://cdn.example.com/master.m3u8?token=abc", FormatUnsupported},
		{"", FormatUnsupported},
		{"CLIP.MP4", FormatUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.source))
			// Repeated calls are deterministic
			assert.Equal(t, tt.want, Classify(tt.source))
		})
	}
}

func TestFormatAdaptive(t *testing.T) {
	assert.True(t, FormatHLS.Adaptive())
	assert.True(t, FormatDASH.Adaptive())
	assert.False(t, FormatProgressive.Adaptive())
	assert.False(t, FormatUnsupported.Adaptive())
}

func TestQualityLevelLabel(t *testing.T) {
	assert.Equal(t, "720p", QualityLevel{Bitrate: 2_500_000, Height: IntPtr(720)}.Label())
	assert.Equal(t, "128kbps", QualityLevel{Bitrate: 128_000}.Label())
	assert.Nil(t, IntPtr(0))
}

func TestSurfaceBound(t *testing.T) {
	assert.False(t, Surface{}.Bound())
}
