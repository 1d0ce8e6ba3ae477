package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "https:...", TruncateString("https://cdn.example.com/master.m3u8", 9))
	// Wide runes count double
	assert.Equal(t, "動画...", TruncateString("動画ストリーム", 8))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
}

func TestFormatPlaybackTime(t *testing.T) {
	assert.Equal(t, "0:00", FormatPlaybackTime(0))
	assert.Equal(t, "1:05", FormatPlaybackTime(65.9))
	assert.Equal(t, "1:01:01", FormatPlaybackTime(3661))
	assert.Equal(t, "0:00", FormatPlaybackTime(-3))
}
