package platform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PizzaHomicide/vplay/internal/domain/domaintest"
)

type rejectingElement struct{}

func (rejectingElement) SetFullscreen(bool) error { return errors.New("denied") }

func TestFullscreenIsSingleton(t *testing.T) {
	doc := NewDocument()
	a, b := &domaintest.Element{}, &domaintest.Element{}

	require.NoError(t, doc.RequestFullscreen(a))
	assert.Same(t, a, doc.FullscreenElement())
	assert.True(t, a.Fullscreen())

	require.NoError(t, doc.RequestFullscreen(b))
	assert.Same(t, b, doc.FullscreenElement())
	assert.False(t, a.Fullscreen())
	assert.True(t, b.Fullscreen())

	require.NoError(t, doc.ExitFullscreen())
	assert.Nil(t, doc.FullscreenElement())
	assert.False(t, b.Fullscreen())
	require.NoError(t, doc.ExitFullscreen())
}

func TestRejectedFullscreenLeavesNoTarget(t *testing.T) {
	doc := NewDocument()
	assert.Error(t, doc.RequestFullscreen(rejectingElement{}))
	assert.Nil(t, doc.FullscreenElement())
	assert.ErrorIs(t, doc.RequestFullscreen(nil), ErrNoElement)
}

func TestPictureInPictureIsSingleton(t *testing.T) {
	doc := NewDocument()
	a, b := domaintest.NewMedia(10), domaintest.NewMedia(10)

	require.NoError(t, doc.RequestPictureInPicture(a))
	require.NoError(t, doc.RequestPictureInPicture(b))
	assert.Same(t, b, doc.PictureInPictureElement())
	assert.False(t, a.PictureInPicture())
	assert.True(t, b.PictureInPicture())

	require.NoError(t, doc.ExitPictureInPicture())
	assert.Nil(t, doc.PictureInPictureElement())
	assert.False(t, b.PictureInPicture())
}

func TestRelease(t *testing.T) {
	doc := NewDocument()
	el, m := &domaintest.Element{}, domaintest.NewMedia(10)
	require.NoError(t, doc.RequestFullscreen(el))
	require.NoError(t, doc.RequestPictureInPicture(m))

	doc.Release(el, m)
	assert.Nil(t, doc.FullscreenElement())
	assert.Nil(t, doc.PictureInPictureElement())
	assert.False(t, el.Fullscreen())
	assert.False(t, m.PictureInPicture())

	// Releasing something that holds nothing leaves the holders alone
	other := &domaintest.Element{}
	require.NoError(t, doc.RequestFullscreen(other))
	doc.Release(el, m)
	assert.Same(t, other, doc.FullscreenElement())
	assert.True(t, other.Fullscreen())
}

func TestModesLeftOutsideTheDocumentAreForgotten(t *testing.T) {
	doc := NewDocument()
	el, m := &domaintest.Element{}, domaintest.NewMedia(10)
	require.NoError(t, doc.RequestFullscreen(el))
	require.NoError(t, doc.RequestPictureInPicture(m))

	// The player window left both modes through its own keys
	require.NoError(t, el.SetFullscreen(false))
	require.NoError(t, m.SetPictureInPicture(false))

	assert.Nil(t, doc.FullscreenElement())
	assert.Nil(t, doc.PictureInPictureElement())

	require.NoError(t, doc.RequestFullscreen(el))
	assert.True(t, el.Fullscreen())
	assert.Same(t, el, doc.FullscreenElement())
}
