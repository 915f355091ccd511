package util

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestInspectImage(t *testing.T) {
	t.Parallel()

	t.Run("decodes png dimensions", func(t *testing.T) {
		info, err := InspectImage("about.png", pngBytes(t, 4, 3))
		require.NoError(t, err)
		require.Equal(t, "png", info.Format)
		require.Equal(t, 4, info.Width)
		require.Equal(t, 3, info.Height)
		require.Equal(t, "image/png", info.MIME)
		require.True(t, IsImageMIME(info.MIME))
	})

	t.Run("rejects text disguised as an image", func(t *testing.T) {
		_, err := InspectImage("about.png", []byte("hello world"))
		require.Error(t, err)
	})

	t.Run("rejects empty data", func(t *testing.T) {
		_, err := InspectImage("about.png", nil)
		require.Error(t, err)
	})

	t.Run("accepts svg markup", func(t *testing.T) {
		info, err := InspectImage("logo.svg", []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`))
		require.NoError(t, err)
		require.Equal(t, "svg", info.Format)
	})
}

func TestDetectMIME(t *testing.T) {
	t.Parallel()

	require.Equal(t, "image/png", DetectMIME(pngBytes(t, 1, 1), ".png"))
	require.True(t, IsImageExtension(".JPG"))
	require.False(t, IsImageExtension(".exe"))
}
