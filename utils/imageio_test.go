package utils

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImageFile(t *testing.T) {
	for _, name := range []string{"a.png", "B.PNG", "d.tif", "e.TIFF"} {
		assert.True(t, IsImageFile(name), name)
	}
	for _, name := range []string{"a.jpg", "c.bmp", "photo.webp", "notes.txt", "png", "dir/"} {
		assert.False(t, IsImageFile(name), name)
	}
}

func TestSaveImage_RoundTripKeepsAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 10, B: 30, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 90})
	// (2,1) stays fully transparent.

	for _, ext := range ImageExtensions {
		t.Run(ext, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "x"+ext)

			require.NoError(t, SaveImage(img, path))
			got, err := ReadImage(path)
			require.NoError(t, err)
			assert.Equal(t, img.Rect, got.Rect)
			assert.Equal(t, color.NRGBA{R: 200, G: 10, B: 30, A: 255}, got.NRGBAAt(0, 0))
			assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 90}, got.NRGBAAt(1, 0))
			assert.Equal(t, color.NRGBA{}, got.NRGBAAt(2, 1))

			size, err := ReadSize(path)
			require.NoError(t, err)
			assert.Equal(t, image.Pt(3, 2), size)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestSaveImage_MissingDirectory(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	assert.Error(t, SaveImage(img, filepath.Join(t.TempDir(), "nope", "x.png")))
}

func TestReadImage_Errors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "g.png")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not a png"), 0o644))

	_, err := ReadImage(garbage)
	assert.True(t, errors.Is(err, ErrDecode))
	_, err = ReadSize(garbage)
	assert.True(t, errors.Is(err, ErrDecode))

	_, err = ReadImage(filepath.Join(dir, "missing.png"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDecode))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestToNRGBA(t *testing.T) {
	n := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	assert.Same(t, n, ToNRGBA(n))

	shifted := image.NewNRGBA(image.Rect(5, 5, 7, 8))
	got := ToNRGBA(shifted)
	assert.Equal(t, image.Rect(0, 0, 2, 3), got.Rect)

	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(1, 0, color.Gray{Y: 100})
	got = ToNRGBA(gray)
	assert.Equal(t, color.NRGBA{R: 100, G: 100, B: 100, A: 255}, got.NRGBAAt(1, 0))
}
