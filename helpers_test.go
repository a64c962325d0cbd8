package objsplit

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/setanarut/objsplit/utils"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
	green = color.NRGBA{G: 200, A: 255}
)

func newCanvas(w, h int) *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, w, h))
}

func fill(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

func writeImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, utils.SaveImage(img, path))
	return path
}

// isTransparentBorder reports whether every pixel outside inner is fully zero.
func isTransparentBorder(img *image.NRGBA, inner image.Rectangle) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if image.Pt(x, y).In(inner) {
				continue
			}
			if img.NRGBAAt(x, y) != (color.NRGBA{}) {
				return false
			}
		}
	}
	return true
}

// twoObjectImage has a 30x20 red block and, after a transparent gap, a
// 20x40 blue block.
func twoObjectImage() *image.NRGBA {
	img := newCanvas(80, 60)
	fill(img, image.Rect(5, 5, 35, 25), red)
	fill(img, image.Rect(50, 10, 70, 50), blue)
	return img
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
