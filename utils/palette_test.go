package utils

import (
	"image"
	"image/color"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaletteMethod(t *testing.T) {
	for in, want := range map[string]PaletteMethod{
		"":              PaletteMethodDominantColor,
		"dominant":      PaletteMethodDominantColor,
		"DominantColor": PaletteMethodDominantColor,
		"kmeans":        PaletteMethodKMeans,
		" K-Means ":     PaletteMethodKMeans,
	} {
		got, err := ParsePaletteMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePaletteMethod("median-cut")
	assert.Error(t, err)
}

func TestSelectDiverse(t *testing.T) {
	black := colorful.Color{}
	nearBlack := colorful.Color{R: 0.05, G: 0.05, B: 0.05}
	white := colorful.Color{R: 1, G: 1, B: 1}
	cands := []Swatch{
		{Color: nearBlack, Share: 3},
		{Color: black, Share: 5},
		{Color: white, Share: 2},
	}

	got := selectDiverse(cands, 2)
	require.Len(t, got, 2)
	assert.Equal(t, black, got[0].Color)
	assert.Equal(t, white, got[1].Color)
	assert.InDelta(t, 5.0/7, got[0].Share, 1e-9)
	assert.InDelta(t, 2.0/7, got[1].Share, 1e-9)

	all := selectDiverse(cands, 10)
	assert.Len(t, all, 3)
	assert.Nil(t, selectDiverse(nil, 3))
}

func TestSortByBrightness(t *testing.T) {
	p := []Swatch{
		{Color: colorful.Color{R: 1, G: 1, B: 1}},
		{Color: colorful.Color{}},
		{Color: colorful.Color{G: 1}},
		{Color: colorful.Color{B: 1}},
	}
	SortByBrightness(p)
	assert.Equal(t, "#000000", p[0].Hex())
	assert.Equal(t, "#0000ff", p[1].Hex())
	assert.Equal(t, "#00ff00", p[2].Hex())
	assert.Equal(t, "#ffffff", p[3].Hex())
}

func TestExtractPalette(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for y := range 20 {
		for x := range 40 {
			c := color.NRGBA{R: 255, A: 255}
			if x >= 20 {
				c = color.NRGBA{B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}

	for _, m := range []PaletteMethod{PaletteMethodDominantColor, PaletteMethodKMeans} {
		t.Run(m.String(), func(t *testing.T) {
			p := ExtractPalette(img, 3, m)
			require.NotEmpty(t, p)
			assert.LessOrEqual(t, len(p), 3)
			total := 0.0
			for _, s := range p {
				total += s.Share
			}
			assert.InDelta(t, 1, total, 1e-6)
		})
	}

	assert.Nil(t, ExtractPalette(img, 0, PaletteMethodKMeans))
	assert.Nil(t, kmeansPalette(image.NewNRGBA(image.Rect(0, 0, 8, 8)), 3))
}

func TestRenderSwatches(t *testing.T) {
	p := []Swatch{
		{Color: colorful.Color{R: 1}},
		{Color: colorful.Color{B: 1}},
	}
	img, err := RenderSwatches(p, 4)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(8, 4), img.Rect.Size())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.NRGBAAt(3, 3))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, img.NRGBAAt(4, 0))

	_, err = RenderSwatches(nil, 4)
	assert.Error(t, err)
}
