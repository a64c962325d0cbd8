package utils

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"
	"strings"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

type PaletteMethod int

const (
	PaletteMethodDominantColor PaletteMethod = iota
	PaletteMethodKMeans
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

func ParsePaletteMethod(s string) (PaletteMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dominantcolor", "dominant":
		return PaletteMethodDominantColor, nil
	case "kmeans", "k-means":
		return PaletteMethodKMeans, nil
	}
	return PaletteMethodDominantColor, fmt.Errorf("unknown palette method %q", s)
}

// Swatch is one palette color and the share of opaque pixels it stands for.
// Shares of a palette sum to 1.
type Swatch struct {
	Color colorful.Color
	Share float64
}

func (s Swatch) Hex() string { return s.Color.Clamped().Hex() }

// SortByBrightness orders swatches from darkest to brightest by relative
// luminance.
func SortByBrightness(palette []Swatch) {
	slices.SortStableFunc(palette, func(a, b Swatch) int {
		ya, yb := luminance(a.Color), luminance(b.Color)
		switch {
		case ya < yb:
			return -1
		case ya > yb:
			return 1
		}
		return 0
	})
}

func luminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// ExtractPalette picks up to k visually distinct colors from the opaque
// pixels of img. KMeans falls back to dominantcolor when clustering yields
// nothing, e.g. for images with very few opaque pixels.
func ExtractPalette(img image.Image, k int, method PaletteMethod) []Swatch {
	if k <= 0 {
		return nil
	}
	if method == PaletteMethodKMeans {
		if p := kmeansPalette(img, k); len(p) != 0 {
			return p
		}
	}
	return dominantPalette(img, k)
}

func dominantPalette(img image.Image, k int) []Swatch {
	found := dominantcolor.FindWeight(img, max(24, k*8))
	cands := make([]Swatch, 0, len(found))
	for _, c := range found {
		if c.RGBA.A == 0 {
			continue
		}
		col, _ := colorful.MakeColor(c.RGBA)
		cands = append(cands, Swatch{Color: col.Clamped(), Share: max(c.Weight, 1e-6)})
	}
	if len(cands) == 0 {
		return nil
	}
	return selectDiverse(cands, k)
}

func kmeansPalette(img image.Image, k int) []Swatch {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	// Subsample large regions.
	const maxSamples = 12000
	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(c.R) / 255.0,
				float64(c.G) / 255.0,
				float64(c.B) / 255.0,
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}

	workK := min(max(k*4, k+2), len(dataset))
	cc, err := kmeans.New().Partition(dataset, workK)
	if err != nil || len(cc) == 0 {
		return nil
	}

	cands := make([]Swatch, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		cands = append(cands, Swatch{Color: col, Share: float64(len(c.Observations))})
	}
	return selectDiverse(cands, k)
}

// selectDiverse seeds with the heaviest candidate, then greedily adds the
// candidate farthest (in Lab) from everything picked so far, biased toward
// heavier candidates. Shares are renormalised over the picked set.
func selectDiverse(cands []Swatch, k int) []Swatch {
	if len(cands) == 0 {
		return nil
	}
	k = min(k, len(cands))
	maxW := 0.0
	seed := 0
	for i, c := range cands {
		if c.Share > maxW {
			maxW = c.Share
			seed = i
		}
	}

	picked := []int{seed}
	used := make([]bool, len(cands))
	used[seed] = true
	for len(picked) < k {
		best, bestScore := -1, -1.0
		for i, c := range cands {
			if used[i] {
				continue
			}
			nearest := math.MaxFloat64
			for _, p := range picked {
				nearest = min(nearest, c.Color.DistanceLab(cands[p].Color))
			}
			score := nearest * (0.55 + 0.45*math.Sqrt(c.Share/maxW))
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		picked = append(picked, best)
	}

	out := make([]Swatch, len(picked))
	total := 0.0
	for i, p := range picked {
		out[i] = cands[p]
		total += cands[p].Share
	}
	for i := range out {
		out[i].Share /= total
	}
	return out
}

// RenderSwatches draws the palette as a strip of tileSize squares.
func RenderSwatches(palette []Swatch, tileSize int) (*image.NRGBA, error) {
	if len(palette) == 0 {
		return nil, fmt.Errorf("empty palette")
	}
	if tileSize <= 0 {
		tileSize = 64
	}
	img := image.NewNRGBA(image.Rect(0, 0, tileSize*len(palette), tileSize))
	for i, s := range palette {
		r, g, b := s.Color.Clamped().RGB255()
		c := color.NRGBA{R: r, G: g, B: b, A: 255}
		for y := range tileSize {
			for x := i * tileSize; x < (i+1)*tileSize; x++ {
				img.SetNRGBA(x, y, c)
			}
		}
	}
	return img, nil
}
