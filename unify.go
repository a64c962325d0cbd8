package objsplit

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/setanarut/objsplit/utils"
)

// Mode selects which dimension of the smallest outputs is pinned when all
// outputs are brought onto one canvas.
type Mode int

const (
	// ModeBox pins both: the canvas is (min width, min height) and every
	// image is fitted inside it.
	ModeBox Mode = iota
	// ModeWidth scales every image to the minimum width; the canvas is as
	// tall as the tallest result.
	ModeWidth
	// ModeHeight scales every image to the minimum height; the canvas is
	// as wide as the widest result.
	ModeHeight
)

func (m Mode) String() string {
	switch m {
	case ModeWidth:
		return "width"
	case ModeHeight:
		return "height"
	default:
		return "box"
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "box", "smaller", "":
		return ModeBox, nil
	case "width":
		return ModeWidth, nil
	case "height":
		return ModeHeight, nil
	}
	return ModeBox, fmt.Errorf("unknown unification mode %q", s)
}

// Resample is the interpolation kernel used when scaling.
type Resample int

const (
	Lanczos Resample = iota
	Bicubic
	Bilinear
	Box
	Nearest
	Hamming
)

var resampleNames = map[Resample]string{
	Lanczos:  "lanczos",
	Bicubic:  "bicubic",
	Bilinear: "bilinear",
	Box:      "box",
	Nearest:  "nearest",
	Hamming:  "hamming",
}

func (r Resample) String() string {
	if s, ok := resampleNames[r]; ok {
		return s
	}
	return resampleNames[Lanczos]
}

// ParseResample accepts the canonical names plus the descriptive aliases
// "nearest neighbor", "sharp bilinear" and "area sampling".
func ParseResample(s string) (Resample, error) {
	key := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch key {
	case "", "lanczos":
		return Lanczos, nil
	case "bicubic", "cubic":
		return Bicubic, nil
	case "bilinear", "linear":
		return Bilinear, nil
	case "box", "area", "areasampling":
		return Box, nil
	case "nearest", "nearestneighbor":
		return Nearest, nil
	case "hamming", "sharpbilinear":
		return Hamming, nil
	}
	return Lanczos, fmt.Errorf("unknown resample algorithm %q", s)
}

func (r Resample) filter() imaging.ResampleFilter {
	switch r {
	case Bicubic:
		return imaging.CatmullRom
	case Bilinear:
		return imaging.Linear
	case Box:
		return imaging.Box
	case Nearest:
		return imaging.NearestNeighbor
	case Hamming:
		return imaging.Hamming
	default:
		return imaging.Lanczos
	}
}

type UnifyOptions struct {
	Mode     Mode
	Resample Resample
	// Maximum number of files rewritten at once. <= 0 means runtime.NumCPU().
	Workers    int
	OnProgress ProgressFunc
}

func DefaultUnifyOptions() UnifyOptions {
	return UnifyOptions{Mode: ModeBox, Resample: Lanczos}
}

type UnifyResult struct {
	Target image.Point
	// Entries mirrors the input order with post-unification sizes. Skipped
	// and failed entries keep their original size.
	Entries  []Entry
	Skipped  int
	Failures []error
}

// scaleDim rounds v*scale to the nearest pixel, never below one.
func scaleDim(v int, scale float64) int {
	return max(1, int(math.Round(float64(v)*scale)))
}

// TargetSize derives the shared canvas for entries under mode.
// It returns the zero point for an empty list.
func TargetSize(entries []Entry, mode Mode) image.Point {
	if len(entries) == 0 {
		return image.Point{}
	}
	widths := make([]float64, len(entries))
	heights := make([]float64, len(entries))
	for i, e := range entries {
		widths[i] = float64(e.Width)
		heights[i] = float64(e.Height)
	}
	minW, minH := int(floats.Min(widths)), int(floats.Min(heights))

	switch mode {
	case ModeWidth:
		scaled := make([]float64, len(entries))
		for i, e := range entries {
			scaled[i] = float64(scaleDim(e.Height, float64(minW)/float64(e.Width)))
		}
		return image.Pt(minW, int(floats.Max(scaled)))
	case ModeHeight:
		scaled := make([]float64, len(entries))
		for i, e := range entries {
			scaled[i] = float64(scaleDim(e.Width, float64(minH)/float64(e.Height)))
		}
		return image.Pt(int(floats.Max(scaled)), minH)
	default:
		return image.Pt(minW, minH)
	}
}

// fitSize is the size an entry is resampled to before being centered on
// the target canvas.
func fitSize(e Entry, target image.Point, mode Mode) image.Point {
	var scale float64
	switch mode {
	case ModeWidth:
		scale = float64(target.X) / float64(e.Width)
	case ModeHeight:
		scale = float64(target.Y) / float64(e.Height)
	default:
		scale = min(float64(target.X)/float64(e.Width), float64(target.Y)/float64(e.Height))
	}
	return image.Pt(scaleDim(e.Width, scale), scaleDim(e.Height, scale))
}

// alreadyUnified reports whether the file needs no rewrite: it is neither
// scaled nor moved onto a larger canvas.
func alreadyUnified(e Entry, fit, target image.Point) bool {
	return fit == target && fit == e.Size()
}

// Unify rewrites every entry in place, scaled and centered on one shared
// transparent canvas. A file that cannot be read or written is logged,
// recorded in the result and skipped; the others are still processed.
func Unify(ctx context.Context, entries []Entry, opt UnifyOptions) (*UnifyResult, error) {
	n := NewNotifier(ctx, opt.OnProgress)
	defer n.Close()
	return unify(ctx, entries, opt, n)
}

func unify(ctx context.Context, entries []Entry, opt UnifyOptions, n *Notifier) (*UnifyResult, error) {
	res := &UnifyResult{Entries: append([]Entry(nil), entries...)}
	if len(entries) == 0 {
		return res, nil
	}
	log := zerolog.Ctx(ctx)
	res.Target = TargetSize(entries, opt.Mode)
	log.Debug().
		Str("mode", opt.Mode.String()).
		Int("target_w", res.Target.X).
		Int("target_h", res.Target.Y).
		Msg("unification target")

	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	filter := opt.Resample.filter()

	var (
		skipped atomic.Int64
		mu      sync.Mutex
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, e := range entries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fit := fitSize(e, res.Target, opt.Mode)
			if alreadyUnified(e, fit, res.Target) {
				skipped.Add(1)
			} else if err := rewrite(e.Path, fit, res.Target, filter); err != nil {
				log.Warn().Err(err).Str("path", e.Path).Msg("unify failed, keeping original")
				mu.Lock()
				res.Failures = append(res.Failures, err)
				mu.Unlock()
			} else {
				res.Entries[i].Width, res.Entries[i].Height = res.Target.X, res.Target.Y
			}
			n.Advance(PhaseUnify, len(entries), "Unifying: "+filepath.Base(e.Path))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	res.Skipped = int(skipped.Load())
	return res, nil
}

func rewrite(path string, fit, target image.Point, filter imaging.ResampleFilter) error {
	img, err := utils.ReadImage(path)
	if err != nil {
		return &FileError{Op: "read", Path: path, Err: err}
	}
	var scaled image.Image = img
	if fit != img.Rect.Size() {
		scaled = imaging.Resize(img, fit.X, fit.Y, filter)
	}
	canvas := imaging.New(target.X, target.Y, color.NRGBA{})
	offset := image.Pt((target.X-fit.X)/2, (target.Y-fit.Y)/2)
	canvas = imaging.Paste(canvas, scaled, offset)
	if err := utils.SaveImage(canvas, path); err != nil {
		return &FileError{Op: "write", Path: path, Err: err}
	}
	return nil
}
