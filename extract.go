package objsplit

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/setanarut/objsplit/utils"
)

const (
	DefaultPadding = 10
	DefaultMinSize = 128
)

type Options struct {
	// Transparent border added on every side of each extracted object.
	Padding int
	// Objects whose width and height are both <= MinSize are dropped.
	// Exceeding it in a single dimension is enough to keep an object.
	MinSize int
}

func DefaultOptions() Options {
	return Options{
		Padding: DefaultPadding,
		MinSize: DefaultMinSize,
	}
}

// normalize replaces negative values with the defaults and reports which
// fields were replaced.
func (o Options) normalize() (Options, []string) {
	var fixed []string
	if o.Padding < 0 {
		o.Padding = DefaultPadding
		fixed = append(fixed, "padding")
	}
	if o.MinSize < 0 {
		o.MinSize = DefaultMinSize
		fixed = append(fixed, "min_size")
	}
	return o, fixed
}

// Region is one extracted object.
type Region struct {
	// ID is the 1-based component label.
	ID int
	// Bounds is the tight box of the component in source coordinates.
	Bounds image.Rectangle
	// Image holds the masked crop, already padded.
	Image *image.NRGBA
}

// Entry is what extraction hands to the unifier: a written file and its size.
type Entry struct {
	Path   string
	Width  int
	Height int
}

func (e Entry) Size() image.Point { return image.Pt(e.Width, e.Height) }

// Extract splits img into its 4-connected opaque components and returns
// the kept ones in ascending label order.
func Extract(img image.Image, opt Options) []Region {
	opt, _ = opt.normalize()
	src := utils.ToNRGBA(img)
	grid, boxes := labelOpaque(src)

	regions := make([]Region, 0, len(boxes))
	for i, box := range boxes {
		bounds := box.rect()
		if bounds.Dx() <= opt.MinSize && bounds.Dy() <= opt.MinSize {
			continue
		}
		id := i + 1
		regions = append(regions, Region{
			ID:     id,
			Bounds: bounds,
			Image:  cutRegion(src, grid, int32(id), bounds, opt.Padding),
		})
	}
	return regions
}

// cutRegion copies the pixels of one label inside bounds onto a
// transparent canvas grown by padding on every side. Pixels of other
// labels that fall inside the box stay zero in all four channels.
func cutRegion(src *image.NRGBA, grid labelGrid, label int32, bounds image.Rectangle, padding int) *image.NRGBA {
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w+2*padding, h+2*padding))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		srcRow := y * src.Stride
		dstRow := (y-bounds.Min.Y+padding)*dst.Stride + padding*4
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if grid.at(x, y) != label {
				continue
			}
			s := srcRow + x*4
			d := dstRow + (x-bounds.Min.X)*4
			copy(dst.Pix[d:d+4], src.Pix[s:s+4])
		}
	}
	return dst
}

// OutputName returns "{stem}_{id:03d}{ext}" for an input path.
func OutputName(inputPath string, id int) string {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s_%03d%s", strings.TrimSuffix(base, ext), id, ext)
}

// ProcessFile extracts the objects of one image file and writes each one to
// outputDir. It returns the entries written so far together with the first
// error. Decode failures wrap ErrDecode; filesystem failures are *FileError.
func ProcessFile(path, outputDir string, opt Options) ([]Entry, error) {
	img, err := utils.ReadImage(path)
	if err != nil {
		op := "read"
		if errors.Is(err, utils.ErrDecode) {
			op = "decode"
		}
		return nil, &FileError{Op: op, Path: path, Err: err}
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, &FileError{Op: "mkdir", Path: outputDir, Err: err}
	}

	var entries []Entry
	for _, r := range Extract(img, opt) {
		out := filepath.Join(outputDir, OutputName(path, r.ID))
		if err := utils.SaveImage(r.Image, out); err != nil {
			return entries, &FileError{Op: "write", Path: out, Err: err}
		}
		entries = append(entries, Entry{
			Path:   out,
			Width:  r.Image.Rect.Dx(),
			Height: r.Image.Rect.Dy(),
		})
	}
	return entries, nil
}
