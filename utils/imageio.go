package utils

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/tiff"
)

// ErrDecode marks a file whose bytes are not a decodable image.
var ErrDecode = errors.New("cannot decode image")

// ImageExtensions lists the lowercase extensions accepted as inputs. Outputs
// keep the input's extension and format, so only formats whose encoder and
// decoder both keep the alpha channel are listed. BMP is not: x/image/bmp
// writes a header its own decoder reads back as opaque.
var ImageExtensions = []string{".png", ".tif", ".tiff"}

func IsImageFile(path string) bool {
	return slices.Contains(ImageExtensions, strings.ToLower(filepath.Ext(path)))
}

// ReadImage decodes path into an NRGBA raster anchored at (0,0).
// Open failures are returned as is; undecodable contents wrap ErrDecode.
func ReadImage(path string) (*image.NRGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return ToNRGBA(img), nil
}

// ToNRGBA returns img as an NRGBA anchored at (0,0), copying only when needed.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

// ReadSize returns the dimensions stored in the header of path without
// decoding the pixels.
func ReadSize(path string) (image.Point, error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Point{}, err
	}
	defer file.Close()
	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return image.Point{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return image.Pt(cfg.Width, cfg.Height), nil
}

func encode(w io.Writer, img image.Image, ext string) error {
	switch strings.ToLower(ext) {
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		return png.Encode(w, img)
	}
}

// SaveImage encodes img in the format implied by the filename extension.
// The data goes to a temporary file in the same directory which is renamed
// over filename once fully written, so readers never see a partial image.
func SaveImage(img image.Image, filename string) error {
	dir, base := filepath.Split(filename)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if err := encode(tmp, img, filepath.Ext(filename)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filename); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
