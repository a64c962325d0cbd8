package objsplit

import (
	"errors"
	"fmt"

	"github.com/setanarut/objsplit/utils"
)

var (
	// ErrDecode marks an input that could not be parsed as an image.
	ErrDecode = utils.ErrDecode
	// ErrNoInputs is returned by RunBatch when no input resolves to an image file.
	ErrNoInputs = errors.New("no input images")
	// ErrUnsupportedFormat marks an explicitly named file whose extension is
	// not in utils.ImageExtensions.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrNameCollision marks an input whose outputs would overwrite those of
	// an earlier input with the same file name.
	ErrNameCollision = errors.New("output names collide with an earlier input")
)

// FileError is a recoverable failure tied to one file. Batch runs collect
// these as warnings instead of aborting.
type FileError struct {
	Op   string // decode, read, write, mkdir
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
