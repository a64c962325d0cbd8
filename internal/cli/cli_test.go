package cli

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setanarut/objsplit"
	"github.com/setanarut/objsplit/utils"
)

// lockedBuffer is shared by the logger and the progress goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out bytes.Buffer
	errBuf := &lockedBuffer{}
	cmd := NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errBuf.String(), err
}

// writeSheet writes a 150x10 bar and a 10x10 speck.
func writeSheet(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 200, 40))
	c := color.NRGBA{R: 255, G: 128, A: 255}
	for y := 2; y < 12; y++ {
		for x := 5; x < 155; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	for y := 25; y < 35; y++ {
		for x := 170; x < 180; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	path := filepath.Join(dir, "sheet.png")
	require.NoError(t, utils.SaveImage(img, path))
	return path
}

func TestSplit_LenientFlags(t *testing.T) {
	in := t.TempDir()
	writeSheet(t, in)
	out := filepath.Join(t.TempDir(), "out")

	stdout, stderr, err := execute(t, "split", in, "--min-size", "abc", "--padding", "0", "-o", out, "-q")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 objects written to "+out)
	assert.Contains(t, stderr, "min-size")

	// The 10x10 speck is under the default minimum size.
	size, err := utils.ReadSize(filepath.Join(out, "sheet_001.png"))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(150, 10), size)
	assert.NoFileExists(t, filepath.Join(out, "sheet_002.png"))
}

func TestSplit_WithUnify(t *testing.T) {
	in := t.TempDir()
	writeSheet(t, in)
	out := filepath.Join(t.TempDir(), "out")

	stdout, _, err := execute(t, "split", in, "--min-size", "0", "--padding", "0", "-o", out, "--unify", "--mode", "height", "--resample", "nearest")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 objects written")
	assert.Contains(t, stdout, "unified (height, nearest) to 150x10")

	for _, name := range []string{"sheet_001.png", "sheet_002.png"} {
		size, err := utils.ReadSize(filepath.Join(out, name))
		require.NoError(t, err)
		assert.Equal(t, image.Pt(150, 10), size, name)
	}
}

func TestSplit_ConfigFile(t *testing.T) {
	in := t.TempDir()
	writeSheet(t, in)
	out := filepath.Join(t.TempDir(), "out")
	cfgPath := filepath.Join(t.TempDir(), "objsplit.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output_dir: "+out+"\nmin_size: 0\npadding: 3\n"), 0o644))

	stdout, _, err := execute(t, "split", in, "--config", cfgPath, "-q")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 objects written to "+out)
	size, err := utils.ReadSize(filepath.Join(out, "sheet_002.png"))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(16, 16), size)
}

func TestSplit_NoInputs(t *testing.T) {
	_, _, err := execute(t, "split", t.TempDir(), "-o", filepath.Join(t.TempDir(), "out"))
	assert.ErrorIs(t, err, objsplit.ErrNoInputs)
}

func TestUnifyCommand(t *testing.T) {
	dir := t.TempDir()
	for name, size := range map[string]image.Point{"a.png": {60, 30}, "b.png": {30, 60}} {
		img := image.NewNRGBA(image.Rectangle{Max: size})
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 255
		}
		require.NoError(t, utils.SaveImage(img, filepath.Join(dir, name)))
	}

	stdout, _, err := execute(t, "unify", dir, "-q")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 files unified (box, lanczos) to 30x30")
	for _, name := range []string{"a.png", "b.png"} {
		size, err := utils.ReadSize(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, image.Pt(30, 30), size)
	}
}

func TestDescribeCommand(t *testing.T) {
	in := t.TempDir()
	src := writeSheet(t, in)
	swatches := filepath.Join(t.TempDir(), "swatches")

	stdout, _, err := execute(t, "describe", src, "-k", "2", "--method", "kmeans", "--swatch-dir", swatches)
	require.NoError(t, err)
	assert.Contains(t, stdout, src)
	assert.Contains(t, stdout, "200x40")
	assert.FileExists(t, filepath.Join(swatches, "sheet_palette.png"))
}

func TestUnifyControlsFor(t *testing.T) {
	assert.Equal(t, unifyControls{Mode: true, Resample: true}, unifyControlsFor(true))
	assert.Equal(t, unifyControls{}, unifyControlsFor(false))
}
