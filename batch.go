package objsplit

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/setanarut/objsplit/utils"
)

const DefaultOutputDir = "output"

type BatchConfig struct {
	OutputDir string
	Options
	// Unify enables the size unification pass over all extracted objects.
	Unify    bool
	Mode     Mode
	Resample Resample
	// Files processed at once in each phase. <= 0 means runtime.NumCPU().
	Workers    int
	OnProgress ProgressFunc
}

func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		OutputDir: DefaultOutputDir,
		Options:   DefaultOptions(),
		Mode:      ModeBox,
		Resample:  Lanczos,
	}
}

type Result struct {
	// Entries lists every written object, grouped by input in input order
	// and by label inside one input. Sizes are final (after unification).
	Entries []Entry
	// Target is the unified canvas, zero when unification did not run.
	Target image.Point
	// Warnings holds the recoverable per-file failures of both phases.
	Warnings []error
	Stats    SizeStats
}

// ResolveInputs expands the inputs into a list of image files. A directory
// contributes its image files (non-recursive, sorted by name) and silently
// ignores anything else; a named file must have a known image extension.
// Inputs that cannot be read or have another extension are reported and
// skipped.
func ResolveInputs(inputs ...string) ([]string, []error) {
	var (
		files []string
		errs  []error
	)
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			errs = append(errs, &FileError{Op: "read", Path: in, Err: err})
			continue
		}
		if !info.IsDir() {
			if !utils.IsImageFile(in) {
				errs = append(errs, &FileError{Op: "read", Path: in, Err: ErrUnsupportedFormat})
				continue
			}
			files = append(files, in)
			continue
		}
		dirEntries, err := os.ReadDir(in)
		if err != nil {
			errs = append(errs, &FileError{Op: "read", Path: in, Err: err})
			continue
		}
		var found []string
		for _, de := range dirEntries {
			if de.Type().IsRegular() && utils.IsImageFile(de.Name()) {
				found = append(found, filepath.Join(in, de.Name()))
			}
		}
		slices.Sort(found)
		files = append(files, found...)
	}
	return files, errs
}

// dropNameCollisions keeps the first input of each file name. Output names
// derive from the file name only, so a later a/x.png and b/x.png would
// write the same files.
func dropNameCollisions(files []string) ([]string, []error) {
	var errs []error
	first := make(map[string]string, len(files))
	kept := files[:0:0]
	for _, f := range files {
		base := filepath.Base(f)
		if prev, ok := first[base]; ok {
			errs = append(errs, &FileError{Op: "read", Path: f, Err: fmt.Errorf("%w: %s", ErrNameCollision, prev)})
			continue
		}
		first[base] = f
		kept = append(kept, f)
	}
	return kept, errs
}

// RunBatch extracts objects from every input and, when cfg.Unify is set,
// unifies their sizes once all extraction finished. Per-file failures end
// up in Result.Warnings. The returned error is reserved for cancellation
// and unexpected failures; files written before it stay in place.
func RunBatch(ctx context.Context, inputs []string, cfg BatchConfig) (res *Result, err error) {
	log := zerolog.Ctx(ctx).With().Str("run_id", ulid.Make().String()).Logger()
	ctx = log.WithContext(ctx)

	opt, fixed := cfg.Options.normalize()
	for _, f := range fixed {
		log.Warn().Str("option", f).Msg("invalid value, using default")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	res = &Result{}
	files, errs := ResolveInputs(inputs...)
	files, collisions := dropNameCollisions(files)
	errs = append(errs, collisions...)
	for _, e := range errs {
		log.Warn().Err(e).Msg("skipping input")
	}
	res.Warnings = append(res.Warnings, errs...)
	if len(files) == 0 {
		return res, ErrNoInputs
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return res, &FileError{Op: "mkdir", Path: cfg.OutputDir, Err: err}
	}

	n := NewNotifier(ctx, cfg.OnProgress)
	defer n.Close()

	log.Info().Int("files", len(files)).Str("output_dir", cfg.OutputDir).Msg("extracting objects")
	perFile := make([][]Entry, len(files))
	fileErrs := make([]error, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() (err error) {
			if err := gctx.Err(); err != nil {
				return err
			}
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("processing %s: %v", path, r)
				}
			}()
			perFile[i], fileErrs[i] = ProcessFile(path, cfg.OutputDir, opt)
			n.Advance(PhaseExtract, len(files), "Processing: "+filepath.Base(path))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	for i, fe := range fileErrs {
		if fe != nil {
			var ferr *FileError
			if !errors.As(fe, &ferr) {
				return res, fe
			}
			log.Warn().Err(fe).Str("path", files[i]).Msg("file skipped")
			res.Warnings = append(res.Warnings, fe)
		}
		res.Entries = append(res.Entries, perFile[i]...)
	}
	log.Info().Int("objects", len(res.Entries)).Msg("extraction finished")

	if cfg.Unify && len(res.Entries) > 0 {
		ur, err := unify(ctx, res.Entries, UnifyOptions{
			Mode:     cfg.Mode,
			Resample: cfg.Resample,
			Workers:  workers,
		}, n)
		if ur != nil {
			res.Entries = ur.Entries
			res.Target = ur.Target
			res.Warnings = append(res.Warnings, ur.Failures...)
		}
		if err != nil {
			return res, err
		}
	}
	res.Stats = Stats(res.Entries)
	return res, nil
}
