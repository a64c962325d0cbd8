package cli

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/setanarut/objsplit"
	"github.com/setanarut/objsplit/internal/config"
)

// unifyControls tells which unification settings are meaningful. It is
// the CLI form of enabling the dependent widgets when the unify toggle is on.
type unifyControls struct {
	Mode     bool
	Resample bool
}

func unifyControlsFor(enabled bool) unifyControls {
	return unifyControls{Mode: enabled, Resample: enabled}
}

type splitFlags struct {
	output   string
	padding  string
	minSize  string
	unify    bool
	mode     string
	resample string
	workers  int
	quiet    bool
}

func newSplitCmd(st *state) *cobra.Command {
	var f splitFlags
	cmd := &cobra.Command{
		Use:   "split [files or directories...]",
		Short: "Extract every object of the given images",
		Long: `Extract every 4-connected non-transparent object of the given images.

Each object is cropped to its bounding box, cleared of pixels belonging to
other objects, padded and written as {name}_{id:03d}{ext} into the output
directory. Directories are scanned for image files (not recursively).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := zerolog.Ctx(cmd.Context())
			bc := applySplitFlags(cmd.Flags(), f, st.cfg.BatchConfig(log), log)

			view := newProgressView(cmd.ErrOrStderr(), !f.quiet && writerIsTerminal(cmd.ErrOrStderr()), log)
			bc.OnProgress = view.handle
			res, err := objsplit.RunBatch(cmd.Context(), args, bc)
			view.finish()
			if errors.Is(err, objsplit.ErrNoInputs) {
				return fmt.Errorf("%w in %v", err, args)
			}
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), bc, res)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", objsplit.DefaultOutputDir, "output directory")
	fl.StringVar(&f.padding, "padding", fmt.Sprint(objsplit.DefaultPadding), "transparent border in pixels around each object")
	fl.StringVar(&f.minSize, "min-size", fmt.Sprint(objsplit.DefaultMinSize), "drop objects whose width and height are both <= this")
	fl.BoolVar(&f.unify, "unify", false, "bring all objects onto one canvas size")
	fl.StringVar(&f.mode, "mode", objsplit.ModeBox.String(), "unification mode: box, width, height")
	fl.StringVar(&f.resample, "resample", objsplit.Lanczos.String(), "resample algorithm: lanczos, bicubic, bilinear, box, nearest, hamming")
	fl.IntVarP(&f.workers, "workers", "j", 0, "files processed in parallel (0 = number of CPUs)")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "no progress bar")
	return cmd
}

// applySplitFlags layers the explicitly set flags over the config file
// values. Bad numbers and names fall back to the defaults with a warning.
func applySplitFlags(fl *pflag.FlagSet, f splitFlags, bc objsplit.BatchConfig, log *zerolog.Logger) objsplit.BatchConfig {
	if fl.Changed("output") {
		bc.OutputDir = f.output
	}
	if fl.Changed("padding") {
		bc.Padding = lenientFlag(log, "padding", f.padding, objsplit.DefaultPadding)
	}
	if fl.Changed("min-size") {
		bc.MinSize = lenientFlag(log, "min-size", f.minSize, objsplit.DefaultMinSize)
	}
	if fl.Changed("unify") {
		bc.Unify = f.unify
	}
	if fl.Changed("workers") {
		bc.Workers = f.workers
	}

	controls := unifyControlsFor(bc.Unify)
	if fl.Changed("mode") {
		if !controls.Mode {
			log.Warn().Msg("--mode has no effect without --unify")
		}
		mode, err := objsplit.ParseMode(f.mode)
		if err != nil {
			log.Warn().Err(err).Str("default", mode.String()).Msg("invalid flag value")
		}
		bc.Mode = mode
	}
	if fl.Changed("resample") {
		if !controls.Resample {
			log.Warn().Msg("--resample has no effect without --unify")
		}
		rs, err := objsplit.ParseResample(f.resample)
		if err != nil {
			log.Warn().Err(err).Str("default", rs.String()).Msg("invalid flag value")
		}
		bc.Resample = rs
	}
	return bc
}

func lenientFlag(log *zerolog.Logger, name, raw string, def int) int {
	v, ok := config.ParseIntOr(raw, def)
	if !ok || v < 0 {
		log.Warn().Str("flag", name).Str("value", raw).Int("default", def).Msg("invalid number, using default")
		return def
	}
	return v
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func printSummary(w io.Writer, bc objsplit.BatchConfig, res *objsplit.Result) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d objects written to %s", len(res.Entries), bc.OutputDir)))
	for _, e := range res.Entries {
		fmt.Fprintf(w, "  %s %s\n", e.Path, dimStyle.Render(fmt.Sprintf("%dx%d", e.Width, e.Height)))
	}
	if !res.Target.Eq(image.Point{}) {
		fmt.Fprintf(w, "unified (%s, %s) to %dx%d\n", bc.Mode, bc.Resample, res.Target.X, res.Target.Y)
	} else if s := res.Stats; s.Count > 1 {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf(
			"width %d..%d (mean %.1f ± %.1f), height %d..%d (mean %.1f ± %.1f)",
			s.MinWidth, s.MaxWidth, s.MeanWidth, s.StdWidth,
			s.MinHeight, s.MaxHeight, s.MeanHeight, s.StdHeight)))
	}
	for _, werr := range res.Warnings {
		fmt.Fprintln(w, warnStyle.Render("warning: "+werr.Error()))
	}
}
