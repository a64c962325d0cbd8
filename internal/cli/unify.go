package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/setanarut/objsplit"
	"github.com/setanarut/objsplit/utils"
)

func newUnifyCmd(st *state) *cobra.Command {
	var (
		mode, resample string
		workers        int
		quiet          bool
	)
	cmd := &cobra.Command{
		Use:   "unify [files or directories...]",
		Short: "Rewrite existing images onto one shared canvas size",
		Long: `Rewrite existing images in place so they all share one canvas size.

The canvas is derived from the smallest inputs (see --mode); every image is
scaled keeping its aspect ratio and centered on a transparent background.
Files already at the final size are left untouched.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := zerolog.Ctx(ctx)
			bc := st.cfg.BatchConfig(log)
			opt := objsplit.UnifyOptions{Mode: bc.Mode, Resample: bc.Resample, Workers: bc.Workers}
			var err error
			if cmd.Flags().Changed("mode") {
				if opt.Mode, err = objsplit.ParseMode(mode); err != nil {
					log.Warn().Err(err).Msg("invalid flag value, using box")
				}
			}
			if cmd.Flags().Changed("resample") {
				if opt.Resample, err = objsplit.ParseResample(resample); err != nil {
					log.Warn().Err(err).Msg("invalid flag value, using lanczos")
				}
			}
			if cmd.Flags().Changed("workers") {
				opt.Workers = workers
			}

			files, errs := objsplit.ResolveInputs(args...)
			for _, e := range errs {
				log.Warn().Err(e).Msg("skipping input")
			}
			entries := make([]objsplit.Entry, 0, len(files))
			for _, f := range files {
				size, err := utils.ReadSize(f)
				if err != nil {
					log.Warn().Err(err).Str("path", f).Msg("skipping unreadable image")
					continue
				}
				entries = append(entries, objsplit.Entry{Path: f, Width: size.X, Height: size.Y})
			}
			if len(entries) == 0 {
				return fmt.Errorf("%w in %v", objsplit.ErrNoInputs, args)
			}

			view := newProgressView(cmd.ErrOrStderr(), !quiet && writerIsTerminal(cmd.ErrOrStderr()), log)
			opt.OnProgress = view.handle
			res, err := objsplit.Unify(ctx, entries, opt)
			view.finish()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d files unified (%s, %s) to %dx%d",
				len(entries), opt.Mode, opt.Resample, res.Target.X, res.Target.Y)))
			if res.Skipped > 0 {
				fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%d already at final size", res.Skipped)))
			}
			for _, werr := range res.Failures {
				fmt.Fprintln(out, warnStyle.Render("warning: "+werr.Error()))
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&mode, "mode", objsplit.ModeBox.String(), "unification mode: box, width, height")
	fl.StringVar(&resample, "resample", objsplit.Lanczos.String(), "resample algorithm: lanczos, bicubic, bilinear, box, nearest, hamming")
	fl.IntVarP(&workers, "workers", "j", 0, "files processed in parallel (0 = number of CPUs)")
	fl.BoolVarP(&quiet, "quiet", "q", false, "no progress bar")
	return cmd
}
