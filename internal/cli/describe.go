package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/setanarut/objsplit"
	"github.com/setanarut/objsplit/utils"
)

func newDescribeCmd(_ *state) *cobra.Command {
	var (
		colors    int
		method    string
		swatchDir string
	)
	cmd := &cobra.Command{
		Use:   "describe [files or directories...]",
		Short: "Print the size and main colors of images",
		Long: `Print the size and a palette of the opaque pixels of each image.

Colors are listed darkest first with the share of opaque pixels each one
stands for. With --swatch-dir a {name}_palette.png strip is also written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := zerolog.Ctx(cmd.Context())
			pm, err := utils.ParsePaletteMethod(method)
			if err != nil {
				log.Warn().Err(err).Str("default", pm.String()).Msg("invalid flag value")
			}
			files, errs := objsplit.ResolveInputs(args...)
			for _, e := range errs {
				log.Warn().Err(e).Msg("skipping input")
			}
			if len(files) == 0 {
				return fmt.Errorf("%w in %v", objsplit.ErrNoInputs, args)
			}

			out := cmd.OutOrStdout()
			for _, f := range files {
				img, err := utils.ReadImage(f)
				if err != nil {
					log.Warn().Err(err).Str("path", f).Msg("skipping unreadable image")
					continue
				}
				palette := utils.ExtractPalette(img, colors, pm)
				utils.SortByBrightness(palette)

				var b strings.Builder
				fmt.Fprintf(&b, "%s %s", titleStyle.Render(f), dimStyle.Render(fmt.Sprintf("%dx%d", img.Rect.Dx(), img.Rect.Dy())))
				for _, s := range palette {
					chip := lipgloss.NewStyle().Background(lipgloss.Color(s.Hex())).Render("  ")
					fmt.Fprintf(&b, " %s %s %.0f%%", chip, s.Hex(), s.Share*100)
				}
				fmt.Fprintln(out, b.String())

				if swatchDir != "" && len(palette) > 0 {
					if err := writeSwatch(palette, swatchDir, f); err != nil {
						log.Warn().Err(err).Str("path", f).Msg("writing palette swatch")
					}
				}
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.IntVarP(&colors, "colors", "k", 5, "number of palette colors")
	fl.StringVar(&method, "method", utils.PaletteMethodDominantColor.String(), "palette method: dominantcolor, kmeans")
	fl.StringVar(&swatchDir, "swatch-dir", "", "directory for palette strip images")
	return cmd
}

func writeSwatch(palette []utils.Swatch, dir, src string) error {
	img, err := utils.RenderSwatches(palette, 64)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return utils.SaveImage(img, filepath.Join(dir, stem+"_palette.png"))
}
