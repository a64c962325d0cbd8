package cli

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/setanarut/objsplit/internal/config"
)

// state is shared by the subcommands once the persistent pre-run loaded
// the config file and built the logger.
type state struct {
	cfg    config.Config
	logger zerolog.Logger
}

func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewRootCmd creates the objsplit command tree.
func NewRootCmd(ver string) *cobra.Command {
	st := &state{cfg: config.Default(), logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:           "objsplit",
		Short:         "Split transparent images into one file per object",
		Long:          "objsplit finds the disjoint non-transparent objects of RGBA images, writes each one as a cropped, padded image and can bring all outputs onto one canvas size.",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.setup(cmd)
		},
	}

	cmd.PersistentFlags().String("config", "", "config file (default ./"+config.DefaultFile+" if present)")
	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().Bool("json-log", false, "emit logs as JSON lines")
	cmd.AddCommand(newSplitCmd(st), newUnifyCmd(st), newDescribeCmd(st))
	return cmd
}

func (st *state) setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	optional := path == ""
	if optional {
		path = config.DefaultFile
	}
	cfg, err := config.Load(path, optional)
	if err != nil {
		return err
	}
	st.cfg = cfg

	level := cfg.LogLevel
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		level = lvl
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = "debug"
	}
	jsonLog, _ := cmd.Flags().GetBool("json-log")
	st.logger = config.NewLogger(cmd.ErrOrStderr(), level, !jsonLog)
	cmd.SetContext(st.logger.WithContext(cmd.Context()))
	st.logger.Debug().Str("command", cmd.Name()).Str("config", path).Msg("command started")
	return nil
}

const rootCmdExample = `  # Split every PNG in a folder into ./output
  objsplit split ./sprites

  # Keep objects larger than 32px, no padding, unify by width
  objsplit split a.png b.png --min-size 32 --padding 0 --unify --mode width

  # Bring already extracted files onto one canvas
  objsplit unify output/*.png --mode height --resample bicubic

  # Show the main colors of each object
  objsplit describe output --colors 4 --method kmeans`
