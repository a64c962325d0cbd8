package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/rs/zerolog"

	"github.com/setanarut/objsplit"
)

// progressView renders batch progress. On a terminal it redraws a single
// bar line; elsewhere every event becomes a debug log record.
type progressView struct {
	w      io.Writer
	tty    bool
	bar    progress.Model
	log    *zerolog.Logger
	active bool
}

func newProgressView(w io.Writer, tty bool, log *zerolog.Logger) *progressView {
	return &progressView{
		w:   w,
		tty: tty,
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(32)),
		log: log,
	}
}

// handle runs on the notifier goroutine only.
func (v *progressView) handle(p objsplit.Progress) {
	if !v.tty {
		v.log.Debug().
			Str("phase", p.Phase.String()).
			Int("current", p.Current).
			Int("total", p.Total).
			Msg(p.Message)
		return
	}
	pct := 0.0
	if p.Total > 0 {
		pct = float64(p.Current) / float64(p.Total)
	}
	v.active = true
	fmt.Fprintf(v.w, "\r\x1b[K%s %s", v.bar.ViewAs(pct), dimStyle.Render(p.Message))
}

// finish ends the bar line. RunBatch has closed its notifier by the time
// it returns, so no handle call can race with this.
func (v *progressView) finish() {
	if v.active {
		fmt.Fprintln(v.w)
		v.active = false
	}
}
