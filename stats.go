package objsplit

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SizeStats summarises the sizes of a set of entries.
type SizeStats struct {
	Count                 int
	MinWidth, MaxWidth    int
	MinHeight, MaxHeight  int
	MeanWidth, MeanHeight float64
	StdWidth, StdHeight   float64
}

func Stats(entries []Entry) SizeStats {
	s := SizeStats{Count: len(entries)}
	if len(entries) == 0 {
		return s
	}
	ws := make([]float64, len(entries))
	hs := make([]float64, len(entries))
	for i, e := range entries {
		ws[i] = float64(e.Width)
		hs[i] = float64(e.Height)
	}
	s.MinWidth, s.MaxWidth = int(floats.Min(ws)), int(floats.Max(ws))
	s.MinHeight, s.MaxHeight = int(floats.Min(hs)), int(floats.Max(hs))
	s.MeanWidth, s.StdWidth = stat.MeanStdDev(ws, nil)
	s.MeanHeight, s.StdHeight = stat.MeanStdDev(hs, nil)
	if len(entries) == 1 {
		// MeanStdDev is NaN for a single sample.
		s.StdWidth, s.StdHeight = 0, 0
	}
	return s
}
