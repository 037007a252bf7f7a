package viz

import (
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/slidectl/internal/sim"
)

// PlotRun charts target and measured position of a run, resampled to at
// most width points.
func PlotRun(samples []sim.Sample, width, height int, caption string) string {
	if len(samples) == 0 {
		return ""
	}

	stride := 1
	if width > 0 && len(samples) > width {
		stride = (len(samples) + width - 1) / width
	}

	targets := make([]float64, 0, len(samples)/stride+1)
	positions := make([]float64, 0, len(samples)/stride+1)
	for i := 0; i < len(samples); i += stride {
		targets = append(targets, samples[i].Target)
		positions = append(positions, samples[i].Measured)
	}

	return asciigraph.PlotMany(
		[][]float64{targets, positions},
		asciigraph.Height(height),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green),
		asciigraph.Caption(caption),
	)
}

// PlotSeries charts a single column of a run, such as the motor output.
func PlotSeries(values []float64, width, height int, caption string) string {
	if len(values) == 0 {
		return ""
	}
	return asciigraph.Plot(values, asciigraph.Width(width), asciigraph.Height(height), asciigraph.Caption(caption))
}
