package export

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/slidectl/internal/sim"
)

var ErrNoSamples = errors.New("export: no samples")

// WritePNG renders target, measured position and the motor output of a run
// as a two-panel PNG chart. Width and height are in inches.
func WritePNG(w io.Writer, title string, samples []sim.Sample, widthIn, heightIn float64) error {
	if len(samples) == 0 {
		return ErrNoSamples
	}

	target := make(plotter.XYs, len(samples))
	measured := make(plotter.XYs, len(samples))
	output := make(plotter.XYs, len(samples))
	for i, s := range samples {
		target[i] = plotter.XY{X: s.T, Y: s.Target}
		measured[i] = plotter.XY{X: s.T, Y: s.Measured}
		output[i] = plotter.XY{X: s.T, Y: s.Output}
	}

	pos := plot.New()
	pos.Title.Text = title
	pos.Y.Label.Text = "position (counts)"
	if err := addLine(pos, "target", target, targetColor, true); err != nil {
		return err
	}
	if err := addLine(pos, "measured", measured, measuredColor, false); err != nil {
		return err
	}

	out := plot.New()
	out.X.Label.Text = "time (s)"
	out.Y.Label.Text = "output"
	if err := addLine(out, "output", output, "#00ccff", false); err != nil {
		return err
	}

	width := vg.Length(widthIn) * vg.Inch
	height := vg.Length(heightIn) * vg.Inch
	c := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(150))
	dc := draw.New(c)

	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: vg.Points(6)}
	canvases := plot.Align([][]*plot.Plot{{pos}, {out}}, tiles, dc)
	pos.Draw(canvases[0][0])
	out.Draw(canvases[1][0])

	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

func addLine(p *plot.Plot, name string, pts plotter.XYs, hex string, dashed bool) error {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = parseColor(hex)
	if dashed {
		line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	}
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}

func parseColor(hex string) color.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.Black
	}
	return c
}
