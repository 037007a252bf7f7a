package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/slidectl/internal/sim"
)

// Series colours shared by the SVG and PNG charts.
const (
	targetColor   = "#ff5f5f"
	measuredColor = "#00ff00"
)

// RunToSVG draws target and measured position against time. Fewer than two
// samples give an empty string.
func RunToSVG(samples []sim.Sample, width, height int) string {
	if len(samples) < 2 {
		return ""
	}

	minX, maxX := samples[0].T, samples[len(samples)-1].T
	minY, maxY := samples[0].Target, samples[0].Target
	for _, s := range samples {
		for _, y := range []float64{s.Target, s.Measured} {
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	toXY := func(t, y float64) (float64, float64) {
		return (t - minX) / rangeX * float64(width),
			float64(height) - (y-minY)/rangeY*float64(height)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	writePath := func(color, dash string, value func(sim.Sample) float64) {
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5"%s d="M`, color, dash))
		for i, s := range samples {
			x, y := toXY(s.T, value(s))
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}
	writePath(targetColor, ` stroke-dasharray="4 3"`, func(s sim.Sample) float64 { return s.Target })
	writePath(measuredColor, "", func(s sim.Sample) float64 { return s.Measured })

	sb.WriteString("</svg>")
	return sb.String()
}
