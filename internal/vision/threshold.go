package vision

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// HSV is a colour on the 8-bit OpenCV scale.
type HSV struct {
	H, S, V float64
}

// ToHSV converts c to the OpenCV scale. Fully transparent pixels have no
// colour and report ok=false.
func ToHSV(c color.Color) (hsv HSV, ok bool) {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return HSV{}, false
	}
	h, s, v := cf.Hsv()
	return HSV{H: h / 2, S: s * 255, V: v * 255}, true
}

// Range is an inclusive HSV box.
type Range struct {
	Min, Max HSV
}

func (r Range) Contains(p HSV) bool {
	return p.H >= r.Min.H && p.H <= r.Max.H &&
		p.S >= r.Min.S && p.S <= r.Max.S &&
		p.V >= r.Min.V && p.V <= r.Max.V
}

// Thresholds are the colour boxes for each alliance.
type Thresholds struct {
	Blue    Range
	RedLow  Range
	RedHigh Range
}

func DefaultThresholds() Thresholds {
	const (
		minSat, maxSat = 100, 255
		minVal, maxVal = 100, 255
	)
	box := func(loH, hiH float64) Range {
		return Range{
			Min: HSV{H: loH, S: minSat, V: minVal},
			Max: HSV{H: hiH, S: maxSat, V: maxVal},
		}
	}
	return Thresholds{
		Blue:    box(100, 115),
		RedLow:  box(0, 25),
		RedHigh: box(160, 255),
	}
}

// Match reports whether p belongs to the selected alliance colour.
func (t Thresholds) Match(p HSV, red bool) bool {
	if red {
		return t.RedLow.Contains(p) || t.RedHigh.Contains(p)
	}
	return t.Blue.Contains(p)
}
