package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/slidectl/internal/sim"
	"github.com/san-kum/slidectl/internal/slide"
)

// ErrorSpread summarises the distribution of absolute tracking error over
// the cycles where the controller was driving the motors.
type ErrorSpread struct {
	name   string
	reduce func(sorted []float64) float64
	errs   []float64
}

// NewErrorMean reports the mean absolute active error.
func NewErrorMean() *ErrorSpread {
	return &ErrorSpread{name: "error_mean", reduce: func(x []float64) float64 {
		return stat.Mean(x, nil)
	}}
}

// NewErrorStdDev reports the standard deviation of the absolute active error.
func NewErrorStdDev() *ErrorSpread {
	return &ErrorSpread{name: "error_std", reduce: func(x []float64) float64 {
		_, sd := stat.MeanStdDev(x, nil)
		return sd
	}}
}

// NewErrorQuantile reports the p-quantile, p in [0, 1].
func NewErrorQuantile(name string, p float64) *ErrorSpread {
	return &ErrorSpread{name: name, reduce: func(x []float64) float64 {
		return stat.Quantile(p, stat.Empirical, x, nil)
	}}
}

func (m *ErrorSpread) Name() string { return m.name }

func (m *ErrorSpread) Observe(s sim.Sample) {
	if s.State != slide.StateActive {
		return
	}
	m.errs = append(m.errs, math.Abs(s.Error()))
}

func (m *ErrorSpread) Value() float64 {
	if len(m.errs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), m.errs...)
	sort.Float64s(sorted)
	// A single sample has no spread; gonum reports NaN for it.
	if v := m.reduce(sorted); !math.IsNaN(v) {
		return v
	}
	return 0
}

func (m *ErrorSpread) Reset() { m.errs = m.errs[:0] }
