package metrics

import (
	"github.com/san-kum/slidectl/internal/sim"
	"github.com/san-kum/slidectl/internal/slide"
)

// ActiveRatio is the fraction of cycles on which the controller drove the
// motors. A well-tuned hold spends most of its time idle.
type ActiveRatio struct {
	active  int
	samples int
}

func NewActiveRatio() *ActiveRatio { return &ActiveRatio{} }

func (a *ActiveRatio) Name() string { return "active_ratio" }

func (a *ActiveRatio) Observe(s sim.Sample) {
	a.samples++
	if s.State == slide.StateActive {
		a.active++
	}
}

func (a *ActiveRatio) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return float64(a.active) / float64(a.samples)
}

func (a *ActiveRatio) Reset() {
	a.active = 0
	a.samples = 0
}

// Standard returns the metric set recorded with every stored run.
func Standard(band float64) []sim.Metric {
	return []sim.Metric{
		NewIAE(),
		NewOvershoot(),
		NewSettlingTime(band),
		NewControlEffort(),
		NewActiveRatio(),
		NewErrorMean(),
		NewErrorStdDev(),
		NewErrorQuantile("error_p95", 0.95),
	}
}
