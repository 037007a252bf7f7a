package metrics

import (
	"math"

	"github.com/san-kum/slidectl/internal/sim"
)

// IAE integrates the absolute tracking error over time.
type IAE struct {
	sum   float64
	lastT float64
	seen  bool
}

func NewIAE() *IAE { return &IAE{} }

func (m *IAE) Name() string { return "iae" }

func (m *IAE) Observe(s sim.Sample) {
	if m.seen {
		m.sum += math.Abs(s.Error()) * (s.T - m.lastT)
	}
	m.lastT = s.T
	m.seen = true
}

func (m *IAE) Value() float64 { return m.sum }

func (m *IAE) Reset() {
	m.sum = 0
	m.lastT = 0
	m.seen = false
}

// Overshoot is the largest travel past the target, in counts, measured in
// the direction of the most recent target change.
type Overshoot struct {
	target float64
	dir    float64
	max    float64
	seen   bool
}

func NewOvershoot() *Overshoot { return &Overshoot{} }

func (m *Overshoot) Name() string { return "overshoot" }

func (m *Overshoot) Observe(s sim.Sample) {
	if !m.seen || s.Target != m.target {
		m.target = s.Target
		m.dir = sign(s.Error())
		m.seen = true
	}
	if past := -m.dir * s.Error(); past > m.max {
		m.max = past
	}
}

func (m *Overshoot) Value() float64 { return m.max }

func (m *Overshoot) Reset() { *m = Overshoot{} }

// SettlingTime is the time from the latest target change until the error
// last left the band. A run that never leaves the band settles at zero.
type SettlingTime struct {
	band      float64
	changedAt float64
	target    float64
	lastOut   float64
	seen      bool
}

func NewSettlingTime(band float64) *SettlingTime {
	return &SettlingTime{band: band}
}

func (m *SettlingTime) Name() string { return "settling_time" }

func (m *SettlingTime) Observe(s sim.Sample) {
	if !m.seen || s.Target != m.target {
		m.target = s.Target
		m.changedAt = s.T
		m.lastOut = s.T
		m.seen = true
	}
	if math.Abs(s.Error()) >= m.band {
		m.lastOut = s.T
	}
}

func (m *SettlingTime) Value() float64 {
	if !m.seen {
		return 0
	}
	return m.lastOut - m.changedAt
}

func (m *SettlingTime) Reset() {
	*m = SettlingTime{band: m.band}
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
