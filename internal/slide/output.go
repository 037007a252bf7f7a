package slide

import "math"

// OutputMapping converts one PID output into the commands for the two motors.
type OutputMapping interface {
	Map(output float64) (left, right float64)
}

// OutputFunc adapts a plain function to OutputMapping.
type OutputFunc func(output float64) (left, right float64)

func (f OutputFunc) Map(output float64) (float64, float64) { return f(output) }

// Mirrored drives the left motor with the negated output and the right motor
// with the output itself, for a pair mounted facing each other. A positive
// Limit saturates the output to [-Limit, Limit] before mirroring.
type Mirrored struct {
	Limit float64
}

func (m Mirrored) Map(output float64) (float64, float64) {
	if m.Limit > 0 {
		output = clamp(output, -m.Limit, m.Limit)
	}
	return -output, output
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
