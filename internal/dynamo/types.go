package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// Validate checks x against the dimensions of dyn.
func Validate(dyn System, x State) error {
	if len(x) != dyn.StateDim() {
		return fmt.Errorf("%w: state has %d entries, system wants %d", ErrDimensionMismatch, len(x), dyn.StateDim())
	}
	if !x.IsValid() {
		return ErrInvalidState
	}
	return nil
}
