package integrators

import "github.com/san-kum/slidectl/internal/dynamo"

// Tableau holds the Butcher coefficients of an explicit Runge-Kutta method.
// A is strictly lower triangular.
type Tableau struct {
	A [][]float64
	B []float64
	C []float64
}

var (
	eulerTableau = Tableau{
		A: [][]float64{{}},
		B: []float64{1},
		C: []float64{0},
	}
	heunTableau = Tableau{
		A: [][]float64{{}, {1}},
		B: []float64{0.5, 0.5},
		C: []float64{0, 1},
	}
	rk4Tableau = Tableau{
		A: [][]float64{{}, {0.5}, {0, 0.5}, {0, 0, 1}},
		B: []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
		C: []float64{0, 0.5, 0.5, 1},
	}
)

// Explicit steps a system with a fixed explicit Runge-Kutta method. The
// control input is held for the whole step, the way a motor command is held
// between two controller updates. Stage buffers are reused across steps, so
// an Explicit must not be shared between goroutines.
type Explicit struct {
	tab     Tableau
	k       []dynamo.State
	scratch dynamo.State
}

func NewExplicit(tab Tableau) *Explicit {
	return &Explicit{tab: tab, k: make([]dynamo.State, len(tab.B))}
}

// NewEuler is the first-order method. Accurate enough when dt is well below
// the plant time constant.
func NewEuler() *Explicit { return NewExplicit(eulerTableau) }

// NewHeun is the second-order trapezoidal predictor-corrector.
func NewHeun() *Explicit { return NewExplicit(heunTableau) }

// NewRK4 is the classic fourth-order method.
func NewRK4() *Explicit { return NewExplicit(rk4Tableau) }

// Stages is the number of derivative evaluations per step.
func (e *Explicit) Stages() int { return len(e.tab.B) }

func (e *Explicit) ensureScratch(n int) {
	if len(e.scratch) == n {
		return
	}
	e.scratch = make(dynamo.State, n)
	for i := range e.k {
		e.k[i] = make(dynamo.State, n)
	}
}

func (e *Explicit) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	e.ensureScratch(n)

	for s := range e.k {
		copy(e.scratch, x)
		for j, a := range e.tab.A[s] {
			if a == 0 {
				continue
			}
			for i := 0; i < n; i++ {
				e.scratch[i] += dt * a * e.k[j][i]
			}
		}
		copy(e.k[s], dyn.Derive(e.scratch, u, t+e.tab.C[s]*dt))
	}

	next := x.Clone()
	for s, b := range e.tab.B {
		for i := 0; i < n; i++ {
			next[i] += dt * b * e.k[s][i]
		}
	}
	return next
}
