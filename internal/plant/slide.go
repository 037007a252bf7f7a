package plant

import (
	"fmt"

	"github.com/san-kum/slidectl/internal/dynamo"
)

// Slide is the carriage model. State is [position, velocity] in counts and
// counts per second. Control is the single drive command.
type Slide struct {
	FreeSpeed    float64
	TimeConstant float64
	GravitySag   float64
	Travel       float64
}

func NewSlide() *Slide {
	return &Slide{
		FreeSpeed:    2500,
		TimeConstant: 0.05,
		GravitySag:   150,
		Travel:       4200,
	}
}

func (s *Slide) StateDim() int {
	return 2
}

func (s *Slide) ControlDim() int {
	return 1
}

func (s *Slide) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	vel := x[1]

	drive := 0.0
	if len(u) > 0 {
		drive = u[0]
	}

	acc := (drive*s.FreeSpeed - s.GravitySag - vel) / s.TimeConstant
	return dynamo.State{vel, acc}
}

// Check rejects parameter sets the model cannot integrate.
func (s *Slide) Check() error {
	if s.TimeConstant <= 0 {
		return fmt.Errorf("%w: time constant %g", dynamo.ErrParameterBounds, s.TimeConstant)
	}
	if s.FreeSpeed <= 0 {
		return fmt.Errorf("%w: free speed %g", dynamo.ErrParameterBounds, s.FreeSpeed)
	}
	if s.Travel <= 0 {
		return fmt.Errorf("%w: travel %g", dynamo.ErrParameterBounds, s.Travel)
	}
	return nil
}

// Stop applies the hard stops at 0 and Travel. Velocity into a stop is
// zeroed.
func (s *Slide) Stop(x dynamo.State) {
	switch {
	case x[0] < 0:
		x[0] = 0
		if x[1] < 0 {
			x[1] = 0
		}
	case x[0] > s.Travel:
		x[0] = s.Travel
		if x[1] > 0 {
			x[1] = 0
		}
	}
}
