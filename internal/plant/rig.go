package plant

import (
	"github.com/san-kum/slidectl/internal/dynamo"
	"github.com/san-kum/slidectl/internal/slide"
)

// Rig is the simulated slide assembly. The left motor is mounted reversed,
// so a mirrored command pair drives both motors the same way.
type Rig struct {
	model   *Slide
	integ   dynamo.Integrator
	x       dynamo.State
	t       float64
	left    *Motor
	right   *Motor
	encoder *Encoder
}

// NewRig places the carriage at start counts, at rest.
func NewRig(model *Slide, integ dynamo.Integrator, start float64) *Rig {
	r := &Rig{
		model: model,
		integ: integ,
		x:     dynamo.State{start, 0},
		left:  NewMotor(slide.Reverse),
		right: NewMotor(slide.Forward),
	}
	r.encoder = &Encoder{rig: r, direction: slide.Forward}
	model.Stop(r.x)
	return r
}

func (r *Rig) Left() *Motor        { return r.left }
func (r *Rig) Right() *Motor       { return r.right }
func (r *Rig) Encoder() *Encoder   { return r.encoder }
func (r *Rig) Model() *Slide       { return r.model }
func (r *Rig) State() dynamo.State { return r.x.Clone() }

func (r *Rig) Position() float64 { return r.x[0] }
func (r *Rig) Velocity() float64 { return r.x[1] }
func (r *Rig) Time() float64     { return r.t }

// Drive is the net command seen by the carriage: the mean of both motors
// after accounting for how each is mounted.
func (r *Rig) Drive() float64 {
	return (r.left.drive() + r.right.drive()) / 2
}

// Step advances the carriage by dt with the current motor commands held.
func (r *Rig) Step(dt float64) error {
	next := r.integ.Step(r.model, r.x, dynamo.Control{r.Drive()}, r.t, dt)
	if err := dynamo.Validate(r.model, next); err != nil {
		return &dynamo.StepError{Time: r.t, Wrapped: err}
	}
	r.model.Stop(next)
	r.x = next
	r.t += dt
	return nil
}
