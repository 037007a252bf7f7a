package plant

import (
	"errors"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/slidectl/internal/dynamo"
	"github.com/san-kum/slidectl/internal/integrators"
	"github.com/san-kum/slidectl/internal/slide"
)

func newTestRig(start float64) *Rig {
	return NewRig(NewSlide(), integrators.NewRK4(), start)
}

func TestSlideDeriveAtRest(t *testing.T) {
	g := NewWithT(t)
	s := NewSlide()

	dx := s.Derive(dynamo.State{100, 0}, dynamo.Control{0}, 0)
	g.Expect(dx[0]).To(Equal(0.0))
	g.Expect(dx[1]).To(BeNumerically("~", -s.GravitySag/s.TimeConstant, 1e-9))
}

func TestSlideReachesTerminalVelocity(t *testing.T) {
	g := NewWithT(t)
	r := newTestRig(0)
	r.Left().SetPower(-1)
	r.Right().SetPower(1)

	for i := 0; i < 100; i++ {
		g.Expect(r.Step(0.01)).To(Succeed())
	}

	s := r.Model()
	g.Expect(r.Velocity()).To(BeNumerically("~", s.FreeSpeed-s.GravitySag, 1))
	g.Expect(r.Time()).To(BeNumerically("~", 1.0, 1e-9))
}

func TestHardStops(t *testing.T) {
	g := NewWithT(t)

	r := newTestRig(0)
	for i := 0; i < 50; i++ {
		g.Expect(r.Step(0.01)).To(Succeed())
	}
	g.Expect(r.Position()).To(Equal(0.0))
	g.Expect(r.Velocity()).To(Equal(0.0))

	top := newTestRig(r.Model().Travel - 10)
	top.Left().SetPower(-1)
	top.Right().SetPower(1)
	for i := 0; i < 50; i++ {
		g.Expect(top.Step(0.01)).To(Succeed())
	}
	g.Expect(top.Position()).To(Equal(top.Model().Travel))
}

func TestMirroredCommandDrivesUp(t *testing.T) {
	g := NewWithT(t)
	r := newTestRig(1000)

	r.Left().SetPower(-0.5)
	r.Right().SetPower(0.5)
	g.Expect(r.Drive()).To(Equal(0.5))

	r.Left().SetPower(0.5)
	g.Expect(r.Drive()).To(Equal(0.0))
}

func TestMotorSaturates(t *testing.T) {
	g := NewWithT(t)
	m := NewMotor(slide.Forward)

	m.SetPower(3)
	g.Expect(m.Power()).To(Equal(1.0))
	m.SetPower(-7)
	g.Expect(m.Power()).To(Equal(-1.0))
	g.Expect(m.Commands()).To(Equal(2))
}

func TestEncoderPolarity(t *testing.T) {
	g := NewWithT(t)
	r := newTestRig(1234.4)
	enc := r.Encoder()

	g.Expect(enc.CurrentPosition()).To(Equal(-1234))
	enc.SetDirection(slide.Reverse)
	g.Expect(enc.CurrentPosition()).To(Equal(1234))
}

func TestEncoderNoiseIsBoundedAndSeeded(t *testing.T) {
	g := NewWithT(t)

	read := func() []int {
		model := NewSlide()
		model.GravitySag = 0
		r := NewRig(model, integrators.NewRK4(), 2000)
		r.Encoder().SetDirection(slide.Reverse)
		r.Encoder().SetNoise(3, 42)

		out := make([]int, 20)
		for i := range out {
			out[i] = r.Encoder().CurrentPosition()
			g.Expect(r.Encoder().CurrentPosition()).To(Equal(out[i]), "reads within one step agree")
			g.Expect(r.Step(0.01)).To(Succeed())
		}
		return out
	}

	first := read()
	g.Expect(read()).To(Equal(first))
	for _, v := range first {
		g.Expect(v).To(BeNumerically(">=", 1997))
		g.Expect(v).To(BeNumerically("<=", 2003))
	}
}

func TestCheck(t *testing.T) {
	g := NewWithT(t)

	g.Expect(NewSlide().Check()).To(Succeed())

	bad := NewSlide()
	bad.TimeConstant = 0
	g.Expect(errors.Is(bad.Check(), dynamo.ErrParameterBounds)).To(BeTrue())
}

func TestStepReportsInvalidState(t *testing.T) {
	g := NewWithT(t)
	model := NewSlide()
	model.TimeConstant = 0
	r := NewRig(model, integrators.NewEuler(), 100)

	err := r.Step(0.01)
	g.Expect(err).To(HaveOccurred())
	g.Expect(errors.Is(err, dynamo.ErrInvalidState)).To(BeTrue())

	var stepErr *dynamo.StepError
	g.Expect(errors.As(err, &stepErr)).To(BeTrue())
	g.Expect(r.Position()).To(Equal(100.0))
}
