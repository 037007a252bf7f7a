package slide

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Controller state machine", func() {
	var r *rig

	BeforeEach(func() {
		r = newRig()
		r.ctrl.SetTargetPosition(2000)
	})

	step := func(pos int) {
		r.sensor.pos = pos
		r.clock.Advance(20 * time.Millisecond)
		r.ctrl.Update()
	}

	Context("when the error is outside the deadband", func() {
		It("becomes active and drives the motors", func() {
			step(0)
			Expect(r.ctrl.Diagnostics().State).To(Equal(StateActive))
			Expect(r.right.calls).To(Equal(1))
			Expect(r.left.calls).To(Equal(1))
		})

		It("stays active at exactly the deadband", func() {
			step(2000 - int(Deadband))
			Expect(r.ctrl.Diagnostics().State).To(Equal(StateActive))
		})

		It("accumulates the integral across active steps", func() {
			step(0)
			first := r.ctrl.Diagnostics().Integral
			step(100)
			Expect(r.ctrl.Diagnostics().Integral).To(BeNumerically(">", first))
		})
	})

	Context("when the error falls inside the deadband", func() {
		BeforeEach(func() {
			step(0)
			step(500)
		})

		It("resets the accumulators on entry", func() {
			step(1995)
			d := r.ctrl.Diagnostics()
			Expect(d.State).To(Equal(StateIdle))
			Expect(d.Integral).To(BeZero())
			Expect(d.LastError).To(BeZero())
			Expect(d.Error).To(Equal(errorSentinel))
		})

		It("does not touch the motors or telemetry", func() {
			calls, flushes := r.right.calls, r.tel.flushes
			step(2003)
			step(1991)
			Expect(r.right.calls).To(Equal(calls))
			Expect(r.left.calls).To(Equal(calls))
			Expect(r.tel.flushes).To(Equal(flushes))
		})

		It("resumes with a fresh derivative when the target moves away", func() {
			step(1995)
			r.ctrl.MoveUp(500)
			step(1995)

			d := r.ctrl.Diagnostics()
			Expect(d.State).To(Equal(StateActive))
			Expect(d.LastError).To(Equal(505.0))
			// the idle cycle left the step timer running
			Expect(d.Integral).To(BeNumerically("~", 505*0.04, 1e-9))
		})
	})

	Context("with brake on idle", func() {
		BeforeEach(func() {
			r = newRig(WithBrakeOnIdle())
			r.ctrl.SetTargetPosition(2000)
		})

		It("zeroes the motors once on the active to idle edge", func() {
			step(0)
			calls := r.right.calls
			step(1999)
			Expect(r.right.power).To(BeZero())
			Expect(r.left.power).To(BeZero())
			Expect(r.right.calls).To(Equal(calls + 1))

			step(2001)
			Expect(r.right.calls).To(Equal(calls + 1))
		})
	})
})
