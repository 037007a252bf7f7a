package slide

import (
	"errors"
	"math"
	"sync"
	"testing"

	. "github.com/onsi/gomega"
)

func TestTuningDefaults(t *testing.T) {
	g := NewWithT(t)
	tun := NewTuning()

	g.Expect(tun.Kp()).To(Equal(DefaultKp))
	g.Expect(tun.Ki()).To(Equal(DefaultKi))
	g.Expect(tun.Kd()).To(Equal(DefaultKd))

	lo, hi := tun.Bounds()
	g.Expect(lo).To(Equal(DefaultMinHeight))
	g.Expect(hi).To(Equal(DefaultMaxHeight))
}

func TestTuningSetParam(t *testing.T) {
	g := NewWithT(t)
	tun := NewTuning()

	g.Expect(tun.SetParam(ParamKp, 0.5)).To(Succeed())
	g.Expect(tun.SetParam(ParamKi, 0.1)).To(Succeed())
	g.Expect(tun.SetParam(ParamKd, 0.2)).To(Succeed())
	g.Expect(tun.SetParam(ParamMaxHeight, 3000)).To(Succeed())
	g.Expect(tun.SetParam(ParamMinHeight, 10)).To(Succeed())

	g.Expect(tun.GetParams()).To(Equal(map[string]float64{
		ParamKp:        0.5,
		ParamKi:        0.1,
		ParamKd:        0.2,
		ParamMinHeight: 10,
		ParamMaxHeight: 3000,
	}))

	err := tun.SetParam("Kf", 1)
	g.Expect(errors.Is(err, ErrUnknownParam)).To(BeTrue())

	err = tun.SetParam(ParamMinHeight, 5000)
	g.Expect(errors.Is(err, ErrInvalidBounds)).To(BeTrue())
	lo, _ := tun.Bounds()
	g.Expect(lo).To(Equal(10.0))
}

func TestTuningRejectsNaNBounds(t *testing.T) {
	g := NewWithT(t)
	tun := NewTuning()

	g.Expect(tun.SetBounds(math.NaN(), 10)).To(MatchError(ErrInvalidBounds))
}

func TestParamNamesCoverGetParams(t *testing.T) {
	g := NewWithT(t)
	params := NewTuning().GetParams()

	names := ParamNames()
	g.Expect(names).To(HaveLen(len(params)))
	for _, n := range names {
		g.Expect(params).To(HaveKey(n))
	}
}

// Writers on other goroutines must never produce a value that was not written.
func TestTuningConcurrentWrites(t *testing.T) {
	g := NewWithT(t)
	tun := NewTuning()
	valid := map[float64]bool{0.1: true, 0.2: true, DefaultKp: true}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for _, v := range []float64{0.1, 0.2} {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					tun.SetKp(v)
				}
			}
		}(v)
	}

	for i := 0; i < 10000; i++ {
		g.Expect(valid[tun.Kp()]).To(BeTrue())
	}
	close(stop)
	wg.Wait()
}

func TestMirroredMapping(t *testing.T) {
	g := NewWithT(t)

	l, r := Mirrored{}.Map(3.5)
	g.Expect(l).To(Equal(-3.5))
	g.Expect(r).To(Equal(3.5))

	l, r = Mirrored{Limit: 1}.Map(-7)
	g.Expect(l).To(Equal(1.0))
	g.Expect(r).To(Equal(-1.0))

	l, r = Mirrored{Limit: 1}.Map(0.25)
	g.Expect(l).To(Equal(-0.25))
	g.Expect(r).To(Equal(0.25))
}

func TestCustomOutputMapping(t *testing.T) {
	g := NewWithT(t)
	same := OutputFunc(func(out float64) (float64, float64) { return out, out })
	r := newRig(WithOutputMapping(same))
	r.tun.SetGains(0.01, 0, 0)

	r.ctrl.MoveUp(500)
	r.clock.Advance(lastStepGap)
	r.ctrl.Update()

	g.Expect(r.left.power).To(Equal(r.right.power))
	g.Expect(r.right.power).To(BeNumerically("~", 5.0, 1e-9))
}

func TestStateString(t *testing.T) {
	g := NewWithT(t)
	g.Expect(StateIdle.String()).To(Equal("IDLE"))
	g.Expect(StateActive.String()).To(Equal("ACTIVE"))
	g.Expect(State(9).String()).To(Equal("UNKNOWN"))
	g.Expect(Reverse.String()).To(Equal("reverse"))
}

func TestStateText(t *testing.T) {
	g := NewWithT(t)

	text, err := StateActive.MarshalText()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(text)).To(Equal("ACTIVE"))

	var s State
	g.Expect(s.UnmarshalText([]byte("ACTIVE"))).To(Succeed())
	g.Expect(s).To(Equal(StateActive))
	g.Expect(s.UnmarshalText([]byte("asleep"))).NotTo(Succeed())
}

func TestTuningRejectsNonFiniteParams(t *testing.T) {
	g := NewWithT(t)
	tun := NewTuning()

	for _, name := range ParamNames() {
		for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			g.Expect(tun.SetParam(name, v)).To(MatchError(ErrNonFinite), "%s=%v", name, v)
		}
	}
	g.Expect(tun.Kp()).To(Equal(DefaultKp))
	lo, hi := tun.Bounds()
	g.Expect(lo).To(Equal(DefaultMinHeight))
	g.Expect(hi).To(Equal(DefaultMaxHeight))
}
