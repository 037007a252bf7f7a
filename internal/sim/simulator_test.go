package sim

import (
	"context"
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/slidectl/internal/integrators"
	"github.com/san-kum/slidectl/internal/plant"
	"github.com/san-kum/slidectl/internal/slide"
	"github.com/san-kum/slidectl/internal/telemetry"
)

func newTestSim(t *testing.T, sink slide.Telemetry, opts ...slide.Option) *Simulator {
	t.Helper()
	rig := plant.NewRig(plant.NewSlide(), integrators.NewRK4(), 0)
	s, err := New(rig, sink, opts...)
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	return s
}

func maxAbsError(samples []Sample) float64 {
	m := 0.0
	for _, s := range samples {
		m = math.Max(m, math.Abs(s.Error()))
	}
	return m
}

func minError(samples []Sample) float64 {
	m := math.Inf(1)
	for _, s := range samples {
		m = math.Min(m, s.Error())
	}
	return m
}

func TestDefaultGainsConverge(t *testing.T) {
	g := NewWithT(t)
	s := newTestSim(t, telemetry.Noop{}, slide.WithOutputLimit(1), slide.WithBrakeOnIdle())
	s.Controller().MoveUp(1000)

	res, err := s.Run(context.Background(), Config{Dt: 0.01, Duration: 4})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.StepsTaken).To(Equal(400))

	firstIdle := -1
	for i, smp := range res.Samples {
		if smp.State == slide.StateIdle {
			firstIdle = i
			break
		}
	}
	g.Expect(firstIdle).To(BeNumerically(">", 0))
	g.Expect(res.Samples[firstIdle].T).To(BeNumerically("<", 1.0))

	g.Expect(-minError(res.Samples)).To(BeNumerically("<", 60), "overshoot")
	g.Expect(maxAbsError(res.Samples[300:])).To(BeNumerically("<=", 2*slide.Deadband))
}

func TestHoldingWithoutBrakeStaysBounded(t *testing.T) {
	g := NewWithT(t)
	s := newTestSim(t, telemetry.Noop{}, slide.WithOutputLimit(1))
	s.Controller().MoveUp(1000)

	res, err := s.Run(context.Background(), Config{Dt: 0.01, Duration: 4})
	g.Expect(err).NotTo(HaveOccurred())

	overshoot := -minError(res.Samples[:100])
	g.Expect(overshoot).To(BeNumerically(">", 0))
	g.Expect(maxAbsError(res.Samples[300:])).To(BeNumerically("<", overshoot))
}

func TestTelemetryOnlyOnActiveCycles(t *testing.T) {
	g := NewWithT(t)
	rec := telemetry.NewRecorder(0)
	s := newTestSim(t, rec, slide.WithOutputLimit(1), slide.WithBrakeOnIdle())
	s.Controller().MoveUp(500)

	res, err := s.Run(context.Background(), Config{Dt: 0.01, Duration: 2})
	g.Expect(err).NotTo(HaveOccurred())

	active := 0
	for _, smp := range res.Samples {
		if smp.State == slide.StateActive {
			active++
		}
	}
	g.Expect(active).To(BeNumerically(">", 0))
	g.Expect(rec.Len()).To(Equal(active))

	first := rec.Frames()[0]
	ref, ok := first.Float(slide.KeyReference)
	g.Expect(ok).To(BeTrue())
	g.Expect(ref).To(Equal(500.0))
}

type stepTo struct {
	at     float64
	target float64
	done   bool
}

func (c *stepTo) Advance(t float64, target Target) {
	if !c.done && t >= c.at {
		target.SetTargetPosition(c.target)
		c.done = true
	}
}

func TestCommanderDrivesTarget(t *testing.T) {
	g := NewWithT(t)
	s := newTestSim(t, telemetry.Noop{}, slide.WithOutputLimit(1))
	s.SetCommander(&stepTo{at: 0.5, target: 2000})

	res, err := s.Run(context.Background(), Config{Dt: 0.01, Duration: 3})
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(res.Samples[10].Target).To(Equal(slide.DefaultMinHeight))
	g.Expect(res.Samples[60].Target).To(Equal(2000.0))
	g.Expect(res.Last().Position).To(BeNumerically("~", 2000, 50))
}

type countMetric struct{ n int }

func (c *countMetric) Name() string   { return "count" }
func (c *countMetric) Observe(Sample) { c.n++ }
func (c *countMetric) Value() float64 { return float64(c.n) }
func (c *countMetric) Reset()         { c.n = 0 }

func TestMetricsAndObservers(t *testing.T) {
	g := NewWithT(t)
	s := newTestSim(t, telemetry.Noop{})
	m := &countMetric{}
	obs := &countMetric{}
	s.AddMetric(m)
	s.AddObserver(ObserverFunc(func(Sample) { obs.n++ }))

	res, err := s.Run(context.Background(), Config{Dt: 0.1, Duration: 1})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.Metrics).To(HaveKeyWithValue("count", 10.0))
	g.Expect(obs.n).To(Equal(10))
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative noise", Config{Dt: 0.1, Duration: 1.0, Noise: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSim(t, telemetry.Noop{})
			_, err := s.Run(context.Background(), tt.cfg)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	g := NewWithT(t)
	s := newTestSim(t, telemetry.Noop{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Run(ctx, Config{Dt: 0.01, Duration: 1})
	g.Expect(err).To(MatchError(context.Canceled))
	g.Expect(res.Samples).To(BeEmpty())
}

func TestEnsembleSeedsRuns(t *testing.T) {
	g := NewWithT(t)
	build := func(seed int64) (*Simulator, error) {
		rig := plant.NewRig(plant.NewSlide(), integrators.NewRK4(), 0)
		s, err := New(rig, telemetry.Noop{}, slide.WithOutputLimit(1), slide.WithBrakeOnIdle())
		if err != nil {
			return nil, err
		}
		s.Controller().MoveUp(1000)
		return s, nil
	}

	results, err := NewEnsemble(build, 3, 7).Run(context.Background(), Config{Dt: 0.01, Duration: 4, Noise: 3})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(results).To(HaveLen(3))

	for _, res := range results {
		g.Expect(maxAbsError(res.Samples[300:])).To(BeNumerically("<", 30))
	}
	g.Expect(results[0].Samples).NotTo(Equal(results[1].Samples))
}

func TestClockSet(t *testing.T) {
	g := NewWithT(t)
	c := NewClock()
	start := c.Now()

	c.Set(0.25)
	g.Expect(c.Now().Sub(start).Seconds()).To(Equal(0.25))
}
