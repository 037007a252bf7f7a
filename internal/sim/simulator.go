package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/slidectl/internal/dynamo"
	"github.com/san-kum/slidectl/internal/plant"
	"github.com/san-kum/slidectl/internal/slide"
)

// Simulator closes the loop between a slide controller and a simulated rig.
type Simulator struct {
	rig       *plant.Rig
	ctrl      *slide.Controller
	clock     *Clock
	commander Commander
	metrics   []Metric
	observers []Observer
	steps     int
}

// New builds a controller on top of rig. The controller runs on simulated
// time, so any clock passed in opts is overridden.
func New(rig *plant.Rig, sink slide.Telemetry, opts ...slide.Option) (*Simulator, error) {
	clock := NewClock()
	opts = append(opts, slide.WithClock(clock.Now))

	ctrl, err := slide.New(rig.Encoder(), rig.Left(), rig.Right(), sink, opts...)
	if err != nil {
		return nil, fmt.Errorf("build controller: %w", err)
	}

	return &Simulator{
		rig:       rig,
		ctrl:      ctrl,
		clock:     clock,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}, nil
}

func (s *Simulator) AddMetric(m Metric)       { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)   { s.observers = append(s.observers, o) }
func (s *Simulator) SetCommander(c Commander) { s.commander = c }

func (s *Simulator) Controller() *slide.Controller { return s.ctrl }
func (s *Simulator) Rig() *plant.Rig               { return s.rig }

// Step runs one control cycle at the rig's current time and then advances
// the plant by dt.
func (s *Simulator) Step(dt float64) (Sample, error) {
	t := s.rig.Time()
	if s.commander != nil {
		s.commander.Advance(t, s.ctrl)
	}

	s.clock.Set(t)
	measured := s.rig.Encoder().CurrentPosition()
	s.ctrl.Update()

	d := s.ctrl.Diagnostics()
	sample := Sample{
		T:        t,
		Target:   d.Target,
		Measured: float64(measured),
		Position: s.rig.Position(),
		Velocity: s.rig.Velocity(),
		Output:   d.Output,
		Left:     s.rig.Left().Power(),
		Right:    s.rig.Right().Power(),
		State:    d.State,
	}

	for _, m := range s.metrics {
		m.Observe(sample)
	}
	for _, obs := range s.observers {
		obs.OnStep(sample)
	}

	if err := s.rig.Step(dt); err != nil {
		var stepErr *dynamo.StepError
		if errors.As(err, &stepErr) {
			stepErr.Step = s.steps
		}
		return sample, err
	}
	s.steps++
	return sample, nil
}

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.Noise > 0 {
		s.rig.Encoder().SetNoise(cfg.Noise, cfg.Seed)
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		Samples: make([]Sample, 0, steps),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		sample, err := s.Step(cfg.Dt)
		result.Samples = append(result.Samples, sample)
		if err != nil {
			return result, err
		}
		result.StepsTaken++
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Noise < 0 {
		return fmt.Errorf("noise must not be negative, got %f", cfg.Noise)
	}
	return nil
}
