package sim

import (
	"github.com/san-kum/slidectl/internal/config"
	"github.com/san-kum/slidectl/internal/integrators"
	"github.com/san-kum/slidectl/internal/plant"
	"github.com/san-kum/slidectl/internal/slide"
)

// FromConfig assembles a rig and controller from cfg. A nil tuning gets a
// fresh cell holding the configured gains and bounds. The target starts at
// cfg.Target.
func FromConfig(cfg *config.Config, tuning *slide.Tuning, sink slide.Telemetry) (*Simulator, error) {
	if tuning == nil {
		t, err := cfg.NewTuning()
		if err != nil {
			return nil, err
		}
		tuning = t
	}

	integ, err := integrators.ByName(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	rig := plant.NewRig(cfg.PlantModel(), integ, cfg.Start)

	opts := append(cfg.ControllerOptions(), slide.WithTuning(tuning))
	s, err := New(rig, sink, opts...)
	if err != nil {
		return nil, err
	}
	s.Controller().SetTargetPosition(cfg.Target)
	return s, nil
}

// RunConfig extracts the run parameters from cfg.
func RunConfig(cfg *config.Config) Config {
	return Config{Dt: cfg.Dt, Duration: cfg.Duration, Seed: cfg.Seed, Noise: cfg.Noise}
}
