package optim

import (
	"context"
	"fmt"

	"github.com/san-kum/slidectl/internal/config"
	"github.com/san-kum/slidectl/internal/metrics"
	"github.com/san-kum/slidectl/internal/routine"
	"github.com/san-kum/slidectl/internal/sim"
	"github.com/san-kum/slidectl/internal/slide"
	"github.com/san-kum/slidectl/internal/telemetry"
)

// SlideObjective evaluates gain candidates by simulating cfg with the
// candidate's Kp, Ki and Kd written over the configured gains. Parameter
// names follow the tuning cell. When r is non-nil it drives the target;
// otherwise the run steps from cfg.Start to cfg.Target.
func SlideObjective(cfg *config.Config, r *routine.Routine) Evaluate {
	return func(ctx context.Context, params map[string]float64) (map[string]float64, error) {
		tuning, err := cfg.NewTuning()
		if err != nil {
			return nil, err
		}
		for name, v := range params {
			if err := tuning.SetParam(name, v); err != nil {
				return nil, err
			}
		}

		s, err := sim.FromConfig(cfg, tuning, telemetry.Noop{})
		if err != nil {
			return nil, err
		}
		for _, m := range metrics.Standard(slide.Deadband) {
			s.AddMetric(m)
		}
		if r != nil {
			s.SetCommander(routine.NewPlayer(r))
		}

		res, err := s.Run(ctx, sim.RunConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("simulate %v: %w", params, err)
		}
		return res.Metrics, nil
	}
}
