package sim

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/slidectl/internal/config"
	"github.com/san-kum/slidectl/internal/slide"
	"github.com/san-kum/slidectl/internal/telemetry"
)

func TestFromConfig(t *testing.T) {
	g := NewWithT(t)
	cfg := config.DefaultConfig()
	cfg.Target = 9000
	cfg.Gains.Kp = 0.05

	s, err := FromConfig(cfg, nil, telemetry.Noop{})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(s.Controller().TargetPosition()).To(Equal(cfg.Bounds.Max))
	g.Expect(s.Controller().Tuning().Kp()).To(Equal(0.05))

	shared := slide.NewTuning()
	s, err = FromConfig(cfg, shared, telemetry.Noop{})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(s.Controller().Tuning()).To(BeIdenticalTo(shared))

	g.Expect(RunConfig(cfg)).To(Equal(Config{Dt: cfg.Dt, Duration: cfg.Duration}))

	cfg.Integrator = "leapfrog"
	_, err = FromConfig(cfg, nil, telemetry.Noop{})
	g.Expect(err).To(HaveOccurred())
}
