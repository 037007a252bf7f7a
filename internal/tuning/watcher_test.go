package tuning

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/san-kum/slidectl/internal/config"
	"github.com/san-kum/slidectl/internal/slide"
)

func writeConfig(t *testing.T, path string, kp, maxHeight float64) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Gains.Kp = kp
	cfg.Bounds.Max = maxHeight
	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
}

func TestReloadApplies(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "slide.yaml")
	writeConfig(t, path, 0.05, 3000)

	var logs bytes.Buffer
	tun := slide.NewTuning()
	w := NewWatcher(path, tun, slog.New(slog.NewTextHandler(&logs, nil)))

	g.Expect(w.Reload()).To(Succeed())
	g.Expect(tun.Kp()).To(Equal(0.05))
	_, hi := tun.Bounds()
	g.Expect(hi).To(Equal(3000.0))
	g.Expect(logs.String()).To(ContainSubstring("tuning applied"))
}

func TestReloadKeepsValuesOnBadFile(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "slide.yaml")
	g.Expect(os.WriteFile(path, []byte("bounds:\n  min: 50\n  max: 10\n"), 0644)).To(Succeed())

	tun := slide.NewTuning()
	w := NewWatcher(path, tun, nil)

	g.Expect(w.Reload()).NotTo(Succeed())
	g.Expect(tun.Kp()).To(Equal(slide.DefaultKp))
	lo, hi := tun.Bounds()
	g.Expect(lo).To(Equal(slide.DefaultMinHeight))
	g.Expect(hi).To(Equal(slide.DefaultMaxHeight))
}

func TestRunPicksUpEdits(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "slide.yaml")
	writeConfig(t, path, 0.03, 4000)

	tun := slide.NewTuning()
	w := NewWatcher(path, tun, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	g.Eventually(w.Ready(), time.Second).Should(BeClosed())
	writeConfig(t, path, 0.07, 3500)

	g.Eventually(tun.Kp, 2*time.Second, 20*time.Millisecond).Should(Equal(0.07))
	g.Eventually(func() float64 { _, hi := tun.Bounds(); return hi }, time.Second).Should(Equal(3500.0))

	cancel()
	g.Eventually(done, time.Second).Should(Receive(BeNil()))
}

func TestRunCanRestart(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "slide.yaml")
	writeConfig(t, path, 0.03, 4000)

	tun := slide.NewTuning()
	w := NewWatcher(path, tun, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	for _, kp := range []float64{0.04, 0.06} {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- w.Run(ctx) }()

		// Ready stays closed from the first run, so keep writing until the
		// new watch sees an edit.
		g.Eventually(func() float64 {
			writeConfig(t, path, kp, 4000)
			return tun.Kp()
		}, 2*time.Second, 50*time.Millisecond).Should(Equal(kp))

		cancel()
		g.Eventually(done, time.Second).Should(Receive(BeNil()))
	}
}
