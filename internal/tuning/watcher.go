// Package tuning hot-reloads controller gains and bounds from the config
// file while the control loop is running.
package tuning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/san-kum/slidectl/internal/config"
	"github.com/san-kum/slidectl/internal/slide"
)

// Watcher rewrites a tuning cell whenever its config file changes. It is the
// only writer of the cell while it runs; the control loop only reads.
type Watcher struct {
	path   string
	tuning *slide.Tuning
	logger *slog.Logger
	ready  chan struct{}
	once   sync.Once
}

func NewWatcher(path string, t *slide.Tuning, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:   filepath.Clean(path),
		tuning: t,
		logger: logger.With(slog.String("component", "tuning"), slog.String("file", path)),
		ready:  make(chan struct{}),
	}
}

// Ready is closed once the file is being watched.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Reload reads the file and applies its gains and bounds. On error the cell
// keeps its previous values.
func (w *Watcher) Reload() error {
	cfg, err := config.Load(w.path)
	if err != nil {
		return fmt.Errorf("reload %s: %w", w.path, err)
	}
	if err := cfg.ApplyTuning(w.tuning); err != nil {
		return fmt.Errorf("reload %s: %w", w.path, err)
	}

	w.logger.Info("tuning applied",
		slog.Float64("kp", cfg.Gains.Kp),
		slog.Float64("ki", cfg.Gains.Ki),
		slog.Float64("kd", cfg.Gains.Kd),
		slog.Float64("min_height", cfg.Bounds.Min),
		slog.Float64("max_height", cfg.Bounds.Max),
	)
	return nil
}

// Run watches the file until ctx is done. It may be called again after it
// returns. The parent directory is watched so
// that editors which replace the file by rename are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.once.Do(func() { close(w.ready) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return errors.New("tuning: watcher closed")
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := w.Reload(); err != nil {
				w.logger.Warn("tuning reload failed", slog.Any("error", err))
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("tuning: watcher closed")
			}
			w.logger.Error("watch error", slog.Any("error", err))
		}
	}
}
