package telemetry

import (
	"context"
	"log/slog"
	"sync"
)

// SlogSink writes each flushed batch as one slog record.
type SlogSink struct {
	mu      sync.Mutex
	logger  *slog.Logger
	level   slog.Level
	message string
	attrs   []slog.Attr
}

// NewSlogSink logs batches at the given level under message msg.
func NewSlogSink(logger *slog.Logger, level slog.Level, msg string) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger, level: level, message: msg}
}

func (s *SlogSink) AddData(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, slog.Any(key, value))
	s.mu.Unlock()
}

func (s *SlogSink) Update() {
	s.mu.Lock()
	attrs := s.attrs
	s.attrs = nil
	s.mu.Unlock()

	if len(attrs) == 0 {
		return
	}
	s.logger.LogAttrs(context.Background(), s.level, s.message, attrs...)
}
