package canbus

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Motor sends power commands for one motor controller. SetPower has no
// error return, so send failures are logged and counted.
type Motor struct {
	ctx     context.Context
	tx      Transmitter
	id      uint32
	timeout time.Duration
	logger  *slog.Logger
	failed  atomic.Uint64
	sent    atomic.Uint64
}

// NewMotor binds a motor to a CAN id. Sends are cancelled with ctx and each
// one is bounded by timeout.
func NewMotor(ctx context.Context, tx Transmitter, id uint32, timeout time.Duration, logger *slog.Logger) *Motor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Motor{
		ctx:     ctx,
		tx:      tx,
		id:      id,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "motor"), slog.Uint64("can_id", uint64(id))),
	}
}

func (m *Motor) SetPower(p float64) {
	f, err := EncodePower(m.id, p)
	if err != nil {
		m.failed.Add(1)
		m.logger.Warn("encode power", slog.Float64("power", p), slog.Any("error", err))
		return
	}

	ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
	defer cancel()
	if err := m.tx.TransmitFrame(ctx, f); err != nil {
		m.failed.Add(1)
		m.logger.Warn("transmit power", slog.Float64("power", p), slog.Any("error", err))
		return
	}
	m.sent.Add(1)
}

// Stats reports sent and failed commands.
func (m *Motor) Stats() (sent, failed uint64) {
	return m.sent.Load(), m.failed.Load()
}
