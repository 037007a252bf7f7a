package canbus

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/san-kum/slidectl/internal/slide"
)

// Encoder tracks the latest count broadcast by the encoder node. Run feeds
// it from the bus; CurrentPosition can be called from the control loop at
// any time.
type Encoder struct {
	rx        Receiver
	id        uint32
	logger    *slog.Logger
	raw       atomic.Int32
	direction atomic.Int32
	frames    atomic.Uint64
}

func NewEncoder(rx Receiver, id uint32, logger *slog.Logger) *Encoder {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Encoder{
		rx:     rx,
		id:     id,
		logger: logger.With(slog.String("component", "encoder"), slog.Uint64("can_id", uint64(id))),
	}
	e.direction.Store(int32(slide.Forward))
	return e
}

func (e *Encoder) SetDirection(d slide.Direction) {
	e.direction.Store(int32(d))
}

func (e *Encoder) CurrentPosition() int {
	return int(e.direction.Load()) * int(e.raw.Load())
}

// Frames is the number of encoder frames consumed.
func (e *Encoder) Frames() uint64 { return e.frames.Load() }

// Run consumes frames until the receiver ends or ctx is cancelled. Receive
// blocks, so cancelling ctx only takes effect once the bus is closed or the
// next frame arrives.
func (e *Encoder) Run(ctx context.Context) error {
	for e.rx.Receive() {
		if ctx.Err() != nil {
			return nil
		}

		f := e.rx.Frame()
		if f.ID != e.id {
			continue
		}
		count, err := DecodeCount(f)
		if err != nil {
			e.logger.Warn("drop encoder frame", slog.Any("error", err))
			continue
		}
		e.raw.Store(count)
		e.frames.Add(1)
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := e.rx.Err(); err != nil {
		return err
	}
	return errors.New("canbus: receiver closed")
}
