package slide

import (
	"fmt"
	"math"
	"sync/atomic"
)

const (
	DefaultKp        = 0.03
	DefaultKi        = 0.0
	DefaultKd        = 0.0001
	DefaultMinHeight = 5.0
	DefaultMaxHeight = 4000.0
)

// Tunable parameter names accepted by SetParam.
const (
	ParamKp        = "Kp"
	ParamKi        = "Ki"
	ParamKd        = "Kd"
	ParamMinHeight = "MinHeight"
	ParamMaxHeight = "MaxHeight"
)

type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Load() float64   { return math.Float64frombits(f.bits.Load()) }
func (f *atomicFloat) Store(v float64) { f.bits.Store(math.Float64bits(v)) }

// Tuning holds the live-editable gains and position bounds.
//
// Every value is read and written atomically on its own; nothing groups them
// into a consistent generation. A reader may see a new Kp next to an old Kd,
// which the loop corrects on the following cycle.
type Tuning struct {
	kp, ki, kd           atomicFloat
	minHeight, maxHeight atomicFloat
}

// NewTuning returns a cell holding the default gains and bounds.
func NewTuning() *Tuning {
	t := &Tuning{}
	t.SetGains(DefaultKp, DefaultKi, DefaultKd)
	t.minHeight.Store(DefaultMinHeight)
	t.maxHeight.Store(DefaultMaxHeight)
	return t
}

func (t *Tuning) Kp() float64 { return t.kp.Load() }
func (t *Tuning) Ki() float64 { return t.ki.Load() }
func (t *Tuning) Kd() float64 { return t.kd.Load() }

func (t *Tuning) SetKp(v float64) { t.kp.Store(v) }
func (t *Tuning) SetKi(v float64) { t.ki.Store(v) }
func (t *Tuning) SetKd(v float64) { t.kd.Store(v) }

// SetGains stores all three gains. Readers may observe them one at a time.
func (t *Tuning) SetGains(kp, ki, kd float64) {
	t.kp.Store(kp)
	t.ki.Store(ki)
	t.kd.Store(kd)
}

// Bounds returns the legal target range.
func (t *Tuning) Bounds() (lo, hi float64) {
	return t.minHeight.Load(), t.maxHeight.Load()
}

// SetBounds replaces the legal target range.
func (t *Tuning) SetBounds(lo, hi float64) error {
	if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidBounds, lo, hi)
	}
	t.minHeight.Store(lo)
	t.maxHeight.Store(hi)
	return nil
}

// Clamp limits pos to the current bounds.
func (t *Tuning) Clamp(pos float64) float64 {
	lo, hi := t.Bounds()
	return clamp(pos, lo, hi)
}

// GetParams returns tunable parameters for live adjustment.
func (t *Tuning) GetParams() map[string]float64 {
	lo, hi := t.Bounds()
	return map[string]float64{
		ParamKp:        t.Kp(),
		ParamKi:        t.Ki(),
		ParamKd:        t.Kd(),
		ParamMinHeight: lo,
		ParamMaxHeight: hi,
	}
}

// ParamNames lists the tunable parameters in display order.
func ParamNames() []string {
	return []string{ParamKp, ParamKi, ParamKd, ParamMinHeight, ParamMaxHeight}
}

// SetParam adjusts a single parameter by name.
func (t *Tuning) SetParam(name string, value float64) error {
	if !finite(value) {
		return fmt.Errorf("%w: %s = %g", ErrNonFinite, name, value)
	}
	switch name {
	case ParamKp:
		t.SetKp(value)
	case ParamKi:
		t.SetKi(value)
	case ParamKd:
		t.SetKd(value)
	case ParamMinHeight:
		_, hi := t.Bounds()
		return t.SetBounds(value, hi)
	case ParamMaxHeight:
		lo, _ := t.Bounds()
		return t.SetBounds(lo, value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return nil
}
