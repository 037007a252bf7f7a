package slide

import (
	"math"
	"time"
)

const (
	// Deadband is the error, in counts, below which the slide counts as at target.
	Deadband = 10.0

	// MinInterval is the shortest step interval the derivative term trusts.
	// Shorter intervals skip the derivative for that step.
	MinInterval = time.Millisecond

	// errorSentinel is larger than Deadband so a fresh or freshly idled
	// controller never carries a stale small error into its next step.
	errorSentinel = 100.0
)

// Telemetry keys written on every active step.
const (
	KeyReference = "reference"
	KeyActualPos = "actual pos"
)

// Controller runs the slide PID loop.
type Controller struct {
	sensor    Sensor
	left      Actuator
	right     Actuator
	telemetry Telemetry
	tuning    *Tuning
	mapping   OutputMapping
	limit     float64
	now       func() time.Time
	brake     bool

	state    State
	target   float64
	err      float64
	lastErr  float64
	integral float64
	output   float64
	lastStep time.Time
}

// Option configures a Controller at construction.
type Option func(*Controller)

// WithTuning shares a tuning cell with the controller. Without it the
// controller gets a private cell holding the defaults.
func WithTuning(t *Tuning) Option {
	return func(c *Controller) {
		if t != nil {
			c.tuning = t
		}
	}
}

// WithOutputMapping replaces the mirrored motor mapping.
func WithOutputMapping(m OutputMapping) Option {
	return func(c *Controller) {
		if m != nil {
			c.mapping = m
		}
	}
}

// WithOutputLimit saturates the PID output to [-limit, limit] before it is
// handed to the output mapping. A non-positive limit leaves the output raw.
func WithOutputLimit(limit float64) Option {
	return func(c *Controller) {
		c.limit = limit
	}
}

// WithBrakeOnIdle makes the controller command zero power once when it
// drops from active to idle. Further idle cycles still leave the motors alone.
func WithBrakeOnIdle() Option {
	return func(c *Controller) {
		c.brake = true
	}
}

// WithClock sets the monotonic time source used for step intervals.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// New binds a controller to its encoder and motor pair. The encoder is
// switched to reverse polarity so counts grow in the same direction as the
// target.
func New(sensor Sensor, left, right Actuator, telemetry Telemetry, opts ...Option) (*Controller, error) {
	if sensor == nil {
		return nil, ErrNilSensor
	}
	if left == nil || right == nil {
		return nil, ErrNilActuator
	}
	if telemetry == nil {
		return nil, ErrNilSink
	}

	c := &Controller{
		sensor:    sensor,
		left:      left,
		right:     right,
		telemetry: telemetry,
		mapping:   Mirrored{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tuning == nil {
		c.tuning = NewTuning()
	}

	c.sensor.SetDirection(Reverse)
	c.enterIdle()
	c.lastStep = c.now()
	return c, nil
}

// Update runs one control cycle. It must be called once per loop iteration.
// The target is re-clamped first so bounds edited since the last cycle apply.
func (c *Controller) Update() {
	c.target = c.tuning.Clamp(c.target)
	measured := float64(c.sensor.CurrentPosition())
	e := c.target - measured

	if math.Abs(e) < Deadband {
		if c.brake && c.state == StateActive {
			c.left.SetPower(0)
			c.right.SetPower(0)
		}
		c.enterIdle()
		return
	}
	c.state = StateActive

	c.telemetry.AddData(KeyReference, c.target)
	c.telemetry.AddData(KeyActualPos, measured)
	c.telemetry.Update()

	now := c.now()
	elapsed := now.Sub(c.lastStep)
	dt := elapsed.Seconds()

	derivative := 0.0
	if elapsed >= MinInterval {
		derivative = (e - c.lastErr) / dt
	}
	c.integral += e * dt

	c.output = c.tuning.Kp()*e + c.tuning.Ki()*c.integral + c.tuning.Kd()*derivative
	command := c.output
	if c.limit > 0 {
		command = clamp(command, -c.limit, c.limit)
	}
	l, r := c.mapping.Map(command)
	c.left.SetPower(l)
	c.right.SetPower(r)

	c.err = e
	c.lastErr = e
	c.lastStep = now
}

// enterIdle is the single place idle-entry resets happen.
func (c *Controller) enterIdle() {
	c.state = StateIdle
	c.integral = 0
	c.lastErr = 0
	c.output = 0
	c.err = errorSentinel
}

// Move shifts the target by delta, clamped to the current bounds. A
// non-finite delta is ignored.
func (c *Controller) Move(delta float64) {
	if !finite(delta) {
		return
	}
	c.target = c.tuning.Clamp(c.target + delta)
}

func (c *Controller) MoveUp(amount float64)   { c.Move(amount) }
func (c *Controller) MoveDown(amount float64) { c.Move(-amount) }

// SetTargetPosition sets an absolute target, clamped like Move.
func (c *Controller) SetTargetPosition(pos float64) {
	if !finite(pos) {
		return
	}
	c.target = c.tuning.Clamp(pos)
}

func (c *Controller) TargetPosition() float64 { return c.target }

// Tuning returns the cell the controller reads its gains and bounds from.
func (c *Controller) Tuning() *Tuning { return c.tuning }

// Diagnostics is a read-only view of the controller internals.
type Diagnostics struct {
	State     State
	Target    float64
	Error     float64
	LastError float64
	Integral  float64
	Output    float64
}

// Diagnostics returns the controller state after the most recent update.
func (c *Controller) Diagnostics() Diagnostics {
	return Diagnostics{
		State:     c.state,
		Target:    c.target,
		Error:     c.err,
		LastError: c.lastErr,
		Integral:  c.integral,
		Output:    c.output,
	}
}
