package slide

import "time"

type fakeSensor struct {
	pos int
	dir Direction
}

func (s *fakeSensor) CurrentPosition() int   { return s.pos }
func (s *fakeSensor) SetDirection(d Direction) { s.dir = d }

type fakeMotor struct {
	power float64
	calls int
}

func (m *fakeMotor) SetPower(p float64) {
	m.power = p
	m.calls++
}

type fakeTelemetry struct {
	data    map[string]any
	flushes int
}

func newFakeTelemetry() *fakeTelemetry {
	return &fakeTelemetry{data: make(map[string]any)}
}

func (f *fakeTelemetry) AddData(key string, value any) { f.data[key] = value }
func (f *fakeTelemetry) Update()                       { f.flushes++ }

const lastStepGap = 10 * time.Millisecond

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type rig struct {
	sensor *fakeSensor
	left   *fakeMotor
	right  *fakeMotor
	tel    *fakeTelemetry
	clock  *fakeClock
	tun    *Tuning
	ctrl   *Controller
}

func newRig(opts ...Option) *rig {
	r := &rig{
		sensor: &fakeSensor{},
		left:   &fakeMotor{},
		right:  &fakeMotor{},
		tel:    newFakeTelemetry(),
		clock:  newFakeClock(),
		tun:    NewTuning(),
	}
	opts = append([]Option{WithTuning(r.tun), WithClock(r.clock.Now)}, opts...)
	ctrl, err := New(r.sensor, r.left, r.right, r.tel, opts...)
	if err != nil {
		panic(err)
	}
	r.ctrl = ctrl
	return r
}
