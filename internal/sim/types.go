package sim

import "github.com/san-kum/slidectl/internal/slide"

// Sample is the loop state recorded once per control cycle, after the
// controller has updated and before the plant advances.
type Sample struct {
	T        float64     `json:"t"`
	Target   float64     `json:"target"`
	Measured float64     `json:"measured"`
	Position float64     `json:"position"`
	Velocity float64     `json:"velocity"`
	Output   float64     `json:"output"`
	Left     float64     `json:"left"`
	Right    float64     `json:"right"`
	State    slide.State `json:"state"`
}

// Error is the tracking error the controller saw on this cycle.
func (s Sample) Error() float64 {
	return s.Target - s.Measured
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

// Target is the part of the controller a Commander may drive.
type Target interface {
	MoveUp(amount float64)
	MoveDown(amount float64)
	SetTargetPosition(pos float64)
	TargetPosition() float64
}

// Commander issues target changes as simulated time passes.
type Commander interface {
	Advance(t float64, target Target)
}

type Config struct {
	Dt       float64
	Duration float64
	Seed     int64
	Noise    float64
}

type Result struct {
	Samples    []Sample
	Metrics    map[string]float64
	StepsTaken int
}

// Last returns the final sample, or the zero sample for an empty run.
func (r *Result) Last() Sample {
	if len(r.Samples) == 0 {
		return Sample{}
	}
	return r.Samples[len(r.Samples)-1]
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s Sample)

func (f ObserverFunc) OnStep(s Sample) { f(s) }
