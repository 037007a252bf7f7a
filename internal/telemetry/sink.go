package telemetry

import (
	"time"

	"github.com/san-kum/slidectl/internal/slide"
)

// Frame is one flushed batch of telemetry.
type Frame struct {
	Seq    uint64         `cbor:"1,keyasint" json:"seq"`
	Time   time.Time      `cbor:"2,keyasint" json:"time"`
	Values map[string]any `cbor:"3,keyasint" json:"values"`
}

// Float returns a numeric value from the frame.
func (f Frame) Float(key string) (float64, bool) {
	return asFloat(f.Values[key])
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Noop discards all telemetry. Usable as a zero value.
type Noop struct{}

func (Noop) AddData(string, any) {}
func (Noop) Update()             {}

// Multi sends every call to each of its sinks in order.
type Multi struct {
	sinks []slide.Telemetry
}

func NewMulti(sinks ...slide.Telemetry) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) AddData(key string, value any) {
	for _, s := range m.sinks {
		s.AddData(key, value)
	}
}

func (m *Multi) Update() {
	for _, s := range m.sinks {
		s.Update()
	}
}

var (
	_ slide.Telemetry = Noop{}
	_ slide.Telemetry = (*Multi)(nil)
	_ slide.Telemetry = (*SlogSink)(nil)
	_ slide.Telemetry = (*Recorder)(nil)
	_ slide.Telemetry = (*FileSink)(nil)
)
