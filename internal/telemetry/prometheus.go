package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PromSink exposes the latest value of every numeric telemetry key as a
// gauge labelled by key. Non-numeric values are dropped.
type PromSink struct {
	mu      sync.Mutex
	values  *prometheus.GaugeVec
	frames  prometheus.Counter
	pending map[string]float64
}

// NewPromSink registers the sink's collectors with reg.
func NewPromSink(reg prometheus.Registerer, namespace string) (*PromSink, error) {
	s := &PromSink{
		values: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "telemetry_value",
			Help:      "Latest value written for each telemetry key.",
		}, []string{"key"}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_frames_total",
			Help:      "Telemetry batches flushed.",
		}),
		pending: make(map[string]float64),
	}
	for _, c := range []prometheus.Collector{s.values, s.frames} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *PromSink) AddData(key string, value any) {
	v, ok := asFloat(value)
	if !ok {
		return
	}
	s.mu.Lock()
	s.pending[key] = v
	s.mu.Unlock()
}

func (s *PromSink) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return
	}
	for k, v := range s.pending {
		s.values.WithLabelValues(k).Set(v)
	}
	clear(s.pending)
	s.frames.Inc()
}
