package telemetry

import (
	"maps"
	"sync"
	"time"
)

// Recorder keeps flushed frames in memory. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	now     func() time.Time
	pending map[string]any
	frames  []Frame
	limit   int
}

// NewRecorder keeps at most limit frames, dropping the oldest. A
// non-positive limit keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{
		now:     time.Now,
		pending: make(map[string]any),
		limit:   limit,
	}
}

// SetClock replaces the frame timestamp source.
func (r *Recorder) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

func (r *Recorder) AddData(key string, value any) {
	r.mu.Lock()
	r.pending[key] = value
	r.mu.Unlock()
}

func (r *Recorder) Update() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var seq uint64
	if n := len(r.frames); n > 0 {
		seq = r.frames[n-1].Seq + 1
	}
	r.frames = append(r.frames, Frame{Seq: seq, Time: r.now(), Values: r.pending})
	r.pending = make(map[string]any)

	if r.limit > 0 && len(r.frames) > r.limit {
		r.frames = r.frames[len(r.frames)-r.limit:]
	}
}

// Frames returns a copy of the recorded frames.
func (r *Recorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Frame, len(r.frames))
	for i, f := range r.frames {
		f.Values = maps.Clone(f.Values)
		out[i] = f
	}
	return out
}

// Last returns the most recent frame.
func (r *Recorder) Last() (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.frames) == 0 {
		return Frame{}, false
	}
	f := r.frames[len(r.frames)-1]
	f.Values = maps.Clone(f.Values)
	return f, true
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.frames = nil
	r.pending = make(map[string]any)
	r.mu.Unlock()
}
