package telemetry

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

var (
	frameEncMode cbor.EncMode
	frameDecMode cbor.DecMode
)

func init() {
	var err error

	frameEncMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("telemetry: cbor encoder mode: %v", err))
	}

	frameDecMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("telemetry: cbor decoder mode: %v", err))
	}
}

// FileSink appends CBOR-encoded frames to a file. Safe for concurrent use.
// Encoding errors are dropped; telemetry must not stall the control loop.
type FileSink struct {
	mu      sync.Mutex
	file    *os.File
	enc     *cbor.Encoder
	now     func() time.Time
	pending map[string]any
	seq     uint64
	closed  bool
}

// NewFileSink opens path for appending, creating it if needed.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileSink{
		file:    f,
		enc:     frameEncMode.NewEncoder(f),
		now:     time.Now,
		pending: make(map[string]any),
	}, nil
}

func (s *FileSink) AddData(key string, value any) {
	s.mu.Lock()
	s.pending[key] = value
	s.mu.Unlock()
}

func (s *FileSink) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || len(s.pending) == 0 {
		return
	}
	_ = s.enc.Encode(Frame{Seq: s.seq, Time: s.now(), Values: s.pending})
	s.seq++
	s.pending = make(map[string]any)
}

// Close closes the file. Later calls are ignored.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}

// Reader streams frames back out of a file written by FileSink.
type Reader struct {
	file *os.File
	dec  *cbor.Decoder
}

func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{file: f, dec: frameDecMode.NewDecoder(f)}, nil
}

// Next returns the next frame, or io.EOF at the end of the file.
func (r *Reader) Next() (Frame, error) {
	var f Frame
	if err := r.dec.Decode(&f); err != nil {
		return Frame{}, err
	}
	return f, nil
}

func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadFrames loads every frame in path.
func ReadFrames(path string) ([]Frame, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var frames []Frame
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
}
