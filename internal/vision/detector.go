package vision

import (
	"image"
	"image/color"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/san-kum/slidectl/internal/slide"
)

// Location is where the prop sits relative to the robot.
type Location int32

const (
	Left Location = iota
	Middle
	Right
)

func (l Location) String() string {
	switch l {
	case Left:
		return "LEFT"
	case Middle:
		return "MIDDLE"
	case Right:
		return "RIGHT"
	default:
		return "UNKNOWN"
	}
}

// Telemetry keys written on every processed frame.
const (
	KeyLeftRaw   = "Left raw value:"
	KeyMiddleRaw = "Middle raw value:"
	KeyRightRaw  = "Right raw value:"
	KeyLocation  = "Prop location:"
)

const maskOn = 255

// Regions are the three areas of interest in frame coordinates.
type Regions struct {
	Left, Middle, Right image.Rectangle
}

func DefaultRegions() Regions {
	return Regions{
		Left:   image.Rect(10, 100, 105, 200),
		Middle: image.Rect(120, 100, 205, 200),
		Right:  image.Rect(220, 100, 310, 200),
	}
}

// Scores are the mask sums of the three regions of one frame.
type Scores struct {
	Left, Middle, Right float64
}

// Locate applies the tie-break rule to a set of scores.
func (s Scores) Locate() Location {
	switch {
	case s.Left >= s.Right && s.Left >= s.Middle:
		return Left
	case s.Right >= s.Middle:
		return Right
	default:
		return Middle
	}
}

// Detector classifies frames. Process may run on a camera goroutine while
// CurrentLocation is read from another.
type Detector struct {
	telemetry  slide.Telemetry
	thresholds Thresholds
	regions    Regions
	red        atomic.Bool
	location   atomic.Int32

	mu     sync.Mutex
	scores Scores
}

type Option func(*Detector)

func WithThresholds(t Thresholds) Option {
	return func(d *Detector) { d.thresholds = t }
}

func WithRegions(r Regions) Option {
	return func(d *Detector) { d.regions = r }
}

// NewDetector looks for red by default and reports MIDDLE until the first
// frame has been processed.
func NewDetector(t slide.Telemetry, opts ...Option) (*Detector, error) {
	if t == nil {
		return nil, slide.ErrNilSink
	}
	d := &Detector{
		telemetry:  t,
		thresholds: DefaultThresholds(),
		regions:    DefaultRegions(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.red.Store(true)
	d.location.Store(int32(Middle))
	return d, nil
}

func (d *Detector) SetDetectRed(red bool) { d.red.Store(red) }
func (d *Detector) DetectRed() bool       { return d.red.Load() }

func (d *Detector) CurrentLocation() Location {
	return Location(d.location.Load())
}

// LastScores returns the scores of the most recent frame.
func (d *Detector) LastScores() Scores {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scores
}

// Process classifies one frame, records the result and writes it to
// telemetry. Regions are clipped to the frame.
func (d *Detector) Process(img image.Image) Location {
	red := d.red.Load()
	s := Scores{
		Left:   d.score(img, d.regions.Left, red),
		Middle: d.score(img, d.regions.Middle, red),
		Right:  d.score(img, d.regions.Right, red),
	}
	loc := s.Locate()

	d.mu.Lock()
	d.scores = s
	d.mu.Unlock()
	d.location.Store(int32(loc))

	d.telemetry.AddData(KeyLeftRaw, s.Left)
	d.telemetry.AddData(KeyMiddleRaw, s.Middle)
	d.telemetry.AddData(KeyRightRaw, s.Right)
	d.telemetry.AddData(KeyLocation, strings.ToLower(loc.String()))
	d.telemetry.Update()
	return loc
}

func (d *Detector) score(img image.Image, roi image.Rectangle, red bool) float64 {
	b := img.Bounds()
	r := roi.Add(b.Min).Intersect(b)

	sum := 0.0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if d.match(img.At(x, y), red) {
				sum += maskOn
			}
		}
	}
	return sum
}

func (d *Detector) match(c color.Color, red bool) bool {
	p, ok := ToHSV(c)
	return ok && d.thresholds.Match(p, red)
}

// Mask renders the binary threshold image for a frame.
func (d *Detector) Mask(img image.Image) *image.Gray {
	b := img.Bounds()
	mask := image.NewGray(b)
	red := d.red.Load()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if d.match(img.At(x, y), red) {
				mask.SetGray(x, y, color.Gray{Y: maskOn})
			}
		}
	}
	return mask
}
