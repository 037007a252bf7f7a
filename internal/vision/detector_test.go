package vision

import (
	"image"
	"image/color"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/slidectl/internal/slide"
	"github.com/san-kum/slidectl/internal/telemetry"
)

var (
	red     = color.RGBA{R: 255, A: 255}
	deepRed = color.RGBA{R: 255, B: 40, A: 255}
	blue    = color.RGBA{G: 100, B: 255, A: 255}
	grey    = color.RGBA{R: 90, G: 90, B: 90, A: 255}
)

func frame(bg color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.Set(x, y, bg)
		}
	}
	return img
}

func paint(img *image.RGBA, r image.Rectangle, c color.Color) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

func newTestDetector(t *testing.T) (*Detector, *telemetry.Recorder) {
	t.Helper()
	rec := telemetry.NewRecorder(0)
	d, err := NewDetector(rec)
	if err != nil {
		t.Fatalf("new detector: %v", err)
	}
	return d, rec
}

func TestToHSVScale(t *testing.T) {
	g := NewWithT(t)

	p, ok := ToHSV(red)
	g.Expect(ok).To(BeTrue())
	g.Expect(p.H).To(BeNumerically("~", 0, 1e-6))
	g.Expect(p.S).To(BeNumerically("~", 255, 1e-6))
	g.Expect(p.V).To(BeNumerically("~", 255, 1e-6))

	p, _ = ToHSV(blue)
	g.Expect(p.H).To(BeNumerically("~", 108.2, 0.1))

	_, ok = ToHSV(color.RGBA{})
	g.Expect(ok).To(BeFalse())
}

func TestThresholds(t *testing.T) {
	g := NewWithT(t)
	th := DefaultThresholds()
	hsv := func(c color.Color) HSV { p, _ := ToHSV(c); return p }

	g.Expect(th.Match(hsv(red), true)).To(BeTrue())
	g.Expect(th.Match(hsv(deepRed), true)).To(BeTrue(), "upper red band")
	g.Expect(th.Match(hsv(blue), true)).To(BeFalse())
	g.Expect(th.Match(hsv(blue), false)).To(BeTrue())
	g.Expect(th.Match(hsv(grey), true)).To(BeFalse())
	g.Expect(th.Match(hsv(grey), false)).To(BeFalse())
}

func TestDefaultLocationIsMiddle(t *testing.T) {
	g := NewWithT(t)
	d, _ := newTestDetector(t)
	g.Expect(d.CurrentLocation()).To(Equal(Middle))
	g.Expect(d.DetectRed()).To(BeTrue())
}

func TestNilTelemetry(t *testing.T) {
	g := NewWithT(t)
	_, err := NewDetector(nil)
	g.Expect(err).To(MatchError(slide.ErrNilSink))
}

func TestProcessLocatesProp(t *testing.T) {
	regions := DefaultRegions()
	tests := []struct {
		name   string
		detect bool
		paint  image.Rectangle
		colour color.Color
		want   Location
	}{
		{"red left", true, regions.Left, red, Left},
		{"red middle", true, regions.Middle, red, Middle},
		{"deep red right", true, regions.Right, deepRed, Right},
		{"blue right", false, regions.Right, blue, Right},
		{"blue ignored when hunting red", true, regions.Middle, blue, Left},
		{"empty frame ties to left", true, image.Rectangle{}, red, Left},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			d, _ := newTestDetector(t)
			d.SetDetectRed(tt.detect)

			img := frame(grey)
			paint(img, tt.paint, tt.colour)

			g.Expect(d.Process(img)).To(Equal(tt.want))
			g.Expect(d.CurrentLocation()).To(Equal(tt.want))
		})
	}
}

func TestProcessWritesTelemetry(t *testing.T) {
	g := NewWithT(t)
	d, rec := newTestDetector(t)

	img := frame(grey)
	patch := image.Rect(130, 120, 140, 130)
	paint(img, patch, red)
	d.Process(img)

	g.Expect(rec.Len()).To(Equal(1))
	f, _ := rec.Last()
	mid, ok := f.Float(KeyMiddleRaw)
	g.Expect(ok).To(BeTrue())
	g.Expect(mid).To(Equal(100.0 * 255))
	left, _ := f.Float(KeyLeftRaw)
	g.Expect(left).To(Equal(0.0))
	g.Expect(f.Values).To(HaveKeyWithValue(KeyLocation, "middle"))
	g.Expect(d.LastScores()).To(Equal(Scores{Middle: 25500}))
}

func TestRegionsClipToFrame(t *testing.T) {
	g := NewWithT(t)
	d, _ := newTestDetector(t)

	small := image.NewRGBA(image.Rect(0, 0, 150, 150))
	paint(small, small.Bounds(), red)

	d.Process(small)
	s := d.LastScores()
	g.Expect(s.Left).To(Equal(95.0 * 50 * 255))
	g.Expect(s.Middle).To(Equal(30.0 * 50 * 255))
	g.Expect(s.Right).To(Equal(0.0))
}

func TestLocateTieBreak(t *testing.T) {
	g := NewWithT(t)
	g.Expect(Scores{1, 1, 1}.Locate()).To(Equal(Left))
	g.Expect(Scores{0, 1, 1}.Locate()).To(Equal(Right))
	g.Expect(Scores{0, 2, 1}.Locate()).To(Equal(Middle))
	g.Expect(Scores{2, 3, 0}.Locate()).To(Equal(Middle))
}

func TestMask(t *testing.T) {
	g := NewWithT(t)
	d, _ := newTestDetector(t)

	img := frame(grey)
	img.Set(5, 5, red)
	m := d.Mask(img)
	g.Expect(m.GrayAt(5, 5).Y).To(Equal(uint8(255)))
	g.Expect(m.GrayAt(6, 5).Y).To(Equal(uint8(0)))
}
