package plant

import (
	"math"
	"math/rand"

	"github.com/san-kum/slidectl/internal/slide"
)

// Motor is a simulated motor. Its mount direction says which way positive
// power moves the carriage.
type Motor struct {
	mount slide.Direction
	power float64
	calls int
}

func NewMotor(mount slide.Direction) *Motor {
	return &Motor{mount: mount}
}

// SetPower stores the command, saturated to [-1, 1].
func (m *Motor) SetPower(p float64) {
	m.power = math.Max(-1, math.Min(1, p))
	m.calls++
}

func (m *Motor) Power() float64 { return m.power }

// Commands reports how many times SetPower was called.
func (m *Motor) Commands() int { return m.calls }

func (m *Motor) drive() float64 {
	return float64(m.mount) * m.power
}

// Encoder reads the carriage position. Its raw count runs opposite to the
// physical up direction, so callers select Reverse to read counts that grow
// upward.
type Encoder struct {
	rig       *Rig
	direction slide.Direction
	noise     float64
	rng       *rand.Rand
	sampledAt float64
	offset    float64
	sampled   bool
}

func (e *Encoder) SetDirection(d slide.Direction) {
	e.direction = d
}

func (e *Encoder) Direction() slide.Direction { return e.direction }

// SetNoise adds uniform read noise of up to amp counts, seeded for
// reproducible runs. Noise is drawn once per plant step, so repeated reads
// between steps agree.
func (e *Encoder) SetNoise(amp float64, seed int64) {
	e.noise = amp
	e.rng = rand.New(rand.NewSource(seed))
	e.sampled = false
}

func (e *Encoder) CurrentPosition() int {
	pos := e.rig.Position()
	if e.noise > 0 && e.rng != nil {
		if !e.sampled || e.sampledAt != e.rig.Time() {
			e.offset = (e.rng.Float64()*2 - 1) * e.noise
			e.sampledAt = e.rig.Time()
			e.sampled = true
		}
		pos += e.offset
	}
	raw := -int(math.Round(pos))
	return int(e.direction) * raw
}
