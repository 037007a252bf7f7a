// Package routine scripts target changes over time, the way an autonomous
// sequence drives the slide between scoring heights.
package routine

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/slidectl/internal/sim"
)

const (
	OpMoveUp   = "move_up"
	OpMoveDown = "move_down"
	OpSet      = "set"
	OpWait     = "wait"
)

var (
	ErrUnknownOp   = errors.New("routine: unknown op")
	ErrInvalidStep = errors.New("routine: invalid step")
)

// Routine is a named list of steps. Steps run in order; a wait step delays
// everything after it by Value seconds.
type Routine struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Step is a single routine instruction.
type Step struct {
	Op    string  `yaml:"op"`
	Value float64 `yaml:"value"`
}

// Load reads a routine from a YAML file.
func Load(path string) (*Routine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a routine.
func Parse(data []byte) (*Routine, error) {
	var r Routine
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse routine: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Routine) Validate() error {
	for i, s := range r.Steps {
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			return fmt.Errorf("%w: step %d: %s needs a finite value, got %g", ErrInvalidStep, i+1, s.Op, s.Value)
		}
		switch s.Op {
		case OpMoveUp, OpMoveDown, OpWait:
			if s.Value < 0 {
				return fmt.Errorf("%w: step %d: %s needs a non-negative value, got %g", ErrInvalidStep, i+1, s.Op, s.Value)
			}
		case OpSet:
		default:
			return fmt.Errorf("%w: step %d: %q", ErrUnknownOp, i+1, s.Op)
		}
	}
	return nil
}

// Duration is the total of all waits.
func (r *Routine) Duration() float64 {
	total := 0.0
	for _, s := range r.Steps {
		if s.Op == OpWait {
			total += s.Value
		}
	}
	return total
}

// Player replays a routine against a controller as simulated time advances.
type Player struct {
	routine *Routine
	next    int
	readyAt float64
}

func NewPlayer(r *Routine) *Player {
	return &Player{routine: r}
}

// Advance applies every step that is due at time t.
func (p *Player) Advance(t float64, target sim.Target) {
	for p.next < len(p.routine.Steps) && p.readyAt <= t {
		s := p.routine.Steps[p.next]
		p.next++

		switch s.Op {
		case OpMoveUp:
			target.MoveUp(s.Value)
		case OpMoveDown:
			target.MoveDown(s.Value)
		case OpSet:
			target.SetTargetPosition(s.Value)
		case OpWait:
			p.readyAt += s.Value
		}
	}
}

// Done reports whether every step has been applied.
func (p *Player) Done() bool {
	return p.next >= len(p.routine.Steps)
}

func (p *Player) Reset() {
	p.next = 0
	p.readyAt = 0
}
