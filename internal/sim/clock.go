package sim

import (
	"math"
	"time"
)

// Clock is the controller's time source during a simulation. It only moves
// when the simulator sets it.
type Clock struct {
	base time.Time
	now  time.Duration
}

func NewClock() *Clock {
	return &Clock{base: time.Unix(0, 0)}
}

func (c *Clock) Now() time.Time {
	return c.base.Add(c.now)
}

// Set moves the clock to t seconds of simulated time.
func (c *Clock) Set(t float64) {
	c.now = time.Duration(math.Round(t * float64(time.Second)))
}
