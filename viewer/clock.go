package viewer

import "time"

// Clock reports the seconds elapsed since its previous call.
type Clock interface {
	Delta() float64
}

// SystemClock is the wall-clock Clock used by the real window. The first
// call returns 0.
type SystemClock struct {
	now  func() time.Time
	last time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{now: time.Now}
}

func (c *SystemClock) Delta() float64 {
	t := c.now()
	if c.last.IsZero() {
		c.last = t
		return 0
	}
	dt := t.Sub(c.last).Seconds()
	c.last = t
	return dt
}
