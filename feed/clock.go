package feed

import (
	"time"

	"github.com/temoto/alive/v2"
	"github.com/temoto/touchpanel/log2"
	"github.com/temoto/touchpanel/panel"
)

// Poster is the part of *panel.Panel feeders need.
// Updates run on the frame loop, never concurrently with rendering.
type Poster interface {
	Post(func(*panel.Panel))
}

const DefaultClockInterval = 200 * time.Millisecond

// Clock pushes local wall time to the panel once per second.
type Clock struct {
	Log      *log2.Log
	Now      func() time.Time
	Interval time.Duration

	last int
}

func NewClock(log *log2.Log) *Clock {
	return &Clock{
		Log:      log,
		Now:      time.Now,
		Interval: DefaultClockInterval,
		last:     -1,
	}
}

// Push posts SetTime if second changed since last push. Returns true if posted.
func (c *Clock) Push(p Poster) bool {
	h, m, s := c.Now().Clock()
	sod := h*3600 + m*60 + s
	if sod == c.last {
		return false
	}
	c.last = sod
	p.Post(func(p *panel.Panel) { p.SetTime(h, m, s) })
	return true
}

// Run polls wall clock every Interval until a.Stop().
// Polling faster than 1s keeps displayed seconds close to wall clock.
func (c *Clock) Run(a *alive.Alive, p Poster) {
	if !a.Add(1) {
		return
	}
	defer a.Done()
	tick := time.NewTicker(c.Interval)
	defer tick.Stop()
	stopch := a.StopChan()
	c.Push(p)
	for {
		select {
		case <-tick.C:
			c.Push(p)
		case <-stopch:
			c.Log.Debugf("feed clock stop")
			return
		}
	}
}
