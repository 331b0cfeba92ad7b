package panel

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/temoto/atomic_clock"
)

type stat struct {
	frames         uint32
	renders        uint32
	commands       uint32
	touches        uint32
	touchRejected  uint32
	clicks         uint32
	hardwareErrors uint32
	lastFrame      atomic_clock.Clock
	lastTouch      atomic_clock.Clock
}

// Stat is a snapshot of panel counters.
type Stat struct {
	Frames         uint32
	Renders        uint32
	Commands       uint32
	Touches        uint32
	TouchRejected  uint32
	Clicks         uint32
	HardwareErrors uint32
	// zero if never happened
	SinceFrame time.Duration
	SinceTouch time.Duration
}

func (s Stat) String() string {
	return fmt.Sprintf("frames=%d renders=%d commands=%d touches=%d rejected=%d clicks=%d hwerr=%d",
		s.Frames, s.Renders, s.Commands, s.Touches, s.TouchRejected, s.Clicks, s.HardwareErrors)
}

func (p *Panel) Stat() Stat {
	s := Stat{
		Frames:         atomic.LoadUint32(&p.stat.frames),
		Renders:        atomic.LoadUint32(&p.stat.renders),
		Commands:       atomic.LoadUint32(&p.stat.commands),
		Touches:        atomic.LoadUint32(&p.stat.touches),
		TouchRejected:  atomic.LoadUint32(&p.stat.touchRejected),
		Clicks:         atomic.LoadUint32(&p.stat.clicks),
		HardwareErrors: atomic.LoadUint32(&p.stat.hardwareErrors),
	}
	if !p.stat.lastFrame.IsZero() {
		s.SinceFrame = atomic_clock.Since(&p.stat.lastFrame)
	}
	if !p.stat.lastTouch.IsZero() {
		s.SinceTouch = atomic_clock.Since(&p.stat.lastTouch)
	}
	return s
}
