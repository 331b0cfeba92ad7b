package panel

import (
	"sync/atomic"
	"time"

	"github.com/temoto/alive/v2"
	"github.com/temoto/touchpanel/helpers"
)

// Step runs one frame: posted updates, power step, then only while awake:
// tick active page, touch, composite, idle indicator.
func (p *Panel) Step(now helpers.Millis) {
	p.drainPosted()
	p.stepPower(now)
	atomic.AddUint32(&p.stat.frames, 1)
	p.stat.lastFrame.SetNow()
	if p.PowerState() != StateAwake {
		return
	}
	for _, w := range p.widgets {
		if w.Page() == p.page {
			w.Tick(now)
		}
	}
	p.routeTouch()
	p.composite()
	p.idle(now)
}

// Run drives Step every frame interval until a.Stop().
func (p *Panel) Run(a *alive.Alive, clock *helpers.MillisClock) {
	if !a.Add(1) {
		return
	}
	defer a.Done()
	tick := time.NewTicker(p.config.FrameInterval)
	defer tick.Stop()
	stopch := a.StopChan()
	p.Log.Debugf("panel run frame=%s", p.config.FrameInterval)
	for {
		select {
		case <-tick.C:
			p.Step(clock.Now())
		case <-stopch:
			p.Log.Debugf("panel run stop")
			return
		}
	}
}
