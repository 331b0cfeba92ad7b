package panel

import (
	"sync/atomic"

	"github.com/juju/errors"
	"github.com/temoto/touchpanel/hardware/bus"
	"github.com/temoto/touchpanel/hardware/touch"
	"github.com/temoto/touchpanel/widget"
)

// routeTouch considers only current frame sample, nothing is queued.
// Held press clicks again every frame.
func (p *Panel) routeTouch() {
	if p.touch == nil {
		return
	}
	var pressed bool
	var err error
	if p.touch.PressedOnBus() {
		err = p.bus.Tx(bus.KindTouch, func() error {
			var e error
			pressed, e = p.touch.Pressed()
			return e
		})
	} else {
		pressed, err = p.touch.Pressed()
	}
	if err != nil {
		if errors.Cause(err) == touch.ErrStopped {
			// terminal, report once
			if p.touchStopped {
				return
			}
			p.touchStopped = true
		}
		p.hardwareError("touch pressed", err)
		return
	}
	if !pressed {
		return
	}

	var raw touch.Raw
	err = p.bus.Tx(bus.KindTouch, func() error {
		var e error
		raw, e = p.touch.Sample()
		return e
	})
	if err != nil {
		p.hardwareError("touch sample", err)
		return
	}
	atomic.AddUint32(&p.stat.touches, 1)
	p.stat.lastTouch.SetNow()
	if !p.config.Calibration.Plausible(raw.Z) {
		atomic.AddUint32(&p.stat.touchRejected, 1)
		p.Log.Debugf("panel touch rejected %s", raw.String())
		return
	}
	pt := p.config.Calibration.Map(raw, p.display.Size())
	p.dispatch(pt.X, pt.Y)
}

// HitAt returns topmost widget of active page containing point.
func (p *Panel) HitAt(x, y int) (widget.Widget, bool) {
	for i := len(p.widgets) - 1; i >= 0; i-- {
		w := p.widgets[i]
		if w.Page() != p.page {
			continue
		}
		if w.HitTest(x, y) {
			return w, true
		}
	}
	return nil, false
}

func (p *Panel) dispatch(x, y int) {
	w, ok := p.HitAt(x, y)
	if !ok {
		p.Log.Debugf("panel touch x=%d y=%d miss", x, y)
		return
	}
	atomic.AddUint32(&p.stat.clicks, 1)
	p.Log.Debugf("panel touch x=%d y=%d id=%s", x, y, w.ID())
	if w.HasOnClick() {
		w.OnClick()
	} else if p.unhandledClick != nil {
		p.unhandledClick(w.ID())
	}
}
