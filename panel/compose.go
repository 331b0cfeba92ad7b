package panel

import (
	"sync/atomic"

	"github.com/juju/errors"
	"github.com/temoto/touchpanel/hardware/bus"
	"github.com/temoto/touchpanel/hardware/display"
	"github.com/temoto/touchpanel/helpers"
	"github.com/temoto/touchpanel/widget"
)

// hardwareError absorbs failure: frame loop never stops on bus errors.
func (p *Panel) hardwareError(op string, err error) {
	atomic.AddUint32(&p.stat.hardwareErrors, 1)
	p.Log.Errorf("panel %s err=%v", op, errors.ErrorStack(err))
}

func (p *Panel) command(op display.Opcode) {
	atomic.AddUint32(&p.stat.commands, 1)
	err := p.bus.Tx(bus.KindCommand, func() error { return p.display.Command(op) })
	if err != nil {
		p.hardwareError("command "+op.String(), err)
	}
}

func (p *Panel) clearScreen() {
	err := p.bus.Tx(bus.KindBlit, func() error { return display.Clear(p.display, p.config.Background) })
	if err != nil {
		p.hardwareError("clear", err)
	}
}

// composite renders dirty widgets of active page one by one through shared scratch buffer.
func (p *Panel) composite() {
	for _, w := range p.widgets {
		if w.Page() != p.page {
			continue
		}
		if !w.IsDirty() {
			continue
		}
		b, ok := p.lastBounds[w]
		if !ok {
			b = w.Bounds()
		}
		// stays dirty until it has area to draw into
		if b.Empty() {
			continue
		}
		w.ClearDirty()
		if p.scratch.Ensure(b.W, b.H) {
			p.Log.Debugf("panel scratch grow %s", p.scratch.Cap())
		}
		p.scratch.Reset(b.W, b.H, p.config.Background)
		w.RenderIfDirty(p.scratch)
		view := p.scratch.View()
		atomic.AddUint32(&p.stat.renders, 1)
		err := p.bus.Tx(bus.KindBlit, func() error { return p.display.Blit(b.X, b.Y, view, view.Rect) })
		if err != nil {
			p.hardwareError("blit id="+w.ID(), err)
		}
	}
}

// idle draws liveness text in random color when panel has no widgets.
func (p *Panel) idle(now helpers.Millis) {
	if len(p.widgets) != 0 {
		return
	}
	if p.idleArmed && !now.Reached(p.idleNext) {
		return
	}
	p.idleArmed = true
	p.idleNext = now.Add(p.config.IdleInterval)

	text := p.config.IdleText
	const scale = 3
	w, h := widget.TextWidth(text, scale), widget.TextHeight(scale)
	p.scratch.Reset(w, h, p.config.Background)
	fg := widget.Black
	fg.R, fg.G, fg.B = uint8(p.rand.Intn(256)), uint8(p.rand.Intn(256)), uint8(p.rand.Intn(256))
	p.scratch.Text(text, 0, 0, scale, widget.TopLeft, fg)
	view := p.scratch.View()
	atomic.AddUint32(&p.stat.renders, 1)
	err := p.bus.Tx(bus.KindBlit, func() error { return p.display.Blit(10, 10, view, view.Rect) })
	if err != nil {
		p.hardwareError("idle", err)
	}
}
