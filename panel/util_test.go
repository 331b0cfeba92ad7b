package panel

import (
	"image"
	"testing"

	"github.com/temoto/touchpanel/geom"
	"github.com/temoto/touchpanel/hardware/display"
	"github.com/temoto/touchpanel/hardware/touch"
	"github.com/temoto/touchpanel/helpers"
	"github.com/temoto/touchpanel/log2"
	"github.com/temoto/touchpanel/widget"
)

// spy counts frame loop calls.
type spy struct {
	widget.Base
	ticks   int
	renders int
	clicks  int
}

func newSpy(id string, page int) *spy {
	s := &spy{Base: widget.NewBase(id, "spy", page)}
	s.SetOnClick(func() { s.clicks++ })
	return s
}

func (s *spy) Tick(helpers.Millis) { s.ticks++ }

func (s *spy) RenderIfDirty(surf *widget.Surface) bool {
	s.renders++
	size := surf.Size()
	surf.FillRect(0, 0, size.X, size.Y, widget.White)
	return true
}

// identity calibration: raw units are screen pixels
var testCalibration = touch.Calibration{RawX1: 480, RawY1: 320, ZMin: 5, ZMax: 4095}

func newTestPanel(t testing.TB) (*Panel, *display.Mock, *touch.Mock) {
	disp := display.NewMock(image.Pt(480, 320))
	tch := touch.NewMock(true)
	config := DefaultConfig()
	config.Calibration = testCalibration
	p := New(config, disp, tch, log2.NewTest(t, log2.LDebug))
	return p, disp, tch
}

func tap(tch *touch.Mock, x, y int) { tch.Touch(touch.Raw{X: x, Y: y, Z: 100}) }

// blits returns recorded blit rectangles.
func blits(d *display.Mock) []geom.Rect {
	var rs []geom.Rect
	for _, op := range d.Ops() {
		if op.Kind == display.OpBlit {
			rs = append(rs, op.Rect)
		}
	}
	return rs
}
