package widget

import (
	"fmt"
	"image/color"
	"math"
)

const (
	KindClock       = "clock"
	KindAnalogClock = "analog_clock"
)

type hms struct{ hours, minutes, seconds int }

// Clock is digital HH:MM:SS, dirty when pushed time differs from last observed.
type Clock struct {
	Base
	t hms
}

var _ Widget = new(Clock)

func NewClock(id string, page int) *Clock {
	return &Clock{Base: NewBase(id, KindClock, page)}
}

func (c *Clock) Time() (hours, minutes, seconds int) { return c.t.hours, c.t.minutes, c.t.seconds }

func (c *Clock) OnTimeUpdate(hours, minutes, seconds int) {
	next := hms{hours, minutes, seconds}
	if next == c.t {
		return
	}
	c.t = next
	c.Invalidate()
}

func (c *Clock) RenderIfDirty(s *Surface) bool {
	text := fmt.Sprintf("%02d:%02d:%02d", c.t.hours, c.t.minutes, c.t.seconds)
	s.Text(text, 6, 6, 2, TopLeft, LightGrey)
	return true
}

type AnalogClock struct {
	Base
	t hms
}

var _ Widget = new(AnalogClock)

func NewAnalogClock(id string, page int) *AnalogClock {
	return &AnalogClock{Base: NewBase(id, KindAnalogClock, page)}
}

func (c *AnalogClock) OnTimeUpdate(hours, minutes, seconds int) {
	next := hms{hours, minutes, seconds}
	if next == c.t {
		return
	}
	c.t = next
	c.Invalidate()
}

func (c *AnalogClock) RenderIfDirty(s *Surface) bool {
	b := c.Bounds()
	cx, cy := b.W/2, b.H/2
	r := minInt(b.W, b.H)/2 - 2
	if r <= 6 {
		return false
	}

	s.Text(fmt.Sprintf("%02d:%02d", c.t.hours, c.t.minutes), b.W/2, b.H-b.H/3, 1, TopCenter, LightGrey)

	// 12 dots, quarters larger
	for i := 0; i < 12; i++ {
		a := float64(i) / 12 * 2 * math.Pi
		x, y := polar(cx, cy, a, float64(r-6))
		dot := 1
		if i%3 == 0 {
			dot = 2
		}
		s.FillCircle(x, y, dot, White)
	}

	sec, minute, hour := float64(c.t.seconds), float64(c.t.minutes), float64(c.t.hours%12)
	sa := sec / 60 * 2 * math.Pi
	ma := (minute + sec/60) / 60 * 2 * math.Pi
	ha := (hour + minute/60 + sec/3600) / 12 * 2 * math.Pi

	drawHand(s, cx, cy, ha, float64(r)*0.55, 2, White)
	drawHand(s, cx, cy, ma, float64(r)*0.78, 1, Silver)
	xs, ys := polar(cx, cy, sa, float64(r)*0.82)
	s.Line(cx, cy, xs, ys, Red)

	s.FillCircle(cx, cy, 2, White)
	return true
}

// polar converts clock angle (0 = 12 o'clock, clockwise) to surface point.
func polar(cx, cy int, a, rad float64) (int, int) {
	return int(math.Round(float64(cx) + math.Sin(a)*rad)), int(math.Round(float64(cy) - math.Cos(a)*rad))
}

// drawHand is a tapered triangle from a short tail behind center to the tip.
func drawHand(s *Surface, cx, cy int, a, length float64, baseW int, col color.RGBA) {
	xt, yt := polar(cx, cy, a, length)
	xtail, ytail := polar(cx, cy, a, -length*0.2)
	sin, cos := math.Sin(a), math.Cos(a)
	half := float64(baseW)
	xb1 := int(math.Round(float64(xtail) - cos*half))
	yb1 := int(math.Round(float64(ytail) - sin*half))
	xb2 := int(math.Round(float64(xtail) + cos*half))
	yb2 := int(math.Round(float64(ytail) + sin*half))
	s.FillTriangle(xb1, yb1, xb2, yb2, xt, yt, col)
}
