package widget

import (
	"fmt"
	"image/color"
	"math"
)

const KindEnv = "env"

const (
	TemperatureHysteresis = 0.05
	HumidityHysteresis    = 0.5

	thermoMin = -10.0
	thermoMax = 40.0
)

// Env shows temperature and relative humidity.
// Readings within hysteresis of the shown values are ignored to avoid redraw on sensor noise.
type Env struct {
	Base
	temperature float64
	humidity    float64
}

var _ Widget = new(Env)

func NewEnv(id string, page int) *Env {
	return &Env{Base: NewBase(id, KindEnv, page)}
}

func (e *Env) Values() (temperature, humidity float64) { return e.temperature, e.humidity }

func (e *Env) OnEnvUpdate(temperature, humidity float64) {
	if math.IsNaN(temperature) || math.IsNaN(humidity) {
		return
	}
	if math.Abs(temperature-e.temperature) > TemperatureHysteresis || math.Abs(humidity-e.humidity) > HumidityHysteresis {
		e.temperature = temperature
		e.humidity = humidity
		e.Invalidate()
	}
}

func (e *Env) RenderIfDirty(s *Surface) bool {
	b := e.Bounds()
	const pad = 6

	iconX, iconY := pad+7, pad+2
	drawThermometer(s, iconX, iconY, 28, 10, 8, DarkGrey, Thermo, clamp01((e.temperature-thermoMin)/(thermoMax-thermoMin)))
	s.Text(fmt.Sprintf("%.1f°C", e.temperature), iconX+30, pad+11, 2, TopLeft, Silver)

	dropY := b.H/2 + pad
	drawDroplet(s, pad-3, dropY, 34, DarkGrey, Water, clamp01(e.humidity/100))
	s.Text(fmt.Sprintf("%.0f%%", e.humidity), iconX+30, dropY+6, 2, TopLeft, Silver)
	return true
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// (x,y) is top-left of icon box.
func drawThermometer(s *Surface, x, y, stemH, stemW, bulbR int, outline, fill color.RGBA, pct float64) {
	cx := x + bulbR
	stemX := cx - stemW/2
	stemY := y + 2
	bulbCy := stemY + stemH + bulbR - 3

	s.StrokeRoundRect(stemX, stemY, stemW, stemH, stemW/2, outline)
	s.StrokeCircle(cx, bulbCy, bulbR, outline)

	level := int(math.Round(pct * float64(stemH-2)))
	s.FillCircle(cx, bulbCy, bulbR-2, fill)
	s.FillRect(stemX+2, stemY+stemH-level, stemW-4, level, fill)

	s.Line(stemX+stemW-3, stemY+3, stemX+stemW-3, stemY+stemH-3, Highlight)
}

// Circle with upward tip, liquid level cut by painting background above it.
func drawDroplet(s *Surface, x, y, size int, outline, fill color.RGBA, pct float64) {
	cx := x + size/2
	cy := y + size/2 + 2
	r := size / 3
	tipY := cy - r - r/2
	baseY := cy - r/4

	s.FillCircle(cx, cy, r, fill)
	s.FillTriangle(cx, tipY, cx-r/2, baseY, cx+r/2, baseY, fill)

	bg := s.At(0, 0)
	levelY := y + int(math.Round((1-pct)*float64(size-2)))
	if levelY > y {
		s.FillRect(x, y, size, levelY-y, bg)
	}

	s.StrokeCircle(cx, cy, r, outline)
	s.Line(cx, tipY, cx-r/2, baseY, outline)
	s.Line(cx, tipY, cx+r/2, baseY, outline)
	s.Line(cx-r/2, baseY, cx+r/2, baseY, outline)
	s.Line(cx-r/3, cy-r/3, cx-r/6, cy-r/2, Highlight)
}
