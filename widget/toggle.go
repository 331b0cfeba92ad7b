package widget

import "image/color"

const (
	KindButton = "button"
	KindLight  = "light"
)

type ToggleStyle struct {
	FillOn, FillOff     color.RGBA
	StrokeOn, StrokeOff color.RGBA
	TextOn, TextOff     color.RGBA
	TextScale           int
	Radius              int
}

var ButtonStyle = ToggleStyle{
	FillOn: Green, FillOff: DarkGrey,
	StrokeOn: White, StrokeOff: LightGrey,
	TextOn: Black, TextOff: Black,
	TextScale: 2, Radius: 8,
}

var LightStyle = ToggleStyle{
	FillOn: Yellow, FillOff: Navy,
	StrokeOn: White, StrokeOff: LightGrey,
	TextOn: Black, TextOff: LightGrey,
	TextScale: 1, Radius: 8,
}

// Toggle is an on/off labeled tile, dirty on state change only.
type Toggle struct {
	Base
	label string
	style ToggleStyle
	on    bool
}

var _ Widget = new(Toggle)
var _ Stater = new(Toggle)

func NewButton(id, label string, page int) *Toggle {
	return &Toggle{Base: NewBase(id, KindButton, page), label: label, style: ButtonStyle}
}

func NewLight(id, label string, page int) *Toggle {
	return &Toggle{Base: NewBase(id, KindLight, page), label: label, style: LightStyle}
}

func (t *Toggle) Label() string { return t.label }
func (t *Toggle) State() bool   { return t.on }

func (t *Toggle) SetState(on bool) {
	if t.on != on {
		t.on = on
		t.Invalidate()
	}
}

func (t *Toggle) RenderIfDirty(s *Surface) bool {
	b := t.Bounds()
	fill, stroke, text := t.style.FillOff, t.style.StrokeOff, t.style.TextOff
	if t.on {
		fill, stroke, text = t.style.FillOn, t.style.StrokeOn, t.style.TextOn
	}
	s.FillRoundRect(0, 0, b.W, b.H, t.style.Radius, fill)
	s.StrokeRoundRect(0, 0, b.W, b.H, t.style.Radius, stroke)
	s.Text(t.label, b.W/2, b.H/2, t.style.TextScale, MiddleCenter, text)
	return true
}
