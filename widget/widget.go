// Package widget implements panel items: buttons, lights, clocks, environment gauge, QR.
//
// Every widget renders into a shared Surface at local origin (0,0), sized to its bounds.
// Widgets are not safe for concurrent use, the panel frame loop owns them.
package widget

import (
	"github.com/temoto/touchpanel/geom"
	"github.com/temoto/touchpanel/helpers"
)

type Widget interface {
	ID() string
	Kind() string
	Page() int
	SetPage(page int)
	Bounds() geom.Rect
	SetBounds(r geom.Rect)

	// RenderIfDirty draws current state into s, returns true if anything was drawn.
	// Panel calls it only after ClearDirty() reported a change.
	RenderIfDirty(s *Surface) bool
	Tick(now helpers.Millis)
	HitTest(x, y int) bool

	OnClick()
	// SetOnClick returns false if a previous callback was replaced.
	SetOnClick(fn func()) bool
	HasOnClick() bool

	// ClearDirty reads and resets dirty flag.
	ClearDirty() bool
	IsDirty() bool
	Invalidate()

	OnTimeUpdate(hours, minutes, seconds int)
	OnEnvUpdate(temperature, humidity float64)
}

// Stater is implemented by on/off widgets.
type Stater interface {
	SetState(on bool)
	State() bool
}

// Texter is implemented by widgets showing externally supplied text.
type Texter interface {
	SetText(text string)
	Text() string
}

type Base struct {
	id      string
	kind    string
	page    int
	bounds  geom.Rect
	dirty   bool
	onClick func()
}

func NewBase(id, kind string, page int) Base {
	return Base{id: id, kind: kind, page: page, dirty: true}
}

func (b *Base) ID() string        { return b.id }
func (b *Base) Kind() string      { return b.kind }
func (b *Base) Page() int         { return b.page }
func (b *Base) Bounds() geom.Rect { return b.bounds }

func (b *Base) SetBounds(r geom.Rect) { b.bounds = r; b.dirty = true }
func (b *Base) SetPage(page int)      { b.page = page; b.dirty = true }

func (b *Base) Tick(helpers.Millis) {}

func (b *Base) HitTest(x, y int) bool { return b.bounds.Contains(x, y) }

func (b *Base) OnClick() {
	if b.onClick != nil {
		b.onClick()
	}
}

func (b *Base) SetOnClick(fn func()) bool {
	replaced := b.onClick != nil
	b.onClick = fn
	return !replaced
}
func (b *Base) HasOnClick() bool { return b.onClick != nil }

func (b *Base) ClearDirty() bool {
	d := b.dirty
	b.dirty = false
	return d
}
func (b *Base) IsDirty() bool { return b.dirty }
func (b *Base) Invalidate()   { b.dirty = true }

func (b *Base) OnTimeUpdate(hours, minutes, seconds int) {}
func (b *Base) OnEnvUpdate(temperature, humidity float64) {}
