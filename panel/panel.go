// Package panel owns the touch panel: widgets on pages, compositor, touch router
// and display power state machine, all driven by one cooperative frame loop.
package panel

import (
	"image"
	"image/color"
	"math/rand"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/touchpanel/geom"
	"github.com/temoto/touchpanel/hardware/bus"
	"github.com/temoto/touchpanel/hardware/display"
	"github.com/temoto/touchpanel/hardware/touch"
	"github.com/temoto/touchpanel/helpers"
	"github.com/temoto/touchpanel/layout"
	"github.com/temoto/touchpanel/log2"
	"github.com/temoto/touchpanel/widget"
)

const (
	IDPagePrev = "page_prev"
	IDPageNext = "page_next"

	DefaultFrameInterval = 20 * time.Millisecond
	DefaultIdleInterval  = 100 * time.Millisecond
	DefaultIdleText      = "Hello!"
)

type Config struct {
	Cols int
	Rows int
	// zero means whole screen
	Area          geom.Rect
	FrameInterval time.Duration
	IdleInterval  time.Duration
	IdleText      string
	Background    color.RGBA
	Calibration   touch.Calibration
}

func DefaultConfig() Config {
	return Config{
		Cols:          3,
		Rows:          2,
		FrameInterval: DefaultFrameInterval,
		IdleInterval:  DefaultIdleInterval,
		IdleText:      DefaultIdleText,
		Background:    widget.Black,
		Calibration:   touch.DefaultCalibration(),
	}
}

// Panel is constructed once and passed explicitly to feeders and CLI.
// Widget state is owned by the frame loop, other goroutines must use Post.
type Panel struct {
	Log *log2.Log

	config  Config
	display display.Device
	touch   touch.Device
	bus     *bus.Bus
	grid    layout.Grid

	widgets    []widget.Widget
	lastBounds map[widget.Widget]geom.Rect
	page       int
	scratch    *widget.Surface

	power          State
	deadline       helpers.Millis
	sleepRequested uint32

	touchStopped bool

	idleNext  helpers.Millis
	idleArmed bool
	rand      *rand.Rand

	postLk sync.Mutex
	posted []func(*Panel)

	unhandledClick func(id string)
	stat           stat
	testHook       func(State)
}

// New takes ownership of display and touch (touch may be nil), Close releases them.
func New(config Config, disp display.Device, tch touch.Device, log *log2.Log) *Panel {
	def := DefaultConfig()
	if config.FrameInterval == 0 {
		config.FrameInterval = def.FrameInterval
	}
	if config.IdleInterval == 0 {
		config.IdleInterval = def.IdleInterval
	}
	if config.IdleText == "" {
		config.IdleText = def.IdleText
	}
	if config.Calibration == (touch.Calibration{}) {
		config.Calibration = def.Calibration
	}
	if config.Area.Empty() {
		size := disp.Size()
		config.Area = geom.R(0, 0, size.X, size.Y)
	}
	p := &Panel{
		Log:        log,
		config:     config,
		display:    disp,
		touch:      tch,
		bus:        bus.New(log),
		grid:       layout.NewGrid(config.Area, config.Cols, config.Rows),
		lastBounds: make(map[widget.Widget]geom.Rect),
		scratch:    widget.NewSurface(),
		rand:       helpers.RandUnix(),
	}
	return p
}

func (p *Panel) Config() Config   { return p.config }
func (p *Panel) Grid() layout.Grid { return p.grid }
func (p *Panel) Bus() *bus.Bus     { return p.bus }

// Add places widget in grid cell, later added widgets are on top for hit testing.
// Overlap is not checked.
func (p *Panel) Add(w widget.Widget, col, row, colspan, rowspan, page int) {
	place := layout.Placement{Col: col, Row: row, ColSpan: colspan, RowSpan: rowspan, Page: page}.Normalize()
	r := p.grid.Rect(place)
	w.SetBounds(r)
	w.SetPage(place.Page)
	p.widgets = append(p.widgets, w)
	p.lastBounds[w] = r
	p.Log.Debugf("panel add %s id=%s page=%d bounds=%s", w.Kind(), w.ID(), place.Page, r)
}

func (p *Panel) AddButton(id, label string, col, row, colspan, rowspan, page int) *widget.Toggle {
	w := widget.NewButton(id, label, page)
	p.Add(w, col, row, colspan, rowspan, page)
	return w
}

func (p *Panel) AddLight(id, label string, col, row, colspan, rowspan, page int) *widget.Toggle {
	w := widget.NewLight(id, label, page)
	p.Add(w, col, row, colspan, rowspan, page)
	return w
}

func (p *Panel) AddClock(id string, col, row, colspan, rowspan, page int) *widget.Clock {
	w := widget.NewClock(id, page)
	p.Add(w, col, row, colspan, rowspan, page)
	return w
}

func (p *Panel) AddAnalogClock(id string, col, row, colspan, rowspan, page int) *widget.AnalogClock {
	w := widget.NewAnalogClock(id, page)
	p.Add(w, col, row, colspan, rowspan, page)
	return w
}

func (p *Panel) AddEnv(id string, col, row, colspan, rowspan, page int) *widget.Env {
	w := widget.NewEnv(id, page)
	p.Add(w, col, row, colspan, rowspan, page)
	return w
}

func (p *Panel) AddQR(id, text string, col, row, colspan, rowspan, page int) *widget.QR {
	w := widget.NewQR(id, text, page)
	p.Add(w, col, row, colspan, rowspan, page)
	return w
}

// AddPagingButtons adds "<" and ">" buttons switching pages.
func (p *Panel) AddPagingButtons(prevCol, prevRow, nextCol, nextRow, page int) {
	p.AddButton(IDPagePrev, "<", prevCol, prevRow, 1, 1, page)
	p.AddButton(IDPageNext, ">", nextCol, nextRow, 1, 1, page)
	p.SetItemClick(IDPagePrev, p.PrevPage)
	p.SetItemClick(IDPageNext, p.NextPage)
}

// each calls f for every widget with id, returns number of matches.
func (p *Panel) each(id string, f func(widget.Widget)) int {
	n := 0
	for _, w := range p.widgets {
		if w.ID() == id {
			f(w)
			n++
		}
	}
	if n == 0 {
		p.Log.Debugf("panel widget id=%s not found", id)
	}
	return n
}

// Widget returns first widget with id.
func (p *Panel) Widget(id string) (widget.Widget, bool) {
	for _, w := range p.widgets {
		if w.ID() == id {
			return w, true
		}
	}
	return nil, false
}

func (p *Panel) Widgets() []widget.Widget {
	ws := make([]widget.Widget, len(p.widgets))
	copy(ws, p.widgets)
	return ws
}

// SetItemClick sets callback on every widget with id, unknown id is no-op.
func (p *Panel) SetItemClick(id string, fn func()) {
	p.each(id, func(w widget.Widget) {
		if !w.SetOnClick(fn) {
			p.Log.Debugf("panel id=%s click callback replaced", id)
		}
	})
}

// OnUnhandledClick receives ids of clicked widgets without own callback.
func (p *Panel) OnUnhandledClick(fn func(id string)) { p.unhandledClick = fn }

func (p *Panel) setState(id string, on bool) {
	p.each(id, func(w widget.Widget) {
		if s, ok := w.(widget.Stater); ok {
			s.SetState(on)
		}
	})
}

func (p *Panel) SetButtonState(id string, on bool) { p.setState(id, on) }
func (p *Panel) SetLightState(id string, on bool)  { p.setState(id, on) }

func (p *Panel) SetQRText(id, text string) {
	p.each(id, func(w widget.Widget) {
		if t, ok := w.(widget.Texter); ok {
			t.SetText(text)
		}
	})
}

// SetTime is delivered to all widgets regardless of page.
func (p *Panel) SetTime(hours, minutes, seconds int) {
	for _, w := range p.widgets {
		w.OnTimeUpdate(hours, minutes, seconds)
	}
}

func (p *Panel) SetEnv(temperature, humidity float64) {
	for _, w := range p.widgets {
		w.OnEnvUpdate(temperature, humidity)
	}
}

func (p *Panel) Page() int { return p.page }

func (p *Panel) maxPage() int {
	pages := make([]int, len(p.widgets))
	for i, w := range p.widgets {
		pages[i] = w.Page()
	}
	return layout.MaxPage(pages)
}

func (p *Panel) NextPage() { p.SetPage(layout.NextPage(p.page, p.maxPage())) }
func (p *Panel) PrevPage() { p.SetPage(layout.PrevPage(p.page, p.maxPage())) }

// SetPage wraps page into [0,max] and re-dirties visible widgets.
func (p *Panel) SetPage(page int) {
	n := p.maxPage() + 1
	page = ((page % n) + n) % n
	if page != p.page {
		p.Log.Debugf("panel page %d -> %d", p.page, page)
	}
	p.page = page
	p.invalidateVisiblePage()
}

// invalidateVisiblePage re-applies last bounds, which marks widgets dirty.
func (p *Panel) invalidateVisiblePage() {
	for _, w := range p.widgets {
		if w.Page() != p.page {
			continue
		}
		if r, ok := p.lastBounds[w]; ok {
			w.SetBounds(r)
		}
	}
}

// ScratchSize returns allocated size of shared render buffer.
func (p *Panel) ScratchSize() image.Point { return p.scratch.Cap() }

// Post schedules f to run on the frame loop before next frame.
// Safe to call from any goroutine.
func (p *Panel) Post(f func(*Panel)) {
	p.postLk.Lock()
	p.posted = append(p.posted, f)
	p.postLk.Unlock()
}

func (p *Panel) drainPosted() {
	p.postLk.Lock()
	fs := p.posted
	p.posted = nil
	p.postLk.Unlock()
	for _, f := range fs {
		f(p)
	}
}

// Close releases widgets, scratch buffer and hardware.
func (p *Panel) Close() error {
	p.widgets = nil
	p.lastBounds = make(map[widget.Widget]geom.Rect)
	p.scratch = widget.NewSurface()
	errs := make([]error, 0, 2)
	if p.touch != nil {
		errs = append(errs, errors.Annotate(p.touch.Close(), "touch close"))
	}
	errs = append(errs, errors.Annotate(p.display.Close(), "display close"))
	return helpers.FoldErrors(errs)
}
