package panel

import (
	"fmt"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/alive/v2"
	"github.com/temoto/touchpanel/geom"
	"github.com/temoto/touchpanel/hardware/bus"
	"github.com/temoto/touchpanel/hardware/display"
	"github.com/temoto/touchpanel/hardware/touch"
	"github.com/temoto/touchpanel/helpers"
	"github.com/temoto/touchpanel/widget"
)

func TestPageIsolation(t *testing.T) {
	t.Parallel()

	p, disp, tch := newTestPanel(t)
	a, b := newSpy("a", 0), newSpy("b", 1)
	p.Add(a, 0, 0, 1, 1, 0)
	p.Add(b, 0, 0, 1, 1, 1)
	tap(tch, 50, 50)

	p.Step(0)
	assert.Equal(t, [3]int{1, 1, 1}, [3]int{a.ticks, a.renders, a.clicks})
	assert.Equal(t, [3]int{0, 0, 0}, [3]int{b.ticks, b.renders, b.clicks})
	assert.Equal(t, []geom.Rect{geom.R(1, 1, 158, 158)}, blits(disp))

	p.SetPage(1)
	p.Step(20)
	assert.Equal(t, [3]int{1, 1, 1}, [3]int{a.ticks, a.renders, a.clicks})
	assert.Equal(t, [3]int{1, 1, 1}, [3]int{b.ticks, b.renders, b.clicks})
}

func TestPageWrap(t *testing.T) {
	t.Parallel()

	p, _, _ := newTestPanel(t)
	for page := 0; page < 3; page++ {
		p.Add(newSpy(fmt.Sprint(page), page), 0, 0, 1, 1, page)
	}
	p.SetPage(2)
	p.NextPage()
	assert.Equal(t, 0, p.Page())
	p.PrevPage()
	assert.Equal(t, 2, p.Page())
	p.PrevPage()
	assert.Equal(t, 1, p.Page())

	type Case struct {
		input  int
		expect int
	}
	for _, c := range []Case{{0, 0}, {2, 2}, {5, 2}, {3, 0}, {-1, 2}} {
		p.SetPage(c.input)
		assert.Equal(t, c.expect, p.Page(), "SetPage(%d)", c.input)
	}
}

func TestPageSwitchRedirty(t *testing.T) {
	t.Parallel()

	p, _, _ := newTestPanel(t)
	a := newSpy("a", 1)
	p.Add(a, 0, 0, 1, 1, 1)
	require.True(t, a.ClearDirty())
	p.NextPage()
	assert.Equal(t, 1, p.Page())
	assert.True(t, a.ClearDirty())
	assert.False(t, a.ClearDirty())
}

func TestTopmostWins(t *testing.T) {
	t.Parallel()

	p, _, tch := newTestPanel(t)
	a, b := newSpy("a", 0), newSpy("b", 0)
	p.Add(a, 0, 0, 2, 1, 0)
	p.Add(b, 1, 0, 1, 1, 0)
	tap(tch, 200, 50)
	p.Step(0)
	assert.Equal(t, 0, a.clicks)
	assert.Equal(t, 1, b.clicks)

	tap(tch, 50, 50)
	p.Step(20)
	assert.Equal(t, 1, a.clicks)
	assert.Equal(t, 1, b.clicks)

	// held press is not deduplicated
	p.Step(40)
	assert.Equal(t, 2, a.clicks)

	tch.Release()
	p.Step(60)
	assert.Equal(t, 2, a.clicks)
	assert.Equal(t, uint32(3), p.Stat().Clicks)
}

func TestUnhandledClick(t *testing.T) {
	t.Parallel()

	p, _, tch := newTestPanel(t)
	p.AddButton("lamp", "Lamp", 0, 0, 1, 1, 0)
	var got []string
	p.OnUnhandledClick(func(id string) { got = append(got, id) })
	tap(tch, 10, 10)
	p.Step(0)
	assert.Equal(t, []string{"lamp"}, got)

	handled := 0
	p.SetItemClick("lamp", func() { handled++ })
	p.Step(20)
	assert.Equal(t, []string{"lamp"}, got)
	assert.Equal(t, 1, handled)
}

func TestTouchRejected(t *testing.T) {
	t.Parallel()

	p, _, tch := newTestPanel(t)
	a := newSpy("a", 0)
	p.Add(a, 0, 0, 1, 1, 0)
	for _, z := range []int{0, 4, 4096} {
		tch.Touch(touch.Raw{X: 50, Y: 50, Z: z})
		p.Step(0)
	}
	assert.Equal(t, 0, a.clicks)
	s := p.Stat()
	assert.Equal(t, uint32(3), s.Touches)
	assert.Equal(t, uint32(3), s.TouchRejected)

	// clamped into screen, bottom right cell is empty
	tch.Touch(touch.Raw{X: 9000, Y: 9000, Z: 100})
	p.Step(20)
	assert.Equal(t, 0, a.clicks)
	tch.Touch(touch.Raw{X: -100, Y: -100, Z: 100})
	p.Step(40)
	assert.Equal(t, 0, a.clicks, "clamped to 0,0 which is inset border")
	tch.Touch(touch.Raw{X: 1, Y: 1, Z: 100})
	p.Step(60)
	assert.Equal(t, 1, a.clicks)
}

func TestScratchMonotonic(t *testing.T) {
	t.Parallel()

	p, disp, _ := newTestPanel(t)
	sizes := []geom.Rect{geom.R(0, 0, 10, 10), geom.R(20, 0, 50, 5), geom.R(80, 0, 8, 8)}
	var prev int
	for i, r := range sizes {
		w := newSpy(fmt.Sprint(i), 0)
		p.Add(w, 0, 0, 1, 1, 0)
		w.SetBounds(r)
		p.lastBounds[w] = r
		p.Step(helpers.Millis(i * 20))
		size := p.ScratchSize()
		assert.GreaterOrEqual(t, size.X*size.Y, prev)
		assert.GreaterOrEqual(t, size.X, r.W)
		assert.GreaterOrEqual(t, size.Y, r.H)
		prev = size.X * size.Y
	}
	size := p.ScratchSize()
	assert.GreaterOrEqual(t, size.X, 50)
	assert.GreaterOrEqual(t, size.Y, 10)
	// blit exactly widget bounds
	assert.Equal(t, sizes, blits(disp)[len(blits(disp))-3:])
}

func TestCompositeSkipsClean(t *testing.T) {
	t.Parallel()

	p, disp, _ := newTestPanel(t)
	b := p.AddButton("b", "B", 0, 0, 1, 1, 0)
	p.Step(0)
	p.Step(20)
	assert.Len(t, blits(disp), 1)
	b.SetState(true)
	p.Step(40)
	assert.Len(t, blits(disp), 2)
	assert.Equal(t, widget.Green, disp.At(20, 20))
}

func TestPowerSequence(t *testing.T) {
	t.Parallel()

	p, disp, tch := newTestPanel(t)
	a := newSpy("a", 0)
	p.Add(a, 0, 0, 1, 1, 0)
	var states []State
	p.testHook = func(s State) { states = append(states, s) }
	tap(tch, 50, 50)

	p.RequestSleep(true)
	assert.True(t, p.SleepRequested())
	now := helpers.Millis(1000)
	p.Step(now)
	assert.Equal(t, StateGoingOff, p.PowerState())
	p.Step(now + 19)
	assert.Equal(t, StateGoingOff, p.PowerState())
	p.Step(now + 20)
	assert.Equal(t, StateGoingSleep, p.PowerState())
	p.Step(now + 139)
	assert.Equal(t, StateGoingSleep, p.PowerState())
	p.Step(now + 140)
	assert.Equal(t, StateSleeping, p.PowerState())
	for i := 0; i < 10; i++ {
		p.Step(now + 200 + helpers.Millis(i*20))
	}
	assert.Equal(t, StateSleeping, p.PowerState())

	assert.Equal(t, []State{StateGoingOff, StateGoingSleep, StateSleeping}, states)
	assert.Equal(t, []display.Opcode{display.DisplayOff, display.SleepIn}, disp.Commands())
	assert.Empty(t, blits(disp))
	presses, samples := tch.Counts()
	assert.Equal(t, 0, presses)
	assert.Equal(t, 0, samples)
	assert.Equal(t, [3]int{0, 0, 0}, [3]int{a.ticks, a.renders, a.clicks})
	assert.Equal(t, uint32(2), p.Bus().Stat().Kind[bus.KindCommand])
}

func TestSleepFlagMidTransition(t *testing.T) {
	t.Parallel()

	p, disp, _ := newTestPanel(t)
	p.RequestSleep(true)
	p.Step(0)
	p.RequestSleep(false)
	p.Step(20)
	p.Step(140)
	assert.Equal(t, StateSleeping, p.PowerState(), "transition runs to completion")
	p.Step(141)
	assert.Equal(t, StateWakingOut, p.PowerState())
	assert.Equal(t, []display.Opcode{display.DisplayOff, display.SleepIn, display.SleepOut}, disp.Commands())
}

func TestWake(t *testing.T) {
	t.Parallel()

	p, disp, _ := newTestPanel(t)
	a, b, other := newSpy("a", 0), newSpy("b", 0), newSpy("other", 1)
	p.Add(a, 0, 0, 1, 1, 0)
	p.Add(b, 1, 0, 1, 1, 0)
	p.Add(other, 2, 0, 1, 1, 1)
	p.RequestSleep(true)
	for _, now := range []helpers.Millis{0, 20, 140} {
		p.Step(now)
	}
	require.Equal(t, StateSleeping, p.PowerState())
	for _, w := range []*spy{a, b, other} {
		w.ClearDirty()
	}
	disp.ResetOps()

	p.RequestSleep(false)
	p.stepPower(1000)
	assert.Equal(t, StateWakingOut, p.PowerState())
	p.stepPower(1119)
	assert.Equal(t, StateWakingOut, p.PowerState())
	p.stepPower(1120)
	assert.Equal(t, StateWakingOn, p.PowerState())
	assert.Equal(t, 0, disp.Count(display.OpFill))
	p.stepPower(1140)
	assert.Equal(t, StateAwake, p.PowerState())
	assert.Equal(t, []display.Opcode{display.SleepOut, display.DisplayOn}, disp.Commands())

	ops := disp.Ops()
	require.Len(t, ops, 3)
	assert.Equal(t, display.OpFill, ops[2].Kind)
	assert.Equal(t, geom.R(0, 0, 480, 320), ops[2].Rect)

	for _, w := range []*spy{a, b} {
		assert.True(t, w.ClearDirty(), w.ID())
		assert.False(t, w.ClearDirty(), w.ID())
	}
	assert.False(t, other.ClearDirty())
}

func TestWakeRenders(t *testing.T) {
	t.Parallel()

	p, disp, _ := newTestPanel(t)
	a := newSpy("a", 0)
	p.Add(a, 0, 0, 1, 1, 0)
	p.Step(0)
	require.Equal(t, 1, a.renders)
	p.RequestSleep(true)
	for _, now := range []helpers.Millis{20, 40, 160} {
		p.Step(now)
	}
	p.RequestSleep(false)
	for _, now := range []helpers.Millis{200, 320, 340} {
		p.Step(now)
	}
	assert.Equal(t, StateAwake, p.PowerState())
	assert.Equal(t, 2, a.renders)
	assert.Len(t, blits(disp), 2)
}

func TestPowerWraparound(t *testing.T) {
	t.Parallel()

	p, disp, _ := newTestPanel(t)
	p.RequestSleep(true)
	start := helpers.Millis(0xfffffff0)
	p.Step(start)
	require.Equal(t, StateGoingOff, p.PowerState())
	p.Step(0xffffffff)
	assert.Equal(t, StateGoingOff, p.PowerState())
	p.Step(3)
	assert.Equal(t, StateGoingOff, p.PowerState())
	p.Step(4)
	assert.Equal(t, StateGoingSleep, p.PowerState())
	p.Step(124)
	assert.Equal(t, StateSleeping, p.PowerState())
	assert.Equal(t, []display.Opcode{display.DisplayOff, display.SleepIn}, disp.Commands())
}

func TestIdleIndicator(t *testing.T) {
	t.Parallel()

	p, disp, _ := newTestPanel(t)
	for _, now := range []helpers.Millis{0, 20, 50, 99, 100, 150, 199, 200} {
		p.Step(now)
	}
	rs := blits(disp)
	require.Len(t, rs, 3)
	for _, r := range rs {
		assert.Equal(t, 10, r.X)
		assert.Equal(t, 10, r.Y)
		assert.Equal(t, widget.TextWidth(DefaultIdleText, 3), r.W)
	}

	p.AddButton("b", "B", 0, 0, 1, 1, 0)
	disp.ResetOps()
	p.Step(300)
	p.Step(400)
	assert.Equal(t, []geom.Rect{geom.R(1, 1, 158, 158)}, blits(disp))
}

func TestUnknownID(t *testing.T) {
	t.Parallel()

	p, _, _ := newTestPanel(t)
	b := p.AddButton("b", "B", 0, 0, 1, 1, 0)
	b.ClearDirty()
	p.SetButtonState("nope", true)
	p.SetLightState("nope", true)
	p.SetItemClick("nope", func() { t.Fatal("must not be called") })
	p.SetQRText("nope", "text")
	assert.False(t, b.State())
	assert.False(t, b.ClearDirty())
	_, ok := p.Widget("nope")
	assert.False(t, ok)

	p.SetButtonState("b", true)
	assert.True(t, b.State())
	assert.True(t, b.ClearDirty())
}

func TestFeedUpdates(t *testing.T) {
	t.Parallel()

	p, _, _ := newTestPanel(t)
	c := p.AddClock("clock", 0, 0, 1, 1, 0)
	ac := p.AddAnalogClock("analog", 1, 0, 1, 1, 1)
	e := p.AddEnv("env", 2, 0, 1, 1, 0)
	q := p.AddQR("qr", "hello", 0, 1, 1, 1, 2)
	l := p.AddLight("light", "L", 1, 1, 1, 1, 0)
	for _, w := range p.Widgets() {
		w.ClearDirty()
	}
	p.SetTime(12, 34, 56)
	p.SetEnv(21.5, 40)
	p.SetQRText("qr", "world")
	p.SetLightState("light", true)
	h, m, s := c.Time()
	assert.Equal(t, [3]int{12, 34, 56}, [3]int{h, m, s})
	assert.True(t, ac.ClearDirty(), "time is delivered to other pages")
	temp, hum := e.Values()
	assert.Equal(t, 21.5, temp)
	assert.Equal(t, 40.0, hum)
	assert.Equal(t, "world", q.Text())
	assert.True(t, l.State())
}

func TestPagingButtons(t *testing.T) {
	t.Parallel()

	p, _, tch := newTestPanel(t)
	p.AddPagingButtons(0, 1, 2, 1, 0)
	p.AddPagingButtons(0, 1, 2, 1, 1)
	p.AddButton("p1", "1", 1, 0, 1, 1, 1)
	assert.Equal(t, 0, p.Page())

	tap(tch, 400, 240)
	p.Step(0)
	assert.Equal(t, 1, p.Page())
	p.Step(20)
	assert.Equal(t, 0, p.Page())
	tap(tch, 80, 240)
	p.Step(40)
	assert.Equal(t, 1, p.Page())
}

func TestHardwareErrorAbsorbed(t *testing.T) {
	t.Parallel()

	p, disp, tch := newTestPanel(t)
	a := newSpy("a", 0)
	p.Add(a, 0, 0, 1, 1, 0)
	disp.FailWith(fmt.Errorf("bus fault"))
	tch.FailWith(fmt.Errorf("touch fault"))
	p.Step(0)
	assert.Equal(t, 1, a.renders)
	p.RequestSleep(true)
	p.Step(20)
	p.Step(40)
	p.Step(160)
	assert.Equal(t, StateSleeping, p.PowerState())
	s := p.Stat()
	assert.Equal(t, uint32(4), s.HardwareErrors)
	assert.Equal(t, uint32(2), s.Commands)
	assert.Equal(t, uint32(4), s.Frames)
}

func TestTouchStoppedReportedOnce(t *testing.T) {
	t.Parallel()

	p, _, tch := newTestPanel(t)
	p.AddButton("b", "B", 0, 0, 1, 1, 0)
	tch.FailWith(errors.Annotate(touch.ErrStopped, "evdev"))
	for i := 0; i < 5; i++ {
		p.Step(helpers.Millis(i * 20))
	}
	presses, samples := tch.Counts()
	assert.Equal(t, 5, presses)
	assert.Equal(t, 0, samples)
	assert.Equal(t, uint32(1), p.Stat().HardwareErrors)

	// transient errors are still reported every frame
	tch.FailWith(fmt.Errorf("spi timeout"))
	p.Step(100)
	p.Step(120)
	assert.Equal(t, uint32(3), p.Stat().HardwareErrors)
}

func TestCompositeKeepsDirtyWithoutArea(t *testing.T) {
	t.Parallel()

	p, disp, _ := newTestPanel(t)
	a := newSpy("a", 0)
	p.Add(a, 0, 0, 1, 1, 0)
	r := a.Bounds()
	p.lastBounds[a] = geom.Rect{}
	p.Step(0)
	assert.Equal(t, 0, a.renders)
	assert.True(t, a.IsDirty())
	assert.Empty(t, blits(disp))

	p.lastBounds[a] = r
	p.Step(20)
	assert.Equal(t, 1, a.renders)
	assert.False(t, a.IsDirty())
	assert.Equal(t, []geom.Rect{r}, blits(disp))
}

func TestPressedOffBus(t *testing.T) {
	t.Parallel()

	disp := display.NewMock(geom.R(0, 0, 480, 320).Size())
	tch := touch.NewMock(false)
	config := DefaultConfig()
	config.Calibration = testCalibration
	p := New(config, disp, tch, nil)
	p.AddButton("b", "B", 0, 0, 1, 1, 0)
	p.Step(0)
	p.Step(20)
	tap(tch, 10, 10)
	p.Step(40)
	assert.Equal(t, uint32(1), p.Bus().Stat().Kind[bus.KindTouch])
	presses, samples := tch.Counts()
	assert.Equal(t, 3, presses)
	assert.Equal(t, 1, samples)
}

func TestPostRun(t *testing.T) {
	t.Parallel()

	p, _, _ := newTestPanel(t)
	b := p.AddButton("b", "B", 0, 0, 1, 1, 0)
	a := alive.NewAlive()
	go p.Run(a, helpers.NewMillisClock())

	done := make(chan bool)
	go p.Post(func(p *Panel) {
		p.SetButtonState("b", true)
		done <- b.State()
	})
	select {
	case on := <-done:
		assert.True(t, on)
	case <-time.After(5 * time.Second):
		t.Fatal("posted func did not run")
	}
	a.Stop()
	a.Wait()
	assert.NotZero(t, p.Stat().Frames)
}

func TestClose(t *testing.T) {
	t.Parallel()

	p, disp, _ := newTestPanel(t)
	p.AddButton("b", "B", 0, 0, 1, 1, 0)
	p.Step(0)
	require.NoError(t, p.Close())
	assert.Empty(t, p.Widgets())
	assert.Equal(t, 1, disp.Count(display.OpClose))
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "going-to-sleep(off)", StateGoingOff.String())
	assert.Equal(t, "waking(on)", StateWakingOn.String())
	assert.Equal(t, "State(9)", State(9).String())
}
