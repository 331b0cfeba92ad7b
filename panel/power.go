package panel

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/temoto/touchpanel/hardware/display"
	"github.com/temoto/touchpanel/helpers"
)

type State uint32

const (
	StateAwake        State = iota
	StateGoingOff           // display-off sent, settling
	StateGoingSleep         // sleep-in sent, settling
	StateSleeping           //
	StateWakingOut          // sleep-out sent, settling
	StateWakingOn           // display-on sent, settling
)

const (
	settleDisplay = 20 * time.Millisecond
	settleSleep   = 120 * time.Millisecond
)

func (s State) String() string {
	switch s {
	case StateAwake:
		return "awake"
	case StateGoingOff:
		return "going-to-sleep(off)"
	case StateGoingSleep:
		return "going-to-sleep(sleep)"
	case StateSleeping:
		return "sleeping"
	case StateWakingOut:
		return "waking(out)"
	case StateWakingOn:
		return "waking(on)"
	}
	return fmt.Sprintf("State(%d)", uint32(s))
}

func (p *Panel) PowerState() State    { return State(atomic.LoadUint32((*uint32)(&p.power))) }
func (p *Panel) setPowerState(s State) { atomic.StoreUint32((*uint32)(&p.power), uint32(s)) }

// RequestSleep is safe to call from any goroutine.
// Takes effect at next AWAKE or SLEEPING decision point, never interrupts a transition.
func (p *Panel) RequestSleep(on bool) {
	var v uint32
	if on {
		v = 1
	}
	atomic.StoreUint32(&p.sleepRequested, v)
}

func (p *Panel) SleepRequested() bool { return atomic.LoadUint32(&p.sleepRequested) == 1 }

// stepPower performs at most one transition per call.
// Deadlines compare by signed difference, so counter rollover does not stall.
func (p *Panel) stepPower(now helpers.Millis) {
	current := p.PowerState()
	next := current
	switch current {
	case StateAwake:
		if p.SleepRequested() {
			p.command(display.DisplayOff)
			p.deadline = now.Add(settleDisplay)
			next = StateGoingOff
		}
	case StateGoingOff:
		if now.Reached(p.deadline) {
			p.command(display.SleepIn)
			p.deadline = now.Add(settleSleep)
			next = StateGoingSleep
		}
	case StateGoingSleep:
		if now.Reached(p.deadline) {
			next = StateSleeping
		}
	case StateSleeping:
		if !p.SleepRequested() {
			p.command(display.SleepOut)
			p.deadline = now.Add(settleSleep)
			next = StateWakingOut
		}
	case StateWakingOut:
		if now.Reached(p.deadline) {
			p.command(display.DisplayOn)
			p.deadline = now.Add(settleDisplay)
			next = StateWakingOn
		}
	case StateWakingOn:
		if now.Reached(p.deadline) {
			p.clearScreen()
			p.invalidateVisiblePage()
			next = StateAwake
		}
	default:
		p.Log.Fatalf("panel power state=%s", current.String())
	}
	if next != current {
		p.Log.Debugf("panel power %s -> %s", current.String(), next.String())
		p.setPowerState(next)
		if p.testHook != nil {
			p.testHook(next)
		}
	}
}
