// Package touch reads resistive touch controller samples and maps them to screen pixels.
package touch

import (
	"fmt"
	"image"

	"github.com/juju/errors"
)

// ErrStopped is the cause of every error from a device whose reader has terminated.
var ErrStopped = errors.New("touch reader stopped")

// Raw is controller sample before calibration, Z is pressure estimate.
type Raw struct{ X, Y, Z int }

func (r Raw) String() string { return fmt.Sprintf("x=%d y=%d z=%d", r.X, r.Y, r.Z) }

type Device interface {
	Pressed() (bool, error)
	Sample() (Raw, error)
	// PressedOnBus is true when Pressed needs a transaction on shared SPI bus.
	PressedOnBus() bool
	Close() error
}

// Calibration ranges apply after optional axis swap:
// RawX0..RawX1 maps to screen 0..width, RawY0..RawY1 to 0..height.
// Reversed range flips the axis.
type Calibration struct {
	RawX0  int
	RawX1  int
	RawY0  int
	RawY1  int
	SwapXY bool
	ZMin   int
	ZMax   int
}

func DefaultCalibration() Calibration {
	return Calibration{
		RawX0:  200,
		RawX1:  3800,
		RawY0:  200,
		RawY1:  3800,
		SwapXY: true,
		ZMin:   5,
		ZMax:   4095,
	}
}

// Plausible rejects noise (too light) and saturated (too heavy) samples.
func (c Calibration) Plausible(z int) bool {
	return z >= c.ZMin && z <= c.ZMax
}

// Map converts raw sample to pixel within [0,size.X-1]x[0,size.Y-1].
func (c Calibration) Map(r Raw, size image.Point) image.Point {
	rx, ry := r.X, r.Y
	if c.SwapXY {
		rx, ry = ry, rx
	}
	return image.Point{
		X: clamp(mapRange(rx, c.RawX0, c.RawX1, 0, size.X), 0, size.X-1),
		Y: clamp(mapRange(ry, c.RawY0, c.RawY1, 0, size.Y), 0, size.Y-1),
	}
}

func mapRange(x, inMin, inMax, outMin, outMax int) int {
	if inMax == inMin {
		return outMin
	}
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
