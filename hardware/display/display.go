// Package display drives the panel screen: ILI9488 over SPI, Linux framebuffer or in-memory mock.
package display

import (
	"fmt"
	"image"
	"image/color"

	"github.com/temoto/touchpanel/geom"
)

// Opcode is single-byte controller command without parameters.
type Opcode byte

const (
	SleepIn    Opcode = 0x10
	SleepOut   Opcode = 0x11
	DisplayOff Opcode = 0x28
	DisplayOn  Opcode = 0x29
)

func (o Opcode) String() string {
	switch o {
	case SleepIn:
		return "sleep-in"
	case SleepOut:
		return "sleep-out"
	case DisplayOff:
		return "display-off"
	case DisplayOn:
		return "display-on"
	}
	return fmt.Sprintf("Opcode(0x%02x)", byte(o))
}

type Device interface {
	Size() image.Point
	Fill(r geom.Rect, c color.RGBA) error
	// Blit copies src pixels from sr to screen at x,y. Pixels outside screen are dropped.
	Blit(x, y int, src *image.RGBA, sr image.Rectangle) error
	Command(op Opcode) error
	Close() error
}

func Clear(d Device, c color.RGBA) error {
	size := d.Size()
	return d.Fill(geom.R(0, 0, size.X, size.Y), c)
}

// clip returns screen target and matching src rectangle, both empty if nothing visible.
func clip(size image.Point, x, y int, sr image.Rectangle) (image.Rectangle, image.Rectangle) {
	dst := image.Point{X: x, Y: y}
	target := image.Rectangle{Min: dst, Max: dst.Add(sr.Size())}.Intersect(image.Rectangle{Max: size})
	if target.Empty() {
		return image.Rectangle{}, image.Rectangle{}
	}
	from := sr.Min.Add(target.Min.Sub(dst))
	return target, image.Rectangle{Min: from, Max: from.Add(target.Size())}
}
