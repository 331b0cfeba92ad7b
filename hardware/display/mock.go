package display

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/temoto/touchpanel/geom"
)

type OpKind uint8

const (
	OpFill OpKind = iota
	OpBlit
	OpCommand
	OpClose
)

// Op is one recorded Mock call.
type Op struct {
	Kind   OpKind
	Rect   geom.Rect
	Color  color.RGBA
	Opcode Opcode
}

func (op Op) String() string {
	switch op.Kind {
	case OpFill:
		return fmt.Sprintf("fill %s #%02x%02x%02x", op.Rect, op.Color.R, op.Color.G, op.Color.B)
	case OpBlit:
		return "blit " + op.Rect.String()
	case OpCommand:
		return "command " + op.Opcode.String()
	case OpClose:
		return "close"
	}
	return fmt.Sprintf("Op(%d)", op.Kind)
}

// Mock keeps pixels in memory and records every call.
type Mock struct {
	mu   sync.Mutex
	pix  []color.RGBA
	size image.Point
	ops  []Op
	err  error
}

var _ Device = &Mock{}

func NewMock(size image.Point) *Mock {
	return &Mock{
		pix:  make([]color.RGBA, size.X*size.Y),
		size: size,
	}
}

// FailWith makes every following call return err, nil restores normal operation.
func (d *Mock) FailWith(err error) {
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
}

func (d *Mock) Size() image.Point { return d.size }

func (d *Mock) Fill(r geom.Rect, c color.RGBA) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops = append(d.ops, Op{Kind: OpFill, Rect: r, Color: c})
	if d.err != nil {
		return d.err
	}
	target := r.Image().Intersect(image.Rectangle{Max: d.size})
	for y := target.Min.Y; y < target.Max.Y; y++ {
		for x := target.Min.X; x < target.Max.X; x++ {
			d.set(x, y, c)
		}
	}
	return nil
}

func (d *Mock) Blit(x, y int, src *image.RGBA, sr image.Rectangle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops = append(d.ops, Op{Kind: OpBlit, Rect: geom.R(x, y, sr.Dx(), sr.Dy())})
	if d.err != nil {
		return d.err
	}
	target, from := clip(d.size, x, y, sr)
	for dy := 0; dy < target.Dy(); dy++ {
		for dx := 0; dx < target.Dx(); dx++ {
			d.set(target.Min.X+dx, target.Min.Y+dy, src.RGBAAt(from.Min.X+dx, from.Min.Y+dy))
		}
	}
	return nil
}

func (d *Mock) Command(op Opcode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops = append(d.ops, Op{Kind: OpCommand, Opcode: op})
	return d.err
}

func (d *Mock) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops = append(d.ops, Op{Kind: OpClose})
	return nil
}

func (d *Mock) Ops() []Op {
	d.mu.Lock()
	defer d.mu.Unlock()
	ops := make([]Op, len(d.ops))
	copy(ops, d.ops)
	return ops
}

func (d *Mock) ResetOps() {
	d.mu.Lock()
	d.ops = d.ops[:0]
	d.mu.Unlock()
}

// Commands returns only opcodes sent, in order.
func (d *Mock) Commands() []Opcode {
	d.mu.Lock()
	defer d.mu.Unlock()
	var cs []Opcode
	for _, op := range d.ops {
		if op.Kind == OpCommand {
			cs = append(cs, op.Opcode)
		}
	}
	return cs
}

// Count returns number of recorded ops of kind.
func (d *Mock) Count(kind OpKind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, op := range d.ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

func (d *Mock) At(x, y int) color.RGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !(image.Point{X: x, Y: y}).In(image.Rectangle{Max: d.size}) {
		return color.RGBA{}
	}
	return d.get(x, y)
}

// Image returns copy of current pixels.
func (d *Mock) Image() *image.RGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	img := image.NewRGBA(image.Rectangle{Max: d.size})
	for y := 0; y < d.size.Y; y++ {
		for x := 0; x < d.size.X; x++ {
			img.SetRGBA(x, y, d.get(x, y))
		}
	}
	return img
}

// String2 renders non-black pixels as full blocks, two chars per pixel.
func (d *Mock) String2() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	b := strings.Builder{}
	b.Grow((d.size.X*2 + 1) * d.size.Y) // +1 for \n
	for y := 0; y < d.size.Y; y++ {
		for x := 0; x < d.size.X; x++ {
			c := d.get(x, y)
			if c.R == 0 && c.G == 0 && c.B == 0 {
				b.WriteString("  ")
			} else {
				b.WriteString("██")
			}
		}
		b.WriteRune('\n')
	}
	return b.String()
}

func (d *Mock) get(x, y int) color.RGBA    { return d.pix[y*d.size.X+x] }
func (d *Mock) set(x, y int, c color.RGBA) { d.pix[y*d.size.X+x] = c }
