package display

import (
	"image"
	"image/color"

	"github.com/juju/errors"
	"github.com/temoto/touchpanel/geom"
	"github.com/temoto/touchpanel/hardware/display/framebuffer"
)

// FB is Device backed by kernel framebuffer, power opcodes map to FBIOBLANK.
type FB struct {
	fb *framebuffer.Framebuffer
}

var _ Device = &FB{}

func NewFb(dev string) (*FB, error) {
	fb, err := framebuffer.New(dev)
	if err != nil {
		return nil, errors.Annotatef(err, "framebuffer device=%s", dev)
	}
	return &FB{fb: fb}, nil
}

func (d *FB) Size() image.Point { return d.fb.Size() }

func (d *FB) Fill(r geom.Rect, c color.RGBA) error {
	return errors.Annotate(d.fb.FillRect(r.Image(), c), "fb fill")
}

func (d *FB) Blit(x, y int, src *image.RGBA, sr image.Rectangle) error {
	return errors.Annotate(d.fb.WriteRect(image.Point{X: x, Y: y}, src, sr), "fb blit")
}

func (d *FB) Command(op Opcode) error {
	switch op {
	case DisplayOff:
		return d.fb.Blank(framebuffer.BlankNormal)
	case SleepIn:
		return d.fb.Blank(framebuffer.BlankPowerdown)
	case SleepOut:
		// kernel resumes on unblank
		return nil
	case DisplayOn:
		return d.fb.Blank(framebuffer.BlankUnblank)
	}
	return errors.NotSupportedf("fb command=%s", op)
}

func (d *FB) Close() error { return d.fb.Close() }
