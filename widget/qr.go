package widget

import (
	"image"

	"github.com/juju/errors"
	"github.com/skip2/go-qrcode"
)

const KindQR = "qr"

// QR renders text payload as QR code centered in bounds.
type QR struct {
	Base
	text  string
	level qrcode.RecoveryLevel
	err   error
}

var _ Widget = new(QR)
var _ Texter = new(QR)

func NewQR(id, text string, page int) *QR {
	return &QR{Base: NewBase(id, KindQR, page), text: text, level: qrcode.Medium}
}

func (q *QR) Text() string { return q.text }

func (q *QR) SetText(text string) {
	if q.text != text {
		q.text = text
		q.Invalidate()
	}
}

// Err returns encode error of the last render.
func (q *QR) Err() error { return q.err }

func (q *QR) RenderIfDirty(s *Surface) bool {
	q.err = nil
	if q.text == "" {
		return false
	}
	b := q.Bounds()
	qr, err := qrcode.New(q.text, q.level)
	if err != nil {
		q.err = errors.Annotate(err, "QR")
		s.Text("QR?", b.W/2, b.H/2, 2, MiddleCenter, Red)
		return true
	}
	qr.DisableBorder = true
	size := minInt(b.W, b.H) - 4
	img, ok := qr.Image(size).(*image.Paletted)
	if !ok {
		q.err = errors.NotSupportedf("QR image type")
		s.Text("QR?", b.W/2, b.H/2, 2, MiddleCenter, Red)
		return true
	}
	if img.Rect.Dx() > b.W || img.Rect.Dy() > b.H {
		q.err = errors.Errorf("QR image size=%s > widget size=%s", img.Bounds().Max.String(), b.Size().String())
		s.Text("QR?", b.W/2, b.H/2, 2, MiddleCenter, Red)
		return true
	}
	ox := (b.W - img.Rect.Dx()) / 2
	oy := (b.H - img.Rect.Dy()) / 2
	paletted2(s, img, ox, oy)
	return true
}

func paletted2(s *Surface, img *image.Paletted, ox, oy int) {
	min, max := img.Bounds().Min, img.Bounds().Max
	bg := toRGBA(img.Palette[0])
	fg := toRGBA(img.Palette[1])
	for y := min.Y; y < max.Y; y++ {
		for x := min.X; x < max.X; x++ {
			c := bg
			if img.Pix[img.PixOffset(x, y)] != 0 {
				c = fg
			}
			s.Set(ox+x-min.X, oy+y-min.Y, c)
		}
	}
}
