package widget

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	Black     = color.RGBA{0x00, 0x00, 0x00, 0xff}
	White     = color.RGBA{0xff, 0xff, 0xff, 0xff}
	Red       = color.RGBA{0xff, 0x00, 0x00, 0xff}
	Green     = color.RGBA{0x00, 0xfc, 0x00, 0xff}
	Yellow    = color.RGBA{0xff, 0xfc, 0x00, 0xff}
	Navy      = color.RGBA{0x00, 0x00, 0x7b, 0xff}
	DarkGrey  = color.RGBA{0x7b, 0x7d, 0x7b, 0xff}
	LightGrey = color.RGBA{0xd6, 0xd3, 0xd6, 0xff}
	Silver    = color.RGBA{0xc6, 0xc3, 0xc6, 0xff}
	Card      = color.RGBA{0x21, 0x20, 0x21, 0xff}
	Highlight = color.RGBA{0xc6, 0xc3, 0xc6, 0xff}
	Thermo    = color.RGBA{0xff, 0x20, 0x00, 0xff}
	Water     = color.RGBA{0x00, 0x04, 0xff, 0xff}
)

type Anchor uint8

const (
	TopLeft Anchor = iota
	TopCenter
	MiddleCenter
)

var face = basicfont.Face7x13

// Surface is the scratch drawing target shared by all widgets.
// Allocated pixel buffer only grows, View() is the current widget-sized window into it.
type Surface struct {
	buf  *image.RGBA
	view *image.RGBA
}

func NewSurface() *Surface {
	s := &Surface{buf: image.NewRGBA(image.Rectangle{})}
	s.view = s.buf
	return s
}

// Cap returns allocated size.
func (s *Surface) Cap() image.Point { return s.buf.Rect.Size() }

// Size returns current view size.
func (s *Surface) Size() image.Point { return s.view.Rect.Size() }

// View returns pixels of current w*h window, origin (0,0).
func (s *Surface) View() *image.RGBA { return s.view }

// Ensure grows allocation to at least w*h, never shrinks. Returns true if reallocated.
func (s *Surface) Ensure(w, h int) bool {
	cur := s.Cap()
	if w <= cur.X && h <= cur.Y {
		return false
	}
	if cur.X > w {
		w = cur.X
	}
	if cur.Y > h {
		h = cur.Y
	}
	s.buf = image.NewRGBA(image.Rect(0, 0, w, h))
	s.view = s.buf
	return true
}

// Reset selects w*h window and fills it with bg.
func (s *Surface) Reset(w, h int, bg color.RGBA) {
	s.Ensure(w, h)
	s.view = s.buf.SubImage(image.Rect(0, 0, w, h)).(*image.RGBA)
	draw.Draw(s.view, s.view.Rect, image.NewUniform(bg), image.Point{}, draw.Src)
}

func (s *Surface) At(x, y int) color.RGBA {
	if !(image.Point{X: x, Y: y}).In(s.view.Rect) {
		return color.RGBA{}
	}
	return s.view.RGBAAt(x, y)
}

func (s *Surface) Set(x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(s.view.Rect) {
		s.view.SetRGBA(x, y, c)
	}
}

func (s *Surface) hline(x0, x1, y int, c color.RGBA) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		s.Set(x, y, c)
	}
}

func (s *Surface) FillRect(x, y, w, h int, c color.RGBA) {
	r := image.Rect(x, y, x+w, y+h).Intersect(s.view.Rect)
	if r.Empty() {
		return
	}
	draw.Draw(s.view, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func (s *Surface) StrokeRect(x, y, w, h int, c color.RGBA) {
	s.hline(x, x+w-1, y, c)
	s.hline(x, x+w-1, y+h-1, c)
	for yy := y; yy < y+h; yy++ {
		s.Set(x, yy, c)
		s.Set(x+w-1, yy, c)
	}
}

// roundInset returns horizontal inset of row dy inside w*h rectangle with corner radius r.
func roundInset(dy, h, r int) int {
	var ddy int
	switch {
	case dy < r:
		ddy = r - dy
	case dy >= h-r:
		ddy = dy - (h - 1 - r)
	default:
		return 0
	}
	dx := int(math.Sqrt(float64(r*r - ddy*ddy)))
	return r - dx
}

func clampRadius(w, h, r int) int {
	if r*2 > w {
		r = w / 2
	}
	if r*2 > h {
		r = h / 2
	}
	if r < 0 {
		r = 0
	}
	return r
}

func (s *Surface) FillRoundRect(x, y, w, h, r int, c color.RGBA) {
	r = clampRadius(w, h, r)
	for dy := 0; dy < h; dy++ {
		in := roundInset(dy, h, r)
		s.hline(x+in, x+w-1-in, y+dy, c)
	}
}

func (s *Surface) StrokeRoundRect(x, y, w, h, r int, c color.RGBA) {
	r = clampRadius(w, h, r)
	inside := func(dx, dy int) bool {
		if dx < 0 || dy < 0 || dx >= w || dy >= h {
			return false
		}
		in := roundInset(dy, h, r)
		return dx >= in && dx <= w-1-in
	}
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			if !inside(dx, dy) {
				continue
			}
			if !inside(dx-1, dy) || !inside(dx+1, dy) || !inside(dx, dy-1) || !inside(dx, dy+1) {
				s.Set(x+dx, y+dy, c)
			}
		}
	}
}

func (s *Surface) FillCircle(cx, cy, r int, c color.RGBA) {
	for dy := -r; dy <= r; dy++ {
		dx := int(math.Sqrt(float64(r*r - dy*dy)))
		s.hline(cx-dx, cx+dx, cy+dy, c)
	}
}

// StrokeCircle is midpoint circle.
func (s *Surface) StrokeCircle(cx, cy, r int, c color.RGBA) {
	x, y := r, 0
	err := 1 - r
	for x >= y {
		for _, p := range [8][2]int{{x, y}, {y, x}, {-y, x}, {-x, y}, {-x, -y}, {-y, -x}, {y, -x}, {x, -y}} {
			s.Set(cx+p[0], cy+p[1], c)
		}
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2*(y-x) + 1
		}
	}
}

// Line is Bresenham.
func (s *Surface) Line(x0, y0, x1, y1 int, c color.RGBA) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		s.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (s *Surface) FillTriangle(x0, y0, x1, y1, x2, y2 int, c color.RGBA) {
	minX, maxX := min3(x0, x1, x2), max3(x0, x1, x2)
	minY, maxY := min3(y0, y1, y2), max3(y0, y1, y2)
	edge := func(ax, ay, bx, by, px, py int) int {
		return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
	}
	area := edge(x0, y0, x1, y1, x2, y2)
	if area == 0 {
		s.Line(x0, y0, x1, y1, c)
		s.Line(x1, y1, x2, y2, c)
		return
	}
	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			w0 := edge(x1, y1, x2, y2, px, py)
			w1 := edge(x2, y2, x0, y0, px, py)
			w2 := edge(x0, y0, x1, y1, px, py)
			if (area > 0 && w0 >= 0 && w1 >= 0 && w2 >= 0) || (area < 0 && w0 <= 0 && w1 <= 0 && w2 <= 0) {
				s.Set(px, py, c)
			}
		}
	}
}

// TextWidth returns pixel width of text at integer scale.
func TextWidth(text string, scale int) int {
	return font.MeasureString(face, text).Round() * scale
}

func TextHeight(scale int) int { return face.Height * scale }

// Text draws basicfont glyphs magnified by integer scale, no anti-aliasing.
func (s *Surface) Text(text string, x, y, scale int, anchor Anchor, fg color.RGBA) {
	if scale < 1 {
		scale = 1
	}
	switch anchor {
	case TopCenter:
		x -= TextWidth(text, scale) / 2
	case MiddleCenter:
		x -= TextWidth(text, scale) / 2
		y -= TextHeight(scale) / 2
	}
	dot := fixed.P(0, face.Ascent)
	for _, r := range text {
		dr, mask, mp, advance, ok := face.Glyph(dot, r)
		if !ok {
			dr, mask, mp, advance, _ = face.Glyph(dot, '?')
		}
		for gy := 0; gy < dr.Dy(); gy++ {
			for gx := 0; gx < dr.Dx(); gx++ {
				if _, _, _, a := mask.At(mp.X+gx, mp.Y+gy).RGBA(); a == 0 {
					continue
				}
				s.FillRect(x+(dr.Min.X+gx)*scale, y+(dr.Min.Y+gy)*scale, scale, scale, fg)
			}
		}
		dot.X += advance
	}
}

func absInt(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func max3(a, b, c int) int {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}

func minInt(i1, i2 int) int {
	if i1 <= i2 {
		return i1
	}
	return i2
}

func toRGBA(c color.Color) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}
