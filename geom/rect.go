// Package geom holds display pixel geometry shared by widgets, layout and hardware.
package geom

import (
	"fmt"
	"image"
)

// Rect is axis-aligned rectangle in display pixel coordinates.
type Rect struct{ X, Y, W, H int }

func R(x, y, w, h int) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func FromImage(r image.Rectangle) Rect {
	return Rect{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Inset shrinks rectangle by n on every side.
func (r Rect) Inset(n int) Rect { return Rect{X: r.X + n, Y: r.Y + n, W: r.W - 2*n, H: r.H - 2*n} }

func (r Rect) Size() image.Point { return image.Point{X: r.W, Y: r.H} }

func (r Rect) Image() image.Rectangle { return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H) }

func (r Rect) String() string { return fmt.Sprintf("%dx%d+%d+%d", r.W, r.H, r.X, r.Y) }
