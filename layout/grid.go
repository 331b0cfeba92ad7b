// Package layout splits display area into a uniform grid and handles page numbering.
package layout

import "github.com/temoto/touchpanel/geom"

// Inset between adjacent cells so widgets do not visually touch.
const Inset = 1

type Grid struct {
	Area geom.Rect
	Cols int
	Rows int
}

func NewGrid(area geom.Rect, cols, rows int) Grid {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return Grid{Area: area, Cols: cols, Rows: rows}
}

// CellSize is computed by integer division, remainder pixels stay unused.
func (g Grid) CellSize() (w, h int) {
	return g.Area.W / g.Cols, g.Area.H / g.Rows
}

// CellRect does not validate placement, out of grid or overlapping spans are caller's business.
func (g Grid) CellRect(col, row, colspan, rowspan int) geom.Rect {
	cw, ch := g.CellSize()
	return geom.Rect{
		X: g.Area.X + col*cw + Inset,
		Y: g.Area.Y + row*ch + Inset,
		W: cw*colspan - 2*Inset,
		H: ch*rowspan - 2*Inset,
	}
}

// Cells returns all single cells, row-major, without inset.
func (g Grid) Cells() []geom.Rect {
	cw, ch := g.CellSize()
	cells := make([]geom.Rect, 0, g.Cols*g.Rows)
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			cells = append(cells, geom.Rect{X: g.Area.X + c*cw, Y: g.Area.Y + r*ch, W: cw, H: ch})
		}
	}
	return cells
}

// Placement is widget position in grid units.
type Placement struct {
	Col, Row         int
	ColSpan, RowSpan int
	Page             int
}

func (p Placement) Normalize() Placement {
	if p.ColSpan < 1 {
		p.ColSpan = 1
	}
	if p.RowSpan < 1 {
		p.RowSpan = 1
	}
	if p.Page < 0 {
		p.Page = 0
	}
	return p
}

func (g Grid) Rect(p Placement) geom.Rect {
	p = p.Normalize()
	return g.CellRect(p.Col, p.Row, p.ColSpan, p.RowSpan)
}
