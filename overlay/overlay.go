// seehuhn.de/go/pdfview - a PDF viewer with freehand annotations
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package overlay paints the annotation layer of a page: the committed
// strokes, the stroke currently being drawn, the dashed lasso and the
// dashed box around a selection which is being dragged.
//
// Strokes are given in document units and painted through the device
// matrix of the page layout, so that they scale with the zoom.  Guides
// (lasso and box) have a fixed width and dash pattern in display pixels.
package overlay

import (
	"image"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/pdfview/annotation"
	"seehuhn.de/go/pdfview/layout"
	"seehuhn.de/go/pdfview/raster"
)

// Appearance of the lasso and the drag box.
var (
	GuideColor = annotation.MustParseColor("#0ea5e9")
	LassoDash  = []float64{6, 6}
	BoxDash    = []float64{5, 4}
)

const (
	// GuideWidth is the line width of the lasso and the drag box, in
	// display pixels.
	GuideWidth = 2.0

	// LassoFillOpacity is the opacity of the area enclosed by the lasso.
	LassoFillOpacity = 0.1
)

// Scene lists everything shown on the overlay of one page.
type Scene struct {
	// Strokes are the committed strokes, in drawing order.
	Strokes []annotation.Stroke

	// Preview, if not nil, is the stroke currently being drawn.
	Preview *annotation.Stroke

	// Lasso is the lasso path in document units.  Paths with fewer than
	// two points are not shown.
	Lasso []vec.Vec2

	// Box, if not nil, is the bounding box of a dragged selection in
	// document units.
	Box *rect.Rect
}

// Painter draws annotation scenes onto RGBA images.
// A Painter is not safe for concurrent use.
type Painter struct {
	r *raster.Rasteriser
}

// NewPainter returns a new Painter.
func NewPainter() *Painter {
	return &Painter{r: raster.NewRasteriser(rect.Rect{})}
}

// Paint clears dst and draws the scene.  The image must have the size
// returned by l.DevicePixels(dpr).
func (p *Painter) Paint(dst *image.RGBA, l layout.Layout, dpr float64, sc *Scene) {
	raster.Clear(dst)
	if sc == nil {
		return
	}
	for i := range sc.Strokes {
		p.Stroke(dst, l, dpr, &sc.Strokes[i])
	}
	if sc.Preview != nil {
		p.Stroke(dst, l, dpr, sc.Preview)
	}
	if len(sc.Lasso) > 1 {
		p.Lasso(dst, l, dpr, sc.Lasso)
	}
	if sc.Box != nil {
		p.Box(dst, l, dpr, *sc.Box)
	}
}

// Stroke draws a single stroke with round joins and caps.
func (p *Painter) Stroke(dst *image.RGBA, l layout.Layout, dpr float64, s *annotation.Stroke) {
	if len(s.Points) == 0 {
		return
	}
	p.setup(dst, l.DeviceMatrix(dpr), s.Width, nil)
	p.r.Stroke(s.Polyline(), raster.Blend(dst, s.Color.NRGBA(1), s.Opacity))
}

// Segment draws the part of a stroke between the points a and b, using the
// style of s.  This is used for the incremental preview while drawing; the
// points of s are ignored.
func (p *Painter) Segment(dst *image.RGBA, l layout.Layout, dpr float64, s *annotation.Stroke, a, b vec.Vec2) {
	p.setup(dst, l.DeviceMatrix(dpr), s.Width, nil)
	p.r.Stroke([]vec.Vec2{a, b}, raster.Blend(dst, s.Color.NRGBA(1), s.Opacity))
}

// Lasso draws the closed lasso polygon with a light fill and a dashed
// outline.
func (p *Painter) Lasso(dst *image.RGBA, l layout.Layout, dpr float64, poly []vec.Vec2) {
	path := make([]vec.Vec2, 0, len(poly))
	for _, q := range poly {
		path = append(path, l.ToDisplay(q))
	}

	p.setup(dst, guideMatrix(dpr), GuideWidth, nil)
	if len(path) > 2 {
		p.r.FillEvenOdd([][]vec.Vec2{path}, raster.Blend(dst, GuideColor.NRGBA(1), LassoFillOpacity))
	}

	p.r.Dash = LassoDash
	p.r.Stroke(path, raster.Blend(dst, GuideColor.NRGBA(1), 1))
}

// Box draws a dashed rectangle.
func (p *Painter) Box(dst *image.RGBA, l layout.Layout, dpr float64, box rect.Rect) {
	ll := l.ToDisplay(vec.Vec2{X: box.LLx, Y: box.LLy})
	ur := l.ToDisplay(vec.Vec2{X: box.URx, Y: box.URy})
	path := []vec.Vec2{
		ll,
		{X: ur.X, Y: ll.Y},
		ur,
		{X: ll.X, Y: ur.Y},
		ll,
	}

	p.setup(dst, guideMatrix(dpr), GuideWidth, BoxDash)
	p.r.Stroke(path, raster.Blend(dst, GuideColor.NRGBA(1), 1))
}

func (p *Painter) setup(dst *image.RGBA, ctm matrix.Matrix, width float64, dash []float64) {
	p.r.Reset(raster.ClipRect(dst))
	p.r.CTM = ctm
	p.r.Width = width
	p.r.Dash = dash
}

// guideMatrix maps display pixels to device pixels.
func guideMatrix(dpr float64) matrix.Matrix {
	if dpr <= 0 {
		dpr = 1
	}
	return matrix.Scale(dpr, dpr)
}
