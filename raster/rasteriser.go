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

// Package raster converts polygons and polylines into anti-aliased pixel
// coverage and composites the result onto RGBA images.
//
// It is used to paint the annotation layer: freehand strokes (round joins and
// caps), the dashed lasso outline and the dashed selection box.
package raster

import (
	"cmp"
	"math"
	"slices"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// edge is a non-horizontal line segment in device coordinates.
type edge struct {
	x0, y0 float64
	x1, y1 float64
	dxdy   float64 // (x1-x0)/(y1-y0)
}

func (e *edge) yMin() float64 { return min(e.y0, e.y1) }
func (e *edge) yMax() float64 { return max(e.y0, e.y1) }

// Rasteriser computes pixel coverage values, the fraction of each pixel's
// area covered by a filled or stroked shape, ranging from 0 (outside) to 1
// (inside).  Create one instance and reuse it; internal buffers grow as
// needed but never shrink.
//
// A Rasteriser is not safe for concurrent use.
type Rasteriser struct {
	// CTM transforms from user space to device space.  Must be non-singular.
	CTM matrix.Matrix

	// Clip bounds output to this device-coordinate rectangle.
	// Coordinates must be integer-aligned.
	Clip rect.Rect

	// Flatness is the maximal deviation, in device pixels, when round joins
	// and caps are approximated by polygons.  Must be positive.
	Flatness float64

	// Width sets the stroke thickness in user-space units.
	Width float64

	// Dash specifies alternating on/off lengths in user-space units.
	// Nil means solid.
	Dash []float64

	// DashPhase offsets into the dash pattern, in user-space units.
	DashPhase float64

	cover  []float32 // per-pixel change of the winding number
	area   []float32 // per-pixel partial coverage
	edges  []edge
	active []int

	// stroke outlines, all polygons stored contiguously
	outline        []vec.Vec2
	outlineOffsets []int
	dashBuf        []vec.Vec2

	// device space bounding box of the collected edges
	haveBBox       bool
	bbXMin, bbXMax float64
	bbYMin, bbYMax float64
}

// NewRasteriser returns a Rasteriser with the given clip rectangle, the
// identity transformation and a stroke width of 1.
func NewRasteriser(clip rect.Rect) *Rasteriser {
	return &Rasteriser{
		CTM:      matrix.Identity,
		Clip:     clip,
		Flatness: defaultFlatness,
		Width:    1,
	}
}

// Reset prepares the rasteriser for a new target without releasing its
// buffers.  All drawing parameters are restored to their defaults.
func (r *Rasteriser) Reset(clip rect.Rect) {
	r.CTM = matrix.Identity
	r.Clip = clip
	r.Flatness = defaultFlatness
	r.Width = 1
	r.Dash = nil
	r.DashPhase = 0
}

// fillRule identifies which fill rule to apply.
type fillRule int

const (
	fillNonZero fillRule = iota
	fillEvenOdd
)

// FillNonZero fills the given closed polygons, in user space, using the
// nonzero winding rule.  The emit callback receives coverage row by row;
// its slice argument is only valid during the call.
func (r *Rasteriser) FillNonZero(polys [][]vec.Vec2, emit func(y, xMin int, coverage []float32)) {
	r.beginEdges()
	for _, p := range polys {
		r.addPolygon(p)
	}
	r.fill(fillNonZero, emit)
}

// FillEvenOdd is like FillNonZero, but uses the even-odd rule.
func (r *Rasteriser) FillEvenOdd(polys [][]vec.Vec2, emit func(y, xMin int, coverage []float32)) {
	r.beginEdges()
	for _, p := range polys {
		r.addPolygon(p)
	}
	r.fill(fillEvenOdd, emit)
}

func (r *Rasteriser) beginEdges() {
	r.edges = r.edges[:0]
	r.haveBBox = false
}

// addPolygon adds the edges of a closed polygon.
func (r *Rasteriser) addPolygon(p []vec.Vec2) {
	if len(p) < 3 {
		return
	}
	for i := range p {
		j := i + 1
		if j == len(p) {
			j = 0
		}
		r.addEdge(p[i], p[j])
	}
}

// addEdge transforms a user space segment to device space and records it.
func (r *Rasteriser) addEdge(p0, p1 vec.Vec2) {
	M := r.CTM
	x0 := M[0]*p0.X + M[2]*p0.Y + M[4]
	y0 := M[1]*p0.X + M[3]*p0.Y + M[5]
	x1 := M[0]*p1.X + M[2]*p1.Y + M[4]
	y1 := M[1]*p1.X + M[3]*p1.Y + M[5]

	dy := y1 - y0
	if math.Abs(dy) < horizontalEdgeThreshold {
		return
	}
	r.edges = append(r.edges, edge{x0: x0, y0: y0, x1: x1, y1: y1, dxdy: (x1 - x0) / dy})

	if !r.haveBBox {
		r.bbXMin, r.bbXMax = min(x0, x1), max(x0, x1)
		r.bbYMin, r.bbYMax = min(y0, y1), max(y0, y1)
		r.haveBBox = true
		return
	}
	r.bbXMin = min(r.bbXMin, x0, x1)
	r.bbXMax = max(r.bbXMax, x0, x1)
	r.bbYMin = min(r.bbYMin, y0, y1)
	r.bbYMax = max(r.bbYMax, y0, y1)
}

// pixelBounds returns the integer bounding box of the collected edges,
// clamped to the clip rectangle.
func (r *Rasteriser) pixelBounds() (xMin, xMax, yMin, yMax int, ok bool) {
	if len(r.edges) == 0 {
		return 0, 0, 0, 0, false
	}
	xMin = max(int(math.Floor(r.bbXMin)), int(r.Clip.LLx))
	xMax = min(int(math.Floor(r.bbXMax))+1, int(r.Clip.URx))
	yMin = max(int(math.Floor(r.bbYMin)), int(r.Clip.LLy))
	yMax = min(int(math.Floor(r.bbYMax))+1, int(r.Clip.URy))
	if xMin >= xMax || yMin >= yMax {
		return 0, 0, 0, 0, false
	}
	return xMin, xMax, yMin, yMax, true
}

// Coverage accumulation:
//
// For every pixel two values are tracked.  cover holds the signed vertical
// extent of all edge pieces inside the pixel column, area holds the part of
// this extent which lies to the right of the edge inside the pixel.  A
// left-to-right prefix sum over cover, plus the pixel's own area, gives the
// signed winding number integrated over the pixel.

// fill scans the collected edges using an active edge list.
func (r *Rasteriser) fill(rule fillRule, emit func(y, xMin int, coverage []float32)) {
	xMin, xMax, yMin, yMax, ok := r.pixelBounds()
	if !ok {
		return
	}
	width := xMax - xMin
	r.cover = slices.Grow(r.cover[:0], width)[:width]
	r.area = slices.Grow(r.area[:0], width)[:width]

	slices.SortFunc(r.edges, func(a, b edge) int {
		return cmp.Compare(a.yMin(), b.yMin())
	})

	r.active = r.active[:0]
	next := 0
	for y := yMin; y < yMax; y++ {
		yTop := float64(y)
		yBot := yTop + 1

		for next < len(r.edges) && r.edges[next].yMin() < yBot {
			r.active = append(r.active, next)
			next++
		}

		// drop edges which end above this scanline
		k := 0
		for _, idx := range r.active {
			if r.edges[idx].yMax() > yTop {
				r.active[k] = idx
				k++
			}
		}
		r.active = r.active[:k]
		if len(r.active) == 0 {
			continue
		}

		clear(r.cover)
		clear(r.area)
		for _, idx := range r.active {
			r.accumulate(&r.edges[idx], y, xMin, xMax)
		}

		if rule == fillNonZero {
			integrateNonZero(r.cover, r.area)
		} else {
			integrateEvenOdd(r.cover, r.area)
		}
		if row, offs := trimZeros(r.cover); row != nil {
			emit(y, xMin+offs, row)
		}
	}
}

// accumulate adds the contribution of e within scanline y to the cover and
// area buffers, which are indexed by x - xMin.  Edge pieces left of the
// buffer are folded into the first pixel, pieces right of it are dropped.
func (r *Rasteriser) accumulate(e *edge, y, xMin, xMax int) {
	yTop := max(float64(y), e.yMin())
	yBot := min(float64(y+1), e.yMax())
	if yBot <= yTop {
		return
	}

	sign := float32(1)
	if e.y1 < e.y0 {
		sign = -1
	}

	xa := e.x0 + e.dxdy*(yTop-e.y0)
	xb := e.x0 + e.dxdy*(yBot-e.y0)
	xLeft, xRight := min(xa, xb), max(xa, xb)
	pixLeft := int(math.Floor(xLeft))
	pixRight := int(math.Floor(xRight))

	if pixLeft >= xMax {
		return
	}
	if pixRight < xMin {
		c := sign * float32(yBot-yTop)
		r.cover[0] += c
		r.area[0] += c
		return
	}

	if pixLeft == pixRight {
		r.deposit(pixLeft, xMin, xMax, sign*float32(yBot-yTop), (xa+xb)/2)
		return
	}

	// The edge crosses several pixel columns: split it at the column
	// boundaries.
	dydx := 1 / e.dxdy
	for pix := pixLeft; pix <= pixRight && pix < xMax; pix++ {
		ya := e.y0 + dydx*(float64(pix)-e.x0)
		yb := e.y0 + dydx*(float64(pix+1)-e.x0)
		segTop := max(min(ya, yb), yTop)
		segBot := min(max(ya, yb), yBot)
		if segBot <= segTop {
			continue
		}
		xMid := e.x0 + e.dxdy*((segTop+segBot)/2-e.y0)
		r.deposit(pix, xMin, xMax, sign*float32(segBot-segTop), xMid)
	}
}

// deposit records a piece of an edge with signed height c, crossing pixel
// column pix at horizontal position x.
func (r *Rasteriser) deposit(pix, xMin, xMax int, c float32, x float64) {
	switch {
	case pix < xMin:
		r.cover[0] += c
		r.area[0] += c
	case pix < xMax:
		i := pix - xMin
		r.cover[i] += c
		r.area[i] += c * float32(1-(x-float64(pix)))
	}
}

// integrateNonZero converts cover/area to coverage values, in place,
// using the nonzero winding rule.
func integrateNonZero(cover, area []float32) {
	var acc float32
	for i := range cover {
		v := abs32(acc + area[i])
		acc += cover[i]
		cover[i] = min(v, 1)
	}
}

// integrateEvenOdd converts cover/area to coverage values, in place,
// using the even-odd rule.
func integrateEvenOdd(cover, area []float32) {
	var acc float32
	for i := range cover {
		v := abs32(acc + area[i])
		acc += cover[i]
		v -= 2 * float32(int(v/2))
		cover[i] = 1 - abs32(1-v)
	}
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// trimZeros returns the non-zero part of a coverage row and its offset.
// It returns nil if the row is entirely zero.
func trimZeros(row []float32) ([]float32, int) {
	lo, hi := 0, len(row)
	for lo < hi && row[lo] == 0 {
		lo++
	}
	if lo == hi {
		return nil, 0
	}
	for row[hi-1] == 0 {
		hi--
	}
	return row[lo:hi], lo
}

const (
	// defaultFlatness is the default polygon approximation tolerance in
	// device pixels.
	defaultFlatness = 0.25

	// horizontalEdgeThreshold is the minimum vertical extent for an edge
	// to contribute to coverage.
	horizontalEdgeThreshold = 1e-10

	// zeroLengthThreshold is the minimum length for a stroke segment.
	zeroLengthThreshold = 1e-10
)
