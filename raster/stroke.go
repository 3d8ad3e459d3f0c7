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

package raster

import (
	"math"

	"seehuhn.de/go/geom/vec"
)

// Stroke renders the polyline pts with round joins and round caps, using
// Width, Dash and DashPhase.  A polyline consisting of a single point (or of
// coincident points) is drawn as a dot.  The emit callback receives coverage
// row by row; its slice argument is only valid during the call.
//
// The outline of a stroke is the union of one disc per vertex and one
// rectangle per segment.  All pieces have the same orientation, so that
// filling them together with the nonzero rule paints overlaps only once.
func (r *Rasteriser) Stroke(pts []vec.Vec2, emit func(y, xMin int, coverage []float32)) {
	if len(pts) == 0 || r.Width <= 0 {
		return
	}

	r.outline = r.outline[:0]
	r.outlineOffsets = r.outlineOffsets[:0]
	if len(r.Dash) > 0 && dashLength(r.Dash) > 0 {
		r.dashPolyline(pts, r.outlinePolyline)
	} else {
		r.outlinePolyline(pts)
	}

	r.beginEdges()
	for i, start := range r.outlineOffsets {
		end := len(r.outline)
		if i+1 < len(r.outlineOffsets) {
			end = r.outlineOffsets[i+1]
		}
		r.addPolygon(r.outline[start:end])
	}
	r.fill(fillNonZero, emit)
}

// outlinePolyline appends the outline polygons of one solid polyline.
func (r *Rasteriser) outlinePolyline(pts []vec.Vec2) {
	d := r.Width / 2

	prev := pts[0]
	r.addDisc(prev, d)
	for _, p := range pts[1:] {
		seg := p.Sub(prev)
		l := seg.Length()
		if l < zeroLengthThreshold {
			continue
		}
		T := seg.Mul(1 / l)
		N := vec.Vec2{X: -T.Y, Y: T.X}.Mul(d)

		r.outlineOffsets = append(r.outlineOffsets, len(r.outline))
		r.outline = append(r.outline,
			prev.Add(N), prev.Sub(N), p.Sub(N), p.Add(N))
		r.addDisc(p, d)
		prev = p
	}
}

// addDisc appends a counter-clockwise polygon approximating the circle of
// the given radius around c.
func (r *Rasteriser) addDisc(c vec.Vec2, radius float64) {
	n := r.discSegments(radius)
	r.outlineOffsets = append(r.outlineOffsets, len(r.outline))
	for i := range n {
		phi := 2 * math.Pi * float64(i) / float64(n)
		r.outline = append(r.outline, vec.Vec2{
			X: c.X + radius*math.Cos(phi),
			Y: c.Y + radius*math.Sin(phi),
		})
	}
}

// discSegments returns the number of polygon corners needed to approximate
// a circle of the given user space radius within r.Flatness device pixels.
func (r *Rasteriser) discSegments(radius float64) int {
	M := r.CTM
	scale := math.Sqrt(math.Abs(M[0]*M[3] - M[1]*M[2]))
	devR := radius * scale
	if devR <= r.Flatness {
		return minDiscSegments
	}
	// a chord with sagitta f subtends the angle 2*acos(1 - f/R)
	theta := 2 * math.Acos(1-r.Flatness/devR)
	n := int(math.Ceil(2 * math.Pi / theta))
	return min(max(n, minDiscSegments), maxDiscSegments)
}

// dashPolyline splits pts according to r.Dash and r.DashPhase and calls
// yield for every "on" piece.  The slice passed to yield is reused.
func (r *Rasteriser) dashPolyline(pts []vec.Vec2, yield func([]vec.Vec2)) {
	total := dashLength(r.Dash)

	// find the position inside the pattern where the phase starts
	idx := 0
	phase := math.Mod(r.DashPhase, total)
	if phase < 0 {
		phase += total
	}
	for phase >= r.Dash[idx] {
		phase -= r.Dash[idx]
		idx = (idx + 1) % len(r.Dash)
	}
	left := r.Dash[idx] - phase // remaining length of the current dash
	on := idx%2 == 0

	buf := r.dashBuf[:0]
	if on {
		buf = append(buf, pts[0])
	}
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		segLen := b.Sub(a).Length()
		pos := 0.0
		for segLen-pos > left {
			pos += left
			q := a.Add(b.Sub(a).Mul(pos / segLen))
			if on {
				buf = append(buf, q)
				yield(buf)
				buf = buf[:0]
			} else {
				buf = append(buf[:0], q)
			}
			on = !on
			idx = (idx + 1) % len(r.Dash)
			left = r.Dash[idx]
		}
		left -= segLen - pos
		if on {
			buf = append(buf, b)
		}
	}
	if on && len(buf) > 0 {
		yield(buf)
	}
	r.dashBuf = buf
}

func dashLength(pattern []float64) float64 {
	var total float64
	for _, l := range pattern {
		if l < 0 {
			return 0
		}
		total += l
	}
	return total
}

const (
	minDiscSegments = 8
	maxDiscSegments = 256
)
