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

package annotation

import (
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// HitToleranceFactor relates the hit-test tolerance of a stroke to its
// width.
const HitToleranceFactor = 1.2

// DistanceToSegment returns the distance from p to the line segment a-b.
func DistanceToSegment(p, a, b vec.Vec2) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.Sub(a).Length()
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = min(max(t, 0), 1)
	q := vec.Vec2{X: a.X + t*ab.X, Y: a.Y + t*ab.Y}
	return p.Sub(q).Length()
}

// HitStroke reports whether p lies within the hit tolerance of s, which is
// HitToleranceFactor times the stroke width.  The boundary is inclusive.
// A stroke with a single point is hit near that point.
func HitStroke(s *Stroke, p vec.Vec2) bool {
	tol := s.Width * HitToleranceFactor
	switch len(s.Points) {
	case 0:
		return false
	case 1:
		return p.Sub(s.Points[0].Vec()).Length() <= tol
	}
	for i := 1; i < len(s.Points); i++ {
		if DistanceToSegment(p, s.Points[i-1].Vec(), s.Points[i].Vec()) <= tol {
			return true
		}
	}
	return false
}

// InPolygon reports whether p lies inside the closed polygon poly, using
// the even-odd rule.
func InPolygon(p vec.Vec2, poly []vec.Vec2) bool {
	inside := false
	j := len(poly) - 1
	for i := range poly {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

// StrokeInPolygon reports whether at least one point of s lies inside poly.
func StrokeInPolygon(s *Stroke, poly []vec.Vec2) bool {
	if len(poly) < 3 {
		return false
	}
	for _, pt := range s.Points {
		if InPolygon(pt.Vec(), poly) {
			return true
		}
	}
	return false
}

// Bounds returns the smallest rectangle containing all points of the given
// strokes, enlarged by half the stroke width.  The second return value is
// false if there are no points.
func Bounds(strokes []Stroke) (rect.Rect, bool) {
	box := rect.Rect{
		LLx: math.Inf(1), LLy: math.Inf(1),
		URx: math.Inf(-1), URy: math.Inf(-1),
	}
	found := false
	for _, s := range strokes {
		d := s.Width / 2
		for _, p := range s.Points {
			box.LLx = min(box.LLx, p.X-d)
			box.LLy = min(box.LLy, p.Y-d)
			box.URx = max(box.URx, p.X+d)
			box.URy = max(box.URy, p.Y+d)
			found = true
		}
	}
	if !found {
		return rect.Rect{}, false
	}
	return box, true
}

// Translate returns an update function which moves a stroke by (dx, dy).
func Translate(dx, dy float64) func(Stroke) Stroke {
	return func(s Stroke) Stroke {
		pts := make([]Point, len(s.Points))
		for i, p := range s.Points {
			p.X += dx
			p.Y += dy
			pts[i] = p
		}
		s.Points = pts
		return s
	}
}
