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
	"image"
	"image/color"
	"math"
	"testing"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// grid collects emitted coverage values into a dense w×h array.
type grid struct {
	w, h int
	v    []float32
}

func newGrid(w, h int) *grid {
	return &grid{w: w, h: h, v: make([]float32, w*h)}
}

func (g *grid) emit(y, xMin int, coverage []float32) {
	for i, c := range coverage {
		g.v[y*g.w+xMin+i] = c
	}
}

func (g *grid) at(x, y int) float32 {
	return g.v[y*g.w+x]
}

// near reports whether the coverage of pixel (x, y) is within 1e-4 of want.
func (g *grid) near(x, y int, want float32) bool {
	return math.Abs(float64(g.at(x, y)-want)) < 1e-4
}

func (g *grid) sum() float64 {
	var s float64
	for _, c := range g.v {
		s += float64(c)
	}
	return s
}

func (g *grid) clip() rect.Rect {
	return rect.Rect{URx: float64(g.w), URy: float64(g.h)}
}

func square(x0, y0, x1, y1 float64) []vec.Vec2 {
	return []vec.Vec2{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

func TestFillSquare(t *testing.T) {
	g := newGrid(10, 10)
	r := NewRasteriser(g.clip())
	r.FillNonZero([][]vec.Vec2{square(1.5, 1.5, 4.5, 4.5)}, g.emit)

	cases := []struct {
		x, y int
		want float32
	}{
		{0, 0, 0},
		{1, 1, 0.25},
		{2, 1, 0.5},
		{1, 3, 0.5},
		{2, 2, 1},
		{3, 3, 1},
		{4, 4, 0.25},
		{5, 5, 0},
	}
	for _, c := range cases {
		got := g.at(c.x, c.y)
		if math.Abs(float64(got-c.want)) > 1e-6 {
			t.Errorf("pixel (%d,%d): got %.4f, want %.4f", c.x, c.y, got, c.want)
		}
	}
	if s := g.sum(); math.Abs(s-9) > 1e-4 {
		t.Errorf("total coverage %.4f, want 9", s)
	}
}

func TestFillOrientation(t *testing.T) {
	// a clockwise polygon must give the same coverage as a
	// counter-clockwise one
	ccw := newGrid(8, 8)
	r := NewRasteriser(ccw.clip())
	r.FillNonZero([][]vec.Vec2{square(1, 1, 6.5, 5)}, ccw.emit)

	cw := newGrid(8, 8)
	p := square(1, 1, 6.5, 5)
	p[1], p[3] = p[3], p[1]
	r.FillNonZero([][]vec.Vec2{p}, cw.emit)

	for i := range ccw.v {
		if ccw.v[i] != cw.v[i] {
			t.Fatalf("pixel %d: %g != %g", i, ccw.v[i], cw.v[i])
		}
	}
}

func TestEvenOddHole(t *testing.T) {
	polys := [][]vec.Vec2{
		square(0, 0, 10, 10),
		square(3, 3, 7, 7),
	}

	eo := newGrid(10, 10)
	r := NewRasteriser(eo.clip())
	r.FillEvenOdd(polys, eo.emit)
	if got := eo.at(5, 5); got != 0 {
		t.Errorf("even-odd: centre coverage %g, want 0", got)
	}
	if got := eo.at(1, 1); got != 1 {
		t.Errorf("even-odd: ring coverage %g, want 1", got)
	}

	nz := newGrid(10, 10)
	r.Reset(nz.clip())
	r.FillNonZero(polys, nz.emit)
	if got := nz.at(5, 5); got != 1 {
		t.Errorf("nonzero: centre coverage %g, want 1", got)
	}
}

func TestCTM(t *testing.T) {
	g := newGrid(10, 10)
	r := NewRasteriser(g.clip())
	r.CTM = matrix.Scale(2, 2)
	r.FillNonZero([][]vec.Vec2{square(1, 1, 3, 3)}, g.emit)

	if got := g.at(1, 1); got != 0 {
		t.Errorf("pixel (1,1): got %g, want 0", got)
	}
	if got := g.at(2, 2); got != 1 {
		t.Errorf("pixel (2,2): got %g, want 1", got)
	}
	if got := g.at(5, 5); got != 1 {
		t.Errorf("pixel (5,5): got %g, want 1", got)
	}
	if s := g.sum(); math.Abs(s-16) > 1e-4 {
		t.Errorf("total coverage %.4f, want 16", s)
	}
}

func TestClip(t *testing.T) {
	g := newGrid(4, 4)
	r := NewRasteriser(g.clip())
	r.FillNonZero([][]vec.Vec2{square(-10, -10, 20, 20)}, g.emit)
	for i, c := range g.v {
		if c != 1 {
			t.Fatalf("pixel %d: got %g, want 1", i, c)
		}
	}
}

func TestStrokeLine(t *testing.T) {
	g := newGrid(20, 10)
	r := NewRasteriser(g.clip())
	r.Width = 4
	r.Stroke([]vec.Vec2{{X: 4, Y: 5}, {X: 16, Y: 5}}, g.emit)

	if got := g.at(10, 3); !g.near(10, 3, 1) {
		t.Errorf("inside: got %g, want 1", got)
	}
	if got := g.at(10, 7); !g.near(10, 7, 0) {
		t.Errorf("outside: got %g, want 0", got)
	}
	// round caps reach 2 units beyond the end points
	if got := g.at(2, 5); got < 1e-4 {
		t.Error("start cap missing")
	}
	if got := g.at(17, 5); got < 1e-4 {
		t.Error("end cap missing")
	}
	if got := g.at(1, 5); !g.near(1, 5, 0) {
		t.Errorf("beyond start cap: got %g, want 0", got)
	}

	// rectangle 12×4 plus one full disc of radius 2
	lo := 48 + 0.85*4*math.Pi
	hi := 48 + 4*math.Pi
	if s := g.sum(); s < lo || s > hi+1e-4 {
		t.Errorf("total coverage %.3f not in [%.3f, %.3f]", s, lo, hi)
	}
}

func TestStrokeDot(t *testing.T) {
	g := newGrid(10, 10)
	r := NewRasteriser(g.clip())
	r.Width = 6
	r.Stroke([]vec.Vec2{{X: 5, Y: 5}}, g.emit)
	if got := g.at(5, 5); !g.near(5, 5, 1) {
		t.Errorf("centre: got %g, want 1", got)
	}
	if s := g.sum(); s < 0.85*9*math.Pi || s > 9*math.Pi {
		t.Errorf("dot area %.3f, want close to %.3f", s, 9*math.Pi)
	}

	// coincident points are a dot as well
	g2 := newGrid(10, 10)
	r.Stroke([]vec.Vec2{{X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}}, g2.emit)
	for i := range g.v {
		if g.v[i] != g2.v[i] {
			t.Fatalf("pixel %d: %g != %g", i, g.v[i], g2.v[i])
		}
	}
}

func TestStrokeSelfIntersection(t *testing.T) {
	g := newGrid(20, 20)
	r := NewRasteriser(g.clip())
	r.Width = 4
	r.Stroke([]vec.Vec2{
		{X: 2, Y: 2}, {X: 18, Y: 18}, {X: 18, Y: 2}, {X: 2, Y: 18},
	}, g.emit)

	// the crossing point must be painted, not cancelled out
	if got := g.at(9, 9); !g.near(9, 9, 1) {
		t.Errorf("crossing: got %g, want 1", got)
	}
	for i, c := range g.v {
		if c > 1 {
			t.Fatalf("pixel %d: coverage %g > 1", i, c)
		}
	}
}

func TestStrokeDash(t *testing.T) {
	g := newGrid(40, 10)
	r := NewRasteriser(g.clip())
	r.Width = 2
	r.Dash = []float64{6, 6}
	r.Stroke([]vec.Vec2{{X: 0, Y: 5}, {X: 40, Y: 5}}, g.emit)

	// dashes on [0,6], [12,18], [24,30], [36,40]; caps add 1 on each side
	for _, x := range []int{3, 14, 26, 38} {
		if got := g.at(x, 5); !g.near(x, 5, 1) {
			t.Errorf("x=%d: got %g, want 1", x, got)
		}
	}
	for _, x := range []int{8, 9, 20, 21, 32, 33} {
		if got := g.at(x, 5); !g.near(x, 5, 0) {
			t.Errorf("x=%d: got %g, want 0", x, got)
		}
	}

	// a phase of 6 swaps the pattern
	g2 := newGrid(40, 10)
	r.DashPhase = 6
	r.Stroke([]vec.Vec2{{X: 0, Y: 5}, {X: 40, Y: 5}}, g2.emit)
	if got := g2.at(3, 5); !g2.near(3, 5, 0) {
		t.Errorf("phase 6, x=3: got %g, want 0", got)
	}
	if got := g2.at(9, 5); !g2.near(9, 5, 1) {
		t.Errorf("phase 6, x=9: got %g, want 1", got)
	}
}

func TestStrokeDashAcrossVertices(t *testing.T) {
	// the pattern continues around corners
	var pieces [][]vec.Vec2
	r := NewRasteriser(rect.Rect{URx: 100, URy: 100})
	r.Dash = []float64{5, 5}
	r.dashPolyline([]vec.Vec2{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 4}, {X: 3, Y: 20}},
		func(p []vec.Vec2) {
			pieces = append(pieces, append([]vec.Vec2(nil), p...))
		})

	if len(pieces) != 3 {
		t.Fatalf("got %d dashes, want 3: %v", len(pieces), pieces)
	}
	first := pieces[0]
	if len(first) != 3 || first[1] != (vec.Vec2{X: 3, Y: 0}) {
		t.Errorf("first dash should turn the corner: %v", first)
	}
	if end := first[len(first)-1]; math.Abs(end.Y-2) > 1e-9 {
		t.Errorf("first dash ends at %v, want (3,2)", end)
	}
	second := pieces[1]
	if math.Abs(second[0].Y-7) > 1e-9 || math.Abs(second[len(second)-1].Y-12) > 1e-9 {
		t.Errorf("second dash is %v, want (3,7)-(3,12)", second)
	}
	third := pieces[2]
	if math.Abs(third[0].Y-17) > 1e-9 || third[len(third)-1] != (vec.Vec2{X: 3, Y: 20}) {
		t.Errorf("third dash is %v, want (3,17)-(3,20)", third)
	}
}

func TestBlend(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	emit := Blend(img, color.NRGBA{R: 255, A: 255}, 0.5)
	emit(0, 0, []float32{1, 0})

	if got, want := img.RGBAAt(0, 0), (color.RGBA{R: 255, G: 128, B: 128, A: 255}); got != want {
		t.Errorf("blended pixel: got %v, want %v", got, want)
	}
	if got, want := img.RGBAAt(1, 0), (color.RGBA{R: 255, G: 255, B: 255, A: 255}); got != want {
		t.Errorf("untouched pixel: got %v, want %v", got, want)
	}

	Clear(img)
	emit = Blend(img, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, 1)
	emit(0, 0, []float32{1, 1})
	if got, want := img.RGBAAt(1, 0), (color.RGBA{R: 10, G: 20, B: 30, A: 255}); got != want {
		t.Errorf("opaque pixel: got %v, want %v", got, want)
	}

	// rows and columns outside the image are ignored
	emit(5, 0, []float32{1})
	emit(0, -1, []float32{1, 1, 1, 1})
}
