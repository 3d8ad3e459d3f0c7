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

package main

import (
	"math"
	"testing"
)

func TestClampZoom(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{1, 1},
		{1.04, 1.04},
		{0.25, 0.25},
		{0.25 - zoomStep, 0.25},
		{0.1, 0.25},
		{0, 0.25},
		{7, 5},
		{0.1 + 0.2, 0.3},
	}
	for _, c := range cases {
		if got := clampZoom(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("clampZoom(%g) = %g, want %g", c.in, got, c.want)
		}
	}
}
