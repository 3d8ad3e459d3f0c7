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

	"seehuhn.de/go/geom/rect"
)

// ClipRect returns the clip rectangle covering all of img.
func ClipRect(img *image.RGBA) rect.Rect {
	b := img.Bounds()
	return rect.Rect{
		LLx: float64(b.Min.X),
		LLy: float64(b.Min.Y),
		URx: float64(b.Max.X),
		URy: float64(b.Max.Y),
	}
}

// Blend returns an emit callback which composites coverage onto dst, using
// the colour c and an additional opacity in [0, 1], with the source-over
// operator.  dst uses premultiplied alpha, as all image.RGBA images do.
func Blend(dst *image.RGBA, c color.NRGBA, opacity float64) func(y, xMin int, coverage []float32) {
	opacity = min(max(opacity, 0), 1)
	alpha := float32(c.A) / 255 * float32(opacity)
	sr, sg, sb := float32(c.R), float32(c.G), float32(c.B)

	b := dst.Bounds()
	return func(y, xMin int, coverage []float32) {
		if y < b.Min.Y || y >= b.Max.Y {
			return
		}
		for i, cov := range coverage {
			x := xMin + i
			if x < b.Min.X || x >= b.Max.X {
				continue
			}
			a := cov * alpha
			if a <= 0 {
				continue
			}
			o := dst.PixOffset(x, y)
			px := dst.Pix[o : o+4 : o+4]
			keep := 1 - a
			px[0] = uint8(sr*a + float32(px[0])*keep + 0.5)
			px[1] = uint8(sg*a + float32(px[1])*keep + 0.5)
			px[2] = uint8(sb*a + float32(px[2])*keep + 0.5)
			px[3] = uint8(255*a + float32(px[3])*keep + 0.5)
		}
	}
}

// Clear sets all pixels of img to transparent black.
func Clear(img *image.RGBA) {
	clear(img.Pix)
}
