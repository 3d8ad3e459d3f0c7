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

// Package layout maps between the three coordinate systems used when a
// page is shown on screen: device pixels, display pixels (the page scaled
// to fit the container width and then zoomed) and intrinsic document units
// (the page at scale 1).
//
// All functions are pure.  Degenerate inputs, like a zero-width container
// before the first resize, never cause a division by zero; they behave as
// if no scaling was applied yet.
package layout

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
)

// Default limits, matching what a typical desktop viewer can afford.
const (
	// DefaultMaxDeviceScale caps the device pixel ratio used for
	// rasterisation.
	DefaultMaxDeviceScale = 3.0

	// DefaultMaxMegapixels caps the pixel count of a single rasterised page.
	DefaultMaxMegapixels = 12.0

	// DefaultBucketStep is the quantisation step for rasterisation scales.
	DefaultBucketStep = 0.05
)

// Layout describes the placement of one page.
type Layout struct {
	// ContainerWidth is the available horizontal space in display pixels.
	ContainerWidth float64

	// PageWidth and PageHeight give the intrinsic page size at scale 1.
	PageWidth, PageHeight float64

	// Zoom is the user zoom multiplier.  Zoom 1 means "fit to width".
	// Values <= 0 are treated as 1.
	Zoom float64
}

// FitScale returns the scale which makes the page exactly as wide as the
// container.  If either width is not positive, 1 is returned.
func (l Layout) FitScale() float64 {
	if l.ContainerWidth <= 0 || l.PageWidth <= 0 {
		return 1
	}
	return l.ContainerWidth / l.PageWidth
}

func (l Layout) zoom() float64 {
	if l.Zoom <= 0 {
		return 1
	}
	return l.Zoom
}

// Scale returns the number of display pixels per document unit,
// i.e. FitScale() * Zoom.  This is also the rasterisation quality scale
// before any device pixel ratio is applied.
func (l Layout) Scale() float64 {
	return l.FitScale() * l.zoom()
}

// FitSize returns the page size at zoom 1.
func (l Layout) FitSize() (w, h float64) {
	s := l.FitScale()
	return l.PageWidth * s, l.PageHeight * s
}

// DisplaySize returns the page size in display pixels at the current zoom.
func (l Layout) DisplaySize() (w, h float64) {
	s := l.Scale()
	return l.PageWidth * s, l.PageHeight * s
}

// DocScale returns the factors which convert an offset within the display
// surface into document units.  For an empty layout both factors are 1.
func (l Layout) DocScale() (sx, sy float64) {
	w, h := l.DisplaySize()
	sx, sy = 1, 1
	if w > 0 && l.PageWidth > 0 {
		sx = l.PageWidth / w
	}
	if h > 0 && l.PageHeight > 0 {
		sy = l.PageHeight / h
	}
	return sx, sy
}

// ToDocument converts a point given in display pixels, relative to the
// top-left corner of the page, into document units.
func (l Layout) ToDocument(p vec.Vec2) vec.Vec2 {
	sx, sy := l.DocScale()
	return vec.Vec2{X: p.X * sx, Y: p.Y * sy}
}

// ToDisplay is the inverse of ToDocument.
func (l Layout) ToDisplay(p vec.Vec2) vec.Vec2 {
	sx, sy := l.DocScale()
	return vec.Vec2{X: p.X / sx, Y: p.Y / sy}
}

// DeviceMatrix returns the transformation from document units to device
// pixels for the given device pixel ratio.  The matrix is always built from
// scratch, so repeated draws never accumulate rounding drift.
func (l Layout) DeviceMatrix(dpr float64) matrix.Matrix {
	if dpr <= 0 {
		dpr = 1
	}
	sx, sy := l.DocScale()
	return matrix.Matrix{dpr / sx, 0, 0, dpr / sy, 0, 0}
}

// DevicePixels returns the size of the device pixel buffer needed to show
// the page at the current zoom.
func (l Layout) DevicePixels(dpr float64) (w, h int) {
	dw, dh := l.DisplaySize()
	if dpr <= 0 {
		dpr = 1
	}
	return int(math.Floor(dw * dpr)), int(math.Floor(dh * dpr))
}

// DeviceScale clamps the device pixel ratio to the range (0, maxScale].
// Non-positive ratios are treated as 1.
func DeviceScale(dpr, maxScale float64) float64 {
	if dpr <= 0 {
		dpr = 1
	}
	if maxScale > 0 && dpr > maxScale {
		dpr = maxScale
	}
	return dpr
}

// MegapixelClamp returns the factor by which the rasterisation scale must be
// reduced so that a w x h viewport, rendered at the device pixel ratio dpr,
// uses at most maxPixels pixels.  The result is 1 if no reduction is needed.
func MegapixelClamp(w, h, dpr, maxPixels float64) float64 {
	pixels := w * h * dpr * dpr
	if pixels <= 0 || maxPixels <= 0 || pixels <= maxPixels {
		return 1
	}
	return math.Sqrt(maxPixels / pixels)
}

// Bucket quantises a rasterisation scale to the nearest multiple of step.
// The result is the bucket index; use [BucketScale] to recover the scale.
// Continuous zoom gestures thus collapse onto a few distinct values.
// The smallest bucket is 1, so that a bucket never maps to scale 0.
func Bucket(scale, step float64) int {
	if step <= 0 {
		step = DefaultBucketStep
	}
	b := int(math.Round(scale / step))
	return max(b, 1)
}

// BucketScale returns the rasterisation scale represented by bucket b.
func BucketScale(b int, step float64) float64 {
	if step <= 0 {
		step = DefaultBucketStep
	}
	return float64(b) * step
}
