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

// Package pdfview renders document pages at interactive zoom levels and
// overlays a freehand annotation layer.
//
// The work is split over several packages:
//
//   - [seehuhn.de/go/pdfview/layout] maps between display pixels and
//     document coordinates.
//   - [seehuhn.de/go/pdfview/bitmapcache] keeps recently rasterised pages.
//   - [seehuhn.de/go/pdfview/scheduler] bounds the number of concurrent
//     rasterisations and detects stale requests.
//   - [seehuhn.de/go/pdfview/pagerender] decides, per visible page, what to
//     draw now and what to render next.
//   - [seehuhn.de/go/pdfview/annotation] stores strokes with undo/redo.
//   - [seehuhn.de/go/pdfview/input] turns pointer events into strokes,
//     selections, drags and erasures.
//   - [seehuhn.de/go/pdfview/overlay] and [seehuhn.de/go/pdfview/raster]
//     paint the annotation layer.
//
// This package itself only holds the shared logger.
package pdfview
