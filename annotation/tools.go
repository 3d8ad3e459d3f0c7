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

// Tool limits, as offered by the toolbar.
const (
	MinPenWidth            = 1.0
	MaxPenWidth            = 12.0
	MinHighlighterWidth    = 6.0
	MaxHighlighterWidth    = 24.0
	MinHighlighterOpacity  = 0.1
	MaxHighlighterOpacity  = 1.0
	HighlighterOpacityStep = 0.05
)

// PenPalette lists the pen colours offered by the toolbar.
var PenPalette = []Color{
	MustParseColor("#111827"),
	MustParseColor("#2563eb"),
	MustParseColor("#16a34a"),
	MustParseColor("#7c3aed"),
	MustParseColor("#ef4444"),
}

// HighlighterPalette lists the highlighter colours offered by the toolbar.
var HighlighterPalette = []Color{
	MustParseColor("#fde047"),
	MustParseColor("#fca5a5"),
	MustParseColor("#bfdbfe"),
	MustParseColor("#a7f3d0"),
}

// Tools is the tool configuration.  It is neither persisted nor part of
// the undo history.
type Tools struct {
	Tool Tool

	PenColor Color
	PenWidth float64

	HighlighterColor   Color
	HighlighterWidth   float64
	HighlighterOpacity float64
}

// DefaultTools returns the initial tool configuration.
func DefaultTools() Tools {
	return Tools{
		Tool:               ToolPen,
		PenColor:           MustParseColor("#1f2937"),
		PenWidth:           3,
		HighlighterColor:   MustParseColor("#facc15"),
		HighlighterWidth:   12,
		HighlighterOpacity: 0.35,
	}
}

// Style returns the attributes new strokes get with the given tool.
// The last return value is false for tools which do not draw.
func (t Tools) Style(tool Tool) (Stroke, bool) {
	switch tool {
	case ToolPen:
		return Stroke{Kind: Pen, Color: t.PenColor, Width: t.PenWidth, Opacity: 1}, true
	case ToolHighlighter:
		return Stroke{
			Kind:    Highlighter,
			Color:   t.HighlighterColor,
			Width:   t.HighlighterWidth,
			Opacity: t.HighlighterOpacity,
		}, true
	default:
		return Stroke{}, false
	}
}
