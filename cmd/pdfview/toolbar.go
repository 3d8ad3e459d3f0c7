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
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"seehuhn.de/go/pdfview/annotation"
)

// colorSwatch is a small tappable square of colour.
type colorSwatch struct {
	widget.BaseWidget
	color    annotation.Color
	onTapped func(annotation.Color)
}

func newColorSwatch(c annotation.Color, tapped func(annotation.Color)) *colorSwatch {
	s := &colorSwatch{color: c, onTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.color.NRGBA(1))
	rect.SetMinSize(fyne.NewSize(24, 24))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(*fyne.PointEvent) {
	if s.onTapped != nil {
		s.onTapped(s.color)
	}
}

func swatches(palette []annotation.Color, tapped func(annotation.Color)) fyne.CanvasObject {
	box := container.NewHBox()
	for _, c := range palette {
		box.Add(newColorSwatch(c, tapped))
	}
	return box
}

func slider(lo, hi, step, value float64, changed func(float64)) fyne.CanvasObject {
	s := widget.NewSlider(lo, hi)
	s.Step = step
	s.SetValue(value)
	s.OnChanged = changed
	return container.New(layout.NewGridWrapLayout(fyne.NewSize(120, 35)), s)
}

func (v *viewer) toolbar() fyne.CanvasObject {
	st := v.store
	tools := st.Tools()

	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() { st.SetTool(annotation.ToolPen) }),
		widget.NewToolbarAction(theme.ColorPaletteIcon(), func() { st.SetTool(annotation.ToolHighlighter) }),
		widget.NewToolbarAction(theme.ContentCutIcon(), func() { st.SetTool(annotation.ToolLasso) }),
		widget.NewToolbarAction(theme.DeleteIcon(), func() { st.SetTool(annotation.ToolEraser) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), func() { st.Undo() }),
		widget.NewToolbarAction(theme.ContentRedoIcon(), func() { st.Redo() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() { v.setZoom(v.zoom - zoomStep) }),
		widget.NewToolbarAction(theme.ZoomFitIcon(), func() { v.setZoom(1) }),
		widget.NewToolbarAction(theme.ZoomInIcon(), func() { v.setZoom(v.zoom + zoomStep) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.NavigateBackIcon(), func() { v.gotoPage(v.page - 1) }),
		widget.NewToolbarAction(theme.NavigateNextIcon(), func() { v.gotoPage(v.page + 1) }),
	)

	pen := container.NewHBox(
		widget.NewLabel("Pen:"),
		swatches(annotation.PenPalette, st.SetPenColor),
		slider(annotation.MinPenWidth, annotation.MaxPenWidth, 1, tools.PenWidth, st.SetPenWidth),
	)
	highlighter := container.NewHBox(
		widget.NewLabel("Highlighter:"),
		swatches(annotation.HighlighterPalette, st.SetHighlighterColor),
		slider(annotation.MinHighlighterWidth, annotation.MaxHighlighterWidth, 1, tools.HighlighterWidth, st.SetHighlighterWidth),
		slider(annotation.MinHighlighterOpacity, annotation.MaxHighlighterOpacity,
			annotation.HighlighterOpacityStep, tools.HighlighterOpacity, st.SetHighlighterOpacity),
	)

	return container.NewVBox(
		container.NewHBox(tb, layout.NewSpacer()),
		container.NewHBox(pen, widget.NewSeparator(), highlighter, layout.NewSpacer()),
	)
}
