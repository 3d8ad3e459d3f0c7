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
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"seehuhn.de/go/pdfview/input"
)

// pageView shows a page image with the annotation overlay on top and
// forwards pointer events to the input engine.
type pageView struct {
	widget.BaseWidget

	engine  *input.Engine
	page    *canvas.Image
	overlay *canvas.Image
	display fyne.Size

	last input.Event // most recent event of the active gesture
}

var _ fyne.Widget = (*pageView)(nil)
var _ fyne.Draggable = (*pageView)(nil)
var _ desktop.Mouseable = (*pageView)(nil)

func newPageView(e *input.Engine, page, overlay *canvas.Image) *pageView {
	p := &pageView{
		engine:  e,
		page:    page,
		overlay: overlay,
		display: fyne.NewSize(minContainerWidth, minContainerWidth),
	}
	p.ExtendBaseWidget(p)
	return p
}

// setDisplaySize sets the size of the page in display pixels.
func (p *pageView) setDisplaySize(size fyne.Size) {
	if size == p.display {
		return
	}
	p.display = size
	p.Refresh()
}

func (p *pageView) event(pos fyne.Position, button desktop.MouseButton) input.Event {
	ev := input.Event{X: float64(pos.X), Y: float64(pos.Y)}
	if button != desktop.MouseButtonPrimary {
		ev.Button = 1
	}
	return ev
}

func (p *pageView) MouseDown(e *desktop.MouseEvent) {
	ev := p.event(e.Position, e.Button)
	if p.engine.PointerDown(ev) {
		p.last = ev
	}
}

func (p *pageView) MouseUp(e *desktop.MouseEvent) {
	p.engine.PointerUp(p.event(e.Position, e.Button))
}

func (p *pageView) Dragged(e *fyne.DragEvent) {
	ev := p.event(e.Position, desktop.MouseButtonPrimary)
	p.engine.PointerMove(ev)
	p.last = ev
}

// DragEnd completes the gesture in case the driver reports no MouseUp
// after a drag.
func (p *pageView) DragEnd() {
	p.engine.PointerCancel(p.last)
}

func (p *pageView) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.White)
	return &pageViewRenderer{
		view:    p,
		objects: []fyne.CanvasObject{bg, p.page, p.overlay},
	}
}

type pageViewRenderer struct {
	view    *pageView
	objects []fyne.CanvasObject
}

func (r *pageViewRenderer) Layout(fyne.Size) {
	for _, o := range r.objects {
		o.Move(fyne.NewPos(0, 0))
		o.Resize(r.view.display)
	}
}

func (r *pageViewRenderer) MinSize() fyne.Size {
	return r.view.display
}

func (r *pageViewRenderer) Refresh() {
	r.Layout(r.view.Size())
	canvas.Refresh(r.view)
}

func (r *pageViewRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *pageViewRenderer) Destroy()                     {}

// frame reports its size to a callback whenever it is laid out.  This is
// how the viewer learns the available width.
type frame struct {
	widget.BaseWidget
	content  fyne.CanvasObject
	onResize func(fyne.Size)
}

func newFrame(content fyne.CanvasObject, onResize func(fyne.Size)) *frame {
	f := &frame{content: content, onResize: onResize}
	f.ExtendBaseWidget(f)
	return f
}

func (f *frame) CreateRenderer() fyne.WidgetRenderer {
	return &frameRenderer{f: f}
}

type frameRenderer struct {
	f *frame
}

func (r *frameRenderer) Layout(size fyne.Size) {
	r.f.content.Resize(size)
	r.f.onResize(size)
}

func (r *frameRenderer) MinSize() fyne.Size {
	return fyne.NewSize(minContainerWidth, 200)
}

func (r *frameRenderer) Refresh()                     { r.f.content.Refresh() }
func (r *frameRenderer) Objects() []fyne.CanvasObject { return []fyne.CanvasObject{r.f.content} }
func (r *frameRenderer) Destroy()                     {}
