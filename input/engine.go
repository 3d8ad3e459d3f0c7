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

// Package input turns pointer events on a page into annotation edits.
//
// An [Engine] follows one pointer at a time through the phases down, move
// and up.  What happens depends on the tool selected in the annotation
// store at pointer-down:
//
//   - pen and highlighter collect points and paint a live preview onto the
//     overlay; on release a stroke with at least two points is committed.
//   - lasso either drags the current selection, if the pointer lands on a
//     selected stroke, or draws a lasso polygon and selects every stroke
//     with a point inside it.
//   - eraser removes all strokes under the pointer.
//
// Event positions are given in display pixels and converted to document
// units before any geometric test.
package input

import (
	"image"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/image/draw"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/pdfview/annotation"
	"seehuhn.de/go/pdfview/layout"
	"seehuhn.de/go/pdfview/overlay"
	"seehuhn.de/go/pdfview/surface"
)

// Event describes a pointer event.
type Event struct {
	// Pointer identifies the pointer.  Mice use 0.
	Pointer int

	// Button is the pressed button.  Only the primary button, 0, starts a
	// gesture.
	Button int

	// X and Y give the position in display pixels, relative to the top-left
	// corner of the page.
	X, Y float64

	// Pressure is in (0, 1].  Devices without pressure information report 0.
	Pressure float64

	// Time is the time of the event.  The zero value means "now".
	Time time.Time
}

type mode int

const (
	idle mode = iota
	drawing
	lassoing
	dragging
	erasing
)

// Engine is the annotation input state machine of one page view.
// Its methods are safe for concurrent use, but are normally called from
// the UI goroutine.
type Engine struct {
	store          *annotation.Store
	surface        surface.Surface
	painter        *overlay.Painter
	now            func() time.Time
	maxDeviceScale float64
	logger         *slog.Logger
	unsubscribe    func()

	mu     sync.Mutex
	page   int
	layout layout.Layout
	dpr    float64
	canvas *image.RGBA

	mode    mode
	pointer int
	style   annotation.Stroke
	points  []annotation.Point
	lasso   []vec.Vec2
	dragIDs []string
	last    vec.Vec2
	box     *rect.Rect
}

// New returns an engine which edits the strokes in store and paints the
// overlay onto s.  The overlay is repainted whenever the store changes.
// Call Close to detach the engine from the store.
func New(store *annotation.Store, s surface.Surface, opts ...Option) *Engine {
	opt := defaultOptions()
	for _, o := range opts {
		o(&opt)
	}
	opt.fill()

	e := &Engine{
		store:          store,
		surface:        s,
		painter:        overlay.NewPainter(),
		now:            opt.now,
		maxDeviceScale: opt.maxDeviceScale,
		logger:         opt.logger,
		page:           1,
		dpr:            1,
	}
	e.unsubscribe = store.Subscribe(e.Redraw)
	return e
}

// Close detaches the engine from its store.
func (e *Engine) Close() {
	e.unsubscribe()
}

// Page returns the page the engine is editing.
func (e *Engine) Page() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.page
}

// SetPage switches to another page.  A gesture in progress is abandoned.
func (e *Engine) SetPage(page int) {
	e.mu.Lock()
	if page != e.page {
		e.reset()
		e.page = page
	}
	e.mu.Unlock()

	e.Redraw()
}

// SetLayout sets the placement of the page and the device pixel ratio of
// the overlay surface.
func (e *Engine) SetLayout(l layout.Layout, dpr float64) {
	e.mu.Lock()
	e.layout = l
	e.dpr = layout.DeviceScale(dpr, e.maxDeviceScale)
	e.mu.Unlock()

	e.Redraw()
}

// Active reports whether a pointer is captured.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode != idle
}

// PointerDown starts a gesture.  It reports whether the engine captured
// the pointer; events of other pointers are ignored until the gesture ends.
func (e *Engine) PointerDown(ev Event) bool {
	if ev.Button != 0 {
		return false
	}
	tools := e.store.Tools()
	state := e.store.State()

	e.mu.Lock()
	if e.mode != idle {
		e.mu.Unlock()
		return false
	}
	e.pointer = ev.Pointer
	pt := e.point(ev)
	page := e.page

	var erase []string
	switch tools.Tool {
	case annotation.ToolPen, annotation.ToolHighlighter:
		e.mode = drawing
		e.style, _ = tools.Style(tools.Tool)
		e.points = []annotation.Point{pt}
	case annotation.ToolLasso:
		if hitAny(state.SelectedStrokes(page), pt.Vec()) {
			e.mode = dragging
			e.dragIDs = state.Selection()
			e.last = pt.Vec()
		} else {
			e.mode = lassoing
			e.lasso = []vec.Vec2{pt.Vec()}
		}
	case annotation.ToolEraser:
		e.mode = erasing
		list := state.Strokes(page)
		for i := range list {
			if annotation.HitStroke(&list[i], pt.Vec()) {
				erase = append(erase, list[i].ID)
			}
		}
	}
	e.mu.Unlock()

	if len(erase) > 0 {
		e.logger.Debug("erasing strokes", "page", page, "count", len(erase))
		e.store.RemoveStrokes(page, erase)
	}
	return true
}

// PointerMove continues the current gesture.
func (e *Engine) PointerMove(ev Event) {
	e.mu.Lock()
	if e.mode == idle || ev.Pointer != e.pointer {
		e.mu.Unlock()
		return
	}
	pt := e.point(ev)

	switch e.mode {
	case drawing:
		prev := e.points[len(e.points)-1]
		e.points = append(e.points, pt)
		if e.canvas != nil {
			e.painter.Segment(e.canvas, e.layout, e.dpr, &e.style, prev.Vec(), pt.Vec())
			e.presentLocked()
		}
		e.mu.Unlock()

	case lassoing:
		e.lasso = append(e.lasso, pt.Vec())
		e.paintLocked(e.store.State())
		e.mu.Unlock()

	case dragging:
		d := pt.Vec().Sub(e.last)
		e.last = pt.Vec()
		if d.X == 0 && d.Y == 0 {
			e.mu.Unlock()
			return
		}
		page, ids := e.page, e.dragIDs
		move := annotation.Translate(d.X, d.Y)

		var moved []annotation.Stroke
		for _, s := range e.store.State().Strokes(page) {
			if slices.Contains(ids, s.ID) {
				moved = append(moved, move(s))
			}
		}
		if box, ok := annotation.Bounds(moved); ok {
			e.box = &box
		}
		e.mu.Unlock()

		e.store.UpdateStrokes(page, ids, move)

	default:
		e.mu.Unlock()
	}
}

// PointerUp ends the current gesture.
func (e *Engine) PointerUp(ev Event) {
	e.mu.Lock()
	if e.mode == idle || ev.Pointer != e.pointer {
		e.mu.Unlock()
		return
	}
	page := e.page

	var draft *annotation.Stroke
	var selection []string
	selecting := false
	switch e.mode {
	case drawing:
		if len(e.points) >= 2 {
			s := e.style
			s.Points = e.points
			draft = &s
		}
	case lassoing:
		if len(e.lasso) >= 3 {
			selecting = true
			list := e.store.State().Strokes(page)
			for i := range list {
				if annotation.StrokeInPolygon(&list[i], e.lasso) {
					selection = append(selection, list[i].ID)
				}
			}
		}
	}
	e.reset()
	e.mu.Unlock()

	switch {
	case draft != nil:
		s := e.store.AddStroke(page, *draft)
		e.logger.Debug("stroke added", "page", page, "id", s.ID, "points", len(s.Points))
	case selecting:
		e.store.SetSelected(selection)
	default:
		e.Redraw()
	}
}

// PointerCancel ends the current gesture when the host loses the pointer.
// The gesture is completed as if the pointer had been released.
func (e *Engine) PointerCancel(ev Event) {
	e.PointerUp(ev)
}

// Redraw repaints the overlay from the store and the gesture in progress.
func (e *Engine) Redraw() {
	state := e.store.State()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.paintLocked(state)
}

// reset abandons the current gesture.  The caller must hold e.mu.
func (e *Engine) reset() {
	e.mode = idle
	e.points = nil
	e.lasso = nil
	e.dragIDs = nil
	e.box = nil
}

// point converts an event into a stroke sample.  The caller must hold e.mu.
func (e *Engine) point(ev Event) annotation.Point {
	p := e.layout.ToDocument(vec.Vec2{X: ev.X, Y: ev.Y})
	pressure := ev.Pressure
	if pressure <= 0 {
		pressure = annotation.DefaultPressure
	}
	t := ev.Time
	if t.IsZero() {
		t = e.now()
	}
	return annotation.Point{X: p.X, Y: p.Y, Pressure: pressure, T: t}
}

// paintLocked repaints the off-screen canvas and presents it.
// The caller must hold e.mu.
func (e *Engine) paintLocked(state *annotation.State) {
	w, h := e.layout.DevicePixels(e.dpr)
	if w <= 0 || h <= 0 {
		return
	}
	if b := e.canvas; b == nil || b.Bounds().Dx() != w || b.Bounds().Dy() != h {
		e.canvas = image.NewRGBA(image.Rect(0, 0, w, h))
	}

	sc := overlay.Scene{Strokes: state.Strokes(e.page)}
	switch e.mode {
	case drawing:
		preview := e.style
		preview.Points = e.points
		sc.Preview = &preview
	case lassoing:
		sc.Lasso = e.lasso
	case dragging:
		sc.Box = e.box
	}
	e.painter.Paint(e.canvas, e.layout, e.dpr, &sc)
	e.presentLocked()
}

// presentLocked copies the canvas to the overlay surface.
// The caller must hold e.mu.
func (e *Engine) presentLocked() {
	b := e.canvas.Bounds()
	dst, err := e.surface.Acquire(b.Dx(), b.Dy())
	if err != nil {
		e.logger.Debug("overlay not drawn", "page", e.page, "error", err)
		return
	}
	draw.Draw(dst, dst.Bounds(), e.canvas, image.Point{}, draw.Src)
	e.surface.Present(dst)
}

func hitAny(strokes []annotation.Stroke, p vec.Vec2) bool {
	for i := range strokes {
		if annotation.HitStroke(&strokes[i], p) {
			return true
		}
	}
	return false
}
