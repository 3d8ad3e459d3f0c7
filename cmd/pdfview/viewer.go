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
	"fmt"
	"image"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"seehuhn.de/go/pdfview/annotation"
	"seehuhn.de/go/pdfview/input"
	"seehuhn.de/go/pdfview/layout"
	"seehuhn.de/go/pdfview/pagerender"
	"seehuhn.de/go/pdfview/surface"
)

// Zoom limits of the viewer.
const (
	minZoom  = 0.25
	maxZoom  = 5.0
	zoomStep = 0.1

	// minContainerWidth is the smallest width a page is laid out for.
	minContainerWidth = 320
)

// clampZoom limits z to [minZoom, maxZoom] and rounds it to two decimals,
// so that repeated steps do not accumulate rounding errors.
func clampZoom(z float64) float64 {
	z = min(max(z, minZoom), maxZoom)
	return math.Round(z*100) / 100
}

// viewer shows one page of a document with its annotation overlay.
// All fields are accessed on the fyne UI goroutine only.
type viewer struct {
	win   fyne.Window
	store *annotation.Store
	doc   string

	renderer *pagerender.Renderer
	engine   *input.Engine
	view     *pageView

	status    *widget.Label
	pageLabel *widget.Label
	busy      *widget.ProgressBarInfinite

	page, numPages int
	zoom           float64
	width          float64
	dpr            float64

	unsubscribe func()
}

func newViewer(w fyne.Window, svc *pagerender.Services, store *annotation.Store, doc string) *viewer {
	v := &viewer{
		win:       w,
		store:     store,
		doc:       doc,
		status:    widget.NewLabel(""),
		pageLabel: widget.NewLabel(""),
		busy:      widget.NewProgressBarInfinite(),
		page:      1,
		zoom:      1,
		dpr:       1,
	}
	v.busy.Hide()

	pageImg := &canvas.Image{FillMode: canvas.ImageFillStretch}
	overlayImg := &canvas.Image{FillMode: canvas.ImageFillStretch}
	pageSurf := surface.NewImage(showOn(pageImg))
	overlaySurf := surface.NewImage(showOn(overlayImg))

	v.renderer = svc.NewRenderer(pageSurf, pagerender.Callbacks{
		OnRendered: func(page, numPages int) {
			fyne.Do(func() {
				v.numPages = numPages
				v.pageLabel.SetText(fmt.Sprintf("%d / %d", page, numPages))
				v.status.SetText("")
			})
		},
		OnLayout: func(l layout.Layout) {
			fyne.Do(func() { v.setLayout(l) })
		},
		OnLoading: func(loading bool) {
			fyne.Do(func() {
				if loading {
					v.busy.Show()
				} else {
					v.busy.Hide()
				}
			})
		},
		OnError: func(err error) {
			fyne.Do(func() {
				v.busy.Hide()
				v.status.SetText(err.Error())
			})
		},
	})
	v.engine = input.New(store, overlaySurf)
	v.view = newPageView(v.engine, pageImg, overlayImg)
	v.unsubscribe = store.Subscribe(func() {
		fyne.Do(v.showHistory)
	})
	return v
}

// showOn returns a Present callback which shows the presented buffer in
// img.
func showOn(img *canvas.Image) func(*image.RGBA) {
	return func(buf *image.RGBA) {
		fyne.Do(func() {
			img.Image = buf
			img.Refresh()
		})
	}
}

func (v *viewer) close() {
	v.unsubscribe()
	v.engine.Close()
	v.renderer.Close()
}

func (v *viewer) content() fyne.CanvasObject {
	scroll := container.NewScroll(v.view)
	frame := newFrame(scroll, func(size fyne.Size) {
		v.setWidth(float64(size.Width))
	})
	bottom := container.NewBorder(nil, nil, v.pageLabel, v.busy, v.status)
	return container.NewBorder(v.toolbar(), bottom, nil, nil, frame)
}

// update asks the renderer and the input engine to show the current page.
func (v *viewer) update() {
	if v.width <= 0 {
		return
	}
	v.dpr = float64(v.win.Canvas().Scale())
	v.engine.SetPage(v.page)
	v.renderer.Update(pagerender.Params{
		Document:       v.doc,
		Page:           v.page,
		Zoom:           v.zoom,
		ContainerWidth: v.width,
		DeviceScale:    v.dpr,
	})
}

func (v *viewer) setWidth(w float64) {
	w = max(w, minContainerWidth)
	if w == v.width {
		return
	}
	v.width = w
	v.update()
}

func (v *viewer) setLayout(l layout.Layout) {
	w, h := l.DisplaySize()
	v.view.setDisplaySize(fyne.NewSize(float32(w), float32(h)))
	v.engine.SetLayout(l, v.dpr)
}

func (v *viewer) setZoom(z float64) {
	z = clampZoom(z)
	if z == v.zoom {
		return
	}
	v.zoom = z
	v.update()
}

func (v *viewer) gotoPage(page int) {
	if page < 1 || v.numPages > 0 && page > v.numPages || page == v.page {
		return
	}
	v.page = page
	v.update()
}

func (v *viewer) showHistory() {
	undo, redo := v.store.History()
	v.status.SetText(fmt.Sprintf("%d undo, %d redo", undo, redo))
}

func (v *viewer) installShortcuts() {
	c := v.win.Canvas()
	ctrl := fyne.KeyModifierShortcutDefault
	add := func(key fyne.KeyName, mod fyne.KeyModifier, fn func()) {
		c.AddShortcut(&desktop.CustomShortcut{KeyName: key, Modifier: mod}, func(fyne.Shortcut) { fn() })
	}
	add(fyne.KeyEqual, ctrl, func() { v.setZoom(v.zoom + zoomStep) })
	add(fyne.KeyMinus, ctrl, func() { v.setZoom(v.zoom - zoomStep) })
	add(fyne.Key0, ctrl, func() { v.setZoom(1) })
	add(fyne.KeyZ, ctrl, func() { v.store.Undo() })
	add(fyne.KeyZ, ctrl|fyne.KeyModifierShift, func() { v.store.Redo() })

	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyLeft, fyne.KeyPageUp:
			v.gotoPage(v.page - 1)
		case fyne.KeyRight, fyne.KeyPageDown:
			v.gotoPage(v.page + 1)
		}
	})
}
