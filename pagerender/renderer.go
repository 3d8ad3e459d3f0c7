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

package pagerender

import (
	"context"
	"errors"
	"image"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"seehuhn.de/go/pdfview/bitmapcache"
	"seehuhn.de/go/pdfview/document"
	"seehuhn.de/go/pdfview/layout"
	"seehuhn.de/go/pdfview/scheduler"
	"seehuhn.de/go/pdfview/surface"
)

// Params describe what a renderer should show.
type Params struct {
	Document string // path, passed to the document opener
	Page     int    // 1-based

	// Zoom is the user zoom multiplier, 1 means fit to width.
	Zoom float64

	// ContainerWidth is the available width in display pixels.
	ContainerWidth float64

	// DeviceScale is the number of device pixels per display pixel.
	DeviceScale float64
}

// Callbacks notify the host of state changes.  All fields are optional.
// Callbacks are called from worker goroutines and must not block.
type Callbacks struct {
	// OnRendered is called when the page is shown at the requested
	// quality, either from the cache or after rasterisation.
	OnRendered func(page, numPages int)

	// OnLayout is called with the page layout once the page size is known.
	OnLayout func(l layout.Layout)

	// OnLoading is called when a rasterisation starts or ends.
	OnLoading func(loading bool)

	// OnError is called with a [*PageError] for failures other than
	// cancellation.
	OnError func(err error)
}

// Renderer keeps one surface showing one page.
// Its methods are safe for concurrent use.
type Renderer struct {
	svc     *Services
	surface surface.Surface
	cb      Callbacks

	// mu orders new tokens against debounce triggers, so that a stale
	// request never replaces the pending call of a newer one.
	mu       sync.Mutex
	gen      scheduler.Generation
	debounce scheduler.Debouncer

	drawMu sync.Mutex // serialises validity check and drawing
}

// Update shows the page described by p.  Any work for previous parameters
// is abandoned.  Update returns immediately; the page is drawn
// asynchronously.
func (r *Renderer) Update(p Params) {
	r.mu.Lock()
	tok := r.gen.Next(context.Background())
	r.mu.Unlock()

	go r.prepare(tok, p)
}

// Close abandons all pending work.  Close does not wait for running
// rasterisations; their results are discarded.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen.Invalidate()
	r.debounce.Stop()
}

// prepare resolves the page and shows the best bitmap available.  If the
// exact bitmap is not cached, a rasterisation is scheduled once the view
// has been idle for the configured delay.
func (r *Renderer) prepare(tok *scheduler.Token, p Params) {
	svc := r.svc
	ctx := tok.Context()

	doc, err := svc.Documents.Open(ctx, p.Document)
	if !r.check(tok, p, err) {
		return
	}
	numPages := doc.NumPages()
	if p.Page < 1 || p.Page > numPages {
		r.fail(tok, p, ErrInvalidPage)
		return
	}
	page, err := doc.Page(ctx, p.Page)
	if !r.check(tok, p, err) {
		return
	}

	vp := page.Viewport(1)
	req := &request{
		page: page,
		layout: layout.Layout{
			ContainerWidth: p.ContainerWidth,
			PageWidth:      vp.Width,
			PageHeight:     vp.Height,
			Zoom:           p.Zoom,
		},
		dpr: layout.DeviceScale(p.DeviceScale, svc.opt.maxDeviceScale),
	}
	req.key = bitmapcache.Key{
		Document: p.Document,
		Page:     p.Page,
		Bucket:   layout.Bucket(req.layout.Scale(), svc.opt.bucketStep),
	}
	if r.cb.OnLayout != nil && tok.Valid() {
		r.cb.OnLayout(req.layout)
	}

	if entry, ok := svc.Cache.Get(req.key); ok {
		svc.logger.Debug("cache hit", "key", req.key.String())
		if r.draw(tok, req, entry) {
			r.setLoading(false)
			r.rendered(p.Page, numPages)
		}
		return
	}
	svc.logger.Debug("cache miss", "key", req.key.String())

	if key, entry, ok := svc.Cache.BestAvailable(p.Document, p.Page); ok {
		svc.logger.Debug("placeholder", "key", key.String())
		r.draw(tok, req, entry)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !tok.Valid() {
		return
	}
	r.setLoading(true)
	r.debounce.Trigger(svc.opt.idleDelay, func() {
		if !tok.Valid() {
			return
		}
		svc.Scheduler.Schedule(func() {
			r.job(tok, req, numPages)
		})
	})
}

// job runs in a scheduler slot and rasterises req at the exact scale.
func (r *Renderer) job(tok *scheduler.Token, req *request, numPages int) {
	svc := r.svc
	if !tok.Valid() {
		svc.logger.Debug("stale job skipped", "key", req.key.String())
		return
	}

	entry, err := svc.rasterise(tok, req)
	switch {
	case document.IsCanceled(err) || !tok.Valid():
		svc.logger.Debug("stale job discarded", "key", req.key.String())
		return
	case err != nil:
		r.fail(tok, Params{Document: req.key.Document, Page: req.key.Page}, err)
		return
	}

	svc.Cache.Set(req.key, entry)
	if r.draw(tok, req, entry) {
		r.setLoading(false)
		r.rendered(req.key.Page, numPages)
	}
}

// check reports whether processing may continue after a blocking call
// which returned err.  Failures are reported, cancellations are not.
func (r *Renderer) check(tok *scheduler.Token, p Params, err error) bool {
	if err == nil {
		return tok.Valid()
	}
	if !document.IsCanceled(err) {
		r.fail(tok, p, err)
	}
	return false
}

func (r *Renderer) fail(tok *scheduler.Token, p Params, err error) {
	if !tok.Valid() {
		return
	}
	r.svc.logger.Debug("page failed", "document", p.Document, "page", p.Page, "error", err)
	r.setLoading(false)
	if r.cb.OnError != nil {
		r.cb.OnError(&PageError{Document: p.Document, Page: p.Page, Err: err})
	}
}

// draw scales entry to the display size of req and presents it.  It
// reports whether the bitmap was shown.  Nothing is drawn once tok is
// invalid, so a stale bitmap never replaces a newer one.
func (r *Renderer) draw(tok *scheduler.Token, req *request, entry *bitmapcache.Entry) bool {
	r.drawMu.Lock()
	defer r.drawMu.Unlock()

	if !tok.Valid() {
		return false
	}

	w, h := req.layout.DevicePixels(req.dpr)
	dst, err := r.surface.Acquire(w, h)
	if errors.Is(err, surface.ErrUnavailable) {
		r.svc.logger.Debug("surface unavailable", "key", req.key.String())
		return false
	} else if err != nil {
		r.fail(tok, Params{Document: req.key.Document, Page: req.key.Page}, err)
		return false
	}

	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	// The transformation is set from scratch for every draw.
	src := entry.Bitmap
	sb := src.Bounds()
	s2d := f64.Aff3{
		float64(w) / float64(sb.Dx()), 0, float64(dst.Rect.Min.X),
		0, float64(h) / float64(sb.Dy()), float64(dst.Rect.Min.Y),
	}
	draw.ApproxBiLinear.Transform(dst, s2d, src, sb, draw.Over, nil)

	r.surface.Present(dst)
	return true
}

func (r *Renderer) setLoading(loading bool) {
	if r.cb.OnLoading != nil {
		r.cb.OnLoading(loading)
	}
}

func (r *Renderer) rendered(page, numPages int) {
	if r.cb.OnRendered != nil {
		r.cb.OnRendered(page, numPages)
	}
}
