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

// Package pagerender shows document pages at interactive zoom levels.
//
// A [Services] value holds everything shared between the pages of a
// process: the bitmap cache, the render scheduler and the open documents.
// Each visible page is driven by its own [Renderer].  When the page, zoom
// or container size changes, the renderer shows a cached bitmap if one
// exists for the new scale, otherwise the best lower quality bitmap as a
// placeholder, and schedules a rasterisation at the exact scale once the
// view has been idle for a short time.
package pagerender

import (
	"context"
	"image"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"seehuhn.de/go/pdfview/bitmapcache"
	"seehuhn.de/go/pdfview/document"
	"seehuhn.de/go/pdfview/layout"
	"seehuhn.de/go/pdfview/scheduler"
	"seehuhn.de/go/pdfview/surface"
)

// Services are shared by all renderers of a process.
// They are safe for concurrent use.
type Services struct {
	Cache     *bitmapcache.Cache
	Scheduler *scheduler.Scheduler
	Documents *document.Library

	opt    options
	logger *slog.Logger
	flight singleflight.Group // one rasterisation per cache key
}

// NewServices creates the shared rendering services.
func NewServices(opts ...Option) *Services {
	opt := defaultOptions()
	for _, o := range opts {
		o(&opt)
	}
	opt.fill()

	s := &Services{
		opt:    opt,
		logger: opt.logger,
	}
	s.Cache = bitmapcache.New(opt.cacheCapacity, bitmapcache.WithEvict(s.evicted))
	s.Scheduler = scheduler.New(opt.concurrency, scheduler.WithLogger(opt.logger))
	s.Documents = document.NewLibrary(opt.opener, opt.logger)
	return s
}

// NewRenderer returns a renderer which draws into dst.
func (s *Services) NewRenderer(dst surface.Surface, cb Callbacks) *Renderer {
	return &Renderer{
		svc:     s,
		surface: dst,
		cb:      cb,
	}
}

// Close closes all open documents.  Renderers must not be used afterwards.
func (s *Services) Close() error {
	return s.Documents.Close()
}

func (s *Services) evicted(key bitmapcache.Key, _ *bitmapcache.Entry) {
	s.logger.Debug("bitmap evicted", "key", key.String())
}

// request is the part of a rasterisation request which does not change
// while the request is pending.
type request struct {
	key    bitmapcache.Key
	page   document.Page
	layout layout.Layout
	dpr    float64
}

// viewport returns the rasterisation viewport for r, at the bucket scale
// times the device pixel ratio, reduced if needed to fit the megapixel
// budget.
func (s *Services) viewport(r *request) document.Viewport {
	scale := layout.BucketScale(r.key.Bucket, s.opt.bucketStep) * r.dpr
	vp := r.page.Viewport(scale)
	clamp := layout.MegapixelClamp(vp.Width, vp.Height, 1, s.opt.maxMegapixels*1e6)
	if clamp < 1 {
		vp = r.page.Viewport(scale * clamp)
	}
	return vp
}

// maxAttempts bounds how often a rasterisation is restarted after the job
// it was shared with has been canceled.
const maxAttempts = 3

// rasterise produces the bitmap for r.  Concurrent calls for the same key
// share one rasterisation.  If the shared rasterisation is canceled on
// behalf of another request while tok is still valid, it is restarted.
func (s *Services) rasterise(tok *scheduler.Token, r *request) (*bitmapcache.Entry, error) {
	var err error
	for range maxAttempts {
		var v any
		v, err, _ = s.flight.Do(r.key.String(), func() (any, error) {
			return s.rasteriseOnce(tok.Context(), r)
		})
		if err == nil {
			return v.(*bitmapcache.Entry), nil
		}
		if !document.IsCanceled(err) || !tok.Valid() {
			break
		}
	}
	return nil, err
}

func (s *Services) rasteriseOnce(ctx context.Context, r *request) (*bitmapcache.Entry, error) {
	vp := s.viewport(r)
	bitmap := image.NewRGBA(vp.Pixels())

	s.logger.Debug("rasterising", "key", r.key.String(), "scale", vp.Scale,
		"width", bitmap.Rect.Dx(), "height", bitmap.Rect.Dy())
	if err := r.page.Render(ctx, bitmap, vp); err != nil {
		return nil, err
	}

	w, h := r.layout.DisplaySize()
	return &bitmapcache.Entry{
		Bitmap:        bitmap,
		DisplayWidth:  w,
		DisplayHeight: h,
		QualityScale:  vp.Scale,
	}, nil
}
