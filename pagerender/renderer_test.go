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
	"fmt"
	"image"
	"image/color"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"seehuhn.de/go/pdfview/bitmapcache"
	"seehuhn.de/go/pdfview/document"
	"seehuhn.de/go/pdfview/layout"
	"seehuhn.de/go/pdfview/surface"
)

const testDoc = "test.pdf"

var errBroken = errors.New("broken page")

type fakePage struct {
	width, height float64

	renders atomic.Int32
	started chan struct{} // if not nil, receives a value when Render starts
	gate    chan struct{} // if not nil, Render waits for it to be closed
	err     error
}

func (p *fakePage) Viewport(scale float64) document.Viewport {
	return document.Viewport{Width: p.width * scale, Height: p.height * scale, Scale: scale}
}

func (p *fakePage) Render(ctx context.Context, dst *image.RGBA, vp document.Viewport) error {
	p.renders.Add(1)
	if p.started != nil {
		p.started <- struct{}{}
	}
	if p.gate != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.gate:
		}
	}
	if p.err != nil {
		return p.err
	}
	for i := 0; i < len(dst.Pix); i += 4 {
		copy(dst.Pix[i:i+4], []byte{0, 0, 255, 255})
	}
	return nil
}

type fakeDoc struct {
	pages []*fakePage
}

func (d *fakeDoc) NumPages() int { return len(d.pages) }

func (d *fakeDoc) Page(ctx context.Context, n int) (document.Page, error) {
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("no page %d", n)
	}
	return d.pages[n-1], nil
}

func (d *fakeDoc) Close() error { return nil }

type fakeOpener struct {
	doc *fakeDoc
}

func (o *fakeOpener) Open(ctx context.Context, path string) (document.Document, error) {
	if path != testDoc {
		return nil, fmt.Errorf("%s: no such file", path)
	}
	return o.doc, nil
}

func newDoc(n int, width, height float64) *fakeDoc {
	d := &fakeDoc{}
	for range n {
		d.pages = append(d.pages, &fakePage{width: width, height: height})
	}
	return d
}

// recorder collects the callbacks of a renderer.
type recorder struct {
	rendered  chan [2]int
	loading   chan bool
	errs      chan error
	layouts   chan layout.Layout
	presented chan *image.RGBA
}

func newRecorder() *recorder {
	return &recorder{
		rendered:  make(chan [2]int, 16),
		loading:   make(chan bool, 16),
		errs:      make(chan error, 16),
		layouts:   make(chan layout.Layout, 16),
		presented: make(chan *image.RGBA, 16),
	}
}

func (rec *recorder) callbacks() Callbacks {
	return Callbacks{
		OnRendered: func(page, numPages int) { rec.rendered <- [2]int{page, numPages} },
		OnLoading:  func(loading bool) { rec.loading <- loading },
		OnError:    func(err error) { rec.errs <- err },
		OnLayout:   func(l layout.Layout) { rec.layouts <- l },
	}
}

func (rec *recorder) surface() *surface.Image {
	return surface.NewImage(func(img *image.RGBA) { rec.presented <- img })
}

func receive[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout waiting for %s", what)
	}
	panic("unreachable")
}

func TestRenderMiss(t *testing.T) {
	doc := newDoc(3, 300, 400)
	svc := NewServices(WithOpener(&fakeOpener{doc: doc}), WithIdleDelay(0))
	defer svc.Close()

	rec := newRecorder()
	r := svc.NewRenderer(rec.surface(), rec.callbacks())
	defer r.Close()

	r.Update(Params{Document: testDoc, Page: 3, Zoom: 1, ContainerWidth: 300, DeviceScale: 1})

	if got := receive(t, rec.rendered, "page rendered"); got != [2]int{3, 3} {
		t.Errorf("OnRendered(%d, %d), want (3, 3)", got[0], got[1])
	}
	l := receive(t, rec.layouts, "layout")
	if w, h := l.DisplaySize(); w != 300 || h != 400 {
		t.Errorf("display size %gx%g, want 300x400", w, h)
	}

	keys := svc.Cache.Keys()
	wantKey := bitmapcache.Key{Document: testDoc, Page: 3, Bucket: 20}
	if len(keys) != 1 || keys[0] != wantKey {
		t.Fatalf("cache keys %v, want [%v]", keys, wantKey)
	}
	entry, _ := svc.Cache.Get(wantKey)
	if math.Abs(entry.QualityScale-1) > 1e-9 {
		t.Errorf("quality scale %g, want 1", entry.QualityScale)
	}

	img := receive(t, rec.presented, "presented bitmap")
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 400 {
		t.Errorf("surface size %v, want 300x400", b)
	}
	if c := img.RGBAAt(150, 200); c != (color.RGBA{B: 255, A: 255}) {
		t.Errorf("pixel colour %v", c)
	}
	if n := doc.pages[2].renders.Load(); n != 1 {
		t.Errorf("%d renders, want 1", n)
	}
}

func TestRenderHit(t *testing.T) {
	doc := newDoc(1, 300, 400)
	svc := NewServices(WithOpener(&fakeOpener{doc: doc}), WithIdleDelay(0))
	defer svc.Close()

	rec := newRecorder()
	r := svc.NewRenderer(rec.surface(), rec.callbacks())
	defer r.Close()

	p := Params{Document: testDoc, Page: 1, Zoom: 2, ContainerWidth: 300, DeviceScale: 1}
	r.Update(p)
	receive(t, rec.rendered, "first render")
	svc.Scheduler.Wait()

	// a nearby zoom falls into the same bucket
	p.Zoom = 2.01
	r.Update(p)
	receive(t, rec.rendered, "cached render")

	if n := doc.pages[0].renders.Load(); n != 1 {
		t.Errorf("%d renders, want 1", n)
	}
	if s := svc.Cache.Stats(); s.Hits != 1 {
		t.Errorf("%d cache hits, want 1", s.Hits)
	}
}

func TestInvalidPage(t *testing.T) {
	svc := NewServices(WithOpener(&fakeOpener{doc: newDoc(2, 100, 100)}), WithIdleDelay(0))
	defer svc.Close()

	rec := newRecorder()
	r := svc.NewRenderer(rec.surface(), rec.callbacks())
	defer r.Close()

	for _, page := range []int{0, 3} {
		r.Update(Params{Document: testDoc, Page: page, Zoom: 1, ContainerWidth: 100})
		err := receive(t, rec.errs, "error")

		var pageErr *PageError
		if !errors.As(err, &pageErr) {
			t.Fatalf("got %T, want *PageError", err)
		}
		if pageErr.Page != page || !errors.Is(err, ErrInvalidPage) {
			t.Errorf("got %v", err)
		}
	}
}

func TestMissingDocument(t *testing.T) {
	svc := NewServices(WithOpener(&fakeOpener{doc: newDoc(1, 100, 100)}))
	defer svc.Close()

	rec := newRecorder()
	r := svc.NewRenderer(rec.surface(), rec.callbacks())
	defer r.Close()

	r.Update(Params{Document: "missing.pdf", Page: 1, Zoom: 1, ContainerWidth: 100})
	err := receive(t, rec.errs, "error")
	var pageErr *PageError
	if !errors.As(err, &pageErr) || pageErr.Document != "missing.pdf" {
		t.Errorf("got %v", err)
	}
}

func TestRenderFailure(t *testing.T) {
	doc := newDoc(2, 100, 100)
	doc.pages[0].err = errBroken
	svc := NewServices(WithOpener(&fakeOpener{doc: doc}), WithIdleDelay(0), WithConcurrency(1))
	defer svc.Close()

	rec := newRecorder()
	r := svc.NewRenderer(rec.surface(), rec.callbacks())
	defer r.Close()

	r.Update(Params{Document: testDoc, Page: 1, Zoom: 1, ContainerWidth: 100})
	err := receive(t, rec.errs, "error")
	if !errors.Is(err, errBroken) {
		t.Errorf("got %v, want %v", err, errBroken)
	}
	if svc.Cache.Len() != 0 {
		t.Error("failed render was cached")
	}

	// the scheduler keeps working
	r.Update(Params{Document: testDoc, Page: 2, Zoom: 1, ContainerWidth: 100})
	if got := receive(t, rec.rendered, "page 2"); got[0] != 2 {
		t.Errorf("rendered page %d, want 2", got[0])
	}
}

func TestStaleRender(t *testing.T) {
	doc := newDoc(2, 100, 100)
	slow := doc.pages[0]
	slow.started = make(chan struct{}, 1)
	slow.gate = make(chan struct{})
	defer close(slow.gate)

	svc := NewServices(WithOpener(&fakeOpener{doc: doc}), WithIdleDelay(0))
	defer svc.Close()

	rec := newRecorder()
	r := svc.NewRenderer(rec.surface(), rec.callbacks())
	defer r.Close()

	r.Update(Params{Document: testDoc, Page: 1, Zoom: 1, ContainerWidth: 100})
	receive(t, slow.started, "page 1 render")

	// switching to page 2 cancels the rasterisation of page 1
	r.Update(Params{Document: testDoc, Page: 2, Zoom: 1, ContainerWidth: 100})
	if got := receive(t, rec.rendered, "page 2"); got[0] != 2 {
		t.Errorf("rendered page %d, want 2", got[0])
	}
	svc.Scheduler.Wait()

	for _, k := range svc.Cache.Keys() {
		if k.Page == 1 {
			t.Error("stale page 1 bitmap was cached")
		}
	}
	select {
	case got := <-rec.rendered:
		t.Errorf("unexpected OnRendered%v", got)
	default:
	}
	select {
	case err := <-rec.errs:
		t.Errorf("cancellation reported as error: %v", err)
	default:
	}
}

func TestPlaceholder(t *testing.T) {
	doc := newDoc(1, 100, 100)
	svc := NewServices(WithOpener(&fakeOpener{doc: doc}), WithIdleDelay(time.Hour))
	defer svc.Close()

	low := image.NewRGBA(image.Rect(0, 0, 50, 50))
	for i := 0; i < len(low.Pix); i += 4 {
		copy(low.Pix[i:i+4], []byte{255, 0, 0, 255})
	}
	svc.Cache.Set(bitmapcache.Key{Document: testDoc, Page: 1, Bucket: 10},
		&bitmapcache.Entry{Bitmap: low, DisplayWidth: 50, DisplayHeight: 50, QualityScale: 0.5})

	rec := newRecorder()
	r := svc.NewRenderer(rec.surface(), rec.callbacks())
	defer r.Close()

	r.Update(Params{Document: testDoc, Page: 1, Zoom: 1, ContainerWidth: 100, DeviceScale: 2})

	img := receive(t, rec.presented, "placeholder")
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Errorf("surface size %v, want 200x200", b)
	}
	if c := img.RGBAAt(100, 100); c.R < 250 || c.G > 5 {
		t.Errorf("placeholder not drawn, pixel %v", c)
	}
	if !receive(t, rec.loading, "loading") {
		t.Error("loading state not set")
	}
	select {
	case got := <-rec.rendered:
		t.Errorf("placeholder reported as rendered: %v", got)
	default:
	}
	if n := doc.pages[0].renders.Load(); n != 0 {
		t.Errorf("%d renders before the idle delay", n)
	}
}

func TestMegapixelClamp(t *testing.T) {
	doc := newDoc(1, 500, 500)
	svc := NewServices(WithOpener(&fakeOpener{doc: doc}), WithIdleDelay(0), WithMaxMegapixels(0.25))
	defer svc.Close()

	rec := newRecorder()
	r := svc.NewRenderer(rec.surface(), rec.callbacks())
	defer r.Close()

	r.Update(Params{Document: testDoc, Page: 1, Zoom: 1, ContainerWidth: 500, DeviceScale: 3})
	receive(t, rec.rendered, "page")

	entry, ok := svc.Cache.Get(bitmapcache.Key{Document: testDoc, Page: 1, Bucket: 20})
	if !ok {
		t.Fatal("bitmap not cached")
	}
	if entry.QualityScale >= 3 {
		t.Errorf("quality scale %g not reduced below 3", entry.QualityScale)
	}
	b := entry.Bitmap.Bounds()
	if pixels := float64(b.Dx() * b.Dy()); pixels > 0.25e6*1.001 {
		t.Errorf("%g pixels exceed the budget", pixels)
	}
}

func TestDeviceScaleCap(t *testing.T) {
	doc := newDoc(1, 100, 100)
	svc := NewServices(WithOpener(&fakeOpener{doc: doc}), WithIdleDelay(0), WithMaxDeviceScale(2))
	defer svc.Close()

	rec := newRecorder()
	r := svc.NewRenderer(rec.surface(), rec.callbacks())
	defer r.Close()

	r.Update(Params{Document: testDoc, Page: 1, Zoom: 1, ContainerWidth: 100, DeviceScale: 5})
	receive(t, rec.rendered, "page")

	_, entry, ok := svc.Cache.BestAvailable(testDoc, 1)
	if !ok {
		t.Fatal("bitmap not cached")
	}
	if math.Abs(entry.QualityScale-2) > 1e-9 {
		t.Errorf("quality scale %g, want 2", entry.QualityScale)
	}
}

func TestUnavailableSurface(t *testing.T) {
	svc := NewServices(WithOpener(&fakeOpener{doc: newDoc(1, 100, 100)}), WithIdleDelay(0))
	defer svc.Close()

	rec := newRecorder()
	s := rec.surface()
	s.SetAvailable(false)
	r := svc.NewRenderer(s, rec.callbacks())
	defer r.Close()

	r.Update(Params{Document: testDoc, Page: 1, Zoom: 1, ContainerWidth: 100})
	receive(t, rec.loading, "loading")
	time.Sleep(50 * time.Millisecond)
	svc.Scheduler.Wait()

	// the bitmap is cached for the next pass, nothing is reported
	if svc.Cache.Len() != 1 {
		t.Errorf("cache has %d entries, want 1", svc.Cache.Len())
	}
	select {
	case err := <-rec.errs:
		t.Errorf("unexpected error %v", err)
	case <-rec.rendered:
		t.Error("unexpected OnRendered")
	default:
	}
}

func TestOverlappingRequests(t *testing.T) {
	svc := NewServices(WithOpener(&fakeOpener{doc: newDoc(2, 100, 100)}), WithIdleDelay(20*time.Millisecond))
	defer svc.Close()

	// the first request is held after it has decided to schedule a
	// rasterisation
	held := make(chan struct{})
	release := make(chan struct{})
	var first atomic.Bool
	rec := newRecorder()
	cb := rec.callbacks()
	cb.OnLoading = func(loading bool) {
		if loading && first.CompareAndSwap(false, true) {
			close(held)
			<-release
		}
		rec.loading <- loading
	}
	r := svc.NewRenderer(rec.surface(), cb)
	defer r.Close()

	r.Update(Params{Document: testDoc, Page: 1, Zoom: 1, ContainerWidth: 100})
	receive(t, held, "page 1 loading")

	go r.Update(Params{Document: testDoc, Page: 2, Zoom: 1, ContainerWidth: 100})
	time.Sleep(50 * time.Millisecond)
	close(release)

	if got := receive(t, rec.rendered, "page 2"); got[0] != 2 {
		t.Errorf("rendered page %d, want 2", got[0])
	}
	svc.Scheduler.Wait()
	for _, k := range svc.Cache.Keys() {
		if k.Page == 1 {
			t.Error("stale page 1 bitmap was cached")
		}
	}
}
